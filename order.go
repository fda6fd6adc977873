package match

import (
	"fmt"
	"sync/atomic"
)

// Order is a request to buy or sell a quantity, possibly resting on the book.
// A market order carries the zero Price until it is matched, at which point it
// is stamped with the daily limit on its side.
type Order struct {
	ID       uint64    `json:"id"`
	Side     Side      `json:"side"`
	Type     OrderType `json:"type"`
	Price    Price     `json:"price"`
	Quantity int64     `json:"quantity"`

	// Intrusive linked list pointers, owned by the BookLevel the order rests on.
	next *Order
	prev *Order
}

// NewLimitOrder creates an order that rests at price if it does not trade.
func NewLimitOrder(id uint64, side Side, price Price, quantity int64) *Order {
	return &Order{
		ID:       id,
		Side:     side,
		Type:     Limit,
		Price:    price,
		Quantity: quantity,
	}
}

// NewMarketOrder creates an order without a price.
func NewMarketOrder(id uint64, side Side, quantity int64) *Order {
	return &Order{
		ID:       id,
		Side:     side,
		Type:     Market,
		Quantity: quantity,
	}
}

// HasPrice reports whether the order has a price, either its own limit or the
// daily limit stamped on a market order when it traded.
func (o *Order) HasPrice() bool {
	return !o.Price.IsZero()
}

func (o *Order) IsBuy() bool {
	return o.Side == Buy
}

// Split detaches quantity from o into a new order with the same id, side and
// price. The new order carries the detached quantity and o keeps the rest.
func (o *Order) Split(quantity int64) *Order {
	if quantity < 0 || quantity > o.Quantity {
		panic(fmt.Sprintf("match: cannot split %d from order %d with quantity %d", quantity, o.ID, o.Quantity))
	}

	o.Quantity -= quantity
	return &Order{
		ID:       o.ID,
		Side:     o.Side,
		Type:     o.Type,
		Price:    o.Price,
		Quantity: quantity,
	}
}

// SetPrice replaces the price of an order that is not on the book.
func (o *Order) SetPrice(price Price) {
	o.Price = price
}

// UpdateQuantity adds delta to the order quantity.
func (o *Order) UpdateQuantity(delta int64) {
	o.Quantity += delta
}

func (o *Order) String() string {
	price := "MKT"
	if o.HasPrice() {
		price = o.Price.String()
	}
	return fmt.Sprintf("Order [id=%d, side=%s, price=%s, quantity=%d]", o.ID, o.Side, price, o.Quantity)
}

// IDGenerator hands out order ids. Ids are unique for the lifetime of a book.
type IDGenerator interface {
	NextID() uint64
}

// SequenceIDGenerator returns consecutive ids starting after a given value.
type SequenceIDGenerator struct {
	last atomic.Uint64
}

// NewSequenceIDGenerator creates a generator whose first id is start+1.
func NewSequenceIDGenerator(start uint64) *SequenceIDGenerator {
	g := &SequenceIDGenerator{}
	g.last.Store(start)
	return g
}

func (g *SequenceIDGenerator) NextID() uint64 {
	return g.last.Add(1)
}
