package match

import "fmt"

// BookLevel is the FIFO queue of resting orders at one price on one side.
//
// A level knows nothing about the book that owns it. Operations that take
// orders off the level report which ids left so the owner can update its index.
type BookLevel struct {
	price         Price
	head          *Order
	tail          *Order
	totalQuantity int64
	count         int64
}

func newBookLevel(price Price) *BookLevel {
	return &BookLevel{price: price}
}

func (l *BookLevel) Price() Price {
	return l.price
}

// TotalQuantity is the sum of the quantities of all orders on the level.
func (l *BookLevel) TotalQuantity() int64 {
	return l.totalQuantity
}

func (l *BookLevel) OrderCount() int64 {
	return l.count
}

func (l *BookLevel) IsEmpty() bool {
	return l.count == 0
}

// Front returns the order with the highest time priority.
func (l *BookLevel) Front() *Order {
	return l.head
}

// Orders returns the resting orders in time priority.
func (l *BookLevel) Orders() []*Order {
	orders := make([]*Order, 0, l.count)
	for o := l.head; o != nil; o = o.next {
		orders = append(orders, o)
	}
	return orders
}

// addOrder appends order at the back of the queue.
func (l *BookLevel) addOrder(order *Order) {
	order.prev = l.tail
	order.next = nil
	if l.tail != nil {
		l.tail.next = order
	}
	l.tail = order
	if l.head == nil {
		l.head = order
	}

	l.totalQuantity += order.Quantity
	l.count++
}

func (l *BookLevel) find(id uint64) *Order {
	for o := l.head; o != nil; o = o.next {
		if o.ID == id {
			return o
		}
	}
	return nil
}

func (l *BookLevel) unlink(order *Order) {
	if order.prev != nil {
		order.prev.next = order.next
	} else {
		l.head = order.next
	}

	if order.next != nil {
		order.next.prev = order.prev
	} else {
		l.tail = order.prev
	}

	order.next = nil
	order.prev = nil

	l.totalQuantity -= order.Quantity
	l.count--
}

// removeOrder takes the order with the given id off the level.
func (l *BookLevel) removeOrder(id uint64) (*Order, bool) {
	order := l.find(id)
	if order == nil {
		return nil, false
	}
	l.unlink(order)
	return order, true
}

// updateOrder adds delta to the quantity of the order with the given id.
// The order keeps its place in the queue.
func (l *BookLevel) updateOrder(id uint64, delta int64) bool {
	order := l.find(id)
	if order == nil {
		return false
	}
	order.UpdateQuantity(delta)
	l.totalQuantity += delta
	return true
}

// trade fills up to maxQuantity against the level in time priority.
// Orders that are fully filled are removed and their ids returned, the last
// touched order may be partially filled and keeps its place.
func (l *BookLevel) trade(maxQuantity int64) (*Trade, []uint64) {
	trade := newTrade()
	var filled []uint64

	for l.head != nil && trade.TotalQuantity < maxQuantity {
		order := l.head
		remaining := maxQuantity - trade.TotalQuantity

		if order.Quantity <= remaining {
			l.unlink(order)
			trade.addFill(order)
			filled = append(filled, order.ID)
			continue
		}

		slice := order.Split(remaining)
		l.totalQuantity -= remaining
		trade.addFill(slice)
	}

	return trade, filled
}

func (l *BookLevel) String() string {
	return fmt.Sprintf("%d@%s (%d orders)", l.totalQuantity, l.price, l.count)
}
