package match

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/0x5487/exchange-simulator/protocol"
)

// ChildOrder is a client's view of one of its live orders.
type ChildOrder struct {
	OrderID  uint64
	Side     Side
	Price    string
	Quantity int64
}

// Client is a participant registered with an Exchange. It keeps every
// message it receives and a view of its live orders built from them.
type Client struct {
	id       uint64
	name     string
	exchange *Exchange

	mu          sync.Mutex
	inbox       []protocol.Message
	childOrders map[uint64]*ChildOrder
	lastOrderID uint64
	registered  bool
}

func newClient(id uint64, name string, exchange *Exchange) *Client {
	return &Client{
		id:          id,
		name:        name,
		exchange:    exchange,
		childOrders: make(map[uint64]*ChildOrder),
	}
}

func (c *Client) ID() uint64 {
	return c.id
}

func (c *Client) Name() string {
	return c.name
}

// Submit sends ins to the exchange on behalf of the client and waits until
// it has been processed.
func (c *Client) Submit(ctx context.Context, ins *protocol.Instruction) error {
	return c.exchange.Submit(ctx, c.id, ins)
}

// Messages returns every message received so far, oldest first.
func (c *Client) Messages() []protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.inbox)
}

// LastMessage returns the most recently received message, or nil.
func (c *Client) LastMessage() protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.inbox) == 0 {
		return nil
	}
	return c.inbox[len(c.inbox)-1]
}

// Drain returns the received messages and empties the inbox.
// The child order view is not affected.
func (c *Client) Drain() []protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := c.inbox
	c.inbox = nil
	return msgs
}

// ChildOrder returns the client's view of a live order.
func (c *Client) ChildOrder(id uint64) (ChildOrder, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	child, ok := c.childOrders[id]
	if !ok {
		return ChildOrder{}, false
	}
	return *child, true
}

// ChildOrders returns the live orders sorted by id.
func (c *Client) ChildOrders() []ChildOrder {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]ChildOrder, 0, len(c.childOrders))
	for _, child := range c.childOrders {
		result = append(result, *child)
	}
	slices.SortFunc(result, func(a, b ChildOrder) int {
		return cmp.Compare(a.OrderID, b.OrderID)
	})
	return result
}

// LastOrderID is the id of the most recently acked placement.
func (c *Client) LastOrderID() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastOrderID
}

func (c *Client) IsRegistered() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registered
}

func (c *Client) deliver(msg protocol.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inbox = append(c.inbox, msg)
	msg.Accept(clientView{c})
}

// clientView applies messages to the child order view. The client lock is held.
type clientView struct {
	c *Client
}

func (v clientView) HandleOrder(msg *protocol.OrderMessage) {
	switch msg.State {
	case protocol.OrderStatePlaceAcked:
		v.c.lastOrderID = msg.OrderID
		v.upsert(msg)
	case protocol.OrderStateAmendPriceAcked, protocol.OrderStateAmendQuantityAcked:
		v.upsert(msg)
	case protocol.OrderStateCancelAcked:
		delete(v.c.childOrders, msg.OrderID)
	}
}

func (v clientView) HandleFill(msg *protocol.FillMessage) {
	child, ok := v.c.childOrders[msg.OrderID]
	if !ok || child.Side != msg.Side {
		return
	}
	child.Quantity -= msg.Quantity
	if child.Quantity <= 0 {
		delete(v.c.childOrders, msg.OrderID)
	}
}

func (v clientView) HandleRegister(msg *protocol.RegisterMessage) {
	switch msg.State {
	case protocol.ClientStateRegisterAcked:
		v.c.registered = true
	case protocol.ClientStateUnregisterAcked:
		v.c.registered = false
	}
}

func (v clientView) upsert(msg *protocol.OrderMessage) {
	v.c.childOrders[msg.OrderID] = &ChildOrder{
		OrderID:  msg.OrderID,
		Side:     msg.Side,
		Price:    msg.Price,
		Quantity: msg.Quantity,
	}
}
