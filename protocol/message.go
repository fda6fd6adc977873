package protocol

import "fmt"

// MessageKind names the variant of an outbound Message.
type MessageKind string

const (
	MessageKindOrder    MessageKind = "order"
	MessageKindFill     MessageKind = "fill"
	MessageKindRegister MessageKind = "register"
)

// Message is an outbound message produced by the exchange. The set of
// variants is closed: only types in this package implement it.
//
// Consumers handle every variant by implementing Handler and calling Accept,
// so adding a variant breaks every consumer at compile time instead of
// falling through a type switch.
type Message interface {
	Kind() MessageKind
	Accept(h Handler)
	sealed()
}

// Handler receives each Message variant through its own method.
type Handler interface {
	HandleOrder(msg *OrderMessage)
	HandleFill(msg *FillMessage)
	HandleRegister(msg *RegisterMessage)
}

// OrderMessage acknowledges or rejects an instruction.
// Reason and RejectReason are empty on acks.
type OrderMessage struct {
	State        OrderState   `json:"state"`
	OrderID      uint64       `json:"order_id"`
	Side         Side         `json:"side"`
	Price        string       `json:"price"`
	Quantity     int64        `json:"quantity"`
	RejectReason RejectReason `json:"reject_reason,omitempty"`
	Reason       string       `json:"reason,omitempty"`
}

func (m *OrderMessage) Kind() MessageKind { return MessageKindOrder }
func (m *OrderMessage) Accept(h Handler) { h.HandleOrder(m) }
func (m *OrderMessage) sealed() {}
func (m *OrderMessage) IsReject() bool { return m.State.IsReject() }

func (m *OrderMessage) String() string {
	return fmt.Sprintf("[orderState=%s, orderId=%d, side=%s, price=%s, quantity=%d, reason=%s]",
		m.State, m.OrderID, m.Side, m.Price, m.Quantity, m.Reason)
}

// FillMessage reports that one side of a matched slice was executed.
// A single match always produces two fills, one for each counterparty.
type FillMessage struct {
	OrderID  uint64 `json:"order_id"`
	Price    string `json:"price"`
	Quantity int64  `json:"quantity"`
	Side     Side   `json:"side"`
}

func (m *FillMessage) Kind() MessageKind { return MessageKindFill }
func (m *FillMessage) Accept(h Handler) { h.HandleFill(m) }
func (m *FillMessage) sealed() {}

func (m *FillMessage) String() string {
	return fmt.Sprintf("[orderId=%d, price=%s, fillQuantity=%d, side=%s]", m.OrderID, m.Price, m.Quantity, m.Side)
}

// RegisterMessage answers a client registration or unregistration.
type RegisterMessage struct {
	State    ClientState `json:"state"`
	ClientID uint64      `json:"client_id"`
	Reason   string      `json:"reason,omitempty"`
}

func (m *RegisterMessage) Kind() MessageKind { return MessageKindRegister }
func (m *RegisterMessage) Accept(h Handler) { h.HandleRegister(m) }
func (m *RegisterMessage) sealed() {}

func (m *RegisterMessage) String() string {
	return fmt.Sprintf("[clientState=%s, clientID=%d, reason=%s]", m.State, m.ClientID, m.Reason)
}

// Envelope pairs a Message with its kind so a stream of mixed messages can be
// serialized and told apart by readers.
type Envelope struct {
	Kind    MessageKind `json:"kind"`
	Message Message     `json:"message"`
}

// Wrap returns the Envelope for msg.
func Wrap(msg Message) Envelope {
	return Envelope{Kind: msg.Kind(), Message: msg}
}
