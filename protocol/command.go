package protocol

import "fmt"

// Instruction is the standard carrier for requests entering the exchange.
// Fields that do not apply to the action are left at their zero value.
type Instruction struct {
	// Action identifies the operation for fast routing.
	Action Action `json:"action"`

	// Side is the side of the new order, or the side the client believes
	// the addressed order rests on.
	Side Side `json:"side"`

	// Price is a decimal string; only PlaceLimit and AmendPrice carry one.
	// Using string to prevent precision loss in JSON.
	Price string `json:"price,omitempty"`

	// Quantity is the order size for placements and the target size for AmendQuantity.
	Quantity int64 `json:"quantity,omitempty"`

	// OrderID addresses a resting order (Cancel and amendments only).
	OrderID uint64 `json:"order_id,omitempty"`

	// TraceID correlates the instruction across logs. The exchange stamps one
	// if it is empty.
	TraceID string `json:"trace_id,omitempty"`
}

// PlaceLimit builds an instruction that places a limit order.
func PlaceLimit(side Side, price string, quantity int64) *Instruction {
	return &Instruction{Action: ActionPlaceLimit, Side: side, Price: price, Quantity: quantity}
}

// PlaceMarket builds an instruction that places a market order.
func PlaceMarket(side Side, quantity int64) *Instruction {
	return &Instruction{Action: ActionPlaceMarket, Side: side, Quantity: quantity}
}

// Cancel builds an instruction that cancels a resting order.
func Cancel(side Side, orderID uint64) *Instruction {
	return &Instruction{Action: ActionCancel, Side: side, OrderID: orderID}
}

// AmendPrice builds an instruction that moves a resting order to a new price.
func AmendPrice(side Side, price string, orderID uint64) *Instruction {
	return &Instruction{Action: ActionAmendPrice, Side: side, Price: price, OrderID: orderID}
}

// AmendQuantity builds an instruction that reduces a resting order's quantity.
func AmendQuantity(side Side, quantity int64, orderID uint64) *Instruction {
	return &Instruction{Action: ActionAmendQuantity, Side: side, Quantity: quantity, OrderID: orderID}
}

// OrderType reports whether the instruction carries a market or a limit order.
func (ins *Instruction) OrderType() OrderType {
	if ins.Action == ActionPlaceMarket {
		return OrderTypeMarket
	}
	return OrderTypeLimit
}

func (ins *Instruction) String() string {
	switch ins.Action {
	case ActionPlaceLimit:
		return fmt.Sprintf("Instruction [action=%s, side=%s, price=%s, quantity=%d]", ins.Action, ins.Side, ins.Price, ins.Quantity)
	case ActionPlaceMarket:
		return fmt.Sprintf("Instruction [action=%s, side=%s, quantity=%d]", ins.Action, ins.Side, ins.Quantity)
	case ActionCancel:
		return fmt.Sprintf("Instruction [action=%s, side=%s, orderID=%d]", ins.Action, ins.Side, ins.OrderID)
	case ActionAmendPrice:
		return fmt.Sprintf("Instruction [action=%s, side=%s, price=%s, orderID=%d]", ins.Action, ins.Side, ins.Price, ins.OrderID)
	case ActionAmendQuantity:
		return fmt.Sprintf("Instruction [action=%s, side=%s, quantity=%d, orderID=%d]", ins.Action, ins.Side, ins.Quantity, ins.OrderID)
	default:
		return fmt.Sprintf("Instruction [action=%s]", ins.Action)
	}
}
