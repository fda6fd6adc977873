package match

import (
	"fmt"

	"github.com/0x5487/exchange-simulator/protocol"
)

// InstructionProcessor turns one instruction into the messages it produces.
// The first message is always the ack or reject of the instruction, any
// fills follow.
type InstructionProcessor interface {
	Process(ins *protocol.Instruction) []protocol.Message
}

// PlaceProcessor handles PlaceLimit and PlaceMarket.
type PlaceProcessor struct {
	book     *OrderBook
	recorder TradeRecorder
}

func NewPlaceProcessor(book *OrderBook, recorder TradeRecorder) *PlaceProcessor {
	return &PlaceProcessor{book: book, recorder: recorder}
}

func (p *PlaceProcessor) Process(ins *protocol.Instruction) []protocol.Message {
	var order *Order
	var displayPrice string

	if ins.Action == protocol.ActionPlaceMarket {
		order = NewMarketOrder(0, ins.Side, ins.Quantity)
		displayPrice = p.book.limitFor(ins.Side).String()
	} else {
		price := ParsePrice(ins.Price)
		order = NewLimitOrder(0, ins.Side, price, ins.Quantity)
		displayPrice = price.String()
		if !price.IsValid() {
			displayPrice = ins.Price
		}
	}

	err := validatePayload(ins)
	if err == nil {
		err = p.book.CheckPlaceOrder(order)
	}
	if err != nil {
		return []protocol.Message{rejectMessage(protocol.OrderStatePlaceRejected, 0, ins.Side, displayPrice, ins.Quantity, err)}
	}

	order.ID = p.book.NextOrderID()
	msgs := []protocol.Message{&protocol.OrderMessage{
		State:    protocol.OrderStatePlaceAcked,
		OrderID:  order.ID,
		Side:     order.Side,
		Price:    displayPrice,
		Quantity: ins.Quantity,
	}}

	trade := p.book.ProcessInboundOrder(order)
	return append(msgs, fillMessages(trade, p.recorder)...)
}

// CancelProcessor handles Cancel.
type CancelProcessor struct {
	book *OrderBook
}

func NewCancelProcessor(book *OrderBook) *CancelProcessor {
	return &CancelProcessor{book: book}
}

func (p *CancelProcessor) Process(ins *protocol.Instruction) []protocol.Message {
	order, err := p.book.RemoveOrder(ins.OrderID, ins.Side)
	if err != nil {
		return []protocol.Message{rejectMessage(protocol.OrderStateCancelRejected, ins.OrderID, ins.Side, "", 0, err)}
	}

	return []protocol.Message{&protocol.OrderMessage{
		State:    protocol.OrderStateCancelAcked,
		OrderID:  order.ID,
		Side:     order.Side,
		Price:    order.Price.String(),
		Quantity: order.Quantity,
	}}
}

// AmendPriceProcessor handles AmendPrice. The amended order loses its time
// priority and may trade at its new price.
type AmendPriceProcessor struct {
	book     *OrderBook
	recorder TradeRecorder
}

func NewAmendPriceProcessor(book *OrderBook, recorder TradeRecorder) *AmendPriceProcessor {
	return &AmendPriceProcessor{book: book, recorder: recorder}
}

func (p *AmendPriceProcessor) Process(ins *protocol.Instruction) []protocol.Message {
	price := ParsePrice(ins.Price)

	err := p.book.CheckPlaceOrderPrice(price)
	var result *AmendResult
	if err == nil {
		result, err = p.book.UpdateOrderPrice(ins.OrderID, ins.Side, price)
	}
	if err != nil {
		return []protocol.Message{rejectMessage(protocol.OrderStateAmendPriceRejected, ins.OrderID, ins.Side, ins.Price, 0, err)}
	}

	msgs := []protocol.Message{&protocol.OrderMessage{
		State:    protocol.OrderStateAmendPriceAcked,
		OrderID:  result.Order.ID,
		Side:     result.Order.Side,
		Price:    result.Order.Price.String(),
		Quantity: result.Quantity,
	}}
	return append(msgs, fillMessages(result.Trade, p.recorder)...)
}

// AmendQuantityProcessor handles AmendQuantity. Only reductions are accepted
// and the order keeps its time priority.
type AmendQuantityProcessor struct {
	book *OrderBook
}

func NewAmendQuantityProcessor(book *OrderBook) *AmendQuantityProcessor {
	return &AmendQuantityProcessor{book: book}
}

func (p *AmendQuantityProcessor) Process(ins *protocol.Instruction) []protocol.Message {
	// Zero and negative quantities are the book's to reject.
	var err error
	if ins.Quantity > 0 {
		err = p.book.CheckPlaceOrderSize(ins.Side, ins.Quantity)
	}
	var order *Order
	if err == nil {
		order, err = p.book.UpdateOrderQuantity(ins.OrderID, ins.Side, ins.Quantity)
	}
	if err != nil {
		return []protocol.Message{rejectMessage(protocol.OrderStateAmendQuantityRejected, ins.OrderID, ins.Side, "", ins.Quantity, err)}
	}

	return []protocol.Message{&protocol.OrderMessage{
		State:    protocol.OrderStateAmendQuantityAcked,
		OrderID:  order.ID,
		Side:     order.Side,
		Price:    order.Price.String(),
		Quantity: order.Quantity,
	}}
}

// Router dispatches instructions to the processor of their action.
type Router struct {
	processors map[protocol.Action]InstructionProcessor
}

// NewRouter wires the four processors to book. Trades are handed to recorder.
func NewRouter(book *OrderBook, recorder TradeRecorder) *Router {
	if recorder == nil {
		recorder = NewDiscardTradeRecorder()
	}

	place := NewPlaceProcessor(book, recorder)
	return &Router{
		processors: map[protocol.Action]InstructionProcessor{
			protocol.ActionPlaceLimit:    place,
			protocol.ActionPlaceMarket:   place,
			protocol.ActionCancel:        NewCancelProcessor(book),
			protocol.ActionAmendPrice:    NewAmendPriceProcessor(book, recorder),
			protocol.ActionAmendQuantity: NewAmendQuantityProcessor(book),
		},
	}
}

// Route processes ins. It returns ErrInvalidParam for an unknown action.
func (r *Router) Route(ins *protocol.Instruction) ([]protocol.Message, error) {
	processor, ok := r.processors[ins.Action]
	if !ok {
		return nil, fmt.Errorf("%w: unknown action %d", ErrInvalidParam, ins.Action)
	}
	return processor.Process(ins), nil
}

// validatePayload catches placements no book rule could make sense of.
func validatePayload(ins *protocol.Instruction) error {
	if ins.Side != Buy && ins.Side != Sell {
		return reject(protocol.RejectReasonInvalidPayload, "Order side %d is not valid", ins.Side)
	}
	if ins.Quantity <= 0 {
		return reject(protocol.RejectReasonInvalidPayload, "Order quantity must be positive")
	}
	if ins.Quantity > MaxOrderQuantity {
		return reject(protocol.RejectReasonInvalidPayload, "Order quantity cannot exceed %d", MaxOrderQuantity)
	}
	return nil
}

func rejectMessage(state protocol.OrderState, orderID uint64, side Side, price string, quantity int64, err error) *protocol.OrderMessage {
	reason, text := rejectReasonOf(err)
	logger.Debug("instruction rejected", "state", state, "order_id", orderID, "reason", reason, "message", text)

	return &protocol.OrderMessage{
		State:        state,
		OrderID:      orderID,
		Side:         side,
		Price:        price,
		Quantity:     quantity,
		RejectReason: reason,
		Reason:       text,
	}
}

// fillMessages records trade and reports it as all passive fills followed by
// the aggressor's fill against each of them.
func fillMessages(trade *Trade, recorder TradeRecorder) []protocol.Message {
	if trade == nil {
		return nil
	}
	recorder.RecordTrade(trade)

	msgs := make([]protocol.Message, 0, 2*len(trade.Fills))
	for _, fill := range trade.Fills {
		msgs = append(msgs, &protocol.FillMessage{
			OrderID:  fill.ID,
			Price:    fill.Price.String(),
			Quantity: fill.Quantity,
			Side:     fill.Side,
		})
	}
	for _, fill := range trade.Fills {
		msgs = append(msgs, &protocol.FillMessage{
			OrderID:  trade.Aggressor.ID,
			Price:    fill.Price.String(),
			Quantity: fill.Quantity,
			Side:     trade.Aggressor.Side,
		})
	}
	return msgs
}
