package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	match "github.com/0x5487/exchange-simulator"
	"github.com/0x5487/exchange-simulator/protocol"
)

var (
	ErrInvalidScenario   = errors.New("invalid scenario")
	ErrExpectationFailed = errors.New("expectation failed")
	ErrUnknownOrderRef   = errors.New("unknown order reference")
	ErrPlacementNotAcked = errors.New("placement was not acked")
)

// Record is one line of a transcript: a message delivered to a client.
type Record struct {
	Step    int                  `json:"step"`
	Client  string               `json:"client"`
	Kind    protocol.MessageKind `json:"kind"`
	Message protocol.Message     `json:"message"`
}

// Player drives an Exchange through a Scenario and writes every delivered
// message to out, one serialized Record per line.
type Player struct {
	exchange   *match.Exchange
	serializer protocol.Serializer
	out        io.Writer

	clients map[string]*match.Client
	order   []string
	refs    map[string]uint64
}

// NewPlayer creates a Player. The exchange must be started.
func NewPlayer(exchange *match.Exchange, out io.Writer) *Player {
	return &Player{
		exchange:   exchange,
		serializer: &protocol.DefaultJSONSerializer{},
		out:        out,
		clients:    make(map[string]*match.Client),
		refs:       make(map[string]uint64),
	}
}

// Client returns the client registered for name.
func (p *Player) Client(name string) (*match.Client, bool) {
	c, ok := p.clients[name]
	return c, ok
}

// OrderID returns the order id bound to a ref label.
func (p *Player) OrderID(ref string) (uint64, bool) {
	id, ok := p.refs[ref]
	return id, ok
}

// Play registers the scenario clients and runs every step. It stops at the
// first step that fails.
func (p *Player) Play(ctx context.Context, sc *Scenario) error {
	for _, name := range sc.Clients {
		if _, ok := p.clients[name]; ok {
			continue
		}
		p.clients[name] = p.exchange.RegisterClient(name)
		p.order = append(p.order, name)
	}
	if _, err := p.flush(0); err != nil {
		return err
	}

	for i, step := range sc.Steps {
		if err := p.playStep(ctx, i+1, step); err != nil {
			return err
		}
	}
	return nil
}

func (p *Player) playStep(ctx context.Context, n int, step Step) error {
	ins, err := p.instruction(step)
	if err != nil {
		return fmt.Errorf("step %d: %w", n, err)
	}

	sender := p.clients[step.Client]
	if err := sender.Submit(ctx, ins); err != nil {
		return fmt.Errorf("step %d: submit: %w", n, err)
	}

	delivered, err := p.flush(n)
	if err != nil {
		return err
	}
	reply := firstOrderMessage(delivered[step.Client])

	if step.Ref != "" {
		if reply == nil || reply.State != protocol.OrderStatePlaceAcked {
			return fmt.Errorf("%w: step %d: ref %q", ErrPlacementNotAcked, n, step.Ref)
		}
		p.refs[step.Ref] = reply.OrderID
	}

	if step.Expect != nil {
		if err := p.check(ctx, n, step.Expect, reply); err != nil {
			return err
		}
	}
	return nil
}

func (p *Player) instruction(step Step) (*protocol.Instruction, error) {
	side, err := parseSide(step.Side)
	if err != nil {
		return nil, err
	}

	ins := &protocol.Instruction{
		Action:   actions[step.Action],
		Side:     side,
		Price:    step.Price,
		Quantity: step.Quantity,
	}

	switch ins.Action {
	case protocol.ActionCancel, protocol.ActionAmendPrice, protocol.ActionAmendQuantity:
		id, err := p.resolve(step.Order)
		if err != nil {
			return nil, err
		}
		ins.OrderID = id
	}
	return ins, nil
}

// resolve turns a ref label or a literal id into an order id.
func (p *Player) resolve(order string) (uint64, error) {
	if id, ok := p.refs[order]; ok {
		return id, nil
	}
	id, err := strconv.ParseUint(order, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownOrderRef, order)
	}
	return id, nil
}

// flush drains every client inbox into the transcript and returns what each
// client received.
func (p *Player) flush(step int) (map[string][]protocol.Message, error) {
	delivered := make(map[string][]protocol.Message, len(p.order))
	for _, name := range p.order {
		msgs := p.clients[name].Drain()
		delivered[name] = msgs
		for _, msg := range msgs {
			if err := p.write(Record{Step: step, Client: name, Kind: msg.Kind(), Message: msg}); err != nil {
				return nil, err
			}
		}
	}
	return delivered, nil
}

func (p *Player) write(rec Record) error {
	if p.out == nil {
		return nil
	}
	b, err := p.serializer.Marshal(rec)
	if err != nil {
		return fmt.Errorf("scenario: encode record: %w", err)
	}
	if _, err := p.out.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("scenario: write record: %w", err)
	}
	return nil
}

type bookState struct {
	bestBid, bestAsk                 string
	bestBidQuantity, bestAskQuantity int64
	limitUp, limitDown               bool
}

func (p *Player) check(ctx context.Context, n int, want *Expect, reply *protocol.OrderMessage) error {
	var got bookState
	err := p.exchange.Query(ctx, func(book *match.OrderBook) {
		if price, ok := book.BestBid(); ok {
			got.bestBid = price.String()
		}
		if price, ok := book.BestAsk(); ok {
			got.bestAsk = price.String()
		}
		got.bestBidQuantity = book.BestBidQuantity()
		got.bestAskQuantity = book.BestAskQuantity()
		got.limitUp = book.IsLimitUp()
		got.limitDown = book.IsLimitDown()
	})
	if err != nil {
		return fmt.Errorf("step %d: query: %w", n, err)
	}

	fail := func(field string, gotValue, wantValue any) error {
		return fmt.Errorf("%w: step %d: %s = %v, want %v", ErrExpectationFailed, n, field, gotValue, wantValue)
	}

	if want.BestBid != nil && got.bestBid != *want.BestBid {
		return fail("best_bid", got.bestBid, *want.BestBid)
	}
	if want.BestBidQuantity != nil && got.bestBidQuantity != *want.BestBidQuantity {
		return fail("best_bid_quantity", got.bestBidQuantity, *want.BestBidQuantity)
	}
	if want.BestAsk != nil && got.bestAsk != *want.BestAsk {
		return fail("best_ask", got.bestAsk, *want.BestAsk)
	}
	if want.BestAskQuantity != nil && got.bestAskQuantity != *want.BestAskQuantity {
		return fail("best_ask_quantity", got.bestAskQuantity, *want.BestAskQuantity)
	}
	if want.LimitUp != nil && got.limitUp != *want.LimitUp {
		return fail("limit_up", got.limitUp, *want.LimitUp)
	}
	if want.LimitDown != nil && got.limitDown != *want.LimitDown {
		return fail("limit_down", got.limitDown, *want.LimitDown)
	}
	if want.LastTradeQuantity != nil {
		var qty int64
		if trade := p.exchange.LastTrade(); trade != nil {
			qty = trade.TotalQuantity
		}
		if qty != *want.LastTradeQuantity {
			return fail("last_trade_quantity", qty, *want.LastTradeQuantity)
		}
	}
	if want.RejectReason != nil {
		var reason protocol.RejectReason
		if reply != nil {
			reason = reply.RejectReason
		}
		if string(reason) != *want.RejectReason {
			return fail("reject_reason", reason, *want.RejectReason)
		}
	}
	return nil
}

func firstOrderMessage(msgs []protocol.Message) *protocol.OrderMessage {
	for _, msg := range msgs {
		if om, ok := msg.(*protocol.OrderMessage); ok {
			return om
		}
	}
	return nil
}
