package match

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/0x5487/exchange-simulator/protocol"
	"github.com/rs/xid"
)

const defaultRingSize = 1024

// Exchange hosts one OrderBook and the clients trading on it.
//
// Instructions from any goroutine are funneled through a ring buffer and
// applied one at a time. Order messages go back to the client that sent the
// instruction, fills are broadcast to every registered client.
type Exchange struct {
	isShutdown atomic.Bool
	book       *OrderBook
	router     *Router
	ring       *RingBuffer[*exchangeEvent]
	metrics    *Metrics
	lastTrade  atomic.Pointer[Trade]

	clientSeq atomic.Uint64
	mu        sync.RWMutex
	clients   map[uint64]*Client
}

// exchangeEvent is one unit of work for the consumer goroutine. Exactly one
// of ins and query is set.
type exchangeEvent struct {
	clientID uint64
	ins      *protocol.Instruction
	query    func(book *OrderBook)
	done     chan error
}

// NewExchange creates an Exchange with an empty book. publishLog receives the
// book events and may be nil. metrics may be nil.
func NewExchange(cfg BookConfig, publishLog PublishLog, metrics *Metrics) (*Exchange, error) {
	book, err := NewOrderBook(cfg, NewSequenceIDGenerator(0), publishLog)
	if err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	ex := &Exchange{
		book:    book,
		metrics: metrics,
		clients: make(map[uint64]*Client),
	}
	ex.router = NewRouter(book, ex)
	ex.ring = NewRingBuffer[*exchangeEvent](defaultRingSize, ex)
	return ex, nil
}

// Start starts processing instructions.
func (ex *Exchange) Start() {
	ex.ring.Start()
	logger.Info("exchange started",
		"version", EngineVersion,
		"prev_close", ex.book.cfg.PrevClose.String(),
		"tick_size", ex.book.cfg.TickSize.String(),
		"lot_size", ex.book.cfg.LotSize)
}

// Shutdown stops accepting instructions and waits for the pending ones.
func (ex *Exchange) Shutdown(ctx context.Context) error {
	ex.isShutdown.Store(true)
	if err := ex.ring.Shutdown(ctx); err != nil {
		return err
	}
	logger.Info("exchange stopped", "seq_id", ex.book.SequenceID())
	return nil
}

// RegisterClient adds a client and sends it a REGISTER_ACKED message.
func (ex *Exchange) RegisterClient(name string) *Client {
	client := newClient(ex.clientSeq.Add(1), name, ex)

	ex.mu.Lock()
	ex.clients[client.id] = client
	ex.metrics.Clients.Set(float64(len(ex.clients)))
	ex.mu.Unlock()

	client.deliver(&protocol.RegisterMessage{
		State:    protocol.ClientStateRegisterAcked,
		ClientID: client.id,
	})
	logger.Debug("client registered", "client_id", client.id, "name", name)
	return client
}

// UnregisterClient removes a client. The answer is also delivered to the
// client if it was registered.
func (ex *Exchange) UnregisterClient(id uint64) *protocol.RegisterMessage {
	ex.mu.Lock()
	client, ok := ex.clients[id]
	if ok {
		delete(ex.clients, id)
		ex.metrics.Clients.Set(float64(len(ex.clients)))
	}
	ex.mu.Unlock()

	if !ok {
		return &protocol.RegisterMessage{
			State:    protocol.ClientStateUnregisterRejected,
			ClientID: id,
			Reason:   "Client does not exist",
		}
	}

	msg := &protocol.RegisterMessage{
		State:    protocol.ClientStateUnregisterAcked,
		ClientID: id,
	}
	client.deliver(msg)
	return msg
}

// Client returns the registered client with the given id.
func (ex *Exchange) Client(id uint64) (*Client, bool) {
	ex.mu.RLock()
	defer ex.mu.RUnlock()
	client, ok := ex.clients[id]
	return client, ok
}

// ClientCount returns the number of registered clients.
func (ex *Exchange) ClientCount() int {
	ex.mu.RLock()
	defer ex.mu.RUnlock()
	return len(ex.clients)
}

// Submit applies ins on behalf of clientID and waits until it is processed.
// Business rule violations are not errors, they come back to the client as
// reject messages. Submit returns ErrNotFound for an unknown client and
// ErrInvalidParam for an instruction the exchange cannot route.
//
// An instruction without a TraceID is given one for logging. The caller's
// instruction is left as it is.
func (ex *Exchange) Submit(ctx context.Context, clientID uint64, ins *protocol.Instruction) error {
	if ins == nil {
		return ErrInvalidParam
	}
	if len(ins.TraceID) == 0 {
		stamped := *ins
		stamped.TraceID = xid.New().String()
		ins = &stamped
	}

	return ex.enqueue(ctx, &exchangeEvent{
		clientID: clientID,
		ins:      ins,
		done:     make(chan error, 1),
	})
}

// Query runs fn on the consumer goroutine, so it sees the book between two
// instructions.
func (ex *Exchange) Query(ctx context.Context, fn func(book *OrderBook)) error {
	return ex.enqueue(ctx, &exchangeEvent{
		query: fn,
		done:  make(chan error, 1),
	})
}

// Depth returns the aggregated levels of both sides up to limit levels each.
func (ex *Exchange) Depth(ctx context.Context, limit uint32) (*protocol.GetDepthResponse, error) {
	var depth *protocol.GetDepthResponse
	err := ex.Query(ctx, func(book *OrderBook) {
		depth = book.Depth(limit)
	})
	return depth, err
}

// LastTrade returns the most recent trade, or nil if nothing traded yet.
func (ex *Exchange) LastTrade() *Trade {
	return ex.lastTrade.Load()
}

// RecordTrade implements TradeRecorder.
func (ex *Exchange) RecordTrade(trade *Trade) {
	ex.lastTrade.Store(trade)
	ex.metrics.observeTrade(trade)
}

func (ex *Exchange) enqueue(ctx context.Context, ev *exchangeEvent) error {
	if ex.isShutdown.Load() {
		return ErrShutdown
	}
	if !ex.ring.Publish(ev) {
		return ErrShutdown
	}

	select {
	case err := <-ev.done:
		return err
	case <-ctx.Done():
		return ErrTimeout
	}
}

// OnEvent implements EventHandler. It runs on the consumer goroutine only.
func (ex *Exchange) OnEvent(ev *exchangeEvent) {
	if ev.query != nil {
		ev.query(ex.book)
		ev.done <- nil
		return
	}

	ev.done <- ex.process(ev.clientID, ev.ins)
}

func (ex *Exchange) process(clientID uint64, ins *protocol.Instruction) error {
	sender, ok := ex.Client(clientID)
	if !ok {
		logger.Warn("instruction from unknown client", "client_id", clientID, "trace_id", ins.TraceID)
		ex.metrics.observeInstruction(ins.Action.String(), resultError)
		return fmt.Errorf("%w: client %d", ErrNotFound, clientID)
	}

	msgs, err := ex.router.Route(ins)
	if err != nil {
		logger.Warn("instruction cannot be routed", "client_id", clientID, "trace_id", ins.TraceID, "error", err)
		ex.metrics.observeInstruction(ins.Action.String(), resultError)
		return err
	}

	result := resultAcked
	var outcome rejectDetector
	msgs[0].Accept(&outcome)
	if outcome.rejected {
		result = resultRejected
	}
	ex.metrics.observeInstruction(ins.Action.String(), result)
	logger.Debug("instruction processed",
		"client_id", clientID,
		"trace_id", ins.TraceID,
		"instruction", ins.String(),
		"result", result,
		"messages", len(msgs))

	d := dispatcher{ex: ex, sender: sender}
	for _, msg := range msgs {
		msg.Accept(d)
	}
	return nil
}

func (ex *Exchange) broadcast(msg protocol.Message) {
	ex.mu.RLock()
	defer ex.mu.RUnlock()
	for _, client := range ex.clients {
		client.deliver(msg)
	}
}

// dispatcher routes the messages of one instruction to their recipients.
type dispatcher struct {
	ex     *Exchange
	sender *Client
}

func (d dispatcher) HandleOrder(msg *protocol.OrderMessage) {
	d.sender.deliver(msg)
}

func (d dispatcher) HandleFill(msg *protocol.FillMessage) {
	d.ex.broadcast(msg)
}

func (d dispatcher) HandleRegister(msg *protocol.RegisterMessage) {
	d.sender.deliver(msg)
}

// rejectDetector reports whether an instruction's leading message rejects it.
type rejectDetector struct {
	rejected bool
}

func (r *rejectDetector) HandleOrder(msg *protocol.OrderMessage) {
	r.rejected = msg.IsReject()
}

func (r *rejectDetector) HandleFill(*protocol.FillMessage) {}

func (r *rejectDetector) HandleRegister(*protocol.RegisterMessage) {}
