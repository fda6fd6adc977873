package match

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/0x5487/exchange-simulator/protocol"
	"github.com/shopspring/decimal"
)

// OrderBook is the central limit order book of one instrument.
//
// It keeps bids and asks in price-time priority, validates orders against the
// daily band, tick size and lot size, matches aggressive orders and maintains
// the invariant that the best bid is strictly below the best ask.
//
// OrderBook is not safe for concurrent use. The Exchange serializes all
// access through its ring buffer.
type OrderBook struct {
	cfg       BookConfig
	highLimit Price
	lowLimit  Price
	tickTicks int64

	seqID   atomic.Uint64 // Increasing sequence ID of produced BookLogs
	tradeID atomic.Uint64 // Sequential trade ID counter, only incremented for Match events

	bidQueue *queue
	askQueue *queue
	orders   map[uint64]*Order

	ids        IDGenerator
	publishLog PublishLog
	pending    []*BookLog
}

// AmendResult is the outcome of a successful price amendment.
// Quantity is the order quantity at its new price before matching.
// Trade is nil if the order came to rest without trading.
type AmendResult struct {
	Order    *Order
	Quantity int64
	Trade    *Trade
}

// NewOrderBook creates an empty book. ids allocates the ids of accepted
// orders. A nil publishLog discards book events.
func NewOrderBook(cfg BookConfig, ids IDGenerator, publishLog PublishLog) (*OrderBook, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if ids == nil {
		return nil, fmt.Errorf("%w: id generator is required", ErrInvalidParam)
	}
	if publishLog == nil {
		publishLog = NewDiscardPublishLog()
	}

	pct := decimal.RequireFromString(LimitPercentage)
	one := decimal.NewFromInt(1)

	return &OrderBook{
		cfg:        cfg,
		highLimit:  priceFromTicks(NewPrice(cfg.PrevClose.Mul(one.Add(pct))).Ticks()),
		lowLimit:   priceFromTicks(NewPrice(cfg.PrevClose.Mul(one.Sub(pct))).Ticks()),
		tickTicks:  cfg.TickSize.Shift(PriceScale).IntPart(),
		bidQueue:   NewBuyerQueue(),
		askQueue:   NewSellerQueue(),
		orders:     make(map[uint64]*Order),
		ids:        ids,
		publishLog: publishLog,
		pending:    make([]*BookLog, 0, 8),
	}, nil
}

// Config returns the trading parameters of the book.
func (book *OrderBook) Config() BookConfig {
	return book.cfg
}

// NextOrderID allocates the id of a newly accepted order.
func (book *OrderBook) NextOrderID() uint64 {
	return book.ids.NextID()
}

// CheckPlaceOrder validates an order before it is accepted. Market orders skip
// the price checks.
func (book *OrderBook) CheckPlaceOrder(order *Order) error {
	if order.Type != Market {
		if err := book.CheckPlaceOrderPrice(order.Price); err != nil {
			return err
		}
	}
	return book.CheckPlaceOrderSize(order.Side, order.Quantity)
}

// CheckPlaceOrderPrice validates that price is a well formed price inside
// the daily band and on the tick grid.
func (book *OrderBook) CheckPlaceOrderPrice(price Price) error {
	if !price.IsValid() {
		return reject(protocol.RejectReasonInvalidPrice, "%s", price.Reason())
	}
	if price.GreaterThan(book.highLimit) {
		return reject(protocol.RejectReasonOutOfBandPrice, "Cannot place order above exchange high limit %s", book.highLimit)
	}
	if price.LessThan(book.lowLimit) {
		return reject(protocol.RejectReasonOutOfBandPrice, "Cannot place order below exchange low limit %s", book.lowLimit)
	}
	if book.tickTicks != 0 && price.Ticks()%book.tickTicks != 0 {
		return reject(protocol.RejectReasonInvalidTick, "Price to be placed must be a multiple of tick size %s", book.cfg.TickSize)
	}
	return nil
}

// CheckPlaceOrderSize validates the lot size. Only buys are held to whole lots.
func (book *OrderBook) CheckPlaceOrderSize(side Side, quantity int64) error {
	if side == Buy && book.cfg.LotSize != 0 && quantity%book.cfg.LotSize != 0 {
		return reject(protocol.RejectReasonOddLot, "Cannot buy shares with odd lot")
	}
	return nil
}

// ProcessInboundOrder matches an accepted order against the book and rests
// any remainder. It returns nil if the order did not trigger a trade.
//
// A market order always triggers. Against an empty opposite side it trades
// nothing and rests at the daily limit, and a Trade with zero quantity is
// still returned.
func (book *OrderBook) ProcessInboundOrder(order *Order) *Trade {
	defer book.flush()
	return book.processInboundOrder(order)
}

func (book *OrderBook) processInboundOrder(order *Order) *Trade {
	if !book.triggerTrade(order) {
		book.addOrder(order)
		return nil
	}

	trade := book.executeTrade(order)
	if order.Quantity > trade.TotalQuantity {
		trade.Aggressor = order.Split(trade.TotalQuantity)
		book.addOrder(order)
	} else {
		trade.Aggressor = order
	}
	return trade
}

// triggerTrade reports whether order crosses the opposite best price.
func (book *OrderBook) triggerTrade(order *Order) bool {
	if !order.HasPrice() {
		return true
	}

	if order.Side == Buy {
		best := book.askQueue.best()
		return best != nil && !order.Price.LessThan(best.Price())
	}
	best := book.bidQueue.best()
	return best != nil && !order.Price.GreaterThan(best.Price())
}

// executeTrade sweeps the opposite side, first every level strictly better
// than the order's price and then the level at the order's price, until the
// order quantity is used up. Market orders are stamped with the daily limit
// on their side before the sweep.
func (book *OrderBook) executeTrade(order *Order) *Trade {
	if !order.HasPrice() {
		order.SetPrice(book.limitFor(order.Side))
	}

	target := book.queueFor(order.Side.Opposite())
	trade := newTrade()

	for _, level := range target.levelsBetterThan(order.Price) {
		if trade.TotalQuantity >= order.Quantity {
			break
		}
		book.tradeLevel(target, level, order.Quantity-trade.TotalQuantity, trade)
	}

	if trade.TotalQuantity < order.Quantity {
		if level := target.level(order.Price); level != nil {
			book.tradeLevel(target, level, order.Quantity-trade.TotalQuantity, trade)
		}
	}

	for _, fill := range trade.Fills {
		book.emit(NewMatchLog(book.seqID.Add(1), book.tradeID.Add(1), order, fill))
	}

	return trade
}

// tradeLevel fills up to quantity from level into trade. Fully filled orders
// leave the index and an emptied level leaves the queue.
func (book *OrderBook) tradeLevel(target *queue, level *BookLevel, quantity int64, trade *Trade) {
	levelTrade, filled := level.trade(quantity)
	for _, id := range filled {
		delete(book.orders, id)
	}
	trade.merge(levelTrade)

	if level.IsEmpty() {
		target.removeLevel(level.Price())
	}
}

// addOrder rests order at the back of its price level.
func (book *OrderBook) addOrder(order *Order) {
	if !order.HasPrice() {
		order.SetPrice(book.limitFor(order.Side))
	}

	book.queueFor(order.Side).levelOrCreate(order.Price).addOrder(order)
	book.orders[order.ID] = order
	book.emit(NewOpenLog(book.seqID.Add(1), order))
}

// RemoveOrder takes a resting order off the book. side must match the side
// the order rests on.
func (book *OrderBook) RemoveOrder(id uint64, side Side) (*Order, error) {
	defer book.flush()

	order, err := book.restingOrder(id, side, "canceled")
	if err != nil {
		return nil, err
	}

	book.detach(order)
	book.emit(NewCancelLog(book.seqID.Add(1), order))
	return order, nil
}

// UpdateOrderPrice moves a resting order to newPrice. The order loses its
// time priority and is processed as if newly arrived, so it may trade.
// The price itself is expected to have passed CheckPlaceOrderPrice.
func (book *OrderBook) UpdateOrderPrice(id uint64, side Side, newPrice Price) (*AmendResult, error) {
	defer book.flush()

	if order, ok := book.orders[id]; ok && order.Price.Equal(newPrice) {
		return nil, reject(protocol.RejectReasonNoOpAmend, "Order %d cannot be amended to the same price", id)
	}

	order, err := book.restingOrder(id, side, "amended")
	if err != nil {
		return nil, err
	}

	oldPrice := order.Price
	book.detach(order)
	order.SetPrice(newPrice)
	book.emit(NewAmendLog(book.seqID.Add(1), order, oldPrice, order.Quantity))

	quantity := order.Quantity
	trade := book.processInboundOrder(order)
	return &AmendResult{Order: order, Quantity: quantity, Trade: trade}, nil
}

// UpdateOrderQuantity reduces the quantity of a resting order in place.
// The order keeps its time priority.
func (book *OrderBook) UpdateOrderQuantity(id uint64, side Side, newQuantity int64) (*Order, error) {
	defer book.flush()

	if newQuantity == 0 {
		return nil, reject(protocol.RejectReasonZeroQuantity, "Order %d quantity cannot be amended to 0", id)
	}
	if newQuantity < 0 {
		return nil, reject(protocol.RejectReasonInvalidPayload, "Order %d quantity must be positive", id)
	}

	order, err := book.restingOrder(id, side, "amended")
	if err != nil {
		return nil, err
	}

	delta := newQuantity - order.Quantity
	if delta > 0 {
		return nil, reject(protocol.RejectReasonQuantityIncreaseForbidden, "Order %d quantity cannot be amended up", id)
	}
	if delta == 0 {
		return nil, reject(protocol.RejectReasonNoOpAmend, "Order %d quantity cannot be amended to the same value", id)
	}

	oldSize := order.Quantity
	book.queueFor(order.Side).level(order.Price).updateOrder(id, delta)
	book.emit(NewAmendLog(book.seqID.Add(1), order, order.Price, oldSize))
	return order, nil
}

// restingOrder looks up a resting order and checks its side. verb completes
// the reject message, e.g. "canceled".
func (book *OrderBook) restingOrder(id uint64, side Side, verb string) (*Order, error) {
	order, ok := book.orders[id]
	if !ok {
		return nil, reject(protocol.RejectReasonUnknownOrder, "Order %d to be %s does not exist", id, verb)
	}
	if order.Side != side {
		return nil, reject(protocol.RejectReasonWrongSide, "Order %d to be %s has wrong side", id, verb)
	}
	return order, nil
}

// detach takes order off its level and out of the index without logging.
func (book *OrderBook) detach(order *Order) {
	q := book.queueFor(order.Side)
	if level := q.level(order.Price); level != nil {
		level.removeOrder(order.ID)
		if level.IsEmpty() {
			q.removeLevel(order.Price)
		}
	}
	delete(book.orders, order.ID)
}

func (book *OrderBook) queueFor(side Side) *queue {
	if side == Buy {
		return book.bidQueue
	}
	return book.askQueue
}

// limitFor returns the price a market order of side trades up to.
func (book *OrderBook) limitFor(side Side) Price {
	if side == Buy {
		return book.highLimit
	}
	return book.lowLimit
}

func (book *OrderBook) emit(log *BookLog) {
	book.pending = append(book.pending, log)
}

func (book *OrderBook) flush() {
	if len(book.pending) == 0 {
		return
	}

	book.publishLog.Publish(book.pending...)
	for i, log := range book.pending {
		releaseBookLog(log)
		book.pending[i] = nil
	}
	book.pending = book.pending[:0]
}

// Order returns the resting order with the given id.
func (book *OrderBook) Order(id uint64) (*Order, bool) {
	order, ok := book.orders[id]
	return order, ok
}

// HighLimit is the highest price an order may be placed at.
func (book *OrderBook) HighLimit() Price {
	return book.highLimit
}

// LowLimit is the lowest price an order may be placed at.
func (book *OrderBook) LowLimit() Price {
	return book.lowLimit
}

func (book *OrderBook) BestBid() (Price, bool) {
	if level := book.bidQueue.best(); level != nil {
		return level.Price(), true
	}
	return Price{}, false
}

func (book *OrderBook) BestAsk() (Price, bool) {
	if level := book.askQueue.best(); level != nil {
		return level.Price(), true
	}
	return Price{}, false
}

// BestBidQuantity is the total quantity at the best bid, 0 if there are no bids.
func (book *OrderBook) BestBidQuantity() int64 {
	if level := book.bidQueue.best(); level != nil {
		return level.TotalQuantity()
	}
	return 0
}

// BestAskQuantity is the total quantity at the best ask, 0 if there are no asks.
func (book *OrderBook) BestAskQuantity() int64 {
	if level := book.askQueue.best(); level != nil {
		return level.TotalQuantity()
	}
	return 0
}

// Level returns the level at price on the given side.
func (book *OrderBook) Level(side Side, price Price) (*BookLevel, bool) {
	level := book.queueFor(side).level(price)
	return level, level != nil
}

// findLevel looks on both sides. A price cannot rest on both at once.
func (book *OrderBook) findLevel(price Price) *BookLevel {
	if level := book.bidQueue.level(price); level != nil {
		return level
	}
	return book.askQueue.level(price)
}

// QuantityAtPrice is the total resting quantity at price, on whichever side it rests.
func (book *OrderBook) QuantityAtPrice(price Price) int64 {
	if level := book.findLevel(price); level != nil {
		return level.TotalQuantity()
	}
	return 0
}

// OrderCountAtPrice is the number of orders resting at price.
func (book *OrderBook) OrderCountAtPrice(price Price) int64 {
	if level := book.findLevel(price); level != nil {
		return level.OrderCount()
	}
	return 0
}

// IsLimitUp reports whether the best bid sits at the high limit.
func (book *OrderBook) IsLimitUp() bool {
	best, ok := book.BestBid()
	return ok && best.Equal(book.highLimit)
}

// IsLimitDown reports whether the best ask sits at the low limit.
func (book *OrderBook) IsLimitDown() bool {
	best, ok := book.BestAsk()
	return ok && best.Equal(book.lowLimit)
}

// Depth returns the aggregated levels of both sides up to limit levels each.
func (book *OrderBook) Depth(limit uint32) *protocol.GetDepthResponse {
	return &protocol.GetDepthResponse{
		UpdateID: book.seqID.Load(),
		Asks:     book.askQueue.depth(limit),
		Bids:     book.bidQueue.depth(limit),
	}
}

// Stats returns the level and order counts of both sides.
func (book *OrderBook) Stats() *protocol.GetStatsResponse {
	return &protocol.GetStatsResponse{
		AskDepthCount: book.askQueue.depthCount(),
		AskOrderCount: book.askQueue.orderCount(),
		BidDepthCount: book.bidQueue.depthCount(),
		BidOrderCount: book.bidQueue.orderCount(),
	}
}

// SequenceID returns the sequence ID of the last published BookLog.
func (book *OrderBook) SequenceID() uint64 {
	return book.seqID.Load()
}

// String renders the book as two columns, bids on the left and asks on the
// right, best prices on the first row.
func (book *OrderBook) String() string {
	bids := book.bidQueue.levels()
	asks := book.askQueue.levels()

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-20s | %-20s\n", "BID", "ASK")
	for i := 0; i < max(len(bids), len(asks)); i++ {
		bid, ask := "", ""
		if i < len(bids) {
			bid = fmt.Sprintf("%d@%s", bids[i].TotalQuantity(), bids[i].Price())
		}
		if i < len(asks) {
			ask = fmt.Sprintf("%d@%s", asks[i].TotalQuantity(), asks[i].Price())
		}
		fmt.Fprintf(&sb, "%-20s | %-20s\n", bid, ask)
	}
	return sb.String()
}
