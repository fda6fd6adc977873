package match

import (
	"sync"
	"time"
)

// BookLog represents an event in the order book.
// SequenceID increases by one for every event of a book, so downstream
// readers can order, deduplicate and detect gaps.
type BookLog struct {
	SequenceID   uint64    `json:"seq_id"`
	TradeID      uint64    `json:"trade_id,omitempty"` // Sequential trade ID, only set for Match events
	Type         LogType   `json:"type"`               // Event type: open, match, cancel, amend
	Side         Side      `json:"side"`
	Price        Price     `json:"price"`
	Size         int64     `json:"size"`
	OldPrice     Price     `json:"old_price,omitempty"`
	OldSize      int64     `json:"old_size,omitempty"`
	OrderID      uint64    `json:"order_id"`
	OrderType    OrderType `json:"order_type,omitempty"`
	MakerOrderID uint64    `json:"maker_order_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

var bookLogPool = sync.Pool{
	New: func() any {
		return new(BookLog)
	},
}

func acquireBookLog() *BookLog {
	return bookLogPool.Get().(*BookLog)
}

func releaseBookLog(log *BookLog) {
	*log = BookLog{}
	bookLogPool.Put(log)
}

// NewOpenLog records an order coming to rest on the book.
func NewOpenLog(seqID uint64, order *Order) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.Type = LogTypeOpen
	log.Side = order.Side
	log.Price = order.Price
	log.Size = order.Quantity
	log.OrderID = order.ID
	log.OrderType = order.Type
	log.CreatedAt = time.Now().UTC()
	return log
}

// NewMatchLog records the taker order trading against one resting slice.
// Side is the taker side, Price is the maker price.
func NewMatchLog(seqID uint64, tradeID uint64, takerOrder *Order, makerSlice *Order) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.TradeID = tradeID
	log.Type = LogTypeMatch
	log.Side = takerOrder.Side
	log.Price = makerSlice.Price
	log.Size = makerSlice.Quantity
	log.OrderID = takerOrder.ID
	log.OrderType = takerOrder.Type
	log.MakerOrderID = makerSlice.ID
	log.CreatedAt = time.Now().UTC()
	return log
}

func NewCancelLog(seqID uint64, order *Order) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.Type = LogTypeCancel
	log.Side = order.Side
	log.Price = order.Price
	log.Size = order.Quantity
	log.OrderID = order.ID
	log.OrderType = order.Type
	log.CreatedAt = time.Now().UTC()
	return log
}

// NewAmendLog records a price or quantity change. Price and Size are the
// values after the change.
func NewAmendLog(seqID uint64, order *Order, oldPrice Price, oldSize int64) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.Type = LogTypeAmend
	log.Side = order.Side
	log.Price = order.Price
	log.Size = order.Quantity
	log.OldPrice = oldPrice
	log.OldSize = oldSize
	log.OrderID = order.ID
	log.OrderType = order.Type
	log.CreatedAt = time.Now().UTC()
	return log
}
