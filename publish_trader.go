package match

import "sync"

// TradeRecorder receives every Trade produced by the processors.
type TradeRecorder interface {
	RecordTrade(*Trade)
}

// MemoryTradeRecorder stores trades in memory, useful for testing.
type MemoryTradeRecorder struct {
	mu     sync.RWMutex
	trades []*Trade
}

func NewMemoryTradeRecorder() *MemoryTradeRecorder {
	return &MemoryTradeRecorder{
		trades: make([]*Trade, 0),
	}
}

func (m *MemoryTradeRecorder) RecordTrade(trade *Trade) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = append(m.trades, trade)
}

func (m *MemoryTradeRecorder) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trades)
}

func (m *MemoryTradeRecorder) Get(index int) *Trade {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.trades[index]
}

// Last returns the most recent trade, or nil if none was recorded.
func (m *MemoryTradeRecorder) Last() *Trade {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.trades) == 0 {
		return nil
	}
	return m.trades[len(m.trades)-1]
}

type DiscardTradeRecorder struct {
}

func NewDiscardTradeRecorder() *DiscardTradeRecorder {
	return &DiscardTradeRecorder{}
}

func (p *DiscardTradeRecorder) RecordTrade(trade *Trade) {

}
