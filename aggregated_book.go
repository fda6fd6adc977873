package match

import (
	"fmt"
	"sync"

	"github.com/0x5487/exchange-simulator/protocol"
	"github.com/igrmk/treemap/v2"
)

// AggregatedBook maintains a simplified view of the order book,
// tracking only price levels and their aggregated sizes (depth).
// It is rebuilt from the BookLog stream of an OrderBook, so a downstream
// reader can follow the book without access to individual orders.
type AggregatedBook struct {
	mu    sync.RWMutex
	seqID uint64 // Last applied SequenceID for gap detection and deduplication
	ask   *treemap.TreeMap[int64, int64]
	bid   *treemap.TreeMap[int64, int64]
}

// NewAggregatedBook creates a new AggregatedBook instance with empty ask and bid sides.
func NewAggregatedBook() *AggregatedBook {
	return &AggregatedBook{
		ask: treemap.New[int64, int64](),
		bid: treemap.New[int64, int64](),
	}
}

// SequenceID returns the last applied sequence ID.
func (ab *AggregatedBook) SequenceID() uint64 {
	ab.mu.RLock()
	defer ab.mu.RUnlock()
	return ab.seqID
}

// Replay applies a BookLog event to the aggregated state.
// Events at or below the last applied sequence ID are ignored. An event that
// skips a sequence ID is not applied and ErrSequenceGap is returned.
func (ab *AggregatedBook) Replay(log *BookLog) error {
	ab.mu.Lock()
	defer ab.mu.Unlock()

	if log.SequenceID <= ab.seqID {
		return nil
	}
	if log.SequenceID != ab.seqID+1 {
		return fmt.Errorf("%w: expected %d, got %d", ErrSequenceGap, ab.seqID+1, log.SequenceID)
	}

	change := CalculateDepthChange(log)
	if change.SizeDiff != 0 {
		levels := ab.side(change.Side)
		key := change.Price.Ticks()
		size, _ := levels.Get(key)
		size += change.SizeDiff
		if size <= 0 {
			levels.Del(key)
		} else {
			levels.Set(key, size)
		}
	}

	ab.seqID = log.SequenceID
	return nil
}

// Publish implements PublishLog so the book can be fed straight from an
// OrderBook. Replay errors are logged.
func (ab *AggregatedBook) Publish(logs ...*BookLog) {
	for _, log := range logs {
		if err := ab.Replay(log); err != nil {
			logger.Error("aggregated book replay failed", "seq_id", log.SequenceID, "error", err)
		}
	}
}

// Reset empties the book and sets the last applied sequence ID, so replay
// can resume from seqID+1.
func (ab *AggregatedBook) Reset(seqID uint64) {
	ab.mu.Lock()
	defer ab.mu.Unlock()

	ab.ask.Clear()
	ab.bid.Clear()
	ab.seqID = seqID
}

// Depth returns the aggregated size at a specific price level for the given side.
// Returns zero if the price level does not exist.
func (ab *AggregatedBook) Depth(side Side, price Price) int64 {
	ab.mu.RLock()
	defer ab.mu.RUnlock()

	size, _ := ab.side(side).Get(price.Ticks())
	return size
}

// Levels returns up to limit levels of side, best price first.
func (ab *AggregatedBook) Levels(side Side, limit uint32) []*protocol.DepthItem {
	ab.mu.RLock()
	defer ab.mu.RUnlock()

	result := make([]*protocol.DepthItem, 0, limit)
	add := func(ticks, size int64) bool {
		if uint32(len(result)) >= limit {
			return false
		}
		result = append(result, &protocol.DepthItem{
			Price:    priceFromTicks(ticks).String(),
			Quantity: size,
		})
		return true
	}

	if side == Buy {
		for it := ab.bid.Reverse(); it.Valid(); it.Next() {
			if !add(it.Key(), it.Value()) {
				break
			}
		}
	} else {
		for it := ab.ask.Iterator(); it.Valid(); it.Next() {
			if !add(it.Key(), it.Value()) {
				break
			}
		}
	}
	return result
}

func (ab *AggregatedBook) side(side Side) *treemap.TreeMap[int64, int64] {
	if side == Buy {
		return ab.bid
	}
	return ab.ask
}
