package match

import (
	"github.com/0x5487/exchange-simulator/protocol"
	"github.com/huandu/skiplist"
)

// queue holds the price levels of one side of the book, best price first.
// Levels are keyed by Price.Ticks.
type queue struct {
	side      Side
	depthList *skiplist.SkipList
	priceList map[int64]*skiplist.Element
}

// NewBuyerQueue creates a new queue for buy orders (bids).
// The levels are sorted by price in descending order (highest price first).
func NewBuyerQueue() *queue {
	return &queue{
		side: Buy,
		depthList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			t1, _ := lhs.(int64)
			t2, _ := rhs.(int64)

			if t1 < t2 {
				return 1
			} else if t1 > t2 {
				return -1
			}

			return 0
		})),
		priceList: make(map[int64]*skiplist.Element),
	}
}

// NewSellerQueue creates a new queue for sell orders (asks).
// The levels are sorted by price in ascending order (lowest price first).
func NewSellerQueue() *queue {
	return &queue{
		side: Sell,
		depthList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			t1, _ := lhs.(int64)
			t2, _ := rhs.(int64)

			if t1 > t2 {
				return 1
			} else if t1 < t2 {
				return -1
			}

			return 0
		})),
		priceList: make(map[int64]*skiplist.Element),
	}
}

// level returns the level at price, or nil if there is none.
func (q *queue) level(price Price) *BookLevel {
	el, ok := q.priceList[price.Ticks()]
	if !ok {
		return nil
	}
	unit, _ := el.Value.(*BookLevel)
	return unit
}

// levelOrCreate returns the level at price, creating an empty one if needed.
func (q *queue) levelOrCreate(price Price) *BookLevel {
	if unit := q.level(price); unit != nil {
		return unit
	}

	unit := newBookLevel(price)
	el := q.depthList.Set(price.Ticks(), unit)
	q.priceList[price.Ticks()] = el
	return unit
}

// removeLevel drops the level at price. It is a no-op if there is none.
func (q *queue) removeLevel(price Price) {
	el, ok := q.priceList[price.Ticks()]
	if !ok {
		return
	}
	q.depthList.RemoveElement(el)
	delete(q.priceList, price.Ticks())
}

// best returns the level with the best price, or nil if the side is empty.
func (q *queue) best() *BookLevel {
	el := q.depthList.Front()
	if el == nil {
		return nil
	}
	unit, _ := el.Value.(*BookLevel)
	return unit
}

// betterThan reports whether a level at levelPrice would trade before price.
func (q *queue) betterThan(levelPrice, price Price) bool {
	if q.side == Buy {
		return levelPrice.GreaterThan(price)
	}
	return levelPrice.LessThan(price)
}

// levelsBetterThan returns the levels strictly better than price, best first.
func (q *queue) levelsBetterThan(price Price) []*BookLevel {
	var levels []*BookLevel
	for el := q.depthList.Front(); el != nil; el = el.Next() {
		unit, _ := el.Value.(*BookLevel)
		if !q.betterThan(unit.Price(), price) {
			break
		}
		levels = append(levels, unit)
	}
	return levels
}

// levels returns every level, best first.
func (q *queue) levels() []*BookLevel {
	levels := make([]*BookLevel, 0, q.depthList.Len())
	for el := q.depthList.Front(); el != nil; el = el.Next() {
		unit, _ := el.Value.(*BookLevel)
		levels = append(levels, unit)
	}
	return levels
}

// orderCount returns the total number of orders in the queue.
func (q *queue) orderCount() int64 {
	var count int64
	for el := q.depthList.Front(); el != nil; el = el.Next() {
		unit, _ := el.Value.(*BookLevel)
		count += unit.OrderCount()
	}
	return count
}

// depthCount returns the number of price levels in the queue.
func (q *queue) depthCount() int64 {
	return int64(q.depthList.Len())
}

// depth returns the order book depth up to the specified limit.
func (q *queue) depth(limit uint32) []*protocol.DepthItem {
	result := make([]*protocol.DepthItem, 0, min(int(limit), q.depthList.Len()))

	el := q.depthList.Front()

	var i uint32 = 0
	for i < limit && el != nil {
		unit, _ := el.Value.(*BookLevel)
		result = append(result, &protocol.DepthItem{
			Price:    unit.Price().String(),
			Quantity: unit.TotalQuantity(),
			Count:    unit.OrderCount(),
		})

		el = el.Next()
		i++
	}

	return result
}
