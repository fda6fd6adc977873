package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLevel(quantities ...int64) *BookLevel {
	level := newBookLevel(ParsePrice("10"))
	for i, qty := range quantities {
		level.addOrder(NewLimitOrder(uint64(i+1), Buy, ParsePrice("10"), qty))
	}
	return level
}

func TestBookLevelFIFO(t *testing.T) {
	level := newTestLevel(100, 200, 300)

	assert.Equal(t, int64(600), level.TotalQuantity())
	assert.Equal(t, int64(3), level.OrderCount())
	assert.Equal(t, uint64(1), level.Front().ID)

	removed, ok := level.removeOrder(2)
	require.True(t, ok)
	assert.Equal(t, int64(200), removed.Quantity)
	assert.Equal(t, int64(400), level.TotalQuantity())
	assert.Equal(t, int64(2), level.OrderCount())

	_, ok = level.removeOrder(2)
	assert.False(t, ok)

	level.addOrder(NewLimitOrder(4, Buy, ParsePrice("10"), 50))
	var ids []uint64
	for _, o := range level.Orders() {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []uint64{1, 3, 4}, ids)

	_, _ = level.removeOrder(1)
	_, _ = level.removeOrder(3)
	_, _ = level.removeOrder(4)
	assert.True(t, level.IsEmpty())
	assert.Equal(t, int64(0), level.TotalQuantity())
	assert.Nil(t, level.Front())
}

func TestBookLevelUpdateOrder(t *testing.T) {
	level := newTestLevel(100, 200, 300)

	assert.True(t, level.updateOrder(2, -150))
	assert.Equal(t, int64(450), level.TotalQuantity())

	orders := level.Orders()
	assert.Equal(t, uint64(2), orders[1].ID)
	assert.Equal(t, int64(50), orders[1].Quantity)

	assert.False(t, level.updateOrder(9, -1))
	assert.Equal(t, int64(450), level.TotalQuantity())
}

func TestBookLevelTrade(t *testing.T) {
	t.Run("partial fill keeps the head", func(t *testing.T) {
		level := newTestLevel(100, 200)

		trade, filled := level.trade(150)
		assert.Equal(t, int64(150), trade.TotalQuantity)
		assert.Equal(t, []uint64{1}, filled)
		require.Len(t, trade.Fills, 2)
		assert.Equal(t, uint64(1), trade.Fills[0].ID)
		assert.Equal(t, int64(100), trade.Fills[0].Quantity)
		assert.Equal(t, uint64(2), trade.Fills[1].ID)
		assert.Equal(t, int64(50), trade.Fills[1].Quantity)

		assert.Equal(t, uint64(2), level.Front().ID)
		assert.Equal(t, int64(150), level.Front().Quantity)
		assert.Equal(t, int64(150), level.TotalQuantity())
		assert.Equal(t, int64(1), level.OrderCount())
	})

	t.Run("exhausts the level", func(t *testing.T) {
		level := newTestLevel(100, 200)

		trade, filled := level.trade(1000)
		assert.Equal(t, int64(300), trade.TotalQuantity)
		assert.Equal(t, []uint64{1, 2}, filled)
		assert.True(t, level.IsEmpty())
		assert.Equal(t, int64(0), level.TotalQuantity())
	})

	t.Run("exact fill", func(t *testing.T) {
		level := newTestLevel(100, 200)

		trade, filled := level.trade(100)
		assert.Equal(t, int64(100), trade.TotalQuantity)
		assert.Equal(t, []uint64{1}, filled)
		assert.Equal(t, int64(200), level.TotalQuantity())
	})
}

func TestOrderSplit(t *testing.T) {
	order := NewLimitOrder(7, Sell, ParsePrice("11"), 1000)

	slice := order.Split(400)
	assert.Equal(t, uint64(7), slice.ID)
	assert.Equal(t, Sell, slice.Side)
	assert.True(t, slice.Price.Equal(order.Price))
	assert.Equal(t, int64(400), slice.Quantity)
	assert.Equal(t, int64(600), order.Quantity)
	assert.Equal(t, int64(1000), slice.Quantity+order.Quantity)

	empty := order.Split(0)
	assert.Equal(t, int64(0), empty.Quantity)
	assert.Equal(t, int64(600), order.Quantity)

	assert.Panics(t, func() { order.Split(601) })
	assert.Panics(t, func() { order.Split(-1) })
}

func TestSequenceIDGenerator(t *testing.T) {
	ids := NewSequenceIDGenerator(41)
	assert.Equal(t, uint64(42), ids.NextID())
	assert.Equal(t, uint64(43), ids.NextID())
}
