package match

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatedBookFollowsOrderBook(t *testing.T) {
	agg := NewAggregatedBook()
	book, err := NewOrderBook(DefaultBookConfig(), NewSequenceIDGenerator(0), agg)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	var live []uint64

	for i := 0; i < 2000; i++ {
		side := Buy
		if rng.Intn(2) == 1 {
			side = Sell
		}

		switch op := rng.Intn(10); {
		case op < 6 || len(live) == 0:
			// 8.0 to 12.0 on the 0.5 grid
			price := priceFromTicks(8000 + int64(rng.Intn(9))*500)
			order := NewLimitOrder(book.NextOrderID(), side, price, int64(rng.Intn(10)+1)*500)
			book.ProcessInboundOrder(order)
			live = append(live, order.ID)
		case op < 7:
			order := NewMarketOrder(book.NextOrderID(), side, int64(rng.Intn(4)+1)*500)
			book.ProcessInboundOrder(order)
			live = append(live, order.ID)
		case op < 8:
			id := live[rng.Intn(len(live))]
			if o, ok := book.Order(id); ok {
				_, err := book.RemoveOrder(id, o.Side)
				require.NoError(t, err)
			}
		case op < 9:
			id := live[rng.Intn(len(live))]
			if o, ok := book.Order(id); ok && o.Quantity > 500 {
				_, err := book.UpdateOrderQuantity(id, o.Side, o.Quantity-500)
				require.NoError(t, err)
			}
		default:
			id := live[rng.Intn(len(live))]
			if o, ok := book.Order(id); ok {
				price := priceFromTicks(8000 + int64(rng.Intn(9))*500)
				if !price.Equal(o.Price) {
					_, err := book.UpdateOrderPrice(id, o.Side, price)
					require.NoError(t, err)
				}
			}
		}

		assertBookConsistent(t, book)
	}

	require.Equal(t, book.SequenceID(), agg.SequenceID())

	depth := book.Depth(100)
	for _, tc := range []struct {
		side   Side
		levels int
	}{{Buy, len(depth.Bids)}, {Sell, len(depth.Asks)}} {
		want := depth.Bids
		if tc.side == Sell {
			want = depth.Asks
		}

		got := agg.Levels(tc.side, 100)
		require.Len(t, got, tc.levels, tc.side.String())
		for i := range want {
			assert.Equal(t, want[i].Price, got[i].Price)
			assert.Equal(t, want[i].Quantity, got[i].Quantity)
		}
	}
}

func TestAggregatedBookReplay(t *testing.T) {
	agg := NewAggregatedBook()
	price := ParsePrice("10")

	open := func(seq uint64, size int64) *BookLog {
		return &BookLog{SequenceID: seq, Type: LogTypeOpen, Side: Buy, Price: price, Size: size, OrderID: seq}
	}

	require.NoError(t, agg.Replay(open(1, 500)))
	require.NoError(t, agg.Replay(open(2, 1000)))
	assert.Equal(t, int64(1500), agg.Depth(Buy, price))

	t.Run("duplicate is ignored", func(t *testing.T) {
		require.NoError(t, agg.Replay(open(2, 1000)))
		assert.Equal(t, int64(1500), agg.Depth(Buy, price))
	})

	t.Run("gap is rejected", func(t *testing.T) {
		err := agg.Replay(open(4, 1000))
		assert.ErrorIs(t, err, ErrSequenceGap)
		assert.Equal(t, uint64(2), agg.SequenceID())
		assert.Equal(t, int64(1500), agg.Depth(Buy, price))
	})

	t.Run("emptied level is dropped", func(t *testing.T) {
		require.NoError(t, agg.Replay(&BookLog{SequenceID: 3, Type: LogTypeMatch, Side: Sell, Price: price, Size: 1500}))
		assert.Equal(t, int64(0), agg.Depth(Buy, price))
		assert.Empty(t, agg.Levels(Buy, 10))
	})

	t.Run("reset", func(t *testing.T) {
		agg.Reset(100)
		assert.Equal(t, uint64(100), agg.SequenceID())
		require.NoError(t, agg.Replay(open(101, 500)))
		assert.Equal(t, int64(500), agg.Depth(Buy, price))
	})
}

func TestAggregatedBookLevels(t *testing.T) {
	agg := NewAggregatedBook()
	seq := uint64(0)
	add := func(side Side, price string, size int64) {
		seq++
		agg.Publish(&BookLog{SequenceID: seq, Type: LogTypeOpen, Side: side, Price: ParsePrice(price), Size: size})
	}

	add(Buy, "9.5", 100)
	add(Buy, "10", 200)
	add(Buy, "9", 300)
	add(Sell, "11", 400)
	add(Sell, "10.5", 500)

	bids := agg.Levels(Buy, 2)
	require.Len(t, bids, 2)
	assert.Equal(t, "10", bids[0].Price)
	assert.Equal(t, "9.5", bids[1].Price)

	asks := agg.Levels(Sell, 10)
	require.Len(t, asks, 2)
	assert.Equal(t, "10.5", asks[0].Price)
	assert.Equal(t, int64(500), asks[0].Quantity)
}

func TestCalculateDepthChange(t *testing.T) {
	p10 := ParsePrice("10")
	p11 := ParsePrice("11")

	testCases := []struct {
		name string
		log  *BookLog
		want DepthChange
	}{
		{"open", &BookLog{Type: LogTypeOpen, Side: Buy, Price: p10, Size: 500}, DepthChange{Buy, p10, 500}},
		{"cancel", &BookLog{Type: LogTypeCancel, Side: Sell, Price: p11, Size: 300}, DepthChange{Sell, p11, -300}},
		{"match hits the maker side", &BookLog{Type: LogTypeMatch, Side: Buy, Price: p11, Size: 200}, DepthChange{Sell, p11, -200}},
		{"amend down", &BookLog{Type: LogTypeAmend, Side: Buy, Price: p10, OldPrice: p10, Size: 200, OldSize: 500}, DepthChange{Buy, p10, -300}},
		{"amend price", &BookLog{Type: LogTypeAmend, Side: Buy, Price: p11, OldPrice: p10, Size: 500, OldSize: 500}, DepthChange{Buy, p10, -500}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateDepthChange(tc.log)
			assert.Equal(t, tc.want.Side, got.Side)
			assert.True(t, tc.want.Price.Equal(got.Price))
			assert.Equal(t, tc.want.SizeDiff, got.SizeDiff)
		})
	}
}
