package match

import (
	"context"
	"math/rand"
	"runtime"
	"testing"

	"github.com/0x5487/exchange-simulator/protocol"
	"github.com/shopspring/decimal"
)

// benchBookConfig puts 1000 ticks of 0.005 on each side of 10.
func benchBookConfig() BookConfig {
	return BookConfig{
		PrevClose: decimal.NewFromInt(10),
		TickSize:  decimal.RequireFromString("0.005"),
		LotSize:   1,
	}
}

func BenchmarkPlaceOrders(b *testing.B) {
	// Ensure exchange and producer can run concurrently
	oldProcs := runtime.GOMAXPROCS(runtime.NumCPU())
	defer runtime.GOMAXPROCS(oldProcs)

	ctx := context.Background()
	ex, err := NewExchange(benchBookConfig(), NewDiscardPublishLog(), nil)
	if err != nil {
		b.Fatal(err)
	}
	ex.Start()
	client := ex.RegisterClient("bench")

	// Use fixed seed for repeatability
	rng := rand.New(rand.NewSource(42))

	// Pre-compute price strings, 500 ticks below and above 10
	priceCache := make([]string, 1001)
	for i := int64(0); i <= 1000; i++ {
		priceCache[i] = priceFromTicks(10000 + (i-500)*5).String()
	}

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		var side Side
		var priceIdx int

		// 80/20 Distribution
		r := rng.Intn(100)
		if r < 80 {
			// 80% in Top 10 ticks
			offset := rng.Intn(10) + 1
			if rng.Intn(2) == 0 {
				side, priceIdx = Buy, 500-offset
			} else {
				side, priceIdx = Sell, 500+offset
			}
		} else {
			// 20% in remaining 490 ticks per side
			offset := rng.Intn(490) + 11
			if rng.Intn(2) == 0 {
				side, priceIdx = Buy, 500-offset
			} else {
				side, priceIdx = Sell, 500+offset
			}
		}

		_ = client.Submit(ctx, protocol.PlaceLimit(side, priceCache[priceIdx], 1))
		if i%1024 == 0 {
			client.Drain()
		}
	}

	b.StopTimer()

	// Report custom metric: orders per second
	totalSeconds := b.Elapsed().Seconds()
	if totalSeconds > 0 {
		b.ReportMetric(float64(b.N)/totalSeconds, "orders/sec")
	}

	_ = ex.Shutdown(ctx)
}

func BenchmarkMatching(b *testing.B) {
	book, err := NewOrderBook(benchBookConfig(), NewSequenceIDGenerator(0), NewDiscardPublishLog())
	if err != nil {
		b.Fatal(err)
	}
	price := ParsePrice("10")

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		// Place Sell (Resting)
		book.ProcessInboundOrder(NewLimitOrder(book.NextOrderID(), Sell, price, 1))

		// Place Buy (Matches immediately)
		book.ProcessInboundOrder(NewLimitOrder(book.NextOrderID(), Buy, price, 1))
	}

	b.StopTimer()

	// Report ops/sec (each loop is 2 orders)
	totalSeconds := b.Elapsed().Seconds()
	if totalSeconds > 0 {
		b.ReportMetric(float64(b.N)*2/totalSeconds, "orders/sec")
	}
}
