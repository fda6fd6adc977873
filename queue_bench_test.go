package match

import (
	"math/rand"
	"testing"
)

func BenchmarkDepthAdd(b *testing.B) {
	q := NewBuyerQueue()
	rng := rand.New(rand.NewSource(42))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		price := priceFromTicks(int64(rng.Intn(100000000)) + 1)
		q.levelOrCreate(price).addOrder(NewLimitOrder(uint64(i+1), Buy, price, 1))
	}
}

func BenchmarkDepthRemove(b *testing.B) {
	q := NewBuyerQueue()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < b.N; i++ {
		price := priceFromTicks(int64(rng.Intn(100000000)) + 1)
		q.levelOrCreate(price).addOrder(NewLimitOrder(uint64(i+1), Buy, price, 1))
	}

	b.ResetTimer()
	for q.depthCount() > 0 {
		q.removeLevel(q.best().Price())
	}
}

func BenchmarkSizeAdd(b *testing.B) {
	q := NewBuyerQueue()
	price := priceFromTicks(10000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q.levelOrCreate(price).addOrder(NewLimitOrder(uint64(i+1), Buy, price, 2))
	}
}

func BenchmarkSizeRemove(b *testing.B) {
	q := NewBuyerQueue()
	price := priceFromTicks(10000)
	level := q.levelOrCreate(price)

	for i := 0; i < b.N; i++ {
		level.addOrder(NewLimitOrder(uint64(i+1), Buy, price, 2))
	}

	b.ResetTimer()
	for !level.IsEmpty() {
		level.removeOrder(level.Front().ID)
	}
}
