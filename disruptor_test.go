package match

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler keeps the ids of handled events. gate, if set, is waited
// on before each event.
type recordingHandler struct {
	mu   sync.Mutex
	ids  []int64
	gate chan struct{}
}

func (h *recordingHandler) OnEvent(id int64) {
	if h.gate != nil {
		<-h.gate
	}
	h.mu.Lock()
	h.ids = append(h.ids, id)
	h.mu.Unlock()
}

func (h *recordingHandler) handled() []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int64(nil), h.ids...)
}

func shutdownRing[T any](t testing.TB, rb *RingBuffer[T], timeout time.Duration) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return rb.Shutdown(ctx)
}

func TestRingBufferDeliversInOrder(t *testing.T) {
	h := &recordingHandler{}
	rb := NewRingBuffer[int64](16, h)
	rb.Start()

	// More events than slots, so producers wrap around.
	for i := int64(1); i <= 40; i++ {
		require.True(t, rb.Publish(i))
	}
	require.NoError(t, shutdownRing(t, rb, time.Second))

	ids := h.handled()
	require.Len(t, ids, 40)
	for i, id := range ids {
		assert.Equal(t, int64(i+1), id)
	}
	assert.Equal(t, int64(39), rb.ProducerSequence())
	assert.Equal(t, int64(39), rb.ConsumerSequence())
}

func TestRingBufferRejectsAfterShutdown(t *testing.T) {
	h := &recordingHandler{}
	rb := NewRingBuffer[int64](16, h)
	rb.Start()
	require.NoError(t, shutdownRing(t, rb, time.Second))

	assert.False(t, rb.Publish(1))
	assert.Equal(t, int64(-1), rb.ProducerSequence())
	assert.Empty(t, h.handled())

	// A second shutdown returns at once.
	assert.NoError(t, shutdownRing(t, rb, time.Millisecond))
}

func TestRingBufferPending(t *testing.T) {
	h := &recordingHandler{gate: make(chan struct{})}
	rb := NewRingBuffer[int64](16, h)

	assert.Equal(t, int64(-1), rb.ConsumerSequence())
	rb.Start()

	for i := int64(0); i < 5; i++ {
		rb.Publish(i)
	}
	time.Sleep(10 * time.Millisecond)

	// The first event may already be inside the handler.
	assert.GreaterOrEqual(t, rb.Pending(), int64(4))

	close(h.gate)
	require.NoError(t, shutdownRing(t, rb, time.Second))
	assert.Equal(t, int64(0), rb.Pending())
}

func TestRingBufferShutdownTimeout(t *testing.T) {
	h := &recordingHandler{gate: make(chan struct{})}
	rb := NewRingBuffer[int64](16, h)
	rb.Start()
	rb.Publish(1)

	err := shutdownRing(t, rb, 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrDisruptorTimeout)

	close(h.gate)
	assert.NoError(t, shutdownRing(t, rb, time.Second))
}

func TestRingBufferConcurrentPublish(t *testing.T) {
	h := &recordingHandler{}
	rb := NewRingBuffer[int64](64, h)
	rb.Start()

	const publishers, perPublisher = 10, 100

	var wg sync.WaitGroup
	for p := 0; p < publishers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perPublisher; j++ {
				rb.Publish(int64(p*perPublisher + j))
			}
		}()
	}
	wg.Wait()
	require.NoError(t, shutdownRing(t, rb, 5*time.Second))

	ids := h.handled()
	require.Len(t, ids, publishers*perPublisher)

	// Each publisher's events keep their relative order.
	last := make(map[int64]int64)
	for _, id := range ids {
		p := id / perPublisher
		if prev, ok := last[p]; ok {
			assert.Less(t, prev, id)
		}
		last[p] = id
	}
}

func TestRingBufferShutdownWhilePublishing(t *testing.T) {
	var handled atomic.Int64
	rb := NewRingBuffer[int64](8, handlerFunc[int64](func(int64) { handled.Add(1) }))
	rb.Start()

	var accepted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				if !rb.Publish(int64(j)) {
					return
				}
				accepted.Add(1)
			}
		}()
	}

	time.Sleep(time.Millisecond)
	require.NoError(t, shutdownRing(t, rb, 5*time.Second))
	wg.Wait()

	// Every accepted event was handled before Shutdown returned.
	assert.Equal(t, accepted.Load(), handled.Load())
	assert.Equal(t, int64(0), rb.Pending())
}

func TestRingBufferCapacity(t *testing.T) {
	h := &recordingHandler{}
	for _, capacity := range []int64{15, 0, -1} {
		assert.Panics(t, func() { NewRingBuffer[int64](capacity, h) }, "capacity %d", capacity)
	}
	assert.NotPanics(t, func() { NewRingBuffer[int64](16, h) })
}

type handlerFunc[T any] func(T)

func (f handlerFunc[T]) OnEvent(e T) { f(e) }

func BenchmarkDisruptor(b *testing.B) {
	const perGoroutine = 50

	var count atomic.Int64
	rb := NewRingBuffer[int64](1024*1024, handlerFunc[int64](func(int64) { count.Add(1) }))
	rb.Start()

	b.ResetTimer()

	var wg sync.WaitGroup
	for i := 0; i < b.N; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				rb.Publish(int64(i*perGoroutine + j))
			}
		}()
	}
	wg.Wait()

	_ = shutdownRing(b, rb, 5*time.Second)
}
