package match

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
)

// ErrDisruptorTimeout is returned when shutdown times out
var ErrDisruptorTimeout = errors.New("disruptor: shutdown timeout")

// EventHandler consumes the events of a RingBuffer, one at a time.
type EventHandler[T any] interface {
	OnEvent(event T)
}

// RingBuffer is a multi-producer single-consumer ring buffer.
// Events are handed to the handler on one goroutine in publish order.
//
// Sequences start at -1 and grow by one per claimed slot. A slot is readable
// once its entry in written carries the sequence that claimed it.
type RingBuffer[T any] struct {
	// Cache line padding to avoid false sharing
	_        [56]byte
	claimed  atomic.Int64
	_        [56]byte
	consumed atomic.Int64
	_        [56]byte

	// publishers counts Publish calls between the shutdown check and the
	// slot write. The consumer drains until it drops to zero.
	publishers atomic.Int64
	closed     atomic.Bool
	stopped    chan struct{}

	slots   []T
	written []atomic.Int64
	mask    int64
	handler EventHandler[T]
}

// NewRingBuffer creates a RingBuffer. capacity must be a power of 2.
func NewRingBuffer[T any](capacity int64, handler EventHandler[T]) *RingBuffer[T] {
	if capacity <= 0 || (capacity&(capacity-1)) != 0 {
		panic("size must be a power of 2")
	}

	rb := &RingBuffer[T]{
		slots:   make([]T, capacity),
		written: make([]atomic.Int64, capacity),
		mask:    capacity - 1,
		handler: handler,
		stopped: make(chan struct{}),
	}
	rb.claimed.Store(-1)
	rb.consumed.Store(-1)
	for i := range rb.written {
		rb.written[i].Store(-1)
	}
	return rb
}

// Publish hands event to the consumer. It is safe for concurrent use and
// blocks while the buffer is full. It returns false once Shutdown was called.
func (rb *RingBuffer[T]) Publish(event T) bool {
	rb.publishers.Add(1)
	defer rb.publishers.Add(-1)

	if rb.closed.Load() {
		return false
	}

	seq := rb.claim()
	rb.slots[seq&rb.mask] = event
	rb.written[seq&rb.mask].Store(seq)
	return true
}

// claim reserves the next sequence, waiting while it would overwrite a slot
// the consumer has not read yet.
func (rb *RingBuffer[T]) claim() int64 {
	capacity := rb.mask + 1
	for {
		last := rb.claimed.Load()
		next := last + 1
		if next-capacity > rb.consumed.Load() {
			runtime.Gosched()
			continue
		}
		if rb.claimed.CompareAndSwap(last, next) {
			return next
		}
	}
}

// Start starts the consumer goroutine.
func (rb *RingBuffer[T]) Start() {
	go rb.run()
}

// Shutdown stops accepting events and waits until every published event has
// been handled or ctx is done.
func (rb *RingBuffer[T]) Shutdown(ctx context.Context) error {
	rb.closed.Store(true)

	select {
	case <-rb.stopped:
		return nil
	case <-ctx.Done():
		return ErrDisruptorTimeout
	}
}

func (rb *RingBuffer[T]) run() {
	defer close(rb.stopped)

	next := rb.consumed.Load() + 1
	for {
		// Read closed before the claimed sequence: anything claimed after
		// this point comes from a publisher counted in publishers.
		closing := rb.closed.Load()
		last := rb.claimed.Load()

		for ; next <= last; next++ {
			rb.handle(next)
		}

		if closing && rb.publishers.Load() == 0 && rb.claimed.Load() < next {
			return
		}
		runtime.Gosched()
	}
}

// handle waits for the slot of seq to be written, then hands it to the handler.
func (rb *RingBuffer[T]) handle(seq int64) {
	i := seq & rb.mask
	for rb.written[i].Load() != seq {
		runtime.Gosched()
	}

	event := rb.slots[i]
	var zero T
	rb.slots[i] = zero
	rb.handler.OnEvent(event)

	rb.consumed.Store(seq)
}

// ConsumerSequence returns the sequence of the last handled event.
func (rb *RingBuffer[T]) ConsumerSequence() int64 {
	return rb.consumed.Load()
}

// ProducerSequence returns the sequence of the last claimed event.
func (rb *RingBuffer[T]) ProducerSequence() int64 {
	return rb.claimed.Load()
}

// Pending returns the number of claimed events not yet handled.
func (rb *RingBuffer[T]) Pending() int64 {
	return rb.claimed.Load() - rb.consumed.Load()
}
