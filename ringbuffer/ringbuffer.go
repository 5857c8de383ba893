package ringbuffer

import (
	"sync"
	"sync/atomic"
)

// RingBuffer is a growable FIFO queue safe for concurrent producers
// and a single consumer. When the buffer fills up it doubles in size,
// so a Push never blocks and never drops.
type RingBuffer[T any] struct {
	mu    sync.Mutex
	items []T
	head  int64
	size  int64
	len   atomic.Int64
}

func New[T any](size int64) *RingBuffer[T] {
	if size < 2 {
		size = 2
	}
	return &RingBuffer[T]{
		items: make([]T, size),
		size:  size,
	}
}

// Len reports the number of queued items. It can be read without
// holding the lock, so the value is only a snapshot.
func (rb *RingBuffer[T]) Len() int64 {
	return rb.len.Load()
}

func (rb *RingBuffer[T]) Push(item T) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	n := rb.len.Load()
	if n == rb.size {
		rb.grow()
	}
	rb.items[(rb.head+n)%rb.size] = item
	rb.len.Add(1)
}

func (rb *RingBuffer[T]) Pop() (T, bool) {
	var zero T
	if rb.len.Load() == 0 {
		return zero, false
	}
	rb.mu.Lock()
	defer rb.mu.Unlock()
	item := rb.items[rb.head]
	rb.items[rb.head] = zero
	rb.head = (rb.head + 1) % rb.size
	rb.len.Add(-1)
	return item, true
}

// PopN removes up to n items in FIFO order. Returns false when the
// buffer is empty.
func (rb *RingBuffer[T]) PopN(n int64) ([]T, bool) {
	if rb.len.Load() == 0 {
		return nil, false
	}
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if have := rb.len.Load(); n > have {
		n = have
	}
	var zero T
	items := make([]T, n)
	for i := int64(0); i < n; i++ {
		pos := (rb.head + i) % rb.size
		items[i] = rb.items[pos]
		rb.items[pos] = zero
	}
	rb.head = (rb.head + n) % rb.size
	rb.len.Add(-n)
	return items, true
}

// PopAll drains the buffer and returns everything in FIFO order.
func (rb *RingBuffer[T]) PopAll() []T {
	items, _ := rb.PopN(rb.len.Load())
	return items
}

// grow doubles the backing slice, unwrapping the queue so the head
// lands back at index zero. Caller must hold the lock.
func (rb *RingBuffer[T]) grow() {
	items := make([]T, rb.size*2)
	for i := int64(0); i < rb.size; i++ {
		items[i] = rb.items[(rb.head+i)%rb.size]
	}
	rb.items = items
	rb.head = 0
	rb.size *= 2
}
