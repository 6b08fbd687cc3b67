package page

import "sync"

// Ring is a bounded FIFO buffer. When full, a push silently drops the oldest
// element; callers never observe loss. Safe for concurrent use: CDP event
// listeners push from their own goroutines while handlers read.
type Ring[T any] struct {
	mu    sync.Mutex
	buf   []T
	head  int
	count int
}

// NewRing creates a ring with the given capacity. Capacity must be positive.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends v, evicting the oldest element if the ring is full.
func (r *Ring[T]) Push(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tail := (r.head + r.count) % len(r.buf)
	r.buf[tail] = v
	if r.count < len(r.buf) {
		r.count++
	} else {
		r.head = (r.head + 1) % len(r.buf)
	}
}

// Items returns the buffered elements oldest-first.
func (r *Ring[T]) Items() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, 0, r.count)
	for i := 0; i < r.count; i++ {
		out = append(out, r.buf[(r.head+i)%len(r.buf)])
	}
	return out
}

// Replace overwrites the i-th oldest element. Out-of-range indexes are
// ignored; the element may have been evicted since it was observed.
func (r *Ring[T]) Replace(i int, v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= r.count {
		return
	}
	r.buf[(r.head+i)%len(r.buf)] = v
}

// Len returns the number of buffered elements.
func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Clear empties the ring.
func (r *Ring[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.head = 0
	r.count = 0
}
