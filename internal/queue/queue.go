// Package queue provides an unbounded, concurrency-safe FIFO.
package queue

import "sync"

// Queue is a ring-backed FIFO that doubles its capacity instead of
// rejecting or blocking producers.
type Queue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []T
	head   int
	count  int
	closed bool

	// Stats
	pushed  int64
	popped  int64
	resizes int
	peak    int
}

// New creates a queue with the given initial capacity.
func New[T any](initialCapacity int) *Queue[T] {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	q := &Queue[T]{items: make([]T, initialCapacity)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends an item. Returns false once the queue is closed.
func (q *Queue[T]) Push(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	if q.count == len(q.items) {
		q.growLocked()
	}

	q.items[(q.head+q.count)%len(q.items)] = item
	q.count++
	q.pushed++
	if q.count > q.peak {
		q.peak = q.count
	}

	q.cond.Signal()
	return true
}

// Pop blocks until an item is available. Returns false once the queue is
// closed; items still queued at close are left for Drain.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		var zero T
		return zero, false
	}
	return q.popLocked(), true
}

// Drain removes up to max items (all when max <= 0). Works after Close.
func (q *Queue[T]) Drain(max int) []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.count
	if max > 0 && max < n {
		n = max
	}
	if n == 0 {
		return nil
	}

	result := make([]T, n)
	for i := range result {
		result[i] = q.popLocked()
	}
	return result
}

// Close wakes blocked readers and rejects further pushes.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Stats contains queue statistics.
type Stats struct {
	Queued   int
	Capacity int
	Pushed   int64
	Popped   int64
	Resizes  int
	Peak     int
}

// Stats returns queue statistics.
func (q *Queue[T]) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Queued:   q.count,
		Capacity: len(q.items),
		Pushed:   q.pushed,
		Popped:   q.popped,
		Resizes:  q.resizes,
		Peak:     q.peak,
	}
}

func (q *Queue[T]) popLocked() T {
	var zero T
	item := q.items[q.head]
	q.items[q.head] = zero // Release reference
	q.head = (q.head + 1) % len(q.items)
	q.count--
	q.popped++
	return item
}

// growLocked doubles the ring and unwraps it so head is at 0.
func (q *Queue[T]) growLocked() {
	grown := make([]T, len(q.items)*2)
	n := copy(grown, q.items[q.head:])
	copy(grown[n:], q.items[:q.head])

	q.items = grown
	q.head = 0
	q.resizes++
}
