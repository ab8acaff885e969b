// Package queue buffers discrete action notifications between commentary
// polls. Ordering is strict FIFO.
package queue

import (
	"errors"
	"sync"
)

var ErrEmpty = errors.New("queue is empty")

// Queue is safe for concurrent producers and a single consumer.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
}

func New[T any]() *Queue[T] {
	return &Queue[T]{}
}

func (q *Queue[T]) Enqueue(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()
}

// Dequeue removes the oldest item. Callers that cannot tolerate ErrEmpty
// should check Count first.
func (q *Queue[T]) Dequeue() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if len(q.items) == 0 {
		return zero, ErrEmpty
	}
	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return item, nil
}

func (q *Queue[T]) Count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drain removes and returns everything buffered, oldest first.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.items
	q.items = nil
	return out
}

// Requeue puts a drained batch back in front of anything enqueued since.
func (q *Queue[T]) Requeue(batch []T) {
	if len(batch) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	items := make([]T, 0, len(batch)+len(q.items))
	items = append(items, batch...)
	q.items = append(items, q.items...)
}

// Reset drops every buffered item. Used when a new match starts.
func (q *Queue[T]) Reset() {
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()
}
