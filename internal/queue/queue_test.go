package queue

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	q := New[string]()
	q.Enqueue("a")
	q.Enqueue("b")
	q.Enqueue("c")
	require.Equal(t, 3, q.Count())

	for _, want := range []string{"a", "b", "c"} {
		got, err := q.Dequeue()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 0, q.Count())
}

func TestQueue_DequeueEmpty(t *testing.T) {
	q := New[int]()
	_, err := q.Dequeue()
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("want ErrEmpty, got %v", err)
	}
}

func TestQueue_DrainRequeueKeepsOrder(t *testing.T) {
	q := New[int]()
	q.Enqueue(1)
	q.Enqueue(2)

	batch := q.Drain()
	require.Equal(t, []int{1, 2}, batch)
	assert.Equal(t, 0, q.Count())

	q.Enqueue(3)
	q.Requeue(batch)
	assert.Equal(t, []int{1, 2, 3}, q.Drain())
}

func TestQueue_Reset(t *testing.T) {
	q := New[int]()
	q.Enqueue(1)
	q.Reset()
	assert.Equal(t, 0, q.Count())
	assert.Empty(t, q.Drain())
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	q := New[int]()
	const producers, perProducer = 8, 250

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue(base*perProducer + i)
			}
		}(p)
	}
	wg.Wait()

	require.Equal(t, producers*perProducer, q.Count())

	// Each producer's items must come out in the order it pushed them.
	last := make(map[int]int)
	for q.Count() > 0 {
		v, err := q.Dequeue()
		require.NoError(t, err)
		p := v / perProducer
		if prev, ok := last[p]; ok {
			require.Greater(t, v, prev)
		}
		last[p] = v
	}
}
