package handlers

import (
	"context"
	"sync"

	effectmodel "github.com/on-the-ground/effect_ive_parallel_io/effects/internal/model"

	"github.com/cespare/xxhash/v2"
)

// Queues is a set of buffered channels, each drained by one or more workers.
//
// Queues are never closed. Workers return when the context they were started
// with ends; Stopped is closed once the last of them has returned.
type Queues[T any] struct {
	chs     []chan T
	pick    func(T) int
	stopped chan struct{}
}

// Route returns the queue msg must be sent on.
func (q *Queues[T]) Route(msg T) chan<- T {
	return q.chs[q.pick(msg)]
}

func (q *Queues[T]) Stopped() <-chan struct{} {
	return q.stopped
}

// Leftover empties the queues without blocking and returns what they held.
// It must only be called after Stopped, once nothing sends anymore.
func (q *Queues[T]) Leftover() []T {
	var left []T
	for _, ch := range q.chs {
		for len(ch) > 0 {
			left = append(left, <-ch)
		}
	}
	return left
}

// NewSingleQueue handles messages one at a time in arrival order.
func NewSingleQueue[T any](
	ctx context.Context,
	bufferSize int,
	handleFn func(context.Context, T),
) *Queues[T] {
	return startQueues(ctx, 1, 1, bufferSize, firstQueue[T], handleFn)
}

// NewPooledQueue shares one queue between numWorkers workers,
// so at most numWorkers messages are handled at the same time.
func NewPooledQueue[T any](
	ctx context.Context,
	numWorkers, bufferSize int,
	handleFn func(context.Context, T),
) *Queues[T] {
	return startQueues(ctx, 1, numWorkers, bufferSize, firstQueue[T], handleFn)
}

// NewPartitionedQueue gives each of numWorkers workers its own queue and routes
// messages by the hash of their PartitionKey. Messages sharing a key are handled
// in the order they were sent.
func NewPartitionedQueue[T effectmodel.Partitionable](
	ctx context.Context,
	numWorkers, bufferSize int,
	handleFn func(context.Context, T),
) *Queues[T] {
	pick := func(msg T) int {
		return partitionOf(msg.PartitionKey(), numWorkers)
	}
	return startQueues(ctx, numWorkers, 1, bufferSize, pick, handleFn)
}

func startQueues[T any](
	ctx context.Context,
	numQueues, workersPerQueue, bufferSize int,
	pick func(T) int,
	handleFn func(context.Context, T),
) *Queues[T] {
	if numQueues < 1 || workersPerQueue < 1 {
		panic("handlers: a queue needs at least one worker")
	}
	q := &Queues[T]{
		chs:     make([]chan T, numQueues),
		pick:    pick,
		stopped: make(chan struct{}),
	}

	var ready, running sync.WaitGroup
	for i := range q.chs {
		ch := make(chan T, bufferSize)
		q.chs[i] = ch
		for range workersPerQueue {
			ready.Add(1)
			running.Add(1)
			go func() {
				defer running.Done()
				ready.Done()
				serve(ctx, ch, handleFn)
			}()
		}
	}
	go func() {
		running.Wait()
		close(q.stopped)
	}()

	ready.Wait()
	return q
}

func serve[T any](ctx context.Context, ch <-chan T, handleFn func(context.Context, T)) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-ch:
			handleFn(ctx, msg)
		}
	}
}

func firstQueue[T any](T) int { return 0 }

func partitionOf(key string, n int) int {
	if n <= 1 {
		return 0
	}
	return int(xxhash.Sum64String(key) % uint64(n))
}
