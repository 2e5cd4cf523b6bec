package handlers

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// effectScope owns the queues of one handler and the context its workers run on.
//
// Sending and closing are safe from any goroutine. Once the workers have
// stopped, because of Close or because the parent context ended, the scope
// refuses new messages and hands every message still queued to settle.
type effectScope[T any] struct {
	EffectId string

	queues *Queues[T]
	done   <-chan struct{}
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool

	drained   chan struct{}
	closeOnce sync.Once
	teardown  func()
}

func newEffectScope[T any](
	ctx context.Context,
	start func(context.Context) *Queues[T],
	settle func(context.Context, T),
	teardown func(),
) *effectScope[T] {
	ctx, cancel := context.WithCancel(ctx)
	es := &effectScope[T]{
		EffectId: uuid.NewString(),
		queues:   start(ctx),
		done:     ctx.Done(),
		cancel:   cancel,
		drained:  make(chan struct{}),
		teardown: teardown,
	}

	go func() {
		defer close(es.drained)
		<-es.queues.Stopped()

		es.mu.Lock()
		es.closed = true
		es.mu.Unlock()

		for _, msg := range es.queues.Leftover() {
			settle(ctx, msg)
		}
	}()
	return es
}

// send reports whether msg was queued before ctx or the scope ended.
func (es *effectScope[T]) send(ctx context.Context, msg T) bool {
	es.mu.RLock()
	defer es.mu.RUnlock()

	if es.closed || ctx.Err() != nil {
		return false
	}
	select {
	case es.queues.Route(msg) <- msg:
		return true
	case <-ctx.Done():
	case <-es.done:
	}
	return false
}

// Close stops the workers, waits until the queues are settled and runs the
// teardown. Only the first call has any effect.
func (es *effectScope[T]) Close() {
	es.closeOnce.Do(func() {
		es.cancel()
		<-es.drained
		es.teardown()
	})
}
