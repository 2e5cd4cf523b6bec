package handlers

import (
	"context"
)

// NewFireAndForgetHandler serves payloads on a single worker in arrival order.
//
// Payloads accepted before the handler stops are all handled: those still
// queued at shutdown are passed to handleFn with the ended context, then
// teardown runs.
func NewFireAndForgetHandler[T any](
	ctx context.Context,
	bufferSize int,
	handleFn func(context.Context, T),
	teardown func(),
) FireAndForgetHandler[T] {
	start := func(ctx context.Context) *Queues[T] {
		return NewSingleQueue(ctx, bufferSize, handleFn)
	}
	return FireAndForgetHandler[T]{
		effectScope: newEffectScope(ctx, start, handleFn, teardown),
	}
}

type FireAndForgetHandler[T any] struct {
	*effectScope[T]
}

// FireAndForgetEffect queues payload. It is dropped when ctx has ended or the
// handler has stopped.
func (ffh FireAndForgetHandler[T]) FireAndForgetEffect(ctx context.Context, payload T) {
	ffh.send(ctx, payload)
}
