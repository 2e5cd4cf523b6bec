package handlers

import (
	"context"

	effectmodel "github.com/on-the-ground/effect_ive_parallel_io/effects/internal/model"
)

// NewPartitionableResumableHandler routes payloads with the same PartitionKey to the same worker.
func NewPartitionableResumableHandler[P effectmodel.Partitionable, R any](
	ctx context.Context,
	config effectmodel.EffectScopeConfig,
	handleFn func(context.Context, P) (R, error),
	teardown func(),
) ResumableHandler[P, R] {
	return newResumableHandler(ctx, func(ctx context.Context) *Queues[ResumableEffectMessage[P, R]] {
		return NewPartitionedQueue(ctx, config.NumWorkers, config.BufferSize, resumeWith(handleFn))
	}, teardown)
}

// NewPooledResumableHandler serves payloads on config.NumWorkers interchangeable workers.
func NewPooledResumableHandler[P any, R any](
	ctx context.Context,
	config effectmodel.EffectScopeConfig,
	handleFn func(context.Context, P) (R, error),
	teardown func(),
) ResumableHandler[P, R] {
	return newResumableHandler(ctx, func(ctx context.Context) *Queues[ResumableEffectMessage[P, R]] {
		return NewPooledQueue(ctx, config.NumWorkers, config.BufferSize, resumeWith(handleFn))
	}, teardown)
}

func newResumableHandler[P any, R any](
	ctx context.Context,
	start func(context.Context) *Queues[ResumableEffectMessage[P, R]],
	teardown func(),
) ResumableHandler[P, R] {
	return ResumableHandler[P, R]{
		effectScope: newEffectScope(ctx, start, abandon[P, R], teardown),
	}
}

// resumeWith answers every message exactly once. ResumeCh has room for the
// answer, so the worker never waits on the caller.
func resumeWith[P any, R any](
	handleFn func(context.Context, P) (R, error),
) func(context.Context, ResumableEffectMessage[P, R]) {
	return func(ctx context.Context, msg ResumableEffectMessage[P, R]) {
		msg.ResumeCh <- ResumableResultFrom(handleFn(ctx, msg.Payload))
		close(msg.ResumeCh)
	}
}

func abandon[P any, R any](_ context.Context, msg ResumableEffectMessage[P, R]) {
	close(msg.ResumeCh)
}

type ResumableHandler[P any, R any] struct {
	*effectScope[ResumableEffectMessage[P, R]]
}

// PerformEffect enqueues payload and returns the channel its result will be delivered on.
// The channel is closed without a value when payload could not be handled: ctx
// ended before it was queued, or the handler shut down first.
func (rh ResumableHandler[P, R]) PerformEffect(ctx context.Context, payload P) <-chan ResumableResult[R] {
	resumeCh := make(chan ResumableResult[R], 1)
	msg := ResumableEffectMessage[P, R]{
		Payload:  payload,
		ResumeCh: resumeCh,
	}
	if !rh.send(ctx, msg) {
		close(resumeCh)
	}
	return resumeCh
}

// ResumableResult represents the result of handled effects.
type ResumableResult[T any] struct {
	Value T
	Err   error
}

func ResumableResultFrom[R any](res R, err error) ResumableResult[R] {
	return ResumableResult[R]{Value: res, Err: err}
}

var _ effectmodel.Partitionable = ResumableEffectMessage[any, any]{}

type ResumableEffectMessage[P any, R any] struct {
	Payload  P
	ResumeCh chan ResumableResult[R]
}

func (rem ResumableEffectMessage[P, R]) PartitionKey() string {
	if p, ok := any(rem.Payload).(effectmodel.Partitionable); ok {
		return p.PartitionKey()
	}
	return effectmodel.Unpartitioned
}
