package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/on-the-ground/effect_ive_parallel_io/effects"
	"github.com/on-the-ground/effect_ive_parallel_io/effects/concurrency"
	"github.com/on-the-ground/effect_ive_parallel_io/effects/internal/handlers"
	effectmodel "github.com/on-the-ground/effect_ive_parallel_io/effects/internal/model"
	"github.com/on-the-ground/effect_ive_parallel_io/effects/log"
)

var (
	// ErrTaskPanicked wraps the value recovered from a panicking task.
	ErrTaskPanicked = errors.New("task panicked")
	// ErrTaskAbandoned is reported when the handler shut down before the task produced a result.
	ErrTaskAbandoned = errors.New("task abandoned")
)

// Payload defines an asynchronous operation that returns a value of type R.
type Payload[R any] func(context.Context) (R, error)

func (Payload[R]) PartitionKey() string {
	return effectmodel.Unpartitioned
}

// WithEffectHandler registers a task handler for results of type R.
//
//   - Tasks are served by config.NumWorkers pool workers, so at most that many
//     run at the same time. Extra tasks queue up in order of submission.
//   - Each task body runs in a goroutine owned by a concurrency handler installed
//     alongside, and the teardown joins them all.
//   - Task bodies see the values of ctx. They are cancelled when the handler is torn down.
func WithEffectHandler[R any](
	ctx context.Context,
	config effectmodel.EffectScopeConfig,
) (context.Context, func() context.Context) {
	ctx, endOfConcurrencyHandler := concurrency.WithEffectHandler(ctx, config.BufferSize)

	ctx, endOfTaskHandler := effects.WithResumablePooledEffectHandler(
		ctx,
		config,
		effectmodel.EffectTask,
		func(ctx context.Context, payload Payload[R]) (R, error) {
			done := make(chan handlers.ResumableResult[R], 1)
			concurrency.Effect(ctx, func(childCtx context.Context) {
				runCtx, cancel := context.WithCancel(ctx)
				defer cancel()
				stop := context.AfterFunc(childCtx, cancel)
				defer stop()

				done <- handlers.ResumableResultFrom(run(runCtx, payload))
			})

			select {
			case res := <-done:
				return res.Value, res.Err
			case <-ctx.Done():
				var zero R
				return zero, ctx.Err()
			}
		},
	)

	return ctx, func() context.Context {
		endOfTaskHandler()
		return endOfConcurrencyHandler()
	}
}

// Effect submits payload to the task handler and returns a channel carrying its result.
// The channel is closed without a value if the handler shuts down first.
func Effect[R any](ctx context.Context, payload Payload[R]) <-chan handlers.ResumableResult[R] {
	return effects.PerformResumableEffect[Payload[R], R](ctx, effectmodel.EffectTask, payload)
}

func run[R any](ctx context.Context, payload Payload[R]) (res R, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.LogEff(ctx, log.LogError, "panic in task", map[string]interface{}{
				"error": r,
			})
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
		}
	}()
	return payload(ctx)
}
