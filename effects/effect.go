package effects

import (
	"context"

	"github.com/on-the-ground/effect_ive_parallel_io/effects/internal/handlers"
	"github.com/on-the-ground/effect_ive_parallel_io/effects/internal/helper"
	"go.uber.org/zap"

	effectmodel "github.com/on-the-ground/effect_ive_parallel_io/effects/internal/model"
)

// scopeLogger records handler lifecycle events. It never goes through the log
// effect, so it stays usable while the log handler itself is being registered.
var scopeLogger = newScopeLogger()

func newScopeLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}

// WithResumablePartitionableEffectHandler registers handleFn under enum and
// serves it on config.NumWorkers workers, each with its own queue. Payloads
// with the same PartitionKey always reach the same worker, so they are handled
// one at a time in the order they were performed.
//
// The returned teardown closes the handler: payloads still queued are answered
// with a closed channel, then the optional teardown runs. It hands back the
// parent context, which no longer carries this handler.
//
//	ctx, end := WithResumablePartitionableEffectHandler(ctx, config, MyEffectEnum, handleFn)
//	defer end()
func WithResumablePartitionableEffectHandler[P effectmodel.Partitionable, R any](
	ctx context.Context,
	config effectmodel.EffectScopeConfig,
	enum effectmodel.EffectEnum,
	handleFn func(context.Context, P) (R, error),
	teardown ...func(),
) (context.Context, func() context.Context) {
	td := normalizeTeardown(teardown)
	handler := handlers.NewPartitionableResumableHandler(ctx, config, handleFn, td)
	return register(ctx, enum, handler, handler.EffectId, handler.Close)
}

// WithResumablePooledEffectHandler registers a resumable effect handler served by
// config.NumWorkers interchangeable workers, so at most that many payloads are
// handled at once regardless of their partition keys.
func WithResumablePooledEffectHandler[P effectmodel.Partitionable, R any](
	ctx context.Context,
	config effectmodel.EffectScopeConfig,
	enum effectmodel.EffectEnum,
	handleFn func(context.Context, P) (R, error),
	teardown ...func(),
) (context.Context, func() context.Context) {
	td := normalizeTeardown(teardown)
	handler := handlers.NewPooledResumableHandler(ctx, config, handleFn, td)
	return register(ctx, enum, handler, handler.EffectId, handler.Close)
}

// PerformResumableEffect sends payload to the handler registered under enum and
// returns the channel its result will be delivered on. The channel is closed
// without a value if the payload is never handled.
//
// Panics if no handler is registered for enum, or if it serves other types.
func PerformResumableEffect[P effectmodel.Partitionable, R any](
	ctx context.Context,
	enum effectmodel.EffectEnum,
	payload P,
) <-chan handlers.ResumableResult[R] {
	handler := helper.MustLookupHandler[handlers.ResumableHandler[P, R]](ctx, enum)
	return handler.PerformEffect(ctx, payload)
}

// WithFireAndForgetEffectHandler registers handleFn under enum. A single worker
// handles payloads in the order they were performed and nothing is sent back.
// Payloads accepted before teardown are all handled before the optional
// teardown runs.
func WithFireAndForgetEffectHandler[P effectmodel.Partitionable](
	ctx context.Context,
	bufferSize int,
	enum effectmodel.EffectEnum,
	handleFn func(context.Context, P),
	teardown ...func(),
) (context.Context, func() context.Context) {
	td := normalizeTeardown(teardown)
	handler := handlers.NewFireAndForgetHandler(ctx, bufferSize, handleFn, td)
	return register(ctx, enum, handler, handler.EffectId, handler.Close)
}

// FireAndForgetEffect queues payload for the handler registered under enum and
// returns at once. Panics if no handler is registered for enum.
func FireAndForgetEffect[P effectmodel.Partitionable](
	ctx context.Context,
	enum effectmodel.EffectEnum,
	payload P,
) {
	handler := helper.MustLookupHandler[handlers.FireAndForgetHandler[P]](ctx, enum)
	handler.FireAndForgetEffect(ctx, payload)
}

// HasEffectHandler reports whether a handler for enum is registered in ctx or any parent.
func HasEffectHandler(ctx context.Context, enum effectmodel.EffectEnum) bool {
	return helper.HasHandler(ctx, enum)
}

// register stores handler in a child context under enum and returns the teardown
// that closes it and hands back the parent context.
func register(
	ctx context.Context,
	enum effectmodel.EffectEnum,
	handler any,
	effectId string,
	closeFn func(),
) (context.Context, func() context.Context) {
	ctxWith := context.WithValue(ctx, enum, handler)
	scopeLogger.Debugf("created effect handler: effectId: %v, enum: %v", effectId, enum)

	return ctxWith, func() context.Context {
		closeFn()
		scopeLogger.Debugf("closed effect handler: effectId: %v, enum: %v", effectId, enum)
		return ctx
	}
}

// normalizeTeardown flattens optional teardown functions into a single callable.
//
// Accepts either 0 or 1 teardown functions. Panics if more than one is passed.
func normalizeTeardown(teardown []func()) func() {
	switch len(teardown) {
	case 1:
		return teardown[0]
	case 0:
		return func() {}
	default:
		panic("normalizeTeardown: only one or zero teardown functions allowed")
	}
}
