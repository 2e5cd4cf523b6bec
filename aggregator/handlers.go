package aggregator

import (
	"context"
	"runtime"
	"time"

	"github.com/on-the-ground/effect_ive_parallel_io/effects"
	"github.com/on-the-ground/effect_ive_parallel_io/effects/binding"
	"github.com/on-the-ground/effect_ive_parallel_io/effects/configkeys"
	"github.com/on-the-ground/effect_ive_parallel_io/effects/file"
	"github.com/on-the-ground/effect_ive_parallel_io/effects/task"
	"github.com/viant/afs"
)

// DefaultWorkers is the task pool size used when none is bound.
// Concurrent strategies run at most this many fetches at a time, so a list
// longer than the pool takes about ceil(len/workers) fetch latencies.
func DefaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// WithEffectHandlers installs the file and task handlers the aggregator needs.
//
// Sizes are looked up through the binding effect under the
// configkeys.ConfigEffectTaskHandler* and configkeys.ConfigEffectFileHandler*
// keys. The returned teardown closes both and hands back ctx.
func WithEffectHandlers(ctx context.Context) (context.Context, func() context.Context) {
	taskWorkers := binding.LookupOr(ctx, configkeys.ConfigEffectTaskHandlerNumWorkers, DefaultWorkers())
	taskBuffer := binding.LookupOr(ctx, configkeys.ConfigEffectTaskHandlerBufferSize, taskWorkers)

	fileWorkers := binding.LookupOr(ctx, configkeys.ConfigEffectFileHandlerNumWorkers, taskWorkers)
	fileBuffer := binding.LookupOr(ctx, configkeys.ConfigEffectFileHandlerBufferSize, fileWorkers)
	writeAttempts := binding.LookupOr(ctx, configkeys.ConfigEffectFileHandlerWriteAttempts, 1)

	ctx, endOfFileHandler := file.WithAfsEffectHandler(ctx, file.Config{
		EffectScopeConfig: effects.NewEffectScopeConfig(fileBuffer, fileWorkers),
		WriteAttempts:     writeAttempts,
		WriteBackoff:      50 * time.Millisecond,
	}, afs.New())

	ctx, endOfTaskHandler := task.WithEffectHandler[string](
		ctx,
		effects.NewEffectScopeConfig(taskBuffer, taskWorkers),
	)

	return ctx, func() context.Context {
		endOfTaskHandler()
		return endOfFileHandler()
	}
}
