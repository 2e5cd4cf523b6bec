// Package effects delegates side effects to handlers carried by a context.Context.
//
// A handler is installed with a `WithXxxEffectHandler(ctx, ...)` function, which
// returns a derived context and a teardown. Code running under that context
// performs the effect (`log.LogEff`, `binding.Effect`, `file.EffectRead`,
// `task.Effect`, ...) without knowing which implementation serves it. The
// teardown closes the handler and returns the parent context.
//
// Two kinds of handlers exist:
//   - fire-and-forget handlers take a payload and return nothing (log, concurrency);
//   - resumable handlers answer each payload on a `<-chan ResumableResult[R]`
//     (binding, file, task).
//
// Resumable handlers are served either by hash-partitioned workers, where
// payloads with the same PartitionKey are handled in order by one worker, or by
// a bounded pool of interchangeable workers.
//
// Closing a handler settles whatever is still queued: resumable callers get a
// closed result channel, fire-and-forget payloads are still handled.
//
// Sub-packages:
//   - log: zap-backed structured logging
//   - binding: key/value configuration with lookup in enclosing scopes
//   - concurrency: supervised goroutines joined on teardown
//   - task: bounded parallel tasks, All and ParMap4
//   - file: whole-file reads and writes through github.com/viant/afs
//
// Example:
//
//	ctx, end := task.WithEffectHandler[string](ctx, effects.NewEffectScopeConfig(4, 4))
//	defer end()
//
//	parts, err := task.All(ctx, fetchA, fetchB, fetchC)
package effects
