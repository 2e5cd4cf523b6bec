// Package concurrency is the effect that spawns supervised goroutines.
//
// Children run on a context of their own that carries no values from the
// spawning context. Callers that need those values derive a context from it
// and cancel it with the child's.
package concurrency

import (
	"context"
	"sync"

	"github.com/on-the-ground/effect_ive_parallel_io/effects"
	effectmodel "github.com/on-the-ground/effect_ive_parallel_io/effects/internal/model"
	"github.com/on-the-ground/effect_ive_parallel_io/effects/log"
)

// WithEffectHandler registers the concurrency handler, which starts every
// function passed to Effect in a goroutine of its own.
//
// Children are cancelled when ctx ends. The teardown stops accepting new
// children and blocks until the running ones have returned.
func WithEffectHandler(
	ctx context.Context,
	bufferSize int,
) (context.Context, func() context.Context) {
	sv := &supervisor{
		doneCh: make(chan struct{}),
	}
	sv.watchParentCancel(ctx)

	return effects.WithFireAndForgetEffectHandler(
		ctx,
		bufferSize,
		effectmodel.EffectConcurrency,
		sv.spawnConcurrentChildren,
		func() {
			sv.waitChildren(ctx)
			close(sv.doneCh)
		},
	)
}

// Effect hands fns to the concurrency handler, which starts each one in its own goroutine.
func Effect(ctx context.Context, fns ...func(context.Context)) {
	effects.FireAndForgetEffect(ctx, effectmodel.EffectConcurrency, Payload(fns))
}

type Payload []func(context.Context)

func (Payload) PartitionKey() string {
	return effectmodel.Unpartitioned
}

// supervisor tracks the goroutines spawned by one concurrency handler.
// It cancels them when the parent context ends and joins them on teardown.
type supervisor struct {
	wg sync.WaitGroup

	mu              sync.Mutex
	childrenCancels []context.CancelFunc
	parentDone      bool
	closing         bool

	doneCh chan struct{}
}

// watchParentCancel propagates cancellation of the parent context to all children.
func (s *supervisor) watchParentCancel(parentContext context.Context) {
	go func() {
		select {
		case <-parentContext.Done():
			log.LogEff(parentContext, log.LogInfo, "context cancelled, cancelling child routines", nil)
			s.mu.Lock()
			s.parentDone = true
			cancels := s.childrenCancels
			s.childrenCancels = nil
			s.mu.Unlock()
			for _, cancelFn := range cancels {
				cancelFn()
			}
		case <-s.doneCh:
		}
	}()
}

// track registers a child before it starts. It reports false once the
// supervisor is closing, in which case the child must not run.
func (s *supervisor) track(cancelFn context.CancelFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.wg.Add(1)
	if s.parentDone {
		cancelFn()
		return true
	}
	s.childrenCancels = append(s.childrenCancels, cancelFn)
	return true
}

// spawnConcurrentChildren starts each function in its own goroutine.
// A panicking child is logged and does not affect its siblings.
func (s *supervisor) spawnConcurrentChildren(
	parentContext context.Context,
	functions Payload,
) {
	var ready sync.WaitGroup

	for _, fn := range functions {
		childCtx, cancel := context.WithCancel(context.Background())
		if !s.track(cancel) {
			cancel()
			log.LogEff(parentContext, log.LogWarn, "supervisor closing, routine dropped", nil)
			continue
		}
		ready.Add(1)
		go func(f func(context.Context), ctx context.Context) {
			defer s.wg.Done()
			defer cancel()
			defer func() {
				if r := recover(); r != nil {
					log.LogEff(parentContext, log.LogError, "panic in child routine", map[string]interface{}{
						"error": r,
					})
				}
			}()
			ready.Done()
			f(ctx)
		}(fn, childCtx)
	}

	ready.Wait()
}

// waitChildren stops accepting children and blocks until the running ones complete.
func (s *supervisor) waitChildren(ctx context.Context) {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	log.LogEff(ctx, log.LogDebug, "waiting for all routines to finish", nil)
	s.wg.Wait()
	log.LogEff(ctx, log.LogDebug, "all routines finished", nil)
}
