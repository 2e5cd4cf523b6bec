package concurrency_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/on-the-ground/effect_ive_parallel_io/effects/concurrency"
	"github.com/on-the-ground/effect_ive_parallel_io/effects/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrencyEffect_AllChildrenRunAndComplete(t *testing.T) {
	ctx := context.Background()
	ctx, endOfLogHandler := log.WithTestEffectHandler(ctx)
	defer endOfLogHandler()

	ctx, endOfConcurrencyHandler := concurrency.WithEffectHandler(ctx, 10)
	defer endOfConcurrencyHandler()

	var (
		mu  sync.Mutex
		ran []int
		wg  sync.WaitGroup
	)
	wg.Add(3)

	f := func(i int) func(context.Context) {
		return func(ctx context.Context) {
			defer wg.Done()
			mu.Lock()
			ran = append(ran, i)
			mu.Unlock()
		}
	}

	concurrency.Effect(ctx, f(1), f(2), f(3))
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []int{1, 2, 3}, ran)
}

func TestConcurrencyEffect_ContextCancelPropagatesToChildren(t *testing.T) {
	ctx := context.Background()
	ctx, endOfLogHandler := log.WithTestEffectHandler(ctx)
	defer endOfLogHandler()

	ctx, cancel := context.WithCancel(ctx)

	ctx, endOfConcurrencyHandler := concurrency.WithEffectHandler(ctx, 10)
	defer endOfConcurrencyHandler()

	blocked := make(chan struct{})
	unblocked := make(chan struct{})

	concurrency.Effect(ctx, func(ctx context.Context) {
		close(blocked)
		<-ctx.Done()
		close(unblocked)
	})

	<-blocked
	cancel()

	select {
	case <-unblocked:
	case <-time.After(time.Second):
		t.Fatal("expected child to unblock on context cancel")
	}
}

func TestConcurrencyEffect_HandlesPanicsGracefully(t *testing.T) {
	ctx := context.Background()
	ctx, endOfLogHandler := log.WithTestEffectHandler(ctx)
	defer endOfLogHandler()

	ctx, endOfConcurrencyHandler := concurrency.WithEffectHandler(ctx, 10)
	defer endOfConcurrencyHandler()

	done := make(chan struct{})
	concurrency.Effect(ctx,
		func(ctx context.Context) {
			panic("child boom")
		},
		func(ctx context.Context) {
			close(done)
		},
	)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected non-panicking goroutine to finish")
	}
}

func TestConcurrencyEffect_TeardownJoinsChildren(t *testing.T) {
	ctx := context.Background()
	ctx, endOfLogHandler := log.WithTestEffectHandler(ctx)
	defer endOfLogHandler()

	ctx, endOfConcurrencyHandler := concurrency.WithEffectHandler(ctx, 10)

	var finished atomic.Int32
	started := make(chan struct{}, 5)
	sleep := func(ctx context.Context) {
		started <- struct{}{}
		time.Sleep(50 * time.Millisecond)
		finished.Add(1)
	}
	concurrency.Effect(ctx, sleep, sleep, sleep, sleep, sleep)

	for i := 0; i < 5; i++ {
		<-started
	}

	endOfConcurrencyHandler()
	assert.Equal(t, int32(5), finished.Load(), "teardown must wait for every child")
}

func TestConcurrencyEffect_ChildrenRunInParallel(t *testing.T) {
	ctx := context.Background()
	ctx, endOfLogHandler := log.WithTestEffectHandler(ctx)
	defer endOfLogHandler()

	ctx, endOfConcurrencyHandler := concurrency.WithEffectHandler(ctx, 10)
	defer endOfConcurrencyHandler()

	var wg sync.WaitGroup
	wg.Add(4)
	sleep := func(ctx context.Context) {
		defer wg.Done()
		time.Sleep(100 * time.Millisecond)
	}

	start := time.Now()
	concurrency.Effect(ctx, sleep, sleep)
	concurrency.Effect(ctx, sleep, sleep)
	wg.Wait()

	require.Less(t, time.Since(start), 300*time.Millisecond)
}
