package binding_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/on-the-ground/effect_ive_parallel_io/effects/binding"
	effectmodel "github.com/on-the-ground/effect_ive_parallel_io/effects/internal/model"
	"github.com/on-the-ground/effect_ive_parallel_io/effects/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindingEffect_BasicLookup(t *testing.T) {
	ctx := context.Background()

	ctx, endOfLogHandler := log.WithTestEffectHandler(ctx)
	defer endOfLogHandler()

	ctx, closeFn := binding.WithEffectHandler(
		ctx,
		effectmodel.NewEffectScopeConfig(1, 1),
		map[string]any{
			"foo": 123,
		},
	)
	defer closeFn()

	v, err := binding.Effect(ctx, "foo")
	require.NoError(t, err)
	assert.Equal(t, 123, v)
}

func TestBindingEffect_KeyNotFound(t *testing.T) {
	ctx := context.Background()
	ctx, endOfLogHandler := log.WithTestEffectHandler(ctx)
	defer endOfLogHandler()
	ctx, closeFn := binding.WithEffectHandler(
		ctx,
		effectmodel.NewEffectScopeConfig(1, 1),
		map[string]any{
			"foo": 123,
		},
	)
	defer closeFn()

	_, err := binding.Effect(ctx, "bar")
	assert.ErrorIs(t, err, binding.ErrKeyNotFound)
}

func TestBindingEffect_DelegatesToUpperScope(t *testing.T) {
	ctx := context.Background()

	ctx, endOfLogHandler := log.WithTestEffectHandler(ctx)
	defer endOfLogHandler()

	upperCtx, upperClose := binding.WithEffectHandler(
		ctx,
		effectmodel.NewEffectScopeConfig(1, 1),
		map[string]any{
			"upper": "delegated",
			"both":  "upper",
		},
	)
	defer upperClose()

	lowerCtx, lowerClose := binding.WithEffectHandler(
		upperCtx,
		effectmodel.NewEffectScopeConfig(1, 1),
		map[string]any{
			"both": "lower",
		},
	)
	defer lowerClose()

	v, err := binding.Effect(lowerCtx, "upper")
	require.NoError(t, err)
	assert.Equal(t, "delegated", v)

	v, err = binding.Effect(lowerCtx, "both")
	require.NoError(t, err)
	assert.Equal(t, "lower", v, "local binding shadows the upper scope")
}

func TestBindingEffect_TypedLookups(t *testing.T) {
	ctx := context.Background()
	ctx, endOfLogHandler := log.WithTestEffectHandler(ctx)
	defer endOfLogHandler()

	ctx, closeFn := binding.WithEffectHandler(
		ctx,
		effectmodel.NewEffectScopeConfig(1, 2),
		map[string]any{
			"delay":   25 * time.Millisecond,
			"workers": 4,
		},
	)
	defer closeFn()

	delay, err := binding.GetTyped[time.Duration](ctx, "delay")
	require.NoError(t, err)
	assert.Equal(t, 25*time.Millisecond, delay)

	_, err = binding.GetTyped[string](ctx, "workers")
	assert.Error(t, err, "type mismatch must be reported")

	_, ok := binding.Lookup[int](ctx, "missing")
	assert.False(t, ok)

	assert.Equal(t, 4, binding.LookupOr(ctx, "workers", 1))
	assert.Equal(t, 7, binding.LookupOr(ctx, "missing", 7))
}

func TestBindingEffect_LookupWithoutHandler(t *testing.T) {
	v, ok := binding.Lookup[int](context.Background(), "anything")
	assert.False(t, ok)
	assert.Zero(t, v)
}

func TestBindingEffect_ConcurrentPartitionedAccess(t *testing.T) {
	ctx := context.Background()

	ctx, endOfLogHandler := log.WithTestEffectHandler(ctx)
	defer endOfLogHandler()

	// prepare key-value map
	bindings := make(map[string]any)
	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("key%d", i)
		bindings[key] = fmt.Sprintf("value%d", i)
	}

	// register the binding handler with partitioning
	ctx, cancel := binding.WithEffectHandler(ctx, effectmodel.NewEffectScopeConfig(10, 10), bindings)
	defer cancel()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[string]int) // key => hit count
	)

	numRequests := 1000
	wg.Add(numRequests)

	for i := 0; i < numRequests; i++ {
		go func(i int) {
			defer wg.Done()

			keyIdx := i % len(bindings)
			key := fmt.Sprintf("key%d", keyIdx)

			v, err := binding.Effect(ctx, key)
			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				t.Errorf("unexpected error for key %s: %v", key, err)
				return
			}
			expected := fmt.Sprintf("value%d", keyIdx)
			if v != expected {
				t.Errorf("unexpected value for key %s: got %v, want %v", key, v, expected)
			}
			results[key]++
		}(i)
	}

	wg.Wait()

	// verify that all keys were hit
	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("key%d", i)
		assert.Equal(t, numRequests/10, results[key], "hits for %s", key)
	}
}

func TestBindingEffect_CopiesBindings(t *testing.T) {
	bindings := map[string]any{"k": "before"}
	ctx, endOfBindingHandler := binding.WithEffectHandler(
		context.Background(),
		effectmodel.NewEffectScopeConfig(1, 1),
		bindings,
	)
	defer endOfBindingHandler()

	bindings["k"] = "after"
	bindings["new"] = true

	assert.Equal(t, "before", binding.LookupOr(ctx, "k", ""))
	_, ok := binding.Lookup[bool](ctx, "new")
	assert.False(t, ok)
}

func TestBindingEffect_ClosedHandlerFails(t *testing.T) {
	ctx, endOfBindingHandler := binding.WithEffectHandler(
		context.Background(),
		effectmodel.NewEffectScopeConfig(1, 1),
		map[string]any{"k": 1},
	)
	endOfBindingHandler()

	_, err := binding.Effect(ctx, "k")
	assert.ErrorContains(t, err, "closed")
}
