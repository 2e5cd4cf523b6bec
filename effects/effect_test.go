package effects_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/on-the-ground/effect_ive_parallel_io/effects"
	effectmodel "github.com/on-the-ground/effect_ive_parallel_io/effects/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keyed string

func (k keyed) PartitionKey() string { return string(k) }

func TestPerformResumableEffect_WithoutHandlerPanics(t *testing.T) {
	assert.False(t, effects.HasEffectHandler(context.Background(), effectmodel.EffectTask))
	assert.Panics(t, func() {
		effects.PerformResumableEffect[keyed, int](context.Background(), effectmodel.EffectTask, keyed("k"))
	})
}

func TestFireAndForgetEffect_WithoutHandlerPanics(t *testing.T) {
	assert.Panics(t, func() {
		effects.FireAndForgetEffect(context.Background(), effectmodel.EffectLog, keyed("k"))
	})
}

func TestTeardown_ReturnsParentContextAndRunsOnce(t *testing.T) {
	parent := context.Background()

	var teardowns atomic.Int32
	ctx, end := effects.WithResumablePartitionableEffectHandler(
		parent,
		effects.NewEffectScopeConfig(1, 2),
		effectmodel.EffectBinding,
		func(_ context.Context, k keyed) (int, error) { return len(k), nil },
		func() { teardowns.Add(1) },
	)
	require.True(t, effects.HasEffectHandler(ctx, effectmodel.EffectBinding))

	res := <-effects.PerformResumableEffect[keyed, int](ctx, effectmodel.EffectBinding, keyed("four"))
	require.NoError(t, res.Err)
	assert.Equal(t, 4, res.Value)

	back := end()
	end()
	assert.Equal(t, parent, back)
	assert.False(t, effects.HasEffectHandler(back, effectmodel.EffectBinding))
	assert.Equal(t, int32(1), teardowns.Load())
}

func TestPooledEffectHandler_ServesInParallel(t *testing.T) {
	ctx, end := effects.WithResumablePooledEffectHandler(
		context.Background(),
		effects.NewEffectScopeConfig(3, 3),
		effectmodel.EffectTask,
		func(_ context.Context, k keyed) (string, error) {
			time.Sleep(100 * time.Millisecond)
			return string(k), nil
		},
	)
	defer end()

	start := time.Now()
	a := effects.PerformResumableEffect[keyed, string](ctx, effectmodel.EffectTask, "a")
	b := effects.PerformResumableEffect[keyed, string](ctx, effectmodel.EffectTask, "b")
	c := effects.PerformResumableEffect[keyed, string](ctx, effectmodel.EffectTask, "c")

	assert.Equal(t, "a", (<-a).Value)
	assert.Equal(t, "b", (<-b).Value)
	assert.Equal(t, "c", (<-c).Value)
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}

func TestNormalizeTeardown_RejectsMoreThanOne(t *testing.T) {
	assert.Panics(t, func() {
		effects.WithFireAndForgetEffectHandler(
			context.Background(),
			1,
			effectmodel.EffectLog,
			func(context.Context, keyed) {},
			func() {},
			func() {},
		)
	})
}
