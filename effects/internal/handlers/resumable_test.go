package handlers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/on-the-ground/effect_ive_parallel_io/effects/internal/handlers"
	effectmodel "github.com/on-the-ground/effect_ive_parallel_io/effects/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPooledResumableHandler_ReturnsValueAndError(t *testing.T) {
	ctx := context.Background()
	errOdd := errors.New("odd")

	handler := handlers.NewPooledResumableHandler(
		ctx,
		effectmodel.NewEffectScopeConfig(1, 1),
		func(_ context.Context, n int) (int, error) {
			if n%2 == 1 {
				return 0, errOdd
			}
			return n * 10, nil
		},
		func() {},
	)
	defer handler.Close()

	res := <-handler.PerformEffect(ctx, 4)
	require.NoError(t, res.Err)
	assert.Equal(t, 40, res.Value)

	res = <-handler.PerformEffect(ctx, 3)
	assert.ErrorIs(t, res.Err, errOdd)
}

func TestPooledResumableHandler_ResultsMatchPayloads(t *testing.T) {
	ctx := context.Background()

	handler := handlers.NewPooledResumableHandler(
		ctx,
		effectmodel.NewEffectScopeConfig(4, 4),
		func(_ context.Context, n int) (int, error) {
			time.Sleep(time.Duration(40-n*10) * time.Millisecond)
			return n * n, nil
		},
		func() {},
	)
	defer handler.Close()

	chs := make([]<-chan handlers.ResumableResult[int], 0, 4)
	for i := 0; i < 4; i++ {
		chs = append(chs, handler.PerformEffect(ctx, i))
	}

	for i, ch := range chs {
		select {
		case res := <-ch:
			require.NoError(t, res.Err)
			assert.Equal(t, i*i, res.Value)
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for result %d", i)
		}
	}
}

func TestPartitionableResumableHandler_TeardownCalledOnClose(t *testing.T) {
	ctx := context.Background()

	tornDown := make(chan struct{})
	handler := handlers.NewPartitionableResumableHandler(
		ctx,
		effectmodel.NewEffectScopeConfig(1, 2),
		func(_ context.Context, msg dummyMessage) (string, error) {
			return msg.group, nil
		},
		func() { close(tornDown) },
	)

	res := <-handler.PerformEffect(ctx, dummyMessage{id: 1, group: "g"})
	require.NoError(t, res.Err)
	assert.Equal(t, "g", res.Value)

	handler.Close()

	select {
	case <-tornDown:
	case <-time.After(time.Second):
		t.Fatal("teardown was not called")
	}
}

func TestPooledResumableHandler_CancelledCallerGetsClosedChannel(t *testing.T) {
	handler := handlers.NewPooledResumableHandler(
		context.Background(),
		effectmodel.NewEffectScopeConfig(1, 1),
		func(_ context.Context, n int) (int, error) { return n, nil },
		func() {},
	)
	defer handler.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	select {
	case res, ok := <-handler.PerformEffect(ctx, 1):
		assert.False(t, ok, "expected no result for cancelled caller, got %v", res)
	case <-time.After(time.Second):
		t.Fatal("result channel was left open")
	}
}

func TestPooledResumableHandler_CloseSettlesQueuedPayloads(t *testing.T) {
	entered := make(chan struct{})
	handler := handlers.NewPooledResumableHandler(
		context.Background(),
		effectmodel.NewEffectScopeConfig(4, 1),
		func(ctx context.Context, n int) (int, error) {
			if n == 0 {
				close(entered)
			}
			<-ctx.Done()
			return n, ctx.Err()
		},
		func() {},
	)

	ctx := context.Background()
	first := handler.PerformEffect(ctx, 0)
	<-entered
	queued := []<-chan handlers.ResumableResult[int]{
		handler.PerformEffect(ctx, 1),
		handler.PerformEffect(ctx, 2),
	}

	handler.Close()

	res, ok := <-first
	require.True(t, ok)
	assert.ErrorIs(t, res.Err, context.Canceled)

	for _, ch := range queued {
		select {
		case res, ok := <-ch:
			if ok {
				assert.ErrorIs(t, res.Err, context.Canceled)
			}
		case <-time.After(time.Second):
			t.Fatal("queued payload was never settled")
		}
	}

	_, ok = <-handler.PerformEffect(ctx, 3)
	assert.False(t, ok, "closed handler must not accept payloads")
}
