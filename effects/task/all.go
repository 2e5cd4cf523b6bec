package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/on-the-ground/effect_ive_parallel_io/effects/internal/handlers"
	"go.uber.org/multierr"
)

// ErrArity is returned by fixed-arity combinators given the wrong number of inputs.
var ErrArity = errors.New("wrong number of tasks")

// All submits every payload to the task handler before awaiting any of them,
// then waits for all of them to finish.
//
// Results come back in the order of payloads, whatever order the tasks complete in.
// A failing task does not cancel its siblings; when any task fails, All returns
// every failure combined with multierr and no results.
// If ctx ends while waiting, All returns ctx.Err() immediately.
func All[R any](ctx context.Context, payloads ...Payload[R]) ([]R, error) {
	resultChs := make([]<-chan handlers.ResumableResult[R], len(payloads))
	for i, payload := range payloads {
		resultChs[i] = Effect(ctx, payload)
	}

	results := make([]R, len(payloads))
	var err error
	for i, resultCh := range resultChs {
		select {
		case res, ok := <-resultCh:
			switch {
			case !ok:
				err = multierr.Append(err, fmt.Errorf("task %d: %w", i, ErrTaskAbandoned))
			case res.Err != nil:
				err = multierr.Append(err, res.Err)
			default:
				results[i] = res.Value
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ParMap4 runs four tasks concurrently through All and combines their results.
func ParMap4[T any, R any](
	ctx context.Context,
	a, b, c, d Payload[T],
	combine func(T, T, T, T) R,
) (R, error) {
	res, err := All(ctx, a, b, c, d)
	if err != nil {
		var zero R
		return zero, err
	}
	return combine(res[0], res[1], res[2], res[3]), nil
}

// ParMap4Slice is ParMap4 over a runtime-sized slice. It fails with ErrArity
// unless exactly four payloads are given.
func ParMap4Slice[T any, R any](
	ctx context.Context,
	payloads []Payload[T],
	combine func(T, T, T, T) R,
) (R, error) {
	if len(payloads) != 4 {
		var zero R
		return zero, fmt.Errorf("%w: want 4, got %d", ErrArity, len(payloads))
	}
	return ParMap4(ctx, payloads[0], payloads[1], payloads[2], payloads[3], combine)
}
