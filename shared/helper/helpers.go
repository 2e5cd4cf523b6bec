package helper

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// GetTypedValueOf calls getFn and asserts its result to T.
func GetTypedValueOf[T any](getFn func() (any, error)) (T, error) {
	var zero T

	res, err := getFn()
	if err != nil {
		return zero, fmt.Errorf("failed to get value: %w", err)
	}

	val, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected type %T, want %T", res, zero)
	}

	return val, nil
}

// MustGetTypedValue is the panic-on-failure variant of GetTypedValueOf.
func MustGetTypedValue[T any](getFn func() (any, error)) T {
	res, err := GetTypedValueOf[T](getFn)
	if err != nil {
		panic(err)
	}
	return res
}

var ErrMaxAttempts = errors.New("max attempts reached")

// Retry calls fn with attempt numbers starting at 1 until it succeeds or
// maxAttempts calls have failed, waiting backoff between attempts.
// It gives up early with ctx.Err() when ctx ends during a wait.
func Retry(ctx context.Context, maxAttempts int, backoff time.Duration, fn func(attempt int) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(attempt); err == nil {
			return nil
		}
		if attempt >= maxAttempts {
			return fmt.Errorf("%w (%d): %w", ErrMaxAttempts, attempt, err)
		}
		if err := Sleep(ctx, backoff); err != nil {
			return err
		}
	}
}

// Sleep waits for d or until ctx ends, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
