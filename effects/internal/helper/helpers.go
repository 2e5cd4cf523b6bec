package helper

import (
	"context"
	"fmt"

	effectmodel "github.com/on-the-ground/effect_ive_parallel_io/effects/internal/model"
	sharedHelper "github.com/on-the-ground/effect_ive_parallel_io/shared/helper"
)

// LookupHandler returns the handler registered in ctx under enum as an H.
// It fails with ErrNoEffectHandler when none is registered and with a type
// error when the registered handler serves other payload or result types.
func LookupHandler[H any](ctx context.Context, enum effectmodel.EffectEnum) (H, error) {
	return sharedHelper.GetTypedValueOf[H](func() (any, error) {
		raw := ctx.Value(enum)
		if raw == nil {
			return nil, fmt.Errorf("%w: %s", effectmodel.ErrNoEffectHandler, enum)
		}
		return raw, nil
	})
}

// MustLookupHandler is LookupHandler for callers that cannot go on without the handler.
func MustLookupHandler[H any](ctx context.Context, enum effectmodel.EffectEnum) H {
	return sharedHelper.MustGetTypedValue[H](func() (any, error) {
		return LookupHandler[H](ctx, enum)
	})
}

// HasHandler reports whether a handler for enum is visible from ctx.
func HasHandler(ctx context.Context, enum effectmodel.EffectEnum) bool {
	return ctx.Value(enum) != nil
}
