// Package binding is the configuration effect: values bound to string keys,
// looked up through a handler in the context.
//
// Scopes nest. A key missing from the innermost scope is looked up in the
// scope registered above it, so inner scopes can override outer ones.
package binding

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/on-the-ground/effect_ive_parallel_io/effects"
	effectmodel "github.com/on-the-ground/effect_ive_parallel_io/effects/internal/model"
	"github.com/on-the-ground/effect_ive_parallel_io/shared/helper"
)

// Payload is the key being looked up.
type Payload string

// PartitionKey routes lookups of the same key to the same worker.
func (p Payload) PartitionKey() string {
	return string(p)
}

// ErrKeyNotFound is returned when no scope in the chain binds the key.
var ErrKeyNotFound = errors.New("key not found")

// WithEffectHandler registers a scope binding the entries of bindings.
// The map is copied, so later changes to it are not seen.
func WithEffectHandler(
	ctx context.Context,
	config effectmodel.EffectScopeConfig,
	bindings map[string]any,
) (context.Context, func() context.Context) {
	scope := scope{bindings: maps.Clone(bindings)}
	return effects.WithResumablePartitionableEffectHandler[Payload, any](
		ctx,
		config,
		effectmodel.EffectBinding,
		scope.lookup,
	)
}

// Effect returns the value bound to key by the innermost scope that binds it.
func Effect(ctx context.Context, key string) (any, error) {
	resultCh := effects.PerformResumableEffect[Payload, any](ctx, effectmodel.EffectBinding, Payload(key))
	select {
	case res, ok := <-resultCh:
		if ok {
			return res.Value, res.Err
		}
	case <-ctx.Done():
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("binding handler closed while looking up %q", key)
}

// GetTyped is Effect for values of a known type. A value of another type is an error.
func GetTyped[T any](ctx context.Context, key string) (T, error) {
	return helper.GetTypedValueOf[T](func() (any, error) {
		return Effect(ctx, key)
	})
}

// Lookup is the comma-ok variant of GetTyped. It reports false when no binding
// handler is registered, the key is unbound, or the bound value is not a T.
func Lookup[T any](ctx context.Context, key string) (T, bool) {
	if !effects.HasEffectHandler(ctx, effectmodel.EffectBinding) {
		var zero T
		return zero, false
	}
	v, err := GetTyped[T](ctx, key)
	return v, err == nil
}

// LookupOr returns the value bound to key, or def when Lookup reports false.
func LookupOr[T any](ctx context.Context, key string, def T) T {
	if v, ok := Lookup[T](ctx, key); ok {
		return v
	}
	return def
}

type scope struct {
	bindings map[string]any
}

// lookup runs on the handler context, which still carries the handler of the
// enclosing scope, if any.
func (s scope) lookup(ctx context.Context, payload Payload) (any, error) {
	key := string(payload)
	if v, ok := s.bindings[key]; ok {
		return v, nil
	}
	if !effects.HasEffectHandler(ctx, effectmodel.EffectBinding) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	return Effect(ctx, key)
}
