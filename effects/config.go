package effects

import effectmodel "github.com/on-the-ground/effect_ive_parallel_io/effects/internal/model"

// EffectScopeConfig sizes a handler: queue buffer per worker and number of workers.
type EffectScopeConfig = effectmodel.EffectScopeConfig

// NewEffectScopeConfig replaces non-positive sizes with 1.
func NewEffectScopeConfig(bufferSize int, numWorkers int) EffectScopeConfig {
	return effectmodel.NewEffectScopeConfig(bufferSize, numWorkers)
}
