// Package effectmodel holds the types shared by handlers and the effects built on them.
package effectmodel

import "errors"

// EffectEnum names an effect. A handler is stored in a context under the
// EffectEnum of the effect it serves.
type EffectEnum string

const (
	EffectLog         EffectEnum = "parallel_io.effect.log"
	EffectConcurrency EffectEnum = "parallel_io.effect.concurrency"
	EffectBinding     EffectEnum = "parallel_io.effect.binding"
	EffectTask        EffectEnum = "parallel_io.effect.task"
	EffectFile        EffectEnum = "parallel_io.effect.file"
)

var ErrNoEffectHandler = errors.New("no effect handler registered")

// EffectScopeConfig sizes the queues and workers of a handler.
type EffectScopeConfig struct {
	// BufferSize is the capacity of each worker queue.
	BufferSize int
	// NumWorkers is the number of pool workers, or of partitions for
	// partitioned handlers.
	NumWorkers int
}

// NewEffectScopeConfig replaces non-positive sizes with 1.
func NewEffectScopeConfig(bufferSize int, numWorkers int) EffectScopeConfig {
	return EffectScopeConfig{
		BufferSize: max(bufferSize, 1),
		NumWorkers: max(numWorkers, 1),
	}
}

// Partitionable payloads carry the key that picks their worker in a
// partitioned handler.
type Partitionable interface {
	PartitionKey() string
}

// Unpartitioned is the partition key shared by payloads that have no natural key.
const Unpartitioned = "unpartitioned"
