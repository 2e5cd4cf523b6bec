package aggregator

import (
	"errors"
	"fmt"

	"github.com/on-the-ground/effect_ive_parallel_io/effects/task"
)

var (
	// ErrLoadFiles marks a failed sequential combine.
	ErrLoadFiles = errors.New("could not load files")
	// ErrLoadAllFiles marks a failed concurrent combine.
	ErrLoadAllFiles = errors.New("could not load all files")
	// ErrWriteFile marks a failed persist.
	ErrWriteFile = errors.New("could not write combined file")
	// ErrArity is returned by the four-way combinator for lists that are not exactly four long.
	ErrArity = task.ErrArity
	// ErrUnknownStrategy is returned by Lookup for names not in Strategies.
	ErrUnknownStrategy = errors.New("unknown strategy")
)

// FetchError reports a path that could not be read.
type FetchError struct {
	Path  string
	Cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Path, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// WriteError reports a destination that could not be written.
type WriteError struct {
	Path  string
	Cause error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Cause)
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}
