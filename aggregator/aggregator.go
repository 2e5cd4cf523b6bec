// Package aggregator reads a list of files and concatenates their contents in
// list order, either one file after the other or all at once on the task effect.
//
// Every operation performs its side effects through handlers registered in the
// context: file I/O through the file effect, configuration through the binding
// effect, and parallel work through the task effect. WithEffectHandlers installs
// the file and task handlers.
package aggregator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/on-the-ground/effect_ive_parallel_io/effects/binding"
	"github.com/on-the-ground/effect_ive_parallel_io/effects/configkeys"
	"github.com/on-the-ground/effect_ive_parallel_io/effects/file"
	"github.com/on-the-ground/effect_ive_parallel_io/effects/log"
	"github.com/on-the-ground/effect_ive_parallel_io/effects/task"
	"github.com/on-the-ground/effect_ive_parallel_io/internal/metrics"
	"github.com/on-the-ground/effect_ive_parallel_io/shared/helper"
)

// FetchOne returns the whole content of path.
//
// When a fetch delay is bound for path (or globally), FetchOne waits that long
// before reading. Failures are reported as *FetchError.
func FetchOne(ctx context.Context, path string) (content string, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveFetch(time.Since(start), err)
	}()

	if err := helper.Sleep(ctx, fetchDelay(ctx, path)); err != nil {
		return "", &FetchError{Path: path, Cause: err}
	}

	data, err := file.EffectRead(ctx, path)
	if err != nil {
		return "", &FetchError{Path: path, Cause: err}
	}

	log.LogEff(ctx, log.LogDebug, "fetched file", map[string]interface{}{
		"path":  path,
		"bytes": len(data),
	})
	return string(data), nil
}

// CombineSequential fetches the files one by one in list order.
// It stops at the first failure; later paths are never read.
func CombineSequential(ctx context.Context, files FileList) (string, error) {
	var sb strings.Builder
	for _, path := range files.paths {
		content, err := FetchOne(ctx, path)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrLoadFiles, err)
		}
		sb.WriteString(content)
	}
	return sb.String(), nil
}

// CombineConcurrent fetches every file at once on the task effect and waits
// for all of them. A failure does not stop the other fetches; every failure
// is reported.
func CombineConcurrent(ctx context.Context, files FileList) (string, error) {
	contents, err := task.All(ctx, fetchTasks(files)...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLoadAllFiles, err)
	}
	return strings.Join(contents, ""), nil
}

// CombineParMap4 is CombineConcurrent for exactly four files.
func CombineParMap4(ctx context.Context, files FileList) (string, error) {
	if files.Len() != 4 {
		return "", fmt.Errorf("%w: want 4 files, got %d", ErrArity, files.Len())
	}
	fetches := fetchTasks(files)
	combined, err := task.ParMap4(ctx,
		fetches[0], fetches[1], fetches[2], fetches[3],
		func(a, b, c, d string) string {
			return a + b + c + d
		},
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLoadAllFiles, err)
	}
	return combined, nil
}

// Persist replaces whatever is stored at path with content.
func Persist(ctx context.Context, path string, content string) error {
	if err := file.EffectWrite(ctx, path, []byte(content)); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFile, &WriteError{Path: path, Cause: err})
	}
	log.LogEff(ctx, log.LogDebug, "persisted combined content", map[string]interface{}{
		"path":  path,
		"bytes": len(content),
	})
	return nil
}

func fetchTasks(files FileList) []task.Payload[string] {
	tasks := make([]task.Payload[string], len(files.paths))
	for i, path := range files.paths {
		tasks[i] = func(ctx context.Context) (string, error) {
			return FetchOne(ctx, path)
		}
	}
	return tasks
}

func fetchDelay(ctx context.Context, path string) time.Duration {
	if d, ok := binding.Lookup[time.Duration](ctx, configkeys.FetchDelayOf(path)); ok {
		return d
	}
	return binding.LookupOr[time.Duration](ctx, configkeys.ConfigAggregatorFetchDelay, 0)
}
