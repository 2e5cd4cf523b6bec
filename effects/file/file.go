package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/on-the-ground/effect_ive_parallel_io/effects"
	effectmodel "github.com/on-the-ground/effect_ive_parallel_io/effects/internal/model"
	"github.com/on-the-ground/effect_ive_parallel_io/effects/log"
	"github.com/on-the-ground/effect_ive_parallel_io/shared/helper"
	"github.com/viant/afs"
	afsfile "github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

// ErrNotFound is returned when reading a location that does not exist.
var ErrNotFound = errors.New("file not found")

// Op selects what the file handler does with a payload.
type Op int

const (
	OpRead Op = iota
	OpWrite
)

func (o Op) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Payload is a single read or write of a whole file.
// Data is ignored for reads.
type Payload struct {
	Op   Op
	Path string
	Data []byte
}

// PartitionKey serializes operations on the same path.
func (p Payload) PartitionKey() string {
	return p.Path
}

// Config sizes the file handler.
type Config struct {
	effectmodel.EffectScopeConfig
	// WriteAttempts is how many times a failed upload is tried. Values below 1 mean 1.
	WriteAttempts int
	// WriteBackoff is the pause between upload attempts.
	WriteBackoff time.Duration
}

// WithAfsEffectHandler registers a resumable, partitioned file handler backed by fs.
// Paths may be plain local paths or any URL scheme fs understands (file://, mem://, ...).
func WithAfsEffectHandler(
	ctx context.Context,
	config Config,
	fs afs.Service,
) (context.Context, func() context.Context) {
	h := &afsHandler{fs: fs, config: config}
	if h.config.WriteAttempts < 1 {
		h.config.WriteAttempts = 1
	}
	return effects.WithResumablePartitionableEffectHandler[Payload, []byte](
		ctx,
		config.EffectScopeConfig,
		effectmodel.EffectFile,
		h.handle,
	)
}

// Effect performs payload on the file handler registered in ctx.
func Effect(ctx context.Context, payload Payload) ([]byte, error) {
	resultCh := effects.PerformResumableEffect[Payload, []byte](ctx, effectmodel.EffectFile, payload)
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
	return nil, fmt.Errorf("file handler closed during %v of %s", payload.Op, payload.Path)
}

// EffectRead returns the whole content stored at path.
func EffectRead(ctx context.Context, path string) ([]byte, error) {
	return Effect(ctx, Payload{Op: OpRead, Path: path})
}

// EffectWrite replaces the content stored at path with data.
func EffectWrite(ctx context.Context, path string, data []byte) error {
	_, err := Effect(ctx, Payload{Op: OpWrite, Path: path, Data: data})
	return err
}

type afsHandler struct {
	fs     afs.Service
	config Config
}

func (h *afsHandler) handle(ctx context.Context, payload Payload) ([]byte, error) {
	switch payload.Op {
	case OpRead:
		return h.read(ctx, payload.Path)
	case OpWrite:
		return nil, h.write(ctx, payload.Path, payload.Data)
	default:
		return nil, fmt.Errorf("unsupported file operation %v", payload.Op)
	}
}

func (h *afsHandler) read(ctx context.Context, path string) ([]byte, error) {
	exists, err := h.fs.Exists(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to check if %s exists: %w", path, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	data, err := h.fs.DownloadWithURL(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func (h *afsHandler) write(ctx context.Context, path string, data []byte) error {
	if err := h.ensureParent(ctx, path); err != nil {
		return err
	}
	return helper.Retry(ctx, h.config.WriteAttempts, h.config.WriteBackoff, func(attempt int) error {
		err := h.fs.Upload(ctx, path, afsfile.DefaultFileOsMode, bytes.NewReader(data))
		if err != nil {
			log.LogEff(ctx, log.LogWarn, "write attempt failed", map[string]interface{}{
				"path":    path,
				"attempt": attempt,
				"error":   err.Error(),
			})
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		return nil
	})
}

func (h *afsHandler) ensureParent(ctx context.Context, path string) error {
	parent, _ := url.Split(path, afsfile.Scheme)
	if parent == "" {
		return nil
	}
	exists, err := h.fs.Exists(ctx, parent)
	if err != nil {
		return fmt.Errorf("failed to check if %s exists: %w", parent, err)
	}
	if exists {
		return nil
	}
	if err := h.fs.Create(ctx, parent, afsfile.DefaultDirOsMode, true); err != nil {
		return fmt.Errorf("failed to create %s: %w", parent, err)
	}
	return nil
}
