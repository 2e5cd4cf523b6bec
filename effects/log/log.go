package log

import (
	"context"
	"maps"
	"slices"

	"github.com/on-the-ground/effect_ive_parallel_io/effects"
	effectmodel "github.com/on-the-ground/effect_ive_parallel_io/effects/internal/model"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel is the severity of a logged message.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// zapLevel maps l to zap. Unknown levels log at info.
func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LogDebug:
		return zapcore.DebugLevel
	case LogWarn:
		return zapcore.WarnLevel
	case LogError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// LogPayload is one message for the log effect.
type LogPayload struct {
	Level   LogLevel
	Message string
	Fields  map[string]interface{}
}

func (LogPayload) PartitionKey() string {
	return effectmodel.Unpartitioned
}

// zapFields converts the payload fields, sorted by key.
func (lp LogPayload) zapFields() []zap.Field {
	fields := make([]zap.Field, 0, len(lp.Fields))
	for _, k := range slices.Sorted(maps.Keys(lp.Fields)) {
		fields = append(fields, zap.Any(k, lp.Fields[k]))
	}
	return fields
}

// WithZapEffectHandler registers a log effect handler writing to logger.
// Messages are written in the order they were performed. The teardown writes
// whatever is still queued, syncs logger and hands back the parent context.
func WithZapEffectHandler(
	ctx context.Context,
	bufferSize int,
	logger *zap.Logger,
) (context.Context, func() context.Context) {
	return effects.WithFireAndForgetEffectHandler(
		ctx,
		bufferSize,
		effectmodel.EffectLog,
		func(_ context.Context, payload LogPayload) {
			logger.Log(payload.Level.zapLevel(), payload.Message, payload.zapFields()...)
		},
		func() {
			// stdout/stderr syncs fail with EINVAL on some platforms; nothing to do about it.
			_ = logger.Sync()
		},
	)
}

// LogEff logs msg through the log handler in ctx.
// Without a registered handler the message is dropped.
func LogEff(ctx context.Context, level LogLevel, msg string, fields map[string]interface{}) {
	if !effects.HasEffectHandler(ctx, effectmodel.EffectLog) {
		return
	}
	effects.FireAndForgetEffect(ctx, effectmodel.EffectLog, LogPayload{
		Level:   level,
		Message: msg,
		Fields:  fields,
	})
}
