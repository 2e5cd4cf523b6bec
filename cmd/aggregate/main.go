package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/on-the-ground/effect_ive_parallel_io/aggregator"
	"github.com/on-the-ground/effect_ive_parallel_io/effects"
	"github.com/on-the-ground/effect_ive_parallel_io/effects/binding"
	"github.com/on-the-ground/effect_ive_parallel_io/effects/configkeys"
	"github.com/on-the-ground/effect_ive_parallel_io/effects/log"
	"github.com/on-the-ground/effect_ive_parallel_io/internal/metrics"
	"github.com/spf13/pflag"
)

const (
	exitOK          = 0
	exitRunFailed   = 1
	exitConfigError = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout io.Writer) int {
	cfg, err := ParseArgs(args)
	if errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "aggregate: %v\n", err)
		return exitConfigError
	}

	logger, err := log.NewLogger(cfg.LogLevel, cfg.Console)
	if err != nil {
		fmt.Fprintf(os.Stderr, "aggregate: %v\n", err)
		return exitConfigError
	}

	ctx, endOfBindingHandler := binding.WithEffectHandler(
		ctx,
		effects.NewEffectScopeConfig(cfg.BufferSize, 1),
		cfg.Bindings(),
	)
	defer endOfBindingHandler()

	ctx, endOfLogHandler := log.WithZapEffectHandler(
		ctx,
		binding.LookupOr(ctx, configkeys.ConfigEffectLogHandlerBufferSize, 64),
		logger,
	)
	defer endOfLogHandler()

	ctx, endOfAggregatorHandlers := aggregator.WithEffectHandlers(ctx)
	defer endOfAggregatorHandlers()

	runId := uuid.NewString()
	files := aggregator.NewFileList(cfg.Inputs...)
	log.LogEff(ctx, log.LogInfo, "starting run", map[string]interface{}{
		"runId":      runId,
		"files":      files.Len(),
		"strategies": cfg.Strategies,
		"workers":    cfg.Workers,
		"fetchDelay": cfg.FetchDelay.String(),
	})

	code := exitOK
	for _, name := range cfg.Strategies {
		report := aggregator.Run(ctx, name, files, cfg.Output)
		printReport(stdout, report)

		fields := map[string]interface{}{
			"runId":     runId,
			"strategy":  report.Strategy,
			"elapsedMs": report.Span.Duration().Milliseconds(),
		}
		if report.Err != nil {
			fields["error"] = report.Err.Error()
			log.LogEff(ctx, log.LogError, "run failed", fields)
			code = exitRunFailed
			continue
		}
		log.LogEff(ctx, log.LogInfo, "run succeeded", fields)
	}

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			log.LogEff(ctx, log.LogError, "could not dump metrics", map[string]interface{}{
				"runId": runId,
				"error": err.Error(),
			})
			code = exitRunFailed
		}
	}
	return code
}
