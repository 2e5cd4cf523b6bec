package aggregator

import (
	"context"
	"fmt"
	"slices"

	"github.com/on-the-ground/effect_ive_parallel_io/effects"
	"github.com/on-the-ground/effect_ive_parallel_io/effects/log"
	"github.com/on-the-ground/effect_ive_parallel_io/internal/metrics"
)

// Strategy turns a FileList into its combined content.
type Strategy func(ctx context.Context, files FileList) (string, error)

const (
	StrategySequential  = "sequential"
	StrategyParMap4     = "parmap4"
	StrategyParTraverse = "partraverse"
)

// Strategies maps strategy names to their implementation.
var Strategies = map[string]Strategy{
	StrategySequential:  CombineSequential,
	StrategyParMap4:     CombineParMap4,
	StrategyParTraverse: CombineConcurrent,
}

// StrategyNames lists the names of Strategies in a fixed order.
func StrategyNames() []string {
	return []string{StrategySequential, StrategyParMap4, StrategyParTraverse}
}

func Lookup(name string) (Strategy, error) {
	s, ok := Strategies[name]
	if !ok {
		names := StrategyNames()
		slices.Sort(names)
		return nil, fmt.Errorf("%w %q, want one of %v", ErrUnknownStrategy, name, names)
	}
	return s, nil
}

// Timed wraps strategy so that every call logs and records its elapsed time.
func Timed(name string, strategy Strategy) Strategy {
	return func(ctx context.Context, files FileList) (content string, err error) {
		span := effects.Measure(func() {
			content, err = strategy(ctx, files)
		})
		metrics.ObserveStrategy(name, span.Duration(), len(content), err)
		fields := map[string]interface{}{
			"strategy": name,
			"files":    files.Len(),
			"elapsed":  span.Duration().String(),
		}
		if err != nil {
			fields["error"] = err.Error()
			log.LogEff(ctx, log.LogWarn, "strategy failed", fields)
			return
		}
		log.LogEff(ctx, log.LogInfo, "strategy finished", fields)
		return
	}
}

// Report is the outcome of one Run.
type Report struct {
	Strategy string
	Content  string
	// Span covers combining and, when requested, persisting.
	Span effects.TimeSpan
	Err  error
}

// Run combines files with the named strategy and, when dest is not empty,
// persists the result there. dest is only written after a successful combine.
func Run(ctx context.Context, name string, files FileList, dest string) Report {
	strategy, err := Lookup(name)
	if err != nil {
		return Report{Strategy: name, Err: err}
	}
	strategy = Timed(name, strategy)

	report := Report{Strategy: name}
	report.Span = effects.Measure(func() {
		report.Content, report.Err = strategy(ctx, files)
		if report.Err == nil && dest != "" {
			report.Err = Persist(ctx, dest, report.Content)
		}
	})
	if report.Err != nil {
		report.Content = ""
	}
	return report
}
