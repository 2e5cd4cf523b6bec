// Package metrics records Prometheus metrics for file aggregation runs.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	fetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregator_fetches_total",
			Help: "Number of single file fetches by outcome.",
		},
		[]string{"outcome"},
	)

	fetchDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aggregator_fetch_duration_seconds",
			Help:    "Duration of single file fetches in seconds, simulated latency included.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		},
	)

	strategyDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aggregator_strategy_duration_seconds",
			Help:    "Duration of whole strategy runs in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~32s
		},
		[]string{"strategy", "outcome"},
	)

	combinedBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "aggregator_combined_bytes",
			Help: "Size of the last combined content per strategy.",
		},
		[]string{"strategy"},
	)
)

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}

func ObserveFetch(d time.Duration, err error) {
	fetchesTotal.WithLabelValues(outcome(err)).Inc()
	fetchDurationSeconds.Observe(d.Seconds())
}

func ObserveStrategy(strategy string, d time.Duration, size int, err error) {
	strategyDurationSeconds.WithLabelValues(strategy, outcome(err)).Observe(d.Seconds())
	if err == nil {
		combinedBytes.WithLabelValues(strategy).Set(float64(size))
	}
}

// WriteTextfile dumps every registered metric to path in the text exposition format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
