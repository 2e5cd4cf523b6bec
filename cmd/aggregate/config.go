package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/on-the-ground/effect_ive_parallel_io/aggregator"
	"github.com/on-the-ground/effect_ive_parallel_io/effects/configkeys"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const strategyAll = "all"

// Config holds everything a run needs. It is read from an optional YAML file
// and then overridden by explicitly set flags.
type Config struct {
	Inputs        []string                 `yaml:"inputs"`
	Output        string                   `yaml:"output"`
	Strategies    []string                 `yaml:"strategies"`
	Workers       int                      `yaml:"workers"`
	BufferSize    int                      `yaml:"bufferSize"`
	WriteAttempts int                      `yaml:"writeAttempts"`
	FetchDelay    time.Duration            `yaml:"fetchDelay"`
	Delays        map[string]time.Duration `yaml:"delays"`
	LogLevel      string                   `yaml:"logLevel"`
	Console       bool                     `yaml:"console"`
	MetricsFile   string                   `yaml:"metricsFile"`
}

// DefaultConfig reproduces the classic demo: four parts, two seconds each.
func DefaultConfig() Config {
	return Config{
		Inputs: []string{
			"data/part1.txt",
			"data/part2.txt",
			"data/part3.txt",
			"data/part4.txt",
		},
		Strategies:    []string{strategyAll},
		Workers:       aggregator.DefaultWorkers(),
		BufferSize:    0,
		WriteAttempts: 1,
		FetchDelay:    2 * time.Second,
		LogLevel:      "info",
		Console:       true,
	}
}

// LoadConfig decodes the YAML file at path over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseArgs builds the run configuration from command line arguments.
func ParseArgs(args []string) (Config, error) {
	flags := pflag.NewFlagSet("aggregate", pflag.ContinueOnError)

	var (
		configPath  string
		inputs      []string
		output      string
		strategy    string
		workers     int
		delay       time.Duration
		logLevel    string
		metricsFile string
	)
	flags.StringVarP(&configPath, "config", "c", "", "YAML file with the run configuration.")
	flags.StringSliceVarP(&inputs, "input", "i", nil, "Input file, repeatable. Order decides the combined order.")
	flags.StringVarP(&output, "output", "o", "", "Write the combined content to this file.")
	flags.StringVarP(&strategy, "strategy", "s", strategyAll, "One of sequential, parmap4, partraverse or all.")
	flags.IntVarP(&workers, "workers", "w", 0, "Task pool size (default: GOMAXPROCS).")
	flags.DurationVarP(&delay, "delay", "d", 0, "Simulated latency before every read.")
	flags.StringVar(&logLevel, "log-level", "", "debug, info, warn or error.")
	flags.StringVar(&metricsFile, "metrics-file", "", "Dump Prometheus metrics to this file after the run.")

	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: aggregate [flags]")
		fmt.Fprintln(os.Stderr, "\nConcatenate files in order, sequentially and in parallel, and time each way.")
		fmt.Fprintln(os.Stderr, "\nExample: aggregate -i a.txt -i b.txt -i c.txt -i d.txt -o combined.txt -d 500ms")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = LoadConfig(configPath); err != nil {
			return Config{}, err
		}
	}

	if flags.Changed("input") {
		cfg.Inputs = inputs
	}
	if flags.Changed("output") {
		cfg.Output = output
	}
	if flags.Changed("strategy") {
		cfg.Strategies = []string{strategy}
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("delay") {
		cfg.FetchDelay = delay
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = metricsFile
	}

	if err := cfg.Normalize(); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Normalize expands "all" and makes local paths absolute.
func (c *Config) Normalize() error {
	var strategies []string
	for _, s := range c.Strategies {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == strategyAll {
			strategies = append(strategies, aggregator.StrategyNames()...)
			continue
		}
		strategies = append(strategies, s)
	}
	c.Strategies = slices.Compact(strategies)

	for i, in := range c.Inputs {
		abs, err := absPath(in)
		if err != nil {
			return err
		}
		c.Inputs[i] = abs
	}

	if c.Output != "" {
		abs, err := absPath(c.Output)
		if err != nil {
			return err
		}
		c.Output = abs
	}

	if len(c.Delays) > 0 {
		delays := make(map[string]time.Duration, len(c.Delays))
		for p, d := range c.Delays {
			abs, err := absPath(p)
			if err != nil {
				return err
			}
			delays[abs] = d
		}
		c.Delays = delays
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if len(c.Strategies) == 0 {
		errs = append(errs, errors.New("no strategy selected"))
	}
	for _, s := range c.Strategies {
		if _, err := aggregator.Lookup(s); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.BufferSize < 0 {
		errs = append(errs, fmt.Errorf("bufferSize must not be negative, got %d", c.BufferSize))
	}
	if c.FetchDelay < 0 {
		errs = append(errs, fmt.Errorf("fetchDelay must not be negative, got %v", c.FetchDelay))
	}
	for p, d := range c.Delays {
		if d < 0 {
			errs = append(errs, fmt.Errorf("delay for %s must not be negative, got %v", p, d))
		}
	}
	return multierr.Combine(errs...)
}

// Bindings exposes the configuration to the binding effect.
func (c Config) Bindings() map[string]any {
	bindings := map[string]any{
		configkeys.ConfigAggregatorFetchDelay:           c.FetchDelay,
		configkeys.ConfigEffectFileHandlerWriteAttempts: c.WriteAttempts,
	}
	if c.Workers > 0 {
		bindings[configkeys.ConfigEffectTaskHandlerNumWorkers] = c.Workers
	}
	if c.BufferSize > 0 {
		bindings[configkeys.ConfigEffectTaskHandlerBufferSize] = c.BufferSize
		bindings[configkeys.ConfigEffectFileHandlerBufferSize] = c.BufferSize
		bindings[configkeys.ConfigEffectLogHandlerBufferSize] = c.BufferSize
	}
	for p, d := range c.Delays {
		bindings[configkeys.FetchDelayOf(p)] = d
	}
	return bindings
}

func absPath(p string) (string, error) {
	if strings.Contains(p, "://") || filepath.IsAbs(p) {
		return p, nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", p, err)
	}
	return abs, nil
}
