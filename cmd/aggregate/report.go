package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/on-the-ground/effect_ive_parallel_io/aggregator"
)

// printReport writes the combined content, or the failure category, followed
// by the timing line.
func printReport(w io.Writer, report aggregator.Report) {
	if report.Err != nil {
		fmt.Fprintln(w, failureMessage(report.Err))
	} else {
		fmt.Fprint(w, report.Content)
		if !strings.HasSuffix(report.Content, "\n") && report.Content != "" {
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintf(w, "%s Time: %d (%s)\n",
		displayName(report.Strategy),
		report.Span.Duration().Milliseconds(),
		humanize.Bytes(uint64(len(report.Content))),
	)
}

// failureMessage names the failure category without the underlying cause.
func failureMessage(err error) string {
	for _, category := range []error{
		aggregator.ErrWriteFile,
		aggregator.ErrLoadAllFiles,
		aggregator.ErrLoadFiles,
		aggregator.ErrArity,
		aggregator.ErrUnknownStrategy,
	} {
		if errors.Is(err, category) {
			return category.Error()
		}
	}
	return err.Error()
}

func displayName(strategy string) string {
	switch strategy {
	case aggregator.StrategySequential:
		return "Sequential"
	case aggregator.StrategyParMap4:
		return "ParMap4"
	case aggregator.StrategyParTraverse:
		return "ParTraverse"
	default:
		return strategy
	}
}
