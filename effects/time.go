package effects

import (
	"time"

	"github.com/rickb777/date/v2/timespan"
)

// TimeSpan is the wall-clock interval an operation occupied.
type TimeSpan = timespan.TimeSpan

// Since returns the span from start until now.
func Since(start time.Time) TimeSpan {
	return timespan.BetweenTimes(start, time.Now())
}

// Measure runs fn and returns the span it occupied.
func Measure(fn func()) TimeSpan {
	start := time.Now()
	fn()
	return Since(start)
}
