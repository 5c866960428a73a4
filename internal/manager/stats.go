package manager

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/vertex-ai-benchmarker/internal/sample"
)

// Aggregate is the one-line summary computed over a run's measured
// sample results: min/max/mean in millisecond-truncated terms, and
// percentiles interpolated in nanoseconds and rounded to milliseconds for
// display.
type Aggregate struct {
	MinMs  int64
	MaxMs  int64
	MeanMs float64
	P90Ms  int64
	P95Ms  int64
	P99Ms  int64
}

// String renders the exact aggregate output line format.
func (a Aggregate) String() string {
	return fmt.Sprintf("Min: %dms, Max: %dms, Average: %.2fms, P90: %dms, P95: %dms, P99: %dms\n",
		a.MinMs, a.MaxMs, a.MeanMs, a.P90Ms, a.P95Ms, a.P99Ms)
}

// computeAggregate sorts the measured latencies and derives min/max/mean
// from the millisecond-truncated distribution, and p90/p95/p99 by linear
// interpolation across the nanosecond-precision sorted sequence, rounded
// to milliseconds only at the very end.
func computeAggregate(results []sample.Result) Aggregate {
	n := len(results)
	if n == 0 {
		return Aggregate{}
	}

	nanos := make([]int64, n)
	for i, r := range results {
		nanos[i] = r.Latency.Nanoseconds()
	}
	sort.Slice(nanos, func(i, j int) bool { return nanos[i] < nanos[j] })

	msTrunc := make([]int64, n)
	var sum int64
	for i, ns := range nanos {
		msTrunc[i] = ns / 1e6
		sum += msTrunc[i]
	}

	return Aggregate{
		MinMs:  msTrunc[0],
		MaxMs:  msTrunc[n-1],
		MeanMs: float64(sum) / float64(n),
		P90Ms:  percentileMs(nanos, 90),
		P95Ms:  percentileMs(nanos, 95),
		P99Ms:  percentileMs(nanos, 99),
	}
}

// percentileMs implements the pinned interpolation formula: interpolate
// in nanoseconds across the sorted sequence, round to milliseconds last.
// When there is only one sample, the sole value is the answer for every
// percentile.
func percentileMs(sortedNanos []int64, x float64) int64 {
	n := len(sortedNanos)
	if n == 1 {
		return roundToMs(float64(sortedNanos[0]))
	}

	stride := 100.0 / float64(n-1)
	floor := int(math.Floor(x * float64(n-1) / 100.0))
	if floor >= n-1 {
		floor = n - 2
	}
	frac := (x - stride*float64(floor)) / stride
	lo := float64(sortedNanos[floor])
	hi := float64(sortedNanos[floor+1])
	return roundToMs(lo + frac*(hi-lo))
}

func roundToMs(ns float64) int64 {
	return int64(math.Round(ns / 1e6))
}
