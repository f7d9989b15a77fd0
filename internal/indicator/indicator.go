// Package indicator provides technical and statistical calculations over
// numeric series derived from samples.
//
// Every function is pure and returns a slice the same length as its input.
// Positions that cannot be computed yet hold NaN (see Absent/IsAbsent).
// Degenerate input (empty, single point, zero variance) never panics and
// never produces Inf; it yields empty output, 0, or absence instead.
package indicator

import (
	"math"
	"sort"
)

// Absent marks a position with no computed value.
func Absent() float64 { return math.NaN() }

// IsAbsent reports whether v marks a missing value.
func IsAbsent(v float64) bool { return math.IsNaN(v) }

// Mean returns the arithmetic mean, 0 for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation, 0 for empty input.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := Mean(values)
	ss := 0.0
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}

// Median returns the middle value (mean of the two middles for even
// lengths), 0 for empty input.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func absentSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// clampPeriod bounds a requested window to [1, n].
func clampPeriod(period, n int) int {
	if period > n {
		period = n
	}
	if period < 1 {
		period = 1
	}
	return period
}
