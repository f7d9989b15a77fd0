package indicator

import (
	"math"
	"strconv"
)

// Normalize rescales values to [0, 100]. A flat series maps to 50.
func Normalize(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	for i, v := range values {
		if span == 0 {
			out[i] = 50
			continue
		}
		out[i] = (v - lo) / span * 100
	}
	return out
}

// PercentChange returns the step-over-step change in percent. The first
// position and any step from a zero value are 0.
func PercentChange(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev == 0 {
			continue
		}
		out[i] = (values[i] - prev) / prev * 100
	}
	return out
}

// Diff returns first differences with out[0] = 0.
func Diff(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		out[i] = values[i] - values[i-1]
	}
	return out
}

// RunningSum returns the prefix sums of values.
func RunningSum(values []float64) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		out[i] = sum
	}
	return out
}

// PeaksAndValleys returns the indices of strict local maxima and minima.
// Endpoints are never reported and fewer than three values yield nothing.
func PeaksAndValleys(values []float64) (peaks, valleys []int) {
	for i := 1; i < len(values)-1; i++ {
		prev, cur, next := values[i-1], values[i], values[i+1]
		if cur > prev && cur > next {
			peaks = append(peaks, i)
		}
		if cur < prev && cur < next {
			valleys = append(valleys, i)
		}
	}
	return peaks, valleys
}

func formatFixed(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
