package indicator

import "math"

// RSI computes the Relative Strength Index over a trailing window of period
// deltas using simple averages. Positions i < period are absent. A period
// that needs more deltas than the series has is clamped to len-1. When the
// window has no losses the RSI is 100. Output is clamped to [0, 100].
func RSI(values []float64, period int) []float64 {
	n := len(values)
	out := absentSlice(n)
	if n < 2 {
		return out
	}
	period = clampPeriod(period, n-1)

	for i := period; i < n; i++ {
		gain, loss := 0.0, 0.0
		for j := i - period + 1; j <= i; j++ {
			delta := values[j] - values[j-1]
			if delta > 0 {
				gain += delta
			} else {
				loss -= delta
			}
		}
		if loss == 0 {
			out[i] = 100
			continue
		}
		rs := (gain / float64(period)) / (loss / float64(period))
		out[i] = math.Max(0, math.Min(100, 100-100/(1+rs)))
	}
	return out
}
