package indicator

// SMA returns the simple moving average of values over window.
// The first window-1 positions average what is available so far
// (expanding window), so no position is absent. Window < 1 is treated as 1.
//
// Runs in O(n) with a running sum, the same ring-style update the live
// indicators use.
func SMA(values []float64, window int) []float64 {
	if len(values) == 0 {
		return []float64{}
	}
	if window < 1 {
		window = 1
	}

	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		n := window
		if i+1 < window {
			n = i + 1
		}
		out[i] = sum / float64(n)
	}
	return out
}
