package indicator

// EMA returns the exponential moving average with alpha = 2/(period+1),
// seeded with ema[0] = values[0]. Absent inputs propagate as absent and do
// not advance the recurrence.
func EMA(values []float64, period int) []float64 {
	if len(values) == 0 {
		return []float64{}
	}
	if period < 1 {
		period = 1
	}
	alpha := 2.0 / float64(period+1)

	out := absentSlice(len(values))
	seeded := false
	prev := 0.0
	for i, v := range values {
		if IsAbsent(v) {
			continue
		}
		if !seeded {
			prev = v
			seeded = true
		} else {
			// EMA = (Price * multiplier) + (EMA_prev * (1 - multiplier))
			prev = alpha*v + (1-alpha)*prev
		}
		out[i] = prev
	}
	return out
}
