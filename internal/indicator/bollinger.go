package indicator

import "math"

// Band is one Bollinger band point. OK is false for positions before the
// first full window; the numeric fields are then NaN.
type Band struct {
	Upper     float64 `json:"upper"`
	Middle    float64 `json:"middle"`
	Lower     float64 `json:"lower"`
	Bandwidth float64 `json:"bandwidth"`
	OK        bool    `json:"ok"`
}

// Bollinger computes bands of k population standard deviations around the
// period-point SMA. A period longer than the series is clamped to its
// length, so the last point is always computable for non-empty input.
func Bollinger(values []float64, period int, k float64) []Band {
	out := make([]Band, len(values))
	if len(values) == 0 {
		return out
	}
	period = clampPeriod(period, len(values))
	middle := SMA(values, period)

	nan := math.NaN()
	for i := range values {
		if i < period-1 {
			out[i] = Band{Upper: nan, Middle: nan, Lower: nan, Bandwidth: nan}
			continue
		}
		window := values[i-period+1 : i+1]
		mid := middle[i]
		sigma := StdDev(window)

		b := Band{
			Middle: mid,
			Upper:  mid + k*sigma,
			Lower:  mid - k*sigma,
			OK:     true,
		}
		if mid > 0 {
			b.Bandwidth = (b.Upper - b.Lower) / mid * 100
		}
		out[i] = b
	}
	return out
}
