package viewport

import "math"

// Default Y domain when nothing visible has a finite value.
const (
	DefaultYMin = 0
	DefaultYMax = 10
)

// YDomain derives the Y axis range from the visible values. NaN and Inf are
// skipped. A flat series at 0 spans [0, 10]; any other flat series is
// widened by ±5%. The natural range is then scaled by 1/yZoom around its
// center and padded by 5% of the scaled range.
func YDomain(values []float64, yZoom float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		lo, hi = DefaultYMin, DefaultYMax
	}

	if lo == hi {
		if lo == 0 {
			hi = DefaultYMax
		} else {
			lo, hi = lo*0.95, hi*1.05
			if lo > hi {
				lo, hi = hi, lo
			}
		}
	}

	if yZoom <= 0 {
		yZoom = 1
	}
	span := (hi - lo) / yZoom
	center := (lo + hi) / 2
	pad := span * 0.05
	return center - span/2 - pad, center + span/2 + pad
}
