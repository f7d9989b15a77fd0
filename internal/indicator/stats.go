package indicator

import "math"

// Stats is the summary panel for one series.
type Stats struct {
	Count      int     `json:"count"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Mean       float64 `json:"mean"`
	Median     float64 `json:"median"`
	Sum        float64 `json:"sum"`
	StdDev     float64 `json:"stdDev"`
	GrowthRate float64 `json:"growthRate"` // percent, first to last
	Skewness   float64 `json:"skewness"`
	Volatility float64 `json:"volatility"` // σ of first differences
}

// Summarize computes Stats. Empty input yields the zero Stats.
func Summarize(values []float64) Stats {
	n := len(values)
	if n == 0 {
		return Stats{}
	}

	st := Stats{
		Count:  n,
		Min:    math.Inf(1),
		Max:    math.Inf(-1),
		Mean:   Mean(values),
		Median: Median(values),
		StdDev: StdDev(values),
	}
	for _, v := range values {
		st.Sum += v
		st.Min = math.Min(st.Min, v)
		st.Max = math.Max(st.Max, v)
	}

	if first := values[0]; first != 0 {
		st.GrowthRate = (values[n-1] - first) / first * 100
	}

	if st.StdDev > 0 {
		m3 := 0.0
		for _, v := range values {
			z := (v - st.Mean) / st.StdDev
			m3 += z * z * z
		}
		st.Skewness = m3 / float64(n)
	}

	if n > 1 {
		diffs := make([]float64, n-1)
		for i := 1; i < n; i++ {
			diffs[i-1] = values[i] - values[i-1]
		}
		st.Volatility = StdDev(diffs)
	}
	return st
}

// Ratio formats a/b for display, returning "∞" when b is 0 and a is not.
// 0/0 is reported as "0.00".
func Ratio(a, b float64) string {
	if b == 0 {
		if a == 0 {
			return "0.00"
		}
		return "∞"
	}
	return formatFixed(a/b, 2)
}
