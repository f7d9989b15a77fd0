package indicator

import (
	"math"

	"sgc-analytics/internal/model"
)

// Pearson returns the correlation coefficient of x and y. Mismatched or empty
// inputs and zero-variance series yield 0. The result is clamped to [-1, 1].
func Pearson(x, y []float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return 0
	}
	mx, my := Mean(x), Mean(y)
	var num, sxx, syy float64
	for i := range x {
		dx := x[i] - mx
		dy := y[i] - my
		num += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0
	}
	r := num / math.Sqrt(sxx*syy)
	return math.Max(-1, math.Min(1, r))
}

// Matrix is a symmetric correlation matrix over the canonical metrics,
// indexed in model.AllMetrics order.
type Matrix struct {
	Metrics []model.Metric `json:"metrics"`
	Values  [][]float64    `json:"values"`
}

// At returns the correlation between a and b, 0 for unknown metrics.
func (m Matrix) At(a, b model.Metric) float64 {
	ia, ib := -1, -1
	for i, mm := range m.Metrics {
		if mm == a {
			ia = i
		}
		if mm == b {
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		return 0
	}
	return m.Values[ia][ib]
}

// CorrelationMatrix correlates every pair of canonical metrics. The diagonal
// is always 1.
func CorrelationMatrix(samples []model.Sample) Matrix {
	metrics := model.AllMetrics
	series := make([][]float64, len(metrics))
	for i, m := range metrics {
		series[i] = model.Series(samples, m)
	}

	vals := make([][]float64, len(metrics))
	for i := range vals {
		vals[i] = make([]float64, len(metrics))
		vals[i][i] = 1
	}
	for i := 0; i < len(metrics); i++ {
		for j := i + 1; j < len(metrics); j++ {
			r := Pearson(series[i], series[j])
			vals[i][j] = r
			vals[j][i] = r
		}
	}
	return Matrix{Metrics: append([]model.Metric(nil), metrics...), Values: vals}
}

// Strength labels the magnitude of a correlation coefficient.
func Strength(r float64) string {
	a := math.Abs(r)
	switch {
	case a > 0.8:
		return "Very Strong"
	case a > 0.6:
		return "Strong"
	case a > 0.4:
		return "Moderate"
	case a > 0.2:
		return "Weak"
	default:
		return "Very Weak"
	}
}
