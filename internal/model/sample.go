package model

// Sample is one time-indexed observation of the three core metrics.
// Cumulative fields are running totals kept by the producer; the engine only
// reads them.
type Sample struct {
	Time                int64   `json:"time"`
	Active              float64 `json:"active"`
	Recovered           float64 `json:"recovered"`
	Escalated           float64 `json:"escalated"`
	CumulativeActive    float64 `json:"cumulativeActive"`
	CumulativeRecovered float64 `json:"cumulativeRecovered"`
	CumulativeEscalated float64 `json:"cumulativeEscalated"`
}

// Metric names one of the three canonical series.
type Metric string

const (
	MetricActive    Metric = "active"
	MetricRecovered Metric = "recovered"
	MetricEscalated Metric = "escalated"
)

// AllMetrics lists the canonical series in display order.
var AllMetrics = []Metric{MetricActive, MetricRecovered, MetricEscalated}

// Valid reports whether m is one of the canonical metrics.
func (m Metric) Valid() bool {
	switch m {
	case MetricActive, MetricRecovered, MetricEscalated:
		return true
	}
	return false
}

// Of returns the metric's value from s. Unknown metrics read as 0.
func (m Metric) Of(s Sample) float64 {
	switch m {
	case MetricActive:
		return s.Active
	case MetricRecovered:
		return s.Recovered
	case MetricEscalated:
		return s.Escalated
	}
	return 0
}

// CumulativeOf returns the producer-maintained running total for m.
func (m Metric) CumulativeOf(s Sample) float64 {
	switch m {
	case MetricActive:
		return s.CumulativeActive
	case MetricRecovered:
		return s.CumulativeRecovered
	case MetricEscalated:
		return s.CumulativeEscalated
	}
	return 0
}

// Series extracts one metric column from samples.
func Series(samples []Sample, m Metric) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = m.Of(s)
	}
	return out
}

// Times extracts the time column from samples.
func Times(samples []Sample) []int64 {
	out := make([]int64, len(samples))
	for i, s := range samples {
		out[i] = s.Time
	}
	return out
}

// MeasurePoint is one endpoint of a two-point measurement on the chart.
type MeasurePoint struct {
	X     int64   `json:"x"`
	Y     float64 `json:"y"`
	Value float64 `json:"value"`
}
