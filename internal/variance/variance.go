// Package variance analyses net variance (recovered - escalated) over the
// most recent samples: moving average, σ bands, anomalies, a linear trend
// projection and a what-if efficiency simulation.
package variance

import (
	"math"
	"sort"

	"sgc-analytics/internal/indicator"
	"sgc-analytics/internal/model"
)

// Options control one variance view.
type Options struct {
	Points               int     `json:"points" yaml:"points" default:"30" validate:"min=1,max=1000"`
	Window               int     `json:"window" yaml:"window" default:"5" validate:"min=1,max=100"`
	AnomalyThreshold     float64 `json:"anomalyThreshold" yaml:"anomalyThreshold" default:"2" validate:"gt=0,lte=10"`
	TrendProjection      bool    `json:"trendProjection" yaml:"trendProjection"`
	ProjectionSteps      int     `json:"projectionSteps" yaml:"projectionSteps" default:"5" validate:"min=1,max=100"`
	GoldenBaseline       bool    `json:"goldenBaseline" yaml:"goldenBaseline"`
	Simulation           bool    `json:"simulation" yaml:"simulation"`
	SimulationEfficiency float64 `json:"simulationEfficiency" yaml:"simulationEfficiency" default:"50" validate:"gte=0,lte=100"`
}

// Point is one variance row. Projected rows carry only Time and Trend.
type Point struct {
	Time       int64    `json:"time"`
	Recovered  float64  `json:"recovered"`
	Escalated  float64  `json:"escalated"`
	Variance   float64  `json:"variance"`
	Cumulative float64  `json:"cumulativeVariance"`
	MovingAvg  float64  `json:"movingAvg"`
	Upper      float64  `json:"upperBand"`
	Lower      float64  `json:"lowerBand"`
	IsAnomaly  bool     `json:"isAnomaly"`
	Projected  bool     `json:"projected,omitempty"`
	Trend      *float64 `json:"trend,omitempty"`
	Golden     *float64 `json:"golden,omitempty"`
	Simulated  *float64 `json:"simulated,omitempty"`
}

// Stats describes the variance series.
type Stats struct {
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"stdDev"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Median     float64 `json:"median"`
	Volatility float64 `json:"volatility"` // RMS of step changes
	Skewness   float64 `json:"skewness"`
}

// Trend direction of net variance between the two halves of the window.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// Summary is the headline block of the variance view.
type Summary struct {
	TotalRecovered float64 `json:"totalRecovered"`
	TotalEscalated float64 `json:"totalEscalated"`
	NetVariance    float64 `json:"netVariance"`
	Trend          string  `json:"trend"`
	EfficiencyRate float64 `json:"efficiencyRate"` // percent recovered of recovered+escalated
	RecoveryRatio  string  `json:"recoveryRatio"`  // recovered/escalated, "∞" with no escalations
}

// Result is one computed variance view.
type Result struct {
	Points  []Point `json:"points"`
	Stats   Stats   `json:"stats"`
	Summary Summary `json:"summary"`
}

// Compute analyses the last opt.Points samples. Zero-valued options fall
// back to a 5-point window, 2σ anomalies and 5 projection steps.
func Compute(samples []model.Sample, opt Options) Result {
	if opt.Points > 0 && len(samples) > opt.Points {
		samples = samples[len(samples)-opt.Points:]
	}
	if opt.Window < 1 {
		opt.Window = 5
	}
	if opt.AnomalyThreshold <= 0 {
		opt.AnomalyThreshold = 2
	}
	if opt.ProjectionSteps < 1 {
		opt.ProjectionSteps = 5
	}
	if len(samples) == 0 {
		return Result{Points: []Point{}, Summary: Summarize(nil)}
	}

	variances := make([]float64, len(samples))
	for i, s := range samples {
		variances[i] = s.Recovered - s.Escalated
	}
	st := computeStats(variances)
	ma := indicator.SMA(variances, opt.Window)

	points := make([]Point, len(samples))
	cum := 0.0
	for i, s := range samples {
		v := variances[i]
		cum += v
		points[i] = Point{
			Time:       s.Time,
			Recovered:  s.Recovered,
			Escalated:  s.Escalated,
			Variance:   v,
			Cumulative: cum,
			MovingAvg:  ma[i],
			Upper:      ma[i] + st.StdDev,
			Lower:      ma[i] - st.StdDev,
			IsAnomaly:  math.Abs(v-st.Mean) > opt.AnomalyThreshold*st.StdDev,
		}
	}

	if opt.TrendProjection && len(samples) > 1 {
		points = project(points, variances, opt.ProjectionSteps)
	}
	if opt.GoldenBaseline {
		for i := range points {
			if points[i].Projected {
				continue
			}
			points[i].Golden = ptr(GoldenBaseline(i))
		}
	}
	if opt.Simulation {
		m := SimulationMultiplier(opt.SimulationEfficiency)
		for i := range points {
			p := &points[i]
			switch {
			case !p.Projected && p.Variance != 0:
				p.Simulated = ptr(p.Variance * m)
			case p.Trend != nil:
				p.Simulated = ptr(*p.Trend * m)
			}
		}
	}

	return Result{Points: points, Stats: st, Summary: Summarize(samples)}
}

// project fits an OLS line to the variances, sets Trend on observed points
// and appends steps forward-only points.
func project(points []Point, variances []float64, steps int) []Point {
	reg := indicator.Regress(variances)
	for i := range points {
		points[i].Trend = ptr(reg.At(float64(i)))
	}
	last := points[len(points)-1].Time
	n := len(variances)
	for i := 1; i <= steps; i++ {
		points = append(points, Point{
			Time:      last + int64(i),
			Projected: true,
			Trend:     ptr(reg.At(float64(n - 1 + i))),
		})
	}
	return points
}

func computeStats(v []float64) Stats {
	st := Stats{
		Mean:   indicator.Mean(v),
		StdDev: indicator.StdDev(v),
		Min:    math.Inf(1),
		Max:    math.Inf(-1),
	}
	for _, x := range v {
		st.Min = math.Min(st.Min, x)
		st.Max = math.Max(st.Max, x)
	}

	sorted := append([]float64(nil), v...)
	sort.Float64s(sorted)
	st.Median = sorted[len(sorted)/2]

	if len(v) > 1 {
		ss := 0.0
		for i := 1; i < len(v); i++ {
			d := v[i] - v[i-1]
			ss += d * d
		}
		st.Volatility = math.Sqrt(ss / float64(len(v)-1))
	}

	if st.StdDev > 0 {
		m3 := 0.0
		for _, x := range v {
			d := x - st.Mean
			m3 += d * d * d
		}
		st.Skewness = m3 / float64(len(v)) / math.Pow(st.StdDev, 3)
	}
	return st
}

// Summarize totals the window and compares its two halves.
func Summarize(samples []model.Sample) Summary {
	var sum Summary
	for _, s := range samples {
		sum.TotalRecovered += s.Recovered
		sum.TotalEscalated += s.Escalated
	}
	sum.NetVariance = sum.TotalRecovered - sum.TotalEscalated

	mid := len(samples) / 2
	first, second := 0.0, 0.0
	for i, s := range samples {
		if i < mid {
			first += s.Recovered - s.Escalated
		} else {
			second += s.Recovered - s.Escalated
		}
	}
	switch {
	case second > first:
		sum.Trend = TrendImproving
	case second < first:
		sum.Trend = TrendDeclining
	default:
		sum.Trend = TrendStable
	}

	if total := sum.TotalRecovered + sum.TotalEscalated; total > 0 {
		sum.EfficiencyRate = sum.TotalRecovered / total * 100
	}
	sum.RecoveryRatio = indicator.Ratio(sum.TotalRecovered, sum.TotalEscalated)
	return sum
}

// SimulationMultiplier scales variance for a what-if efficiency in
// [0, 100]: 50 is neutral, 100 halves variance, 0 grows it by half.
func SimulationMultiplier(efficiency float64) float64 {
	return 1 - (efficiency-50)/100
}

// GoldenBaseline is the idealised dampened variance at position i.
func GoldenBaseline(i int) float64 {
	x := float64(i)
	return math.Sin(x*0.5) * 2 * math.Exp(-x*0.1)
}

func ptr(v float64) *float64 { return &v }
