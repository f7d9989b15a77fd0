package render

import (
	"math"

	"sgc-analytics/internal/model"
)

// Point is one base-series value triple.
type Point struct {
	Time      int64
	Active    float64
	Recovered float64
	Escalated float64
}

// BaseSeries maps samples to the series selected by the view mode and
// optionally rescales all three metrics against their common maximum.
func BaseSeries(samples []model.Sample, mode ViewMode, normalize bool) []Point {
	out := make([]Point, len(samples))
	for i, s := range samples {
		p := Point{Time: s.Time}
		switch mode {
		case ViewCumulative:
			p.Active = s.CumulativeActive
			p.Recovered = s.CumulativeRecovered
			p.Escalated = s.CumulativeEscalated
		case ViewRecoveryRate:
			total := s.CumulativeActive
			if total == 0 {
				total = 1
			}
			p.Active = 100
			p.Recovered = math.Min(s.CumulativeRecovered/total*100, 100)
			p.Escalated = math.Min(s.CumulativeEscalated/total*100, 100)
		default:
			p.Active = s.Active
			p.Recovered = s.Recovered
			p.Escalated = s.Escalated
		}
		out[i] = p
	}

	if normalize {
		maxVal := math.Inf(-1)
		for _, p := range out {
			maxVal = math.Max(maxVal, math.Max(p.Active, math.Max(p.Recovered, p.Escalated)))
		}
		if maxVal > 0 {
			for i := range out {
				out[i].Active = out[i].Active / maxVal * 100
				out[i].Recovered = out[i].Recovered / maxVal * 100
				out[i].Escalated = out[i].Escalated / maxVal * 100
			}
		}
	}
	return out
}
