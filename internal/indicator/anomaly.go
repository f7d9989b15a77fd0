package indicator

import (
	"sort"

	"sgc-analytics/internal/model"
)

// DefaultAnomalyThreshold is the z-score cut-off the charts start with.
const DefaultAnomalyThreshold = 2.5

// Score is the z-score of one value against its series.
type Score struct {
	ZScore    float64 `json:"zScore"`
	IsAnomaly bool    `json:"isAnomaly"`
}

// ZScores scores every value against the population mean and standard
// deviation of the whole series. A value is anomalous when
// |v - mean| > threshold·σ. With σ == 0 every score is 0 and nothing is
// flagged.
func ZScores(values []float64, threshold float64) []Score {
	out := make([]Score, len(values))
	sigma := StdDev(values)
	if sigma == 0 {
		return out
	}
	mean := Mean(values)
	for i, v := range values {
		z := (v - mean) / sigma
		out[i] = Score{ZScore: z, IsAnomaly: abs(v-mean) > threshold*sigma}
	}
	return out
}

// Anomaly is a flagged sample.
type Anomaly struct {
	Index  int          `json:"index"`
	Time   int64        `json:"time"`
	Value  float64      `json:"value"`
	ZScore float64      `json:"zScore"`
	Metric model.Metric `json:"metric"`
}

// DetectAnomalies returns the flagged samples for one metric, in order.
func DetectAnomalies(samples []model.Sample, metric model.Metric, threshold float64) []Anomaly {
	values := model.Series(samples, metric)
	var out []Anomaly
	for i, sc := range ZScores(values, threshold) {
		if !sc.IsAnomaly {
			continue
		}
		out = append(out, Anomaly{
			Index:  i,
			Time:   samples[i].Time,
			Value:  values[i],
			ZScore: sc.ZScore,
			Metric: metric,
		})
	}
	return out
}

// DetectAll runs DetectAnomalies for every canonical metric and merges the
// results by time. Ties keep metric order.
func DetectAll(samples []model.Sample, threshold float64) []Anomaly {
	var out []Anomaly
	for _, m := range model.AllMetrics {
		out = append(out, DetectAnomalies(samples, m, threshold)...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
