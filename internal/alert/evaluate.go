// Package alert evaluates threshold alerts over samples and keeps the
// alert and annotation books a chart session edits.
package alert

import "sgc-analytics/internal/model"

// Violation lists the sample indices where one enabled alert fires.
type Violation struct {
	AlertID string `json:"alertId"`
	Label   string `json:"label,omitempty"`
	Indices []int  `json:"indices"`
}

// Evaluate scans samples once per enabled alert. Alerts that never fire
// are omitted. Output order follows alerts.
func Evaluate(samples []model.Sample, alerts []model.ThresholdAlert) []Violation {
	var out []Violation
	for _, a := range alerts {
		if !a.Enabled {
			continue
		}
		var idx []int
		for i, s := range samples {
			if a.Operator.Compare(a.Metric.Of(s), a.Value) {
				idx = append(idx, i)
			}
		}
		if len(idx) > 0 {
			out = append(out, Violation{AlertID: a.ID, Label: a.Label, Indices: idx})
		}
	}
	return out
}

// ByPoint returns, for every sample, the IDs of enabled alerts it violates.
// Points without violations get a nil entry.
func ByPoint(samples []model.Sample, alerts []model.ThresholdAlert) [][]string {
	out := make([][]string, len(samples))
	for _, v := range Evaluate(samples, alerts) {
		for _, i := range v.Indices {
			out[i] = append(out[i], v.AlertID)
		}
	}
	return out
}
