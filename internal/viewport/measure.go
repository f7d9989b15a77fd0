package viewport

import "sgc-analytics/internal/model"

// Segment is a completed two-point measurement.
type Segment struct {
	From          model.MeasurePoint `json:"from"`
	To            model.MeasurePoint `json:"to"`
	DeltaTime     int64              `json:"deltaTime"`
	DeltaValue    float64            `json:"deltaValue"`
	PercentChange float64            `json:"percentChange"`
}

// Measure returns the frozen segment once two points exist.
// PercentChange is 0 when the first value is 0.
func Measure(s State) (Segment, bool) {
	if len(s.MeasurePoints) != 2 {
		return Segment{}, false
	}
	from, to := s.MeasurePoints[0], s.MeasurePoints[1]
	seg := Segment{
		From:       from,
		To:         to,
		DeltaTime:  to.X - from.X,
		DeltaValue: to.Value - from.Value,
	}
	if from.Value != 0 {
		seg.PercentChange = seg.DeltaValue / from.Value * 100
	}
	return seg, true
}
