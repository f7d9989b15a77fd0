package render

import (
	"sgc-analytics/internal/indicator"
	"sgc-analytics/internal/model"
	"sgc-analytics/internal/samplestore"
	"sgc-analytics/internal/viewport"
)

// Moving-average overlay windows.
const (
	MAShort  = 5
	MAMedium = 10
	MALong   = 20
)

// Frame is everything a renderer needs for one recompute.
type Frame struct {
	Records   []Record            `json:"records"`
	XDomain   viewport.Domain     `json:"xDomain"`
	HasData   bool                `json:"hasData"`
	YMin      float64             `json:"yMin"`
	YMax      float64             `json:"yMax"`
	Anomalies []indicator.Anomaly `json:"anomalies,omitempty"`
	Zoomed    bool                `json:"zoomed"`
}

// Build runs the whole pipeline for one view: range filter, X-domain
// filter, indicators over the remaining window, merge into one record per
// sample, then forward forecast records. The Y domain covers only records
// inside the visible X domain and only series the settings enable.
func Build(samples []model.Sample, s Settings, vs viewport.State) Frame {
	ranged := s.Range.Apply(samples)
	bounds := viewport.BoundsOf(ranged)
	window := ranged
	if vs.DomainX != nil {
		window = samplestore.Window(ranged, vs.DomainX.Min, vs.DomainX.Max)
	}

	base := BaseSeries(window, s.ViewMode, s.NormalizeView)
	records := Merge(window, base, s)

	f := Frame{Zoomed: vs.IsZoomed()}
	if d, ok := vs.Effective(bounds); ok {
		f.XDomain = d
		f.HasData = true
	}

	if s.ShowAnomalies {
		f.Anomalies = indicator.DetectAll(window, s.AnomalyThreshold)
	}

	if s.ShowForecast && len(window) >= indicator.MinForecastSamples {
		records = appendForecast(records, base, s)
		// The unzoomed view stretches to show the forecast horizon.
		if vs.DomainX == nil && f.HasData {
			f.XDomain.Max = records[len(records)-1].Time
		}
	}

	f.Records = records
	f.YMin, f.YMax = YDomain(records, s, f.XDomain, f.HasData, vs.YZoom)
	return f
}

// Merge produces one record per sample, union-merging every enabled
// indicator computed over base.
func Merge(window []model.Sample, base []Point, s Settings) []Record {
	records := make([]Record, len(base))
	active := make([]float64, len(base))
	for i, p := range base {
		records[i] = Record{
			Time:      p.Time,
			Active:    num(p.Active),
			Recovered: num(p.Recovered),
			Escalated: num(p.Escalated),
		}
		active[i] = p.Active
	}
	if len(base) == 0 {
		return records
	}

	overlay := func(on bool, window int, set func(*Record, *float64)) {
		if !on {
			return
		}
		for i, v := range indicator.SMA(active, window) {
			set(&records[i], opt(v))
		}
	}
	overlay(s.ShowMovingAvg5, MAShort, func(r *Record, v *float64) { r.MA5 = v })
	overlay(s.ShowMovingAvg10, MAMedium, func(r *Record, v *float64) { r.MA10 = v })
	overlay(s.ShowMovingAvg20, MALong, func(r *Record, v *float64) { r.MA20 = v })

	if s.ShowBollingerBands {
		for i, b := range indicator.Bollinger(active, s.BollingerPeriod, s.BollingerStdDev) {
			if !b.OK {
				continue
			}
			records[i].BBUpper = num(b.Upper)
			records[i].BBMiddle = num(b.Middle)
			records[i].BBLower = num(b.Lower)
		}
	}

	if s.ShowRSI {
		for i, v := range indicator.RSI(active, s.RSIPeriod) {
			records[i].RSI = opt(v)
		}
	}

	if s.ShowMACD {
		for i, p := range indicator.DefaultMACD(active) {
			records[i].MACD = num(p.MACD)
			records[i].MACDSignal = num(p.Signal)
			records[i].MACDHistogram = num(p.Histogram)
		}
	}

	if s.ShowTrendLine {
		for i, v := range indicator.Trend(active) {
			records[i].Trend = num(v)
		}
	}

	if s.ShowPeakValley {
		peaks, valleys := indicator.PeaksAndValleys(active)
		for _, i := range peaks {
			records[i].IsPeak = true
		}
		for _, i := range valleys {
			records[i].IsValley = true
		}
	}

	if s.ShowAnomalies {
		markAnomalies(records, window, s.AnomalyThreshold)
	}
	return records
}

// markAnomalies flags records where any metric is anomalous. ZScore is the
// score with the largest magnitude among the flagged metrics.
func markAnomalies(records []Record, window []model.Sample, threshold float64) {
	for _, m := range model.AllMetrics {
		scores := indicator.ZScores(model.Series(window, m), threshold)
		for i, sc := range scores {
			if !sc.IsAnomaly {
				continue
			}
			r := &records[i]
			r.IsAnomaly = true
			r.AnomalyMetrics = append(r.AnomalyMetrics, m)
			if r.ZScore == nil || abs(sc.ZScore) > abs(*r.ZScore) {
				r.ZScore = num(sc.ZScore)
			}
		}
	}
}

// appendForecast bridges the last observed record into the forecast line
// and appends forward-only records.
func appendForecast(records []Record, base []Point, s Settings) []Record {
	active := make([]float64, len(base))
	for i, p := range base {
		active[i] = p.Active
	}
	last := base[len(base)-1]
	fc := indicator.Forecast(active, last.Time, s.ForecastPeriods, s.ForecastConfidence)
	if len(fc) == 0 {
		return records
	}

	bridge := &records[len(records)-1]
	bridge.Forecast = num(last.Active)
	bridge.ForecastUpper = num(last.Active)
	bridge.ForecastLower = num(last.Active)

	for _, p := range fc {
		r := Record{
			Time:       p.Time,
			Forecast:   num(p.Predicted),
			IsForecast: true,
		}
		if s.ShowConfidenceInterval {
			r.ForecastUpper = num(p.Upper)
			r.ForecastLower = num(p.Lower)
		}
		records = append(records, r)
	}
	return records
}

// YDomain scans records inside the visible domain for the enabled series.
func YDomain(records []Record, s Settings, visible viewport.Domain, hasData bool, yZoom float64) (float64, float64) {
	var values []float64
	if hasData {
		for _, r := range records {
			if !visible.Contains(r.Time) {
				continue
			}
			for _, p := range r.scaledFields(s) {
				if p != nil {
					values = append(values, *p)
				}
			}
		}
	}
	return viewport.YDomain(values, yZoom)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
