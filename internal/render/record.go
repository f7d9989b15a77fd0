package render

import "sgc-analytics/internal/model"

// Record is one merged chart row. Nil fields were not computed for this
// time; forward forecast rows leave the metric fields nil so renderers do
// not draw history into the future.
type Record struct {
	Time int64 `json:"time"`

	Active    *float64 `json:"active,omitempty"`
	Recovered *float64 `json:"recovered,omitempty"`
	Escalated *float64 `json:"escalated,omitempty"`

	MA5  *float64 `json:"ma5,omitempty"`
	MA10 *float64 `json:"ma10,omitempty"`
	MA20 *float64 `json:"ma20,omitempty"`

	BBUpper  *float64 `json:"bbUpper,omitempty"`
	BBMiddle *float64 `json:"bbMiddle,omitempty"`
	BBLower  *float64 `json:"bbLower,omitempty"`

	RSI *float64 `json:"rsi,omitempty"`

	MACD          *float64 `json:"macd,omitempty"`
	MACDSignal    *float64 `json:"macdSignal,omitempty"`
	MACDHistogram *float64 `json:"macdHistogram,omitempty"`

	Trend *float64 `json:"trend,omitempty"`

	Forecast      *float64 `json:"forecast,omitempty"`
	ForecastUpper *float64 `json:"forecastUpper,omitempty"`
	ForecastLower *float64 `json:"forecastLower,omitempty"`
	IsForecast    bool     `json:"isForecast,omitempty"`

	IsAnomaly      bool           `json:"isAnomaly,omitempty"`
	ZScore         *float64       `json:"zScore,omitempty"`
	AnomalyMetrics []model.Metric `json:"anomalyMetrics,omitempty"`

	IsPeak   bool `json:"isPeak,omitempty"`
	IsValley bool `json:"isValley,omitempty"`
}

// MetricValue returns the record's value for m, if present.
func (r Record) MetricValue(m model.Metric) (float64, bool) {
	var p *float64
	switch m {
	case model.MetricActive:
		p = r.Active
	case model.MetricRecovered:
		p = r.Recovered
	case model.MetricEscalated:
		p = r.Escalated
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// scaledFields returns the values that drive Y autoscaling for this record:
// only the series the settings currently draw on the main pane.
func (r Record) scaledFields(s Settings) []*float64 {
	var out []*float64
	if s.ShowActive {
		out = append(out, r.Active)
	}
	if s.ShowRecovered {
		out = append(out, r.Recovered)
	}
	if s.ShowEscalated {
		out = append(out, r.Escalated)
	}
	if s.ShowMovingAvg5 {
		out = append(out, r.MA5)
	}
	if s.ShowMovingAvg10 {
		out = append(out, r.MA10)
	}
	if s.ShowMovingAvg20 {
		out = append(out, r.MA20)
	}
	if s.ShowBollingerBands {
		out = append(out, r.BBUpper, r.BBLower)
	}
	if s.ShowTrendLine {
		out = append(out, r.Trend)
	}
	if s.ShowForecast {
		out = append(out, r.Forecast)
		if s.ShowConfidenceInterval {
			out = append(out, r.ForecastUpper, r.ForecastLower)
		}
	}
	return out
}

func num(v float64) *float64 { return &v }

// opt returns nil for absent (NaN) values.
func opt(v float64) *float64 {
	if v != v {
		return nil
	}
	return &v
}
