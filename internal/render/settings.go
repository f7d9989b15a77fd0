// Package render merges samples, indicators and the viewport into the
// per-time records a chart renderer draws.
package render

import (
	"fmt"

	"sgc-analytics/internal/samplestore"
	"sgc-analytics/internal/validate"
)

// ViewMode selects which base series the chart shows.
type ViewMode string

const (
	ViewRateOfChange ViewMode = "rateOfChange" // per-step values as produced
	ViewCumulative   ViewMode = "cumulative"
	ViewRecoveryRate ViewMode = "recoveryRate"
)

// Settings are the chart toggles and indicator parameters.
// Apply defaults before decoding user input so omitted keys keep them.
type Settings struct {
	ShowActive    bool `json:"showActive" yaml:"showActive" default:"true"`
	ShowRecovered bool `json:"showRecovered" yaml:"showRecovered" default:"true"`
	ShowEscalated bool `json:"showEscalated" yaml:"showEscalated" default:"true"`

	ShowMovingAvg5  bool `json:"showMovingAvg5" yaml:"showMovingAvg5"`
	ShowMovingAvg10 bool `json:"showMovingAvg10" yaml:"showMovingAvg10"`
	ShowMovingAvg20 bool `json:"showMovingAvg20" yaml:"showMovingAvg20"`
	ShowTrendLine   bool `json:"showTrendLine" yaml:"showTrendLine"`
	ShowPeakValley  bool `json:"showPeakValley" yaml:"showPeakValley"`
	ShowCrosshair   bool `json:"showCrosshair" yaml:"showCrosshair" default:"true"`

	ShowReferenceLine bool    `json:"showReferenceLine" yaml:"showReferenceLine"`
	ReferenceValue    float64 `json:"referenceValue" yaml:"referenceValue" validate:"finite"`

	NormalizeView bool     `json:"normalizeView" yaml:"normalizeView"`
	ViewMode      ViewMode `json:"viewMode" yaml:"viewMode" default:"rateOfChange" validate:"oneof=rateOfChange cumulative recoveryRate"`

	Range samplestore.RangeFilter `json:"range" yaml:"range" default:"all" validate:"oneof=all last50 last100"`

	ShowBollingerBands bool    `json:"showBollingerBands" yaml:"showBollingerBands"`
	BollingerPeriod    int     `json:"bollingerPeriod" yaml:"bollingerPeriod" default:"20" validate:"min=2,max=200"`
	BollingerStdDev    float64 `json:"bollingerStdDev" yaml:"bollingerStdDev" default:"2" validate:"gt=0,lte=5"`

	ShowRSI   bool `json:"showRSI" yaml:"showRSI"`
	RSIPeriod int  `json:"rsiPeriod" yaml:"rsiPeriod" default:"14" validate:"min=2,max=100"`

	ShowMACD bool `json:"showMACD" yaml:"showMACD"`

	ShowAnomalies    bool    `json:"showAnomalies" yaml:"showAnomalies"`
	AnomalyThreshold float64 `json:"anomalyThreshold" yaml:"anomalyThreshold" default:"2.5" validate:"gt=0,lte=10"`

	ShowForecast           bool    `json:"showForecast" yaml:"showForecast"`
	ForecastPeriods        int     `json:"forecastPeriods" yaml:"forecastPeriods" default:"10" validate:"min=1,max=100"`
	ShowConfidenceInterval bool    `json:"showConfidenceInterval" yaml:"showConfidenceInterval" default:"true"`
	ForecastConfidence     float64 `json:"forecastConfidence" yaml:"forecastConfidence" default:"0.95" validate:"gt=0,lt=1"`
}

// DefaultSettings returns the settings a fresh chart opens with.
func DefaultSettings() Settings {
	var s Settings
	if err := validate.Defaults(&s); err != nil {
		// Only reachable with a malformed default tag.
		panic(fmt.Sprintf("render: default settings: %v", err))
	}
	return s
}

// Validate checks parameter ranges and enums.
func (s Settings) Validate() error {
	return validate.Struct(s)
}
