package indicator

// Decomposition splits a series into trend, seasonal and residual parts.
type Decomposition struct {
	Trend    []float64 `json:"trend"`
	Seasonal []float64 `json:"seasonal"`
	Residual []float64 `json:"residual"`
}

// DefaultSeasonLength is a weekly cycle on daily samples.
const DefaultSeasonLength = 7

// SeasonalDecompose uses an expanding SMA(seasonLength) as the trend, the
// mean non-zero detrended value at each cycle position as the seasonal
// effect, and whatever remains as the residual.
func SeasonalDecompose(values []float64, seasonLength int) Decomposition {
	if seasonLength < 1 {
		seasonLength = DefaultSeasonLength
	}
	trend := SMA(values, seasonLength)

	detrended := make([]float64, len(values))
	for i, v := range values {
		detrended[i] = v - trend[i]
	}

	effects := make([]float64, seasonLength)
	for pos := 0; pos < seasonLength; pos++ {
		var hits []float64
		for i := pos; i < len(detrended); i += seasonLength {
			if detrended[i] != 0 {
				hits = append(hits, detrended[i])
			}
		}
		effects[pos] = Mean(hits)
	}

	seasonal := make([]float64, len(values))
	residual := make([]float64, len(values))
	for i, v := range values {
		seasonal[i] = effects[i%seasonLength]
		residual[i] = v - trend[i] - seasonal[i]
	}
	return Decomposition{Trend: trend, Seasonal: seasonal, Residual: residual}
}
