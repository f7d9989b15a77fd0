package indicator

// Default MACD periods.
const (
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
)

// MACDPoint is one MACD value triple.
type MACDPoint struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// MACD computes EMA(fast) - EMA(slow), its EMA(signal) and the histogram.
func MACD(values []float64, fast, slow, signal int) []MACDPoint {
	out := make([]MACDPoint, len(values))
	if len(values) == 0 {
		return out
	}

	fastEMA := EMA(values, fast)
	slowEMA := EMA(values, slow)

	line := make([]float64, len(values))
	for i := range values {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	sig := EMA(line, signal)

	for i := range values {
		out[i] = MACDPoint{
			MACD:      line[i],
			Signal:    sig[i],
			Histogram: line[i] - sig[i],
		}
	}
	return out
}

// DefaultMACD is MACD(values, 12, 26, 9).
func DefaultMACD(values []float64) []MACDPoint {
	return MACD(values, MACDFast, MACDSlow, MACDSignal)
}
