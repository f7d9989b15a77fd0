package indicator

import "math"

// Regression is an ordinary least-squares fit of value against index.
type Regression struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R2        float64 `json:"r2"`
}

// At evaluates the fitted line at index x.
func (r Regression) At(x float64) float64 {
	return r.Slope*x + r.Intercept
}

// Regress fits values[i] = slope·i + intercept. A single point yields a flat
// line through it; empty input yields the zero Regression. R² is 1 when the
// series has no variance.
func Regress(values []float64) Regression {
	n := float64(len(values))
	if len(values) == 0 {
		return Regression{}
	}
	if len(values) == 1 {
		return Regression{Intercept: values[0], R2: 1}
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	slope := 0.0
	if denom != 0 {
		slope = (n*sumXY - sumX*sumY) / denom
	}
	intercept := (sumY - slope*sumX) / n
	reg := Regression{Slope: slope, Intercept: intercept}

	meanY := sumY / n
	var ssTot, ssRes float64
	for i, y := range values {
		ssTot += (y - meanY) * (y - meanY)
		d := y - reg.At(float64(i))
		ssRes += d * d
	}
	if ssTot == 0 {
		reg.R2 = 1
	} else {
		reg.R2 = 1 - ssRes/ssTot
	}
	return reg
}

// Trend returns the fitted line evaluated at every observed index.
func Trend(values []float64) []float64 {
	reg := Regress(values)
	out := make([]float64, len(values))
	for i := range values {
		out[i] = reg.At(float64(i))
	}
	return out
}

// ResidualStdDev is the population standard deviation of actual - trend.
func ResidualStdDev(values []float64, reg Regression) float64 {
	if len(values) == 0 {
		return 0
	}
	res := make([]float64, len(values))
	for i, v := range values {
		res[i] = v - reg.At(float64(i))
	}
	return StdDev(res)
}

// ForecastPoint is one extrapolated step with its confidence band.
type ForecastPoint struct {
	Time      int64   `json:"time"`
	Predicted float64 `json:"predicted"`
	Upper     float64 `json:"upper"`
	Lower     float64 `json:"lower"`
}

// MinForecastSamples is the shortest series the charts extrapolate.
const MinForecastSamples = 5

// ZForConfidence maps a confidence level to its two-sided z value.
// Only 0.95 and 0.99 are tabulated; anything else uses the 90% value.
func ZForConfidence(confidence float64) float64 {
	switch {
	case math.Abs(confidence-0.95) < 1e-9:
		return 1.96
	case math.Abs(confidence-0.99) < 1e-9:
		return 2.576
	default:
		return 1.645
	}
}

// Forecast extends the OLS line of values horizon steps past the last index.
// Step i (1-based) lands at lastTime+i. The band is predicted ± z·σr where σr
// is the residual standard deviation over the observed points. Returns nil
// for fewer than two values or a non-positive horizon.
func Forecast(values []float64, lastTime int64, horizon int, confidence float64) []ForecastPoint {
	if len(values) < 2 || horizon <= 0 {
		return nil
	}
	reg := Regress(values)
	margin := ZForConfidence(confidence) * ResidualStdDev(values, reg)

	out := make([]ForecastPoint, horizon)
	for i := 1; i <= horizon; i++ {
		x := float64(len(values) - 1 + i)
		p := reg.At(x)
		out[i-1] = ForecastPoint{
			Time:      lastTime + int64(i),
			Predicted: p,
			Upper:     p + margin,
			Lower:     p - margin,
		}
	}
	return out
}
