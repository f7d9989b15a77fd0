package indicator

import (
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"sgc-analytics/internal/model"
)

// ────────────────────────────────────────────────────────────
// Helper
// ────────────────────────────────────────────────────────────

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

func activeSamples(values ...float64) []model.Sample {
	out := make([]model.Sample, len(values))
	for i, v := range values {
		out[i] = model.Sample{Time: int64(i), Active: v}
	}
	return out
}

// ────────────────────────────────────────────────────────────
// SMA / EMA
// ────────────────────────────────────────────────────────────

func TestSMA_ExpandingFirstWindow(t *testing.T) {
	got := SMA([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		assertClose(t, fmt.Sprintf("SMA(2)[%d]", i), got[i], want[i], 1e-9)
	}
}

func TestSMA_Correctness_Period3(t *testing.T) {
	// Prices: 100, 102, 104, 103, 105
	// Expanding: 100, 101, then (100+102+104)/3 = 102, 103, 104
	got := SMA([]float64{100, 102, 104, 103, 105}, 3)
	want := []float64{100, 101, 102, 103, 104}
	for i := range want {
		assertClose(t, fmt.Sprintf("SMA(3)[%d]", i), got[i], want[i], 1e-9)
	}
}

func TestSMA_LengthMatchesInput(t *testing.T) {
	for n := 1; n <= 30; n++ {
		values := make([]float64, n)
		for i := range values {
			values[i] = math.Sin(float64(i))
		}
		for _, w := range []int{1, 5, 20, 50} {
			got := SMA(values, w)
			if len(got) != n {
				t.Fatalf("SMA(n=%d, w=%d) length %d", n, w, len(got))
			}
			for i, v := range got {
				if IsAbsent(v) {
					t.Fatalf("SMA(n=%d, w=%d)[%d] absent", n, w, i)
				}
			}
		}
	}
	if got := SMA(nil, 5); len(got) != 0 {
		t.Errorf("SMA(nil) should be empty, got %d", len(got))
	}
}

func TestEMA_Recurrence(t *testing.T) {
	// alpha = 2/(3+1) = 0.5: 1, 0.5*2+0.5*1 = 1.5, 0.5*3+0.5*1.5 = 2.25
	got := EMA([]float64{1, 2, 3}, 3)
	want := []float64{1, 1.5, 2.25}
	for i := range want {
		assertClose(t, fmt.Sprintf("EMA(3)[%d]", i), got[i], want[i], 1e-12)
	}
}

// ────────────────────────────────────────────────────────────
// Bollinger
// ────────────────────────────────────────────────────────────

func TestBollinger_Correctness(t *testing.T) {
	// Window [1,2,3]: mean 2, population σ = sqrt(2/3) = 0.816497
	bands := Bollinger([]float64{1, 2, 3, 4, 5}, 3, 2)

	for i := 0; i < 2; i++ {
		if bands[i].OK || !IsAbsent(bands[i].Middle) {
			t.Errorf("band %d should be absent, got %+v", i, bands[i])
		}
	}

	sigma := math.Sqrt(2.0 / 3.0)
	assertClose(t, "middle[2]", bands[2].Middle, 2, 1e-9)
	assertClose(t, "upper[2]", bands[2].Upper, 2+2*sigma, 1e-9)
	assertClose(t, "lower[2]", bands[2].Lower, 2-2*sigma, 1e-9)
	assertClose(t, "bandwidth[2]", bands[2].Bandwidth, 4*sigma/2*100, 1e-9)
	assertClose(t, "middle[4]", bands[4].Middle, 4, 1e-9)
}

func TestBollinger_MiddleEqualsSMA(t *testing.T) {
	values := []float64{12, 15, 11, 19, 14, 13, 18, 22, 17, 16, 21, 25}
	period := 5
	sma := SMA(values, period)
	for i, b := range Bollinger(values, period, 2) {
		if !b.OK {
			continue
		}
		if b.Middle != sma[i] {
			t.Errorf("middle[%d]=%v, SMA=%v", i, b.Middle, sma[i])
		}
	}
}

func TestBollinger_PeriodLongerThanSeries(t *testing.T) {
	bands := Bollinger([]float64{4, 6}, 20, 2)
	if !bands[1].OK {
		t.Fatal("clamped period should make the last point computable")
	}
	assertClose(t, "middle", bands[1].Middle, 5, 1e-9)
	assertClose(t, "upper", bands[1].Upper, 7, 1e-9)

	if got := Bollinger(nil, 20, 2); len(got) != 0 {
		t.Errorf("empty input should yield no bands, got %d", len(got))
	}
}

// ────────────────────────────────────────────────────────────
// RSI
// ────────────────────────────────────────────────────────────

func TestRSI_Correctness_Period2(t *testing.T) {
	// Deltas: +1, +1, -1, +1
	// i=2: gain 2, loss 0 -> 100
	// i=3: gain 1, loss 1 -> RS 1 -> 50
	// i=4: gain 1, loss 1 -> 50
	got := RSI([]float64{1, 2, 3, 2, 3}, 2)
	if !IsAbsent(got[0]) || !IsAbsent(got[1]) {
		t.Fatalf("first two RSI values should be absent, got %v", got[:2])
	}
	assertClose(t, "RSI[2]", got[2], 100, 1e-9)
	assertClose(t, "RSI[3]", got[3], 50, 1e-9)
	assertClose(t, "RSI[4]", got[4], 50, 1e-9)
}

func TestRSI_Bounds(t *testing.T) {
	cases := map[string][]float64{
		"rising":  {1, 2, 3, 4, 5, 6},
		"falling": {6, 5, 4, 3, 2, 1},
		"flat":    {3, 3, 3, 3, 3},
		"mixed":   {10, 12, 11, 20, 9, 9.5, 14, 3, 8, 8},
	}
	for name, values := range cases {
		for _, v := range RSI(values, 3) {
			if IsAbsent(v) {
				continue
			}
			if v < 0 || v > 100 {
				t.Errorf("%s: RSI %v outside [0,100]", name, v)
			}
		}
	}

	falling := RSI([]float64{6, 5, 4}, 2)
	assertClose(t, "falling RSI", falling[2], 0, 1e-9)
	flat := RSI([]float64{3, 3, 3}, 2)
	assertClose(t, "flat RSI", flat[2], 100, 1e-9)
}

func TestRSI_PeriodClampedAndDegenerate(t *testing.T) {
	got := RSI([]float64{1, 2, 3}, 14)
	assertClose(t, "clamped RSI[2]", got[2], 100, 1e-9)

	if got := RSI([]float64{5}, 14); len(got) != 1 || !IsAbsent(got[0]) {
		t.Errorf("single point should be absent, got %v", got)
	}
	if got := RSI(nil, 14); len(got) != 0 {
		t.Errorf("empty input should be empty, got %v", got)
	}
}

// ────────────────────────────────────────────────────────────
// MACD
// ────────────────────────────────────────────────────────────

func TestMACD_Identity(t *testing.T) {
	values := []float64{10, 11, 12, 11, 13, 15, 14, 16, 18, 17, 19, 21, 20, 22}
	fast := EMA(values, MACDFast)
	slow := EMA(values, MACDSlow)
	for i, p := range DefaultMACD(values) {
		assertClose(t, fmt.Sprintf("macd[%d]", i), p.MACD, fast[i]-slow[i], 1e-12)
		assertClose(t, fmt.Sprintf("hist[%d]", i), p.Histogram, p.MACD-p.Signal, 1e-12)
	}
}

func TestMACD_FlatSeriesIsZero(t *testing.T) {
	for i, p := range DefaultMACD([]float64{7, 7, 7, 7}) {
		assertClose(t, fmt.Sprintf("flat macd[%d]", i), p.MACD, 0, 1e-12)
		assertClose(t, fmt.Sprintf("flat signal[%d]", i), p.Signal, 0, 1e-12)
		assertClose(t, fmt.Sprintf("flat hist[%d]", i), p.Histogram, 0, 1e-12)
	}
	if got := DefaultMACD(nil); len(got) != 0 {
		t.Errorf("empty MACD should be empty, got %d", len(got))
	}
}

// ────────────────────────────────────────────────────────────
// Anomaly detection
// ────────────────────────────────────────────────────────────

func TestDetectAnomalies_WorkedExample(t *testing.T) {
	// mean 12.4, population σ = sqrt(77.2/5) = 3.929377
	samples := activeSamples(10, 12, 11, 20, 9)
	scores := ZScores(model.Series(samples, model.MetricActive), 1.0)

	sigma := math.Sqrt(15.44)
	assertClose(t, "z(20)", scores[3].ZScore, 7.6/sigma, 1e-9)
	assertClose(t, "z(9)", scores[4].ZScore, -3.4/sigma, 1e-9)
	if !scores[3].IsAnomaly {
		t.Error("t=3 (20) should be anomalous at 1σ")
	}
	if scores[4].IsAnomaly {
		t.Error("t=4 (9) should not be anomalous at 1σ")
	}

	got := DetectAnomalies(samples, model.MetricActive, 1.0)
	if len(got) != 1 || got[0].Time != 3 || got[0].Value != 20 {
		t.Fatalf("expected exactly t=3 flagged, got %+v", got)
	}
}

func TestDetectAnomalies_ZeroVariance(t *testing.T) {
	samples := activeSamples(5, 5, 5, 5)
	if got := DetectAnomalies(samples, model.MetricActive, 0); len(got) != 0 {
		t.Errorf("flat series must not flag anomalies, got %+v", got)
	}
	for _, sc := range ZScores([]float64{5, 5}, 1) {
		if sc.ZScore != 0 || sc.IsAnomaly {
			t.Errorf("flat series score should be zero, got %+v", sc)
		}
	}
}

func TestDetectAll_SortedByTime(t *testing.T) {
	samples := []model.Sample{
		{Time: 0, Active: 1, Recovered: 1, Escalated: 50},
		{Time: 1, Active: 1, Recovered: 1, Escalated: 1},
		{Time: 2, Active: 50, Recovered: 1, Escalated: 1},
		{Time: 3, Active: 1, Recovered: 50, Escalated: 1},
	}
	got := DetectAll(samples, 1.5)
	var times []int64
	var metrics []model.Metric
	for _, a := range got {
		times = append(times, a.Time)
		metrics = append(metrics, a.Metric)
	}
	if diff := cmp.Diff([]int64{0, 2, 3}, times); diff != "" {
		t.Errorf("anomaly times (-want +got):\n%s", diff)
	}
	wantMetrics := []model.Metric{model.MetricEscalated, model.MetricActive, model.MetricRecovered}
	if diff := cmp.Diff(wantMetrics, metrics); diff != "" {
		t.Errorf("anomaly metrics (-want +got):\n%s", diff)
	}
}

// ────────────────────────────────────────────────────────────
// Regression / Forecast
// ────────────────────────────────────────────────────────────

func TestRegress_Correctness(t *testing.T) {
	reg := Regress([]float64{1, 3, 5, 7})
	assertClose(t, "slope", reg.Slope, 2, 1e-12)
	assertClose(t, "intercept", reg.Intercept, 1, 1e-12)
	assertClose(t, "r2", reg.R2, 1, 1e-12)

	// x = 0..3, y = 1,2,1,2: slope 0.2, intercept 1.2, R² = 1 - 0.8/1
	reg = Regress([]float64{1, 2, 1, 2})
	assertClose(t, "slope", reg.Slope, 0.2, 1e-12)
	assertClose(t, "intercept", reg.Intercept, 1.2, 1e-12)
	assertClose(t, "r2", reg.R2, 0.2, 1e-12)

	flat := Regress([]float64{4, 4, 4})
	assertClose(t, "flat r2", flat.R2, 1, 0)
	assertClose(t, "flat intercept", flat.Intercept, 4, 1e-12)

	if got := Regress(nil); got != (Regression{}) {
		t.Errorf("empty regression should be zero, got %+v", got)
	}
}

func TestForecast_ResidualBand(t *testing.T) {
	// Residuals of 1,2,1,2 around 0.2x+1.2: -0.2, 0.6, -0.6, 0.2 -> σr = sqrt(0.2)
	fc := Forecast([]float64{1, 2, 1, 2}, 10, 1, 0.95)
	if len(fc) != 1 {
		t.Fatalf("expected 1 forecast point, got %d", len(fc))
	}
	margin := 1.96 * math.Sqrt(0.2)
	if fc[0].Time != 11 {
		t.Errorf("forecast time: got %d, want 11", fc[0].Time)
	}
	assertClose(t, "predicted", fc[0].Predicted, 2.0, 1e-12)
	assertClose(t, "upper", fc[0].Upper, 2.0+margin, 1e-12)
	assertClose(t, "lower", fc[0].Lower, 2.0-margin, 1e-12)
}

func TestForecast_PerfectLineHasNoBand(t *testing.T) {
	fc := Forecast([]float64{1, 3, 5, 7, 9}, 4, 2, 0.99)
	want := []ForecastPoint{
		{Time: 5, Predicted: 11, Upper: 11, Lower: 11},
		{Time: 6, Predicted: 13, Upper: 13, Lower: 13},
	}
	if diff := cmp.Diff(want, fc, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("forecast (-want +got):\n%s", diff)
	}
	if got := Forecast([]float64{1}, 0, 5, 0.95); got != nil {
		t.Errorf("single point should not forecast, got %v", got)
	}
}

func TestZForConfidence(t *testing.T) {
	assertClose(t, "0.95", ZForConfidence(0.95), 1.96, 0)
	assertClose(t, "0.99", ZForConfidence(0.99), 2.576, 0)
	assertClose(t, "0.90", ZForConfidence(0.90), 1.645, 0)
}

// ────────────────────────────────────────────────────────────
// Correlation
// ────────────────────────────────────────────────────────────

func TestPearson(t *testing.T) {
	x := []float64{1, 2, 3}
	assertClose(t, "perfect", Pearson(x, []float64{2, 4, 6}), 1, 1e-12)
	assertClose(t, "inverse", Pearson(x, []float64{3, 2, 1}), -1, 1e-12)
	assertClose(t, "constant", Pearson(x, []float64{5, 5, 5}), 0, 0)
	assertClose(t, "mismatch", Pearson(x, []float64{1, 2}), 0, 0)
	assertClose(t, "empty", Pearson(nil, nil), 0, 0)
}

func TestPearson_SymmetricAndBounded(t *testing.T) {
	a := []float64{3, 8, 1, 9, 4, 7, 2}
	b := []float64{2, 6, 3, 8, 3, 9, 1}
	rab, rba := Pearson(a, b), Pearson(b, a)
	assertClose(t, "symmetry", rab, rba, 1e-12)
	assertClose(t, "self", Pearson(a, a), 1, 1e-12)
	if math.Abs(rab) > 1+1e-12 {
		t.Errorf("|r| > 1: %v", rab)
	}
}

func TestCorrelationMatrix(t *testing.T) {
	samples := []model.Sample{
		{Time: 0, Active: 1, Recovered: 2, Escalated: 9},
		{Time: 1, Active: 2, Recovered: 4, Escalated: 7},
		{Time: 2, Active: 3, Recovered: 6, Escalated: 5},
	}
	m := CorrelationMatrix(samples)
	for i := range m.Metrics {
		if m.Values[i][i] != 1 {
			t.Errorf("diagonal[%d] = %v, want 1", i, m.Values[i][i])
		}
	}
	assertClose(t, "active/recovered", m.At(model.MetricActive, model.MetricRecovered), 1, 1e-12)
	assertClose(t, "active/escalated", m.At(model.MetricActive, model.MetricEscalated), -1, 1e-12)
	assertClose(t, "symmetry", m.At(model.MetricEscalated, model.MetricRecovered), m.At(model.MetricRecovered, model.MetricEscalated), 0)

	empty := CorrelationMatrix(nil)
	if empty.Values[0][0] != 1 || empty.Values[0][1] != 0 {
		t.Errorf("empty matrix should be identity, got %v", empty.Values)
	}
}

func TestStrength(t *testing.T) {
	cases := []struct {
		r    float64
		want string
	}{
		{0.95, "Very Strong"}, {-0.7, "Strong"}, {0.5, "Moderate"}, {0.3, "Weak"}, {0.1, "Very Weak"}, {0.8, "Strong"},
	}
	for _, tc := range cases {
		if got := Strength(tc.r); got != tc.want {
			t.Errorf("Strength(%v) = %q, want %q", tc.r, got, tc.want)
		}
	}
}

// ────────────────────────────────────────────────────────────
// Statistics summary
// ────────────────────────────────────────────────────────────

func TestSummarize_Correctness(t *testing.T) {
	st := Summarize([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assertClose(t, "mean", st.Mean, 5, 1e-12)
	assertClose(t, "stddev", st.StdDev, 2, 1e-12)
	assertClose(t, "median", st.Median, 4.5, 1e-12)
	assertClose(t, "sum", st.Sum, 40, 1e-12)
	assertClose(t, "min", st.Min, 2, 0)
	assertClose(t, "max", st.Max, 9, 0)
	assertClose(t, "growth", st.GrowthRate, 350, 1e-9)
	// z: -1.5 -0.5 -0.5 -0.5 0 0 1 2 -> Σz³ = 5.25
	assertClose(t, "skewness", st.Skewness, 5.25/8, 1e-12)
	// diffs 2,0,0,1,0,2,2: mean 1, Σ(d-1)² = 6
	assertClose(t, "volatility", st.Volatility, math.Sqrt(6.0/7.0), 1e-12)
}

func TestSummarize_Degenerate(t *testing.T) {
	if st := Summarize(nil); st != (Stats{}) {
		t.Errorf("empty stats should be zero, got %+v", st)
	}

	one := Summarize([]float64{3})
	if one.Volatility != 0 || one.Skewness != 0 || one.StdDev != 0 {
		t.Errorf("single point stats should have no spread, got %+v", one)
	}

	zeroStart := Summarize([]float64{0, 5})
	assertClose(t, "growth from zero", zeroStart.GrowthRate, 0, 0)
}

func TestRatio(t *testing.T) {
	if got := Ratio(3, 0); got != "∞" {
		t.Errorf("Ratio(3,0) = %q", got)
	}
	if got := Ratio(3, 2); got != "1.50" {
		t.Errorf("Ratio(3,2) = %q", got)
	}
	if got := Ratio(0, 0); got != "0.00" {
		t.Errorf("Ratio(0,0) = %q", got)
	}
}
