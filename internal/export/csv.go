// Package export writes chart data as CSV with fixed 2-decimal numbers.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"sgc-analytics/internal/indicator"
	"sgc-analytics/internal/model"
	"sgc-analytics/internal/render"
	"sgc-analytics/internal/variance"
)

// Precision is the number of decimals written for every numeric cell.
const Precision = 2

// VarianceHeader is the column set of a variance export.
var VarianceHeader = []string{
	"Time", "Recovered", "Escalated", "Variance",
	"CumulativeVariance", "MovingAvg", "IsAnomaly",
}

// WriteVariance writes one row per variance point. Projected points have
// no observed values and are skipped.
func WriteVariance(w io.Writer, points []variance.Point) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(VarianceHeader); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	for _, p := range points {
		if p.Projected {
			continue
		}
		row := []string{
			strconv.FormatInt(p.Time, 10),
			Fixed(p.Recovered),
			Fixed(p.Escalated),
			Fixed(p.Variance),
			Fixed(p.Cumulative),
			Fixed(p.MovingAvg),
			strconv.FormatBool(p.IsAnomaly),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: write row t=%d: %w", p.Time, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

type column struct {
	name  string
	value func(render.Record) string
}

// recordColumns returns the base columns plus one column per enabled
// overlay, in a stable order.
func recordColumns(s render.Settings) []column {
	cols := []column{
		{"Time", func(r render.Record) string { return strconv.FormatInt(r.Time, 10) }},
		{"Active", func(r render.Record) string { return ptrCell(r.Active) }},
		{"Recovered", func(r render.Record) string { return ptrCell(r.Recovered) }},
		{"Escalated", func(r render.Record) string { return ptrCell(r.Escalated) }},
	}
	add := func(on bool, name string, v func(render.Record) string) {
		if on {
			cols = append(cols, column{name, v})
		}
	}
	add(s.ShowMovingAvg5, "MA5", func(r render.Record) string { return ptrCell(r.MA5) })
	add(s.ShowMovingAvg10, "MA10", func(r render.Record) string { return ptrCell(r.MA10) })
	add(s.ShowMovingAvg20, "MA20", func(r render.Record) string { return ptrCell(r.MA20) })
	add(s.ShowBollingerBands, "BBUpper", func(r render.Record) string { return ptrCell(r.BBUpper) })
	add(s.ShowBollingerBands, "BBMiddle", func(r render.Record) string { return ptrCell(r.BBMiddle) })
	add(s.ShowBollingerBands, "BBLower", func(r render.Record) string { return ptrCell(r.BBLower) })
	add(s.ShowRSI, "RSI", func(r render.Record) string { return ptrCell(r.RSI) })
	add(s.ShowMACD, "MACD", func(r render.Record) string { return ptrCell(r.MACD) })
	add(s.ShowMACD, "MACDSignal", func(r render.Record) string { return ptrCell(r.MACDSignal) })
	add(s.ShowMACD, "MACDHistogram", func(r render.Record) string { return ptrCell(r.MACDHistogram) })
	add(s.ShowTrendLine, "Trend", func(r render.Record) string { return ptrCell(r.Trend) })
	add(s.ShowForecast, "Forecast", func(r render.Record) string { return ptrCell(r.Forecast) })
	add(s.ShowForecast && s.ShowConfidenceInterval, "ForecastUpper", func(r render.Record) string { return ptrCell(r.ForecastUpper) })
	add(s.ShowForecast && s.ShowConfidenceInterval, "ForecastLower", func(r render.Record) string { return ptrCell(r.ForecastLower) })
	add(s.ShowAnomalies, "IsAnomaly", func(r render.Record) string { return strconv.FormatBool(r.IsAnomaly) })
	add(s.ShowAnomalies, "ZScore", func(r render.Record) string { return ptrCell(r.ZScore) })
	return cols
}

// WriteRecords writes merged render records. Absent values are empty cells.
func WriteRecords(w io.Writer, records []render.Record, s render.Settings) error {
	cols := recordColumns(s)
	cw := csv.NewWriter(w)

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.name
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}

	row := make([]string, len(cols))
	for _, r := range records {
		for i, c := range cols {
			row[i] = c.value(r)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: write row t=%d: %w", r.Time, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// StatsHeader is the column set of a statistics export.
var StatsHeader = []string{
	"Metric", "Count", "Min", "Max", "Mean", "Median",
	"StdDev", "GrowthRate", "Skewness", "Volatility",
}

// WriteStats writes one summary row per metric over samples.
func WriteStats(w io.Writer, samples []model.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(StatsHeader); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	for _, m := range model.AllMetrics {
		st := indicator.Summarize(model.Series(samples, m))
		row := []string{
			string(m),
			strconv.Itoa(st.Count),
			Fixed(st.Min),
			Fixed(st.Max),
			Fixed(st.Mean),
			Fixed(st.Median),
			Fixed(st.StdDev),
			Fixed(st.GrowthRate),
			Fixed(st.Skewness),
			Fixed(st.Volatility),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: write %s stats: %w", m, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCorrelation writes the metric correlation matrix with a leading
// label column.
func WriteCorrelation(w io.Writer, m indicator.Matrix) error {
	cw := csv.NewWriter(w)
	header := []string{""}
	for _, metric := range m.Metrics {
		header = append(header, string(metric))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	for i, a := range m.Metrics {
		row := []string{string(a)}
		for j := range m.Metrics {
			row = append(row, Fixed(m.Values[i][j]))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: write %s row: %w", a, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Fixed formats v with Precision decimals. NaN and infinities become empty
// cells.
func Fixed(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return decimal.NewFromFloat(v).StringFixed(Precision)
}

func ptrCell(p *float64) string {
	if p == nil {
		return ""
	}
	return Fixed(*p)
}
