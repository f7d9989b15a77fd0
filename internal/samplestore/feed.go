package samplestore

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"sgc-analytics/internal/model"
)

// ReadJSON decodes a JSON array of samples and checks ordering.
func ReadJSON(r io.Reader) ([]model.Sample, error) {
	var samples []model.Sample
	if err := json.NewDecoder(r).Decode(&samples); err != nil {
		return nil, fmt.Errorf("decode samples: %w", err)
	}
	if err := Validate(samples); err != nil {
		return nil, err
	}
	return samples, nil
}

// csvColumns maps header names to sample fields.
var csvColumns = map[string]func(*model.Sample, float64){
	"active":              func(s *model.Sample, v float64) { s.Active = v },
	"recovered":           func(s *model.Sample, v float64) { s.Recovered = v },
	"escalated":           func(s *model.Sample, v float64) { s.Escalated = v },
	"cumulativeactive":    func(s *model.Sample, v float64) { s.CumulativeActive = v },
	"cumulativerecovered": func(s *model.Sample, v float64) { s.CumulativeRecovered = v },
	"cumulativeescalated": func(s *model.Sample, v float64) { s.CumulativeEscalated = v },
}

// ReadCSV decodes samples from a CSV file with a header row. A "time" column
// is required; metric columns are matched case-insensitively and may be
// omitted. Missing cumulative columns are filled with running totals.
func ReadCSV(r io.Reader) ([]model.Sample, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	timeCol := -1
	setters := make([]func(*model.Sample, float64), len(header))
	hasCumulative := false
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if name == "time" {
			timeCol = i
			continue
		}
		if set, ok := csvColumns[name]; ok {
			setters[i] = set
			if strings.HasPrefix(name, "cumulative") {
				hasCumulative = true
			}
		}
	}
	if timeCol < 0 {
		return nil, fmt.Errorf("csv header missing time column")
	}

	var samples []model.Sample
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		var s model.Sample
		s.Time, err = strconv.ParseInt(strings.TrimSpace(rec[timeCol]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: time: %w", line, err)
		}
		for i, set := range setters {
			if set == nil || i >= len(rec) || strings.TrimSpace(rec[i]) == "" {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("csv line %d: %s: %w", line, header[i], err)
			}
			set(&s, v)
		}
		samples = append(samples, s)
	}

	if !hasCumulative {
		FillCumulative(samples)
	}
	if err := Validate(samples); err != nil {
		return nil, err
	}
	return samples, nil
}

// FillCumulative overwrites the cumulative fields with running totals.
func FillCumulative(samples []model.Sample) {
	var a, r, e float64
	for i := range samples {
		a += samples[i].Active
		r += samples[i].Recovered
		e += samples[i].Escalated
		samples[i].CumulativeActive = a
		samples[i].CumulativeRecovered = r
		samples[i].CumulativeEscalated = e
	}
}
