package render

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"sgc-analytics/internal/model"
	"sgc-analytics/internal/viewport"
)

// Fingerprint is a content hash of everything Build reads. Equal inputs give
// equal fingerprints, so hosts can key a cache on it.
func Fingerprint(samples []model.Sample, s Settings, vs viewport.State) uint64 {
	d := xxhash.New()
	var buf [8]byte

	putInt := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		d.Write(buf[:])
	}
	putFloat := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		d.Write(buf[:])
	}

	putInt(int64(len(samples)))
	for _, smp := range samples {
		putInt(smp.Time)
		putFloat(smp.Active)
		putFloat(smp.Recovered)
		putFloat(smp.Escalated)
		putFloat(smp.CumulativeActive)
		putFloat(smp.CumulativeRecovered)
		putFloat(smp.CumulativeEscalated)
	}

	putBool := func(v bool) {
		if v {
			putInt(1)
		} else {
			putInt(0)
		}
	}
	putString := func(v string) {
		putInt(int64(len(v)))
		d.WriteString(v)
	}

	for _, on := range []bool{
		s.ShowActive, s.ShowRecovered, s.ShowEscalated,
		s.ShowMovingAvg5, s.ShowMovingAvg10, s.ShowMovingAvg20,
		s.ShowTrendLine, s.ShowPeakValley, s.ShowCrosshair,
		s.ShowReferenceLine, s.NormalizeView, s.ShowBollingerBands,
		s.ShowRSI, s.ShowMACD, s.ShowAnomalies,
		s.ShowForecast, s.ShowConfidenceInterval,
	} {
		putBool(on)
	}
	putFloat(s.ReferenceValue)
	putString(string(s.ViewMode))
	putString(string(s.Range))
	putInt(int64(s.BollingerPeriod))
	putFloat(s.BollingerStdDev)
	putInt(int64(s.RSIPeriod))
	putFloat(s.AnomalyThreshold)
	putInt(int64(s.ForecastPeriods))
	putFloat(s.ForecastConfidence)

	if vs.DomainX != nil {
		putInt(1)
		putInt(vs.DomainX.Min)
		putInt(vs.DomainX.Max)
	} else {
		putInt(0)
	}
	putFloat(vs.YZoom)
	return d.Sum64()
}
