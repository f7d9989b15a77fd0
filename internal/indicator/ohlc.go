package indicator

import (
	"math"

	"sgc-analytics/internal/model"
)

// OHLC is one candlestick bucket of a metric.
type OHLC struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"` // sum of values in the bucket
}

// Aggregate groups consecutive samples into buckets of bucketSize points.
// The last bucket may be short. Bucket sizes < 1 are treated as 1.
func Aggregate(samples []model.Sample, metric model.Metric, bucketSize int) []OHLC {
	if bucketSize < 1 {
		bucketSize = 1
	}
	out := make([]OHLC, 0, (len(samples)+bucketSize-1)/bucketSize)
	for start := 0; start < len(samples); start += bucketSize {
		end := start + bucketSize
		if end > len(samples) {
			end = len(samples)
		}
		bucket := samples[start:end]

		c := OHLC{
			Time:  bucket[0].Time,
			Open:  metric.Of(bucket[0]),
			Close: metric.Of(bucket[len(bucket)-1]),
			High:  math.Inf(-1),
			Low:   math.Inf(1),
		}
		for _, s := range bucket {
			v := metric.Of(s)
			c.High = math.Max(c.High, v)
			c.Low = math.Min(c.Low, v)
			c.Volume += v
		}
		out = append(out, c)
	}
	return out
}
