// Package pipeline owns a sample store and memoises render frames by
// input fingerprint, recording what it does in Prometheus metrics.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"sgc-analytics/internal/alert"
	"sgc-analytics/internal/indicator"
	"sgc-analytics/internal/metrics"
	"sgc-analytics/internal/model"
	"sgc-analytics/internal/render"
	"sgc-analytics/internal/samplestore"
	"sgc-analytics/internal/viewport"
)

// DefaultCacheSize is the number of frames kept.
const DefaultCacheSize = 32

// Config sizes the pipeline.
type Config struct {
	Retention int
	CacheSize int
}

// Pipeline feeds samples into a store and serves render frames for it.
// Safe for concurrent use.
type Pipeline struct {
	store   *samplestore.Store
	frames  *lru.Cache[uint64, render.Frame]
	metrics *metrics.Metrics
}

// New builds a pipeline. m may be nil.
func New(cfg Config, m *metrics.Metrics) (*Pipeline, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[uint64, render.Frame](size)
	if err != nil {
		return nil, fmt.Errorf("pipeline cache: %w", err)
	}
	return &Pipeline{
		store:   samplestore.New(cfg.Retention),
		frames:  cache,
		metrics: m,
	}, nil
}

// Store returns the underlying sample store.
func (p *Pipeline) Store() *samplestore.Store { return p.store }

// Append adds samples in order. A non-increasing sample stops the batch;
// samples before it stay appended.
func (p *Pipeline) Append(samples ...model.Sample) (appended int, err error) {
	for _, s := range samples {
		evicted, err := p.store.Append(s)
		if err != nil {
			if p.metrics != nil && errors.Is(err, samplestore.ErrNonMonotonic) {
				p.metrics.SamplesRejected.Inc()
			}
			return appended, err
		}
		appended++
		if p.metrics != nil {
			p.metrics.SamplesAppended.Inc()
			if evicted {
				p.metrics.SamplesEvicted.Inc()
			}
		}
	}
	return appended, nil
}

// Recompute returns the frame for the current samples under s and vs.
// Frames are shared between callers and must not be modified.
func (p *Pipeline) Recompute(s render.Settings, vs viewport.State) render.Frame {
	samples := p.store.Snapshot()
	key := render.Fingerprint(samples, s, vs)

	if f, ok := p.frames.Get(key); ok {
		if p.metrics != nil {
			p.metrics.CacheHits.Inc()
		}
		return f
	}

	start := time.Now()
	f := render.Build(samples, s, vs)
	p.frames.Add(key, f)

	if p.metrics != nil {
		p.metrics.CacheMisses.Inc()
		p.metrics.RecomputeTotal.Inc()
		p.metrics.RecomputeDur.Observe(time.Since(start).Seconds())
		p.metrics.FrameRecords.Set(float64(len(f.Records)))
	}
	return f
}

// Report is what the newest sample triggered.
type Report struct {
	Sample     model.Sample        `json:"sample"`
	Anomalies  []indicator.Anomaly `json:"anomalies,omitempty"`
	Violations []alert.Violation   `json:"violations,omitempty"`
}

// Inspect checks the newest sample for anomalies against the retained
// window and for threshold violations in book. ok is false with no data.
func (p *Pipeline) Inspect(book *alert.Book, threshold float64) (r Report, ok bool) {
	samples := p.store.Snapshot()
	if len(samples) == 0 {
		return Report{}, false
	}
	last := len(samples) - 1
	r.Sample = samples[last]

	for _, a := range indicator.DetectAll(samples, threshold) {
		if a.Index == last {
			r.Anomalies = append(r.Anomalies, a)
		}
	}
	if book != nil {
		r.Violations = alert.Evaluate(samples[last:], book.List())
	}

	if p.metrics != nil {
		p.metrics.AnomaliesFlagged.Add(float64(len(r.Anomalies)))
		for _, v := range r.Violations {
			p.metrics.ThresholdViolations.WithLabelValues(v.AlertID).Inc()
		}
	}
	return r, true
}

// Reset drops all samples and cached frames.
func (p *Pipeline) Reset() {
	p.store.Reset()
	p.frames.Purge()
}
