// Package replay reads archived samples and emits them at a configurable
// speed, so a recorded feed can drive the pipeline like a live one.
package replay

import (
	"context"
	"log/slog"
	"time"

	"sgc-analytics/internal/model"
)

const (
	// DefaultTimeUnit is the wall-clock length of one sample time unit at 1x.
	DefaultTimeUnit = time.Second
	// MaxGap caps a single simulated wait.
	MaxGap = 5 * time.Second
)

// Source is the read side of a sample archive.
type Source interface {
	ReadSamples(ctx context.Context, afterTime int64) ([]model.Sample, error)
}

// Replayer replays archived samples at a speed multiplier.
type Replayer struct {
	source   Source
	timeUnit time.Duration
	after    func(time.Duration) <-chan time.Time
}

// New creates a Replayer reading from source.
func New(source Source) *Replayer {
	return &Replayer{source: source, timeUnit: DefaultTimeUnit, after: time.After}
}

// WithTimeUnit sets the wall-clock length of one time unit at 1x.
func (r *Replayer) WithTimeUnit(d time.Duration) *Replayer {
	if d > 0 {
		r.timeUnit = d
	}
	return r
}

// Run emits every sample with Time > fromTime into outCh, in time order.
// speed controls the playback rate: 1.0 = real-time, 10.0 = 10x, 0 = as fast as possible.
// Returns the number of samples emitted.
func (r *Replayer) Run(ctx context.Context, fromTime int64, speed float64, outCh chan<- model.Sample) (int, error) {
	samples, err := r.source.ReadSamples(ctx, fromTime)
	if err != nil {
		return 0, err
	}
	if len(samples) == 0 {
		slog.Info("replay: no samples found", "from", fromTime)
		return 0, nil
	}

	slog.Info("replay: starting", "samples", len(samples), "speed", speed)

	emitted := 0
	for i, s := range samples {
		// Simulate time gaps between samples
		if speed > 0 && i > 0 {
			if gap := r.Gap(samples[i-1].Time, s.Time, speed); gap > 0 {
				select {
				case <-ctx.Done():
					return emitted, ctx.Err()
				case <-r.after(gap):
				}
			}
		}

		select {
		case <-ctx.Done():
			slog.Info("replay: cancelled", "emitted", emitted)
			return emitted, ctx.Err()
		case outCh <- s:
			emitted++
		}
	}

	slog.Info("replay: completed", "emitted", emitted)
	return emitted, nil
}

// Gap is the wall-clock wait between two sample times at speed, capped at
// MaxGap. Non-positive speed means no wait.
func (r *Replayer) Gap(prev, next int64, speed float64) time.Duration {
	if speed <= 0 || next <= prev {
		return 0
	}
	gap := time.Duration(float64(time.Duration(next-prev)*r.timeUnit) / speed)
	// Cap max sleep to avoid very long waits
	if gap > MaxGap {
		gap = MaxGap
	}
	return gap
}
