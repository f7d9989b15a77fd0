package samplestore

import (
	"fmt"
	"sort"

	"sgc-analytics/internal/model"
)

// RangeFilter selects a tail of the sample sequence.
type RangeFilter string

const (
	RangeAll     RangeFilter = "all"
	RangeLast50  RangeFilter = "last50"
	RangeLast100 RangeFilter = "last100"
)

// ParseRange parses a range filter name. Empty means RangeAll.
func ParseRange(s string) (RangeFilter, error) {
	switch RangeFilter(s) {
	case "", RangeAll:
		return RangeAll, nil
	case RangeLast50, RangeLast100:
		return RangeFilter(s), nil
	}
	return "", fmt.Errorf("unknown range filter %q", s)
}

// Apply returns the tail selected by f. The result aliases samples.
func (f RangeFilter) Apply(samples []model.Sample) []model.Sample {
	n := 0
	switch f {
	case RangeLast50:
		n = 50
	case RangeLast100:
		n = 100
	default:
		return samples
	}
	if len(samples) <= n {
		return samples
	}
	return samples[len(samples)-n:]
}

// Window returns samples with lo <= Time <= hi. Inverted bounds are swapped.
// The result aliases samples.
func Window(samples []model.Sample, lo, hi int64) []model.Sample {
	if lo > hi {
		lo, hi = hi, lo
	}
	start := sort.Search(len(samples), func(i int) bool { return samples[i].Time >= lo })
	end := sort.Search(len(samples), func(i int) bool { return samples[i].Time > hi })
	return samples[start:end]
}

// Playback returns the prefix up to and including index idx, the way a
// scrubbed replay shows the series "so far". idx < 0 yields nothing and
// idx past the end yields everything.
func Playback(samples []model.Sample, idx int) []model.Sample {
	if idx < 0 {
		return samples[:0]
	}
	if idx >= len(samples) {
		return samples
	}
	return samples[:idx+1]
}

// Validate checks that times strictly increase.
func Validate(samples []model.Sample) error {
	for i := 1; i < len(samples); i++ {
		if samples[i].Time <= samples[i-1].Time {
			return fmt.Errorf("sample %d: t=%d after t=%d: %w", i, samples[i].Time, samples[i-1].Time, ErrNonMonotonic)
		}
	}
	return nil
}
