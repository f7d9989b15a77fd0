// Package samplestore holds the ordered, append-only sample sequence every
// chart reads from, plus the windowing helpers applied before indicators run.
package samplestore

import (
	"errors"
	"fmt"
	"sync"

	"sgc-analytics/internal/model"
	"sgc-analytics/internal/ringbuf"
)

// DefaultRetention is the number of samples the dashboard feed keeps.
const DefaultRetention = 200

// ErrNonMonotonic is returned when a sample's time does not strictly
// increase over the last stored sample.
var ErrNonMonotonic = errors.New("sample time not strictly increasing")

// Store is a bounded, strictly time-ordered sample sequence.
// Safe for concurrent use: one feed appends while renderers snapshot.
type Store struct {
	mu   sync.RWMutex
	ring *ringbuf.Ring
}

// New creates a store retaining the last retention samples.
func New(retention int) *Store {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Store{ring: ringbuf.New(retention)}
}

// Append adds s. Returns true if the oldest sample was evicted.
func (st *Store) Append(s model.Sample) (bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if last, ok := st.ring.Last(); ok && s.Time <= last.Time {
		return false, fmt.Errorf("append t=%d after t=%d: %w", s.Time, last.Time, ErrNonMonotonic)
	}
	return st.ring.Push(s), nil
}

// AppendBatch appends samples in order and stops at the first rejected one.
// Returns the number of samples evicted along the way.
func (st *Store) AppendBatch(samples []model.Sample) (int, error) {
	evicted := 0
	for _, s := range samples {
		dropped, err := st.Append(s)
		if err != nil {
			return evicted, err
		}
		if dropped {
			evicted++
		}
	}
	return evicted, nil
}

// Snapshot returns a copy of the retained samples, oldest first.
func (st *Store) Snapshot() []model.Sample {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.ring.Snapshot()
}

// Last returns the newest sample.
func (st *Store) Last() (model.Sample, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.ring.Last()
}

// Bounds returns the first and last retained times.
func (st *Store) Bounds() (lo, hi int64, ok bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	first, ok := st.ring.First()
	if !ok {
		return 0, 0, false
	}
	last, _ := st.ring.Last()
	return first.Time, last.Time, true
}

// Len returns the number of retained samples.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.ring.Len()
}

// Evicted returns how many samples retention has dropped so far.
func (st *Store) Evicted() uint64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.ring.Evicted()
}

// Reset clears the store.
func (st *Store) Reset() {
	st.mu.Lock()
	st.ring.Reset()
	st.mu.Unlock()
}
