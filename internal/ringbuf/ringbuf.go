// Package ringbuf provides a bounded retention ring for model.Sample.
// When full, Push overwrites the oldest sample and counts the eviction,
// which gives the "keep last N" behaviour the sample feed relies on.
// A Ring is not safe for concurrent use; callers hold their own lock.
package ringbuf

import "sgc-analytics/internal/model"

// Ring keeps at most limit samples in insertion order.
// Storage is a power of two so indexing is a bitwise mask.
type Ring struct {
	buf   []model.Sample
	mask  uint64
	limit uint64

	head uint64 // next write position
	tail uint64 // oldest retained position

	evicted uint64
}

// New creates a ring retaining up to limit samples. Minimum limit is 1.
func New(limit int) *Ring {
	if limit < 1 {
		limit = 1
	}
	size := nextPow2(limit)
	return &Ring{
		buf:   make([]model.Sample, size),
		mask:  uint64(size - 1),
		limit: uint64(limit),
	}
}

// Push appends s. Returns true if the oldest sample was evicted to make room.
func (r *Ring) Push(s model.Sample) bool {
	dropped := false
	if r.head-r.tail >= r.limit {
		r.tail++
		r.evicted++
		dropped = true
	}
	r.buf[r.head&r.mask] = s
	r.head++
	return dropped
}

// Last returns the most recently pushed sample.
func (r *Ring) Last() (model.Sample, bool) {
	if r.head == r.tail {
		return model.Sample{}, false
	}
	return r.buf[(r.head-1)&r.mask], true
}

// First returns the oldest retained sample.
func (r *Ring) First() (model.Sample, bool) {
	if r.head == r.tail {
		return model.Sample{}, false
	}
	return r.buf[r.tail&r.mask], true
}

// Snapshot copies the retained samples, oldest first.
func (r *Ring) Snapshot() []model.Sample {
	out := make([]model.Sample, 0, r.head-r.tail)
	for i := r.tail; i < r.head; i++ {
		out = append(out, r.buf[i&r.mask])
	}
	return out
}

// Reset drops all retained samples. The eviction counter is kept.
func (r *Ring) Reset() {
	r.head, r.tail = 0, 0
}

// Len returns the number of retained samples.
func (r *Ring) Len() int {
	return int(r.head - r.tail)
}

// Cap returns the retention limit.
func (r *Ring) Cap() int {
	return int(r.limit)
}

// Evicted returns the total number of samples overwritten since creation.
func (r *Ring) Evicted() uint64 {
	return r.evicted
}

// nextPow2 returns the smallest power of 2 >= n.
func nextPow2(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
