package replay

import (
	"context"
	"errors"
	"testing"
	"time"

	"sgc-analytics/internal/model"
)

type sliceSource []model.Sample

func (s sliceSource) ReadSamples(_ context.Context, after int64) ([]model.Sample, error) {
	var out []model.Sample
	for _, x := range s {
		if x.Time > after {
			out = append(out, x)
		}
	}
	return out, nil
}

func samples(times ...int64) sliceSource {
	out := make(sliceSource, len(times))
	for i, t := range times {
		out[i] = model.Sample{Time: t, Active: float64(i)}
	}
	return out
}

func TestReplayer_EmitsInOrderWithScaledGaps(t *testing.T) {
	r := New(samples(1, 2, 4, 100))
	var waits []time.Duration
	r.after = func(d time.Duration) <-chan time.Time {
		waits = append(waits, d)
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}

	out := make(chan model.Sample, 10)
	n, err := r.Run(context.Background(), 0, 2, out)
	if err != nil || n != 4 {
		t.Fatalf("Run = %d, %v", n, err)
	}
	close(out)

	var got []int64
	for s := range out {
		got = append(got, s.Time)
	}
	if len(got) != 4 || got[0] != 1 || got[3] != 100 {
		t.Errorf("unexpected order: %v", got)
	}

	want := []time.Duration{500 * time.Millisecond, time.Second, MaxGap}
	if len(waits) != len(want) {
		t.Fatalf("expected %d waits, got %v", len(want), waits)
	}
	for i := range want {
		if waits[i] != want[i] {
			t.Errorf("wait %d: got %v, want %v", i, waits[i], want[i])
		}
	}
}

func TestReplayer_FromTimeAndMaxSpeed(t *testing.T) {
	r := New(samples(1, 2, 3, 4))
	r.after = func(time.Duration) <-chan time.Time {
		t.Fatal("speed 0 must not wait")
		return nil
	}
	out := make(chan model.Sample, 10)
	n, err := r.Run(context.Background(), 2, 0, out)
	if err != nil || n != 2 {
		t.Errorf("expected 2 samples after t=2, got %d, %v", n, err)
	}
}

func TestReplayer_Cancelled(t *testing.T) {
	r := New(samples(1, 2, 3))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan model.Sample) // unbuffered, nobody reading
	if _, err := r.Run(ctx, 0, 0, out); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestGap_TimeUnit(t *testing.T) {
	r := New(nil).WithTimeUnit(100 * time.Millisecond)
	if got := r.Gap(0, 3, 1); got != 300*time.Millisecond {
		t.Errorf("got %v, want 300ms", got)
	}
	if got := r.Gap(5, 5, 1); got != 0 {
		t.Errorf("equal times should not wait, got %v", got)
	}
}
