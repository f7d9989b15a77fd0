package viewport

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"sgc-analytics/internal/model"
)

// ────────────────────────────────────────────────────────────
// Helper
// ────────────────────────────────────────────────────────────

var full = Bounds{Min: 0, Max: 100, OK: true}

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f)", label, got, want, tol)
	}
}

func assertDomain(t *testing.T, label string, s State, want *Domain) {
	t.Helper()
	if diff := cmp.Diff(want, s.DomainX); diff != "" {
		t.Errorf("%s: domain mismatch (-want +got):\n%s", label, diff)
	}
}

func apply(s State, b Bounds, evs ...Event) State {
	for _, ev := range evs {
		s = Reduce(s, b, ev)
	}
	return s
}

// ────────────────────────────────────────────────────────────
// Wheel zoom (X)
// ────────────────────────────────────────────────────────────

func TestZoomX_InSymmetricSteps(t *testing.T) {
	s := Reduce(Initial(), full, ZoomWheel{Direction: -1})
	assertDomain(t, "first tick", s, &Domain{Min: 5, Max: 95})

	// width 90 -> step round(4.5) = 5
	s = Reduce(s, full, ZoomWheel{Direction: -1})
	assertDomain(t, "second tick", s, &Domain{Min: 10, Max: 90})
}

func TestZoomX_NeverNarrowerThanFloor(t *testing.T) {
	s := Initial()
	for i := 0; i < 200; i++ {
		s = Reduce(s, full, ZoomWheel{Direction: -1})
		d, _ := s.Effective(full)
		if d.Width() < MinZoomWidth {
			t.Fatalf("tick %d: width %d below floor", i, d.Width())
		}
	}

	small := Bounds{Min: 0, Max: 10, OK: true}
	s = apply(Initial(), small, ZoomWheel{Direction: -1}, ZoomWheel{Direction: -1})
	assertDomain(t, "two ticks on width 10", s, &Domain{Min: 2, Max: 8})

	// width 6: a full step would leave 4, so the tick is refused
	s = Reduce(s, small, ZoomWheel{Direction: -1})
	assertDomain(t, "refused tick", s, &Domain{Min: 2, Max: 8})
}

func TestZoomX_OutSnapsToFullRange(t *testing.T) {
	s := State{YZoom: 1, DomainX: &Domain{Min: 5, Max: 95}}
	s = Reduce(s, full, ZoomWheel{Direction: 1})
	if s.DomainX != nil {
		t.Fatalf("zooming past both bounds should reset to nil, got %+v", *s.DomainX)
	}

	s = State{YZoom: 1, DomainX: &Domain{Min: 0, Max: 50}}
	s = Reduce(s, full, ZoomWheel{Direction: 1})
	assertDomain(t, "clamped one side", s, &Domain{Min: 0, Max: 53})
}

func TestZoomX_StaleDomainClippedToBounds(t *testing.T) {
	moved := Bounds{Min: 50, Max: 250, OK: true}

	// saved window lies entirely before the retained data
	s := Reduce(State{YZoom: 1, DomainX: &Domain{Min: 0, Max: 10}}, moved, ZoomWheel{Direction: 1})
	if s.DomainX != nil {
		t.Fatalf("disjoint window should reset to nil on zoom-out, got %+v", *s.DomainX)
	}
	s = Reduce(s, moved, ZoomWheel{Direction: -1})
	assertDomain(t, "zoom-in after reset", s, &Domain{Min: 60, Max: 240})

	s = Reduce(State{YZoom: 1, DomainX: &Domain{Min: 0, Max: 10}}, moved, ZoomWheel{Direction: -1})
	assertDomain(t, "zoom-in from disjoint window", s, &Domain{Min: 60, Max: 240})

	// partial overlap keeps only the retained part; width 70 -> step 4
	s = Reduce(State{YZoom: 1, DomainX: &Domain{Min: 40, Max: 120}}, moved, ZoomWheel{Direction: -1})
	assertDomain(t, "partial overlap zoom-in", s, &Domain{Min: 54, Max: 116})
	s = Reduce(State{YZoom: 1, DomainX: &Domain{Min: 40, Max: 120}}, moved, ZoomWheel{Direction: 1})
	assertDomain(t, "partial overlap zoom-out", s, &Domain{Min: 50, Max: 124})
}

func TestZoom_EmptyDataIsNoop(t *testing.T) {
	s := apply(Initial(), Bounds{}, ZoomWheel{Direction: -1}, ZoomWheel{Direction: 1, Shift: true})
	if s.IsZoomed() {
		t.Fatalf("zoom on empty data must be a no-op, got %+v", s)
	}
}

// ────────────────────────────────────────────────────────────
// Wheel zoom (Y)
// ────────────────────────────────────────────────────────────

func TestZoomY_MultiplicativeAndClamped(t *testing.T) {
	s := Reduce(Initial(), full, ZoomWheel{Direction: -1, Shift: true})
	assertClose(t, "one tick in", s.YZoom, 1.1, 1e-12)
	if s.DomainX != nil {
		t.Fatal("shift wheel must not touch the X domain")
	}

	for i := 0; i < 50; i++ {
		s = Reduce(s, full, ZoomWheel{Direction: -1, Shift: true})
	}
	assertClose(t, "clamped max", s.YZoom, MaxYZoom, 0)

	for i := 0; i < 50; i++ {
		s = Reduce(s, full, ZoomWheel{Direction: 1, Shift: true})
	}
	assertClose(t, "clamped min", s.YZoom, MinYZoom, 0)
}

// ────────────────────────────────────────────────────────────
// Drag-select
// ────────────────────────────────────────────────────────────

func TestDrag_CommitsNormalizedRange(t *testing.T) {
	s := apply(Initial(), full, DragStart{X: 30}, DragMove{X: 10})
	if sel, ok := s.Selection(); !ok || sel != (Domain{Min: 10, Max: 30}) {
		t.Fatalf("provisional selection: got %+v ok=%v", sel, ok)
	}

	s = Reduce(s, full, DragEnd{})
	assertDomain(t, "inverted drag", s, &Domain{Min: 10, Max: 30})
	if s.Dragging() {
		t.Error("drag should be cleared after release")
	}
}

func TestDrag_EqualBoundsIsNoop(t *testing.T) {
	s := apply(Initial(), full, DragStart{X: 5}, DragMove{X: 5}, DragEnd{})
	assertDomain(t, "zero-width drag", s, nil)

	s = apply(Initial(), full, DragStart{X: 5}, DragEnd{})
	assertDomain(t, "click without move", s, nil)
	if s.Dragging() {
		t.Error("drag should be cleared")
	}

	s = apply(Initial(), full, DragMove{X: 40}, DragEnd{})
	assertDomain(t, "move without anchor", s, nil)
}

func TestDrag_IgnoredWhileMeasuring(t *testing.T) {
	s := apply(Initial(), full, SetMeasuring{On: true}, DragStart{X: 1}, DragMove{X: 50}, DragEnd{})
	assertDomain(t, "measuring drag", s, nil)
}

// ────────────────────────────────────────────────────────────
// Measurement
// ────────────────────────────────────────────────────────────

func TestMeasure_ThirdClickRestarts(t *testing.T) {
	s := apply(Initial(), full,
		SetMeasuring{On: true},
		MeasureClick{Point: model.MeasurePoint{X: 1, Y: 10, Value: 10}},
		MeasureClick{Point: model.MeasurePoint{X: 5, Y: 20, Value: 20}},
	)
	seg, ok := Measure(s)
	if !ok {
		t.Fatal("two points should freeze a segment")
	}
	if seg.DeltaTime != 4 {
		t.Errorf("delta time: got %d, want 4", seg.DeltaTime)
	}
	assertClose(t, "delta value", seg.DeltaValue, 10, 0)
	assertClose(t, "percent", seg.PercentChange, 100, 1e-12)

	s = Reduce(s, full, MeasureClick{Point: model.MeasurePoint{X: 9, Y: 30, Value: 30}})
	want := []model.MeasurePoint{{X: 9, Y: 30, Value: 30}}
	if diff := cmp.Diff(want, s.MeasurePoints); diff != "" {
		t.Errorf("third click (-want +got):\n%s", diff)
	}
	if _, ok := Measure(s); ok {
		t.Error("single point should not form a segment")
	}
}

func TestMeasure_OnlyInMeasuringMode(t *testing.T) {
	s := Reduce(Initial(), full, MeasureClick{Point: model.MeasurePoint{X: 1}})
	if len(s.MeasurePoints) != 0 {
		t.Fatalf("clicks outside measuring mode must be ignored, got %v", s.MeasurePoints)
	}

	s = apply(Initial(), full, SetMeasuring{On: true}, MeasureClick{Point: model.MeasurePoint{X: 1}}, SetMeasuring{On: false})
	if len(s.MeasurePoints) != 0 || s.Measuring {
		t.Fatalf("exiting measuring mode should clear points, got %+v", s)
	}
}

func TestMeasure_ZeroStartValue(t *testing.T) {
	s := State{MeasurePoints: []model.MeasurePoint{{X: 0, Value: 0}, {X: 3, Value: 6}}}
	seg, _ := Measure(s)
	assertClose(t, "percent from zero", seg.PercentChange, 0, 0)
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	pts := make([]model.MeasurePoint, 1, 4)
	pts[0] = model.MeasurePoint{X: 1}
	before := State{YZoom: 1, Measuring: true, MeasurePoints: pts}

	after := Reduce(before, full, MeasureClick{Point: model.MeasurePoint{X: 2}})
	if len(before.MeasurePoints) != 1 || len(after.MeasurePoints) != 2 {
		t.Fatalf("before=%v after=%v", before.MeasurePoints, after.MeasurePoints)
	}
	if pts[:2][1].X == 2 {
		t.Error("reducer wrote into the caller's backing array")
	}
}

// ────────────────────────────────────────────────────────────
// Reset / IsZoomed
// ────────────────────────────────────────────────────────────

func TestReset_ReturnsInitial(t *testing.T) {
	s := apply(Initial(), full,
		ZoomWheel{Direction: -1},
		ZoomWheel{Direction: -1, Shift: true},
		SetMeasuring{On: true},
		MeasureClick{Point: model.MeasurePoint{X: 3}},
	)
	if !s.IsZoomed() {
		t.Fatal("expected zoomed state before reset")
	}

	s = Reduce(s, full, Reset{})
	if s.IsZoomed() || s.DomainX != nil {
		t.Fatalf("reset should clear zoom, got %+v", s)
	}
	if diff := cmp.Diff(Initial(), s); diff != "" {
		t.Errorf("reset state (-want +got):\n%s", diff)
	}
}

func TestController(t *testing.T) {
	c := NewController()
	var samples []model.Sample
	for i := int64(0); i <= 100; i++ {
		samples = append(samples, model.Sample{Time: i})
	}
	c.SetData(samples)

	c.Dispatch(ZoomWheel{Direction: -1})
	d, ok := c.Visible()
	if !ok || d != (Domain{Min: 5, Max: 95}) {
		t.Fatalf("visible: got %+v ok=%v", d, ok)
	}

	c.Restore(State{})
	if c.State().YZoom != 1 {
		t.Errorf("restore should default y zoom to 1, got %v", c.State().YZoom)
	}
	if c.IsZoomed() {
		t.Error("restored blank state should not be zoomed")
	}
}

// ────────────────────────────────────────────────────────────
// Y domain
// ────────────────────────────────────────────────────────────

func TestYDomain(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
		zoom   float64
		lo, hi float64
	}{
		{"empty", nil, 1, -0.5, 10.5},
		{"flat zero", []float64{0, 0}, 1, -0.5, 10.5},
		{"flat ten", []float64{10, 10}, 1, 9.45, 10.55},
		{"zoomed", []float64{0, 100}, 2, 22.5, 77.5},
		{"skips nan", []float64{math.NaN(), 0, 100, math.Inf(1)}, 1, -5, 105},
	}
	for _, tc := range cases {
		lo, hi := YDomain(tc.values, tc.zoom)
		assertClose(t, tc.name+" lo", lo, tc.lo, 1e-9)
		assertClose(t, tc.name+" hi", hi, tc.hi, 1e-9)
	}
}
