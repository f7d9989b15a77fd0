package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"sgc-analytics/internal/model"
	"sgc-analytics/internal/render"
	"sgc-analytics/internal/viewport"
)

func sampleView() View {
	s := render.DefaultSettings()
	s.ShowMovingAvg10 = true
	s.ViewMode = render.ViewCumulative
	s.ReferenceValue = 4.5

	vs := viewport.Initial()
	vs.DomainX = &viewport.Domain{Min: 10, Max: 40}
	vs.YZoom = 1.21
	vs.Measuring = true
	vs.MeasurePoints = []model.MeasurePoint{{X: 12, Y: 3, Value: 3}}

	return View{Settings: s, Viewport: vs, ComparisonMode: true}
}

// ────────────────────────────────────────────────────────────
// Capture / Apply / Hash
// ────────────────────────────────────────────────────────────

func TestCaptureApply_RoundTrip(t *testing.T) {
	v := sampleView()
	got := Capture("morning", v).Apply()
	if diff := cmp.Diff(v, got); diff != "" {
		t.Errorf("view mismatch (-want +got):\n%s", diff)
	}
}

func TestCapture_DropsDragAndCopies(t *testing.T) {
	v := sampleView()
	anchor := int64(5)
	v.Viewport.DragAnchor = &anchor
	s := Capture("x", v)

	v.Viewport.DomainX.Min = 0
	v.Viewport.MeasurePoints[0].Value = 99
	if s.DomainX.Min != 10 || s.MeasurePoints[0].Value != 3 {
		t.Error("capture must not alias the live view")
	}
	if s.Apply().Viewport.Dragging() {
		t.Error("restored view must not be mid-drag")
	}
}

func TestTracker_Dirty(t *testing.T) {
	var tr Tracker
	v := sampleView()
	if tr.Dirty(v) {
		t.Error("no baseline means not dirty")
	}
	tr.Mark(v)
	if tr.Dirty(v) {
		t.Error("unchanged view should be clean")
	}
	v.Settings.ShowTrendLine = true
	if !tr.Dirty(v) {
		t.Error("toggle change should be dirty")
	}
	v.Settings.ShowTrendLine = false
	if tr.Dirty(v) {
		t.Error("reverting the change should be clean again")
	}
}

// ────────────────────────────────────────────────────────────
// Store over MemoryStore
// ────────────────────────────────────────────────────────────

func TestStore_SaveLoadListDelete(t *testing.T) {
	ctx := context.Background()
	st := NewStore(NewMemoryStore())
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	st.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first, err := st.Save(ctx, "first", sampleView())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, err := st.Save(ctx, "second", View{Settings: render.DefaultSettings(), Viewport: viewport.Initial()})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	list, err := st.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Errorf("expected newest first, got %+v", list)
	}

	loaded, err := st.Load(ctx, first.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(first, loaded); diff != "" {
		t.Errorf("loaded session mismatch (-want +got):\n%s", diff)
	}

	if err := st.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := st.Load(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := st.Delete(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestStore_SaveRequiresName(t *testing.T) {
	st := NewStore(NewMemoryStore())
	if _, err := st.Save(context.Background(), "", sampleView()); err == nil {
		t.Error("expected validation error for empty name")
	}
}

func TestDecode_OldDocumentKeepsDefaults(t *testing.T) {
	doc := []byte(`{"id":"x","name":"legacy","timestamp":"2025-01-01T00:00:00Z",
		"viewMode":"recoveryRate","chartConfig":{"showMovingAvg5":true},"measurePoints":[]}`)
	s, err := Decode(doc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	v := s.Apply()
	if !v.Settings.ShowMovingAvg5 || !v.Settings.ShowActive || v.Settings.BollingerPeriod != 20 {
		t.Errorf("expected defaults for missing keys, got %+v", v.Settings)
	}
	if v.Settings.ViewMode != render.ViewRecoveryRate {
		t.Errorf("expected view mode from document, got %s", v.Settings.ViewMode)
	}
	if v.Viewport.YZoom != 1 || v.Viewport.DomainX != nil {
		t.Errorf("missing viewport should restore initial state, got %+v", v.Viewport)
	}
}

func TestDecode_RejectsNewerVersion(t *testing.T) {
	if _, err := Decode([]byte(`{"version":99}`)); err == nil {
		t.Error("expected error for unsupported version")
	}
}

type opRecorder struct{ ops []string }

func (r *opRecorder) ObserveSessionOp(backend, op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.ops = append(r.ops, backend+"/"+op+"/"+result)
}

func TestInstrumented_ObservesEveryCall(t *testing.T) {
	ctx := context.Background()
	rec := &opRecorder{}
	st := NewStore(Instrument(NewMemoryStore(), "memory", rec))

	sess, err := st.Save(ctx, "watched", sampleView())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := st.List(ctx); err != nil {
		t.Fatalf("List: %v", err)
	}
	if _, err := st.Load(ctx, sess.ID); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := st.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := st.Load(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	want := []string{
		"memory/save/ok",
		"memory/list/ok",
		"memory/load/ok",
		"memory/delete/ok",
		"memory/load/error",
	}
	if diff := cmp.Diff(want, rec.ops); diff != "" {
		t.Errorf("observed ops mismatch (-want +got):\n%s", diff)
	}
}
