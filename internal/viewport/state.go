// Package viewport is the interactive state machine behind every chart:
// the visible X domain, Y zoom factor, drag-selection and two-point
// measurement. Transitions are pure; the host owns the event loop.
package viewport

import "sgc-analytics/internal/model"

// Zoom limits.
const (
	MinZoomWidth = 5    // narrowest X domain, in time units
	ZoomStepPct  = 0.05 // X wheel step as a fraction of the current range
	MinYZoom     = 0.5
	MaxYZoom     = 5.0
	YZoomIn      = 1.1
	YZoomOut     = 0.9
)

// Domain is an inclusive X range.
type Domain struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// Width returns Max - Min.
func (d Domain) Width() int64 { return d.Max - d.Min }

// Contains reports whether t lies inside d.
func (d Domain) Contains(t int64) bool { return t >= d.Min && t <= d.Max }

// Bounds are the natural X bounds of the data. OK is false when there is no data.
type Bounds struct {
	Min int64
	Max int64
	OK  bool
}

// BoundsOf returns the first and last sample times.
func BoundsOf(samples []model.Sample) Bounds {
	if len(samples) == 0 {
		return Bounds{}
	}
	return Bounds{Min: samples[0].Time, Max: samples[len(samples)-1].Time, OK: true}
}

// State is one viewport. DomainX nil means the full data range.
// Values are never mutated in place: every transition returns a new State.
type State struct {
	DomainX       *Domain              `json:"domainX"`
	YZoom         float64              `json:"yZoomLevel"`
	DragAnchor    *int64               `json:"dragAnchor"`
	DragCurrent   *int64               `json:"dragCurrent,omitempty"`
	Measuring     bool                 `json:"measuring"`
	MeasurePoints []model.MeasurePoint `json:"measurePoints"`
}

// Initial returns the unzoomed state.
func Initial() State {
	return State{YZoom: 1}
}

// IsZoomed reports whether the viewport differs from the full view.
func (s State) IsZoomed() bool {
	return s.DomainX != nil || s.YZoom != 1
}

// Effective resolves DomainX against the data bounds.
func (s State) Effective(b Bounds) (Domain, bool) {
	if s.DomainX != nil {
		return *s.DomainX, true
	}
	if !b.OK {
		return Domain{}, false
	}
	return Domain{Min: b.Min, Max: b.Max}, true
}

// Dragging reports whether a drag-selection is in progress.
func (s State) Dragging() bool { return s.DragAnchor != nil }

// Selection returns the provisional drag range, normalized.
func (s State) Selection() (Domain, bool) {
	if s.DragAnchor == nil || s.DragCurrent == nil {
		return Domain{}, false
	}
	return normalize(*s.DragAnchor, *s.DragCurrent), true
}

func normalize(a, b int64) Domain {
	if a > b {
		a, b = b, a
	}
	return Domain{Min: a, Max: b}
}

func ptr[T any](v T) *T { return &v }
