package viewport

import (
	"math"

	"sgc-analytics/internal/model"
)

// Reduce applies ev to s against the data bounds b and returns the next
// state. Unknown events and gestures that do not apply leave s unchanged.
func Reduce(s State, b Bounds, ev Event) State {
	switch e := ev.(type) {
	case ZoomWheel:
		if e.Shift {
			return zoomY(s, b, e.Direction)
		}
		return zoomX(s, b, e.Direction)
	case DragStart:
		if s.Measuring {
			return s
		}
		s.DragAnchor = ptr(e.X)
		s.DragCurrent = nil
		return s
	case DragMove:
		if s.Measuring || s.DragAnchor == nil {
			return s
		}
		s.DragCurrent = ptr(e.X)
		return s
	case DragEnd:
		return endDrag(s)
	case MeasureClick:
		return measureClick(s, e.Point)
	case SetMeasuring:
		if e.On == s.Measuring {
			return s
		}
		s.Measuring = e.On
		s.DragAnchor, s.DragCurrent = nil, nil
		if !e.On {
			s.MeasurePoints = nil
		}
		return s
	case Reset:
		return Initial()
	}
	return s
}

func zoomX(s State, b Bounds, direction int) State {
	if !b.OK || direction == 0 {
		return s
	}
	cur := clip(s.DomainX, b)
	if cur == nil {
		s.DomainX = nil
		cur = &Domain{Min: b.Min, Max: b.Max}
	}
	width := cur.Width()
	step := int64(math.Max(1, math.Round(float64(width)*ZoomStepPct)))

	if direction > 0 {
		next := Domain{Min: max(cur.Min-step, b.Min), Max: min(cur.Max+step, b.Max)}
		if next.Min <= b.Min && next.Max >= b.Max {
			s.DomainX = nil
		} else {
			s.DomainX = &next
		}
		return s
	}

	if width <= MinZoomWidth {
		return s
	}
	if width-2*step < MinZoomWidth {
		step = (width - MinZoomWidth) / 2
	}
	if step <= 0 {
		return s
	}
	s.DomainX = &Domain{Min: cur.Min + step, Max: cur.Max - step}
	return s
}

// clip intersects d with the data bounds. It returns nil when d is unset,
// when nothing of d is left, or when d covers the bounds entirely.
func clip(d *Domain, b Bounds) *Domain {
	if d == nil {
		return nil
	}
	c := Domain{Min: max(d.Min, b.Min), Max: min(d.Max, b.Max)}
	if c.Min > c.Max || (c.Min <= b.Min && c.Max >= b.Max) {
		return nil
	}
	return &c
}

func zoomY(s State, b Bounds, direction int) State {
	if !b.OK || direction == 0 {
		return s
	}
	factor := YZoomIn
	if direction > 0 {
		factor = YZoomOut
	}
	s.YZoom = math.Max(MinYZoom, math.Min(MaxYZoom, s.YZoom*factor))
	return s
}

func endDrag(s State) State {
	if s.DragAnchor == nil {
		return s
	}
	anchor, current := s.DragAnchor, s.DragCurrent
	s.DragAnchor, s.DragCurrent = nil, nil
	if current == nil || *current == *anchor {
		return s
	}
	d := normalize(*anchor, *current)
	s.DomainX = &d
	return s
}

// measureClick keeps at most two points; a click after a complete pair
// starts a new measurement.
func measureClick(s State, p model.MeasurePoint) State {
	if !s.Measuring {
		return s
	}
	if len(s.MeasurePoints) >= 2 {
		s.MeasurePoints = []model.MeasurePoint{p}
		return s
	}
	pts := make([]model.MeasurePoint, len(s.MeasurePoints), 2)
	copy(pts, s.MeasurePoints)
	s.MeasurePoints = append(pts, p)
	return s
}
