package viewport

import "sgc-analytics/internal/model"

// Event is a discrete user gesture.
type Event interface{ isEvent() }

// ZoomWheel is one wheel tick. Direction > 0 zooms out, < 0 zooms in.
// Shift switches the wheel to the Y axis.
type ZoomWheel struct {
	Direction int
	Shift     bool
}

// DragStart anchors a drag-selection at X.
type DragStart struct{ X int64 }

// DragMove updates the provisional right bound.
type DragMove struct{ X int64 }

// DragEnd commits the selection.
type DragEnd struct{}

// MeasureClick records a measurement point.
type MeasureClick struct{ Point model.MeasurePoint }

// SetMeasuring enters or exits measuring mode.
type SetMeasuring struct{ On bool }

// Reset returns to the initial state.
type Reset struct{}

func (ZoomWheel) isEvent()    {}
func (DragStart) isEvent()    {}
func (DragMove) isEvent()     {}
func (DragEnd) isEvent()      {}
func (MeasureClick) isEvent() {}
func (SetMeasuring) isEvent() {}
func (Reset) isEvent()        {}
