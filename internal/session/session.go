// Package session captures and restores chart sessions: the settings,
// viewport and measure points a user saved under a name.
package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"

	"sgc-analytics/internal/model"
	"sgc-analytics/internal/render"
	"sgc-analytics/internal/viewport"
)

// SchemaVersion is written into every saved session.
const SchemaVersion = 1

// ErrNotFound is returned when no session has the requested ID.
var ErrNotFound = model.ErrSessionNotFound

// View is the live, savable state of one chart.
type View struct {
	Settings       render.Settings
	Viewport       viewport.State
	StableMode     bool
	ComparisonMode bool
}

// Session is the persisted form of a View.
type Session struct {
	ID      string    `json:"id"`
	Name    string    `json:"name" validate:"required,max=120"`
	Version int       `json:"version"`
	SavedAt time.Time `json:"timestamp"`

	ViewMode       render.ViewMode `json:"viewMode"`
	StableMode     bool            `json:"isStableMode"`
	ComparisonMode bool            `json:"comparisonMode"`
	Settings       render.Settings `json:"chartConfig"`

	DomainX       *viewport.Domain     `json:"domainX,omitempty"`
	YZoom         float64              `json:"yZoomLevel"`
	Measuring     bool                 `json:"isMeasuring"`
	MeasurePoints []model.MeasurePoint `json:"measurePoints"`
}

// Capture snapshots v. Any drag in progress is not saved.
func Capture(name string, v View) Session {
	s := Session{
		Name:           name,
		Version:        SchemaVersion,
		ViewMode:       v.Settings.ViewMode,
		StableMode:     v.StableMode,
		ComparisonMode: v.ComparisonMode,
		Settings:       v.Settings,
		YZoom:          v.Viewport.YZoom,
		Measuring:      v.Viewport.Measuring,
		MeasurePoints:  append([]model.MeasurePoint{}, v.Viewport.MeasurePoints...),
	}
	if d := v.Viewport.DomainX; d != nil {
		dc := *d
		s.DomainX = &dc
	}
	return s
}

// Apply rebuilds the View a session was captured from.
func (s Session) Apply() View {
	settings := s.Settings
	if s.ViewMode != "" {
		settings.ViewMode = s.ViewMode
	}

	vs := viewport.Initial()
	if s.DomainX != nil {
		d := *s.DomainX
		vs.DomainX = &d
	}
	if s.YZoom > 0 {
		vs.YZoom = s.YZoom
	}
	vs.Measuring = s.Measuring
	if len(s.MeasurePoints) > 0 {
		vs.MeasurePoints = append([]model.MeasurePoint(nil), s.MeasurePoints...)
	}

	return View{
		Settings:       settings,
		Viewport:       vs,
		StableMode:     s.StableMode,
		ComparisonMode: s.ComparisonMode,
	}
}

// Meta returns the listing entry for s.
func (s Session) Meta() model.SessionMeta {
	return model.SessionMeta{ID: s.ID, Name: s.Name, SavedAt: s.SavedAt}
}

// Hash fingerprints the savable parts of v. Identity fields are excluded
// so a freshly loaded session hashes the same as the view it restores.
func Hash(v View) uint64 {
	snap := Capture("", v)
	b, err := json.Marshal(snap)
	if err != nil {
		// NaN or Inf in a numeric setting
		return xxhash.Sum64String(fmt.Sprintf("%+v", snap))
	}
	return xxhash.Sum64(b)
}

// Tracker detects unsaved changes against the last saved or loaded view.
type Tracker struct {
	last uint64
	set  bool
}

// Mark records v as the saved baseline.
func (t *Tracker) Mark(v View) {
	t.last = Hash(v)
	t.set = true
}

// Dirty reports whether v differs from the baseline. Without a baseline
// nothing is dirty.
func (t *Tracker) Dirty(v View) bool {
	return t.set && Hash(v) != t.last
}
