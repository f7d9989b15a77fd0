package model

import (
	"context"
	"errors"
	"sort"
	"time"
)

// ── Storage Port Interfaces ──
// These interfaces decouple the engine from concrete storage implementations
// (SQLite, Redis, in-memory). The engine never calls them itself; hosts inject
// them at the boundary.

// ErrSessionNotFound is returned by SessionStore implementations for unknown IDs.
var ErrSessionNotFound = errors.New("session not found")

// SampleArchive persists the sample feed for later replay.
type SampleArchive interface {
	// SaveSamples inserts samples, ignoring times that are already stored.
	SaveSamples(ctx context.Context, samples []Sample) error

	// ReadSamples returns archived samples with Time > afterTime, ascending.
	ReadSamples(ctx context.Context, afterTime int64) ([]Sample, error)

	// Close releases underlying resources.
	Close() error
}

// SessionMeta is the listing entry for a saved chart session.
type SessionMeta struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	SavedAt time.Time `json:"savedAt"`
}

// SessionStore reads and writes chart sessions as raw JSON.
// Using []byte avoids a model→session import cycle.
type SessionStore interface {
	// SaveSessionJSON creates or replaces the session with meta.ID.
	SaveSessionJSON(ctx context.Context, meta SessionMeta, data []byte) error

	// LoadSessionJSON returns the stored document or ErrSessionNotFound.
	LoadSessionJSON(ctx context.Context, id string) ([]byte, error)

	// ListSessions returns all sessions, newest first.
	ListSessions(ctx context.Context) ([]SessionMeta, error)

	// DeleteSession removes a session. Deleting an unknown ID returns ErrSessionNotFound.
	DeleteSession(ctx context.Context, id string) error
}

// SortSessionsNewestFirst orders metas by SavedAt descending, then ID.
func SortSessionsNewestFirst(metas []SessionMeta) {
	sort.Slice(metas, func(i, j int) bool {
		if !metas[i].SavedAt.Equal(metas[j].SavedAt) {
			return metas[i].SavedAt.After(metas[j].SavedAt)
		}
		return metas[i].ID < metas[j].ID
	})
}
