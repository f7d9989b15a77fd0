package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"sgc-analytics/internal/logger"
	"sgc-analytics/internal/model"
	"sgc-analytics/internal/render"
	"sgc-analytics/internal/validate"
)

// Store saves and loads sessions through a model.SessionStore port.
type Store struct {
	port model.SessionStore
	now  func() time.Time
}

// NewStore wraps port.
func NewStore(port model.SessionStore) *Store {
	return &Store{port: port, now: time.Now}
}

// Save captures v under name with a new ID and persists it.
func (s *Store) Save(ctx context.Context, name string, v View) (Session, error) {
	sess := Capture(name, v)
	sess.ID = uuid.NewString()
	sess.SavedAt = s.now().UTC()
	if err := validate.Struct(sess); err != nil {
		return Session{}, err
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return Session{}, fmt.Errorf("session: encode: %w", err)
	}
	if err := s.port.SaveSessionJSON(ctx, sess.Meta(), data); err != nil {
		return Session{}, fmt.Errorf("session: save %s: %w", sess.ID, err)
	}
	slog.Debug("session saved",
		append(logger.LogWithSession(ctx), "id", sess.ID, "name", sess.Name)...)
	return sess, nil
}

// Load fetches and decodes a session. Settings missing from older
// documents keep their defaults.
func (s *Store) Load(ctx context.Context, id string) (Session, error) {
	data, err := s.port.LoadSessionJSON(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return Session{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		return Session{}, fmt.Errorf("session: load %s: %w", id, err)
	}
	return Decode(data)
}

// Decode parses a stored session document.
func Decode(data []byte) (Session, error) {
	sess := Session{Settings: render.DefaultSettings()}
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, fmt.Errorf("session: decode: %w", err)
	}
	if sess.Version > SchemaVersion {
		return Session{}, fmt.Errorf("session: unsupported version %d", sess.Version)
	}
	if err := sess.Settings.Validate(); err != nil {
		return Session{}, fmt.Errorf("session %s: %w", sess.ID, err)
	}
	return sess, nil
}

// List returns saved sessions, newest first.
func (s *Store) List(ctx context.Context) ([]model.SessionMeta, error) {
	metas, err := s.port.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("session: list: %w", err)
	}
	return metas, nil
}

// Delete removes a saved session.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.port.DeleteSession(ctx, id); err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("session: delete %s: %w", id, err)
	}
	return nil
}
