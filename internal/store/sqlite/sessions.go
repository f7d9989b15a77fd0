package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sgc-analytics/internal/model"
)

// SaveSessionJSON creates or replaces a session document.
func (w *Writer) SaveSessionJSON(ctx context.Context, meta model.SessionMeta, data []byte) error {
	_, err := w.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions (id, name, saved_at, data) VALUES (?, ?, ?, ?)
	`, meta.ID, meta.Name, meta.SavedAt.UnixNano(), string(data))
	if err != nil {
		return fmt.Errorf("sqlite save session: %w", err)
	}
	return nil
}

// LoadSessionJSON returns the stored document or model.ErrSessionNotFound.
func (w *Writer) LoadSessionJSON(ctx context.Context, id string) ([]byte, error) {
	var data string
	err := w.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite load session: %w", err)
	}
	return []byte(data), nil
}

// ListSessions returns session metadata, newest first.
func (w *Writer) ListSessions(ctx context.Context) ([]model.SessionMeta, error) {
	rows, err := w.db.QueryContext(ctx, `
		SELECT id, name, saved_at FROM sessions ORDER BY saved_at DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite list sessions: %w", err)
	}
	defer rows.Close()

	out := []model.SessionMeta{}
	for rows.Next() {
		var m model.SessionMeta
		var nanos int64
		if err := rows.Scan(&m.ID, &m.Name, &nanos); err != nil {
			return nil, fmt.Errorf("sqlite scan session: %w", err)
		}
		m.SavedAt = time.Unix(0, nanos).UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteSession removes a session or returns model.ErrSessionNotFound.
func (w *Writer) DeleteSession(ctx context.Context, id string) error {
	res, err := w.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrSessionNotFound
	}
	return nil
}
