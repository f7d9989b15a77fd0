package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"sgc-analytics/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Reader provides read-only access to SQLite for replay and backfill.
type Reader struct {
	db *sql.DB
}

// NewReader opens a SQLite connection for reading.
func NewReader(dbPath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	slog.Debug("sqlite reader opened", "path", dbPath)
	return &Reader{db: db}, nil
}

// ReadSamples returns samples with Time > afterTime, ordered ascending
// for correct replay order.
func (r *Reader) ReadSamples(ctx context.Context, afterTime int64) ([]model.Sample, error) {
	return r.query(ctx, `
		SELECT time, active, recovered, escalated, cum_active, cum_recovered, cum_escalated
		FROM samples
		WHERE time > ?
		ORDER BY time ASC
	`, afterTime)
}

// ReadRange returns samples with lo <= Time <= hi, ascending.
func (r *Reader) ReadRange(ctx context.Context, lo, hi int64) ([]model.Sample, error) {
	if lo > hi {
		lo, hi = hi, lo
	}
	return r.query(ctx, `
		SELECT time, active, recovered, escalated, cum_active, cum_recovered, cum_escalated
		FROM samples
		WHERE time BETWEEN ? AND ?
		ORDER BY time ASC
	`, lo, hi)
}

func (r *Reader) query(ctx context.Context, q string, args ...any) ([]model.Sample, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite query samples: %w", err)
	}
	defer rows.Close()

	var out []model.Sample
	for rows.Next() {
		var s model.Sample
		if err := rows.Scan(&s.Time, &s.Active, &s.Recovered, &s.Escalated,
			&s.CumulativeActive, &s.CumulativeRecovered, &s.CumulativeEscalated); err != nil {
			return nil, fmt.Errorf("sqlite scan samples: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}
