package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sgc-analytics/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

const (
	defaultBatchSize  = 100
	defaultFlushDelay = 200 * time.Millisecond
)

// WriterConfig configures the SQLite writer.
type WriterConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/samples.db"
}

// Writer is a single-connection SQLite writer with transaction batching.
type Writer struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (w *Writer) DB() *sql.DB { return w.db }

// New creates a new SQLite Writer, initializes the database with WAL mode and schema.
func New(cfg WriterConfig) (*Writer, error) {
	db, err := sql.Open("sqlite3", dsn(cfg.DBPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Set connection pool for single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	slog.Info("sqlite opened", "path", cfg.DBPath)
	return &Writer{db: db}, nil
}

func dsn(path string) string {
	return path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS samples (
			time           INTEGER PRIMARY KEY,
			active         REAL NOT NULL,
			recovered      REAL NOT NULL,
			escalated      REAL NOT NULL,
			cum_active     REAL NOT NULL,
			cum_recovered  REAL NOT NULL,
			cum_escalated  REAL NOT NULL
		);

		CREATE TABLE IF NOT EXISTS sessions (
			id       TEXT    PRIMARY KEY,
			name     TEXT    NOT NULL,
			saved_at INTEGER NOT NULL,
			data     TEXT    NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_saved_at ON sessions (saved_at DESC);
	`)
	return err
}

// Run archives samples from sampleCh in batched transactions, flushing
// every batchSize samples or every flushDelay, whichever comes first. It
// returns when ctx is cancelled or sampleCh is closed. A failed batch is
// logged and skipped; the failures are joined into the returned error.
func (w *Writer) Run(ctx context.Context, sampleCh <-chan model.Sample) error {
	batch := make([]model.Sample, 0, defaultBatchSize)
	timer := time.NewTimer(defaultFlushDelay)
	defer timer.Stop()

	var errs []error
	flush := func() {
		if len(batch) == 0 {
			return
		}
		start := time.Now()
		// ctx may already be cancelled on the final flush.
		if err := w.insertBatch(context.Background(), batch); err != nil {
			slog.Error("sqlite batch insert failed", "error", err, "samples", len(batch))
			errs = append(errs, err)
		} else {
			slog.Debug("sqlite batch committed", "samples", len(batch), "took", time.Since(start))
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return errors.Join(errs...)

		case s, ok := <-sampleCh:
			if !ok {
				flush()
				return errors.Join(errs...)
			}
			batch = append(batch, s)
			if len(batch) >= defaultBatchSize {
				flush()
				timer.Reset(defaultFlushDelay)
			}

		case <-timer.C:
			flush()
			timer.Reset(defaultFlushDelay)
		}
	}
}

// SaveSamples inserts samples in one transaction. Times already archived
// are left untouched.
func (w *Writer) SaveSamples(ctx context.Context, samples []model.Sample) error {
	if len(samples) == 0 {
		return nil
	}
	return w.insertBatch(ctx, samples)
}

// insertBatch inserts a batch of samples in a single transaction.
func (w *Writer) insertBatch(ctx context.Context, samples []model.Sample) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO samples (time, active, recovered, escalated, cum_active, cum_recovered, cum_escalated)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, s := range samples {
		_, err := stmt.ExecContext(ctx, s.Time, s.Active, s.Recovered, s.Escalated,
			s.CumulativeActive, s.CumulativeRecovered, s.CumulativeEscalated)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("insert sample t=%d: %w", s.Time, err)
		}
	}

	return tx.Commit()
}

// LastTime returns the newest archived sample time. ok is false for an
// empty archive.
func (w *Writer) LastTime(ctx context.Context) (t int64, ok bool, err error) {
	var ts sql.NullInt64
	if err := w.db.QueryRowContext(ctx, `SELECT MAX(time) FROM samples`).Scan(&ts); err != nil {
		return 0, false, err
	}
	return ts.Int64, ts.Valid, nil
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}
