// Package store opens the session backend named in the config.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	goredis "github.com/go-redis/redis/v8"

	"sgc-analytics/config"
	"sgc-analytics/internal/metrics"
	"sgc-analytics/internal/model"
	"sgc-analytics/internal/session"
	redisstore "sgc-analytics/internal/store/redis"
	sqlitestore "sgc-analytics/internal/store/sqlite"
)

// Sessions is an opened session backend.
type Sessions struct {
	Backend string
	Port    model.SessionStore

	// Redis is set for the redis backend, SQL for sqlite. Health checks
	// probe whichever is non-nil.
	Redis *goredis.Client
	SQL   *sql.DB

	closeFn func() error
}

// Store returns a session.Store over the port.
func (s *Sessions) Store() *session.Store { return session.NewStore(s.Port) }

// Close releases the backend.
func (s *Sessions) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

// Open connects to cfg.SessionBackend. When m is non-nil every port call
// is counted and redis breaker transitions are exported. ctx bounds the
// background flushes of buffered redis saves.
func Open(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*Sessions, error) {
	s := &Sessions{Backend: cfg.SessionBackend}

	switch cfg.SessionBackend {
	case "sqlite":
		arch, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		s.Port, s.SQL, s.closeFn = arch, arch.DB(), arch.Close
	case "redis":
		rs, err := redisstore.New(redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		if m != nil {
			watchBreaker(rs.Breaker(), m)
		}
		buffered := redisstore.NewBufferedSessionStore(ctx, rs, 0)
		buffered.OnBuffer = func() {
			slog.Warn("redis unavailable, session save buffered")
			if m != nil {
				m.RedisBufferedSaves.Inc()
			}
		}
		buffered.OnFlush = func(n int) { slog.Info("buffered sessions flushed", "count", n) }
		s.Port, s.Redis, s.closeFn = buffered, rs.Client(), rs.Close
	case "memory", "":
		slog.Warn("memory session backend does not outlive this process")
		s.Backend = "memory"
		s.Port = session.NewMemoryStore()
	default:
		return nil, fmt.Errorf("store: unknown session backend %q", cfg.SessionBackend)
	}

	if m != nil {
		s.Port = session.Instrument(s.Port, s.Backend, m)
	}
	return s, nil
}

// watchBreaker chains metric updates onto the breaker's state callback.
func watchBreaker(cb *redisstore.CircuitBreaker, m *metrics.Metrics) {
	prev := cb.OnStateChange
	cb.OnStateChange = func(from, to redisstore.State) {
		if prev != nil {
			prev(from, to)
		}
		m.RedisCircuitBreakerState.Set(float64(to))
		if to == redisstore.StateOpen {
			m.RedisCircuitBreakerTrips.Inc()
		}
	}
}
