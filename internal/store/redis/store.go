// Package redis stores chart sessions in Redis behind a circuit breaker.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"sgc-analytics/internal/model"
)

const (
	defaultKeyPrefix      = "sgc"
	defaultMaxFailures    = 5
	defaultResetTimeout   = 10 * time.Second
	defaultConnectTimeout = 5 * time.Second
)

// Config configures the Redis session store.
type Config struct {
	Addr      string // Redis address, e.g. "localhost:6379"
	Password  string
	DB        int
	KeyPrefix string // defaults to "sgc"
}

var _ model.SessionStore = (*SessionStore)(nil)

// SessionStore keeps each session in a hash at <prefix>:session:<id> and
// indexes IDs by save time in the sorted set <prefix>:sessions.
type SessionStore struct {
	client *goredis.Client
	cb     *CircuitBreaker
	prefix string
}

// Client returns the underlying Redis client for health checks.
func (s *SessionStore) Client() *goredis.Client { return s.client }

// Breaker returns the circuit breaker guarding every call.
func (s *SessionStore) Breaker() *CircuitBreaker { return s.cb }

// New connects, pings the server and returns a store.
func New(cfg Config) (*SessionStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	slog.Info("redis connected", "addr", cfg.Addr)
	return NewWithClient(client, cfg.KeyPrefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *goredis.Client, prefix string) *SessionStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	cb := NewCircuitBreaker(defaultMaxFailures, defaultResetTimeout)
	cb.IsFailure = func(err error) bool { return !errors.Is(err, model.ErrSessionNotFound) }
	cb.OnStateChange = func(from, to State) {
		slog.Warn("redis circuit breaker", "from", from.String(), "to", to.String())
	}
	return &SessionStore{client: client, cb: cb, prefix: prefix}
}

func (s *SessionStore) sessionKey(id string) string { return s.prefix + ":session:" + id }
func (s *SessionStore) indexKey() string            { return s.prefix + ":sessions" }

// SaveSessionJSON writes the document and index entry atomically.
func (s *SessionStore) SaveSessionJSON(ctx context.Context, meta model.SessionMeta, data []byte) error {
	return s.cb.Execute(func() error {
		_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.HSet(ctx, s.sessionKey(meta.ID),
				"name", meta.Name,
				"saved_at", meta.SavedAt.UTC().Format(time.RFC3339Nano),
				"data", data,
			)
			pipe.ZAdd(ctx, s.indexKey(), &goredis.Z{
				Score:  float64(meta.SavedAt.UnixMilli()),
				Member: meta.ID,
			})
			return nil
		})
		if err != nil {
			return fmt.Errorf("redis save session %s: %w", meta.ID, err)
		}
		return nil
	})
}

// LoadSessionJSON returns the stored document or model.ErrSessionNotFound.
func (s *SessionStore) LoadSessionJSON(ctx context.Context, id string) ([]byte, error) {
	var out []byte
	err := s.cb.Execute(func() error {
		data, err := s.client.HGet(ctx, s.sessionKey(id), "data").Bytes()
		if errors.Is(err, goredis.Nil) {
			return model.ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("redis load session %s: %w", id, err)
		}
		out = data
		return nil
	})
	return out, err
}

// ListSessions returns session metadata, newest first.
func (s *SessionStore) ListSessions(ctx context.Context) ([]model.SessionMeta, error) {
	out := []model.SessionMeta{}
	err := s.cb.Execute(func() error {
		ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
		if err != nil {
			return fmt.Errorf("redis list sessions: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		cmds := make([]*goredis.SliceCmd, len(ids))
		_, err = s.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
			for i, id := range ids {
				cmds[i] = pipe.HMGet(ctx, s.sessionKey(id), "name", "saved_at")
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("redis list sessions: %w", err)
		}

		for i, cmd := range cmds {
			vals := cmd.Val()
			name, _ := vals[0].(string)
			raw, _ := vals[1].(string)
			if raw == "" {
				// index entry without a document
				continue
			}
			savedAt, err := time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				return fmt.Errorf("redis session %s: saved_at: %w", ids[i], err)
			}
			out = append(out, model.SessionMeta{ID: ids[i], Name: name, SavedAt: savedAt})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	model.SortSessionsNewestFirst(out)
	return out, nil
}

// DeleteSession removes the document and its index entry.
func (s *SessionStore) DeleteSession(ctx context.Context, id string) error {
	return s.cb.Execute(func() error {
		var del *goredis.IntCmd
		_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			del = pipe.Del(ctx, s.sessionKey(id))
			pipe.ZRem(ctx, s.indexKey(), id)
			return nil
		})
		if err != nil {
			return fmt.Errorf("redis delete session %s: %w", id, err)
		}
		if del.Val() == 0 {
			return model.ErrSessionNotFound
		}
		return nil
	})
}

// Close closes the client.
func (s *SessionStore) Close() error {
	return s.client.Close()
}
