package redis

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"sgc-analytics/internal/model"
)

// pendingSave is a session save buffered while the circuit was open.
type pendingSave struct {
	meta model.SessionMeta
	data []byte
}

// BufferedSessionStore wraps a SessionStore. While the circuit is open,
// saves are buffered locally and flushed when the circuit closes again.
// Reads and deletes are not buffered.
type BufferedSessionStore struct {
	*SessionStore
	ctx context.Context

	mu     sync.Mutex
	buffer []pendingSave
	maxBuf int // max buffered saves before dropping oldest (default: 1000)

	// Callbacks
	OnBuffer func()          // called when a save is buffered (for metrics)
	OnFlush  func(count int) // called after flushing buffered saves
}

// NewBufferedSessionStore creates a BufferedSessionStore wrapping s.
// ctx bounds the background flushes.
func NewBufferedSessionStore(ctx context.Context, s *SessionStore, maxBufferSize int) *BufferedSessionStore {
	if maxBufferSize <= 0 {
		maxBufferSize = 1000
	}
	bs := &BufferedSessionStore{
		SessionStore: s,
		ctx:          ctx,
		maxBuf:       maxBufferSize,
	}

	// Register flush on circuit close
	prevCallback := s.cb.OnStateChange
	s.cb.OnStateChange = func(from, to State) {
		if prevCallback != nil {
			prevCallback(from, to)
		}
		if to == StateClosed {
			go bs.flush()
		}
	}
	return bs
}

// SaveSessionJSON saves through the breaker, buffering when it is open.
func (bs *BufferedSessionStore) SaveSessionJSON(ctx context.Context, meta model.SessionMeta, data []byte) error {
	err := bs.SessionStore.SaveSessionJSON(ctx, meta, data)
	if errors.Is(err, ErrCircuitOpen) {
		bs.bufferSave(meta, data)
		return nil // buffered, not lost
	}
	return err
}

func (bs *BufferedSessionStore) bufferSave(meta model.SessionMeta, data []byte) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	// A newer save of the same session replaces the buffered one.
	for i := range bs.buffer {
		if bs.buffer[i].meta.ID == meta.ID {
			bs.buffer = append(bs.buffer[:i], bs.buffer[i+1:]...)
			break
		}
	}
	if len(bs.buffer) >= bs.maxBuf {
		// Buffer full, drop oldest
		bs.buffer = bs.buffer[1:]
	}
	bs.buffer = append(bs.buffer, pendingSave{meta: meta, data: append([]byte(nil), data...)})

	if bs.OnBuffer != nil {
		bs.OnBuffer()
	}
}

// flush replays buffered saves through the underlying store.
func (bs *BufferedSessionStore) flush() {
	bs.mu.Lock()
	if len(bs.buffer) == 0 {
		bs.mu.Unlock()
		return
	}
	// Take ownership of the buffer
	toFlush := bs.buffer
	bs.buffer = nil
	bs.mu.Unlock()

	flushed := 0
	for _, p := range toFlush {
		if err := bs.SessionStore.SaveSessionJSON(bs.ctx, p.meta, p.data); err != nil {
			slog.Error("buffered session flush failed", "id", p.meta.ID, "error", err)
			continue
		}
		flushed++
	}

	slog.Info("buffered session saves flushed", "count", flushed)
	if bs.OnFlush != nil {
		bs.OnFlush(flushed)
	}
}

// PendingCount returns the number of buffered saves waiting to be flushed.
func (bs *BufferedSessionStore) PendingCount() int {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return len(bs.buffer)
}
