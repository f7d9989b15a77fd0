package session

import (
	"context"
	"sync"

	"sgc-analytics/internal/model"
)

// MemoryStore is an in-process model.SessionStore.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
	meta map[string]model.SessionMeta
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string][]byte),
		meta: make(map[string]model.SessionMeta),
	}
}

func (m *MemoryStore) SaveSessionJSON(_ context.Context, meta model.SessionMeta, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[meta.ID] = append([]byte(nil), data...)
	m.meta[meta.ID] = meta
	return nil
}

func (m *MemoryStore) LoadSessionJSON(_ context.Context, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.docs[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStore) ListSessions(_ context.Context) ([]model.SessionMeta, error) {
	m.mu.RLock()
	out := make([]model.SessionMeta, 0, len(m.meta))
	for _, meta := range m.meta {
		out = append(out, meta)
	}
	m.mu.RUnlock()

	model.SortSessionsNewestFirst(out)
	return out, nil
}

func (m *MemoryStore) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return model.ErrSessionNotFound
	}
	delete(m.docs, id)
	delete(m.meta, id)
	return nil
}
