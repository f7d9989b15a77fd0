package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/google/go-cmp/cmp"

	"sgc-analytics/internal/model"
)

func newTestStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	s := NewWithClient(client, "test")
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestSessionStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	t0 := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

	if err := s.SaveSessionJSON(ctx, model.SessionMeta{ID: "a", Name: "first", SavedAt: t0}, []byte(`{"id":"a"}`)); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if err := s.SaveSessionJSON(ctx, model.SessionMeta{ID: "b", Name: "second", SavedAt: t0.Add(time.Minute)}, []byte(`{"id":"b"}`)); err != nil {
		t.Fatalf("save b: %v", err)
	}

	if !mr.Exists("test:session:a") {
		t.Error("expected session hash under the configured prefix")
	}

	list, err := s.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	want := []model.SessionMeta{
		{ID: "b", Name: "second", SavedAt: t0.Add(time.Minute)},
		{ID: "a", Name: "first", SavedAt: t0},
	}
	if diff := cmp.Diff(want, list); diff != "" {
		t.Errorf("list mismatch (-want +got):\n%s", diff)
	}

	data, err := s.LoadSessionJSON(ctx, "b")
	if err != nil || string(data) != `{"id":"b"}` {
		t.Errorf("LoadSessionJSON = %s, %v", data, err)
	}

	if err := s.DeleteSession(ctx, "b"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := s.LoadSessionJSON(ctx, "b"); !errors.Is(err, model.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if err := s.DeleteSession(ctx, "b"); !errors.Is(err, model.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionStore_NotFoundDoesNotTripBreaker(t *testing.T) {
	s, _ := newTestStore(t)
	for i := 0; i < defaultMaxFailures+2; i++ {
		if _, err := s.LoadSessionJSON(context.Background(), "missing"); !errors.Is(err, model.ErrSessionNotFound) {
			t.Fatalf("expected ErrSessionNotFound, got %v", err)
		}
	}
	if s.Breaker().CurrentState() != StateClosed {
		t.Errorf("misses must not open the breaker, got %v", s.Breaker().CurrentState())
	}
}

func TestSessionStore_BreakerOpensOnServerErrors(t *testing.T) {
	s, mr := newTestStore(t)
	mr.SetError("LOADING")
	for i := 0; i < defaultMaxFailures; i++ {
		s.ListSessions(context.Background())
	}
	if _, err := s.ListSessions(context.Background()); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestBufferedSessionStore_FlushesAfterRecovery(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	now := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	s.cb.now = func() time.Time { return now }

	bs := NewBufferedSessionStore(ctx, s, 10)
	flushed := make(chan int, 1)
	bs.OnFlush = func(n int) { flushed <- n }

	// trip the breaker
	mr.SetError("LOADING")
	for i := 0; i < defaultMaxFailures; i++ {
		bs.ListSessions(ctx)
	}

	meta := model.SessionMeta{ID: "late", Name: "late", SavedAt: now}
	if err := bs.SaveSessionJSON(ctx, meta, []byte(`{"v":1}`)); err != nil {
		t.Fatalf("save while open should buffer, got %v", err)
	}
	if err := bs.SaveSessionJSON(ctx, meta, []byte(`{"v":2}`)); err != nil {
		t.Fatalf("save while open should buffer, got %v", err)
	}
	if bs.PendingCount() != 1 {
		t.Fatalf("expected 1 pending save, got %d", bs.PendingCount())
	}

	// recover and let the half-open trial call succeed
	mr.SetError("")
	now = now.Add(defaultResetTimeout + time.Second)
	if _, err := bs.ListSessions(ctx); err != nil {
		t.Fatalf("trial call: %v", err)
	}

	select {
	case n := <-flushed:
		if n != 1 {
			t.Errorf("expected 1 flushed save, got %d", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("buffered saves were not flushed")
	}

	data, err := bs.LoadSessionJSON(ctx, "late")
	if err != nil || string(data) != `{"v":2}` {
		t.Errorf("expected latest buffered document, got %s, %v", data, err)
	}
}
