package session

import (
	"context"

	"sgc-analytics/internal/model"
)

// Observer records the outcome of one port call.
type Observer interface {
	ObserveSessionOp(backend, op string, err error)
}

// Instrumented reports every call on a model.SessionStore to an Observer.
type Instrumented struct {
	port    model.SessionStore
	backend string
	obs     Observer
}

// Instrument wraps port. backend labels the observations.
func Instrument(port model.SessionStore, backend string, obs Observer) *Instrumented {
	return &Instrumented{port: port, backend: backend, obs: obs}
}

func (i *Instrumented) SaveSessionJSON(ctx context.Context, meta model.SessionMeta, data []byte) error {
	err := i.port.SaveSessionJSON(ctx, meta, data)
	i.obs.ObserveSessionOp(i.backend, "save", err)
	return err
}

func (i *Instrumented) LoadSessionJSON(ctx context.Context, id string) ([]byte, error) {
	data, err := i.port.LoadSessionJSON(ctx, id)
	i.obs.ObserveSessionOp(i.backend, "load", err)
	return data, err
}

func (i *Instrumented) ListSessions(ctx context.Context) ([]model.SessionMeta, error) {
	metas, err := i.port.ListSessions(ctx)
	i.obs.ObserveSessionOp(i.backend, "list", err)
	return metas, err
}

func (i *Instrumented) DeleteSession(ctx context.Context, id string) error {
	err := i.port.DeleteSession(ctx, id)
	i.obs.ObserveSessionOp(i.backend, "delete", err)
	return err
}
