package alert

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"sgc-analytics/internal/model"
	"sgc-analytics/internal/validate"
)

var (
	ErrNotFound        = errors.New("alert: not found")
	ErrUnknownOperator = errors.New("alert: unknown operator")
	ErrUnknownMetric   = errors.New("alert: unknown metric")
)

// DefaultHighEscalation is the alert every new book starts with.
func DefaultHighEscalation() model.ThresholdAlert {
	return model.ThresholdAlert{
		ID:       "default-high",
		Metric:   model.MetricEscalated,
		Operator: model.OpGreater,
		Value:    10,
		Enabled:  false,
		Label:    "High Escalation",
		Color:    "#ef4444",
	}
}

// Book holds the threshold alerts of one session. Safe for concurrent use.
type Book struct {
	mu     sync.RWMutex
	alerts []model.ThresholdAlert
}

// NewBook returns a book seeded with DefaultHighEscalation.
func NewBook() *Book {
	return &Book{alerts: []model.ThresholdAlert{DefaultHighEscalation()}}
}

// Check validates a single alert.
func Check(a model.ThresholdAlert) error {
	if !a.Metric.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownMetric, a.Metric)
	}
	if !a.Operator.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownOperator, a.Operator)
	}
	return validate.Struct(a)
}

// Add stores a copy of a under a fresh ID and returns it.
func (b *Book) Add(a model.ThresholdAlert) (model.ThresholdAlert, error) {
	if err := Check(a); err != nil {
		return model.ThresholdAlert{}, err
	}
	a.ID = uuid.NewString()

	b.mu.Lock()
	b.alerts = append(b.alerts, a)
	b.mu.Unlock()
	return a, nil
}

// Update replaces the alert with a.ID.
func (b *Book) Update(a model.ThresholdAlert) error {
	if err := Check(a); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.find(a.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, a.ID)
	}
	b.alerts[i] = a
	return nil
}

// Toggle flips Enabled and returns the new state.
func (b *Book) Toggle(id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.find(id)
	if i < 0 {
		return false, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	b.alerts[i].Enabled = !b.alerts[i].Enabled
	return b.alerts[i].Enabled, nil
}

// Delete removes the alert with id.
func (b *Book) Delete(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.find(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	b.alerts = append(b.alerts[:i], b.alerts[i+1:]...)
	return nil
}

// List returns a copy of the alerts in insertion order.
func (b *Book) List() []model.ThresholdAlert {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]model.ThresholdAlert(nil), b.alerts...)
}

// Replace swaps the whole set, e.g. when loading a chart file. Every alert
// must validate; alerts without an ID get one.
func (b *Book) Replace(alerts []model.ThresholdAlert) error {
	next := make([]model.ThresholdAlert, len(alerts))
	for i, a := range alerts {
		if err := Check(a); err != nil {
			return fmt.Errorf("alert %d: %w", i, err)
		}
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		next[i] = a
	}
	b.mu.Lock()
	b.alerts = next
	b.mu.Unlock()
	return nil
}

// Evaluate runs the book's alerts over samples.
func (b *Book) Evaluate(samples []model.Sample) []Violation {
	return Evaluate(samples, b.List())
}

func (b *Book) find(id string) int {
	for i, a := range b.alerts {
		if a.ID == id {
			return i
		}
	}
	return -1
}
