package alert

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"sgc-analytics/internal/model"
	"sgc-analytics/internal/validate"
)

// Annotations holds the annotation markers of one session.
// Safe for concurrent use.
type Annotations struct {
	mu    sync.RWMutex
	items []model.Annotation
	now   func() time.Time
}

// NewAnnotations returns an empty annotation book.
func NewAnnotations() *Annotations {
	return &Annotations{now: time.Now}
}

// Add validates a, assigns an ID and creation time, and stores it.
func (n *Annotations) Add(a model.Annotation) (model.Annotation, error) {
	if err := validate.Struct(a); err != nil {
		return model.Annotation{}, err
	}
	a.ID = uuid.NewString()
	a.CreatedAt = n.now().UTC()

	n.mu.Lock()
	n.items = append(n.items, a)
	n.mu.Unlock()
	return a, nil
}

// Update replaces the annotation with a.ID, keeping its creation time.
func (n *Annotations) Update(a model.Annotation) error {
	if err := validate.Struct(a); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := range n.items {
		if n.items[i].ID == a.ID {
			a.CreatedAt = n.items[i].CreatedAt
			n.items[i] = a
			return nil
		}
	}
	return fmt.Errorf("%w: annotation %s", ErrNotFound, a.ID)
}

// Delete removes the annotation with id.
func (n *Annotations) Delete(id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := range n.items {
		if n.items[i].ID == id {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: annotation %s", ErrNotFound, id)
}

// Clear drops every annotation.
func (n *Annotations) Clear() {
	n.mu.Lock()
	n.items = nil
	n.mu.Unlock()
}

// At returns the annotations pinned to time t.
func (n *Annotations) At(t int64) []model.Annotation {
	n.mu.RLock()
	defer n.mu.RUnlock()
	var out []model.Annotation
	for _, a := range n.items {
		if a.TimePoint == t {
			out = append(out, a)
		}
	}
	return out
}

// List returns every annotation ordered by time point, then creation.
func (n *Annotations) List() []model.Annotation {
	n.mu.RLock()
	out := append([]model.Annotation(nil), n.items...)
	n.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].TimePoint < out[j].TimePoint })
	return out
}
