package viewport

import "sgc-analytics/internal/model"

// Controller holds one viewport for a single owner. It is not safe for
// concurrent use.
type Controller struct {
	state  State
	bounds Bounds
}

// NewController starts from the initial state.
func NewController() *Controller {
	return &Controller{state: Initial()}
}

// SetData updates the natural bounds from the current samples.
func (c *Controller) SetData(samples []model.Sample) {
	c.bounds = BoundsOf(samples)
}

// Dispatch applies ev and returns the new state.
func (c *Controller) Dispatch(ev Event) State {
	c.state = Reduce(c.state, c.bounds, ev)
	return c.state
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Restore replaces the state, e.g. from a saved session.
func (c *Controller) Restore(s State) {
	if s.YZoom <= 0 {
		s.YZoom = 1
	}
	c.state = s
}

// IsZoomed reports whether the view differs from the full range.
func (c *Controller) IsZoomed() bool { return c.state.IsZoomed() }

// Visible returns the effective X domain.
func (c *Controller) Visible() (Domain, bool) { return c.state.Effective(c.bounds) }
