// Package selection tracks which nodes of one graph slot are armed for edge
// creation.
//
// A slot holds at most two armed nodes. Toggling an armed node releases it;
// toggling a third node while two are armed releases the node armed first.
// Edge creation is possible exactly when two nodes are armed.
package selection

import "slices"

// MaxArmed is the selection capacity of one slot.
const MaxArmed = 2

// State is the number of armed nodes.
type State int

// Selection states.
const (
	Empty State = iota
	One
	Two
)

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case One:
		return "one"
	case Two:
		return "two"
	}
	return "invalid"
}

// Change describes the outcome of one transition.
type Change struct {
	State State `json:"state"`
	// Armed is the selection after the transition, earliest first.
	Armed []string `json:"armed"`
	// Released lists nodes that left the selection and should be drawn in
	// their default style again. Nodes dropped because they were deleted are
	// not listed.
	Released []string `json:"released,omitempty"`
	// CanCreateEdge is true iff State is Two.
	CanCreateEdge bool `json:"canCreateEdge"`
}

// Observer receives every transition, including cleanup after deletions.
type Observer func(Change)

// Controller is the selection state machine of one slot.
// It is not safe for concurrent use.
type Controller struct {
	armed     []string
	observers []Observer
}

// New returns a controller in the Empty state.
func New() *Controller {
	return &Controller{armed: make([]string, 0, MaxArmed)}
}

// Subscribe registers an observer.
func (c *Controller) Subscribe(o Observer) {
	c.observers = append(c.observers, o)
}

// Toggle applies the toggle event for id:
//
//   - armed already: release it (Two->One, One->Empty)
//   - two armed: release the earliest, then arm id (stays Two)
//   - otherwise: arm id (Empty->One, One->Two)
//
// Callers make sure id refers to an existing node.
func (c *Controller) Toggle(id string) Change {
	var released []string
	switch i := slices.Index(c.armed, id); {
	case i >= 0:
		c.armed = slices.Delete(c.armed, i, i+1)
		released = []string{id}
	case len(c.armed) == MaxArmed:
		released = []string{c.armed[0]}
		c.armed = append(c.armed[1:], id)
	default:
		c.armed = append(c.armed, id)
	}
	return c.notify(released)
}

// Forget drops id from the selection without a visual release, for nodes
// deleted from the graph. Observers are notified only if id was armed.
func (c *Controller) Forget(id string) {
	i := slices.Index(c.armed, id)
	if i < 0 {
		return
	}
	c.armed = slices.Delete(c.armed, i, i+1)
	c.notify(nil)
}

// Reset empties the selection, for a cleared graph.
func (c *Controller) Reset() {
	if len(c.armed) == 0 {
		return
	}
	c.armed = c.armed[:0]
	c.notify(nil)
}

// Armed returns a copy of the armed ids, earliest first.
func (c *Controller) Armed() []string { return slices.Clone(c.armed) }

// Contains reports whether id is armed.
func (c *Controller) Contains(id string) bool { return slices.Contains(c.armed, id) }

// State returns the current state.
func (c *Controller) State() State { return State(len(c.armed)) }

// CanCreateEdge reports whether exactly two nodes are armed.
func (c *Controller) CanCreateEdge() bool { return len(c.armed) == MaxArmed }

// Pair returns the armed nodes in arming order when two are armed.
func (c *Controller) Pair() (source, target string, ok bool) {
	if !c.CanCreateEdge() {
		return "", "", false
	}
	return c.armed[0], c.armed[1], true
}

func (c *Controller) notify(released []string) Change {
	ch := Change{
		State:         c.State(),
		Armed:         c.Armed(),
		Released:      released,
		CanCreateEdge: c.CanCreateEdge(),
	}
	for _, o := range c.observers {
		o(ch)
	}
	return ch
}
