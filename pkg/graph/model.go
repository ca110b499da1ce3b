package graph

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/graphsim/fuzzygraph/pkg/errors"
	"github.com/graphsim/fuzzygraph/pkg/fuzzy"
)

// =============================================================================
// Slots
// =============================================================================

// Slot labels one of the two graphs an editor works on.
type Slot string

// The two graph slots.
const (
	SlotLeft  Slot = "left"
	SlotRight Slot = "right"
)

// Slots lists both slots in display order.
var Slots = []Slot{SlotLeft, SlotRight}

// ParseSlot converts "left" or "right" to a Slot.
func ParseSlot(s string) (Slot, error) {
	switch Slot(strings.ToLower(s)) {
	case SlotLeft:
		return SlotLeft, nil
	case SlotRight:
		return SlotRight, nil
	}
	return "", errors.New(errors.ErrCodeInvalidArgument, "unknown graph slot %q (want left or right)", s)
}

// Other returns the opposite slot.
func (s Slot) Other() Slot {
	if s == SlotLeft {
		return SlotRight
	}
	return SlotLeft
}

// =============================================================================
// Node IDs
// =============================================================================

// NodeIDPrefix prefixes every generated node id ("Node1", "Node2", ...).
const NodeIDPrefix = "Node"

// IDSource hands out node ids. Ids are never reused.
type IDSource interface {
	NextID() string
}

// Counter is a monotonic IDSource. One Counter is shared by both slots of an
// editor, so ids are unique across the pair. It is safe for concurrent use.
type Counter struct {
	n atomic.Uint64
}

// NewCounter returns a counter whose first id is "Node1".
func NewCounter() *Counter { return &Counter{} }

// NextID returns the next id.
func (c *Counter) NextID() string {
	return NodeIDPrefix + strconv.FormatUint(c.n.Add(1), 10)
}

// Observe advances the counter past id when id has the generated form
// "Node<n>", so that imported nodes never collide with fresh ones.
func (c *Counter) Observe(id string) {
	rest, ok := strings.CutPrefix(id, NodeIDPrefix)
	if !ok {
		return
	}
	n, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return
	}
	for {
		cur := c.n.Load()
		if n <= cur || c.n.CompareAndSwap(cur, n) {
			return
		}
	}
}

// EdgeID derives an edge id from its ordered endpoints: source id followed by
// target id. A->B and B->A therefore have different ids.
func EdgeID(source, target string) string { return source + target }

// =============================================================================
// Nodes and Edges
// =============================================================================

// Position is a node location relative to the drawing area, both axes in [0,1].
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Clamp limits both coordinates to [0,1].
func (p Position) Clamp() Position {
	return Position{X: fuzzy.ClampUnit(p.X), Y: fuzzy.ClampUnit(p.Y)}
}

// randomPosition places new nodes between 10% and 90% of each axis.
func randomPosition() Position {
	return Position{X: rand.Float64()*0.8 + 0.1, Y: rand.Float64()*0.8 + 0.1}
}

// Node is a fuzzy vertex. Membership is fixed at creation.
type Node struct {
	ID         string   `json:"id"`
	Membership float64  `json:"membership"`
	Position   Position `json:"position"`
}

// Edge is a fuzzy edge. Its membership never exceeds the t-norm of its
// endpoint memberships under the t-norm in effect when it was created.
type Edge struct {
	ID         string  `json:"id"`
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Membership float64 `json:"membership"`
}

// =============================================================================
// Graph - Fuzzy Graph Model
// =============================================================================

// Graph owns the nodes and edges of one slot.
//
// Nodes and edges are kept in insertion order so snapshots are deterministic.
// Graph is not safe for concurrent use; the editor serializes access.
type Graph struct {
	slot      Slot
	ids       IDSource
	nodes     map[string]*Node
	nodeOrder []string
	edges     map[string]*Edge
	edgeOrder []string

	onRemove []func(id string)
	onClear  []func()
}

// New creates an empty graph for slot drawing ids from ids.
// A nil ids gets a private Counter.
func New(slot Slot, ids IDSource) *Graph {
	if ids == nil {
		ids = NewCounter()
	}
	return &Graph{
		slot:  slot,
		ids:   ids,
		nodes: make(map[string]*Node),
		edges: make(map[string]*Edge),
	}
}

// Slot returns the slot label of g.
func (g *Graph) Slot() Slot { return g.slot }

// OnNodeRemoved registers fn to run after a node is removed.
// Selection controllers use it to drop references to deleted nodes.
func (g *Graph) OnNodeRemoved(fn func(id string)) {
	g.onRemove = append(g.onRemove, fn)
}

// OnClear registers fn to run after [Graph.Clear].
func (g *Graph) OnClear(fn func()) {
	g.onClear = append(g.onClear, fn)
}

// AddNode creates a node with membership clamped into [0,1] and returns its
// fresh id. It never fails.
func (g *Graph) AddNode(membership float64) string {
	id := g.ids.NextID()
	g.insertNode(&Node{ID: id, Membership: fuzzy.ClampUnit(membership), Position: randomPosition()})
	return id
}

// AddNamedNode creates a node with a caller-chosen id, as needed when
// importing a graph file. It fails if the id is taken.
func (g *Graph) AddNamedNode(id string, membership float64) error {
	if err := errors.ValidateNodeName(id); err != nil {
		return err
	}
	if _, ok := g.nodes[id]; ok {
		return errors.New(errors.ErrCodeInvalidArgument, "node %s already exists", id)
	}
	if c, ok := g.ids.(interface{ Observe(string) }); ok {
		c.Observe(id)
	}
	g.insertNode(&Node{ID: id, Membership: fuzzy.ClampUnit(membership), Position: randomPosition()})
	return nil
}

func (g *Graph) insertNode(n *Node) {
	g.nodes[n.ID] = n
	g.nodeOrder = append(g.nodeOrder, n.ID)
}

// RemoveNode deletes a node and every incident edge, then notifies
// OnNodeRemoved listeners.
func (g *Graph) RemoveNode(id string) error {
	if _, ok := g.nodes[id]; !ok {
		return errors.New(errors.ErrCodeNotFound, "node %s not found in %s graph", id, g.slot)
	}
	for _, eid := range slices.Clone(g.edgeOrder) {
		if e := g.edges[eid]; e.Source == id || e.Target == id {
			g.deleteEdge(eid)
		}
	}
	delete(g.nodes, id)
	g.nodeOrder = remove(g.nodeOrder, id)

	for _, fn := range g.onRemove {
		fn(id)
	}
	return nil
}

// MoveNode records a new relative position for a node.
func (g *Graph) MoveNode(id string, pos Position) error {
	n, ok := g.nodes[id]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "node %s not found in %s graph", id, g.slot)
	}
	n.Position = pos.Clamp()
	return nil
}

// AddEdge connects source to target.
//
// The stored membership is the requested one clamped into [0, bound] where
// bound = t(source.membership, target.membership). Values above the bound
// are capped, not rejected.
//
// Errors:
//   - NOT_FOUND if either endpoint is absent
//   - INVALID_ARGUMENT for a self-loop or an unknown t-norm
//   - DUPLICATE_EDGE if an edge with the same derived id exists
func (g *Graph) AddEdge(source, target string, requested float64, t fuzzy.TNorm) (Edge, error) {
	src, ok := g.nodes[source]
	if !ok {
		return Edge{}, errors.New(errors.ErrCodeNotFound, "source node %s not found in %s graph", source, g.slot)
	}
	tgt, ok := g.nodes[target]
	if !ok {
		return Edge{}, errors.New(errors.ErrCodeNotFound, "target node %s not found in %s graph", target, g.slot)
	}
	if source == target {
		return Edge{}, errors.New(errors.ErrCodeInvalidArgument, "self-loop on %s", source)
	}

	id := EdgeID(source, target)
	if _, exists := g.edges[id]; exists {
		return Edge{}, errors.New(errors.ErrCodeDuplicateEdge, "edge %s already exists", id)
	}

	bound, err := fuzzy.Eval(t, src.Membership, tgt.Membership)
	if err != nil {
		return Edge{}, err
	}

	e := &Edge{ID: id, Source: source, Target: target, Membership: fuzzy.Clamp(requested, 0, bound)}
	g.edges[id] = e
	g.edgeOrder = append(g.edgeOrder, id)
	return *e, nil
}

// RemoveEdge deletes an edge by id.
func (g *Graph) RemoveEdge(id string) error {
	if _, ok := g.edges[id]; !ok {
		return errors.New(errors.ErrCodeNotFound, "edge %s not found in %s graph", id, g.slot)
	}
	g.deleteEdge(id)
	return nil
}

func (g *Graph) deleteEdge(id string) {
	delete(g.edges, id)
	g.edgeOrder = remove(g.edgeOrder, id)
}

// Clear removes all nodes and edges, then notifies OnClear listeners.
// Node ids are not reset.
func (g *Graph) Clear() {
	g.nodes = make(map[string]*Node)
	g.edges = make(map[string]*Edge)
	g.nodeOrder = nil
	g.edgeOrder = nil
	for _, fn := range g.onClear {
		fn()
	}
}

// Load replaces the contents of g with data. Memberships are clamped and
// every edge is re-bounded under t, so the edge invariant holds after import.
// On error g is left unchanged.
func (g *Graph) Load(data GraphData, t fuzzy.TNorm) error {
	if err := data.Validate(); err != nil {
		return err
	}
	if !t.Valid() {
		return errors.New(errors.ErrCodeInvalidArgument, "unknown t-norm %q", string(t))
	}
	next := New(g.slot, g.ids)
	for _, n := range data.Nodes {
		if err := next.AddNamedNode(n.Name, n.MembershipFunction); err != nil {
			return fmt.Errorf("node %s: %w", n.Name, err)
		}
	}
	for _, e := range data.Edges {
		if _, err := next.AddEdge(e.Source, e.Target, e.Weight, t); err != nil {
			return fmt.Errorf("edge %s->%s: %w", e.Source, e.Target, err)
		}
	}

	g.Clear()
	g.nodes, g.nodeOrder = next.nodes, next.nodeOrder
	g.edges, g.edgeOrder = next.edges, next.edgeOrder
	return nil
}

// =============================================================================
// Queries
// =============================================================================

// Node returns a copy of the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// HasNode reports whether id exists in g.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Edge returns a copy of the edge with the given id.
func (g *Graph) Edge(id string) (Edge, bool) {
	e, ok := g.edges[id]
	if !ok {
		return Edge{}, false
	}
	return *e, true
}

// Nodes returns copies of all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		out = append(out, *g.nodes[id])
	}
	return out
}

// Edges returns copies of all edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edgeOrder))
	for _, id := range g.edgeOrder {
		out = append(out, *g.edges[id])
	}
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Snapshot projects g into the wire format. The t-norm is left empty; see
// [Serialize] for requests that need it.
func (g *Graph) Snapshot() GraphData {
	out := GraphData{
		Nodes: make([]NodeData, 0, len(g.nodeOrder)),
		Edges: make([]EdgeData, 0, len(g.edgeOrder)),
	}
	for _, id := range g.nodeOrder {
		n := g.nodes[id]
		out.Nodes = append(out.Nodes, NodeData{Name: n.ID, MembershipFunction: n.Membership})
	}
	for _, id := range g.edgeOrder {
		e := g.edges[id]
		out.Edges = append(out.Edges, EdgeData{Source: e.Source, Target: e.Target, Weight: e.Membership})
	}
	return out
}

func remove(ids []string, id string) []string {
	if i := slices.Index(ids, id); i >= 0 {
		return slices.Delete(ids, i, i+1)
	}
	return ids
}
