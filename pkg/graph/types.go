package graph

import (
	"encoding/json"

	"github.com/graphsim/fuzzygraph/pkg/errors"
	"github.com/graphsim/fuzzygraph/pkg/fuzzy"
)

// =============================================================================
// GraphData - Analysis Service Wire Format
// =============================================================================

// GraphData is the canonical serialization format exchanged with the analysis
// service. Field names are part of the wire contract and must not change.
//
//	{
//	  "nodes": [{"name": "Node1", "membershipFunction": 0.7}],
//	  "edges": [{"source": "Node1", "target": "Node2", "weight": 0.3}],
//	  "tnorm": "min"
//	}
//
// TNorm is only set for requests that need it and is omitted otherwise.
type GraphData struct {
	Nodes []NodeData  `json:"nodes"`
	Edges []EdgeData  `json:"edges"`
	TNorm fuzzy.TNorm `json:"tnorm,omitempty"`
}

// NodeData is a node entry in [GraphData].
type NodeData struct {
	Name               string  `json:"name"`
	MembershipFunction float64 `json:"membershipFunction"`
}

// EdgeData is an edge entry in [GraphData].
type EdgeData struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// Empty returns GraphData with no nodes and no edges.
// Both slices are non-nil so they encode as [] rather than null.
func Empty() GraphData {
	return GraphData{Nodes: []NodeData{}, Edges: []EdgeData{}}
}

// Validate checks structural integrity of graph data read from outside:
// node names must be valid and unique, every edge must join two distinct
// existing nodes, no source->target pair may repeat and the t-norm, when
// present, must be known.
func (d GraphData) Validate() error {
	names := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		if err := errors.ValidateNodeName(n.Name); err != nil {
			return err
		}
		if names[n.Name] {
			return errors.New(errors.ErrCodeInvalidArgument, "duplicate node %q", n.Name)
		}
		names[n.Name] = true
	}
	edges := make(map[string]bool, len(d.Edges))
	for _, e := range d.Edges {
		if !names[e.Source] {
			return errors.New(errors.ErrCodeNotFound, "edge %s->%s: unknown source", e.Source, e.Target)
		}
		if !names[e.Target] {
			return errors.New(errors.ErrCodeNotFound, "edge %s->%s: unknown target", e.Source, e.Target)
		}
		if e.Source == e.Target {
			return errors.New(errors.ErrCodeInvalidArgument, "edge %s->%s: self-loop", e.Source, e.Target)
		}
		id := EdgeID(e.Source, e.Target)
		if edges[id] {
			return errors.New(errors.ErrCodeDuplicateEdge, "edge %s->%s: duplicate", e.Source, e.Target)
		}
		edges[id] = true
	}
	if d.TNorm != "" && !d.TNorm.Valid() {
		return errors.New(errors.ErrCodeInvalidArgument, "unknown t-norm %q", string(d.TNorm))
	}
	return nil
}

// Normalize returns a copy with memberships and weights clamped into [0,1]
// and nil slices replaced by empty ones.
func (d GraphData) Normalize() GraphData {
	out := GraphData{
		Nodes: make([]NodeData, len(d.Nodes)),
		Edges: make([]EdgeData, len(d.Edges)),
		TNorm: d.TNorm,
	}
	for i, n := range d.Nodes {
		n.MembershipFunction = fuzzy.ClampUnit(n.MembershipFunction)
		out.Nodes[i] = n
	}
	for i, e := range d.Edges {
		e.Weight = fuzzy.ClampUnit(e.Weight)
		out.Edges[i] = e
	}
	return out
}

// WithTNorm returns a copy of d carrying t.
func (d GraphData) WithTNorm(t fuzzy.TNorm) GraphData {
	d.TNorm = t
	return d
}

// UnmarshalGraph deserializes JSON bytes to GraphData.
// Missing arrays decode as empty slices.
func UnmarshalGraph(data []byte) (GraphData, error) {
	var d GraphData
	if err := json.Unmarshal(data, &d); err != nil {
		return GraphData{}, errors.Wrap(errors.ErrCodeInvalidArgument, err, "decode graph")
	}
	if d.Nodes == nil {
		d.Nodes = []NodeData{}
	}
	if d.Edges == nil {
		d.Edges = []EdgeData{}
	}
	return d, nil
}
