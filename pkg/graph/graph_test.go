package graph

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/graphsim/fuzzygraph/pkg/errors"
	"github.com/graphsim/fuzzygraph/pkg/fuzzy"
)

func TestSerialize(t *testing.T) {
	tests := []struct {
		name      string
		build     func() *Graph
		tnorm     fuzzy.TNorm
		wantNodes int
		wantEdges int
	}{
		{
			name:  "Empty",
			build: func() *Graph { return New(SlotLeft, nil) },
			tnorm: fuzzy.Minimum,
		},
		{
			name: "Simple",
			build: func() *Graph {
				g := New(SlotLeft, nil)
				a, b := g.AddNode(0.8), g.AddNode(0.6)
				g.AddEdge(a, b, 0.5, fuzzy.Minimum)
				return g
			},
			tnorm:     fuzzy.Product,
			wantNodes: 2,
			wantEdges: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Serialize(tt.build(), tt.tnorm)
			if d.Nodes == nil || d.Edges == nil {
				t.Fatal("serialized slices must be non-nil")
			}
			if len(d.Nodes) != tt.wantNodes {
				t.Errorf("nodes = %d, want %d", len(d.Nodes), tt.wantNodes)
			}
			if len(d.Edges) != tt.wantEdges {
				t.Errorf("edges = %d, want %d", len(d.Edges), tt.wantEdges)
			}
			if d.TNorm != tt.tnorm {
				t.Errorf("tnorm = %q, want %q", d.TNorm, tt.tnorm)
			}
		})
	}
}

func TestSerializeWireFormat(t *testing.T) {
	g := New(SlotLeft, nil)
	a, b := g.AddNode(0.8), g.AddNode(0.6)
	if _, err := g.AddEdge(a, b, 0.5, fuzzy.Minimum); err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(Serialize(g, fuzzy.Lukasiewicz))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"nodes":[{"name":"Node1","membershipFunction":0.8},{"name":"Node2","membershipFunction":0.6}],` +
		`"edges":[{"source":"Node1","target":"Node2","weight":0.5}],"tnorm":"luk"}`
	if string(data) != want {
		t.Errorf("wire format\n got: %s\nwant: %s", data, want)
	}

	empty, _ := json.Marshal(g.Snapshot().WithTNorm(""))
	if strings.Contains(string(empty), "tnorm") {
		t.Errorf("empty tnorm should be omitted: %s", empty)
	}
	if s, _ := json.Marshal(Serialize(New(SlotRight, nil), fuzzy.Minimum)); !strings.Contains(string(s), `"edges":[]`) {
		t.Errorf("empty graph should encode empty arrays: %s", s)
	}
}

func TestReadGraph(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  string
		wantCode errors.Code
	}{
		{
			name:  "Valid",
			input: `{"nodes":[{"name":"a","membershipFunction":0.5},{"name":"b","membershipFunction":1}],"edges":[{"source":"a","target":"b","weight":0.4}]}`,
		},
		{
			name:  "MissingArrays",
			input: `{}`,
		},
		{
			name:     "InvalidJSON",
			input:    `{invalid`,
			wantErr:  "decode graph",
			wantCode: errors.ErrCodeInvalidArgument,
		},
		{
			name:     "UnknownEndpoint",
			input:    `{"nodes":[{"name":"a"}],"edges":[{"source":"a","target":"z","weight":0.1}]}`,
			wantErr:  "unknown target",
			wantCode: errors.ErrCodeNotFound,
		},
		{
			name:     "DuplicateNode",
			input:    `{"nodes":[{"name":"a"},{"name":"a"}]}`,
			wantErr:  "duplicate node",
			wantCode: errors.ErrCodeInvalidArgument,
		},
		{
			name:     "UnknownTNorm",
			input:    `{"nodes":[],"edges":[],"tnorm":"max"}`,
			wantErr:  "unknown t-norm",
			wantCode: errors.ErrCodeInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ReadGraph(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error %q should contain %q", err.Error(), tt.wantErr)
				}
				if !errors.Is(err, tt.wantCode) {
					t.Errorf("error code = %q, want %q", errors.GetCode(err), tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadGraph: %v", err)
			}
			if d.Nodes == nil || d.Edges == nil {
				t.Error("slices must be non-nil")
			}
		})
	}
}

func TestReadGraphClamps(t *testing.T) {
	d, err := ReadGraph(strings.NewReader(`{"nodes":[{"name":"a","membershipFunction":3},{"name":"b","membershipFunction":-1}],"edges":[{"source":"a","target":"b","weight":9}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if d.Nodes[0].MembershipFunction != 1 || d.Nodes[1].MembershipFunction != 0 {
		t.Errorf("node memberships not clamped: %+v", d.Nodes)
	}
	if d.Edges[0].Weight != 1 {
		t.Errorf("weight not clamped: %v", d.Edges[0].Weight)
	}
}

func TestGraphFileRoundTrip(t *testing.T) {
	g := New(SlotLeft, nil)
	a, b := g.AddNode(0.9), g.AddNode(0.7)
	g.AddEdge(a, b, 0.6, fuzzy.Minimum)

	path := filepath.Join(t.TempDir(), "graph.json")
	if err := WriteGraphFile(Serialize(g, fuzzy.Minimum), path); err != nil {
		t.Fatalf("WriteGraphFile: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(raw, []byte("\n  \"nodes\"")) {
		t.Errorf("expected indented output, got %s", raw)
	}

	d, err := ReadGraphFile(path)
	if err != nil {
		t.Fatalf("ReadGraphFile: %v", err)
	}

	h := New(SlotRight, nil)
	if err := h.Load(d, d.TNorm); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if h.NodeCount() != 2 || h.EdgeCount() != 1 {
		t.Errorf("loaded %d nodes %d edges, want 2 and 1", h.NodeCount(), h.EdgeCount())
	}
}

func TestReadGraphFileMissing(t *testing.T) {
	_, err := ReadGraphFile(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestMarshalGraph(t *testing.T) {
	out, err := MarshalGraph(GraphData{})
	if err != nil {
		t.Fatal(err)
	}
	var back GraphData
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatal(err)
	}
	if back.Nodes == nil || back.Edges == nil {
		t.Errorf("zero GraphData should marshal with empty arrays: %s", out)
	}
}
