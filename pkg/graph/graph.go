package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/graphsim/fuzzygraph/pkg/errors"
	"github.com/graphsim/fuzzygraph/pkg/fuzzy"
)

// =============================================================================
// Graph Serialization API
// =============================================================================

// Serialize projects g into the analysis wire format and attaches t.
// An empty graph yields empty (non-nil) node and edge lists.
func Serialize(g *Graph, t fuzzy.TNorm) GraphData {
	return g.Snapshot().WithTNorm(t)
}

// MarshalGraph converts GraphData to indented JSON bytes.
func MarshalGraph(d GraphData) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeGraphTo(d, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGraphFile writes GraphData to a JSON file.
// The file is created with 0644 permissions.
func WriteGraphFile(d GraphData, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeGraphTo(d, f)
}

// WriteGraph writes GraphData as JSON to an io.Writer.
func WriteGraph(d GraphData, w io.Writer) error {
	return writeGraphTo(d, w)
}

// ReadGraphFile reads and validates a JSON graph file.
func ReadGraphFile(path string) (GraphData, error) {
	f, err := os.Open(path)
	if err != nil {
		return GraphData{}, errors.Wrap(errors.ErrCodeNotFound, err, "open %s", path)
	}
	defer f.Close()
	return readGraphFrom(f)
}

// ReadGraph decodes a JSON graph from an io.Reader. The result is validated
// and normalized: memberships and weights are clamped into [0,1].
func ReadGraph(r io.Reader) (GraphData, error) {
	return readGraphFrom(r)
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeGraphTo(d GraphData, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d.Normalize()); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readGraphFrom(r io.Reader) (GraphData, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return GraphData{}, fmt.Errorf("read: %w", err)
	}
	d, err := UnmarshalGraph(raw)
	if err != nil {
		return GraphData{}, err
	}
	if err := d.Validate(); err != nil {
		return GraphData{}, err
	}
	return d.Normalize(), nil
}
