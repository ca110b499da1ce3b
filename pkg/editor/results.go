package editor

import (
	"maps"
	"slices"

	"github.com/graphsim/fuzzygraph/pkg/analysis"
	"github.com/graphsim/fuzzygraph/pkg/graph"
)

// Field names one analysis result.
type Field string

// Result fields.
const (
	FieldTwinWidthLeft  Field = "tw_left"
	FieldTwinWidthRight Field = "tw_right"
	FieldSimilarity     Field = "similarity"
	FieldIsomorphism    Field = "isomorphism"
)

// Fields lists every field in display order.
var Fields = []Field{FieldTwinWidthLeft, FieldTwinWidthRight, FieldSimilarity, FieldIsomorphism}

// TwinWidthField returns the twin-width field of slot.
func TwinWidthField(s graph.Slot) Field {
	if s == graph.SlotRight {
		return FieldTwinWidthRight
	}
	return FieldTwinWidthLeft
}

// Results holds the most recent answer per field.
type Results struct {
	TwinWidth   map[graph.Slot]analysis.Value `json:"twinWidth"`
	Sequences   map[graph.Slot][][][2]string  `json:"sequences,omitempty"`
	Similarity  analysis.Value                `json:"similarity"`
	Isomorphism *analysis.Isomorphism         `json:"isomorphism,omitempty"`
	Errors      map[Field]error               `json:"-"`
}

func newResults() Results {
	return Results{
		TwinWidth: map[graph.Slot]analysis.Value{},
		Sequences: map[graph.Slot][][][2]string{},
		Errors:    map[Field]error{},
	}
}

// clone returns a deep copy; callers may modify it freely.
func (r Results) clone() Results {
	out := Results{
		TwinWidth:   maps.Clone(r.TwinWidth),
		Sequences:   make(map[graph.Slot][][][2]string, len(r.Sequences)),
		Similarity:  r.Similarity,
		Isomorphism: cloneIsomorphism(r.Isomorphism),
		Errors:      maps.Clone(r.Errors),
	}
	for s, seqs := range r.Sequences {
		out.Sequences[s] = cloneSequences(seqs)
	}
	return out
}

func cloneSequences(seqs [][][2]string) [][][2]string {
	if seqs == nil {
		return nil
	}
	out := make([][][2]string, len(seqs))
	for i, seq := range seqs {
		out[i] = slices.Clone(seq)
	}
	return out
}

func cloneIsomorphism(iso *analysis.Isomorphism) *analysis.Isomorphism {
	if iso == nil {
		return nil
	}
	cp := *iso
	if iso.Mappings != nil {
		cp.Mappings = make([]map[string]string, len(iso.Mappings))
		for i, m := range iso.Mappings {
			cp.Mappings[i] = maps.Clone(m)
		}
	}
	return &cp
}

// Err returns the error recorded for f by its latest request, if any.
func (r Results) Err(f Field) error { return r.Errors[f] }
