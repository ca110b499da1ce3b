package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/graphsim/fuzzygraph/pkg/analysis"
	"github.com/graphsim/fuzzygraph/pkg/editor"
	"github.com/graphsim/fuzzygraph/pkg/errors"
	"github.com/graphsim/fuzzygraph/pkg/fuzzy"
	"github.com/graphsim/fuzzygraph/pkg/graph"
)

// degree is a membership given as a JSON number or a numeric string.
// Values outside [0,1] are clamped.
type degree float64

func (d *degree) UnmarshalJSON(data []byte) error {
	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		raw = string(bytes.TrimSpace(data))
	}
	v, err := fuzzy.ParseMembership(raw)
	if err != nil {
		return err
	}
	*d = degree(v)
	return nil
}

type editorResponse struct {
	ID string `json:"id"`
	editor.View
	Errors map[editor.Field]errorBody `json:"errors,omitempty"`
}

type resultsResponse struct {
	editor.Results
	Errors map[editor.Field]errorBody `json:"errors,omitempty"`
}

func fieldErrors(r editor.Results) map[editor.Field]errorBody {
	if len(r.Errors) == 0 {
		return nil
	}
	out := make(map[editor.Field]errorBody, len(r.Errors))
	for f, err := range r.Errors {
		out[f] = newErrorBody(err)
	}
	return out
}

// withEditor resolves the {editor} parameter.
func (s *Server) withEditor(fn func(http.ResponseWriter, *http.Request, *editor.Editor)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, err := s.lookup(chi.URLParam(r, "editor"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		fn(w, r, ed)
	}
}

// withSlot resolves the {editor} and {slot} parameters.
func (s *Server) withSlot(fn func(http.ResponseWriter, *http.Request, *editor.Editor, graph.Slot)) http.HandlerFunc {
	return s.withEditor(func(w http.ResponseWriter, r *http.Request, ed *editor.Editor) {
		slot, err := graph.ParseSlot(chi.URLParam(r, "slot"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		fn(w, r, ed, slot)
	})
}

// =============================================================================
// Sessions
// =============================================================================

func (s *Server) createEditor(w http.ResponseWriter, r *http.Request) {
	id, ed := s.create()
	s.logger.Debug("editor created", "id", id)
	writeJSON(w, http.StatusCreated, editorResponse{ID: id.String(), View: ed.View()})
}

func (s *Server) getEditor(w http.ResponseWriter, r *http.Request) {
	s.withEditor(func(w http.ResponseWriter, r *http.Request, ed *editor.Editor) {
		v := ed.View()
		writeJSON(w, http.StatusOK, editorResponse{
			ID:     chi.URLParam(r, "editor"),
			View:   v,
			Errors: fieldErrors(v.Results),
		})
	})(w, r)
}

func (s *Server) deleteEditor(w http.ResponseWriter, r *http.Request) {
	if err := s.remove(chi.URLParam(r, "editor")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setTNorm(w http.ResponseWriter, r *http.Request) {
	s.withEditor(func(w http.ResponseWriter, r *http.Request, ed *editor.Editor) {
		var req struct {
			TNorm string `json:"tnorm"`
		}
		if err := decode(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		t, err := fuzzy.ParseTNorm(req.TNorm)
		if err == nil {
			err = ed.SetTNorm(t)
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]fuzzy.TNorm{"tnorm": t})
	})(w, r)
}

// =============================================================================
// Graph commands
// =============================================================================

func (s *Server) addNode(w http.ResponseWriter, r *http.Request) {
	s.withSlot(func(w http.ResponseWriter, r *http.Request, ed *editor.Editor, slot graph.Slot) {
		var req struct {
			Membership *degree `json:"membership"`
		}
		if err := decode(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		if req.Membership == nil {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidArgument, "membership is required"))
			return
		}
		id, err := ed.AddNode(slot, float64(*req.Membership))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": id})
	})(w, r)
}

func (s *Server) removeNode(w http.ResponseWriter, r *http.Request) {
	s.withSlot(func(w http.ResponseWriter, r *http.Request, ed *editor.Editor, slot graph.Slot) {
		if err := ed.RemoveNode(slot, chi.URLParam(r, "node")); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})(w, r)
}

func (s *Server) moveNode(w http.ResponseWriter, r *http.Request) {
	s.withSlot(func(w http.ResponseWriter, r *http.Request, ed *editor.Editor, slot graph.Slot) {
		var pos graph.Position
		if err := decode(r, &pos); err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := ed.MoveNode(slot, chi.URLParam(r, "node"), pos); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})(w, r)
}

func (s *Server) toggleSelection(w http.ResponseWriter, r *http.Request) {
	s.withSlot(func(w http.ResponseWriter, r *http.Request, ed *editor.Editor, slot graph.Slot) {
		ch, err := ed.ToggleSelection(slot, chi.URLParam(r, "node"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ch)
	})(w, r)
}

func (s *Server) addEdge(w http.ResponseWriter, r *http.Request) {
	s.withSlot(func(w http.ResponseWriter, r *http.Request, ed *editor.Editor, slot graph.Slot) {
		var req struct {
			Source     string  `json:"source"`
			Target     string  `json:"target"`
			Membership *degree `json:"membership"`
		}
		if err := decode(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		if req.Membership == nil {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidArgument, "membership is required"))
			return
		}

		var (
			edge graph.Edge
			err  error
		)
		switch {
		case req.Source == "" && req.Target == "":
			edge, err = ed.AddEdge(slot, float64(*req.Membership))
		case req.Source == "" || req.Target == "":
			err = errors.New(errors.ErrCodeInvalidArgument, "source and target must be given together")
		default:
			edge, err = ed.AddEdgeBetween(slot, req.Source, req.Target, float64(*req.Membership))
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, edge)
	})(w, r)
}

func (s *Server) removeEdge(w http.ResponseWriter, r *http.Request) {
	s.withSlot(func(w http.ResponseWriter, r *http.Request, ed *editor.Editor, slot graph.Slot) {
		if err := ed.RemoveEdge(slot, chi.URLParam(r, "edge")); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})(w, r)
}

func (s *Server) clearGraph(w http.ResponseWriter, r *http.Request) {
	s.withSlot(func(w http.ResponseWriter, r *http.Request, ed *editor.Editor, slot graph.Slot) {
		if err := ed.ClearGraph(slot); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})(w, r)
}

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	s.withSlot(func(w http.ResponseWriter, r *http.Request, ed *editor.Editor, slot graph.Slot) {
		withTNorm, _ := strconv.ParseBool(r.URL.Query().Get("tnorm"))
		d, err := ed.Serialize(slot, withTNorm)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	})(w, r)
}

func (s *Server) loadGraph(w http.ResponseWriter, r *http.Request) {
	s.withSlot(func(w http.ResponseWriter, r *http.Request, ed *editor.Editor, slot graph.Slot) {
		d, err := graph.ReadGraph(r.Body)
		if err == nil {
			err = ed.Load(slot, d)
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})(w, r)
}

// =============================================================================
// Analysis
// =============================================================================

// compute runs the full compute flow. Per-field failures are reported in
// the body; the request itself succeeds.
func (s *Server) compute(w http.ResponseWriter, r *http.Request) {
	s.withEditor(func(w http.ResponseWriter, r *http.Request, ed *editor.Editor) {
		if err := ed.ComputeAll(r.Context()); err != nil {
			s.logger.Debug("compute finished with errors", "err", err)
		}
		res := ed.Results()
		writeJSON(w, http.StatusOK, resultsResponse{Results: res, Errors: fieldErrors(res)})
	})(w, r)
}

func (s *Server) twinWidth(w http.ResponseWriter, r *http.Request) {
	s.withSlot(func(w http.ResponseWriter, r *http.Request, ed *editor.Editor, slot graph.Slot) {
		v, err := ed.RequestTwinWidth(r.Context(), slot)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]analysis.Value{"tw": v})
	})(w, r)
}

func (s *Server) isomorphism(w http.ResponseWriter, r *http.Request) {
	s.withEditor(func(w http.ResponseWriter, r *http.Request, ed *editor.Editor) {
		iso, err := ed.RequestIsomorphism(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, iso)
	})(w, r)
}
