package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/graphsim/fuzzygraph/pkg/analysis"
	"github.com/graphsim/fuzzygraph/pkg/editor"
	"github.com/graphsim/fuzzygraph/pkg/errors"
	"github.com/graphsim/fuzzygraph/pkg/fuzzy"
	"github.com/graphsim/fuzzygraph/pkg/graph"
)

type stubAnalyzer struct {
	twErr error
}

func (a *stubAnalyzer) ComputeTwinWidth(_ context.Context, d graph.GraphData, _ fuzzy.TNorm) (*analysis.TwinWidthResult, error) {
	if a.twErr != nil {
		return nil, a.twErr
	}
	return &analysis.TwinWidthResult{Value: analysis.Number(float64(len(d.Nodes)))}, nil
}

func (a *stubAnalyzer) CheckIsomorphism(_ context.Context, left, right graph.GraphData) (*analysis.Isomorphism, error) {
	if len(left.Nodes) != len(right.Nodes) {
		return &analysis.Isomorphism{}, nil
	}
	return &analysis.Isomorphism{Isomorphic: true, Mappings: []map[string]string{{}}}, nil
}

func (a *stubAnalyzer) ComputeSimilarity(context.Context, graph.GraphData, graph.GraphData, fuzzy.TNorm) (analysis.Value, error) {
	return analysis.Number(0.5), nil
}

type apiClient struct {
	t   *testing.T
	srv *httptest.Server
}

func newTestAPI(t *testing.T, a editor.Analyzer) (*apiClient, *Server) {
	t.Helper()
	s := New(func() *editor.Editor { return editor.New(a) }, nil, time.Hour)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &apiClient{t: t, srv: srv}, s
}

func (c *apiClient) do(method, path string, body any) (int, []byte) {
	c.t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(c.t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.srv.URL+path, rd)
	require.NoError(c.t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, out
}

func (c *apiClient) newEditor() string {
	c.t.Helper()
	status, body := c.do(http.MethodPost, "/editors", nil)
	require.Equal(c.t, http.StatusCreated, status)
	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(c.t, json.Unmarshal(body, &resp))
	return resp.ID
}

func (c *apiClient) addNode(ed, slot string, membership any) string {
	c.t.Helper()
	status, body := c.do(http.MethodPost, "/editors/"+ed+"/"+slot+"/nodes", map[string]any{"membership": membership})
	require.Equal(c.t, http.StatusCreated, status, string(body))
	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(c.t, json.Unmarshal(body, &resp))
	return resp.ID
}

func decodeError(t *testing.T, body []byte) errorBody {
	t.Helper()
	var e errorBody
	require.NoError(t, json.Unmarshal(body, &e))
	return e
}

func TestHealthz(t *testing.T) {
	api, _ := newTestAPI(t, &stubAnalyzer{})
	status, body := api.do(http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "OK", string(body))
}

func TestEditorLifecycle(t *testing.T) {
	api, s := newTestAPI(t, &stubAnalyzer{})
	id := api.newEditor()
	require.Equal(t, 1, s.Len())

	status, _ := api.do(http.MethodGet, "/editors/"+id, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = api.do(http.MethodDelete, "/editors/"+id, nil)
	require.Equal(t, http.StatusNoContent, status)
	require.Equal(t, 0, s.Len())

	status, body := api.do(http.MethodGet, "/editors/"+id, nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, errors.ErrCodeNotFound, decodeError(t, body).Code)

	status, _ = api.do(http.MethodGet, "/editors/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestEdgeFlowThroughSelection(t *testing.T) {
	api, _ := newTestAPI(t, &stubAnalyzer{})
	ed := api.newEditor()
	a := api.addNode(ed, "left", 0.8)
	b := api.addNode(ed, "left", "0.6")

	// no pair armed yet
	status, _ := api.do(http.MethodPost, "/editors/"+ed+"/left/edges", map[string]any{"membership": 0.9})
	require.Equal(t, http.StatusBadRequest, status)

	api.do(http.MethodPost, "/editors/"+ed+"/left/selection/"+a, nil)
	status, body := api.do(http.MethodPost, "/editors/"+ed+"/left/selection/"+b, nil)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"state":"two","armed":["`+a+`","`+b+`"],"canCreateEdge":true}`, string(body))

	status, body = api.do(http.MethodPost, "/editors/"+ed+"/left/edges", map[string]any{"membership": 0.9})
	require.Equal(t, http.StatusCreated, status, string(body))
	var edge graph.Edge
	require.NoError(t, json.Unmarshal(body, &edge))
	require.Equal(t, a+b, edge.ID)
	require.InDelta(t, 0.6, edge.Membership, 1e-9)

	status, body = api.do(http.MethodPost, "/editors/"+ed+"/left/edges", map[string]any{"source": a, "target": b, "membership": 0.1})
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, errors.ErrCodeDuplicateEdge, decodeError(t, body).Code)

	status, _ = api.do(http.MethodDelete, "/editors/"+ed+"/left/edges/"+edge.ID, nil)
	require.Equal(t, http.StatusNoContent, status)
	status, _ = api.do(http.MethodDelete, "/editors/"+ed+"/left/edges/"+edge.ID, nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestWriteJSONEncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"tw": math.NaN()})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "INTERNAL_ERROR")

	rec = httptest.NewRecorder()
	writeJSON(rec, http.StatusCreated, map[string]string{"id": "x"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.JSONEq(t, `{"id":"x"}`, rec.Body.String())
}

func TestMoveAndRemoveNode(t *testing.T) {
	api, _ := newTestAPI(t, &stubAnalyzer{})
	ed := api.newEditor()
	a := api.addNode(ed, "left", 0.5)
	b := api.addNode(ed, "left", 0.5)
	api.do(http.MethodPost, "/editors/"+ed+"/left/edges", map[string]any{"source": a, "target": b, "membership": 0.2})
	api.do(http.MethodPost, "/editors/"+ed+"/left/selection/"+a, nil)

	status, _ := api.do(http.MethodPut, "/editors/"+ed+"/left/nodes/"+a+"/position", map[string]any{"x": 1.5, "y": 0.25})
	require.Equal(t, http.StatusNoContent, status)
	status, _ = api.do(http.MethodPut, "/editors/"+ed+"/left/nodes/Node99/position", map[string]any{"x": 0, "y": 0})
	require.Equal(t, http.StatusNotFound, status)

	var view editor.View
	_, body := api.do(http.MethodGet, "/editors/"+ed, nil)
	require.NoError(t, json.Unmarshal(body, &view))
	left := view.Slots[graph.SlotLeft]
	require.Equal(t, graph.Position{X: 1, Y: 0.25}, left.Nodes[0].Position)
	require.Equal(t, []string{a}, left.Armed)

	status, _ = api.do(http.MethodDelete, "/editors/"+ed+"/left/nodes/"+a, nil)
	require.Equal(t, http.StatusNoContent, status)

	view = editor.View{}
	_, body = api.do(http.MethodGet, "/editors/"+ed, nil)
	require.NoError(t, json.Unmarshal(body, &view))
	left = view.Slots[graph.SlotLeft]
	require.Len(t, left.Nodes, 1)
	require.Empty(t, left.Edges)
	require.Empty(t, left.Armed)
}

func TestBadInput(t *testing.T) {
	api, _ := newTestAPI(t, &stubAnalyzer{})
	ed := api.newEditor()

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"UnknownSlot", http.MethodPost, "/editors/" + ed + "/middle/nodes", map[string]any{"membership": 1}, http.StatusBadRequest},
		{"NonNumericMembership", http.MethodPost, "/editors/" + ed + "/left/nodes", map[string]any{"membership": "abc"}, http.StatusBadRequest},
		{"MissingMembership", http.MethodPost, "/editors/" + ed + "/left/nodes", map[string]any{}, http.StatusBadRequest},
		{"MalformedJSON", http.MethodPost, "/editors/" + ed + "/left/nodes", `{"membership":`, http.StatusBadRequest},
		{"UnknownTNorm", http.MethodPut, "/editors/" + ed + "/tnorm", map[string]any{"tnorm": "max"}, http.StatusBadRequest},
		{"ToggleMissingNode", http.MethodPost, "/editors/" + ed + "/left/selection/Node99", nil, http.StatusNotFound},
		{"RemoveMissingNode", http.MethodDelete, "/editors/" + ed + "/right/nodes/Node99", nil, http.StatusNotFound},
		{"HalfEdge", http.MethodPost, "/editors/" + ed + "/left/edges", map[string]any{"source": "Node1", "membership": 1}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := api.do(tt.method, tt.path, tt.body)
			require.Equal(t, tt.want, status, string(body))
		})
	}
}

func TestGraphExportAndImport(t *testing.T) {
	api, _ := newTestAPI(t, &stubAnalyzer{})
	ed := api.newEditor()
	api.addNode(ed, "left", 0.5)

	status, _ := api.do(http.MethodPut, "/editors/"+ed+"/tnorm", map[string]any{"tnorm": "prod"})
	require.Equal(t, http.StatusOK, status)

	_, body := api.do(http.MethodGet, "/editors/"+ed+"/left/graph?tnorm=1", nil)
	var d graph.GraphData
	require.NoError(t, json.Unmarshal(body, &d))
	require.Equal(t, fuzzy.Product, d.TNorm)
	require.Len(t, d.Nodes, 1)

	_, body = api.do(http.MethodGet, "/editors/"+ed+"/left/graph", nil)
	require.NotContains(t, string(body), "tnorm")

	status, _ = api.do(http.MethodPut, "/editors/"+ed+"/right/graph", string(body))
	require.Equal(t, http.StatusNoContent, status)

	status, _ = api.do(http.MethodDelete, "/editors/"+ed+"/left", nil)
	require.Equal(t, http.StatusNoContent, status)
	_, body = api.do(http.MethodGet, "/editors/"+ed+"/left/graph", nil)
	require.JSONEq(t, `{"nodes":[],"edges":[]}`, string(body))
}

func TestCompute(t *testing.T) {
	api, _ := newTestAPI(t, &stubAnalyzer{})
	ed := api.newEditor()
	api.addNode(ed, "left", 1)
	api.addNode(ed, "left", 1)

	status, body := api.do(http.MethodPost, "/editors/"+ed+"/compute", nil)
	require.Equal(t, http.StatusOK, status)
	var res struct {
		TwinWidth  map[string]any `json:"twinWidth"`
		Similarity any            `json:"similarity"`
		Errors     map[string]any `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(body, &res))
	require.EqualValues(t, 2, res.TwinWidth["left"])
	require.EqualValues(t, 0, res.TwinWidth["right"])
	require.EqualValues(t, 0.5, res.Similarity)
	require.Empty(t, res.Errors)

	status, body = api.do(http.MethodPost, "/editors/"+ed+"/isomorphism", nil)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"isomorphic":false}`, string(body))
}

func TestComputeReportsTransportFailure(t *testing.T) {
	api, _ := newTestAPI(t, &stubAnalyzer{twErr: errors.Transport("/get-tw", 500, "boom")})
	ed := api.newEditor()

	status, body := api.do(http.MethodPost, "/editors/"+ed+"/compute", nil)
	require.Equal(t, http.StatusOK, status)
	var res struct {
		TwinWidth map[string]any       `json:"twinWidth"`
		Errors    map[string]errorBody `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(body, &res))
	require.Equal(t, "X", res.TwinWidth["left"])
	require.Equal(t, errors.ErrCodeTransport, res.Errors["tw_left"].Code)
	require.NotContains(t, res.Errors, "similarity")

	status, body = api.do(http.MethodPost, "/editors/"+ed+"/left/twinwidth", nil)
	require.Equal(t, http.StatusBadGateway, status)
	require.Contains(t, decodeError(t, body).Error, "status 500")
}

func TestIdleEditorsExpire(t *testing.T) {
	s := New(func() *editor.Editor { return editor.New(&stubAnalyzer{}) }, nil, time.Millisecond)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	api := &apiClient{t: t, srv: srv}

	id := api.newEditor()
	time.Sleep(10 * time.Millisecond)

	status, body := api.do(http.MethodGet, "/editors/"+id, nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Contains(t, decodeError(t, body).Error, "expired")
}
