package editor

import (
	"context"
	stderrors "errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/graphsim/fuzzygraph/pkg/analysis"
	"github.com/graphsim/fuzzygraph/pkg/errors"
	"github.com/graphsim/fuzzygraph/pkg/fuzzy"
	"github.com/graphsim/fuzzygraph/pkg/graph"
	"github.com/graphsim/fuzzygraph/pkg/observability"
	"github.com/graphsim/fuzzygraph/pkg/selection"
)

// Analyzer computes graph metrics. *analysis.Client implements it.
type Analyzer interface {
	ComputeTwinWidth(ctx context.Context, d graph.GraphData, t fuzzy.TNorm) (*analysis.TwinWidthResult, error)
	CheckIsomorphism(ctx context.Context, left, right graph.GraphData) (*analysis.Isomorphism, error)
	ComputeSimilarity(ctx context.Context, left, right graph.GraphData, t fuzzy.TNorm) (analysis.Value, error)
}

// Option configures an Editor.
type Option func(*Editor)

// WithTNorm sets the initial t-norm (default min). Invalid values are ignored.
func WithTNorm(t fuzzy.TNorm) Option {
	return func(e *Editor) {
		if t.Valid() {
			e.tnorm = t
		}
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(l *log.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithParallel makes ComputeAll issue its requests concurrently.
func WithParallel(parallel bool) Option {
	return func(e *Editor) { e.parallel = parallel }
}

type workspace struct {
	graph *graph.Graph
	sel   *selection.Controller
}

// Editor is one editing session over a pair of fuzzy graphs.
// All methods are safe for concurrent use.
type Editor struct {
	mu       sync.Mutex
	ids      *graph.Counter
	slots    map[graph.Slot]*workspace
	tnorm    fuzzy.TNorm
	analyzer Analyzer
	parallel bool
	results  Results
	gens     map[Field]uint64
	busy     atomic.Int32
	logger   *log.Logger

	selObservers []func(graph.Slot, selection.Change)
}

// New creates an editor with two empty slots. A nil analyzer makes every
// analysis request fail; the model commands still work.
func New(analyzer Analyzer, opts ...Option) *Editor {
	e := &Editor{
		ids:      graph.NewCounter(),
		slots:    make(map[graph.Slot]*workspace, len(graph.Slots)),
		tnorm:    fuzzy.Minimum,
		analyzer: analyzer,
		results:  newResults(),
		gens:     make(map[Field]uint64, len(Fields)),
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	for _, s := range graph.Slots {
		e.slots[s] = e.newWorkspace(s)
	}
	return e
}

// newWorkspace ties a graph to its selection: deleted nodes are forgotten
// and a cleared graph resets the selection.
func (e *Editor) newWorkspace(s graph.Slot) *workspace {
	ws := &workspace{graph: graph.New(s, e.ids), sel: selection.New()}
	ws.graph.OnNodeRemoved(ws.sel.Forget)
	ws.graph.OnClear(ws.sel.Reset)
	ws.sel.Subscribe(func(ch selection.Change) {
		for _, fn := range e.selObservers {
			fn(s, ch)
		}
	})
	return ws
}

// OnSelectionChange registers fn for every selection transition in either
// slot. fn runs with the editor locked and must not call back into it.
func (e *Editor) OnSelectionChange(fn func(graph.Slot, selection.Change)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selObservers = append(e.selObservers, fn)
}

func (e *Editor) workspace(s graph.Slot) (*workspace, error) {
	ws, ok := e.slots[s]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "unknown graph slot %q", string(s))
	}
	return ws, nil
}

func (e *Editor) command(op string, s graph.Slot, err error, kv ...any) {
	observability.Editor().OnCommand(context.Background(), op, string(s), err)
	if err != nil {
		e.logger.Debug(op+" failed", append([]any{"slot", s, "err", err}, kv...)...)
		return
	}
	e.logger.Debug(op, append([]any{"slot", s}, kv...)...)
}

// =============================================================================
// Model commands
// =============================================================================

// AddNode adds a node with membership clamped into [0,1] and returns its id.
func (e *Editor) AddNode(s graph.Slot, membership float64) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ws, err := e.workspace(s)
	if err != nil {
		return "", err
	}
	id := ws.graph.AddNode(membership)
	e.command("add_node", s, nil, "id", id)
	return id, nil
}

// RemoveNode deletes a node with its incident edges and drops it from the
// selection.
func (e *Editor) RemoveNode(s graph.Slot, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	ws, err := e.workspace(s)
	if err != nil {
		return err
	}
	err = ws.graph.RemoveNode(id)
	e.command("remove_node", s, err, "id", id)
	return err
}

// MoveNode stores a new relative position for a node.
func (e *Editor) MoveNode(s graph.Slot, id string, pos graph.Position) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	ws, err := e.workspace(s)
	if err != nil {
		return err
	}
	return ws.graph.MoveNode(id, pos)
}

// ToggleSelection arms or releases a node. NOT_FOUND if it does not exist.
func (e *Editor) ToggleSelection(s graph.Slot, id string) (selection.Change, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ws, err := e.workspace(s)
	if err != nil {
		return selection.Change{}, err
	}
	if !ws.graph.HasNode(id) {
		return selection.Change{}, errors.New(errors.ErrCodeNotFound, "node %s not found in %s graph", id, s)
	}
	return ws.sel.Toggle(id), nil
}

// AddEdge connects the two armed nodes of slot, earliest armed as source.
// The selection is left as is.
func (e *Editor) AddEdge(s graph.Slot, requested float64) (graph.Edge, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ws, err := e.workspace(s)
	if err != nil {
		return graph.Edge{}, err
	}
	src, tgt, ok := ws.sel.Pair()
	if !ok {
		return graph.Edge{}, errors.New(errors.ErrCodeInvalidArgument, "select two nodes in the %s graph first", s)
	}
	return e.addEdge(ws, src, tgt, requested)
}

// AddEdgeBetween connects source to target regardless of the selection.
func (e *Editor) AddEdgeBetween(s graph.Slot, source, target string, requested float64) (graph.Edge, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ws, err := e.workspace(s)
	if err != nil {
		return graph.Edge{}, err
	}
	return e.addEdge(ws, source, target, requested)
}

func (e *Editor) addEdge(ws *workspace, src, tgt string, requested float64) (graph.Edge, error) {
	edge, err := ws.graph.AddEdge(src, tgt, requested, e.tnorm)
	e.command("add_edge", ws.graph.Slot(), err, "source", src, "target", tgt,
		"requested", requested, "stored", edge.Membership, "tnorm", e.tnorm)
	return edge, err
}

// RemoveEdge deletes an edge by id.
func (e *Editor) RemoveEdge(s graph.Slot, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	ws, err := e.workspace(s)
	if err != nil {
		return err
	}
	err = ws.graph.RemoveEdge(id)
	e.command("remove_edge", s, err, "id", id)
	return err
}

// ClearGraph empties a slot and its selection. Node ids keep counting.
func (e *Editor) ClearGraph(s graph.Slot) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	ws, err := e.workspace(s)
	if err != nil {
		return err
	}
	ws.graph.Clear()
	e.command("clear", s, nil)
	return nil
}

// Load replaces a slot with imported graph data. Edge memberships are
// re-bounded under the current t-norm.
func (e *Editor) Load(s graph.Slot, d graph.GraphData) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	ws, err := e.workspace(s)
	if err != nil {
		return err
	}
	err = ws.graph.Load(d, e.tnorm)
	e.command("load", s, err, "nodes", len(d.Nodes), "edges", len(d.Edges))
	return err
}

// SetTNorm changes the t-norm for future edges and requests. Existing
// edges keep their memberships.
func (e *Editor) SetTNorm(t fuzzy.TNorm) error {
	if !t.Valid() {
		return errors.New(errors.ErrCodeInvalidArgument, "unknown t-norm %q", string(t))
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tnorm = t
	e.logger.Debug("tnorm changed", "tnorm", t)
	return nil
}

// TNorm returns the selected t-norm.
func (e *Editor) TNorm() fuzzy.TNorm {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tnorm
}

// Serialize returns the wire form of a slot, carrying the t-norm when
// withTNorm is set.
func (e *Editor) Serialize(s graph.Slot, withTNorm bool) (graph.GraphData, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ws, err := e.workspace(s)
	if err != nil {
		return graph.GraphData{}, err
	}
	if withTNorm {
		return graph.Serialize(ws.graph, e.tnorm), nil
	}
	return ws.graph.Snapshot(), nil
}

// =============================================================================
// Views
// =============================================================================

// SlotView is a read-only copy of one slot.
type SlotView struct {
	Nodes         []graph.Node `json:"nodes"`
	Edges         []graph.Edge `json:"edges"`
	Armed         []string     `json:"armed"`
	CanCreateEdge bool         `json:"canCreateEdge"`
}

// View is a read-only copy of the whole editor.
type View struct {
	TNorm   fuzzy.TNorm             `json:"tnorm"`
	Slots   map[graph.Slot]SlotView `json:"slots"`
	Results Results                 `json:"results"`
	Busy    bool                    `json:"busy"`
}

// View snapshots the editor.
func (e *Editor) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	v := View{
		TNorm:   e.tnorm,
		Slots:   make(map[graph.Slot]SlotView, len(e.slots)),
		Results: e.results.clone(),
		Busy:    e.Busy(),
	}
	for s, ws := range e.slots {
		v.Slots[s] = SlotView{
			Nodes:         ws.graph.Nodes(),
			Edges:         ws.graph.Edges(),
			Armed:         ws.sel.Armed(),
			CanCreateEdge: ws.sel.CanCreateEdge(),
		}
	}
	return v
}

// Results returns a copy of the current results.
func (e *Editor) Results() Results {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.results.clone()
}

// Busy reports whether a ComputeAll run is in progress.
func (e *Editor) Busy() bool { return e.busy.Load() > 0 }

// =============================================================================
// Analysis requests
// =============================================================================

// begin starts a request for f and returns its generation. Caller holds mu.
func (e *Editor) begin(f Field) uint64 {
	e.gens[f]++
	observability.Editor().OnAnalysisStart(context.Background(), string(f))
	return e.gens[f]
}

// finish reports whether the response of generation gen may be applied.
// Caller holds mu.
func (e *Editor) finish(ctx context.Context, f Field, gen uint64, start time.Time, err error) bool {
	observability.Editor().OnAnalysisComplete(ctx, string(f), time.Since(start), err)
	if e.gens[f] != gen {
		observability.Editor().OnStaleResult(ctx, string(f))
		e.logger.Debug("dropping stale response", "field", f, "generation", gen, "latest", e.gens[f])
		return false
	}
	if err != nil {
		e.results.Errors[f] = err
	} else {
		delete(e.results.Errors, f)
	}
	return true
}

func (e *Editor) requireAnalyzer() error {
	if e.analyzer == nil {
		return errors.New(errors.ErrCodeInternal, "no analysis backend configured")
	}
	return nil
}

// RequestTwinWidth computes the twin-width of a slot under the current
// t-norm. The returned value is the service's answer even when a newer
// request superseded it; only the newest answer is stored in Results.
func (e *Editor) RequestTwinWidth(ctx context.Context, s graph.Slot) (analysis.Value, error) {
	e.mu.Lock()
	ws, err := e.workspace(s)
	if err == nil {
		err = e.requireAnalyzer()
	}
	if err != nil {
		e.mu.Unlock()
		return analysis.Undefined, err
	}
	field := TwinWidthField(s)
	data, t := graph.Serialize(ws.graph, e.tnorm), e.tnorm
	gen := e.begin(field)
	e.mu.Unlock()

	start := time.Now()
	res, err := e.analyzer.ComputeTwinWidth(ctx, data, t)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.finish(ctx, field, gen, start, err) {
		if err != nil {
			return analysis.Undefined, err
		}
		return res.Value, nil
	}
	if err != nil {
		e.results.TwinWidth[s] = analysis.Undefined
		delete(e.results.Sequences, s)
		return analysis.Undefined, err
	}
	e.results.TwinWidth[s] = res.Value
	if len(res.Sequences) > 0 {
		e.results.Sequences[s] = cloneSequences(res.Sequences)
	} else {
		delete(e.results.Sequences, s)
	}
	return res.Value, nil
}

// RequestSimilarity compares the two slots under the current t-norm.
func (e *Editor) RequestSimilarity(ctx context.Context) (analysis.Value, error) {
	e.mu.Lock()
	if err := e.requireAnalyzer(); err != nil {
		e.mu.Unlock()
		return analysis.Undefined, err
	}
	left, right := e.slots[graph.SlotLeft].graph.Snapshot(), e.slots[graph.SlotRight].graph.Snapshot()
	t := e.tnorm
	gen := e.begin(FieldSimilarity)
	e.mu.Unlock()

	start := time.Now()
	v, err := e.analyzer.ComputeSimilarity(ctx, left, right, t)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finish(ctx, FieldSimilarity, gen, start, err) {
		if err != nil {
			v = analysis.Undefined
		}
		e.results.Similarity = v
	}
	return v, err
}

// RequestIsomorphism checks whether the two slots are isomorphic.
// A negative answer carries no mappings and is not an error.
func (e *Editor) RequestIsomorphism(ctx context.Context) (*analysis.Isomorphism, error) {
	e.mu.Lock()
	if err := e.requireAnalyzer(); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	left, right := e.slots[graph.SlotLeft].graph.Snapshot(), e.slots[graph.SlotRight].graph.Snapshot()
	gen := e.begin(FieldIsomorphism)
	e.mu.Unlock()

	start := time.Now()
	iso, err := e.analyzer.CheckIsomorphism(ctx, left, right)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finish(ctx, FieldIsomorphism, gen, start, err) {
		e.results.Isomorphism = nil
		if err == nil {
			e.results.Isomorphism = cloneIsomorphism(iso)
		}
	}
	return iso, err
}

// ComputeAll runs twin-width(left), twin-width(right) and similarity,
// one after another or concurrently when the editor is parallel. Every
// request runs regardless of the others; the failures are joined.
func (e *Editor) ComputeAll(ctx context.Context) error {
	e.busy.Add(1)
	defer e.busy.Add(-1)

	steps := []func(context.Context) error{
		func(ctx context.Context) error { _, err := e.RequestTwinWidth(ctx, graph.SlotLeft); return err },
		func(ctx context.Context) error { _, err := e.RequestTwinWidth(ctx, graph.SlotRight); return err },
		func(ctx context.Context) error { _, err := e.RequestSimilarity(ctx); return err },
	}
	errs := make([]error, len(steps))

	if !e.parallel {
		for i, step := range steps {
			errs[i] = step(ctx)
		}
		return stderrors.Join(errs...)
	}

	var g errgroup.Group
	for i, step := range steps {
		g.Go(func() error {
			errs[i] = step(ctx)
			return nil
		})
	}
	_ = g.Wait()
	return stderrors.Join(errs...)
}
