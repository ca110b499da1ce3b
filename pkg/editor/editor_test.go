package editor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/graphsim/fuzzygraph/pkg/analysis"
	"github.com/graphsim/fuzzygraph/pkg/errors"
	"github.com/graphsim/fuzzygraph/pkg/fuzzy"
	"github.com/graphsim/fuzzygraph/pkg/graph"
	"github.com/graphsim/fuzzygraph/pkg/selection"
)

// fakeAnalyzer answers from functions so each test scripts the service.
type fakeAnalyzer struct {
	tw    func(ctx context.Context, d graph.GraphData, t fuzzy.TNorm) (*analysis.TwinWidthResult, error)
	iso   func(ctx context.Context, l, r graph.GraphData) (*analysis.Isomorphism, error)
	sim   func(ctx context.Context, l, r graph.GraphData, t fuzzy.TNorm) (analysis.Value, error)
	calls atomic.Int32
}

func (f *fakeAnalyzer) ComputeTwinWidth(ctx context.Context, d graph.GraphData, t fuzzy.TNorm) (*analysis.TwinWidthResult, error) {
	f.calls.Add(1)
	return f.tw(ctx, d, t)
}

func (f *fakeAnalyzer) CheckIsomorphism(ctx context.Context, l, r graph.GraphData) (*analysis.Isomorphism, error) {
	f.calls.Add(1)
	return f.iso(ctx, l, r)
}

func (f *fakeAnalyzer) ComputeSimilarity(ctx context.Context, l, r graph.GraphData, t fuzzy.TNorm) (analysis.Value, error) {
	f.calls.Add(1)
	return f.sim(ctx, l, r, t)
}

// nodeCountAnalyzer reports twin-width = node count and similarity 0.5.
func nodeCountAnalyzer() *fakeAnalyzer {
	return &fakeAnalyzer{
		tw: func(_ context.Context, d graph.GraphData, _ fuzzy.TNorm) (*analysis.TwinWidthResult, error) {
			return &analysis.TwinWidthResult{Value: analysis.Number(float64(len(d.Nodes)))}, nil
		},
		iso: func(_ context.Context, l, r graph.GraphData) (*analysis.Isomorphism, error) {
			return &analysis.Isomorphism{Isomorphic: len(l.Nodes) == len(r.Nodes)}, nil
		},
		sim: func(context.Context, graph.GraphData, graph.GraphData, fuzzy.TNorm) (analysis.Value, error) {
			return analysis.Number(0.5), nil
		},
	}
}

func TestEditorsAreIndependent(t *testing.T) {
	a, b := New(nil), New(nil)

	idA, err := a.AddNode(graph.SlotLeft, 0.5)
	require.NoError(t, err)
	idB, err := b.AddNode(graph.SlotLeft, 0.5)
	require.NoError(t, err)
	require.Equal(t, "Node1", idA)
	require.Equal(t, "Node1", idB)

	// one counter across both slots of an editor
	idR, _ := a.AddNode(graph.SlotRight, 0.5)
	require.Equal(t, "Node2", idR)
}

func TestUnknownSlot(t *testing.T) {
	e := New(nil)
	_, err := e.AddNode("middle", 0.5)
	require.True(t, errors.Is(err, errors.ErrCodeInvalidArgument))
}

// t-norm min, memberships 0.3 and 0.8, requested 0.9: stored 0.3.
func TestAddEdgeFromSelection(t *testing.T) {
	e := New(nil)
	a, _ := e.AddNode(graph.SlotLeft, 0.3)
	b, _ := e.AddNode(graph.SlotLeft, 0.8)

	_, err := e.AddEdge(graph.SlotLeft, 0.9)
	require.True(t, errors.Is(err, errors.ErrCodeInvalidArgument), "needs two armed nodes")

	_, err = e.ToggleSelection(graph.SlotLeft, a)
	require.NoError(t, err)
	ch, err := e.ToggleSelection(graph.SlotLeft, b)
	require.NoError(t, err)
	require.True(t, ch.CanCreateEdge)

	edge, err := e.AddEdge(graph.SlotLeft, 0.9)
	require.NoError(t, err)
	require.Equal(t, a+b, edge.ID)
	require.Equal(t, 0.3, edge.Membership)

	_, err = e.AddEdge(graph.SlotLeft, 0.1)
	require.True(t, errors.Is(err, errors.ErrCodeDuplicateEdge))
}

func TestToggleUnknownNode(t *testing.T) {
	e := New(nil)
	_, err := e.ToggleSelection(graph.SlotLeft, "Node9")
	require.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestSelectionPerSlot(t *testing.T) {
	e := New(nil)
	l, _ := e.AddNode(graph.SlotLeft, 1)
	r, _ := e.AddNode(graph.SlotRight, 1)

	_, err := e.ToggleSelection(graph.SlotLeft, r)
	require.True(t, errors.Is(err, errors.ErrCodeNotFound), "right node is not in the left slot")

	_, err = e.ToggleSelection(graph.SlotLeft, l)
	require.NoError(t, err)
	v := e.View()
	require.Equal(t, []string{l}, v.Slots[graph.SlotLeft].Armed)
	require.Empty(t, v.Slots[graph.SlotRight].Armed)
}

func TestRemoveArmedNodeCleansSelection(t *testing.T) {
	e := New(nil)
	var changes []selection.Change
	e.OnSelectionChange(func(s graph.Slot, ch selection.Change) {
		require.Equal(t, graph.SlotLeft, s)
		changes = append(changes, ch)
	})

	a, _ := e.AddNode(graph.SlotLeft, 1)
	b, _ := e.AddNode(graph.SlotLeft, 1)
	c, _ := e.AddNode(graph.SlotLeft, 1)
	e.ToggleSelection(graph.SlotLeft, a)
	e.ToggleSelection(graph.SlotLeft, b)
	_, err := e.AddEdge(graph.SlotLeft, 1)
	require.NoError(t, err)

	require.NoError(t, e.RemoveNode(graph.SlotLeft, a))
	last := changes[len(changes)-1]
	require.Equal(t, []string{b}, last.Armed)
	require.Empty(t, last.Released)
	require.False(t, last.CanCreateEdge)

	v := e.View().Slots[graph.SlotLeft]
	require.Empty(t, v.Edges, "incident edge removed")
	require.Len(t, v.Nodes, 2)

	// the deleted node never resurfaces through eviction
	e.ToggleSelection(graph.SlotLeft, c)
	_, err = e.ToggleSelection(graph.SlotLeft, a)
	require.True(t, errors.Is(err, errors.ErrCodeNotFound))
	require.Equal(t, []string{b, c}, e.View().Slots[graph.SlotLeft].Armed)
}

func TestClearResetsSelection(t *testing.T) {
	e := New(nil)
	a, _ := e.AddNode(graph.SlotRight, 1)
	e.ToggleSelection(graph.SlotRight, a)

	require.NoError(t, e.ClearGraph(graph.SlotRight))
	v := e.View().Slots[graph.SlotRight]
	require.Empty(t, v.Nodes)
	require.Empty(t, v.Armed)

	id, _ := e.AddNode(graph.SlotRight, 1)
	require.Equal(t, "Node2", id, "ids are never reused")
}

func TestSetTNormAffectsFutureEdgesOnly(t *testing.T) {
	e := New(nil, WithTNorm(fuzzy.Minimum))
	a, _ := e.AddNode(graph.SlotLeft, 0.5)
	b, _ := e.AddNode(graph.SlotLeft, 0.5)

	first, err := e.AddEdgeBetween(graph.SlotLeft, a, b, 1)
	require.NoError(t, err)
	require.Equal(t, 0.5, first.Membership)

	require.NoError(t, e.SetTNorm(fuzzy.Product))
	second, err := e.AddEdgeBetween(graph.SlotLeft, b, a, 1)
	require.NoError(t, err)
	require.Equal(t, 0.25, second.Membership)

	edges := e.View().Slots[graph.SlotLeft].Edges
	require.Equal(t, 0.5, edges[0].Membership, "existing edge unchanged")

	require.True(t, errors.Is(e.SetTNorm("max"), errors.ErrCodeInvalidArgument))
	require.Equal(t, fuzzy.Product, e.TNorm())
}

func TestSerialize(t *testing.T) {
	e := New(nil, WithTNorm(fuzzy.Drastic))
	e.AddNode(graph.SlotLeft, 0.7)

	d, err := e.Serialize(graph.SlotLeft, true)
	require.NoError(t, err)
	require.Equal(t, []graph.NodeData{{Name: "Node1", MembershipFunction: 0.7}}, d.Nodes)
	require.NotNil(t, d.Edges)
	require.Empty(t, d.Edges)
	require.Equal(t, fuzzy.Drastic, d.TNorm)

	d, _ = e.Serialize(graph.SlotLeft, false)
	require.Empty(t, d.TNorm)
}

func TestLoad(t *testing.T) {
	e := New(nil)
	data := graph.GraphData{
		Nodes: []graph.NodeData{{Name: "Node5", MembershipFunction: 0.4}, {Name: "x", MembershipFunction: 0.9}},
		Edges: []graph.EdgeData{{Source: "Node5", Target: "x", Weight: 0.8}},
	}
	require.NoError(t, e.Load(graph.SlotRight, data))

	v := e.View().Slots[graph.SlotRight]
	require.Len(t, v.Nodes, 2)
	require.Equal(t, 0.4, v.Edges[0].Membership)

	id, _ := e.AddNode(graph.SlotLeft, 0.1)
	require.Equal(t, "Node6", id)
}

func TestRequestTwinWidth(t *testing.T) {
	fa := nodeCountAnalyzer()
	var gotTNorm fuzzy.TNorm
	tw := fa.tw
	fa.tw = func(ctx context.Context, d graph.GraphData, tn fuzzy.TNorm) (*analysis.TwinWidthResult, error) {
		gotTNorm = tn
		return tw(ctx, d, tn)
	}
	e := New(fa, WithTNorm(fuzzy.Lukasiewicz))
	e.AddNode(graph.SlotLeft, 1)
	e.AddNode(graph.SlotLeft, 1)

	v, err := e.RequestTwinWidth(context.Background(), graph.SlotLeft)
	require.NoError(t, err)
	require.Equal(t, "2", v.String())
	require.Equal(t, fuzzy.Lukasiewicz, gotTNorm)
	require.Equal(t, "2", e.Results().TwinWidth[graph.SlotLeft].String())
}

// A transport failure on one slot sets that field to "X", records the error
// and leaves the other slot's result alone.
func TestTwinWidthFailureIsolated(t *testing.T) {
	fa := nodeCountAnalyzer()
	fa.tw = func(_ context.Context, d graph.GraphData, _ fuzzy.TNorm) (*analysis.TwinWidthResult, error) {
		if len(d.Nodes) == 1 {
			return nil, errors.Transport("/get-tw", 503, "unavailable")
		}
		return &analysis.TwinWidthResult{Value: analysis.Number(3)}, nil
	}
	e := New(fa)
	e.AddNode(graph.SlotLeft, 1)
	e.AddNode(graph.SlotRight, 1)
	e.AddNode(graph.SlotRight, 1)

	err := e.ComputeAll(context.Background())
	require.True(t, errors.Is(err, errors.ErrCodeTransport))

	res := e.Results()
	require.False(t, res.TwinWidth[graph.SlotLeft].Defined())
	require.Equal(t, "X", res.TwinWidth[graph.SlotLeft].String())
	require.True(t, errors.Is(res.Err(FieldTwinWidthLeft), errors.ErrCodeTransport))

	require.Equal(t, "3", res.TwinWidth[graph.SlotRight].String())
	require.NoError(t, res.Err(FieldTwinWidthRight))
	require.Equal(t, "0.5", res.Similarity.String())
}

func TestComputeAllOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}
	fa := nodeCountAnalyzer()
	fa.tw = func(_ context.Context, d graph.GraphData, _ fuzzy.TNorm) (*analysis.TwinWidthResult, error) {
		record("tw" + d.Nodes[0].Name)
		return &analysis.TwinWidthResult{Value: analysis.Number(0)}, nil
	}
	fa.sim = func(context.Context, graph.GraphData, graph.GraphData, fuzzy.TNorm) (analysis.Value, error) {
		record("sim")
		return analysis.Undefined, nil
	}
	e := New(fa)
	e.AddNode(graph.SlotLeft, 1)
	e.AddNode(graph.SlotRight, 1)

	require.NoError(t, e.ComputeAll(context.Background()))
	require.Equal(t, []string{"twNode1", "twNode2", "sim"}, order)
	require.Equal(t, "X", e.Results().Similarity.String())

	order = nil
	p := New(fa, WithParallel(true))
	p.AddNode(graph.SlotLeft, 1)
	p.AddNode(graph.SlotRight, 1)
	require.NoError(t, p.ComputeAll(context.Background()))
	require.ElementsMatch(t, []string{"twNode1", "twNode2", "sim"}, order)
}

func TestBusyDuringComputeAll(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 3)
	fa := nodeCountAnalyzer()
	tw := fa.tw
	fa.tw = func(ctx context.Context, d graph.GraphData, tn fuzzy.TNorm) (*analysis.TwinWidthResult, error) {
		started <- struct{}{}
		<-release
		return tw(ctx, d, tn)
	}
	e := New(fa)
	require.False(t, e.Busy())

	done := make(chan error)
	go func() { done <- e.ComputeAll(context.Background()) }()
	<-started
	require.True(t, e.Busy())
	require.True(t, e.View().Busy)

	// the model stays editable while a request is in flight
	_, err := e.AddNode(graph.SlotLeft, 0.2)
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-done)
	require.False(t, e.Busy())
}

// A slow response for an older request must not overwrite the answer of a
// newer one.
func TestStaleResponseDropped(t *testing.T) {
	slowRelease := make(chan struct{})
	slowStarted := make(chan struct{})
	var n atomic.Int32

	fa := nodeCountAnalyzer()
	fa.sim = func(context.Context, graph.GraphData, graph.GraphData, fuzzy.TNorm) (analysis.Value, error) {
		if n.Add(1) == 1 {
			close(slowStarted)
			<-slowRelease
			return analysis.Number(0.1), nil
		}
		return analysis.Number(0.9), nil
	}
	e := New(fa)

	done := make(chan analysis.Value)
	go func() {
		v, _ := e.RequestSimilarity(context.Background())
		done <- v
	}()
	<-slowStarted

	v, err := e.RequestSimilarity(context.Background())
	require.NoError(t, err)
	require.Equal(t, "0.9", v.String())

	close(slowRelease)
	select {
	case stale := <-done:
		require.Equal(t, "0.1", stale.String(), "caller still gets its own answer")
	case <-time.After(5 * time.Second):
		t.Fatal("slow request never returned")
	}
	require.Equal(t, "0.9", e.Results().Similarity.String())
}

func TestRequestIsomorphism(t *testing.T) {
	fa := nodeCountAnalyzer()
	fa.iso = func(context.Context, graph.GraphData, graph.GraphData) (*analysis.Isomorphism, error) {
		return &analysis.Isomorphism{Isomorphic: false}, nil
	}
	e := New(fa)

	iso, err := e.RequestIsomorphism(context.Background())
	require.NoError(t, err)
	require.False(t, iso.Isomorphic)
	require.Empty(t, iso.Mappings)
	require.NotNil(t, e.Results().Isomorphism)
	require.NoError(t, e.Results().Err(FieldIsomorphism))

	fa.iso = func(context.Context, graph.GraphData, graph.GraphData) (*analysis.Isomorphism, error) {
		return nil, errors.Transport("/check-isomorphism", 400, "Invalid input")
	}
	_, err = e.RequestIsomorphism(context.Background())
	require.Error(t, err)
	require.Nil(t, e.Results().Isomorphism)
	require.Error(t, e.Results().Err(FieldIsomorphism))
}

// Results hands out copies: changing them leaves the stored answers alone.
func TestResultsAreCopies(t *testing.T) {
	fa := nodeCountAnalyzer()
	fa.iso = func(context.Context, graph.GraphData, graph.GraphData) (*analysis.Isomorphism, error) {
		return &analysis.Isomorphism{Isomorphic: true, Mappings: []map[string]string{{"Node1": "Node2"}}}, nil
	}
	fa.tw = func(context.Context, graph.GraphData, fuzzy.TNorm) (*analysis.TwinWidthResult, error) {
		return &analysis.TwinWidthResult{Value: analysis.Number(1), Sequences: [][][2]string{{{"a", "b"}}}}, nil
	}
	e := New(fa)
	e.AddNode(graph.SlotLeft, 1)
	e.AddNode(graph.SlotRight, 1)

	iso, err := e.RequestIsomorphism(context.Background())
	require.NoError(t, err)
	_, err = e.RequestTwinWidth(context.Background(), graph.SlotLeft)
	require.NoError(t, err)

	// neither the returned answer nor a snapshot aliases the stored one
	iso.Mappings[0]["Node1"] = "changed"
	got := e.Results()
	got.Isomorphism.Mappings[0]["Node1"] = "changed"
	got.Isomorphism.Mappings = append(got.Isomorphism.Mappings, map[string]string{})
	got.Sequences[graph.SlotLeft][0][0] = [2]string{"x", "y"}
	v := e.View()
	v.Results.Isomorphism.Mappings[0]["Node1"] = "changed"

	fresh := e.Results()
	require.Equal(t, []map[string]string{{"Node1": "Node2"}}, fresh.Isomorphism.Mappings)
	require.Equal(t, [][][2]string{{{"a", "b"}}}, fresh.Sequences[graph.SlotLeft])
}

func TestNoAnalyzer(t *testing.T) {
	e := New(nil)
	_, err := e.RequestTwinWidth(context.Background(), graph.SlotLeft)
	require.True(t, errors.Is(err, errors.ErrCodeInternal))
	_, err = e.RequestSimilarity(context.Background())
	require.Error(t, err)
	_, err = e.RequestIsomorphism(context.Background())
	require.Error(t, err)
}

func TestConcurrentCommands(t *testing.T) {
	e := New(nodeCountAnalyzer(), WithParallel(true))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				slot := graph.Slots[j%2]
				id, _ := e.AddNode(slot, 0.5)
				e.ToggleSelection(slot, id)
				if j%5 == 0 {
					e.ComputeAll(context.Background())
				}
			}
		}()
	}
	wg.Wait()

	v := e.View()
	require.Len(t, v.Slots[graph.SlotLeft].Nodes, 80)
	require.Len(t, v.Slots[graph.SlotRight].Nodes, 80)
}
