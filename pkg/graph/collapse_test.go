package graph

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/foldview/foldview/pkg/errors"
)

// nestedFixture builds:
//
//	outer
//	└── inner
//	    ├── n1
//	    └── n2
//	n3 (free)
//	e1: n1 → n3
func nestedFixture(t *testing.T) *Graph {
	t.Helper()
	g := New()
	mustAddNode(t, g, "n1", "Node 1")
	mustAddNode(t, g, "n2", "Node 2")
	mustAddNode(t, g, "n3", "Node 3")
	mustAddContainer(t, g, "inner", "Inner", "n1", "n2")
	mustAddContainer(t, g, "outer", "Outer", "inner")
	mustAddEdge(t, g, "e1", "n1", "n3")
	return g
}

func TestCollapseIsTransitivelyDeep(t *testing.T) {
	g := nestedFixture(t)

	if err := g.CollapseContainer("outer"); err != nil {
		t.Fatalf("CollapseContainer: %v", err)
	}

	inner, _ := g.Container("inner")
	if !inner.Hidden || !inner.Collapsed {
		t.Errorf("inner = {hidden:%v collapsed:%v}, want hidden and collapsed", inner.Hidden, inner.Collapsed)
	}
	for _, id := range []string{"n1", "n2"} {
		if n, _ := g.Node(id); !n.Hidden {
			t.Errorf("node %s should be hidden under collapsed outer", id)
		}
	}
	if n, _ := g.Node("n3"); n.Hidden {
		t.Error("free node n3 must stay visible")
	}
}

func TestExpandIsOneLevelDeep(t *testing.T) {
	g := nestedFixture(t)

	if err := g.CollapseContainer("outer"); err != nil {
		t.Fatalf("CollapseContainer: %v", err)
	}
	if err := g.ExpandContainer("outer"); err != nil {
		t.Fatalf("ExpandContainer: %v", err)
	}

	inner, _ := g.Container("inner")
	if inner.Hidden {
		t.Error("inner should be visible as a collapsed proxy")
	}
	if !inner.Collapsed {
		t.Error("inner should remain collapsed after expanding outer")
	}
	for _, id := range []string{"n1", "n2"} {
		if n, _ := g.Node(id); !n.Hidden {
			t.Errorf("node %s should stay hidden inside collapsed inner", id)
		}
	}
}

func TestExpandHiddenContainerFails(t *testing.T) {
	g := nestedFixture(t)
	if err := g.CollapseContainer("outer"); err != nil {
		t.Fatalf("CollapseContainer: %v", err)
	}

	err := g.ExpandContainer("inner")
	if !errors.Is(err, errors.ErrCodeInvalidOperation) {
		t.Fatalf("expanding a buried container should fail with INVALID_OPERATION, got %v", err)
	}
}

func TestCollapseUnknownIsNoOp(t *testing.T) {
	g := nestedFixture(t)
	if err := g.CollapseContainer("ghost"); err != nil {
		t.Errorf("CollapseContainer(ghost): %v", err)
	}
	if err := g.ExpandContainer("ghost"); err != nil {
		t.Errorf("ExpandContainer(ghost): %v", err)
	}
}

func TestCollapseExpandRoundTrip(t *testing.T) {
	g := New()
	mustAddNode(t, g, "n1", "Node 1")
	mustAddNode(t, g, "n2", "Node 2")
	mustAddNode(t, g, "n3", "Node 3")
	mustAddContainer(t, g, "c", "C", "n1", "n2")
	mustAddEdge(t, g, "internal", "n1", "n2")
	mustAddEdge(t, g, "cross", "n2", "n3")

	before := snapshot(g)

	if err := g.CollapseContainer("c"); err != nil {
		t.Fatalf("CollapseContainer: %v", err)
	}
	if err := g.ExpandContainer("c"); err != nil {
		t.Fatalf("ExpandContainer: %v", err)
	}

	after := snapshot(g)
	if !reflect.DeepEqual(before, after) {
		t.Errorf("collapse/expand round trip changed visible state:\nbefore: %+v\nafter:  %+v", before, after)
	}
	if g.AggregatedEdgeCount() != 0 {
		t.Errorf("aggregated edges = %d, want 0 after round trip", g.AggregatedEdgeCount())
	}
}

// graphSnapshot captures everything the round-trip property compares.
type graphSnapshot struct {
	Nodes      []Node
	Containers []Container
	Edges      []VisibleEdge
}

func snapshot(g *Graph) graphSnapshot {
	return graphSnapshot{
		Nodes:      g.VisibleNodes(),
		Containers: g.VisibleContainers(),
		Edges:      g.VisibleEdges(),
	}
}

func TestCollapseAllAndExpandAll(t *testing.T) {
	g := nestedFixture(t)

	if err := g.CollapseAllContainers(); err != nil {
		t.Fatalf("CollapseAllContainers: %v", err)
	}
	outer, _ := g.Container("outer")
	inner, _ := g.Container("inner")
	if !outer.Collapsed || !inner.Collapsed {
		t.Error("all containers should be collapsed")
	}
	if g.SmartCollapseEligible() {
		t.Error("collapse-all is a user operation and must disable smart collapse")
	}

	if err := g.ExpandAllContainers(); err != nil {
		t.Fatalf("ExpandAllContainers: %v", err)
	}
	outer, _ = g.Container("outer")
	inner, _ = g.Container("inner")
	if outer.Collapsed || outer.Hidden || inner.Collapsed || inner.Hidden {
		t.Errorf("all containers should be expanded and visible, got outer=%+v inner=%+v", outer, inner)
	}
	for _, id := range []string{"n1", "n2", "n3"} {
		if n, _ := g.Node(id); n.Hidden {
			t.Errorf("node %s should be visible after expand-all", id)
		}
	}
}

func TestExpandForSearchRevealsBuriedContainer(t *testing.T) {
	g := nestedFixture(t)
	if err := g.CollapseContainer("outer"); err != nil {
		t.Fatalf("CollapseContainer: %v", err)
	}

	if err := g.ExpandForSearch("inner"); err != nil {
		t.Fatalf("ExpandForSearch: %v", err)
	}

	inner, _ := g.Container("inner")
	if inner.Hidden || inner.Collapsed {
		t.Errorf("inner = %+v, want visible and expanded", inner)
	}
	for _, id := range []string{"n1", "n2"} {
		if n, _ := g.Node(id); n.Hidden {
			t.Errorf("node %s should be revealed by search expansion", id)
		}
	}

	want := []string{"inner", "outer"}
	if got := g.ExpandedForSearch(); !reflect.DeepEqual(got, want) {
		t.Errorf("ExpandedForSearch() = %v, want %v", got, want)
	}
	g.ClearSearchExpansions()
	if got := g.ExpandedForSearch(); len(got) != 0 {
		t.Errorf("ExpandedForSearch() = %v after clear, want empty", got)
	}
}

func TestUserOperationsDisableSmartCollapse(t *testing.T) {
	tests := []struct {
		name string
		op   func(*Graph) error
	}{
		{"Collapse", func(g *Graph) error { return g.CollapseContainer("inner") }},
		{"Expand", func(g *Graph) error {
			if err := g.SystemCollapseContainer("inner"); err != nil {
				return err
			}
			return g.ExpandContainer("inner")
		}},
		{"Search", func(g *Graph) error { return g.ExpandForSearch("inner") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := nestedFixture(t)
			if !g.SmartCollapseEligible() {
				t.Fatal("fresh graph should be eligible")
			}
			if err := tt.op(g); err != nil {
				t.Fatalf("op: %v", err)
			}
			if g.SmartCollapseEligible() {
				t.Error("user operation should disable smart collapse")
			}
		})
	}
}

func TestSystemOperationsPreserveEligibility(t *testing.T) {
	g := nestedFixture(t)
	if err := g.SystemCollapseContainer("outer"); err != nil {
		t.Fatalf("SystemCollapseContainer: %v", err)
	}
	if err := g.SystemExpandContainer("outer"); err != nil {
		t.Fatalf("SystemExpandContainer: %v", err)
	}
	if !g.SmartCollapseEligible() {
		t.Error("system operations must not disable smart collapse")
	}
}

// TestRandomizedSequencesKeepInvariants drives a nested graph through random
// collapse/expand sequences and checks structural consistency after each step.
func TestRandomizedSequencesKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	g := New()
	for _, id := range []string{"n1", "n2", "n3", "n4", "n5", "n6"} {
		mustAddNode(t, g, id, "Node "+id)
	}
	mustAddContainer(t, g, "inner", "Inner", "n1", "n2")
	mustAddContainer(t, g, "mid", "Mid", "inner", "n3")
	mustAddContainer(t, g, "outer", "Outer", "mid", "n4")
	mustAddContainer(t, g, "side", "Side", "n5")
	mustAddEdge(t, g, "e1", "n1", "n5")
	mustAddEdge(t, g, "e2", "n2", "n3")
	mustAddEdge(t, g, "e3", "n3", "n6")
	mustAddEdge(t, g, "e4", "n5", "n6")
	mustAddEdge(t, g, "e5", "n1", "n2")

	containers := []string{"inner", "mid", "outer", "side"}
	for i := 0; i < 500; i++ {
		id := containers[rng.Intn(len(containers))]
		var err error
		switch rng.Intn(5) {
		case 0:
			err = g.CollapseContainer(id)
		case 1:
			err = g.ExpandContainer(id)
			if errors.Is(err, errors.ErrCodeInvalidOperation) {
				err = nil // buried container, expected
			}
		case 2:
			err = g.ExpandForSearch(id)
		case 3:
			err = g.CollapseAllContainers()
		default:
			err = g.ExpandAllContainers()
		}
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if err := g.Validate(); err != nil {
			t.Fatalf("step %d: validation failed: %v", i, err)
		}
		assertNoDanglingEdges(t, g, i)
	}

	// Full expansion must always be reachable and lossless.
	if err := g.ExpandAllContainers(); err != nil {
		t.Fatalf("final expand-all: %v", err)
	}
	if g.AggregatedEdgeCount() != 0 {
		t.Errorf("aggregated edges = %d after full expansion, want 0", g.AggregatedEdgeCount())
	}
	if got := len(g.VisibleEdges()); got != 5 {
		t.Errorf("visible edges = %d after full expansion, want all 5 originals", got)
	}
}

// assertNoDanglingEdges checks that every visible edge connects two visible
// entities and that every original edge is represented exactly once: either
// visible itself or subsumed by exactly one visible aggregated edge.
func assertNoDanglingEdges(t *testing.T, g *Graph, step int) {
	t.Helper()
	visible := make(map[string]bool)
	for _, n := range g.VisibleNodes() {
		visible[n.ID] = true
	}
	for _, c := range g.VisibleContainers() {
		visible[c.ID] = true
	}

	represented := make(map[string]int)
	for _, e := range g.VisibleEdges() {
		if !visible[e.Source] || !visible[e.Target] {
			t.Fatalf("step %d: visible edge %s has hidden endpoint (%s → %s)", step, e.ID, e.Source, e.Target)
		}
		if e.Aggregated {
			for _, orig := range e.OriginalEdges {
				represented[orig]++
			}
		} else {
			represented[e.ID]++
		}
	}
	for _, e := range g.Edges() {
		// Self-loops against a collapsed boundary legitimately disappear.
		if represented[e.ID] > 1 {
			t.Fatalf("step %d: original edge %s represented %d times", step, e.ID, represented[e.ID])
		}
	}
}
