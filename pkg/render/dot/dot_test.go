package dot

import (
	"strings"
	"testing"

	"github.com/foldview/foldview/pkg/graph"
)

func buildGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, n := range []struct{ id, label string }{
		{"api", "API"}, {"worker", "Worker"}, {"db", "Database"},
	} {
		if err := g.AddNode(graph.Node{ID: n.id, Label: n.label}); err != nil {
			t.Fatalf("AddNode(%s): %v", n.id, err)
		}
	}
	if err := g.AddContainer(graph.Container{ID: "backend", Label: "Backend", Children: []string{"api", "worker"}}); err != nil {
		t.Fatalf("AddContainer: %v", err)
	}
	if err := g.AddEdge(graph.Edge{ID: "e1", Source: "api", Target: "db"}); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if err := g.AddEdge(graph.Edge{ID: "e2", Source: "worker", Target: "db"}); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	return g
}

func TestToDOTExpandedContainerIsCluster(t *testing.T) {
	g := buildGraph(t)
	out := ToDOT(g, Options{})

	for _, want := range []string{
		"digraph G {",
		`subgraph "cluster_backend" {`,
		`label="Backend";`,
		`"api" [label="API"];`,
		`"api" -> "db";`,
		`"worker" -> "db";`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("DOT output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "box3d") {
		t.Error("expanded container should not render as a proxy node")
	}
}

func TestToDOTCollapsedContainerIsProxy(t *testing.T) {
	g := buildGraph(t)
	if err := g.CollapseContainer("backend"); err != nil {
		t.Fatalf("CollapseContainer: %v", err)
	}
	out := ToDOT(g, Options{})

	if !strings.Contains(out, `"backend" [label="Backend (2)", shape=box3d`) {
		t.Errorf("collapsed container should render as a box3d proxy:\n%s", out)
	}
	if strings.Contains(out, "cluster_backend") {
		t.Error("collapsed container should not open a cluster")
	}
	if strings.Contains(out, `"api"`) {
		t.Error("hidden node should not be rendered")
	}

	// Both originals merged into one dashed aggregate with a count label.
	if !strings.Contains(out, `"backend" -> "db" [style=dashed, label="2"];`) {
		t.Errorf("aggregated edge missing or mislabeled:\n%s", out)
	}
}

func TestToDOTDetailedIncludesTags(t *testing.T) {
	g := graph.New()
	if err := g.AddNode(graph.Node{ID: "api", Label: "API", Tags: []string{"grpc", "public"}}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}

	out := ToDOT(g, Options{Detailed: true})
	if !strings.Contains(out, "grpc, public") {
		t.Errorf("detailed output should include tags:\n%s", out)
	}

	plain := ToDOT(g, Options{})
	if strings.Contains(plain, "grpc") {
		t.Error("plain output should not include tags")
	}
}

func TestToDOTIsDeterministic(t *testing.T) {
	g := buildGraph(t)
	first := ToDOT(g, Options{})
	for i := 0; i < 5; i++ {
		if got := ToDOT(g, Options{}); got != first {
			t.Fatal("ToDOT output varies between calls for the same state")
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="5.00 7.00 100.00 200.00"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 100.00 200.00"`) {
		t.Errorf("viewBox not normalized: %s", out)
	}
	if !strings.Contains(out, `width="100" height="200"`) {
		t.Errorf("dimensions not rewritten: %s", out)
	}

	// SVG without a viewBox passes through untouched.
	plain := []byte(`<svg><g/></svg>`)
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("svg without viewBox should pass through")
	}
}
