package cli

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/foldview/foldview/pkg/graph"
)

func browseFixture(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, id := range []string{"n1", "n2", "n3"} {
		if err := g.AddNode(graph.Node{ID: id, Label: id}); err != nil {
			t.Fatalf("AddNode(%s): %v", id, err)
		}
	}
	if err := g.AddContainer(graph.Container{ID: "inner", Label: "Inner", Children: []string{"n1", "n2"}}); err != nil {
		t.Fatalf("AddContainer(inner): %v", err)
	}
	if err := g.AddContainer(graph.Container{ID: "outer", Label: "Outer", Children: []string{"inner", "n3"}}); err != nil {
		t.Fatalf("AddContainer(outer): %v", err)
	}
	return g
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestFlattenVisible(t *testing.T) {
	g := browseFixture(t)
	rows := flattenVisible(g)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].id != "outer" || rows[0].depth != 0 {
		t.Errorf("rows[0] = %+v, want outer at depth 0", rows[0])
	}
	if rows[1].id != "inner" || rows[1].depth != 1 {
		t.Errorf("rows[1] = %+v, want inner at depth 1", rows[1])
	}
	if rows[1].nodes != 2 {
		t.Errorf("inner nodes = %d, want 2", rows[1].nodes)
	}
}

func TestFlattenVisibleHidesBuriedContainers(t *testing.T) {
	g := browseFixture(t)
	if err := g.CollapseContainer("outer"); err != nil {
		t.Fatalf("collapse: %v", err)
	}
	rows := flattenVisible(g)
	if len(rows) != 1 || rows[0].id != "outer" {
		t.Fatalf("rows = %+v, want only the collapsed outer proxy", rows)
	}
	if !rows[0].collapsed {
		t.Error("outer row should be marked collapsed")
	}
}

func TestBrowseToggle(t *testing.T) {
	g := browseFixture(t)
	m := newBrowseModel(g, "fixture.json")

	// Toggle the root closed, then open again.
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(browseModel)
	if len(m.rows) != 1 || !m.rows[0].collapsed {
		t.Fatalf("rows after collapse = %+v, want single collapsed root", m.rows)
	}
	if c, _ := g.Container("outer"); !c.Collapsed {
		t.Error("model did not collapse the underlying graph")
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(browseModel)
	if len(m.rows) != 2 {
		t.Fatalf("rows after expand = %d, want 2", len(m.rows))
	}
}

func TestBrowseCollapseAllKeepsCursorInRange(t *testing.T) {
	g := browseFixture(t)
	m := newBrowseModel(g, "fixture.json")
	m.cursor = 1

	next, _ := m.Update(keyMsg("c"))
	m = next.(browseModel)
	if m.cursor >= len(m.rows) {
		t.Errorf("cursor = %d out of range for %d rows", m.cursor, len(m.rows))
	}

	next, _ = m.Update(keyMsg("e"))
	m = next.(browseModel)
	if len(m.rows) != 2 {
		t.Errorf("rows after expand all = %d, want 2", len(m.rows))
	}
}

func TestBrowseQuit(t *testing.T) {
	g := browseFixture(t)
	m := newBrowseModel(g, "fixture.json")

	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
}
