package graph

import (
	"reflect"
	"testing"
)

// deepFixture builds:
//
//	outer
//	├── mid
//	│   ├── inner {n1}
//	│   └── n2
//	└── n3
//	n4 (free)
func deepFixture(t *testing.T) *Graph {
	t.Helper()
	g := New()
	for _, id := range []string{"n1", "n2", "n3", "n4"} {
		mustAddNode(t, g, id, "Node "+id)
	}
	mustAddContainer(t, g, "inner", "Inner", "n1")
	mustAddContainer(t, g, "mid", "Mid", "inner", "n2")
	mustAddContainer(t, g, "outer", "Outer", "mid", "n3")
	return g
}

func TestParent(t *testing.T) {
	g := deepFixture(t)

	tests := []struct {
		id     string
		parent string
		ok     bool
	}{
		{"n1", "inner", true},
		{"n2", "mid", true},
		{"inner", "mid", true},
		{"mid", "outer", true},
		{"outer", "", false},
		{"n4", "", false},
		{"ghost", "", false},
	}
	for _, tt := range tests {
		parent, ok := g.Parent(tt.id)
		if parent != tt.parent || ok != tt.ok {
			t.Errorf("Parent(%s) = (%q, %v), want (%q, %v)", tt.id, parent, ok, tt.parent, tt.ok)
		}
	}
}

func TestAncestors(t *testing.T) {
	g := deepFixture(t)

	tests := []struct {
		id   string
		want []string
	}{
		{"n1", []string{"inner", "mid", "outer"}},
		{"inner", []string{"mid", "outer"}},
		{"n3", []string{"outer"}},
		{"outer", nil},
		{"n4", nil},
	}
	for _, tt := range tests {
		if got := g.Ancestors(tt.id); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Ancestors(%s) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestIsAncestor(t *testing.T) {
	g := deepFixture(t)

	tests := []struct {
		ancestor, id string
		want         bool
	}{
		{"outer", "n1", true},
		{"inner", "n1", true},
		{"inner", "n2", false},
		{"n1", "inner", false},
		{"outer", "outer", false},
	}
	for _, tt := range tests {
		if got := g.IsAncestor(tt.ancestor, tt.id); got != tt.want {
			t.Errorf("IsAncestor(%s, %s) = %v, want %v", tt.ancestor, tt.id, got, tt.want)
		}
	}
}

func TestDescendants(t *testing.T) {
	g := deepFixture(t)

	tests := []struct {
		id   string
		want []string
	}{
		{"outer", []string{"inner", "mid", "n1", "n2", "n3"}},
		{"mid", []string{"inner", "n1", "n2"}},
		{"inner", []string{"n1"}},
		{"ghost", []string{}},
	}
	for _, tt := range tests {
		if got := g.Descendants(tt.id); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Descendants(%s) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestReindexAfterRemoval(t *testing.T) {
	g := deepFixture(t)

	// Removing mid hands its children to outer.
	if err := g.RemoveContainer("mid"); err != nil {
		t.Fatalf("RemoveContainer: %v", err)
	}
	if parent, _ := g.Parent("inner"); parent != "outer" {
		t.Errorf("Parent(inner) = %q after removal, want outer", parent)
	}
	if parent, _ := g.Parent("n2"); parent != "outer" {
		t.Errorf("Parent(n2) = %q after removal, want outer", parent)
	}

	// Removing a root makes its children roots.
	if err := g.RemoveContainer("outer"); err != nil {
		t.Fatalf("RemoveContainer: %v", err)
	}
	if _, ok := g.Parent("inner"); ok {
		t.Error("inner should be a root after outer is removed")
	}
	if _, ok := g.Parent("n3"); ok {
		t.Error("n3 should be free after outer is removed")
	}
}
