package store

import (
	"context"
	"reflect"
	"testing"

	"github.com/foldview/foldview/pkg/errors"
	"github.com/foldview/foldview/pkg/graphio"
)

func sampleDoc() *graphio.Document {
	return &graphio.Document{
		Name: "sample",
		Nodes: []graphio.NodeSpec{
			{ID: "a", Label: "A"},
			{ID: "b", Label: "B"},
		},
		Edges: []graphio.EdgeSpec{{ID: "e1", Source: "a", Target: "b"}},
	}
}

func TestMemoryStorePutGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close(ctx)

	if err := s.Put(ctx, "sample", sampleDoc()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, "sample")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got, sampleDoc()) {
		t.Errorf("Get = %+v, want original document", got)
	}

	// Stored document is isolated from caller mutations.
	got.Nodes[0].Label = "mutated"
	again, _ := s.Get(ctx, "sample")
	if again.Nodes[0].Label != "A" {
		t.Error("store leaked a shared document reference")
	}
}

func TestMemoryStoreGetUnknown(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close(ctx)

	_, err := s.Get(ctx, "ghost")
	if !errors.Is(err, errors.ErrCodeDocumentNotFound) {
		t.Errorf("want DOCUMENT_NOT_FOUND, got %v", err)
	}
}

func TestMemoryStorePutEmptyName(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close(ctx)

	if err := s.Put(ctx, "", sampleDoc()); !errors.Is(err, errors.ErrCodeInvalidDocument) {
		t.Errorf("want INVALID_DOCUMENT, got %v", err)
	}
}

func TestMemoryStoreReplaceAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close(ctx)

	if err := s.Put(ctx, "sample", sampleDoc()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	updated := sampleDoc()
	updated.Nodes = updated.Nodes[:1]
	if err := s.Put(ctx, "sample", updated); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, _ := s.Get(ctx, "sample")
	if len(got.Nodes) != 1 {
		t.Errorf("nodes = %d after replace, want 1", len(got.Nodes))
	}

	if err := s.Delete(ctx, "sample"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "sample"); err != nil {
		t.Fatalf("second Delete should be a no-op: %v", err)
	}
	if _, err := s.Get(ctx, "sample"); !errors.Is(err, errors.ErrCodeDocumentNotFound) {
		t.Errorf("want DOCUMENT_NOT_FOUND after delete, got %v", err)
	}
}

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close(ctx)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := s.Put(ctx, name, sampleDoc()); err != nil {
			t.Fatalf("Put(%s): %v", name, err)
		}
	}
	names, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if want := []string{"alpha", "mid", "zeta"}; !reflect.DeepEqual(names, want) {
		t.Errorf("List = %v, want %v", names, want)
	}
}
