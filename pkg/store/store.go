// Package store persists named graph documents.
//
// Two implementations are provided: MemoryStore for tests and single-process
// use, and MongoStore for durable multi-instance deployments. Documents are
// keyed by name; writing an existing name replaces the stored document.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/foldview/foldview/pkg/errors"
	"github.com/foldview/foldview/pkg/graphio"
)

// Store is the interface for document persistence.
type Store interface {
	// Put stores a document under the given name, replacing any existing one.
	Put(ctx context.Context, name string, doc *graphio.Document) error

	// Get retrieves a document by name.
	// Returns a DOCUMENT_NOT_FOUND error for an unknown name.
	Get(ctx context.Context, name string) (*graphio.Document, error)

	// Delete removes a document. Deleting an unknown name is a no-op.
	Delete(ctx context.Context, name string) error

	// List returns the stored document names in ascending order.
	List(ctx context.Context) ([]string, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// MemoryStore is an in-process Store backed by a map.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]record
}

type record struct {
	doc       *graphio.Document
	updatedAt time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]record)}
}

// Put stores a deep copy so later caller mutations cannot leak in.
func (s *MemoryStore) Put(ctx context.Context, name string, doc *graphio.Document) error {
	if name == "" {
		return errors.New(errors.ErrCodeInvalidDocument, "document name must not be empty")
	}
	clone, err := cloneDocument(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.docs[name] = record{doc: clone, updatedAt: time.Now().UTC()}
	s.mu.Unlock()
	return nil
}

// Get returns a deep copy of the stored document.
func (s *MemoryStore) Get(ctx context.Context, name string) (*graphio.Document, error) {
	s.mu.RLock()
	rec, ok := s.docs[name]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeDocumentNotFound, "document %s not found", name)
	}
	return cloneDocument(rec.doc)
}

// Delete removes a document.
func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	delete(s.docs, name)
	s.mu.Unlock()
	return nil
}

// List returns stored names sorted.
func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	names := make([]string, 0, len(s.docs))
	for name := range s.docs {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)
	return names, nil
}

// Close discards all documents.
func (s *MemoryStore) Close(ctx context.Context) error {
	s.mu.Lock()
	s.docs = make(map[string]record)
	s.mu.Unlock()
	return nil
}

// cloneDocument deep-copies a document through its JSON form.
func cloneDocument(doc *graphio.Document) (*graphio.Document, error) {
	data, err := doc.Marshal()
	if err != nil {
		return nil, err
	}
	return graphio.ParseDocument(data)
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
