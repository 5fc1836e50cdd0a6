package graphio

import (
	"encoding/json"
	"io"
	"os"

	"github.com/foldview/foldview/pkg/errors"
	"github.com/foldview/foldview/pkg/graph"
)

// ReadJSON decodes a JSON document from r and builds a live graph.
//
// ReadJSON returns an error if:
//   - The JSON is malformed
//   - A node or container has a duplicate id
//   - An edge references an unknown endpoint
//   - The container hierarchy is not a forest
//
// Errors are wrapped with context naming the entity that caused the problem.
// The returned graph is independent of r and can be mutated freely after
// ReadJSON returns. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*graph.Graph, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode document")
	}
	return d.Build()
}

// ImportJSON reads a JSON file at path and returns the built graph.
//
// ImportJSON opens the file, decodes it using [ReadJSON], and closes the
// file. The error wraps the underlying cause with the file path for context.
func ImportJSON(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "open %s", path)
	}
	defer f.Close()
	return ReadJSON(f)
}
