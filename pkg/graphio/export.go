package graphio

import (
	"encoding/json"
	"io"
	"os"

	"github.com/foldview/foldview/pkg/errors"
	"github.com/foldview/foldview/pkg/graph"
)

// Snapshot captures the full structure of a graph as a Document, collapse
// state included. Hidden flags and aggregated edges are omitted: they are
// derived state, rebuilt by [Document.Build].
func Snapshot(g *graph.Graph) *Document {
	d := &Document{}

	for _, n := range g.Nodes() {
		d.Nodes = append(d.Nodes, NodeSpec{
			ID:        n.ID,
			Label:     n.Label,
			LongLabel: n.LongLabel,
			Tags:      n.Tags,
			X:         n.X,
			Y:         n.Y,
			Width:     n.Width,
			Height:    n.Height,
		})
	}
	for _, e := range g.Edges() {
		d.Edges = append(d.Edges, EdgeSpec{ID: e.ID, Source: e.Source, Target: e.Target, Tags: e.Tags})
	}
	for _, c := range g.Containers() {
		d.Containers = append(d.Containers, ContainerSpec{
			ID:        c.ID,
			Label:     c.Label,
			Children:  c.Children,
			Collapsed: c.Collapsed,
			X:         c.X,
			Y:         c.Y,
			Width:     c.Width,
			Height:    c.Height,
		})
	}
	return d
}

// WriteJSON encodes a graph as an indented JSON document and writes it to w.
// The output can be re-imported with [ReadJSON] for round-trip processing.
func WriteJSON(g *graph.Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Snapshot(g)); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidDocument, err, "encode document")
	}
	return nil
}

// ExportJSON writes a graph to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(g *graph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "create %s", path)
	}
	defer f.Close()
	return WriteJSON(g, f)
}
