package graphio

import (
	"encoding/json"
	"sort"

	"github.com/foldview/foldview/pkg/cache"
	"github.com/foldview/foldview/pkg/errors"
	"github.com/foldview/foldview/pkg/graph"
)

// Document is the serializable form of a hierarchical graph. It carries
// structure and collapse state only; hidden flags and aggregated edges are
// derived and recomputed on build.
//
// The bson tags let the document store persist documents directly.
type Document struct {
	Name       string          `json:"name,omitempty" bson:"name,omitempty"`
	Nodes      []NodeSpec      `json:"nodes" bson:"nodes"`
	Edges      []EdgeSpec      `json:"edges,omitempty" bson:"edges,omitempty"`
	Containers []ContainerSpec `json:"containers,omitempty" bson:"containers,omitempty"`
}

// NodeSpec describes one node.
type NodeSpec struct {
	ID        string   `json:"id" bson:"id"`
	Label     string   `json:"label" bson:"label"`
	LongLabel string   `json:"long_label,omitempty" bson:"long_label,omitempty"`
	Tags      []string `json:"tags,omitempty" bson:"tags,omitempty"`

	X      float64 `json:"x,omitempty" bson:"x,omitempty"`
	Y      float64 `json:"y,omitempty" bson:"y,omitempty"`
	Width  float64 `json:"width,omitempty" bson:"width,omitempty"`
	Height float64 `json:"height,omitempty" bson:"height,omitempty"`
}

// EdgeSpec describes one directed edge.
type EdgeSpec struct {
	ID     string   `json:"id" bson:"id"`
	Source string   `json:"source" bson:"source"`
	Target string   `json:"target" bson:"target"`
	Tags   []string `json:"tags,omitempty" bson:"tags,omitempty"`
}

// ContainerSpec describes one container and its direct children.
type ContainerSpec struct {
	ID        string   `json:"id" bson:"id"`
	Label     string   `json:"label" bson:"label"`
	Children  []string `json:"children,omitempty" bson:"children,omitempty"`
	Collapsed bool     `json:"collapsed,omitempty" bson:"collapsed,omitempty"`

	X      float64 `json:"x,omitempty" bson:"x,omitempty"`
	Y      float64 `json:"y,omitempty" bson:"y,omitempty"`
	Width  float64 `json:"width,omitempty" bson:"width,omitempty"`
	Height float64 `json:"height,omitempty" bson:"height,omitempty"`
}

// ParseDocument decodes a JSON document without building a graph.
func ParseDocument(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode document")
	}
	return &d, nil
}

// Marshal encodes the document as indented JSON.
func (d *Document) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "encode document")
	}
	return data, nil
}

// Hash returns the SHA-256 content hash of the document's canonical form.
// Entity order in the source file does not affect the hash.
func (d *Document) Hash() string {
	canon := *d
	canon.Nodes = append([]NodeSpec(nil), d.Nodes...)
	canon.Edges = append([]EdgeSpec(nil), d.Edges...)
	canon.Containers = append([]ContainerSpec(nil), d.Containers...)
	sort.Slice(canon.Nodes, func(i, j int) bool { return canon.Nodes[i].ID < canon.Nodes[j].ID })
	sort.Slice(canon.Edges, func(i, j int) bool { return canon.Edges[i].ID < canon.Edges[j].ID })
	sort.Slice(canon.Containers, func(i, j int) bool { return canon.Containers[i].ID < canon.Containers[j].ID })
	data, _ := json.Marshal(canon)
	return cache.Hash(data)
}

// Build constructs a live graph from the document: nodes first, then
// containers, then edges, then a collapse pass reapplying the stored collapse
// state. Errors are wrapped with context naming the entity that caused them.
func (d *Document) Build() (*graph.Graph, error) {
	g := graph.New()

	for _, n := range d.Nodes {
		node := graph.Node{
			ID:        n.ID,
			Label:     n.Label,
			LongLabel: n.LongLabel,
			Tags:      n.Tags,
			X:         n.X,
			Y:         n.Y,
			Width:     n.Width,
			Height:    n.Height,
		}
		if err := g.AddNode(node); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "node %s", n.ID)
		}
	}

	for _, c := range d.Containers {
		container := graph.Container{
			ID:       c.ID,
			Label:    c.Label,
			Children: c.Children,
			X:        c.X,
			Y:        c.Y,
			Width:    c.Width,
			Height:   c.Height,
		}
		if err := g.AddContainer(container); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "container %s", c.ID)
		}
	}

	for _, e := range d.Edges {
		edge := graph.Edge{ID: e.ID, Source: e.Source, Target: e.Target, Tags: e.Tags}
		if err := g.AddEdge(edge); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "edge %s", e.ID)
		}
	}

	// Reapply collapse state through the system entry point so the document
	// reopens as saved without consuming smart-collapse eligibility. Deep
	// collapse makes the order irrelevant.
	for _, c := range d.Containers {
		if !c.Collapsed {
			continue
		}
		if err := g.SystemCollapseContainer(c.ID); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "collapse container %s", c.ID)
		}
	}

	return g, nil
}
