package graph

import (
	"slices"
	"time"
)

// Node represents a leaf vertex in the hierarchical graph.
// Nodes are owned exclusively by the Graph and mutated only through its
// setters; the structs returned from query methods are defensive copies.
type Node struct {
	ID               string   `json:"id" bson:"id"`
	Label            string   `json:"label" bson:"label"`
	LongLabel        string   `json:"long_label,omitempty" bson:"long_label,omitempty"`
	Tags             []string `json:"tags,omitempty" bson:"tags,omitempty"`
	Hidden           bool     `json:"hidden,omitempty" bson:"hidden,omitempty"`
	ShowingLongLabel bool     `json:"showing_long_label,omitempty" bson:"showing_long_label,omitempty"`

	// Position and dimensions are written back by the host's layout driver.
	X      float64 `json:"x,omitempty" bson:"x,omitempty"`
	Y      float64 `json:"y,omitempty" bson:"y,omitempty"`
	Width  float64 `json:"width,omitempty" bson:"width,omitempty"`
	Height float64 `json:"height,omitempty" bson:"height,omitempty"`
}

// DisplayLabel returns the long-form label when the node is showing it,
// otherwise the regular label.
func (n Node) DisplayLabel() string {
	if n.ShowingLongLabel && n.LongLabel != "" {
		return n.LongLabel
	}
	return n.Label
}

// Edge represents a directed connection between two entities.
// Source and Target may reference a node or a container. Original edges are
// never deleted by collapse operations, only hidden.
type Edge struct {
	ID     string   `json:"id" bson:"id"`
	Source string   `json:"source" bson:"source"`
	Target string   `json:"target" bson:"target"`
	Tags   []string `json:"tags,omitempty" bson:"tags,omitempty"`
	Hidden bool     `json:"hidden,omitempty" bson:"hidden,omitempty"`
}

// Container represents a nested grouping of nodes and other containers.
// Containers form a forest: a container has at most one parent, derived from
// child-set membership. The Children slice is kept sorted and duplicate-free.
type Container struct {
	ID        string   `json:"id" bson:"id"`
	Label     string   `json:"label" bson:"label"`
	Children  []string `json:"children,omitempty" bson:"children,omitempty"`
	Collapsed bool     `json:"collapsed,omitempty" bson:"collapsed,omitempty"`
	Hidden    bool     `json:"hidden,omitempty" bson:"hidden,omitempty"`

	X      float64 `json:"x,omitempty" bson:"x,omitempty"`
	Y      float64 `json:"y,omitempty" bson:"y,omitempty"`
	Width  float64 `json:"width,omitempty" bson:"width,omitempty"`
	Height float64 `json:"height,omitempty" bson:"height,omitempty"`
}

// HasChild reports whether id is a direct child of the container.
func (c Container) HasChild(id string) bool {
	_, found := slices.BinarySearch(c.Children, id)
	return found
}

// AggregatedEdge is a synthetic edge standing in for one or more original
// edges whose true endpoint is hidden inside a collapsed container.
// Aggregated edges are created and destroyed only by the aggregation engine,
// never by external callers.
type AggregatedEdge struct {
	ID            string   `json:"id" bson:"id"`
	Source        string   `json:"source" bson:"source"`
	Target        string   `json:"target" bson:"target"`
	OriginalEdges []string `json:"original_edges" bson:"original_edges"`
	Tags          []string `json:"tags,omitempty" bson:"tags,omitempty"`
	Hidden        bool     `json:"hidden,omitempty" bson:"hidden,omitempty"`

	// ContainerID is the container whose collapse produced this edge.
	ContainerID string `json:"container_id" bson:"container_id"`
}

// VisibleEdge is the unified read-only projection of original and aggregated
// edges consumed by layout and presentation adapters.
type VisibleEdge struct {
	ID     string   `json:"id"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Tags   []string `json:"tags,omitempty"`

	// Aggregated is true for synthetic edges; ContainerID and OriginalEdges
	// are only set when Aggregated is true.
	Aggregated    bool     `json:"aggregated,omitempty"`
	ContainerID   string   `json:"container_id,omitempty"`
	OriginalEdges []string `json:"original_edges,omitempty"`
}

// AggregationOp identifies an entry kind in the aggregation history log.
type AggregationOp string

// Aggregation history operations.
const (
	OpAggregate   AggregationOp = "aggregate"
	OpMerge       AggregationOp = "merge"
	OpRestore     AggregationOp = "restore"
	OpReaggregate AggregationOp = "reaggregate"
)

// AggregationRecord is one append-only diagnostic entry describing an
// aggregation engine action.
type AggregationRecord struct {
	ID          string        `json:"id"`
	Op          AggregationOp `json:"op"`
	ContainerID string        `json:"container_id"`
	AggregateID string        `json:"aggregate_id"`
	EdgeCount   int           `json:"edge_count"`
	Timestamp   time.Time     `json:"timestamp"`
}

// normalizeTags returns a sorted, duplicate-free copy of tags.
// Returns nil for empty input so omitempty serialization stays clean.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := slices.Clone(tags)
	slices.Sort(out)
	return slices.Compact(out)
}

// unionTags merges two tag sets into a sorted, duplicate-free slice.
func unionTags(a, b []string) []string {
	if len(a) == 0 {
		return normalizeTags(b)
	}
	if len(b) == 0 {
		return normalizeTags(a)
	}
	merged := make([]string, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	return normalizeTags(merged)
}

// unionIDs merges two id lists into a sorted, duplicate-free slice.
func unionIDs(a, b []string) []string {
	merged := make([]string, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	slices.Sort(merged)
	return slices.Compact(merged)
}
