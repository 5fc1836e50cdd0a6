package graph

import (
	"maps"
	"slices"

	"github.com/foldview/foldview/pkg/errors"
)

// DefaultFootprintWarnLimit is the rendered-area threshold above which the
// validator logs a warning for a collapsed container (rule 7). The value is
// in the same squared units the layout driver writes back.
const DefaultFootprintWarnLimit = 40000.0

// Graph is the hierarchical graph engine: an arena of nodes, edges, and
// containers plus the derived aggregated-edge set and parent indexes.
//
// The zero value is not usable - use New. Graph is not safe for concurrent
// use without external synchronization; every mutator completes (including
// validation) before returning, so callers may issue rapid back-to-back
// mutations safely from a single goroutine.
type Graph struct {
	nodes      map[string]*Node
	edges      map[string]*Edge
	containers map[string]*Container
	aggregated map[string]*AggregatedEdge

	// Derived child→parent indexes, rebuilt from container membership.
	// Never stored as object references to keep ownership acyclic.
	nodeParent      map[string]string
	containerParent map[string]string

	layout                LayoutState
	smartCollapseDisabled bool
	expandedForSearch     map[string]struct{}

	history    []AggregationRecord
	validating bool

	footprintWarnLimit float64
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		nodes:              make(map[string]*Node),
		edges:              make(map[string]*Edge),
		containers:         make(map[string]*Container),
		aggregated:         make(map[string]*AggregatedEdge),
		nodeParent:         make(map[string]string),
		containerParent:    make(map[string]string),
		expandedForSearch:  make(map[string]struct{}),
		layout:             LayoutState{Phase: PhaseInitial},
		footprintWarnLimit: DefaultFootprintWarnLimit,
	}
}

// SetFootprintWarnLimit overrides the collapsed-footprint warning threshold
// used by validation rule 7. Values <= 0 disable the warning.
func (g *Graph) SetFootprintWarnLimit(limit float64) {
	g.footprintWarnLimit = limit
}

// =============================================================================
// Node Mutators
// =============================================================================

// AddNode adds a node to the graph.
// Returns an INVALID_NODE error for a missing id or label, or when the id is
// already taken by another node or container.
func (g *Graph) AddNode(n Node) error {
	if err := errors.ValidateEntityID(errors.ErrCodeInvalidNode, n.ID); err != nil {
		return err
	}
	if err := errors.ValidateLabel(errors.ErrCodeInvalidNode, n.Label); err != nil {
		return err
	}
	if g.idTaken(n.ID) {
		return errors.New(errors.ErrCodeInvalidNode, "duplicate id: %s", n.ID)
	}
	n.Tags = normalizeTags(n.Tags)
	node := n
	g.nodes[node.ID] = &node
	return g.validate()
}

// UpdateNode replaces the stored node with the given one.
// Updating an unknown id is a silent no-op: late-arriving updates from
// asynchronous producers are tolerated by design.
func (g *Graph) UpdateNode(n Node) error {
	if _, ok := g.nodes[n.ID]; !ok {
		return nil
	}
	if err := errors.ValidateLabel(errors.ErrCodeInvalidNode, n.Label); err != nil {
		return err
	}
	n.Tags = normalizeTags(n.Tags)
	node := n
	g.nodes[node.ID] = &node
	return g.validate()
}

// RemoveNode deletes a node along with its incident original edges.
// Edge ids pruned this way are also removed from aggregated edges; an
// aggregated edge left with no originals is dropped. Removing an unknown id
// is a silent no-op.
func (g *Graph) RemoveNode(id string) error {
	if _, ok := g.nodes[id]; !ok {
		return nil
	}
	removed := make(map[string]struct{})
	for eid, e := range g.edges {
		if e.Source == id || e.Target == id {
			removed[eid] = struct{}{}
			delete(g.edges, eid)
		}
	}
	for aid, a := range g.aggregated {
		if a.Source == id || a.Target == id {
			delete(g.aggregated, aid)
			continue
		}
		a.OriginalEdges = slices.DeleteFunc(a.OriginalEdges, func(eid string) bool {
			_, gone := removed[eid]
			return gone
		})
		if len(a.OriginalEdges) == 0 {
			delete(g.aggregated, aid)
		}
	}
	for _, c := range g.containers {
		c.Children = slices.DeleteFunc(c.Children, func(child string) bool { return child == id })
	}
	delete(g.nodes, id)
	g.reindex()
	return g.validate()
}

// =============================================================================
// Edge Mutators
// =============================================================================

// AddEdge adds a directed edge between two existing entities.
// Source and target may each reference a node or a container. Returns an
// INVALID_EDGE error for missing fields, a duplicate id, or an endpoint that
// does not resolve.
func (g *Graph) AddEdge(e Edge) error {
	if err := errors.ValidateEntityID(errors.ErrCodeInvalidEdge, e.ID); err != nil {
		return err
	}
	if e.Source == "" {
		return errors.New(errors.ErrCodeInvalidEdge, "edge %s: source must not be empty", e.ID)
	}
	if e.Target == "" {
		return errors.New(errors.ErrCodeInvalidEdge, "edge %s: target must not be empty", e.ID)
	}
	if _, ok := g.edges[e.ID]; ok {
		return errors.New(errors.ErrCodeInvalidEdge, "duplicate edge id: %s", e.ID)
	}
	if !g.entityExists(e.Source) {
		return errors.New(errors.ErrCodeInvalidEdge, "edge %s: unknown source %s", e.ID, e.Source)
	}
	if !g.entityExists(e.Target) {
		return errors.New(errors.ErrCodeInvalidEdge, "edge %s: unknown target %s", e.ID, e.Target)
	}
	e.Tags = normalizeTags(e.Tags)
	edge := e
	g.edges[edge.ID] = &edge
	return g.validate()
}

// UpdateEdge replaces the stored edge with the given one.
// Updating an unknown id is a silent no-op.
func (g *Graph) UpdateEdge(e Edge) error {
	if _, ok := g.edges[e.ID]; !ok {
		return nil
	}
	if e.Source == "" {
		return errors.New(errors.ErrCodeInvalidEdge, "edge %s: source must not be empty", e.ID)
	}
	if e.Target == "" {
		return errors.New(errors.ErrCodeInvalidEdge, "edge %s: target must not be empty", e.ID)
	}
	e.Tags = normalizeTags(e.Tags)
	edge := e
	g.edges[edge.ID] = &edge
	return g.validate()
}

// RemoveEdge deletes an original edge and prunes it from any aggregated edge
// that subsumes it. Removing an unknown id is a silent no-op.
func (g *Graph) RemoveEdge(id string) error {
	if _, ok := g.edges[id]; !ok {
		return nil
	}
	delete(g.edges, id)
	for aid, a := range g.aggregated {
		a.OriginalEdges = slices.DeleteFunc(a.OriginalEdges, func(eid string) bool { return eid == id })
		if len(a.OriginalEdges) == 0 {
			delete(g.aggregated, aid)
		}
	}
	return g.validate()
}

// =============================================================================
// Container Mutators
// =============================================================================

// AddContainer adds a container to the graph.
// The declared child set is checked against the whole forest before commit:
// self-containment or an indirect cycle fails with CONTAINMENT_CYCLE, and a
// child already owned by a different container fails with INVALID_CONTAINER.
// On any failure the store is left unmodified.
func (g *Graph) AddContainer(c Container) error {
	if err := errors.ValidateEntityID(errors.ErrCodeInvalidContainer, c.ID); err != nil {
		return err
	}
	if err := errors.ValidateLabel(errors.ErrCodeInvalidContainer, c.Label); err != nil {
		return err
	}
	if g.idTaken(c.ID) {
		return errors.New(errors.ErrCodeInvalidContainer, "duplicate id: %s", c.ID)
	}
	c.Children = normalizeChildren(c.Children)
	if err := g.checkOwnership(c.ID, c.Children); err != nil {
		return err
	}
	if err := g.checkForest(c.ID, c.Children); err != nil {
		return err
	}
	cc := c
	g.containers[cc.ID] = &cc
	g.reindex()
	return g.validate()
}

// UpdateContainer replaces the stored container with the given one, running
// the same forest checks as AddContainer against the new child set.
// Updating an unknown id is a silent no-op.
func (g *Graph) UpdateContainer(c Container) error {
	if _, ok := g.containers[c.ID]; !ok {
		return nil
	}
	if err := errors.ValidateLabel(errors.ErrCodeInvalidContainer, c.Label); err != nil {
		return err
	}
	c.Children = normalizeChildren(c.Children)
	if err := g.checkOwnership(c.ID, c.Children); err != nil {
		return err
	}
	if err := g.checkForest(c.ID, c.Children); err != nil {
		return err
	}
	cc := c
	g.containers[cc.ID] = &cc
	g.reindex()
	return g.validate()
}

// RemoveContainer deletes a container, handing its children to the removed
// container's own parent (or making them roots). A visible collapsed
// container is expanded first so its aggregated edges are restored rather
// than left dangling. Removing an unknown id is a silent no-op.
func (g *Graph) RemoveContainer(id string) error {
	c, ok := g.containers[id]
	if !ok {
		return nil
	}
	if c.Collapsed && !c.Hidden {
		if err := g.expandContainer(id, SystemMutation); err != nil {
			return err
		}
	}
	// Stale aggregates referencing the container carry no live information;
	// their originals are tracked by whichever aggregate subsumed them.
	for aid, a := range g.aggregated {
		if a.Source == id || a.Target == id || a.ContainerID == id {
			delete(g.aggregated, aid)
		}
	}

	children := slices.Clone(c.Children)
	parentID, hasParent := g.containerParent[id]
	delete(g.containers, id)
	if hasParent {
		if parent, ok := g.containers[parentID]; ok {
			parent.Children = slices.DeleteFunc(parent.Children, func(child string) bool { return child == id })
			parent.Children = normalizeChildren(append(parent.Children, children...))
		}
	}
	g.reindex()
	return g.validate()
}

// =============================================================================
// Queries
// =============================================================================

// Node returns a copy of the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Edge returns a copy of the original edge with the given id.
func (g *Graph) Edge(id string) (Edge, bool) {
	e, ok := g.edges[id]
	if !ok {
		return Edge{}, false
	}
	return *e, true
}

// Container returns a copy of the container with the given id.
func (g *Graph) Container(id string) (Container, bool) {
	c, ok := g.containers[id]
	if !ok {
		return Container{}, false
	}
	out := *c
	out.Children = slices.Clone(c.Children)
	return out, true
}

// AggregatedEdge returns a copy of the aggregated edge with the given id.
func (g *Graph) AggregatedEdge(id string) (AggregatedEdge, bool) {
	a, ok := g.aggregated[id]
	if !ok {
		return AggregatedEdge{}, false
	}
	out := *a
	out.OriginalEdges = slices.Clone(a.OriginalEdges)
	out.Tags = slices.Clone(a.Tags)
	return out, true
}

// NodeCount returns the number of nodes (hidden included).
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of original edges (hidden included).
func (g *Graph) EdgeCount() int { return len(g.edges) }

// ContainerCount returns the number of containers (hidden included).
func (g *Graph) ContainerCount() int { return len(g.containers) }

// AggregatedEdgeCount returns the number of aggregated edges, live and stale.
func (g *Graph) AggregatedEdgeCount() int { return len(g.aggregated) }

// Nodes returns copies of all nodes sorted by id.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for _, id := range sortedKeys(g.nodes) {
		out = append(out, *g.nodes[id])
	}
	return out
}

// Edges returns copies of all original edges sorted by id.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for _, id := range sortedKeys(g.edges) {
		out = append(out, *g.edges[id])
	}
	return out
}

// Containers returns copies of all containers sorted by id.
func (g *Graph) Containers() []Container {
	out := make([]Container, 0, len(g.containers))
	for _, id := range sortedKeys(g.containers) {
		c := *g.containers[id]
		c.Children = slices.Clone(g.containers[id].Children)
		out = append(out, c)
	}
	return out
}

// =============================================================================
// Visible Projections
// =============================================================================

// VisibleNodes returns copies of all non-hidden nodes sorted by id.
// The result is a snapshot: later mutations do not affect it.
func (g *Graph) VisibleNodes() []Node {
	var out []Node
	for _, id := range sortedKeys(g.nodes) {
		if n := g.nodes[id]; !n.Hidden {
			out = append(out, *n)
		}
	}
	return out
}

// VisibleContainers returns copies of all non-hidden containers sorted by id.
func (g *Graph) VisibleContainers() []Container {
	var out []Container
	for _, id := range sortedKeys(g.containers) {
		if c := g.containers[id]; !c.Hidden {
			cc := *c
			cc.Children = slices.Clone(c.Children)
			out = append(out, cc)
		}
	}
	return out
}

// VisibleEdges returns the unified projection of non-hidden original and
// aggregated edges, sorted by id. Aggregated entries carry the producing
// container and the subsumed original edge ids.
func (g *Graph) VisibleEdges() []VisibleEdge {
	var out []VisibleEdge
	for _, id := range sortedKeys(g.edges) {
		e := g.edges[id]
		if e.Hidden {
			continue
		}
		out = append(out, VisibleEdge{
			ID:     e.ID,
			Source: e.Source,
			Target: e.Target,
			Tags:   slices.Clone(e.Tags),
		})
	}
	for _, id := range sortedKeys(g.aggregated) {
		a := g.aggregated[id]
		if a.Hidden {
			continue
		}
		out = append(out, VisibleEdge{
			ID:            a.ID,
			Source:        a.Source,
			Target:        a.Target,
			Tags:          slices.Clone(a.Tags),
			Aggregated:    true,
			ContainerID:   a.ContainerID,
			OriginalEdges: slices.Clone(a.OriginalEdges),
		})
	}
	slices.SortFunc(out, func(a, b VisibleEdge) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out
}

// =============================================================================
// Internal Helpers
// =============================================================================

// idTaken reports whether an id is already used by a node or container.
// Ids share one namespace so edge endpoints resolve unambiguously.
func (g *Graph) idTaken(id string) bool {
	if _, ok := g.nodes[id]; ok {
		return true
	}
	_, ok := g.containers[id]
	return ok
}

// entityExists reports whether id resolves to a node or a container.
func (g *Graph) entityExists(id string) bool {
	return g.idTaken(id)
}

// entityVisible reports whether id resolves to a non-hidden node or container.
func (g *Graph) entityVisible(id string) bool {
	if n, ok := g.nodes[id]; ok {
		return !n.Hidden
	}
	if c, ok := g.containers[id]; ok {
		return !c.Hidden
	}
	return false
}

func normalizeChildren(children []string) []string {
	if len(children) == 0 {
		return nil
	}
	out := slices.Clone(children)
	slices.Sort(out)
	return slices.Compact(out)
}

// sortedKeys returns the map keys in ascending order. All iteration over the
// arenas goes through this so aggregation and projections stay deterministic.
func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
