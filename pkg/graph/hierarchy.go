package graph

import (
	"slices"

	"github.com/foldview/foldview/pkg/errors"
)

// =============================================================================
// Derived Parent Indexes
// =============================================================================

// reindex rebuilds the node→container and container→container parent maps
// from container membership. Containers own their child sets; the indexes are
// always derived, never authoritative.
func (g *Graph) reindex() {
	g.nodeParent = make(map[string]string, len(g.nodeParent))
	g.containerParent = make(map[string]string, len(g.containerParent))
	for id, c := range g.containers {
		for _, child := range c.Children {
			if _, ok := g.nodes[child]; ok {
				g.nodeParent[child] = id
				continue
			}
			if _, ok := g.containers[child]; ok {
				g.containerParent[child] = id
			}
		}
	}
}

// Parent returns the id of the container directly holding the given node or
// container, and whether one exists.
func (g *Graph) Parent(id string) (string, bool) {
	if p, ok := g.nodeParent[id]; ok {
		return p, true
	}
	p, ok := g.containerParent[id]
	return p, ok
}

// Ancestors returns the chain of container ids enclosing the given entity,
// ordered from direct parent outward. Returns nil for a root entity.
func (g *Graph) Ancestors(id string) []string {
	var out []string
	cur, ok := g.Parent(id)
	for ok {
		out = append(out, cur)
		cur, ok = g.containerParent[cur]
	}
	return out
}

// IsAncestor reports whether ancestor (directly or transitively) contains id.
func (g *Graph) IsAncestor(ancestor, id string) bool {
	return slices.Contains(g.Ancestors(id), ancestor)
}

// Descendants returns the sorted ids of every node and container transitively
// contained in the given container.
func (g *Graph) Descendants(containerID string) []string {
	set := g.descendantSet(containerID)
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// descendantSet collects the transitive descendant ids of a container.
// The container itself is not included.
func (g *Graph) descendantSet(containerID string) map[string]struct{} {
	set := make(map[string]struct{})
	var walk func(id string)
	walk = func(id string) {
		c, ok := g.containers[id]
		if !ok {
			return
		}
		for _, child := range c.Children {
			if _, seen := set[child]; seen {
				continue
			}
			set[child] = struct{}{}
			walk(child)
		}
	}
	walk(containerID)
	return set
}

// visibleAncestor returns the nearest non-hidden container enclosing id.
// For a hidden entity this is the visible proxy the aggregation engine
// reroutes edges through; it is unique because the lowest visible ancestor of
// a hidden entity is necessarily collapsed.
func (g *Graph) visibleAncestor(id string) (string, bool) {
	cur, ok := g.Parent(id)
	for ok {
		if c, found := g.containers[cur]; found && !c.Hidden {
			return cur, true
		}
		cur, ok = g.containerParent[cur]
	}
	return "", false
}

// =============================================================================
// Forest Validation
// =============================================================================

// checkOwnership verifies that none of the declared children already belong
// to a different container. Without this the derived parent indexes would be
// ambiguous.
func (g *Graph) checkOwnership(containerID string, children []string) error {
	for _, child := range children {
		owner, ok := g.Parent(child)
		if ok && owner != containerID {
			return errors.New(errors.ErrCodeInvalidContainer,
				"container %s: child %s already belongs to container %s", containerID, child, owner)
		}
	}
	return nil
}

// checkForest verifies that committing the given container with the given
// child set keeps the container hierarchy a forest. It builds the would-be
// parent index and walks every container up to a root, detecting
// self-containment and indirect cycles before any state changes.
func (g *Graph) checkForest(containerID string, children []string) error {
	if slices.Contains(children, containerID) {
		return errors.New(errors.ErrCodeCycle, "container %s directly contains itself", containerID)
	}

	parent := make(map[string]string, len(g.containerParent)+1)
	for id, c := range g.containers {
		if id == containerID {
			continue
		}
		for _, child := range c.Children {
			if _, ok := g.containers[child]; ok && child != containerID {
				parent[child] = id
			} else if child == containerID {
				parent[containerID] = id
			}
		}
	}
	for _, child := range children {
		if _, ok := g.containers[child]; ok || child == containerID {
			parent[child] = containerID
		}
	}

	limit := len(g.containers) + 2
	for start := range parent {
		cur := start
		for steps := 0; ; steps++ {
			next, ok := parent[cur]
			if !ok {
				break
			}
			if next == start || steps > limit {
				return errors.New(errors.ErrCodeCycle,
					"container hierarchy cycle through %s", start)
			}
			cur = next
		}
	}
	return nil
}
