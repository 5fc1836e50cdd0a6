package graph

import (
	"slices"

	"github.com/foldview/foldview/pkg/errors"
)

// MutationSource distinguishes interactive structural changes from ones the
// engine performs on its own behalf. Both kinds route through the same
// state-transition functions; the only difference is whether the
// smart-collapse eligibility flag is cleared.
type MutationSource int

const (
	// UserMutation is an interactive collapse/expand. It permanently disables
	// the smart-collapse cold-start heuristic for this graph.
	UserMutation MutationSource = iota
	// SystemMutation is a collapse/expand performed by the initial-load or
	// smart-collapse machinery itself. Eligibility is left untouched.
	SystemMutation
)

// =============================================================================
// Public Entry Points
// =============================================================================

// CollapseContainer collapses a container as a user operation: the container
// is marked collapsed, every transitive descendant is hidden (descendant
// containers are collapsed as well), and edges crossing the boundary are
// aggregated. Collapsing an unknown id is a silent no-op.
func (g *Graph) CollapseContainer(id string) error {
	return g.collapseContainer(id, UserMutation)
}

// ExpandContainer expands a visible collapsed container as a user operation:
// immediate children become visible, recursing only through child containers
// that are themselves expanded (a collapsed child stays a proxy), and the
// container's aggregated edges are restored. Expanding an unknown id is a
// silent no-op; expanding a hidden container is an INVALID_OPERATION error
// since its ancestors must be expanded first.
func (g *Graph) ExpandContainer(id string) error {
	return g.expandContainer(id, UserMutation)
}

// SystemCollapseContainer collapses a container without disabling
// smart-collapse eligibility. Reserved for initial-load machinery.
func (g *Graph) SystemCollapseContainer(id string) error {
	return g.collapseContainer(id, SystemMutation)
}

// SystemExpandContainer expands a container without disabling smart-collapse
// eligibility. Reserved for initial-load machinery.
func (g *Graph) SystemExpandContainer(id string) error {
	return g.expandContainer(id, SystemMutation)
}

// CollapseAllContainers collapses every container. This is a single user
// operation: eligibility is disabled once, up front. Containers are processed
// in ascending id order; if one fails, earlier collapses are preserved and
// the error is surfaced as-is.
func (g *Graph) CollapseAllContainers() error {
	g.smartCollapseDisabled = true
	for _, id := range sortedKeys(g.containers) {
		if err := g.collapseContainer(id, SystemMutation); err != nil {
			return err
		}
	}
	return nil
}

// ExpandAllContainers expands every container, outermost first so that inner
// containers are visible by the time they are expanded. A single user
// operation with the same partial-failure policy as CollapseAllContainers.
func (g *Graph) ExpandAllContainers() error {
	g.smartCollapseDisabled = true
	for _, id := range g.containersTopDown() {
		if err := g.expandContainer(id, SystemMutation); err != nil {
			return err
		}
	}
	return nil
}

// ExpandForSearch expands a container to reveal a search match, expanding any
// collapsed ancestors outermost-first along the way. Every container this
// operation actually expanded is recorded in the expanded-for-search set so
// the host can restyle or undo the reveal later. Counts as a user operation.
func (g *Graph) ExpandForSearch(id string) error {
	if _, ok := g.containers[id]; !ok {
		return nil
	}
	g.smartCollapseDisabled = true

	chain := g.Ancestors(id)
	slices.Reverse(chain)
	chain = append(chain, id)
	for _, cid := range chain {
		cc := g.containers[cid]
		if !cc.Collapsed && !cc.Hidden {
			continue
		}
		if err := g.expandContainer(cid, SystemMutation); err != nil {
			return err
		}
		g.expandedForSearch[cid] = struct{}{}
	}
	return nil
}

// ExpandedForSearch returns the sorted ids of containers expanded to reveal
// search matches since the last ClearSearchExpansions call.
func (g *Graph) ExpandedForSearch() []string {
	out := make([]string, 0, len(g.expandedForSearch))
	for id := range g.expandedForSearch {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// ClearSearchExpansions forgets the expanded-for-search set.
func (g *Graph) ClearSearchExpansions() {
	g.expandedForSearch = make(map[string]struct{})
}

// =============================================================================
// State Transitions
// =============================================================================

// collapseContainer is the single state-transition function behind all
// collapse entry points. Collapsing is transitively deep: every descendant is
// hidden and every descendant container is collapsed too, so a later expand
// of this container reveals one level of proxies rather than the full
// subtree.
func (g *Graph) collapseContainer(id string, src MutationSource) error {
	c, ok := g.containers[id]
	if !ok {
		return nil
	}
	if src == UserMutation {
		g.smartCollapseDisabled = true
	}

	c.Collapsed = true
	for did := range g.descendantSet(id) {
		if n, ok := g.nodes[did]; ok {
			n.Hidden = true
			continue
		}
		if dc, ok := g.containers[did]; ok {
			dc.Hidden = true
			dc.Collapsed = true
		}
	}

	g.aggregateEdgesForContainer(id)
	return g.validate()
}

// expandContainer is the single state-transition function behind all expand
// entry points. Expansion is one level deep: immediate children become
// visible, and only child containers that are already expanded have their own
// children revealed.
func (g *Graph) expandContainer(id string, src MutationSource) error {
	c, ok := g.containers[id]
	if !ok {
		return nil
	}
	if src == UserMutation {
		g.smartCollapseDisabled = true
	}
	if c.Hidden {
		return errors.New(errors.ErrCodeInvalidOperation,
			"cannot expand hidden container %s: an enclosing container is still collapsed", id)
	}

	c.Collapsed = false
	g.showChildren(id)
	g.restoreEdgesForContainer(id)
	return g.validate()
}

// showChildren reveals the immediate children of an expanded container,
// recursing into child containers that are not collapsed.
func (g *Graph) showChildren(id string) {
	c, ok := g.containers[id]
	if !ok {
		return
	}
	for _, child := range c.Children {
		if n, ok := g.nodes[child]; ok {
			n.Hidden = false
			continue
		}
		if cc, ok := g.containers[child]; ok {
			cc.Hidden = false
			if !cc.Collapsed {
				g.showChildren(child)
			}
		}
	}
}

// containersTopDown returns all container ids ordered by nesting depth,
// outermost first, with id order as tie-break.
func (g *Graph) containersTopDown() []string {
	ids := sortedKeys(g.containers)
	slices.SortStableFunc(ids, func(a, b string) int {
		return len(g.Ancestors(a)) - len(g.Ancestors(b))
	})
	return ids
}
