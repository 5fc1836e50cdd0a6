package graph

import (
	"fmt"
	"strings"
	"time"

	"github.com/foldview/foldview/pkg/errors"
	"github.com/foldview/foldview/pkg/observability"
)

// RuleViolation describes one failed invariant check.
type RuleViolation struct {
	Rule     int    `json:"rule"`
	EntityID string `json:"entity_id"`
	Detail   string `json:"detail"`
}

// InvariantError aggregates every rule violation found in a single
// post-mutation validation pass. Callers should treat it as fatal to the
// current operation or session: by the time it is raised the mutation has
// already been applied and the in-memory state is known-inconsistent.
type InvariantError struct {
	Violations []RuleViolation
}

// Error implements the error interface, enumerating every failing rule.
func (e *InvariantError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = fmt.Sprintf("rule %d (%s): %s", v.Rule, v.EntityID, v.Detail)
	}
	return "invariant violations: " + strings.Join(parts, "; ")
}

// Validate runs the full structural rule set without mutating anything.
// Mutators call this automatically; it is exported so hosts can re-check a
// graph after deserializing one from storage.
//
// Rules (1-6 fatal, 7 warning-only):
//
//  1. No container is expanded yet hidden.
//  2. Every descendant of a collapsed container is hidden, and every
//     descendant container is itself collapsed.
//  3. No visible container has a hidden ancestor.
//  4. No node directly inside a collapsed container is visible.
//  5. Every edge endpoint resolves to an existing node or container.
//  6. No visible edge references a hidden endpoint.
//  7. A collapsed container's rendered footprint stays under the configured
//     threshold (reported through observability hooks, never fatal).
func (g *Graph) Validate() error {
	return g.validate()
}

func (g *Graph) validate() error {
	if g.validating {
		return nil
	}
	g.validating = true
	defer func() { g.validating = false }()

	start := time.Now()
	var violations []RuleViolation
	add := func(rule int, entityID, format string, args ...any) {
		violations = append(violations, RuleViolation{
			Rule:     rule,
			EntityID: entityID,
			Detail:   fmt.Sprintf(format, args...),
		})
	}

	for _, id := range sortedKeys(g.containers) {
		c := g.containers[id]

		// Rule 1: {collapsed:false, hidden:true} is not a legal state.
		if !c.Collapsed && c.Hidden {
			add(1, id, "container is hidden but not collapsed")
		}

		// Rule 2: collapse is transitively deep.
		if c.Collapsed {
			for did := range g.descendantSet(id) {
				if n, ok := g.nodes[did]; ok && !n.Hidden {
					add(2, did, "visible node inside collapsed container %s", id)
				}
				if dc, ok := g.containers[did]; ok {
					if !dc.Hidden {
						add(2, did, "visible container inside collapsed container %s", id)
					}
					if !dc.Collapsed {
						add(2, did, "expanded container inside collapsed container %s", id)
					}
				}
			}
		}

		// Rule 3: a visible container's whole ancestor chain is visible.
		if !c.Hidden {
			for _, anc := range g.Ancestors(id) {
				if ac, ok := g.containers[anc]; ok && ac.Hidden {
					add(3, id, "visible container has hidden ancestor %s", anc)
				}
			}
		}
	}

	// Rule 4: direct members of a collapsed container are hidden.
	for _, id := range sortedKeys(g.nodes) {
		n := g.nodes[id]
		if n.Hidden {
			continue
		}
		if parent, ok := g.nodeParent[id]; ok {
			if pc, ok := g.containers[parent]; ok && pc.Collapsed {
				add(4, id, "visible node directly inside collapsed container %s", parent)
			}
		}
	}

	// Rules 5 and 6 apply to original and aggregated edges alike.
	for _, id := range sortedKeys(g.edges) {
		e := g.edges[id]
		g.checkEndpoints(id, e.Source, e.Target, e.Hidden, add)
	}
	for _, id := range sortedKeys(g.aggregated) {
		a := g.aggregated[id]
		g.checkEndpoints(id, a.Source, a.Target, a.Hidden, add)
	}

	if len(violations) > 0 {
		observability.Graph().OnValidation(time.Since(start), len(violations))
		return errors.Wrap(errors.ErrCodeInvariant, &InvariantError{Violations: violations},
			"post-mutation validation failed (%d violations)", len(violations))
	}

	// Rule 7: footprint smell check, warning only.
	if g.footprintWarnLimit > 0 {
		for _, id := range sortedKeys(g.containers) {
			c := g.containers[id]
			if c.Collapsed && !c.Hidden {
				if area := c.Width * c.Height; area > g.footprintWarnLimit {
					observability.Graph().OnFootprintWarning(id, area, g.footprintWarnLimit)
				}
			}
		}
	}

	observability.Graph().OnValidation(time.Since(start), 0)
	return nil
}

// checkEndpoints applies rules 5 and 6 to one edge.
func (g *Graph) checkEndpoints(id, source, target string, hidden bool, add func(int, string, string, ...any)) {
	if !g.entityExists(source) {
		add(5, id, "edge source %s does not resolve", source)
	}
	if !g.entityExists(target) {
		add(5, id, "edge target %s does not resolve", target)
	}
	if hidden {
		return
	}
	if g.entityExists(source) && !g.entityVisible(source) {
		add(6, id, "visible edge references hidden source %s", source)
	}
	if g.entityExists(target) && !g.entityVisible(target) {
		add(6, id, "visible edge references hidden target %s", target)
	}
}
