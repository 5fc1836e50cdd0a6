package graph

import (
	"slices"

	"github.com/foldview/foldview/pkg/observability"
)

// CostModel holds the constants behind the expansion-cost estimate used by
// smart collapse. All values are abstract area units; they only need to be
// consistent with each other and with the caller's budget.
type CostModel struct {
	// NodeArea is the estimated footprint of one expanded node child.
	NodeArea float64
	// CollapsedFootprint is the fixed footprint of a collapsed container,
	// used both for container children and as the baseline subtracted from
	// the expanded estimate.
	CollapsedFootprint float64
	// Padding is the fixed chrome around an expanded container's children.
	Padding float64
}

// DefaultCostModel returns the cost constants used when the host supplies
// none.
func DefaultCostModel() CostModel {
	return CostModel{
		NodeArea:           6000,
		CollapsedFootprint: 2500,
		Padding:            1200,
	}
}

// SmartCollapseResult reports what a smart-collapse pass decided.
type SmartCollapseResult struct {
	// Applied is false when the graph was not eligible (a layout already ran
	// or a user operation disabled the heuristic) and nothing was changed.
	Applied bool `json:"applied"`
	// Expanded and Collapsed list container ids by outcome, sorted.
	Expanded  []string `json:"expanded"`
	Collapsed []string `json:"collapsed"`
	// TotalCost is the summed expansion cost of the admitted containers.
	TotalCost float64 `json:"total_cost"`
	Budget    float64 `json:"budget"`
}

// ExpansionCost estimates how much area expanding the container would add:
// padding plus a fixed per-child area for node children plus the collapsed
// footprint for container children, minus the container's own collapsed
// footprint. Floored at zero - a container that would not grow is free.
// Returns 0 for unknown ids.
func (g *Graph) ExpansionCost(id string, m CostModel) float64 {
	c, ok := g.containers[id]
	if !ok {
		return 0
	}
	cost := m.Padding
	for _, child := range c.Children {
		if _, isNode := g.nodes[child]; isNode {
			cost += m.NodeArea
		} else if _, isContainer := g.containers[child]; isContainer {
			cost += m.CollapsedFootprint
		}
	}
	cost -= m.CollapsedFootprint
	if cost < 0 {
		return 0
	}
	return cost
}

// SmartCollapseEligible reports whether the cold-start heuristic may still
// run: no layout pass has completed and no user or search operation has
// touched the collapse state.
func (g *Graph) SmartCollapseEligible() bool {
	return g.layout.LayoutCount == 0 && !g.smartCollapseDisabled
}

// ReArmSmartCollapse re-enables the heuristic after a layout-configuration
// change. It does not reset the layout counter; eligibility still requires
// that no layout has completed.
func (g *Graph) ReArmSmartCollapse() {
	g.smartCollapseDisabled = false
}

// ApplySmartCollapse greedily admits containers into an expanded state in
// ascending expansion-cost order (id as tie-break) while the running cost
// total stays under budget, and collapses everything else. A knapsack-style
// approximation, deterministic but not optimal.
//
// The pass runs only when the graph is eligible; otherwise it returns with
// Applied=false and no changes. All collapses go through the system entry
// point, so eligibility survives for a potential re-run after ReArmSmartCollapse.
func (g *Graph) ApplySmartCollapse(budget float64, m CostModel) (SmartCollapseResult, error) {
	result := SmartCollapseResult{Budget: budget}
	if !g.SmartCollapseEligible() {
		return result, nil
	}
	result.Applied = true

	ids := sortedKeys(g.containers)
	costs := make(map[string]float64, len(ids))
	for _, id := range ids {
		costs[id] = g.ExpansionCost(id, m)
	}
	byCost := slices.Clone(ids)
	slices.SortStableFunc(byCost, func(a, b string) int {
		switch {
		case costs[a] < costs[b]:
			return -1
		case costs[a] > costs[b]:
			return 1
		default:
			return 0
		}
	})

	admitted := make(map[string]struct{}, len(byCost))
	var total float64
	for _, id := range byCost {
		if total+costs[id] > budget {
			continue
		}
		total += costs[id]
		admitted[id] = struct{}{}
	}
	result.TotalCost = total

	// Apply top-down: collapsing a rejected container buries its subtree, so
	// an admitted child under a rejected parent simply stays collapsed until
	// the user expands the parent.
	var apply func(id string) error
	apply = func(id string) error {
		if _, ok := admitted[id]; !ok {
			return g.SystemCollapseContainer(id)
		}
		if g.containers[id].Collapsed {
			// A re-run after ReArmSmartCollapse may revise an earlier pass.
			if err := g.SystemExpandContainer(id); err != nil {
				return err
			}
		}
		for _, child := range g.containers[id].Children {
			if _, isContainer := g.containers[child]; isContainer {
				if err := apply(child); err != nil {
					return err
				}
			}
		}
		return nil
	}
	for _, id := range ids {
		if _, hasParent := g.containerParent[id]; hasParent {
			continue
		}
		if err := apply(id); err != nil {
			return result, err
		}
	}

	for _, id := range ids {
		if c := g.containers[id]; c.Collapsed {
			result.Collapsed = append(result.Collapsed, id)
		} else {
			result.Expanded = append(result.Expanded, id)
		}
	}
	observability.Graph().OnSmartCollapse(len(result.Expanded), len(result.Collapsed), budget)
	return result, nil
}
