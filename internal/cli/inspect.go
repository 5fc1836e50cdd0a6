package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/foldview/foldview/pkg/graph"
	"github.com/foldview/foldview/pkg/graphio"
)

// inspectCommand creates the inspect command for summarizing a document.
func (c *CLI) inspectCommand() *cobra.Command {
	var showCosts bool

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Summarize a graph document and its container hierarchy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(args[0], showCosts)
		},
	}

	cmd.Flags().BoolVar(&showCosts, "costs", false, "show expansion cost per container")

	return cmd
}

func (c *CLI) runInspect(input string, showCosts bool) error {
	prog := newProgress(c.Logger)
	g, err := graphio.ImportJSON(input)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Loaded %s", input))

	fmt.Println(StyleTitle.Render("Graph Summary"))
	printKeyValue("Nodes", fmt.Sprintf("%d", g.NodeCount()))
	printKeyValue("Edges", fmt.Sprintf("%d", g.EdgeCount()))
	printKeyValue("Containers", fmt.Sprintf("%d", g.ContainerCount()))
	printKeyValue("Layout", string(g.LayoutState().Phase))

	eligible := "no"
	if g.SmartCollapseEligible() {
		eligible = "yes"
	}
	printKeyValue("Smart collapse", eligible)

	if g.ContainerCount() > 0 {
		fmt.Println()
		fmt.Println(StyleTitle.Render("Hierarchy"))
		printHierarchy(g, showCosts)
	}

	fmt.Println()
	printNextStep("Pick an initial view", fmt.Sprintf("foldview collapse %s", input))
	return nil
}

// printHierarchy renders the container forest as an indented tree, nodes
// counted rather than listed.
func printHierarchy(g *graph.Graph, showCosts bool) {
	model := graph.DefaultCostModel()

	var roots []string
	for _, c := range g.Containers() {
		if _, hasParent := g.Parent(c.ID); !hasParent {
			roots = append(roots, c.ID)
		}
	}
	sort.Strings(roots)

	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		container, ok := g.Container(id)
		if !ok {
			return
		}

		icon := styleExpanded.Render(iconExpanded)
		if container.Collapsed {
			icon = styleCollapsed.Render(iconCollapsed)
		}

		nodeChildren := 0
		var containerChildren []string
		for _, child := range container.Children {
			if _, isNode := g.Node(child); isNode {
				nodeChildren++
			} else if _, isContainer := g.Container(child); isContainer {
				containerChildren = append(containerChildren, child)
			}
		}

		line := strings.Repeat("  ", depth) + icon + " " + StyleValue.Render(container.Label)
		line += StyleDim.Render(fmt.Sprintf(" (%d nodes)", nodeChildren))
		if showCosts {
			line += StyleDim.Render(fmt.Sprintf(" cost=%.0f", g.ExpansionCost(id, model)))
		}
		fmt.Println(line)

		for _, child := range containerChildren {
			walk(child, depth+1)
		}
	}
	for _, root := range roots {
		walk(root, 0)
	}
}
