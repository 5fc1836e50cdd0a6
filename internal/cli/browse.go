package cli

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/foldview/foldview/pkg/graph"
	"github.com/foldview/foldview/pkg/graphio"
)

// browseCommand creates the browse command: an interactive terminal view of
// the container hierarchy with live collapse and expand.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [file]",
		Short: "Explore a graph interactively in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := graphio.ImportJSON(args[0])
			if err != nil {
				return err
			}
			if g.ContainerCount() == 0 {
				printInfo("Document has no containers to browse")
				return nil
			}

			model := newBrowseModel(g, args[0])
			final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
			if err != nil {
				return err
			}
			if m, ok := final.(browseModel); ok && m.saved {
				printSuccess("Saved %s", m.path)
			}
			return nil
		},
	}
}

// List styles
var (
	browseSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	browseNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	browseDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// browseRow is one visible container in the flattened tree.
type browseRow struct {
	id        string
	label     string
	depth     int
	collapsed bool
	nodes     int // direct node children
	edges     int // aggregated edges owned by this container
}

// browseModel is the bubbletea model for the container tree.
type browseModel struct {
	g    *graph.Graph
	path string

	rows   []browseRow
	cursor int
	offset int
	height int

	status string
	saved  bool
	err    error
}

func newBrowseModel(g *graph.Graph, path string) browseModel {
	m := browseModel{g: g, path: path, height: 20}
	m.rows = flattenVisible(g)
	return m
}

// flattenVisible walks the visible container forest depth-first and returns
// one row per visible container.
func flattenVisible(g *graph.Graph) []browseRow {
	aggregates := make(map[string]int)
	for _, e := range g.VisibleEdges() {
		if e.Aggregated {
			aggregates[e.ContainerID]++
		}
	}

	var roots []string
	for _, c := range g.VisibleContainers() {
		if _, hasParent := g.Parent(c.ID); !hasParent {
			roots = append(roots, c.ID)
		}
	}
	sort.Strings(roots)

	var rows []browseRow
	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		c, ok := g.Container(id)
		if !ok || c.Hidden {
			return
		}
		nodes := 0
		var children []string
		for _, child := range c.Children {
			if _, isNode := g.Node(child); isNode {
				nodes++
			} else if _, isContainer := g.Container(child); isContainer {
				children = append(children, child)
			}
		}
		rows = append(rows, browseRow{
			id:        id,
			label:     c.Label,
			depth:     depth,
			collapsed: c.Collapsed,
			nodes:     nodes,
			edges:     aggregates[id],
		})
		if !c.Collapsed {
			for _, child := range children {
				walk(child, depth+1)
			}
		}
	}
	for _, root := range roots {
		walk(root, 0)
	}
	return rows
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter", " ":
			m = m.toggle()
		case "c":
			m = m.apply("Collapsed all", m.g.CollapseAllContainers)
		case "e":
			m = m.apply("Expanded all", m.g.ExpandAllContainers)
		case "s":
			m = m.save()
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 6
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

// toggle flips the collapse state of the container under the cursor.
func (m browseModel) toggle() browseModel {
	if m.cursor >= len(m.rows) {
		return m
	}
	row := m.rows[m.cursor]
	if row.collapsed {
		return m.apply("Expanded "+row.label, func() error { return m.g.ExpandContainer(row.id) })
	}
	return m.apply("Collapsed "+row.label, func() error { return m.g.CollapseContainer(row.id) })
}

// apply runs a mutation, refreshes the rows, and records the outcome.
func (m browseModel) apply(status string, fn func() error) browseModel {
	if err := fn(); err != nil {
		m.err = err
		m.status = ""
		return m
	}
	m.err = nil
	m.status = status
	m.rows = flattenVisible(m.g)
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.offset > m.cursor {
		m.offset = m.cursor
	}
	return m
}

// save writes the current collapse state back to the document file.
func (m browseModel) save() browseModel {
	if err := graphio.ExportJSON(m.g, m.path); err != nil {
		m.err = err
		return m
	}
	m.err = nil
	m.saved = true
	m.status = "Saved " + m.path
	return m
}

func (m browseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Foldview"))
	b.WriteString(browseDimStyle.Render("  " + m.path))
	b.WriteString("\n")
	b.WriteString(browseDimStyle.Render("↑/↓ navigate  ⏎ toggle  c collapse all  e expand all  s save  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.rows) {
		end = len(m.rows)
	}
	for i := m.offset; i < end; i++ {
		row := m.rows[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		icon := styleExpanded.Render(iconExpanded)
		if row.collapsed {
			icon = styleCollapsed.Render(iconCollapsed)
		}

		detail := fmt.Sprintf(" (%d nodes)", row.nodes)
		if row.collapsed && row.edges > 0 {
			detail = fmt.Sprintf(" (%d nodes, %d bundled edges)", row.nodes, row.edges)
		}

		line := cursor + strings.Repeat("  ", row.depth) + icon + " " + row.label
		if i == m.cursor {
			b.WriteString(browseSelectedStyle.Render(line))
		} else {
			b.WriteString(browseNormalStyle.Render(line))
		}
		b.WriteString(browseDimStyle.Render(detail))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(StyleWarning.Render("! " + m.err.Error()))
	case m.status != "":
		b.WriteString(StyleSuccess.Render("✓ " + m.status))
	}
	b.WriteString("\n")
	b.WriteString(browseDimStyle.Render(fmt.Sprintf("  [%d/%d]  %d visible nodes  %d visible edges",
		m.cursor+1, len(m.rows), len(m.g.VisibleNodes()), len(m.g.VisibleEdges()))))

	return b.String()
}
