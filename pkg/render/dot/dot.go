package dot

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/foldview/foldview/pkg/graph"
)

// Options configures diagram rendering.
type Options struct {
	// Detailed includes tags in node labels.
	// When false, only the display label is shown.
	Detailed bool
}

// ToDOT converts the visible projection of a graph to Graphviz DOT format.
// The resulting DOT string can be rendered with [RenderSVG] or processed by
// external Graphviz tools.
func ToDOT(g *graph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	w := &treeWriter{g: g, buf: &buf, opts: opts}
	w.writeEntities()

	buf.WriteString("\n")
	for _, e := range g.VisibleEdges() {
		if e.Aggregated {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed, label=%q];\n",
				e.Source, e.Target, fmt.Sprintf("%d", len(e.OriginalEdges)))
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// treeWriter emits visible entities depth-first: expanded containers open a
// cluster, collapsed ones become a box3d proxy node.
type treeWriter struct {
	g    *graph.Graph
	buf  *bytes.Buffer
	opts Options
}

func (w *treeWriter) writeEntities() {
	children := make(map[string][]string)
	var roots []string
	for _, n := range w.g.VisibleNodes() {
		if parent, ok := w.visibleParent(n.ID); ok {
			children[parent] = append(children[parent], n.ID)
		} else {
			roots = append(roots, n.ID)
		}
	}
	for _, c := range w.g.VisibleContainers() {
		if parent, ok := w.visibleParent(c.ID); ok {
			children[parent] = append(children[parent], c.ID)
		} else {
			roots = append(roots, c.ID)
		}
	}
	// Projections are already id-sorted, so roots and child lists are too.
	for _, id := range roots {
		w.writeEntity(id, children, 1)
	}
}

// visibleParent resolves the parent cluster of a visible entity. A visible
// entity directly inside a collapsed (but visible) container cannot occur, so
// any visible parent is an open cluster.
func (w *treeWriter) visibleParent(id string) (string, bool) {
	parent, ok := w.g.Parent(id)
	if !ok {
		return "", false
	}
	if c, found := w.g.Container(parent); found && !c.Hidden {
		return parent, true
	}
	return "", false
}

func (w *treeWriter) writeEntity(id string, children map[string][]string, depth int) {
	indent := strings.Repeat("  ", depth)

	if c, ok := w.g.Container(id); ok {
		if c.Collapsed {
			count := len(w.g.Descendants(id))
			label := fmt.Sprintf("%s (%d)", c.Label, count)
			fmt.Fprintf(w.buf, "%s%q [label=%q, shape=box3d, fillcolor=lightgrey];\n", indent, id, label)
			return
		}
		fmt.Fprintf(w.buf, "%ssubgraph %q {\n", indent, "cluster_"+id)
		fmt.Fprintf(w.buf, "%s  label=%q;\n", indent, c.Label)
		fmt.Fprintf(w.buf, "%s  style=rounded;\n", indent)
		for _, child := range children[id] {
			w.writeEntity(child, children, depth+1)
		}
		fmt.Fprintf(w.buf, "%s}\n", indent)
		return
	}

	if n, ok := w.g.Node(id); ok {
		fmt.Fprintf(w.buf, "%s%q [label=%q];\n", indent, id, w.nodeLabel(n))
	}
}

func (w *treeWriter) nodeLabel(n graph.Node) string {
	label := n.DisplayLabel()
	if w.opts.Detailed && len(n.Tags) > 0 {
		label += "\n" + strings.Join(n.Tags, ", ")
	}
	return label
}
