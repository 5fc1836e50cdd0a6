// Package dot renders the visible projection of a hierarchical graph as
// Graphviz diagrams.
//
// # Overview
//
// Expanded containers become Graphviz clusters, collapsed containers become
// box3d proxy nodes, and aggregated edges are drawn dashed with the number of
// originals they stand in for. Only the visible projection is rendered:
// hidden entities and subsumed originals never appear.
//
// # Usage
//
// Convert a graph to DOT format, then render to SVG:
//
//	src := dot.ToDOT(g, dot.Options{})
//	svg, err := dot.RenderSVG(src)
//
// The generated DOT uses top-to-bottom layout (rankdir=TB). The [ToDOT]
// output is deterministic for a given visible state, which makes it safe to
// cache by state hash.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package dot
