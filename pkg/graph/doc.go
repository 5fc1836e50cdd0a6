// Package graph implements the hierarchical graph engine at the heart of
// Foldview: a mutable set of nodes, edges, and nested containers that can be
// interactively collapsed and expanded while keeping the visible edge set
// meaningful at every level.
//
// # Model
//
// Nodes and containers are stored in an arena keyed by id. Containers form a
// forest: each container belongs to at most one parent container, derived
// from child-set membership rather than stored back-pointers. Edges reference
// endpoints by id and are never deleted by collapse operations, only hidden,
// so every aggregation is reversible.
//
// # Collapse and aggregation
//
// Collapsing a container hides all of its transitive descendants and replaces
// every edge crossing the container boundary with a synthetic aggregated edge
// between the visible endpoints. Expanding reverses this, re-aggregating any
// edge whose far endpoint is still buried inside another collapsed container
// against that container's nearest visible ancestor. See [Graph.CollapseContainer]
// and [Graph.ExpandContainer].
//
// # Invariants
//
// Every mutator ends by running a structural validator. Violations surface as
// an [InvariantError] wrapped with errors.ErrCodeInvariant and should be
// treated as fatal: the in-memory state is known-inconsistent once the
// validator trips. See [Graph.Validate] for the rule list.
//
// The engine is single-threaded by design. Callers that funnel concurrent
// requests through a Graph must serialize them externally (the HTTP host in
// internal/server does this with a single mutex).
package graph
