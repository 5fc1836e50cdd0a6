package graph

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/foldview/foldview/pkg/observability"
)

// AggregateEdgeID returns the deterministic id of the aggregated edge a
// container produces for a resolved endpoint pair. Deterministic ids make
// collapse/expand cycles idempotent: re-aggregating the same boundary
// recreates (or merges into) the same edge instead of leaking duplicates.
func AggregateEdgeID(containerID, source, target string) string {
	return fmt.Sprintf("agg-%s-%s-%s", containerID, source, target)
}

// =============================================================================
// Aggregation
// =============================================================================

// edgeBucket accumulates the original edges that resolve to one visible
// endpoint pair during a single aggregation pass.
type edgeBucket struct {
	source    string
	target    string
	originals []string
	tags      []string
}

// aggregateEdgesForContainer reroutes every edge crossing the boundary of a
// freshly collapsed container:
//
//   - fully internal edges are hidden outright
//   - boundary-crossing edges have their buried endpoint remapped to the
//     container and are bucketed by resolved endpoint pair
//   - live aggregated edges touching the container's descendants are
//     remapped the same way, their original lists merged into the bucket,
//     and the stale aggregate is hidden
//   - remap self-loops (both ends resolving to the container) are discarded
//
// Each bucket then merges into the existing live aggregate with the same
// deterministic id or becomes a new one.
func (g *Graph) aggregateEdgesForContainer(containerID string) {
	desc := g.descendantSet(containerID)
	if len(desc) == 0 {
		return
	}

	buckets := make(map[string]*edgeBucket)
	var order []string
	collect := func(source, target string, originals, tags []string) {
		key := source + "\x00" + target
		b, ok := buckets[key]
		if !ok {
			b = &edgeBucket{source: source, target: target}
			buckets[key] = b
			order = append(order, key)
		}
		b.originals = unionIDs(b.originals, originals)
		b.tags = unionTags(b.tags, tags)
	}

	for _, id := range sortedKeys(g.edges) {
		e := g.edges[id]
		if e.Hidden {
			continue
		}
		_, srcIn := desc[e.Source]
		_, tgtIn := desc[e.Target]
		if !srcIn && !tgtIn {
			continue
		}
		e.Hidden = true
		if srcIn && tgtIn {
			continue
		}
		source, target := e.Source, e.Target
		if srcIn {
			source = containerID
		}
		if tgtIn {
			target = containerID
		}
		if source == target {
			continue
		}
		collect(source, target, []string{e.ID}, e.Tags)
	}

	for _, id := range sortedKeys(g.aggregated) {
		a := g.aggregated[id]
		if a.Hidden {
			continue
		}
		_, srcIn := desc[a.Source]
		_, tgtIn := desc[a.Target]
		if !srcIn && !tgtIn {
			continue
		}
		a.Hidden = true
		if srcIn && tgtIn {
			continue
		}
		source, target := a.Source, a.Target
		if srcIn {
			source = containerID
		}
		if tgtIn {
			target = containerID
		}
		if source == target {
			continue
		}
		collect(source, target, a.OriginalEdges, a.Tags)
	}

	for _, key := range order {
		b := buckets[key]
		g.upsertAggregate(containerID, b.source, b.target, b.originals, b.tags, OpAggregate)
	}
}

// upsertAggregate merges originals into the live aggregate for the given
// endpoint pair, or creates it. A hidden entry under the same id is a stale
// shadow from an earlier cycle and is simply replaced.
func (g *Graph) upsertAggregate(containerID, source, target string, originals, tags []string, op AggregationOp) {
	id := AggregateEdgeID(containerID, source, target)
	if a, ok := g.aggregated[id]; ok && !a.Hidden {
		a.OriginalEdges = unionIDs(a.OriginalEdges, originals)
		a.Tags = unionTags(a.Tags, tags)
		g.recordAggregation(OpMerge, containerID, id, len(originals))
		return
	}
	g.aggregated[id] = &AggregatedEdge{
		ID:            id,
		Source:        source,
		Target:        target,
		OriginalEdges: unionIDs(originals, nil),
		Tags:          normalizeTags(tags),
		ContainerID:   containerID,
	}
	g.recordAggregation(op, containerID, id, len(originals))
}

// =============================================================================
// Restoration
// =============================================================================

// restoreEdgesForContainer reverses aggregation when a container expands.
// Every aggregated edge whose source or target is the container is removed;
// its original edges are un-hidden only when both endpoints are actually
// visible again. An original whose far endpoint is still buried inside some
// other collapsed container is instead re-aggregated against that boundary,
// which is what keeps cross-container connectivity correct through arbitrary
// partial expand/collapse sequences.
func (g *Graph) restoreEdgesForContainer(containerID string) {
	desc := g.descendantSet(containerID)

	for _, id := range sortedKeys(g.aggregated) {
		a, ok := g.aggregated[id]
		if !ok || (a.Source != containerID && a.Target != containerID) {
			continue
		}
		if a.Hidden {
			// Stale shadow from an enclosing collapse; its originals are
			// tracked by the live aggregate that subsumed it.
			delete(g.aggregated, id)
			continue
		}
		originals := slices.Clone(a.OriginalEdges)
		delete(g.aggregated, id)
		for _, eid := range originals {
			e, ok := g.edges[eid]
			if !ok {
				continue
			}
			if g.entityVisible(e.Source) && g.entityVisible(e.Target) {
				e.Hidden = false
				continue
			}
			g.reaggregateEdge(e)
		}
		g.recordAggregation(OpRestore, containerID, id, len(originals))
	}

	// An aggregate buried by an enclosing collapse keeps its endpoints; once
	// both are visible again it is the only record of the edges it subsumes
	// and comes back live. Stales the loop above already replaced or deleted
	// never reach this point.
	for _, id := range sortedKeys(g.aggregated) {
		a := g.aggregated[id]
		if a.Hidden && g.entityVisible(a.Source) && g.entityVisible(a.Target) {
			a.Hidden = false
		}
	}

	// Fully internal edges were hidden without ever joining an aggregate, so
	// the loop above never sees them. Any such edge has an endpoint among
	// this container's descendants; once both ends are visible again it has
	// no stand-in left and simply comes back. Hidden edges elsewhere in the
	// graph are not this expand's to restore.
	for _, id := range sortedKeys(g.edges) {
		e := g.edges[id]
		if !e.Hidden {
			continue
		}
		_, srcIn := desc[e.Source]
		_, tgtIn := desc[e.Target]
		if !srcIn && !tgtIn {
			continue
		}
		if g.entityVisible(e.Source) && g.entityVisible(e.Target) {
			e.Hidden = false
		}
	}
}

// reaggregateEdge reroutes a single still-buried original edge against the
// nearest visible collapsed ancestor of each hidden endpoint
// (nearest-visible-ancestor-wins). The edge stays hidden; only its visible
// stand-in changes.
func (g *Graph) reaggregateEdge(e *Edge) {
	source, srcOwner, ok := g.resolveVisible(e.Source)
	if !ok {
		return
	}
	target, tgtOwner, ok := g.resolveVisible(e.Target)
	if !ok {
		return
	}
	if source == target {
		return
	}
	owner := srcOwner
	if owner == "" {
		owner = tgtOwner
	}
	if owner == "" {
		// Both endpoints visible after all; nothing to aggregate against.
		e.Hidden = false
		return
	}
	g.upsertAggregate(owner, source, target, []string{e.ID}, e.Tags, OpReaggregate)
}

// resolveVisible maps an endpoint to its visible stand-in: the entity itself
// when visible, otherwise its nearest visible ancestor container. The second
// result names the owning collapsed container when a remap happened. Returns
// ok=false when the endpoint has no visible representative at all.
func (g *Graph) resolveVisible(id string) (resolved, owner string, ok bool) {
	if g.entityVisible(id) {
		return id, "", true
	}
	anc, found := g.visibleAncestor(id)
	if !found {
		return "", "", false
	}
	return anc, anc, true
}

// =============================================================================
// History
// =============================================================================

// recordAggregation appends a diagnostic entry to the aggregation history.
func (g *Graph) recordAggregation(op AggregationOp, containerID, aggregateID string, edgeCount int) {
	g.history = append(g.history, AggregationRecord{
		ID:          uuid.NewString(),
		Op:          op,
		ContainerID: containerID,
		AggregateID: aggregateID,
		EdgeCount:   edgeCount,
		Timestamp:   time.Now().UTC(),
	})
	observability.Graph().OnAggregation(string(op), containerID, aggregateID, edgeCount)
}

// AggregationHistory returns a copy of the append-only aggregation log in
// chronological order.
func (g *Graph) AggregationHistory() []AggregationRecord {
	return slices.Clone(g.history)
}
