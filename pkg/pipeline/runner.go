package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/foldview/foldview/pkg/cache"
	"github.com/foldview/foldview/pkg/errors"
	"github.com/foldview/foldview/pkg/graph"
	"github.com/foldview/foldview/pkg/graphio"
	"github.com/foldview/foldview/pkg/observability"
	"github.com/foldview/foldview/pkg/render/dot"
)

// Runner executes the pipeline with caching.
//
// The runner ties the three stages together: load is always executed, the
// smart-collapse decision is cached by document hash, and rendered artifacts
// are cached by visible-state hash. A nil cache or keyer falls back to a
// no-op cache and the default key schema.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a pipeline runner. Any argument may be nil.
func NewRunner(c cache.Cache, k cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if k == nil {
		k = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{Cache: c, Keyer: k, Logger: logger}
}

// Execute runs the complete pipeline: load, smart collapse, render.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{Artifacts: make(map[string][]byte)}

	start := time.Now()
	doc, g, err := r.Load(opts)
	if err != nil {
		return nil, err
	}
	result.Graph = g
	result.DocumentHash = doc.Hash()
	result.Stats.LoadTime = time.Since(start)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()
	r.Logger.Debug("pipeline: loaded document",
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"duration", result.Stats.LoadTime)

	if !opts.SkipCollapse {
		start = time.Now()
		collapse, hit, err := r.CollapseWithCacheInfo(ctx, g, result.DocumentHash, opts)
		if err != nil {
			return nil, err
		}
		result.Collapse = collapse
		result.CacheInfo.CollapseHit = hit
		result.Stats.CollapseTime = time.Since(start)
		r.Logger.Debug("pipeline: smart collapse",
			"applied", collapse.Applied,
			"collapsed", len(collapse.Collapsed),
			"cached", hit,
			"duration", result.Stats.CollapseTime)
	}

	start = time.Now()
	allHit := true
	for _, format := range opts.Formats {
		artifact, hit, err := r.RenderWithCacheInfo(ctx, g, format, opts)
		if err != nil {
			return nil, err
		}
		result.Artifacts[format] = artifact
		allHit = allHit && hit
	}
	result.CacheInfo.RenderHit = allHit
	result.Stats.RenderTime = time.Since(start)
	r.Logger.Debug("pipeline: rendered artifacts",
		"formats", opts.Formats,
		"cached", allHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load decodes the document and builds the live graph.
func (r *Runner) Load(opts Options) (*graphio.Document, *graph.Graph, error) {
	doc, err := graphio.ParseDocument(opts.DocumentJSON)
	if err != nil {
		return nil, nil, err
	}
	g, err := doc.Build()
	if err != nil {
		return nil, nil, err
	}
	return doc, g, nil
}

// CollapseWithCacheInfo applies the smart-collapse heuristic, serving the
// decision from cache when an identical document was processed with the same
// budget and cost model. The bool return indicates a cache hit.
//
// The cached decision is replayed through the system collapse entry points,
// so eligibility tracking behaves exactly as a fresh pass would.
func (r *Runner) CollapseWithCacheInfo(ctx context.Context, g *graph.Graph, documentHash string, opts Options) (graph.SmartCollapseResult, bool, error) {
	model := opts.costModel()
	key := r.Keyer.CollapseKey(documentHash, cache.CollapseKeyOpts{
		Budget:             opts.Budget,
		NodeArea:           model.NodeArea,
		CollapsedFootprint: model.CollapsedFootprint,
		Padding:            model.Padding,
	})

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err != nil {
			r.Logger.Warn("pipeline: collapse cache read failed", "error", err)
		} else if hit {
			var cached graph.SmartCollapseResult
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit("collapse")
				if err := replayCollapse(g, cached); err != nil {
					return cached, false, err
				}
				return cached, true, nil
			}
			r.Logger.Warn("pipeline: discarding undecodable collapse entry", "key", key)
		}
	}
	observability.Cache().OnCacheMiss("collapse")

	decision, err := g.ApplySmartCollapse(opts.Budget, model)
	if err != nil {
		return decision, false, err
	}

	if data, err := json.Marshal(decision); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.CollapseTTL); err != nil {
			r.Logger.Warn("pipeline: collapse cache write failed", "error", err)
		} else {
			observability.Cache().OnCacheSet("collapse", len(data))
		}
	}
	return decision, false, nil
}

// replayCollapse reapplies a previously computed smart-collapse decision.
// Containers are walked top-down so a collapse of an outer container buries
// its subtree before any child is visited, mirroring a live pass.
func replayCollapse(g *graph.Graph, decision graph.SmartCollapseResult) error {
	if !decision.Applied {
		return nil
	}
	collapsed := make(map[string]struct{}, len(decision.Collapsed))
	for _, id := range decision.Collapsed {
		collapsed[id] = struct{}{}
	}
	var apply func(id string) error
	apply = func(id string) error {
		if _, ok := collapsed[id]; ok {
			return g.SystemCollapseContainer(id)
		}
		c, ok := g.Container(id)
		if !ok {
			return nil
		}
		if c.Collapsed {
			if err := g.SystemExpandContainer(id); err != nil {
				return err
			}
		}
		for _, child := range c.Children {
			if _, isContainer := g.Container(child); isContainer {
				if err := apply(child); err != nil {
					return err
				}
			}
		}
		return nil
	}
	for _, c := range g.Containers() {
		if _, hasParent := g.Parent(c.ID); hasParent {
			continue
		}
		if err := apply(c.ID); err != nil {
			return err
		}
	}
	return nil
}

// RenderWithCacheInfo renders one artifact from the graph's visible state.
// The bool return indicates a cache hit.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *graph.Graph, format string, opts Options) ([]byte, bool, error) {
	style := ""
	if opts.Detailed {
		style = "detailed"
	}
	key := r.Keyer.SnapshotKey(graphio.Snapshot(g).Hash(), cache.SnapshotKeyOpts{
		Format: format,
		Style:  style,
	})

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err != nil {
			r.Logger.Warn("pipeline: snapshot cache read failed", "error", err)
		} else if hit {
			observability.Cache().OnCacheHit("snapshot")
			return data, true, nil
		}
	}
	observability.Cache().OnCacheMiss("snapshot")

	artifact, err := r.render(g, format, opts)
	if err != nil {
		return nil, false, err
	}

	if err := r.Cache.Set(ctx, key, artifact, cache.SnapshotTTL); err != nil {
		r.Logger.Warn("pipeline: snapshot cache write failed", "error", err)
	} else {
		observability.Cache().OnCacheSet("snapshot", len(artifact))
	}
	return artifact, false, nil
}

func (r *Runner) render(g *graph.Graph, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatJSON:
		return graphio.Snapshot(g).Marshal()
	case FormatDOT:
		return []byte(dot.ToDOT(g, dot.Options{Detailed: opts.Detailed})), nil
	case FormatSVG:
		return dot.RenderSVG(dot.ToDOT(g, dot.Options{Detailed: opts.Detailed}))
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format %q", format)
	}
}

// Close releases the runner's cache resources.
func (r *Runner) Close() error {
	return r.Cache.Close()
}
