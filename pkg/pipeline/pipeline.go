// Package pipeline provides the core processing pipeline for Foldview.
//
// This package implements the complete load → collapse → render pipeline
// that can be used by CLI and server components. By centralizing this logic,
// we ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Decode a graph document and build the live graph
//  2. Collapse: Apply the budgeted smart-collapse heuristic
//  3. Render: Generate output in various formats (DOT, SVG, JSON)
//
// Each stage can be run independently or as part of the complete pipeline.
// The collapse decision and rendered artifacts are cached by content hash;
// the load stage is cheap enough to always run.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    DocumentJSON: data,
//	    Budget:       30000,
//	    Formats:      []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"time"

	"github.com/foldview/foldview/pkg/errors"
	"github.com/foldview/foldview/pkg/graph"
)

// Format constants for output formats.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatSVG:  true,
	FormatJSON: true,
}

// DefaultBudget is the smart-collapse area budget used when none is set.
const DefaultBudget = 30000.0

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// DocumentJSON is the raw graph document.
	DocumentJSON []byte `json:"document_json,omitempty"`

	// Budget is the smart-collapse area budget. Zero means DefaultBudget;
	// use SkipCollapse to disable the heuristic entirely.
	Budget float64 `json:"budget,omitempty"`

	// CostModel overrides the engine defaults when any field is non-zero.
	NodeArea           float64 `json:"node_area,omitempty"`
	CollapsedFootprint float64 `json:"collapsed_footprint,omitempty"`
	Padding            float64 `json:"padding,omitempty"`

	// SkipCollapse leaves the document in its stored collapse state.
	SkipCollapse bool `json:"skip_collapse,omitempty"`

	// Formats lists the artifacts to render. Defaults to ["dot"].
	Formats []string `json:"formats,omitempty"`

	// Detailed includes tags in rendered node labels.
	Detailed bool `json:"detailed,omitempty"`

	// Refresh bypasses the cache for this run.
	Refresh bool `json:"refresh,omitempty"`
}

// ValidateAndSetDefaults checks options and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if len(o.DocumentJSON) == 0 {
		return errors.New(errors.ErrCodeInvalidDocument, "document must not be empty")
	}
	if o.Budget < 0 {
		return errors.New(errors.ErrCodeInvalidOperation, "budget must not be negative")
	}
	if o.Budget == 0 {
		o.Budget = DefaultBudget
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatDOT}
	}
	for _, f := range o.Formats {
		if !ValidFormats[f] {
			return errors.New(errors.ErrCodeUnsupported, "unsupported format %q", f)
		}
	}
	return nil
}

// costModel builds the engine cost model from the options, falling back to
// the engine defaults for unset fields.
func (o *Options) costModel() graph.CostModel {
	m := graph.DefaultCostModel()
	if o.NodeArea > 0 {
		m.NodeArea = o.NodeArea
	}
	if o.CollapsedFootprint > 0 {
		m.CollapsedFootprint = o.CollapsedFootprint
	}
	if o.Padding > 0 {
		m.Padding = o.Padding
	}
	return m
}

// Stats captures per-stage timings.
type Stats struct {
	LoadTime     time.Duration `json:"load_time"`
	CollapseTime time.Duration `json:"collapse_time"`
	RenderTime   time.Duration `json:"render_time"`
	NodeCount    int           `json:"node_count"`
	EdgeCount    int           `json:"edge_count"`
}

// CacheInfo reports which stages were served from cache.
type CacheInfo struct {
	CollapseHit bool `json:"collapse_hit"`
	RenderHit   bool `json:"render_hit"`
}

// Result is the outcome of a pipeline run.
type Result struct {
	Graph        *graph.Graph              `json:"-"`
	DocumentHash string                    `json:"document_hash"`
	Collapse     graph.SmartCollapseResult `json:"collapse"`
	Artifacts    map[string][]byte         `json:"-"`
	Stats        Stats                     `json:"stats"`
	CacheInfo    CacheInfo                 `json:"cache_info"`
}
