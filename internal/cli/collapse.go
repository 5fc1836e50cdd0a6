package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/foldview/foldview/pkg/pipeline"
)

// collapseOpts holds the command-line flags for the collapse command.
type collapseOpts struct {
	output   string   // output file (single format) or base path (multiple)
	formats  []string // output formats: "json", "dot", "svg"
	budget   float64  // smart-collapse area budget
	detailed bool     // include tags in rendered labels
	noCache  bool     // bypass the artifact cache
	refresh  bool     // recompute even when cached
}

// collapseCommand creates the collapse command: apply the budgeted
// smart-collapse heuristic and write the resulting artifacts.
func (c *CLI) collapseCommand() *cobra.Command {
	var formatsStr string
	var opts collapseOpts

	cmd := &cobra.Command{
		Use:   "collapse [file]",
		Short: "Apply smart collapse and write the resulting artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			return c.runCollapse(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, json (comma-separated)")
	cmd.Flags().Float64VarP(&opts.budget, "budget", "b", 0, "area budget for the initial view (0 = config default)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include tags in rendered labels")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when cached")

	return cmd
}

func (c *CLI) runCollapse(cmd *cobra.Command, input string, opts *collapseOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.budget == 0 {
		opts.budget = cfg.Collapse.Budget
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	model := cfg.CostModel()
	spin := newSpinner(cmd.Context(), "Collapsing and rendering")
	spin.Start()
	result, err := runner.Execute(cmd.Context(), pipeline.Options{
		DocumentJSON:       data,
		Budget:             opts.budget,
		NodeArea:           model.NodeArea,
		CollapsedFootprint: model.CollapsedFootprint,
		Padding:            model.Padding,
		Formats:            opts.formats,
		Detailed:           opts.detailed,
		Refresh:            opts.refresh,
	})
	spin.Stop()
	if err != nil {
		return err
	}

	if result.Collapse.Applied {
		printSuccess("Smart collapse: %d expanded, %d collapsed (cost %.0f of %.0f)",
			len(result.Collapse.Expanded), len(result.Collapse.Collapsed),
			result.Collapse.TotalCost, result.Collapse.Budget)
	} else {
		printWarning("Smart collapse skipped: the document is no longer eligible")
	}
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, 0,
		result.CacheInfo.CollapseHit && result.CacheInfo.RenderHit)

	base := artifactBase(opts.output, input)
	for _, format := range opts.formats {
		path := artifactPath(base, format, len(opts.formats) == 1, opts.output)
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return err
		}
		printFile(path)
	}
	return nil
}

// artifactBase derives the base output path from the output and input paths.
func artifactBase(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := strings.TrimPrefix(filepath.Ext(output), ".")
	if pipeline.ValidFormats[ext] {
		return strings.TrimSuffix(output, "."+ext)
	}
	return output
}

// artifactPath builds the output filename for one format. A single requested
// format with an explicit --output keeps that path verbatim.
func artifactPath(base, format string, single bool, output string) string {
	if single && output != "" {
		return output
	}
	return fmt.Sprintf("%s.%s", base, format)
}
