package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/foldview/foldview/pkg/pipeline"
)

// exportCommand creates the export command: convert a document to other
// formats without touching its collapse state.
func (c *CLI) exportCommand() *cobra.Command {
	var formatsStr, output string
	var detailed bool

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Convert a document to DOT, SVG, or canonical JSON",
		Long: `Export renders a document exactly as stored: collapsed containers stay
collapsed, expanded ones stay expanded, and the smart-collapse heuristic is
not consulted. Use "foldview collapse" to pick an initial view first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(cfg, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			formats := parseFormats(formatsStr)
			result, err := runner.Execute(cmd.Context(), pipeline.Options{
				DocumentJSON: data,
				SkipCollapse: true,
				Formats:      formats,
				Detailed:     detailed,
			})
			if err != nil {
				return err
			}

			base := artifactBase(output, args[0])
			for _, format := range formats {
				path := artifactPath(base, format, len(formats) == 1, output)
				if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
					return err
				}
				printFile(path)
			}
			printStats(result.Stats.NodeCount, result.Stats.EdgeCount, 0, result.CacheInfo.RenderHit)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, json (comma-separated)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include tags in rendered labels")

	return cmd
}
