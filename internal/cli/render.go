package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kleypas/netplot/pkg/pipeline"
)

// renderCommand creates the render command: declaration in, visual artifacts out.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		overrides  string
		detailed   bool
		pngScale   float64
		noCache    bool
		refresh    bool
	)

	cmd := &cobra.Command{
		Use:   "render [declaration]",
		Short: "Render a declaration to SVG, PNG, PDF, DOT, or JSON",
		Long: `Render a declaration to SVG, PNG, PDF, DOT, or JSON.

The render command runs the full pipeline: load the declaration, synthesize
the positioned diagram, and export it in one or more formats. With multiple
formats, --output is treated as a base path and the format extension is
appended.

PNG and PDF conversion require librsvg (rsvg-convert on PATH).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(formats); err != nil {
				return err
			}
			opts := pipeline.Options{
				Source:        args[0],
				OverridesPath: overrides,
				Formats:       formats,
				Detailed:      detailed,
				PNGScale:      pngScale,
				Refresh:       refresh,
			}
			return c.runRender(cmd.Context(), opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, dot, png, pdf (comma-separated)")
	cmd.Flags().StringVar(&overrides, "overrides", "", "structural override table (TOML)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include device addresses in node labels")
	cmd.Flags().Float64Var(&pngScale, "png-scale", pipeline.DefaultPNGScale, "PNG rasterization scale factor")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "skip cache reads, recompute everything")

	return cmd
}

// runRender executes the pipeline and writes one file per requested format.
func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	spin := newSpinner(ctx, "Rendering topology...")
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spin.StopWithError("Render failed")
		return err
	}
	spin.Stop()

	printSuccess("Rendered %s", opts.Source)
	cached := result.CacheInfo.SynthHit && result.CacheInfo.ExportHit
	printStats(result.Stats.NetworkCount, result.Stats.NodeCount, result.Stats.EdgeCount, cached)
	if result.Synthesis.SkippedTargets > 0 {
		printWarning("%d diversion/interface targets could not be resolved", result.Synthesis.SkippedTargets)
	}

	return writeArtifacts(result.Artifacts, opts.Formats, opts.Source, output)
}

// writeArtifacts writes each format's bytes to its derived output path.
func writeArtifacts(artifacts map[string][]byte, formats []string, input, output string) error {
	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			return fmt.Errorf("no %s artifact produced", format)
		}
		path := artifactPath(input, output, format, len(formats) > 1)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

// artifactPath derives the output file name for one format.
//
// Single format: --output verbatim if set, else the input base with the
// format extension. Multiple formats: --output (or the input base) is a
// base path and the extension is appended.
func artifactPath(input, output, format string, multi bool) string {
	ext := "." + format
	if output == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		return base + ext
	}
	if !multi {
		return output
	}
	return strings.TrimSuffix(output, filepath.Ext(output)) + ext
}
