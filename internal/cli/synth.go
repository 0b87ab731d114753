package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kleypas/netplot/pkg/pipeline"
)

// synthCommand creates the synth command: declaration in, diagram JSON out.
func (c *CLI) synthCommand() *cobra.Command {
	var (
		output    string
		overrides string
		noCache   bool
		refresh   bool
	)

	cmd := &cobra.Command{
		Use:   "synth [declaration]",
		Short: "Synthesize a declaration into a positioned diagram",
		Long: `Synthesize a declaration into a positioned diagram.

The synth command loads a network declaration (YAML or JSON), resolves the
subnet topology, and emits the positioned node/edge diagram as JSON. The
diagram can be fed to a canvas renderer directly or to 'netplot render'
for SVG/PNG/PDF output.

Results are cached locally; identical declarations return instantly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{
				Source:        args[0],
				OverridesPath: overrides,
				Formats:       []string{pipeline.FormatJSON},
				Refresh:       refresh,
			}
			return c.runSynth(cmd.Context(), opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVar(&overrides, "overrides", "", "structural override table (TOML)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "skip cache reads, recompute everything")

	return cmd
}

// runSynth executes the pipeline and writes the JSON diagram.
func (c *CLI) runSynth(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	spin := newSpinner(ctx, "Synthesizing topology...")
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spin.StopWithError("Synthesis failed")
		return err
	}
	spin.Stop()

	data, ok := result.Artifacts[pipeline.FormatJSON]
	if !ok {
		return fmt.Errorf("pipeline produced no JSON artifact")
	}

	if output == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	printSuccess("Synthesized %s", opts.Source)
	printStats(result.Stats.NetworkCount, result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.SynthHit)
	if result.Synthesis.SkippedTargets > 0 {
		printWarning("%d diversion/interface targets could not be resolved", result.Synthesis.SkippedTargets)
	}
	printFile(output)
	printNewline()
	printNextStep("Render it", fmt.Sprintf("netplot render %s -f svg", opts.Source))
	return nil
}
