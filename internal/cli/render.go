package cli

import (
	"fmt"
	"slices"

	"golang.org/x/exp/maps"

	"github.com/spf13/cobra"

	"github.com/GabeBolton/dactyl-keyboard/pkg/pipeline"
	"github.com/GabeBolton/dactyl-keyboard/pkg/scad"
)

// newRenderCmd creates the render command: keyboard definition in, OpenSCAD
// source out.
func newRenderCmd() *cobra.Command {
	var (
		output  string
		isolate bool
	)

	cmd := &cobra.Command{
		Use:   "render <config>",
		Short: "Render a keyboard definition to an OpenSCAD file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			prog := newProgress(logger)

			runner := pipeline.NewRunner(logger)
			result, err := runner.Execute(cmd.Context(), pipeline.Options{
				ConfigPath: args[0],
				Output:     output,
				Isolate:    isolate,
				Logger:     logger,
			})
			if err != nil {
				return err
			}

			if output == "" {
				output = pipeline.DefaultOutput
			}
			if err := scad.WriteFile(output, result.Document()...); err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Emitted %d features", result.Stats.FeatureCount))

			printSuccess("Rendered %s", args[0])
			printFile(output)
			printDetail("%d clusters · %d anchors · %d features",
				result.Stats.ClusterCount, result.Stats.AnchorCount, result.Stats.FeatureCount)
			skipped := maps.Keys(result.Skipped)
			slices.Sort(skipped)
			for _, name := range skipped {
				printWarning("skipped %s: %v", name, result.Skipped[name])
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output .scad path (default "+pipeline.DefaultOutput+")")
	cmd.Flags().BoolVar(&isolate, "isolate", false, "skip features that fail to resolve instead of aborting")
	return cmd
}
