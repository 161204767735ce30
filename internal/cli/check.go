package cli

import (
	"github.com/spf13/cobra"

	"github.com/GabeBolton/dactyl-keyboard/pkg/config"
	"github.com/GabeBolton/dactyl-keyboard/pkg/pipeline"
)

// newCheckCmd creates the check command: parse and validate a definition
// without emitting geometry. The first problem is reported with the field
// path that caused it.
func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <config>",
		Short: "Validate a keyboard definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				printError("%v", err)
				return err
			}

			// building the registry surfaces alias collisions the
			// per-section parsers cannot see
			runner := pipeline.NewRunner(loggerFromContext(cmd.Context()))
			if _, err := runner.BuildResolver(cfg); err != nil {
				printError("%v", err)
				return err
			}

			aliases := 0
			for _, cluster := range cfg.Clusters {
				aliases += len(cluster.Aliases)
			}
			printSuccess("Valid: %s", args[0])
			printDetail("%d clusters · %d key aliases · %d anchors · %d tweaks",
				len(cfg.Clusters), aliases, len(cfg.Anchors), len(cfg.Tweaks))
			return nil
		},
	}
}
