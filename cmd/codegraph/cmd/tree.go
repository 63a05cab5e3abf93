package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/codegraph/internal/ui"
)

func newTreeCmd() *cobra.Command {
	var depth int
	var all bool

	cmd := &cobra.Command{
		Use:   "tree [symbol]",
		Short: "Print the dependency tree of a symbol",
		Long: `Tree walks outgoing symbol references in pre-order, marking cycles.
Without a symbol (or with --all) it prints the forest of root symbols:
symbols defined in the index but never referenced by anything.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := ""
			if len(args) > 0 && !all {
				symbol = args[0]
			}

			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if depth <= 0 {
				depth = app.cfg.Graph.MaxDepth
			}

			result, err := app.svc.Tree(cmd.Context(), symbol, depth)
			if err != nil {
				return err
			}

			p := ui.NewPrinter()
			if len(result.Roots) == 0 {
				if symbol != "" {
					p.Warn("Symbol not found in index: %s", symbol)
				} else {
					p.Warn("No entry points (roots) found in index")
				}
				return nil
			}

			p.Plain("%s", result.Rendered)
			return nil
		},
	}

	cmd.Flags().IntVarP(&depth, "depth", "d", 0, "Maximum traversal depth (default from config)")
	cmd.Flags().BoolVar(&all, "all", false, "Build the full dependency forest")
	return cmd
}
