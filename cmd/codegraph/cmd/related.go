package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/codegraph/internal/ui"
)

func newRelatedCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "related <symbol>",
		Short: "Find graph neighbors and semantic relatives of a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			related, err := app.svc.Related(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}

			p := ui.NewPrinter()
			p.Plain("%s", p.Bold("Graph neighbors:"))
			if len(related.GraphNeighbors) == 0 {
				p.Plain("  %s", p.Dim("(none)"))
			}
			for _, n := range related.GraphNeighbors {
				p.Plain("  %s", n)
			}

			p.Plain("%s", p.Bold("Semantic relatives:"))
			if len(related.SemanticRelatives) == 0 {
				p.Plain("  %s", p.Dim("(none)"))
			}
			for _, n := range related.SemanticRelatives {
				p.Plain("  %s", n)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "Maximum semantic relatives")
	return cmd
}
