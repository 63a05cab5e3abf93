package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/codegraph/internal/ui"
)

func newContextCmd() *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "context <symbol>",
		Short: "Show every indexed chunk defining a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := args[0]

			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			chunks, err := app.svc.Context(cmd.Context(), symbol)
			if err != nil {
				return err
			}

			p := ui.NewPrinter()
			if len(chunks) == 0 {
				p.Warn("Symbol not found in index: %s", symbol)
				return nil
			}

			for i, c := range chunks {
				p.Plain("%d. %s %s", i+1, p.Bold(c.SymbolName),
					p.Dim(string(c.Language)+" · "+string(c.Kind)+" · "+c.ContentHash.Short()))
				if c.Docstring != "" {
					p.Plain("   %s", c.Docstring)
				}
				if full {
					p.Plain("%s", c.Content)
				} else if c.Signature != "" {
					p.Plain("   %s", c.Signature)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Print full chunk content")
	return cmd
}
