package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/codegraph/internal/ui"
)

func newCyclesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cycles",
		Short: "Find circular dependencies between modules",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			cycles, err := app.svc.FindModuleCycles(cmd.Context())
			if err != nil {
				return err
			}

			p := ui.NewPrinter()
			if len(cycles) == 0 {
				p.Success("No module cycles found")
				return nil
			}

			p.Warn("Found %d cycle(s)", len(cycles))
			for i, cycle := range cycles {
				p.Plain("%d. %s", i+1, strings.Join(cycle, " → "))
			}
			return nil
		},
	}
}
