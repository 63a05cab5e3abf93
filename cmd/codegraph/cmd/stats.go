package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/codegraph/internal/ui"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			stats, err := app.svc.Stats(cmd.Context())
			if err != nil {
				return err
			}

			p := ui.NewPrinter()
			p.Plain("Chunks:     %d", stats.Store.Chunks)
			p.Plain("Embeddings: %d", stats.Store.Embeddings)
			p.Plain("Locations:  %d", stats.Store.Locations)
			p.Plain("Edges:      %d", stats.Store.Edges)
			p.Plain("Modules:    %d", stats.Store.Modules)
			if stats.Indexing {
				p.Step("Background indexing in progress")
			} else if stats.LastIndexRun != nil {
				p.Plain("Last run:   %d files, %d chunks, %d errors",
					stats.LastIndexRun.FilesSeen,
					stats.LastIndexRun.ChunksWritten,
					stats.LastIndexRun.Errors)
			}
			return nil
		},
	}
}
