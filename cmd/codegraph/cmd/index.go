package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/codegraph/internal/config"
	"github.com/Aman-CERP/codegraph/internal/index"
	"github.com/Aman-CERP/codegraph/internal/ui"
)

func newIndexCmd() *cobra.Command {
	var gitMode bool

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Index a source tree into the local database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := projectRoot
			if len(args) > 0 {
				path = args[0]
			}
			absPath, err := filepath.Abs(path)
			if err != nil {
				return err
			}

			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			p := ui.NewPrinter()
			p.Step("Indexing %s", p.Bold(absPath))

			pipeline := index.NewPipeline(app.store, app.embedder)
			summary, err := pipeline.Run(cmd.Context(), index.Config{
				Root:     absPath,
				GitMode:  gitMode,
				Exclude:  app.cfg.Paths.Exclude,
				LockPath: config.LockPath(absPath),
			})
			if err != nil {
				return err
			}

			p.Success("Indexing complete")
			p.Plain("  Files:     %d", summary.FilesSeen)
			p.Plain("  Chunks:    %d", summary.ChunksWritten)
			p.Plain("  Locations: %d", summary.LocationsWritten)
			if summary.Errors > 0 {
				p.Warn("%d file(s) had errors; see the log for details", summary.Errors)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&gitMode, "git", false, "Attribute chunks via git blame")
	return cmd
}
