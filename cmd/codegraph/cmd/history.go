package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/codegraph/internal/ui"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <hash|file>",
		Short: "Show where a chunk has been seen over time",
		Long: `History lists the recorded locations of a chunk. Pass a 64-character
content hash to follow one chunk across files and commits, or a file
path to list the chunks seen in that file. Attribution requires an
index built with --git.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := args[0]

			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			locations, err := app.svc.History(cmd.Context(), target, limit)
			if err != nil {
				return err
			}

			p := ui.NewPrinter()
			if len(locations) == 0 {
				p.Warn("No history found for: %s", target)
				p.Plain("  Make sure you've run 'codegraph index --git' first")
				return nil
			}

			p.Success("Found %d location(s)", len(locations))
			for i, loc := range locations {
				p.Plain("%d. %s %s", i+1, p.Bold("Chunk"), loc.ContentHash.Short())
				p.Plain("   File: %s", loc.FilePath)
				p.Plain("   Lines: %d-%d", loc.LineStart, loc.LineEnd)
				if loc.CommitHash != "" {
					short := loc.CommitHash
					if len(short) > 7 {
						short = short[:7]
					}
					p.Plain("   Commit: %s", short)
				}
				if loc.Author != "" {
					p.Plain("   Author: %s", loc.Author)
				}
				if loc.Timestamp != nil {
					p.Plain("   Date: %s", loc.Timestamp.Format("2006-01-02 15:04"))
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum locations to show")
	return cmd
}
