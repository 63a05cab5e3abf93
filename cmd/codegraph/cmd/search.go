package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/codegraph/internal/service"
	"github.com/Aman-CERP/codegraph/internal/ui"
)

func newSearchCmd() *cobra.Command {
	var limit int
	var threshold float64

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Hybrid search over indexed code",
		Long: `Search combines semantic similarity, keyword matching, and metadata
filters. Filters ride inside the query string:

  codegraph search "parse config lang:rust author:alice limit:5"

Recognized filter keys: author, lang/language, after, before (RFC 3339),
file/path, limit.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			queryText := strings.Join(args, " ")

			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			results, err := app.svc.Search(cmd.Context(), queryText, service.SearchOptions{
				Limit:     limit,
				Threshold: threshold,
			})
			if err != nil {
				return err
			}

			p := ui.NewPrinter()
			if len(results) == 0 {
				p.Warn("No results for %q", queryText)
				return nil
			}

			for i, r := range results {
				header := r.ContentHash[:16]
				if r.Chunk != nil && r.Chunk.SymbolName != "" {
					header = r.Chunk.SymbolName
				}
				p.Plain("%d. %s  %s", i+1, p.Bold(header), p.Dim(formatScore(r.Score)))
				if r.Chunk != nil {
					if r.Chunk.Signature != "" {
						p.Plain("   %s", r.Chunk.Signature)
					}
					p.Plain("   %s", p.Dim(string(r.Chunk.Language)+" · "+string(r.Chunk.Kind)))
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum results (overrides limit: filter)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Minimum fused score (0 keeps all)")
	return cmd
}
