package cmd

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/codegraph/internal/export"
	"github.com/Aman-CERP/codegraph/internal/ui"
)

func newGraphCmd() *cobra.Command {
	var (
		level     string
		filters   []string
		showEdges bool
		format    string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Show the module-level dependency graph",
		Long: `Graph aggregates chunk-level references into module dependencies.
At crate level, plain directories roll up into their owning crate or
package. Output formats: text (default), json, dot, mermaid, html.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			entries, err := app.svc.ModuleGraph(cmd.Context(), level, filters, showEdges)
			if err != nil {
				return err
			}

			p := ui.NewPrinter()

			if format != "" && format != "text" {
				rendered, err := export.Render(export.Format(format), entries)
				if err != nil {
					return err
				}
				if output != "" {
					if err := os.WriteFile(output, []byte(rendered), 0o644); err != nil {
						return err
					}
					p.Success("Wrote %s graph to %s", format, output)
					return nil
				}
				p.Plain("%s", rendered)
				return nil
			}

			for _, entry := range entries {
				if len(entry.Dependencies) == 0 && len(filters) == 0 {
					continue
				}
				p.Plain("%s %s", p.Bold(entry.Module.Name), p.Dim("("+string(entry.Module.ProjectType)+")"))
				for _, dep := range entry.Dependencies {
					p.Plain("  → %s (%d edges)", dep.TargetID, dep.Count)
					for _, edge := range dep.Edges {
						p.Plain("      %s → %s %s", edge.SourceSymbol, edge.TargetSymbol,
							p.Dim(formatLine(edge.LineNumber)))
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&level, "level", "crate", "Aggregation level: crate or module")
	cmd.Flags().StringSliceVar(&filters, "filter", nil, "Restrict to these module ids")
	cmd.Flags().BoolVar(&showEdges, "edges", false, "Show symbol-level edges")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json, dot, mermaid, html")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write output to a file")
	return cmd
}

func formatLine(line int) string {
	if line <= 0 {
		return ""
	}
	return "L" + strconv.Itoa(line)
}
