package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/codegraph/internal/mcp"
	"github.com/Aman-CERP/codegraph/internal/server"
)

func newServeCmd() *cobra.Command {
	var transport string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the engine over HTTP or MCP stdio",
		Long: `Serve exposes the query engine to clients.

  codegraph serve --transport http --port 7700
  codegraph serve --transport stdio   # MCP for LLM agents

In stdio mode stdout carries protocol messages exclusively; all
diagnostics go to the log file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			switch transport {
			case "stdio":
				return mcp.NewServer(app.svc).Run(cmd.Context())
			case "http":
				if port == 0 {
					port = app.cfg.Server.Port
				}
				return server.New(app.svc, port).ListenAndServe(cmd.Context())
			default:
				return fmt.Errorf("unknown transport: %q (want http or stdio)", transport)
			}
		},
	}

	cmd.Flags().StringVarP(&transport, "transport", "t", "stdio", "Transport: stdio (MCP) or http")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP port (default from config)")
	return cmd
}
