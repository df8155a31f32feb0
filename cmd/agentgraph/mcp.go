package main

import (
	"fmt"

	"github.com/meshed/agentgraph/internal/cli"
	"github.com/meshed/agentgraph/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the registered workflows as MCP tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- http: Uses streamable HTTP. Ideal for remote agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		app, err := buildApp(sc, cmd, nil)
		if err != nil {
			return err
		}
		defer app.Close()

		srv := mcp.NewServer(app.Service, app.Logger)
		switch transport {
		case "stdio":
			app.Logger.Info("Starting MCP Server (Stdio)")
			return srv.ServeStdio()
		case "http":
			return srv.ServeHTTP(sc, addr)
		default:
			return fmt.Errorf("unknown transport %q, supported: stdio, http", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'http'")
	mcpCmd.Flags().String("addr", ":8081", "Address to listen on (only for http)")
}
