package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nullvoyager/voyager/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the travel lookup tools (search_flights, search_hotels, suggest_destinations)
and the session state as an MCP server, so other agents can use them.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		srv := mcp.NewServer(a.lookupTools(),
			mcp.WithLogger(a.logger),
			mcp.WithSessions(a.sessions),
		)

		switch transport {
		case "stdio":
			// Logs go to stderr so they don't corrupt JSON-RPC on stdout
			a.logger.Info("starting voyager MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			a.logger.Info("starting voyager MCP server (sse)", "port", port)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			a.logger.Info("MCP server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8788, "Port to listen on (only for SSE)")
}
