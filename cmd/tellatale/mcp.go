package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aretw0/tellatale/internal/runtime"
	"github.com/aretw0/tellatale/pkg/adapters/mcp"
	"github.com/aretw0/tellatale/pkg/session"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the storytelling engine as an MCP server, so AI agents can
play and inspect stories as tools.

Supported transports:
- stdio (default): Standard Input/Output, for local process integration.
- sse: Server-Sent Events over HTTP, for remote agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		logger := buildLogger(cmd)

		gen, err := buildGenerator(ctx)
		if err != nil {
			return err
		}
		defer gen.Close()

		store, err := buildStore(cmd)
		if err != nil {
			return err
		}
		rec := session.NewRecorder(store, session.WithLogger(logger))

		eng := runtime.NewEngine(gen, runtime.WithLogger(logger))
		srv := mcp.NewServer(eng, rec)

		switch transport {
		case "stdio":
			// Logs must stay off Stdout or they corrupt JSON-RPC.
			slog.SetDefault(logger)
			return srv.ServeStdio()
		case "sse":
			signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(signalCtx, port); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		default:
			return fmt.Errorf("unknown transport %q: supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
