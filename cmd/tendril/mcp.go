package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/adapters/mcp"
	"github.com/aretw0/tendril/pkg/adapters/process"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp [manifest]",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts tendril as an MCP server exposing the manifest's graphs as tools.
Other agents can run a graph, inspect the interrupt it pauses on, and resume
it with decisions.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		// Logs go to stderr; stdout carries JSON-RPC in stdio mode.
		logger := logging.New(slog.LevelInfo)
		slog.SetDefault(logger)

		manifestPath, err := resolveManifestPath(args)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		manifest, err := process.LoadManifest(manifestPath)
		if err != nil {
			log.Fatalf("Error loading manifest: %v", err)
		}
		graphs := manifest.Executors(process.WithLogger(logger))

		descriptions := make(map[string]string, len(manifest.Names()))
		for _, name := range manifest.Names() {
			if cfg, err := manifest.Resolve(name); err == nil {
				descriptions[name] = cfg.Description
			}
		}

		manager, cleanup, err := newThreadManager(cmd, logger)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer cleanup()

		srv := mcp.NewServer(graphs, manager,
			mcp.WithGraphInfo(descriptions),
			mcp.WithLogger(logger),
		)

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			slog.Info("Starting tendril MCP server (stdio)")
			if err := srv.ServeStdio(); err != nil {
				slog.Error("MCP server execution failed", "err", err)
				os.Exit(1)
			}
		case "sse":
			slog.Info("Starting tendril MCP server (SSE)", "port", port)

			// Create a context that cancels on interrupt signal
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil {
				// Ignore server closed error if it was caused by context cancellation
				if err != http.ErrServerClosed {
					slog.Error("MCP server execution failed", "err", err)
					os.Exit(1)
				}
			}
			slog.Info("MCP server stopped gracefully")
		default:
			log.Fatalf("Unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
	mcpCmd.Flags().String("store", "file", "Thread store backend: file, redis, or memory")
	mcpCmd.Flags().String("redis-addr", "localhost:6379", "Redis address (store=redis)")
	mcpCmd.Flags().String("redis-password", "", "Redis password (store=redis)")
	mcpCmd.Flags().Int("redis-db", 0, "Redis database number (store=redis)")
	mcpCmd.Flags().Duration("thread-ttl", 0, "Thread record expiry, 0 keeps records forever (store=redis)")
	mcpCmd.Flags().String("encrypt-key", "", "Hex-encoded 32-byte key; encrypts stored prompts at rest")
	mcpCmd.Flags().StringSlice("redact", nil, "Regex patterns masked out of stored prompts")
}
