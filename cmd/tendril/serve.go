package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	fileadapter "github.com/aretw0/tendril/internal/adapters/file"
	redisadapter "github.com/aretw0/tendril/internal/adapters/redis"
	"github.com/aretw0/tendril/internal/config"
	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/adapters/httpapi"
	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/adapters/process"
	"github.com/aretw0/tendril/pkg/observability"
	"github.com/aretw0/tendril/pkg/persistence/middleware"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/threads"
)

var serveCmd = &cobra.Command{
	Use:   "serve [manifest]",
	Short: "Serve the manifest's graphs over a JSON/NDJSON HTTP API",
	Long: `Starts a stateless HTTP server exposing every graph in the agent manifest.
Runs and resumes stream the canonical event sequence as NDJSON; thread
bookkeeping, health, and Prometheus metrics ride along.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetString("port")
		levelName, _ := cmd.Flags().GetString("log-level")

		level, err := logging.ParseLevel(levelName)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		logger := logging.NewJSON(level)

		manifestPath, err := resolveManifestPath(args)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		manifest, err := process.LoadManifest(manifestPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
			os.Exit(1)
		}
		graphs := manifest.Executors(process.WithLogger(logger))

		manager, cleanup, err := newThreadManager(cmd, logger)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer cleanup()

		handler := httpapi.NewHandler(graphs, manager,
			httpapi.WithMetrics(observability.NewMetrics(nil)),
			httpapi.WithLogger(logger),
		)

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("tendril server listening", "addr", srv.Addr, "graphs", manifest.Names())
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			logger.Error("server error", "err", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("starting shutdown", "signal", sig.String())

			// Give outstanding streams a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("graceful shutdown did not complete, forcing close", "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("error killing server", "err", err)
				}
			}
			logger.Info("tendril server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("store", "file", "Thread store backend: file, redis, or memory")
	serveCmd.Flags().String("redis-addr", "localhost:6379", "Redis address (store=redis)")
	serveCmd.Flags().String("redis-password", "", "Redis password (store=redis)")
	serveCmd.Flags().Int("redis-db", 0, "Redis database number (store=redis)")
	serveCmd.Flags().Duration("thread-ttl", 0, "Thread record expiry, 0 keeps records forever (store=redis)")
	serveCmd.Flags().String("encrypt-key", "", "Hex-encoded 32-byte key; encrypts stored prompts at rest")
	serveCmd.Flags().StringSlice("redact", nil, "Regex patterns masked out of stored prompts")
	serveCmd.Flags().String("log-level", "info", "Log level: debug, info, warn, or error")
}

// newThreadManager builds the thread manager for the serving surfaces: the
// persistence backend picked by --store, the store decorators picked by
// --encrypt-key/--redact, and (for Redis) a distributed locker so several
// instances can share one thread space.
func newThreadManager(cmd *cobra.Command, logger *slog.Logger) (*threads.Manager, func(), error) {
	chain, err := storeMiddleware(cmd)
	if err != nil {
		return nil, nil, err
	}

	opts := []threads.Option{threads.WithLogger(logger)}
	cleanup := func() {}

	storeName, _ := cmd.Flags().GetString("store")
	var store ports.ThreadStore
	switch storeName {
	case "file":
		store = fileadapter.New(config.ThreadsDir(workspaceRoot(cmd)))

	case "memory":
		store = memory.NewStore()

	case "redis":
		addr, _ := cmd.Flags().GetString("redis-addr")
		password, _ := cmd.Flags().GetString("redis-password")
		db, _ := cmd.Flags().GetInt("redis-db")
		ttl, _ := cmd.Flags().GetDuration("thread-ttl")

		// Store and locker share one client; the locker keeps concurrent
		// resumes of the same thread serialized across instances.
		client := backend.NewClient(&backend.Options{Addr: addr, Password: password, DB: db})
		store = redisadapter.NewFromClient(client, redisadapter.WithTTL(ttl))
		opts = append(opts, threads.WithLocker(redisadapter.NewLocker(client, "tendril:thread:")))
		cleanup = func() { _ = client.Close() }

	default:
		return nil, nil, fmt.Errorf("unknown store %q (want file, redis, or memory)", storeName)
	}

	return threads.NewManager(middleware.Chain(store, chain...), opts...), cleanup, nil
}

// storeMiddleware assembles the store decorators selected by flags.
// Redaction goes outermost so its patterns see plaintext, not ciphertext.
func storeMiddleware(cmd *cobra.Command) ([]middleware.Middleware, error) {
	var chain []middleware.Middleware

	if patterns, _ := cmd.Flags().GetStringSlice("redact"); len(patterns) > 0 {
		chain = append(chain, middleware.NewRedactionMiddleware(patterns))
	}
	if raw, _ := cmd.Flags().GetString("encrypt-key"); raw != "" {
		key, err := hex.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("encrypt-key must be hex: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("encrypt-key must decode to 32 bytes (AES-256), got %d", len(key))
		}
		chain = append(chain, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	return chain, nil
}
