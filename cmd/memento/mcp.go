// ABOUTME: MCP server command implementation for memento.
// ABOUTME: Starts the MCP server in stdio mode, optionally serving Prometheus metrics alongside.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	mcppkg "github.com/2389-research/memento/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server (stdio mode)",
	Long: `Start the Model Context Protocol server for AI agent integration.

The MCP server communicates via stdio, allowing AI agents to save notes
to the journal and search it through a standardized protocol.`,
	RunE: runMCP,
}

var metricsAddr string

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9464)")
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	server, err := mcppkg.NewServer(globalStore, globalDispatcher,
		mcppkg.WithLogger(globalLogger),
		mcppkg.WithVersion(version),
	)
	if err != nil {
		return err
	}

	if metricsAddr == "" {
		return server.Serve(ctx)
	}

	g, ctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		globalLogger.Info("serving metrics", "addr", metricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		// The MCP session ending (client hung up) stops the metrics server too.
		defer cancel()
		return server.Serve(ctx)
	})
	return g.Wait()
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", globalMetrics.Handler())
	return mux
}
