// ABOUTME: Root Cobra command and global state for the memento CLI.
// ABOUTME: Lifecycle hooks load config, build the logger, open the store, and wire search.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/2389-research/memento/internal/config"
	"github.com/2389-research/memento/internal/embeddings"
	"github.com/2389-research/memento/internal/logging"
	"github.com/2389-research/memento/internal/metrics"
	"github.com/2389-research/memento/internal/search"
	"github.com/2389-research/memento/internal/storage"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	globalConfig     *config.Config
	globalLogger     *slog.Logger
	globalStore      *storage.JournalSQLiteStore
	globalMetrics    *metrics.Metrics
	globalDispatcher *search.Dispatcher
)

var rootCmd = &cobra.Command{
	Use:     "memento",
	Short:   "Personal journal with exact and semantic search",
	Version: version,
	Long: `
███╗   ███╗███████╗███╗   ███╗███████╗███╗   ██╗████████╗ ██████╗
████╗ ████║██╔════╝████╗ ████║██╔════╝████╗  ██║╚══██╔══╝██╔═══██╗
██╔████╔██║█████╗  ██╔████╔██║█████╗  ██╔██╗ ██║   ██║   ██║   ██║
██║╚██╔╝██║██╔══╝  ██║╚██╔╝██║██╔══╝  ██║╚██╗██║   ██║   ██║   ██║
██║ ╚═╝ ██║███████╗██║ ╚═╝ ██║███████╗██║ ╚████║   ██║   ╚██████╔╝
╚═╝     ╚═╝╚══════╝╚═╝     ╚═╝╚══════╝╚═╝  ╚═══╝   ╚═╝    ╚═════╝

Text notes and audio clips, stored locally in SQLite, searchable by
substring or by meaning.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "setup" {
			return nil
		}

		// A missing .env is normal
		_ = godotenv.Load()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.ApplyEnv(); err != nil {
			return fmt.Errorf("failed to apply environment: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		globalConfig = cfg

		logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		globalLogger = logger

		dbPath, err := cfg.GetDBPath()
		if err != nil {
			return fmt.Errorf("failed to resolve database path: %w", err)
		}
		store, err := storage.NewJournalSQLiteStore(cmd.Context(), dbPath, storage.SQLiteOptions{
			WAL:         cfg.Store.WAL,
			Synchronous: cfg.Store.Synchronous,
		})
		if err != nil {
			return fmt.Errorf("failed to open journal store: %w", err)
		}
		globalStore = store
		logger.Debug("journal store opened", "path", store.Path())

		if cfg.HasRemoteEmbeddings() {
			logger.Debug("semantic search uses a remote embedding endpoint", "provider", cfg.Embedding.Provider, "base_url", cfg.Embedding.BaseURL)
		}

		globalMetrics = metrics.New()
		dispatcher, err := newDispatcher(cfg, store, globalMetrics, logger)
		if err != nil {
			return err
		}
		globalDispatcher = dispatcher
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if globalStore != nil {
			_ = globalStore.Close()
			globalStore = nil
		}
		return nil
	},
}

// newDispatcher wires a fresh embedding provider and search dispatcher. The
// provider does not contact its backend until the first semantic search.
func newDispatcher(cfg *config.Config, store search.Store, m *metrics.Metrics, logger *slog.Logger) (*search.Dispatcher, error) {
	loader, err := embeddings.NewLoader(cfg.EmbeddingSettings(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure embeddings: %w", err)
	}
	provider := embeddings.NewProvider(loader, logger)
	return search.NewDispatcher(store, provider,
		search.WithLogger(logger),
		search.WithMetrics(m),
		search.WithRanker(cfg.Ranker()),
		search.WithConcurrency(cfg.Search.Concurrency),
	), nil
}
