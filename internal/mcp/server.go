// ABOUTME: MCP server initialization and configuration for memento.
// ABOUTME: Exposes note capture, listing, category, and search tools to AI agents over stdio.
package mcp

import (
	"context"
	"fmt"
	"log/slog"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/memento/internal/search"
	"github.com/2389-research/memento/internal/storage"
)

// Server wraps the MCP server with the journal store and search dispatcher.
type Server struct {
	mcp        *gomcp.Server
	store      storage.RecordStore
	dispatcher *search.Dispatcher
	logger     *slog.Logger
	version    string
}

// ServerOption configures optional Server dependencies.
type ServerOption func(*Server)

// WithLogger sets the logger used for tool diagnostics.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithVersion sets the version reported to clients.
func WithVersion(version string) ServerOption {
	return func(s *Server) {
		if version != "" {
			s.version = version
		}
	}
}

// NewServer creates an MCP server with journal and search capabilities.
func NewServer(store storage.RecordStore, dispatcher *search.Dispatcher, opts ...ServerOption) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("search dispatcher is required")
	}

	s := &Server{
		store:      store,
		dispatcher: dispatcher,
		logger:     slog.New(slog.DiscardHandler),
		version:    "1.0.0",
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = gomcp.NewServer(
		&gomcp.Implementation{
			Name:    "memento",
			Version: s.version,
		},
		nil,
	)

	s.registerJournalTools()
	s.registerSearchTools()

	return s, nil
}

// Serve starts the MCP server in stdio mode.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("mcp server listening on stdio", "version", s.version)
	return s.mcp.Run(ctx, &gomcp.StdioTransport{})
}
