// ABOUTME: Embedding interface and backend selection for journal search.
// ABOUTME: Backends: OpenAI-compatible HTTP (openai, ollama) and an offline hash embedder.
package embeddings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Embedder generates vector embeddings from text.
type Embedder interface {
	// Embed returns a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the dimensionality of the output vectors.
	Dimension() int
}

// Backend names accepted in configuration.
const (
	BackendOpenAI = "openai"
	BackendOllama = "ollama"
	BackendHash   = "hash"
)

// Settings selects and parameterizes an embedding backend.
type Settings struct {
	Backend           string
	BaseURL           string
	Model             string
	APIKey            string
	Dimensions        int
	RequestsPerSecond float64
}

// DefaultBaseURL returns the default endpoint for a backend.
func DefaultBaseURL(backend string) string {
	switch backend {
	case BackendOpenAI:
		return "https://api.openai.com/v1"
	case BackendOllama:
		return "http://localhost:11434/v1"
	default:
		return ""
	}
}

// DefaultModel returns the default model name for a backend.
func DefaultModel(backend string) string {
	switch backend {
	case BackendOpenAI:
		return "text-embedding-3-small"
	case BackendOllama:
		return "nomic-embed-text"
	default:
		return ""
	}
}

// NewLoader returns the initialization function for the configured backend.
// Nothing is contacted until the loader runs.
func NewLoader(settings Settings, logger *slog.Logger) (Loader, error) {
	backend := strings.ToLower(settings.Backend)
	if backend == "" {
		backend = BackendHash
	}

	switch backend {
	case BackendHash:
		dim := settings.Dimensions
		return func(ctx context.Context) (Embedder, error) {
			return NewHashEmbedder(dim), nil
		}, nil
	case BackendOpenAI, BackendOllama:
		if settings.BaseURL == "" {
			settings.BaseURL = DefaultBaseURL(backend)
		}
		if settings.Model == "" {
			settings.Model = DefaultModel(backend)
		}
		return func(ctx context.Context) (Embedder, error) {
			return LoadOpenAIEmbedder(ctx, settings, logger)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (supported: %s, %s, %s)", settings.Backend, BackendOpenAI, BackendOllama, BackendHash)
	}
}
