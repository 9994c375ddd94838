// ABOUTME: Connection validation for OpenAI-compatible embedding endpoints.
// ABOUTME: Probes the endpoint with one embedding request and reports the vector dimension.
package tui

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/2389-research/memento/internal/embeddings"
)

// ValidateEmbedding checks that the endpoint serves embeddings for model with
// the given key and returns the vector dimension. The context allows
// cancellation when the user quits during validation.
func ValidateEmbedding(ctx context.Context, baseURL, model, apiKey string) (int, error) {
	e := embeddings.NewOpenAIEmbedder(embeddings.Settings{
		BaseURL: NormalizeBaseURL(baseURL),
		Model:   model,
		APIKey:  apiKey,
	})
	dim, err := e.Probe(ctx)
	if err != nil {
		return 0, fmt.Errorf("connection failed: %w", err)
	}
	return dim, nil
}

// NormalizeBaseURL trims trailing slashes and makes sure the URL points at
// the /v1 API root.
func NormalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return ""
	}
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/v1"
	}
	return baseURL
}

// InferProvider guesses the backend name from an endpoint URL. Anything not
// hosted by OpenAI is treated as a local Ollama-style server.
func InferProvider(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err == nil && strings.HasSuffix(u.Hostname(), "openai.com") {
		return embeddings.BackendOpenAI
	}
	return embeddings.BackendOllama
}
