// ABOUTME: Embedder backed by any OpenAI-compatible /embeddings endpoint (OpenAI, Ollama).
// ABOUTME: Probes the endpoint once on load to learn the vector dimension; optionally rate limited.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const (
	requestTimeout = 30 * time.Second
	probeText      = "memento"
)

// OpenAIEmbedder calls an OpenAI-compatible embeddings API.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	requested  int
	dimensions int
	limiter    *rate.Limiter
}

// NewOpenAIEmbedder builds a client without contacting the endpoint. The
// dimension stays 0 until Probe or LoadOpenAIEmbedder fills it in, unless
// settings.Dimensions fixes it up front.
func NewOpenAIEmbedder(settings Settings) *OpenAIEmbedder {
	clientConfig := openai.DefaultConfig(settings.APIKey)
	if settings.BaseURL != "" {
		clientConfig.BaseURL = settings.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: requestTimeout}

	e := &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      settings.Model,
		requested:  settings.Dimensions,
		dimensions: settings.Dimensions,
	}
	if settings.RequestsPerSecond > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(settings.RequestsPerSecond), 1)
	}
	return e
}

// LoadOpenAIEmbedder creates the embedder and probes the endpoint once so a
// misconfigured backend fails at initialization rather than mid-search.
func LoadOpenAIEmbedder(ctx context.Context, settings Settings, logger *slog.Logger) (*OpenAIEmbedder, error) {
	e := NewOpenAIEmbedder(settings)
	dim, err := e.Probe(ctx)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Debug("embedding endpoint probed", "base_url", settings.BaseURL, "model", settings.Model, "dimension", dim)
	}
	return e, nil
}

// Probe embeds a short fixed text and records the returned dimension.
func (e *OpenAIEmbedder) Probe(ctx context.Context) (int, error) {
	vec, err := e.Embed(ctx, probeText)
	if err != nil {
		return 0, fmt.Errorf("probe embedding endpoint: %w", err)
	}
	if len(vec) == 0 {
		return 0, errors.New("probe embedding endpoint: empty vector")
	}
	e.dimensions = len(vec)
	return e.dimensions, nil
}

// Embed returns the embedding for text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	}
	// Only send dimensions when configured; most local models reject it.
	if e.requested > 0 {
		req.Dimensions = e.requested
	}

	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create embeddings failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("empty embedding response")
	}
	return resp.Data[0].Embedding, nil
}

// Dimension returns the vector size learned from the probe.
func (e *OpenAIEmbedder) Dimension() int {
	return e.dimensions
}
