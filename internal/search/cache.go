// ABOUTME: Per-entry embedding cache that computes missing vectors and writes them back to the store.
// ABOUTME: Write-back is best effort; a failed write only costs a recompute on a later search.
package search

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/2389-research/memento/internal/metrics"
	"github.com/2389-research/memento/internal/models"
)

// DefaultConcurrency bounds how many entry embeddings are computed at once.
const DefaultConcurrency = 4

// Embedder computes text embeddings. *embeddings.Provider satisfies it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Upserter persists an updated entry.
type Upserter interface {
	Upsert(ctx context.Context, entry *models.Entry) error
}

// Cache supplies a vector for each entry, reusing the stored embedding when
// it is usable.
type Cache struct {
	store       Upserter
	embedder    Embedder
	logger      *slog.Logger
	metrics     *metrics.Metrics
	concurrency int
}

// NewCache creates a cache that embeds with embedder and writes back to store.
// logger and m may be nil.
func NewCache(store Upserter, embedder Embedder, logger *slog.Logger, m *metrics.Metrics, concurrency int) *Cache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Cache{
		store:       store,
		embedder:    embedder,
		logger:      logger,
		metrics:     m,
		concurrency: concurrency,
	}
}

// Candidates returns one candidate per entry, in the same order. dim is the
// query's dimensionality; a stored vector of another length is stale and is
// recomputed. Entries without search text come back with a nil vector and
// are never embedded. The first embedding error aborts the pass.
func (c *Cache) Candidates(ctx context.Context, entries []*models.Entry, dim int) ([]Candidate, error) {
	out := make([]Candidate, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, entry := range entries {
		out[i].Entry = entry

		text := entry.SearchText()
		if text == "" {
			c.metrics.RecordCache(metrics.CacheSkip)
			continue
		}
		if len(entry.Embedding) > 0 && len(entry.Embedding) == dim {
			c.metrics.RecordCache(metrics.CacheHit)
			out[i].Vector = entry.Embedding
			continue
		}

		c.metrics.RecordCache(metrics.CacheMiss)
		g.Go(func() error {
			vec, err := c.embedder.Embed(gctx, text)
			if err != nil {
				return err
			}
			entry.Embedding = vec
			out[i].Vector = vec
			c.writeBack(ctx, entry)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// writeBack persists a freshly computed embedding. It may silently fail and
// is detached from the search's cancellation.
func (c *Cache) writeBack(ctx context.Context, entry *models.Entry) {
	if c.store == nil {
		return
	}
	if err := c.store.Upsert(context.WithoutCancel(ctx), entry); err != nil {
		c.metrics.RecordCacheWriteFailure()
		c.logger.Warn("failed to cache embedding", "entry_id", entry.ID, "error", err)
	}
}
