// ABOUTME: Query dispatcher choosing between list, exact substring, and semantic ranking per request.
// ABOUTME: Stamps every search with a generation so a stale result can never replace a newer one.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/2389-research/memento/internal/metrics"
	"github.com/2389-research/memento/internal/models"
)

// Mode is the search mode the user picked.
type Mode string

const (
	ModeExact    Mode = "exact"
	ModeSemantic Mode = "semantic"
)

// ParseMode validates a mode name. Empty means exact.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeExact:
		return ModeExact, nil
	case ModeSemantic:
		return ModeSemantic, nil
	default:
		return "", fmt.Errorf("unknown search mode %q (want exact or semantic)", s)
	}
}

// Strategy records how a result was actually produced.
type Strategy string

const (
	StrategyAll      Strategy = "all"
	StrategyExact    Strategy = "exact"
	StrategySemantic Strategy = "semantic"
)

// Request is one search invocation.
type Request struct {
	Query      string
	Mode       Mode
	Semantic   bool
	Categories []string
}

// Result is the outcome of a search.
type Result struct {
	Generation uint64
	Entries    []*models.Entry
	Strategy   Strategy
	// Degraded is set when a semantic search could not rank and Entries is
	// the category-filtered list instead.
	Degraded bool
	// Ranking is set for semantic results.
	Ranking *Ranking
}

// Store is the read side of the record store plus the embedding write-back.
type Store interface {
	ListAll(ctx context.Context) ([]*models.Entry, error)
	Upserter
}

// Provider is the lazily initialized embedding capability.
type Provider interface {
	EnsureReady(ctx context.Context) error
	Embedder
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithRanker replaces the default ranker.
func WithRanker(r Ranker) Option {
	return func(d *Dispatcher) { d.ranker = r }
}

// WithConcurrency bounds concurrent embedding computations.
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) { d.concurrency = n }
}

// Dispatcher runs searches over the record store.
type Dispatcher struct {
	store       Store
	provider    Provider
	ranker      Ranker
	logger      *slog.Logger
	metrics     *metrics.Metrics
	concurrency int
	cache       *Cache

	issued atomic.Uint64

	mu    sync.Mutex
	shown uint64
}

// NewDispatcher creates a dispatcher. provider may be nil, in which case
// semantic searches always degrade.
func NewDispatcher(store Store, provider Provider, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:       store,
		provider:    provider,
		ranker:      DefaultRanker(),
		logger:      slog.New(slog.DiscardHandler),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(d)
	}
	if provider != nil {
		d.cache = NewCache(store, provider, d.logger, d.metrics, d.concurrency)
	}
	return d
}

// Search runs one request. Only a failure to read the store or a cancelled
// ctx is returned as an error; embedding problems degrade to the
// category-filtered list. A failed search still returns a Result carrying
// its generation so callers can drop the error if it is stale.
func (d *Dispatcher) Search(ctx context.Context, req Request) (*Result, error) {
	gen := d.issued.Add(1)
	start := time.Now()

	entries, err := d.store.ListAll(ctx)
	if err != nil {
		d.logger.Error("search failed to read entries", "generation", gen, "error", err)
		return &Result{Generation: gen}, fmt.Errorf("list entries: %w", err)
	}
	models.SortNewestFirst(entries)

	query := strings.TrimSpace(req.Query)
	res := &Result{Generation: gen}

	switch {
	case query == "":
		res.Strategy = StrategyAll
		res.Entries = FilterByCategories(entries, req.Categories)
	case req.Mode == ModeExact || req.Mode == "":
		res.Strategy = StrategyExact
		res.Entries = matchExact(FilterByCategories(entries, req.Categories), query)
	case !req.Semantic:
		res.Strategy = StrategyAll
		res.Entries = FilterByCategories(entries, req.Categories)
	default:
		if err := d.searchSemantic(ctx, res, entries, query, req.Categories); err != nil {
			return &Result{Generation: gen}, err
		}
	}

	d.metrics.RecordSearch(string(res.Strategy), time.Since(start))
	d.logger.Debug("search finished",
		"generation", gen,
		"strategy", res.Strategy,
		"degraded", res.Degraded,
		"results", len(res.Entries),
		"elapsed", time.Since(start),
	)
	return res, nil
}

func (d *Dispatcher) searchSemantic(ctx context.Context, res *Result, entries []*models.Entry, query string, categories []string) error {
	filtered := FilterByCategories(entries, categories)

	ranking, err := d.rank(ctx, filtered, query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return ctxErr
		}
		d.logger.Warn("semantic search unavailable, showing unranked entries", "generation", res.Generation, "error", err)
		d.metrics.RecordDegraded()
		res.Strategy = StrategyAll
		res.Degraded = true
		res.Entries = filtered
		return nil
	}

	if ranking.Fallback {
		d.metrics.RecordFallback()
	}
	res.Strategy = StrategySemantic
	res.Ranking = ranking
	res.Entries = make([]*models.Entry, len(ranking.Results))
	for i, s := range ranking.Results {
		res.Entries[i] = s.Entry
	}
	return nil
}

func (d *Dispatcher) rank(ctx context.Context, entries []*models.Entry, query string) (*Ranking, error) {
	if d.provider == nil {
		return nil, errors.New("no embedding provider configured")
	}
	if err := d.provider.EnsureReady(ctx); err != nil {
		return nil, err
	}
	qvec, err := d.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	candidates, err := d.cache.Candidates(ctx, entries, len(qvec))
	if err != nil {
		return nil, fmt.Errorf("embed entries: %w", err)
	}
	ranking := d.ranker.Rank(qvec, candidates)
	return &ranking, nil
}

// Publish reports whether res is newer than every result published before
// it, and if so records it as the one on display. Callers drop results for
// which Publish returns false.
func (d *Dispatcher) Publish(res *Result) bool {
	if res == nil {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if res.Generation <= d.shown {
		return false
	}
	d.shown = res.Generation
	return true
}

// Latest returns the generation of the most recently started search.
func (d *Dispatcher) Latest() uint64 {
	return d.issued.Load()
}

func matchExact(entries []*models.Entry, query string) []*models.Entry {
	needle := strings.ToLower(query)
	out := make([]*models.Entry, 0, len(entries))
	for _, e := range entries {
		text := e.SearchText()
		if text == "" {
			continue
		}
		if strings.Contains(strings.ToLower(text), needle) {
			out = append(out, e)
		}
	}
	return out
}
