// ABOUTME: Lazily initialized, process-wide embedding provider.
// ABOUTME: Initializes at most once; a failed initialization disables embeddings until Reset.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrUnavailable means the embedding capability could not be initialized.
// Callers should treat semantic search as disabled for the session.
var ErrUnavailable = errors.New("embeddings unavailable")

// Loader performs the expensive one-time initialization of an embedder.
type Loader func(ctx context.Context) (Embedder, error)

// Provider memoizes a single Embedder for the whole process.
type Provider struct {
	load   Loader
	logger *slog.Logger

	mu   sync.Mutex
	init *initCall
}

// initCall is one initialization attempt shared by every waiter.
type initCall struct {
	done     chan struct{}
	embedder Embedder
	err      error
}

// NewProvider creates a provider that initializes itself with load on first use.
func NewProvider(load Loader, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Provider{load: load, logger: logger}
}

// EnsureReady initializes the embedder if nobody has yet, and waits for the
// outcome. Concurrent callers share one attempt. The attempt itself is not
// cancelled when ctx is; only this caller's wait is.
func (p *Provider) EnsureReady(ctx context.Context) error {
	p.mu.Lock()
	call := p.init
	if call == nil {
		call = &initCall{done: make(chan struct{})}
		p.init = call
		go p.run(context.WithoutCancel(ctx), call)
	}
	p.mu.Unlock()

	select {
	case <-call.done:
		return call.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Provider) run(ctx context.Context, call *initCall) {
	defer close(call.done)

	start := time.Now()
	embedder, err := p.load(ctx)
	if err == nil && embedder == nil {
		err = errors.New("loader returned no embedder")
	}
	if err != nil {
		call.err = fmt.Errorf("%w: %v", ErrUnavailable, err)
		p.logger.Warn("embedding provider failed to initialize; semantic search disabled", "error", err)
		return
	}

	call.embedder = embedder
	p.logger.Info("embedding provider ready", "dimension", embedder.Dimension(), "elapsed", time.Since(start))
}

// Ready reports whether initialization has completed successfully.
func (p *Provider) Ready() bool {
	embedder, err := p.current()
	return err == nil && embedder != nil
}

// Embed returns the embedding of text. It fails with ErrUnavailable unless a
// previous EnsureReady succeeded.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	embedder, err := p.current()
	if err != nil {
		return nil, err
	}
	return embedder.Embed(ctx, text)
}

// Dimension returns the vector size of the ready embedder, or 0.
func (p *Provider) Dimension() int {
	embedder, err := p.current()
	if err != nil {
		return 0
	}
	return embedder.Dimension()
}

func (p *Provider) current() (Embedder, error) {
	p.mu.Lock()
	call := p.init
	p.mu.Unlock()

	if call == nil {
		return nil, fmt.Errorf("%w: not initialized", ErrUnavailable)
	}
	select {
	case <-call.done:
	default:
		return nil, fmt.Errorf("%w: still initializing", ErrUnavailable)
	}
	if call.err != nil {
		return nil, call.err
	}
	return call.embedder, nil
}

// Reset forgets the current embedder or failed attempt so the next
// EnsureReady initializes again. An attempt still in flight completes for its
// existing waiters.
func (p *Provider) Reset() {
	p.mu.Lock()
	p.init = nil
	p.mu.Unlock()
}
