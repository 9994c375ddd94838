package search

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/2389-research/memento/internal/embeddings"
	"github.com/2389-research/memento/internal/models"
)

// memStore is an in-memory Store that records write-backs.
type memStore struct {
	mu        sync.Mutex
	entries   []*models.Entry
	upserts   map[int64]int
	listErr   error
	upsertErr error
}

func newMemStore(entries ...*models.Entry) *memStore {
	for i, e := range entries {
		if e.ID == 0 {
			e.ID = int64(i + 1)
		}
	}
	// Own the slice so write-backs never rewrite the caller's entries.
	return &memStore{entries: append([]*models.Entry(nil), entries...), upserts: make(map[int64]int)}
}

func (s *memStore) ListAll(ctx context.Context) ([]*models.Entry, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Entry, len(s.entries))
	for i, e := range s.entries {
		cp := *e
		out[i] = &cp
	}
	return out, nil
}

func (s *memStore) Upsert(ctx context.Context, entry *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts[entry.ID]++
	if s.upsertErr != nil {
		return s.upsertErr
	}
	for i, e := range s.entries {
		if e.ID == entry.ID {
			cp := *e
			cp.Embedding = entry.Embedding
			s.entries[i] = &cp
			return nil
		}
	}
	return errors.New("no such entry")
}

func (s *memStore) upsertCount(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upserts[id]
}

// stubProvider wraps the hash embedder and counts calls.
type stubProvider struct {
	embedder  *embeddings.HashEmbedder
	readyErr  error
	embedErr  error
	failOn    string
	delay     time.Duration
	embeds    atomic.Int32
	inFlight  atomic.Int32
	maxFlight atomic.Int32
}

func newStubProvider() *stubProvider {
	return &stubProvider{embedder: embeddings.NewHashEmbedder(512)}
}

func (p *stubProvider) EnsureReady(ctx context.Context) error {
	return p.readyErr
}

func (p *stubProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	p.embeds.Add(1)
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		old := p.maxFlight.Load()
		if n <= old || p.maxFlight.CompareAndSwap(old, n) {
			break
		}
	}
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if p.embedErr != nil {
		return nil, p.embedErr
	}
	if p.failOn != "" && text == p.failOn {
		return nil, errors.New("embedding failed for " + text)
	}
	return p.embedder.Embed(ctx, text)
}

func textEntry(text string, created int64, cats ...string) *models.Entry {
	return &models.Entry{
		CreatedAt:  time.UnixMilli(created),
		Body:       models.TextNote{Text: text},
		Categories: cats,
	}
}

func audioEntry(created int64, cats ...string) *models.Entry {
	return &models.Entry{
		CreatedAt:  time.UnixMilli(created),
		Body:       models.AudioClip{Data: []byte{1, 2, 3}, MIMEType: models.DefaultAudioMIMEType},
		Categories: cats,
	}
}

func texts(entries []*models.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.SearchText()
	}
	return out
}

func math32bits(f float32) uint32 {
	return math.Float32bits(f)
}
