// ABOUTME: Unit tests for the journal browser bubbletea model.
// ABOUTME: Drives the model with synthetic key and result messages against a fake searcher.
package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/memento/internal/models"
	"github.com/2389-research/memento/internal/search"
)

type fakeSearcher struct {
	mu       sync.Mutex
	requests []search.Request
	gen      uint64
	shown    uint64
	entries  []*models.Entry
	degraded bool
	err      error
}

func (f *fakeSearcher) Search(_ context.Context, req search.Request) (*search.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	f.gen++
	if f.err != nil {
		return &search.Result{Generation: f.gen}, f.err
	}
	return &search.Result{Generation: f.gen, Entries: f.entries, Strategy: search.StrategyAll, Degraded: f.degraded}, nil
}

func (f *fakeSearcher) Publish(res *search.Result) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if res == nil || res.Generation <= f.shown {
		return false
	}
	f.shown = res.Generation
	return true
}

func (f *fakeSearcher) Latest() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gen
}

func (f *fakeSearcher) last() search.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newBrowse(f *fakeSearcher, categories ...string) BrowseModel {
	m := NewBrowseModel(context.Background(), f, categories)
	// A static cursor keeps keystrokes from returning blink timers.
	m.input.Cursor.SetMode(cursor.CursorStatic)
	return m
}

// press feeds a key to the model and runs any search it dispatched.
func press(t *testing.T, m BrowseModel, key tea.KeyMsg) (BrowseModel, []tea.Msg) {
	t.Helper()
	updated, cmd := m.Update(key)
	m = updated.(BrowseModel)
	return m, runSearches(cmd)
}

// runSearches executes cmd (flattening batches) and keeps only search results.
func runSearches(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	var out []tea.Msg
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			if c == nil {
				continue
			}
			if r, ok := c().(searchResultMsg); ok {
				out = append(out, r)
			}
		}
	case searchResultMsg:
		out = append(out, msg)
	}
	return out
}

func typeRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBrowse_KeystrokeDispatchesSearch(t *testing.T) {
	f := &fakeSearcher{}
	m := newBrowse(f)

	m, msgs := press(t, m, typeRunes("d"))
	if len(msgs) != 1 {
		t.Fatalf("expected one search per keystroke, got %d", len(msgs))
	}
	m, _ = press(t, m, typeRunes("o"))
	if got := f.last().Query; got != "do" {
		t.Errorf("expected query %q, got %q", "do", got)
	}
	if f.last().Mode != search.ModeExact {
		t.Errorf("expected exact mode by default, got %q", f.last().Mode)
	}
	if m.input.Value() != "do" {
		t.Errorf("expected input to hold typed text, got %q", m.input.Value())
	}
}

func TestBrowse_NonEditingKeyDoesNotDispatch(t *testing.T) {
	f := &fakeSearcher{}
	m := newBrowse(f)

	_, msgs := press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	if len(msgs) != 0 {
		t.Errorf("expected no search for cursor movement, got %d", len(msgs))
	}
}

func TestBrowse_TabSwitchesMode(t *testing.T) {
	f := &fakeSearcher{}
	m := newBrowse(f)

	m, msgs := press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.mode != search.ModeSemantic || len(msgs) != 1 {
		t.Fatalf("expected semantic mode and a dispatch, got %q and %d", m.mode, len(msgs))
	}
	if f.last().Mode != search.ModeSemantic {
		t.Errorf("expected dispatched mode semantic, got %q", f.last().Mode)
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.mode != search.ModeExact {
		t.Errorf("expected tab to switch back to exact, got %q", m.mode)
	}
}

func TestBrowse_CtrlSTogglesSemantic(t *testing.T) {
	f := &fakeSearcher{}
	m := newBrowse(f)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if !m.semantic || !f.last().Semantic {
		t.Error("expected semantic enabled after ctrl+s")
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.semantic || f.last().Semantic {
		t.Error("expected semantic disabled after second ctrl+s")
	}
}

func TestBrowse_CategoryChips(t *testing.T) {
	f := &fakeSearcher{}
	m := newBrowse(f, "pets", "work")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlF})
	if !m.chipFocus {
		t.Fatal("expected chip focus after ctrl+f")
	}

	// Typing while chips are focused must not edit the query
	m, msgs := press(t, m, typeRunes("x"))
	if m.input.Value() != "" || len(msgs) != 0 {
		t.Errorf("expected runes ignored in chip focus, got %q and %d searches", m.input.Value(), len(msgs))
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m, msgs = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if len(msgs) != 1 {
		t.Fatalf("expected toggle to dispatch, got %d", len(msgs))
	}
	if got := f.last().Categories; len(got) != 1 || got[0] != "work" {
		t.Errorf("expected categories [work], got %v", got)
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := f.last().Categories; len(got) != 2 || got[0] != "pets" || got[1] != "work" {
		t.Errorf("expected categories [pets work], got %v", got)
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	if len(f.last().Categories) != 0 {
		t.Errorf("expected backspace to clear the selection, got %v", f.last().Categories)
	}

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	m = updated.(BrowseModel)
	if m.chipFocus || cmd != nil {
		t.Error("expected escape to leave chip focus without quitting")
	}
}

func TestBrowse_StaleResultDiscarded(t *testing.T) {
	entry := models.NewTextEntry("walked the dog", nil)
	f := &fakeSearcher{entries: []*models.Entry{entry}}
	m := newBrowse(f)

	_, first := press(t, m, typeRunes("d"))
	_, second := press(t, m, typeRunes("o"))

	// The newer search finishes first
	updated, _ := m.Update(second[0])
	m = updated.(BrowseModel)
	if m.result == nil || m.result.Generation != 2 {
		t.Fatalf("expected generation 2 on display, got %+v", m.result)
	}

	updated, _ = m.Update(first[0])
	m = updated.(BrowseModel)
	if m.result.Generation != 2 {
		t.Errorf("expected stale generation 1 to be dropped, showing %d", m.result.Generation)
	}
}

func TestBrowse_SearchingIndicator(t *testing.T) {
	f := &fakeSearcher{}
	m := newBrowse(f)

	m, first := press(t, m, typeRunes("d"))
	updated, _ := m.Update(first[0])
	m = updated.(BrowseModel)
	if strings.Contains(m.View(), "searching") {
		t.Error("expected no indicator when the newest search is on display")
	}

	m, second := press(t, m, typeRunes("o"))
	if !strings.Contains(m.View(), "searching") {
		t.Error("expected indicator while a newer search is outstanding")
	}
	updated, _ = m.Update(second[0])
	m = updated.(BrowseModel)
	if strings.Contains(m.View(), "searching") {
		t.Error("expected indicator to clear once the newest result arrives")
	}
}

func TestBrowse_ViewShowsResults(t *testing.T) {
	text := models.NewTextEntry("walked the dog", []string{"pets"})
	audio := models.NewAudioEntry([]byte{1}, "audio/ogg", nil)
	f := &fakeSearcher{entries: []*models.Entry{text, audio}}
	m := newBrowse(f, "pets")

	if !strings.Contains(m.View(), "Loading") {
		t.Error("expected loading view before first result")
	}

	updated, _ := m.Update(runSearches(m.dispatch())[0])
	m = updated.(BrowseModel)
	view := m.View()
	for _, want := range []string{"walked the dog", "#pets", "audio clip (audio/ogg)", "mode: exact"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestBrowse_ViewShowsDegradedNotice(t *testing.T) {
	f := &fakeSearcher{degraded: true}
	m := newBrowse(f)

	updated, _ := m.Update(runSearches(m.dispatch())[0])
	m = updated.(BrowseModel)
	if !strings.Contains(m.View(), "Semantic search is unavailable") {
		t.Error("expected degraded notice in view")
	}
}

func TestBrowse_ViewShowsScores(t *testing.T) {
	entry := models.NewTextEntry("quarterly report", nil)
	f := &fakeSearcher{}
	m := newBrowse(f)

	res := &search.Result{
		Generation: 1,
		Entries:    []*models.Entry{entry},
		Strategy:   search.StrategySemantic,
		Ranking:    &search.Ranking{Results: []search.Scored{{Entry: entry, Score: 0.87}}},
	}
	updated, _ := m.Update(searchResultMsg{res: res})
	m = updated.(BrowseModel)
	if !strings.Contains(m.View(), "0.87") {
		t.Error("expected semantic score in view")
	}
}

func TestBrowse_SearchErrorShown(t *testing.T) {
	f := &fakeSearcher{err: errors.New("disk on fire")}
	m := newBrowse(f)

	updated, _ := m.Update(runSearches(m.dispatch())[0])
	m = updated.(BrowseModel)
	if !strings.Contains(m.View(), "disk on fire") {
		t.Error("expected search error in view")
	}
}

func TestBrowse_StaleErrorDiscarded(t *testing.T) {
	entry := models.NewTextEntry("walked the dog", nil)
	f := &fakeSearcher{err: errors.New("stale failure")}
	m := newBrowse(f)

	_, failed := press(t, m, typeRunes("d"))
	f.err = nil
	f.entries = []*models.Entry{entry}
	_, fresh := press(t, m, typeRunes("o"))

	updated, _ := m.Update(fresh[0])
	m = updated.(BrowseModel)
	updated, _ = m.Update(failed[0])
	m = updated.(BrowseModel)

	view := m.View()
	if strings.Contains(view, "stale failure") {
		t.Error("expected an older failure to be dropped once a newer result is shown")
	}
	if !strings.Contains(view, "walked the dog") {
		t.Error("expected the newer result to stay on screen")
	}
}

func TestBrowse_ErrorWithoutResultDropped(t *testing.T) {
	m := newBrowse(&fakeSearcher{})
	updated, _ := m.Update(searchResultMsg{err: errors.New("unordered failure")})
	m = updated.(BrowseModel)
	if strings.Contains(m.View(), "unordered failure") {
		t.Error("expected a failure with no generation to be dropped")
	}
}

func TestBrowse_QuitKeys(t *testing.T) {
	for _, key := range []tea.KeyType{tea.KeyCtrlC, tea.KeyEscape} {
		m := newBrowse(&fakeSearcher{})
		_, cmd := m.Update(tea.KeyMsg{Type: key})
		if cmd == nil {
			t.Errorf("expected quit cmd on %v", key)
			continue
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("expected tea.QuitMsg on %v", key)
		}
	}
}

func TestPreviewTruncates(t *testing.T) {
	long := models.NewTextEntry(strings.Repeat("word ", 40), nil)
	got := preview(long)
	if len([]rune(got)) != 72 || !strings.HasSuffix(got, "…") {
		t.Errorf("expected 72-rune truncated preview, got %q", got)
	}

	transcribed := &models.Entry{CreatedAt: time.Now(), Body: models.AudioClip{Transcript: "hello there"}}
	if got := preview(transcribed); !strings.Contains(got, "hello there") {
		t.Errorf("expected transcript preview, got %q", got)
	}
}
