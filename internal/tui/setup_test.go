// ABOUTME: Unit tests for the setup TUI wizard bubbletea model.
// ABOUTME: Uses synthetic tea.Msg values to test state machine transitions.
package tui

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/memento/internal/embeddings"
)

func TestNewSetupModel_DefaultValues(t *testing.T) {
	m := NewSetupModel("", "", "")
	if m.step != StepBaseURL {
		t.Errorf("expected initial step StepBaseURL, got %d", m.step)
	}
	if m.inputs[0].Value() != "" {
		t.Error("expected empty base URL input for new config")
	}
}

func TestNewSetupModel_ExistingConfig(t *testing.T) {
	m := NewSetupModel("http://gpu-box:11434/v1", "mxbai-embed-large", "secret-key")
	if m.inputs[0].Value() != "http://gpu-box:11434/v1" {
		t.Errorf("expected pre-filled base URL, got %q", m.inputs[0].Value())
	}
	if m.inputs[1].Value() != "mxbai-embed-large" {
		t.Errorf("expected pre-filled model, got %q", m.inputs[1].Value())
	}
	if m.inputs[2].Value() != "secret-key" {
		t.Errorf("expected pre-filled API key, got %q", m.inputs[2].Value())
	}
}

func TestSetupModel_StepTransitions(t *testing.T) {
	m := NewSetupModel("", "", "")

	m.inputs[0].SetValue("http://localhost:11434/v1")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(SetupModel)
	if m.step != StepModel {
		t.Errorf("expected StepModel after Enter on base URL, got %d", m.step)
	}

	m.inputs[1].SetValue("nomic-embed-text")
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(SetupModel)
	if m.step != StepAPIKey {
		t.Errorf("expected StepAPIKey after Enter on model, got %d", m.step)
	}

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(SetupModel)
	if m.step != StepValidating {
		t.Errorf("expected StepValidating after Enter on API key, got %d", m.step)
	}
	if cmd == nil {
		t.Error("expected non-nil cmd (validation + spinner tick) when entering validation")
	}
}

func TestSetupModel_DefaultBaseURL(t *testing.T) {
	m := NewSetupModel("", "", "")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(SetupModel)
	if m.inputs[0].Value() != DefaultBaseURL {
		t.Errorf("expected default base URL %q, got %q", DefaultBaseURL, m.inputs[0].Value())
	}
	if m.step != StepModel {
		t.Errorf("expected StepModel after default URL applied, got %d", m.step)
	}
}

func TestSetupModel_DefaultModelFollowsProvider(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://api.openai.com/v1", embeddings.DefaultModel(embeddings.BackendOpenAI)},
		{"http://localhost:11434/v1", embeddings.DefaultModel(embeddings.BackendOllama)},
	}
	for _, tt := range tests {
		m := NewSetupModel(tt.url, "", "")
		m.step = StepModel
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = updated.(SetupModel)
		if m.inputs[1].Value() != tt.want {
			t.Errorf("url %s: expected default model %q, got %q", tt.url, tt.want, m.inputs[1].Value())
		}
	}
}

func TestSetupModel_BaseURLNormalized(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://localhost:11434", "http://localhost:11434/v1"},
		{"http://localhost:11434/", "http://localhost:11434/v1"},
		{"https://api.openai.com/v1/", "https://api.openai.com/v1"},
	}
	for _, tt := range tests {
		m := NewSetupModel("", "", "")
		m.inputs[0].SetValue(tt.in)
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = updated.(SetupModel)
		if m.inputs[0].Value() != tt.want {
			t.Errorf("NormalizeBaseURL(%q): got %q, want %q", tt.in, m.inputs[0].Value(), tt.want)
		}
	}
}

func TestSetupModel_EmptyAPIKeyAllowedForLocalServer(t *testing.T) {
	m := NewSetupModel("http://localhost:11434/v1", "nomic-embed-text", "")
	m.validateFn = func(_ context.Context, _, _, _ string) (int, error) { return 768, nil }
	m.step = StepAPIKey

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(SetupModel)
	if m.step != StepValidating {
		t.Errorf("expected StepValidating with empty key for local server, got %d", m.step)
	}
}

func TestSetupModel_EmptyAPIKeyBlockedForOpenAI(t *testing.T) {
	m := NewSetupModel("https://api.openai.com/v1", "text-embedding-3-small", "")
	m.step = StepAPIKey

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(SetupModel)
	if m.step != StepAPIKey {
		t.Errorf("expected to stay on StepAPIKey with empty key for OpenAI, got %d", m.step)
	}
}

func TestSetupModel_ValidationSuccess(t *testing.T) {
	m := NewSetupModel("", "", "")
	m.step = StepValidating

	updated, _ := m.Update(validationResultMsg{dim: 768})
	m = updated.(SetupModel)
	if m.step != StepDone {
		t.Errorf("expected StepDone after successful validation, got %d", m.step)
	}
	if m.Dimension() != 768 {
		t.Errorf("expected dimension 768, got %d", m.Dimension())
	}
}

func TestSetupModel_ValidationFailure(t *testing.T) {
	m := NewSetupModel("", "", "")
	m.step = StepValidating

	updated, _ := m.Update(validationResultMsg{err: fmt.Errorf("connection refused")})
	m = updated.(SetupModel)
	if m.step != StepFailed {
		t.Errorf("expected StepFailed after validation error, got %d", m.step)
	}
	if m.validationErr == nil {
		t.Error("expected validationErr to be set")
	}
}

func TestSetupModel_FailedRetry(t *testing.T) {
	m := NewSetupModel("", "", "")
	m.step = StepFailed
	m.validationErr = fmt.Errorf("some error")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	m = updated.(SetupModel)
	if m.step != StepValidating {
		t.Errorf("expected StepValidating after retry, got %d", m.step)
	}
	if m.validationErr != nil {
		t.Error("expected validationErr cleared on retry")
	}
	if cmd == nil {
		t.Error("expected non-nil cmd on retry")
	}
}

func TestSetupModel_FailedQuit(t *testing.T) {
	m := NewSetupModel("", "", "")
	m.step = StepFailed

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	m2 := updated.(SetupModel)
	if cmd == nil {
		t.Error("expected quit cmd")
	}
	if !m2.quitting {
		t.Error("expected quitting to be true after 'q'")
	}
	if m2.ShouldSave() {
		t.Error("expected ShouldSave false after quit")
	}
}

func TestSetupModel_QuitKeys(t *testing.T) {
	for _, key := range []tea.KeyType{tea.KeyCtrlC, tea.KeyEscape} {
		m := NewSetupModel("", "", "")
		updated, cmd := m.Update(tea.KeyMsg{Type: key})
		m = updated.(SetupModel)
		if cmd == nil {
			t.Errorf("expected quit cmd on %v", key)
		}
		if !m.quitting {
			t.Errorf("expected quitting to be true on %v", key)
		}
		if m.ShouldSave() {
			t.Errorf("expected ShouldSave false after %v", key)
		}
	}
}

func TestSetupModel_Result(t *testing.T) {
	m := NewSetupModel("", "", "")
	m.inputs[0].SetValue("https://api.openai.com/v1")
	m.inputs[1].SetValue("text-embedding-3-large")
	m.inputs[2].SetValue("sk-456")
	m.step = StepDone

	provider, baseURL, model, apiKey := m.Result()
	if provider != embeddings.BackendOpenAI {
		t.Errorf("expected provider openai, got %q", provider)
	}
	if baseURL != "https://api.openai.com/v1" {
		t.Errorf("expected base URL from result, got %q", baseURL)
	}
	if model != "text-embedding-3-large" {
		t.Errorf("expected model from result, got %q", model)
	}
	if apiKey != "sk-456" {
		t.Errorf("expected API key from result, got %q", apiKey)
	}
}

func TestSetupModel_ShouldSave(t *testing.T) {
	t.Run("done means save", func(t *testing.T) {
		m := NewSetupModel("", "", "")
		m.step = StepDone
		if !m.ShouldSave() {
			t.Error("expected ShouldSave true when done")
		}
	})

	t.Run("save anyway means save", func(t *testing.T) {
		m := NewSetupModel("", "", "")
		m.step = StepFailed
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
		m = updated.(SetupModel)
		if !m.ShouldSave() {
			t.Error("expected ShouldSave true after save anyway")
		}
	})
}

func TestSetupModel_ViewShowsCurrentStep(t *testing.T) {
	m := NewSetupModel("", "", "")
	if !strings.Contains(m.View(), "MEMENTO") {
		t.Error("expected view to contain MEMENTO branding")
	}

	m.step = StepBaseURL
	if !strings.Contains(m.View(), "Base URL") {
		t.Error("expected StepBaseURL view to mention Base URL")
	}

	m.step = StepModel
	if !strings.Contains(m.View(), "Embedding model") {
		t.Error("expected StepModel view to mention Embedding model")
	}

	m.step = StepAPIKey
	if !strings.Contains(m.View(), "API Key") {
		t.Error("expected StepAPIKey view to mention API Key")
	}

	m.step = StepValidating
	if !strings.Contains(m.View(), "test embedding") {
		t.Error("expected StepValidating view to mention the test embedding")
	}
}

func TestSetupModel_ViewDone(t *testing.T) {
	m := NewSetupModel("", "", "")
	m.step = StepDone
	m.dimension = 1536
	view := m.View()
	if !strings.Contains(view, "Connected") || !strings.Contains(view, "1536") {
		t.Errorf("expected StepDone view to report the dimension, got %q", view)
	}
}

func TestSetupModel_ViewFailed(t *testing.T) {
	m := NewSetupModel("", "", "")
	m.step = StepFailed
	m.validationErr = fmt.Errorf("timeout")
	view := m.View()
	for _, want := range []string{"Validation failed", "timeout", "[r]etry", "[s]ave anyway", "[q]uit"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected StepFailed view to contain %q", want)
		}
	}
}

func TestSetupModel_ViewFailedNilError(t *testing.T) {
	m := NewSetupModel("", "", "")
	m.step = StepFailed
	view := m.View()
	if strings.Contains(view, "<nil>") {
		t.Error("expected nil error to be rendered gracefully, not as <nil>")
	}
	if !strings.Contains(view, "unknown error") {
		t.Error("expected nil error to show 'unknown error' fallback")
	}
}

func TestSetupModel_CtrlCDuringValidation(t *testing.T) {
	cancelled := false
	m := NewSetupModel("http://localhost:11434/v1", "nomic-embed-text", "")
	m.validateFn = func(ctx context.Context, _, _, _ string) (int, error) {
		<-ctx.Done()
		cancelled = true
		return 0, ctx.Err()
	}
	m.step = StepAPIKey

	updated, batchCmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(SetupModel)
	if m.step != StepValidating {
		t.Fatalf("expected StepValidating, got %d", m.step)
	}

	// batchMsg[0] is the validation cmd, batchMsg[1] is the spinner tick
	batchMsg := batchCmd().(tea.BatchMsg)
	done := make(chan tea.Msg)
	go func() {
		done <- batchMsg[0]()
	}()

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = updated.(SetupModel)
	if !m.quitting {
		t.Error("expected quitting to be true after Ctrl+C during validation")
	}

	<-done
	if !cancelled {
		t.Error("expected validation context to be cancelled")
	}
}

func TestSetupModel_ValidationPassesCorrectArgs(t *testing.T) {
	var gotURL, gotModel, gotKey string
	m := NewSetupModel("", "", "")
	m.validateFn = func(_ context.Context, baseURL, model, apiKey string) (int, error) {
		gotURL, gotModel, gotKey = baseURL, model, apiKey
		return 3, nil
	}
	m.inputs[0].SetValue("https://example.com/v1")
	m.inputs[1].SetValue("embed-xyz")
	m.inputs[2].SetValue("secret-abc")
	m.step = StepAPIKey

	_, batchCmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	batchMsg := batchCmd().(tea.BatchMsg)
	msg := batchMsg[0]().(validationResultMsg)

	if gotURL != "https://example.com/v1" {
		t.Errorf("expected baseURL %q, got %q", "https://example.com/v1", gotURL)
	}
	if gotModel != "embed-xyz" {
		t.Errorf("expected model %q, got %q", "embed-xyz", gotModel)
	}
	if gotKey != "secret-abc" {
		t.Errorf("expected apiKey %q, got %q", "secret-abc", gotKey)
	}
	if msg.dim != 3 {
		t.Errorf("expected dimension 3 in result msg, got %d", msg.dim)
	}
}

func TestSetupModel_FullFlowWithTeaProgram(t *testing.T) {
	m := NewSetupModel("http://localhost:11434/v1", "nomic-embed-text", "")
	m.validateFn = func(_ context.Context, _, _, _ string) (int, error) {
		time.Sleep(50 * time.Millisecond)
		return 768, nil
	}

	p := tea.NewProgram(m, tea.WithInput(nil), tea.WithoutRenderer())

	go func() {
		p.Send(tea.KeyMsg{Type: tea.KeyEnter}) // base URL
		p.Send(tea.KeyMsg{Type: tea.KeyEnter}) // model
		p.Send(tea.KeyMsg{Type: tea.KeyEnter}) // API key -> validates -> done -> quit
	}()

	result, err := p.Run()
	if err != nil {
		t.Fatalf("tea.Program error: %v", err)
	}

	final := result.(SetupModel)
	if !final.ShouldSave() {
		t.Errorf("expected ShouldSave=true after successful validation (step=%d, quitting=%v)", final.step, final.quitting)
	}
	if final.Dimension() != 768 {
		t.Errorf("expected dimension 768, got %d", final.Dimension())
	}
}
