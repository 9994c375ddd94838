// ABOUTME: Interactive journal browser: a search box re-dispatched on every keystroke.
// ABOUTME: Results are shown only when the dispatcher confirms they are the newest.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/memento/internal/models"
	"github.com/2389-research/memento/internal/search"
)

// maxRows caps how many results the browser renders.
const maxRows = 20

// Searcher runs searches and arbitrates which result is current. Search
// returns a generation-stamped Result even when it fails.
type Searcher interface {
	Search(ctx context.Context, req search.Request) (*search.Result, error)
	Publish(res *search.Result) bool
	Latest() uint64
}

// searchResultMsg carries the outcome of one dispatched search.
type searchResultMsg struct {
	res *search.Result
	err error
}

var (
	chipStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	chipOnStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	chipCursorStyle = lipgloss.NewStyle().Underline(true)
	dateStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	scoreStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	warnStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// BrowseModel is the bubbletea model behind `memento browse`.
type BrowseModel struct {
	ctx        context.Context
	searcher   Searcher
	input      textinput.Model
	mode       search.Mode
	semantic   bool
	categories []string
	selection  *search.Selection
	chipFocus  bool
	chipCursor int
	result     *search.Result
	err        error
}

// NewBrowseModel creates a browser over searcher. categories are the tags
// offered as filter chips.
func NewBrowseModel(ctx context.Context, searcher Searcher, categories []string) BrowseModel {
	input := textinput.New()
	input.Placeholder = "search your journal"
	input.Prompt = "> "
	input.Width = 60
	input.Focus()

	return BrowseModel{
		ctx:        ctx,
		searcher:   searcher,
		input:      input,
		mode:       search.ModeExact,
		categories: categories,
		selection:  &search.Selection{},
	}
}

// Init implements tea.Model.
func (m BrowseModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.dispatch())
}

// Update implements tea.Model.
func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case searchResultMsg:
		// Failures go through the same generation check as results.
		if !m.searcher.Publish(msg.res) {
			return m, nil
		}
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.result = msg.res
		m.err = nil
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEscape:
			if m.chipFocus {
				m.chipFocus = false
				m.input.Focus()
				return m, nil
			}
			return m, tea.Quit
		case tea.KeyTab:
			if m.mode == search.ModeExact {
				m.mode = search.ModeSemantic
			} else {
				m.mode = search.ModeExact
			}
			return m, m.dispatch()
		case tea.KeyCtrlS:
			m.semantic = !m.semantic
			return m, m.dispatch()
		case tea.KeyCtrlF:
			m.chipFocus = !m.chipFocus
			if m.chipFocus {
				m.input.Blur()
				return m, nil
			}
			m.input.Focus()
			return m, textinput.Blink
		}

		if m.chipFocus {
			return m.updateChips(msg)
		}

		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if m.input.Value() != before {
			return m, tea.Batch(cmd, m.dispatch())
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m BrowseModel) updateChips(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if len(m.categories) == 0 {
		return m, nil
	}
	switch msg.Type {
	case tea.KeyLeft:
		if m.chipCursor > 0 {
			m.chipCursor--
		}
	case tea.KeyRight:
		if m.chipCursor < len(m.categories)-1 {
			m.chipCursor++
		}
	case tea.KeySpace, tea.KeyEnter:
		m.selection.Toggle(m.categories[m.chipCursor])
		return m, m.dispatch()
	case tea.KeyBackspace:
		if m.selection.Len() > 0 {
			m.selection.Clear()
			return m, m.dispatch()
		}
	}
	return m, nil
}

// dispatch starts a search for the current state. Every keystroke gets its
// own command; the newest one to finish wins through Publish.
func (m BrowseModel) dispatch() tea.Cmd {
	ctx := m.ctx
	searcher := m.searcher
	req := search.Request{
		Query:      m.input.Value(),
		Mode:       m.mode,
		Semantic:   m.semantic,
		Categories: m.selection.Tags(),
	}
	return func() tea.Msg {
		res, err := searcher.Search(ctx, req)
		return searchResultMsg{res: res, err: err}
	}
}

// View implements tea.Model.
func (m BrowseModel) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(brandStyle.Render("   MEMENTO"))
	b.WriteString(stepStyle.Render(fmt.Sprintf("  mode: %s  semantic: %s", m.mode, onOff(m.semantic))))
	if m.pending() {
		b.WriteString(promptStyle.Render("  searching..."))
	}
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	if len(m.categories) > 0 {
		b.WriteString(m.chipsView())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("✗ Search failed: %s", m.err)))
		b.WriteString("\n")
	case m.result == nil:
		b.WriteString(promptStyle.Render("Loading..."))
		b.WriteString("\n")
	default:
		b.WriteString(m.resultsView())
	}

	b.WriteString("\n")
	b.WriteString(promptStyle.Render("tab: exact/semantic  ctrl+s: semantic on/off  ctrl+f: categories  esc: quit"))
	b.WriteString("\n")
	return b.String()
}

// pending reports whether a newer search than the one on display is running.
func (m BrowseModel) pending() bool {
	return m.result != nil && m.result.Generation < m.searcher.Latest()
}

func (m BrowseModel) chipsView() string {
	chips := make([]string, len(m.categories))
	for i, c := range m.categories {
		label := c
		style := chipStyle
		if m.selection.Has(c) {
			label = "#" + c
			style = chipOnStyle
		}
		if m.chipFocus && i == m.chipCursor {
			style = style.Inherit(chipCursorStyle)
		}
		chips[i] = style.Render(label)
	}
	return strings.Join(chips, " ")
}

func (m BrowseModel) resultsView() string {
	var b strings.Builder
	res := m.result

	if res.Degraded {
		b.WriteString(warnStyle.Render("Semantic search is unavailable; showing all matching entries."))
		b.WriteString("\n")
	}
	if len(res.Entries) == 0 {
		b.WriteString(promptStyle.Render("No entries."))
		b.WriteString("\n")
		return b.String()
	}

	for i, e := range res.Entries {
		if i == maxRows {
			b.WriteString(promptStyle.Render(fmt.Sprintf("... and %d more", len(res.Entries)-maxRows)))
			b.WriteString("\n")
			break
		}
		b.WriteString(dateStyle.Render(e.CreatedAt.Format("2006-01-02 15:04")))
		b.WriteString("  ")
		if res.Ranking != nil && i < len(res.Ranking.Results) {
			b.WriteString(scoreStyle.Render(fmt.Sprintf("%.2f", res.Ranking.Results[i].Score)))
			b.WriteString("  ")
		}
		b.WriteString(preview(e))
		if len(e.Categories) > 0 {
			b.WriteString(chipStyle.Render("  #" + strings.Join(e.Categories, " #")))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// preview renders an entry as a single line.
func preview(e *models.Entry) string {
	switch body := e.Body.(type) {
	case models.TextNote:
		return truncate(strings.Join(strings.Fields(body.Text), " "), 72)
	case models.AudioClip:
		if body.Transcript != "" {
			return "🎙 " + truncate(strings.Join(strings.Fields(body.Transcript), " "), 70)
		}
		return fmt.Sprintf("🎙 audio clip (%s)", body.MIMEType)
	default:
		return ""
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
