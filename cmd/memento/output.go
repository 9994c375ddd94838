// ABOUTME: Plain-text rendering of journal entries and search results for the CLI.
// ABOUTME: Shared by the note, search, and categories commands.
package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/2389-research/memento/internal/models"
	"github.com/2389-research/memento/internal/search"
)

// printResult writes up to limit entries of a search result. limit <= 0
// prints everything.
func printResult(w io.Writer, res *search.Result, limit int) {
	if res.Degraded {
		_, _ = fmt.Fprintln(w, "Note: semantic search unavailable; showing unranked entries.")
	}
	if len(res.Entries) == 0 {
		_, _ = fmt.Fprintln(w, "No entries found.")
		return
	}

	for i, e := range res.Entries {
		if limit > 0 && i >= limit {
			_, _ = fmt.Fprintf(w, "(%d more not shown)\n", len(res.Entries)-limit)
			break
		}
		score := ""
		if res.Ranking != nil && i < len(res.Ranking.Results) {
			score = fmt.Sprintf(" %.3f", res.Ranking.Results[i].Score)
		}
		_, _ = fmt.Fprintf(w, "#%d %s [%s]%s %s%s\n",
			e.ID,
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.Kind(),
			score,
			summary(e),
			tags(e.Categories),
		)
	}
}

// printEntry writes one entry in full.
func printEntry(w io.Writer, e *models.Entry) {
	_, _ = fmt.Fprintf(w, "ID:   %d\n", e.ID)
	_, _ = fmt.Fprintf(w, "Date: %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"))
	_, _ = fmt.Fprintf(w, "Type: %s\n", e.Kind())
	if len(e.Categories) > 0 {
		_, _ = fmt.Fprintf(w, "Tags: %s\n", strings.Join(e.Categories, ", "))
	}
	_, _ = fmt.Fprintln(w)

	switch body := e.Body.(type) {
	case models.TextNote:
		_, _ = fmt.Fprintln(w, body.Text)
	case models.AudioClip:
		_, _ = fmt.Fprintf(w, "Audio: %s, %d bytes\n", body.MIMEType, len(body.Data))
		if body.Transcript != "" {
			_, _ = fmt.Fprintf(w, "Transcript: %s\n", body.Transcript)
		}
	}
}

func summary(e *models.Entry) string {
	if clip, ok := e.Body.(models.AudioClip); ok && clip.Transcript == "" {
		return fmt.Sprintf("(audio, %s)", clip.MIMEType)
	}
	return truncate(strings.Join(strings.Fields(e.SearchText()), " "), 100)
}

func tags(categories []string) string {
	if len(categories) == 0 {
		return ""
	}
	return "  #" + strings.Join(categories, " #")
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
