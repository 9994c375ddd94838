// ABOUTME: Tests for the search_entries MCP tool.
// ABOUTME: Covers exact and semantic modes, argument validation, and empty results.
package mcp

import (
	"strings"
	"testing"
)

func seedDogWalk(t *testing.T, s *Server) {
	t.Helper()
	callTool(t, s, "save_note", map[string]string{"text": "I walked the dog today"})
	callTool(t, s, "save_note", map[string]string{"text": "Quarterly report review", "categories": "work"})
}

func TestSearchEntriesExact(t *testing.T) {
	s := makeJournalServer(t)
	seedDogWalk(t, s)

	result := callTool(t, s, "search_entries", map[string]interface{}{"query": "DOG"})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", getTextContent(result))
	}
	text := getTextContent(result)
	if !strings.Contains(text, "Found 1 entries (exact)") {
		t.Errorf("unexpected header: %s", text)
	}
	if !strings.Contains(text, "I walked the dog today") || strings.Contains(text, "Quarterly") {
		t.Errorf("expected only the dog entry, got:\n%s", text)
	}
}

func TestSearchEntriesSemantic(t *testing.T) {
	s := makeJournalServer(t)
	seedDogWalk(t, s)

	result := callTool(t, s, "search_entries", map[string]interface{}{
		"query":    "dog walk",
		"mode":     "semantic",
		"semantic": true,
	})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", getTextContent(result))
	}
	text := getTextContent(result)
	if !strings.Contains(text, "(semantic)") {
		t.Errorf("expected semantic strategy, got:\n%s", text)
	}
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) < 2 || !strings.Contains(lines[1], "I walked the dog today") {
		t.Errorf("expected the dog entry ranked first, got:\n%s", text)
	}
}

func TestSearchEntriesSemanticToggleOff(t *testing.T) {
	s := makeJournalServer(t)
	seedDogWalk(t, s)

	result := callTool(t, s, "search_entries", map[string]interface{}{"query": "dog walk", "mode": "semantic"})
	text := getTextContent(result)
	if !strings.Contains(text, "Found 2 entries (all)") {
		t.Errorf("expected every entry listed, got:\n%s", text)
	}
}

func TestSearchEntriesValidation(t *testing.T) {
	s := makeJournalServer(t)

	result := callTool(t, s, "search_entries", map[string]interface{}{"query": " "})
	if !result.IsError || !strings.Contains(getTextContent(result), "query is required") {
		t.Errorf("expected query validation error, got: %s", getTextContent(result))
	}

	result = callTool(t, s, "search_entries", map[string]interface{}{"query": "x", "mode": "fuzzy"})
	if !result.IsError || !strings.Contains(getTextContent(result), "unknown search mode") {
		t.Errorf("expected mode validation error, got: %s", getTextContent(result))
	}
}

func TestSearchEntriesNoResults(t *testing.T) {
	s := makeJournalServer(t)
	seedDogWalk(t, s)

	result := callTool(t, s, "search_entries", map[string]interface{}{"query": "nonexistent content xyz123"})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", getTextContent(result))
	}
	if !strings.Contains(getTextContent(result), "No entries found") {
		t.Errorf("expected no results message, got: %s", getTextContent(result))
	}
}
