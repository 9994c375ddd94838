// ABOUTME: MCP tool implementations for journal operations.
// ABOUTME: Registers save_note, save_audio, list_entries, and list_categories.
package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/memento/internal/models"
	"github.com/2389-research/memento/internal/search"
)

const defaultListLimit = 20

func (s *Server) registerJournalTools() {
	s.mcp.AddTool(&gomcp.Tool{
		Name:        "save_note",
		Description: "Save a text note to the journal. Categories are optional, comma-separated tags.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"text": {"type": "string", "description": "The note text"},
				"categories": {"type": "string", "description": "Comma-separated tags, e.g. \"work, ideas\""}
			},
			"required": ["text"]
		}`),
	}, s.handleSaveNote)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "save_audio",
		Description: "Save an audio recording to the journal. The recording is stored as-is; it is not transcribed.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"data": {"type": "string", "description": "Base64-encoded audio bytes"},
				"mime_type": {"type": "string", "description": "Media type of the recording (default: audio/webm)"},
				"categories": {"type": "string", "description": "Comma-separated tags"}
			},
			"required": ["data"]
		}`),
	}, s.handleSaveAudio)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "list_entries",
		Description: "List journal entries, newest first, optionally narrowed to entries tagged with any of the given categories.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"limit": {"type": "number", "description": "Maximum number of entries to return (default: 20)"},
				"categories": {"type": "string", "description": "Comma-separated tags; entries matching any tag are returned"}
			}
		}`),
	}, s.handleListEntries)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "list_categories",
		Description: "List every category used in the journal.",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
	}, s.handleListCategories)
}

func (s *Server) handleSaveNote(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Text       string `json:"text"`
		Categories string `json:"categories"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	text := strings.TrimSpace(args.Text)
	if text == "" {
		return toolError("text is required"), nil
	}

	entry := models.NewTextEntry(text, models.ParseCategories(args.Categories))
	if _, err := s.store.Insert(ctx, entry); err != nil {
		s.logger.Error("save_note failed", "error", err)
		return toolError("failed to save note: %v", err), nil
	}

	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{
			Text: fmt.Sprintf("Saved note #%d%s", entry.ID, categorySuffix(entry.Categories)),
		}},
	}, nil
}

func (s *Server) handleSaveAudio(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Data       string `json:"data"`
		MIMEType   string `json:"mime_type"`
		Categories string `json:"categories"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	if args.Data == "" {
		return toolError("data is required"), nil
	}
	data, err := base64.StdEncoding.DecodeString(args.Data)
	if err != nil {
		return toolError("data is not valid base64: %v", err), nil
	}
	if len(data) == 0 {
		return toolError("data decodes to an empty recording"), nil
	}

	entry := models.NewAudioEntry(data, strings.TrimSpace(args.MIMEType), models.ParseCategories(args.Categories))
	if _, err := s.store.Insert(ctx, entry); err != nil {
		s.logger.Error("save_audio failed", "error", err)
		return toolError("failed to save recording: %v", err), nil
	}

	clip := entry.Body.(models.AudioClip)
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{
			Text: fmt.Sprintf("Saved recording #%d (%s, %d bytes)%s", entry.ID, clip.MIMEType, len(data), categorySuffix(entry.Categories)),
		}},
	}, nil
}

func (s *Server) handleListEntries(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Limit      int    `json:"limit"`
		Categories string `json:"categories"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}
	if args.Limit <= 0 {
		args.Limit = defaultListLimit
	}

	res, err := s.dispatcher.Search(ctx, search.Request{Categories: models.ParseCategories(args.Categories)})
	if err != nil {
		return toolError("failed to list entries: %v", err), nil
	}

	if len(res.Entries) == 0 {
		return &gomcp.CallToolResult{
			Content: []gomcp.Content{&gomcp.TextContent{Text: "No entries found."}},
		}, nil
	}

	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: formatEntries(res.Entries, args.Limit, nil)}},
	}, nil
}

func (s *Server) handleListCategories(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	entries, err := s.store.ListAll(ctx)
	if err != nil {
		return toolError("failed to list categories: %v", err), nil
	}

	categories := models.UniqueCategories(entries)
	if len(categories) == 0 {
		return &gomcp.CallToolResult{
			Content: []gomcp.Content{&gomcp.TextContent{Text: "No categories yet."}},
		}, nil
	}
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: strings.Join(categories, "\n")}},
	}, nil
}

// formatEntries renders up to limit entries, one per line. scores, when
// non-nil, maps entry ids to their similarity.
func formatEntries(entries []*models.Entry, limit int, scores map[int64]float64) string {
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("- #%d %s", e.ID, e.CreatedAt.Format("2006-01-02 15:04:05")))
		if score, ok := scores[e.ID]; ok {
			sb.WriteString(fmt.Sprintf(" (%.3f)", score))
		}
		sb.WriteString(categorySuffix(e.Categories))
		switch body := e.Body.(type) {
		case models.TextNote:
			sb.WriteString(": " + body.Text)
		case models.AudioClip:
			sb.WriteString(fmt.Sprintf(": [audio %s, %d bytes]", body.MIMEType, len(body.Data)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func categorySuffix(categories []string) string {
	if len(categories) == 0 {
		return ""
	}
	return " [" + strings.Join(categories, ", ") + "]"
}

// toolError creates an error result for MCP tool responses.
func toolError(format string, args ...interface{}) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
