// ABOUTME: MCP tool implementation for searching the journal.
// ABOUTME: Registers search_entries, which supports exact substring and semantic ranking.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/memento/internal/models"
	"github.com/2389-research/memento/internal/search"
)

func (s *Server) registerSearchTools() {
	s.mcp.AddTool(&gomcp.Tool{
		Name:        "search_entries",
		Description: "Search journal entries. Exact mode matches a case-insensitive substring. Semantic mode with semantic=true ranks entries by meaning; without semantic=true it lists everything. Falls back to the unranked list if embeddings are unavailable.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "Search query text"},
				"mode": {"type": "string", "enum": ["exact", "semantic"], "description": "Search mode (default: exact)"},
				"semantic": {"type": "boolean", "description": "Enable embedding-based ranking in semantic mode"},
				"categories": {"type": "string", "description": "Comma-separated tags; entries matching any tag are searched"},
				"limit": {"type": "number", "description": "Maximum number of results (default: 20)"}
			},
			"required": ["query"]
		}`),
	}, s.handleSearchEntries)
}

func (s *Server) handleSearchEntries(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Query      string `json:"query"`
		Mode       string `json:"mode"`
		Semantic   bool   `json:"semantic"`
		Categories string `json:"categories"`
		Limit      int    `json:"limit"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	if strings.TrimSpace(args.Query) == "" {
		return toolError("query is required"), nil
	}
	mode, err := search.ParseMode(args.Mode)
	if err != nil {
		return toolError("%v", err), nil
	}
	if args.Limit <= 0 {
		args.Limit = defaultListLimit
	}

	res, err := s.dispatcher.Search(ctx, search.Request{
		Query:      args.Query,
		Mode:       mode,
		Semantic:   args.Semantic,
		Categories: models.ParseCategories(args.Categories),
	})
	if err != nil {
		return toolError("search failed: %v", err), nil
	}

	var sb strings.Builder
	if res.Degraded {
		sb.WriteString("Semantic search is unavailable; showing entries without ranking.\n")
	}
	if len(res.Entries) == 0 {
		sb.WriteString(fmt.Sprintf("No entries found matching %q.", args.Query))
		return &gomcp.CallToolResult{
			Content: []gomcp.Content{&gomcp.TextContent{Text: sb.String()}},
		}, nil
	}

	var scores map[int64]float64
	if res.Ranking != nil {
		scores = make(map[int64]float64, len(res.Ranking.Results))
		for _, r := range res.Ranking.Results {
			scores[r.Entry.ID] = r.Score
		}
	}
	sb.WriteString(fmt.Sprintf("Found %d entries (%s):\n", len(res.Entries), res.Strategy))
	sb.WriteString(formatEntries(res.Entries, args.Limit, scores))

	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: sb.String()}},
	}, nil
}
