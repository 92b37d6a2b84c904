package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/paperstack/paperindex/internal/indexer"
	"github.com/paperstack/paperindex/internal/retriever"
	"github.com/paperstack/paperindex/internal/router"
	"github.com/paperstack/paperindex/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams   = -32602 // Invalid method parameters
	ErrorCodeInternalError   = -32603 // Internal JSON-RPC error
	ErrorCodeIndexInProgress = -32001 // Another indexing operation is already running
	ErrorCodeNotIndexed      = -32002 // No embeddings available for retrieval
	ErrorCodeEmptyQuery      = -32003 // Query parameter is empty
)

// handleIndexPaper handles the index_paper tool invocation
func (s *Server) handleIndexPaper(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	paperID, _ := args["paper_id"].(string)
	if paperID == "" {
		return nil, paramError("paper_id", "missing or empty")
	}
	text, _ := args["text"].(string)
	if text == "" {
		return nil, paramError("text", "missing or empty")
	}
	title, _ := args["title"].(string)
	projectID := s.projectScope(args)

	stats, err := s.indexer.IndexPaper(ctx, indexer.IndexRequest{
		ProjectID: projectID,
		PaperID:   paperID,
		Title:     title,
		Text:      text,
	})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	sections := make(map[string]int, len(stats.SectionSummary))
	for kind, count := range stats.SectionSummary {
		sections[string(kind)] = count
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"indexed":         true,
		"paper_id":        stats.PaperID,
		"sections_found":  stats.SectionsFound,
		"chunks_created":  stats.ChunksCreated,
		"chunks_embedded": stats.ChunksEmbedded,
		"section_counts":  sections,
		"duration_ms":     stats.Duration.Milliseconds(),
	})), nil
}

// handleSearchPapers handles the search_papers tool invocation
func (s *Server) handleSearchPapers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, _ := args["query"].(string)
	if query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", nil)
	}

	topK := getIntDefault(args, "top_k", retriever.DefaultTopK)
	if topK < 1 || topK > 100 {
		return nil, paramError("top_k", "must be between 1 and 100")
	}

	kinds, err := parseKinds(args["kinds"])
	if err != nil {
		return nil, paramError("kinds", err.Error())
	}

	minScore, _ := args["min_score"].(float64)

	mode := types.ModeWithParents
	if raw := getStringDefault(args, "mode", string(types.ModeWithParents)); raw == string(types.ModeChunksOnly) {
		mode = types.ModeChunksOnly
	}

	results, err := s.retriever.Search(ctx, retriever.SearchRequest{
		Query:     query,
		ProjectID: s.projectScope(args),
		TopK:      topK,
		Mode:      mode,
		Kinds:     kinds,
		MinScore:  minScore,
	})
	if err != nil {
		return nil, searchError(err)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"query":   query,
		"count":   len(results),
		"results": formatResults(results),
	})), nil
}

// handleSearchBySection handles the search_by_section tool invocation
func (s *Server) handleSearchBySection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, _ := args["query"].(string)
	if query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", nil)
	}

	kinds, err := parseKinds(args["kinds"])
	if err != nil {
		return nil, paramError("kinds", err.Error())
	}
	if len(kinds) == 0 {
		kinds = router.SuggestSections(query)
	}

	topKPerSection := getIntDefault(args, "top_k_per_section", 3)
	if topKPerSection < 1 || topKPerSection > 20 {
		return nil, paramError("top_k_per_section", "must be between 1 and 20")
	}

	buckets, err := s.retriever.SearchBySection(ctx, query, s.projectScope(args), kinds, topKPerSection)
	if err != nil {
		return nil, searchError(err)
	}

	formatted := make(map[string]interface{}, len(buckets))
	for kind, results := range buckets {
		formatted[string(kind)] = formatResults(results)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"query":    query,
		"sections": formatted,
	})), nil
}

// handleGetContext handles the get_context tool invocation
func (s *Server) handleGetContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, _ := args["query"].(string)
	if query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", nil)
	}

	maxTokens := getIntDefault(args, "max_tokens", 2000)
	if maxTokens < 1 {
		return nil, paramError("max_tokens", "must be positive")
	}

	kinds, err := parseKinds(args["kinds"])
	if err != nil {
		return nil, paramError("kinds", err.Error())
	}

	text, rc, err := s.retriever.GetContext(ctx, query, s.projectScope(args), maxTokens, kinds)
	if err != nil {
		return nil, searchError(err)
	}

	sections := make([]string, len(rc.SectionsCovered))
	for i, kind := range rc.SectionsCovered {
		sections[i] = string(kind)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"context":          text,
		"total_tokens":     rc.TotalTokens,
		"chunks_included":  len(rc.Results),
		"sections_covered": sections,
		"papers_covered":   rc.PapersCovered,
	})), nil
}

// handleSuggestSections handles the suggest_sections tool invocation
func (s *Server) handleSuggestSections(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, _ := args["query"].(string)
	if query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", nil)
	}

	suggested := router.SuggestSections(query)
	kinds := make([]string, len(suggested))
	for i, kind := range suggested {
		kinds[i] = string(kind)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"query": query,
		"kinds": kinds,
	})), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	projectID := s.projectScope(args)

	status, err := s.store.GetStatus(ctx, projectID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"project_id": projectID,
		"statistics": map[string]interface{}{
			"papers_count":     status.PapersCount,
			"chunks_count":     status.ChunksCount,
			"embeddings_count": status.EmbeddingsCount,
			"index_size_mb":    fmt.Sprintf("%.2f", status.IndexSizeMB),
		},
		"health": map[string]interface{}{
			"database_accessible":  status.Health.DatabaseAccessible,
			"embeddings_available": status.Health.EmbeddingsAvailable,
		},
	})), nil
}

// Helper functions

// projectScope resolves the project_id argument, falling back to the
// server's configured project
func (s *Server) projectScope(args map[string]interface{}) string {
	if args != nil {
		if projectID, ok := args["project_id"].(string); ok && projectID != "" {
			return projectID
		}
	}
	return s.projectID
}

// parseKinds converts a JSON array argument into validated section kinds
func parseKinds(raw interface{}) ([]types.SectionKind, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("must be an array of strings")
	}

	kinds := make([]types.SectionKind, 0, len(items))
	for _, item := range items {
		str, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("must be an array of strings")
		}
		kind := types.SectionKind(str)
		if !kind.Valid() {
			return nil, fmt.Errorf("unknown section kind %q", str)
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

// formatResults converts retrieval results to a JSON-friendly shape
func formatResults(results []types.RetrievalResult) []map[string]interface{} {
	out := make([]map[string]interface{}, len(results))
	for i, r := range results {
		entry := map[string]interface{}{
			"chunk_id": r.ChunkID,
			"text":     r.Text,
			"kind":     string(r.Kind),
			"level":    r.Level,
			"score":    r.Score,
			"paper_id": r.PaperID,
		}
		if r.ParentID != "" {
			entry["parent_id"] = r.ParentID
		}
		if r.ParentText != "" {
			entry["parent_text"] = r.ParentText
		}
		out[i] = entry
	}
	return out
}

// searchError maps retrieval failures to MCP error codes
func searchError(err error) error {
	if errors.Is(err, retriever.ErrRetrievalUnavailable) {
		return newMCPError(ErrorCodeNotIndexed, "retrieval unavailable: no embedder configured", nil)
	}
	return newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
		"error": err.Error(),
	})
}

// paramError builds an invalid-parameter MCP error
func paramError(param, reason string) error {
	return newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("invalid %s parameter", param), map[string]interface{}{
		"param":  param,
		"reason": reason,
	})
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
