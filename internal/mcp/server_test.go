package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperstack/paperindex/internal/chunker"
	"github.com/paperstack/paperindex/internal/embedder"
	"github.com/paperstack/paperindex/internal/indexer"
	"github.com/paperstack/paperindex/internal/retriever"
	"github.com/paperstack/paperindex/internal/storage"
	"github.com/paperstack/paperindex/internal/tokenizer"
	"github.com/paperstack/paperindex/pkg/types"
)

const testPaper = `Abstract

We study retrieval over scientific papers and measure the effect of hierarchical chunking on answer quality across several benchmark collections.

Methods

Papers are segmented into sections and chunked with a four hundred token target. Each chunk is embedded with a dual encoder trained on scholarly text.

Results

Hierarchical retrieval improves recall at ten by four points over flat chunking while keeping latency within budget for interactive use.
`

func newTestServer(t *testing.T) *Server {
	t.Helper()

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	emb, err := embedder.NewLocalProvider(nil)
	require.NoError(t, err)

	counter := tokenizer.CharCounter{}
	c := chunker.New(counter, chunker.Options{TargetTokens: 400, OverlapTokens: 50, MinTokens: 1})
	logger := log.New(io.Discard, "", 0)

	return &Server{
		store:     store,
		indexer:   indexer.New(c, emb, store, logger),
		retriever: retriever.NewEngine(store, emb, counter, logger),
		projectID: "test-project",
		logger:    logger,
	}
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultJSON(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &payload))
	return payload
}

func indexTestPaper(t *testing.T, s *Server) {
	t.Helper()
	result, err := s.handleIndexPaper(context.Background(), callRequest(map[string]interface{}{
		"paper_id": "paper-1",
		"title":    "Hierarchical Retrieval Study",
		"text":     testPaper,
	}))
	require.NoError(t, err)
	payload := resultJSON(t, result)
	assert.Equal(t, true, payload["indexed"])
}

func TestHandleIndexPaper(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleIndexPaper(context.Background(), callRequest(map[string]interface{}{
		"paper_id": "paper-1",
		"title":    "Hierarchical Retrieval Study",
		"text":     testPaper,
	}))
	require.NoError(t, err)

	payload := resultJSON(t, result)
	assert.Equal(t, float64(3), payload["sections_found"])
	assert.Greater(t, payload["chunks_created"], float64(3))
	assert.Equal(t, payload["chunks_created"], payload["chunks_embedded"])
}

func TestHandleIndexPaperValidation(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleIndexPaper(context.Background(), callRequest(map[string]interface{}{
		"text": testPaper,
	}))
	require.Error(t, err)
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)

	_, err = s.handleIndexPaper(context.Background(), callRequest(map[string]interface{}{
		"paper_id": "paper-1",
	}))
	assert.Error(t, err)
}

func TestHandleSearchPapers(t *testing.T) {
	s := newTestServer(t)
	indexTestPaper(t, s)

	result, err := s.handleSearchPapers(context.Background(), callRequest(map[string]interface{}{
		"query": "hierarchical chunking recall",
		"top_k": float64(5),
	}))
	require.NoError(t, err)

	payload := resultJSON(t, result)
	assert.Greater(t, payload["count"], float64(0))

	results := payload["results"].([]interface{})
	first := results[0].(map[string]interface{})
	assert.NotEmpty(t, first["chunk_id"])
	assert.NotEmpty(t, first["text"])
	assert.NotEmpty(t, first["kind"])
}

func TestHandleSearchPapersValidation(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleSearchPapers(context.Background(), callRequest(map[string]interface{}{}))
	require.Error(t, err)

	_, err = s.handleSearchPapers(context.Background(), callRequest(map[string]interface{}{
		"query": "q", "top_k": float64(500),
	}))
	require.Error(t, err)

	_, err = s.handleSearchPapers(context.Background(), callRequest(map[string]interface{}{
		"query": "q", "kinds": []interface{}{"paragraph"},
	}))
	require.Error(t, err)
}

func TestHandleSearchBySection(t *testing.T) {
	s := newTestServer(t)
	indexTestPaper(t, s)

	result, err := s.handleSearchBySection(context.Background(), callRequest(map[string]interface{}{
		"query": "evaluation",
		"kinds": []interface{}{"methodology", "results"},
	}))
	require.NoError(t, err)

	payload := resultJSON(t, result)
	sections := payload["sections"].(map[string]interface{})
	assert.Len(t, sections, 2)
	assert.Contains(t, sections, "methodology")
	assert.Contains(t, sections, "results")
}

func TestHandleGetContext(t *testing.T) {
	s := newTestServer(t)
	indexTestPaper(t, s)

	result, err := s.handleGetContext(context.Background(), callRequest(map[string]interface{}{
		"query":      "chunking results",
		"max_tokens": float64(5000),
	}))
	require.NoError(t, err)

	payload := resultJSON(t, result)
	contextText := payload["context"].(string)
	assert.NotEmpty(t, contextText)
	assert.True(t, strings.Contains(contextText, "["), "context blocks are kind-tagged")
	assert.Greater(t, payload["total_tokens"], float64(0))
}

func TestHandleSuggestSections(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleSuggestSections(context.Background(), callRequest(map[string]interface{}{
		"query": "what dataset did they use",
	}))
	require.NoError(t, err)

	payload := resultJSON(t, result)
	kinds := payload["kinds"].([]interface{})
	assert.Contains(t, kinds, "methodology")
}

func TestHandleGetStatus(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleGetStatus(context.Background(), callRequest(nil))
	require.NoError(t, err)
	payload := resultJSON(t, result)
	assert.Equal(t, "test-project", payload["project_id"])

	indexTestPaper(t, s)

	result, err = s.handleGetStatus(context.Background(), callRequest(map[string]interface{}{}))
	require.NoError(t, err)
	payload = resultJSON(t, result)
	statistics := payload["statistics"].(map[string]interface{})
	assert.Equal(t, float64(1), statistics["papers_count"])
	health := payload["health"].(map[string]interface{})
	assert.Equal(t, true, health["embeddings_available"])
}

func TestParseKinds(t *testing.T) {
	kinds, err := parseKinds([]interface{}{"methodology", "results"})
	require.NoError(t, err)
	assert.Equal(t, []types.SectionKind{types.SectionMethodology, types.SectionResults}, kinds)

	kinds, err = parseKinds(nil)
	require.NoError(t, err)
	assert.Nil(t, kinds)

	_, err = parseKinds("methodology")
	assert.Error(t, err)

	_, err = parseKinds([]interface{}{42})
	assert.Error(t, err)
}

func TestSearchErrorUnwrapsSentinel(t *testing.T) {
	// SearchBySection wraps inner failures, so the unavailable sentinel must
	// still map to the not-indexed code through wrapping.
	wrapped := fmt.Errorf("searching methodology sections: %w", retriever.ErrRetrievalUnavailable)

	var mcpErr *MCPError
	require.ErrorAs(t, searchError(wrapped), &mcpErr)
	assert.Equal(t, ErrorCodeNotIndexed, mcpErr.Code)

	var internal *MCPError
	require.ErrorAs(t, searchError(errors.New("disk on fire")), &internal)
	assert.Equal(t, ErrorCodeInternalError, internal.Code)
}
