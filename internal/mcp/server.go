package mcp

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/paperstack/paperindex/internal/chunker"
	"github.com/paperstack/paperindex/internal/config"
	"github.com/paperstack/paperindex/internal/embedder"
	"github.com/paperstack/paperindex/internal/indexer"
	"github.com/paperstack/paperindex/internal/retriever"
	"github.com/paperstack/paperindex/internal/storage"
	"github.com/paperstack/paperindex/internal/tokenizer"
)

const (
	// ServerName is the MCP server name
	ServerName = "paperindex-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp       *server.MCPServer
	store     storage.Store
	indexer   *indexer.Indexer
	retriever *retriever.Engine
	projectID string
	logger    *log.Logger
}

// NewServer wires storage, embedder, indexer, and retriever from config
func NewServer(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	// stdout carries the MCP protocol; everything else goes to stderr
	logger := log.New(os.Stderr, "paperindex: ", log.LstdFlags)

	if dir := filepath.Dir(cfg.Storage.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var emb embedder.Embedder
	if cfg.Embedder.Provider != "" {
		emb, err = embedder.New(embedder.Config{
			Provider:  cfg.Embedder.Provider,
			CacheSize: cfg.Embedder.CacheSize,
		})
	} else {
		emb, err = embedder.NewFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	var counter tokenizer.Counter = tokenizer.CharCounter{}
	if cfg.Chunking.TokenCounter == "word" {
		counter = tokenizer.WordCounter{}
	}

	c := chunker.New(counter, chunker.Options{
		TargetTokens:  cfg.Chunking.TargetTokens,
		OverlapTokens: cfg.Chunking.OverlapTokens,
		MinTokens:     cfg.Chunking.MinTokens,
	})

	s := &Server{
		mcp:       server.NewMCPServer(ServerName, ServerVersion),
		store:     store,
		indexer:   indexer.New(c, emb, store, logger),
		retriever: retriever.NewEngine(store, emb, counter, logger),
		projectID: cfg.ProjectID,
		logger:    logger,
	}

	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.store.Close() }()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(indexPaperTool(), s.handleIndexPaper)
	s.mcp.AddTool(searchPapersTool(), s.handleSearchPapers)
	s.mcp.AddTool(searchBySectionTool(), s.handleSearchBySection)
	s.mcp.AddTool(getContextTool(), s.handleGetContext)
	s.mcp.AddTool(suggestSectionsTool(), s.handleSuggestSections)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
