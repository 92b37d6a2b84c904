package indexer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/paperstack/paperindex/internal/chunker"
	"github.com/paperstack/paperindex/internal/embedder"
	"github.com/paperstack/paperindex/internal/storage"
	"github.com/paperstack/paperindex/pkg/types"
)

var (
	// ErrEmptyDocument is returned when a paper has no indexable text
	ErrEmptyDocument = errors.New("document contains no text")
	// ErrIndexInProgress is returned when an index run is already active
	ErrIndexInProgress = errors.New("indexing already in progress")
)

// Indexer coordinates the pipeline: segment -> embed -> store
type Indexer struct {
	chunker  *chunker.Chunker
	embedder embedder.Embedder
	store    storage.Store
	logger   *log.Logger

	workers int
	lock    IndexLock
}

// Config contains configuration for the indexer
type Config struct {
	Workers int // Concurrent papers per batch run (default: runtime.NumCPU())
}

// IndexRequest describes one paper to index
type IndexRequest struct {
	ProjectID string
	PaperID   string
	Title     string
	Text      string
}

// PaperStats reports the outcome of indexing one paper
type PaperStats struct {
	PaperID         string
	SectionsFound   int
	ChunksCreated   int
	ChunksEmbedded  int
	SectionSummary  map[types.SectionKind]int
	Duration        time.Duration
}

// BatchStats aggregates a multi-paper run
type BatchStats struct {
	PapersIndexed int32
	PapersFailed  int32
	TotalChunks   int32
	Duration      time.Duration
	Errors        []string
}

// New creates a new Indexer
func New(c *chunker.Chunker, emb embedder.Embedder, store storage.Store, logger *log.Logger) *Indexer {
	if logger == nil {
		logger = log.Default()
	}
	return &Indexer{
		chunker:  c,
		embedder: emb,
		store:    store,
		logger:   logger,
		workers:  runtime.NumCPU(),
	}
}

// IndexPaper segments one paper, embeds its chunks, and persists
// everything. Chunk IDs are content-derived, so indexing the same text
// twice writes the same rows; previous chunks for the paper are removed
// first so edits do not leave stale rows behind.
func (idx *Indexer) IndexPaper(ctx context.Context, req IndexRequest) (*PaperStats, error) {
	start := time.Now()

	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("paper %s: %w", req.PaperID, ErrEmptyDocument)
	}
	if req.PaperID == "" {
		return nil, fmt.Errorf("paper id is required")
	}

	seg := idx.chunker.SegmentDocument(req.Text, req.PaperID)
	if len(seg.Chunks) == 0 {
		return nil, fmt.Errorf("paper %s: %w", req.PaperID, ErrEmptyDocument)
	}

	// Drop previous rows so removed sections don't linger
	if err := idx.store.DeleteChunksByPaper(ctx, req.PaperID); err != nil {
		return nil, fmt.Errorf("failed to clear previous chunks: %w", err)
	}

	if err := idx.store.UpsertPaper(ctx, &storage.Paper{
		ID:          req.PaperID,
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		TotalChunks: len(seg.Chunks),
		IndexedAt:   time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("failed to store paper: %w", err)
	}

	if err := idx.store.UpsertChunks(ctx, req.ProjectID, seg.Chunks); err != nil {
		return nil, fmt.Errorf("failed to store chunks: %w", err)
	}

	embedded, err := idx.embedChunks(ctx, seg.Chunks)
	if err != nil {
		return nil, err
	}

	return &PaperStats{
		PaperID:         req.PaperID,
		SectionsFound:   len(seg.Sections),
		ChunksCreated:   len(seg.Chunks),
		ChunksEmbedded:  embedded,
		SectionSummary: seg.Summary,
		Duration:        time.Since(start),
	}, nil
}

// embedChunks generates embeddings in provider-sized batches and
// persists them. Returns the number of chunks embedded.
func (idx *Indexer) embedChunks(ctx context.Context, chunks []types.Chunk) (int, error) {
	if idx.embedder == nil {
		// Indexing without an embedder is allowed; retrieval will report
		// unavailable until embeddings exist.
		idx.logger.Printf("no embedder configured, skipping embedding generation")
		return 0, nil
	}

	embedded := 0
	for startIdx := 0; startIdx < len(chunks); startIdx += embedder.DefaultBatchSize {
		end := startIdx + embedder.DefaultBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[startIdx:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		resp, err := idx.embedder.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{
			Texts:   texts,
			Purpose: embedder.PurposeIndex,
		})
		if err != nil {
			return embedded, fmt.Errorf("failed to embed chunks %d-%d: %w", startIdx, end-1, err)
		}
		if len(resp.Embeddings) != len(batch) {
			return embedded, fmt.Errorf("embedder returned %d vectors for %d chunks", len(resp.Embeddings), len(batch))
		}

		rows := make([]*storage.Embedding, len(batch))
		for i, emb := range resp.Embeddings {
			rows[i] = &storage.Embedding{
				ChunkID:   batch[i].ID,
				Vector:    storage.SerializeVector(emb.Vector),
				Dimension: emb.Dimension,
				Provider:  resp.Provider,
				Model:     resp.Model,
			}
		}
		if err := idx.store.UpsertEmbeddings(ctx, rows); err != nil {
			return embedded, fmt.Errorf("failed to store embeddings: %w", err)
		}
		embedded += len(batch)
	}

	return embedded, nil
}

// IndexPapers indexes a batch of papers concurrently with a bounded
// worker pool. A failed paper is recorded and does not stop the batch.
// Only one batch run may be active at a time.
func (idx *Indexer) IndexPapers(ctx context.Context, reqs []IndexRequest, config *Config) (*BatchStats, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrIndexInProgress
	}
	defer idx.lock.Release()

	workers := idx.workers
	if config != nil && config.Workers > 0 {
		workers = config.Workers
	}

	start := time.Now()
	stats := &BatchStats{}
	errCh := make(chan string, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, req := range reqs {
		g.Go(func() error {
			paperStats, err := idx.IndexPaper(gctx, req)
			if err != nil {
				atomic.AddInt32(&stats.PapersFailed, 1)
				errCh <- fmt.Sprintf("paper %s: %v", req.PaperID, err)
				idx.logger.Printf("indexing failed for paper %s: %v", req.PaperID, err)
				return nil
			}
			atomic.AddInt32(&stats.PapersIndexed, 1)
			atomic.AddInt32(&stats.TotalChunks, int32(paperStats.ChunksCreated))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(errCh)
	for msg := range errCh {
		stats.Errors = append(stats.Errors, msg)
	}

	stats.Duration = time.Since(start)
	return stats, nil
}
