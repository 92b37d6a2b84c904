package retriever

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/paperstack/paperindex/internal/embedder"
	"github.com/paperstack/paperindex/internal/storage"
	"github.com/paperstack/paperindex/internal/tokenizer"
	"github.com/paperstack/paperindex/pkg/types"
)

// Common errors
var (
	ErrRetrievalUnavailable = errors.New("retrieval unavailable: no embedder configured")
	ErrEmptyQuery           = errors.New("query cannot be empty")
)

const (
	// DefaultTopK is used when a request does not specify a result limit
	DefaultTopK = 10

	// overfetchFactor leaves room for deduplication to discard hits
	overfetchFactor = 2

	// maxConcurrentSectionSearches bounds the fan-out in SearchBySection
	maxConcurrentSectionSearches = 4
)

// SearchRequest contains parameters for a retrieval operation
type SearchRequest struct {
	Query     string
	ProjectID string
	TopK      int                 // Defaults to DefaultTopK
	Mode      types.RetrievalMode // Defaults to ModeWithParents
	Kinds     []types.SectionKind // Optional section filter
	MinScore  float64             // Similarity floor, 0 disables
}

// Engine coordinates query embedding, similarity search, ranking,
// deduplication, and parent expansion.
type Engine struct {
	store    storage.Store
	embedder embedder.Embedder
	counter  tokenizer.Counter
	logger   *log.Logger
}

// NewEngine creates a retrieval engine. The embedder may be nil, in which
// case every search fails fast with ErrRetrievalUnavailable.
func NewEngine(store storage.Store, emb embedder.Embedder, counter tokenizer.Counter, logger *log.Logger) *Engine {
	if counter == nil {
		counter = tokenizer.CharCounter{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		store:    store,
		embedder: emb,
		counter:  counter,
		logger:   logger,
	}
}

// Search embeds the query, runs a similarity search scoped to the
// project, ranks and deduplicates the hits, and returns at most TopK
// results. With ModeWithParents (the default), child results carry their
// parent's full section text when the parent fetch succeeds.
func (e *Engine) Search(ctx context.Context, req SearchRequest) ([]types.RetrievalResult, error) {
	if e.embedder == nil {
		return nil, ErrRetrievalUnavailable
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}

	topK := req.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	mode := req.Mode
	if mode == "" {
		mode = types.ModeWithParents
	}

	for _, kind := range req.Kinds {
		if !kind.Valid() {
			return nil, fmt.Errorf("%w: %q", types.ErrInvalidSectionKind, kind)
		}
	}

	queryEmb, err := e.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
		Text:    req.Query,
		Purpose: embedder.PurposeQuery,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var filters *storage.SearchFilters
	if len(req.Kinds) > 0 || req.MinScore > 0 {
		filters = &storage.SearchFilters{Kinds: req.Kinds, MinScore: req.MinScore}
	}

	// Overfetch so deduplication can discard near-duplicates without
	// shrinking the final result set
	hits, err := e.store.SearchSimilar(ctx, req.ProjectID, queryEmb.Vector, topK*overfetchFactor, filters)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	if len(hits) == 0 {
		return []types.RetrievalResult{}, nil
	}

	results := make([]types.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, types.RetrievalResult{
			ChunkID:       hit.Chunk.ID,
			Text:          hit.Chunk.Text,
			Kind:          hit.Chunk.Kind,
			Level:         hit.Chunk.Level,
			Score:         hit.Score,
			PaperID:       hit.Chunk.PaperID,
			ParentID:      hit.Chunk.ParentID,
			TokenCount:    hit.Chunk.TokenCount,
			SequenceOrder: hit.Chunk.SequenceOrder,
		})
	}

	rankResults(results)

	if mode == types.ModeWithParents {
		e.expandParents(ctx, results)
	}

	return dedupeResults(results, topK), nil
}

// rankResults orders by score descending; among equal scores, child
// chunks come before parents because they are more precise matches.
func rankResults(results []types.RetrievalResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Level > results[j].Level
	})
}

// expandParents batch-fetches the distinct parents of child results and
// attaches their text. Fetch failure is non-fatal: the results keep their
// child text and the error is logged.
func (e *Engine) expandParents(ctx context.Context, results []types.RetrievalResult) {
	seen := make(map[string]bool)
	var parentIDs []string
	for _, r := range results {
		if r.Level == types.LevelChild && r.ParentID != "" && !seen[r.ParentID] {
			seen[r.ParentID] = true
			parentIDs = append(parentIDs, r.ParentID)
		}
	}
	if len(parentIDs) == 0 {
		return
	}

	parents, err := e.store.GetChunksByIDs(ctx, parentIDs)
	if err != nil {
		e.logger.Printf("parent expansion failed, returning child text only: %v", err)
		return
	}

	parentText := make(map[string]string, len(parents))
	for _, p := range parents {
		parentText[p.ID] = p.Text
	}

	for i := range results {
		if text, ok := parentText[results[i].ParentID]; ok {
			results[i].ParentText = text
		}
	}
}

// dedupeResults walks ranked results keeping the first hit per dedup key
// and stops once topK survivors are collected.
func dedupeResults(results []types.RetrievalResult, topK int) []types.RetrievalResult {
	seen := make(map[string]bool, len(results))
	deduped := make([]types.RetrievalResult, 0, topK)
	for _, r := range results {
		key := r.DedupKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, r)
		if len(deduped) == topK {
			break
		}
	}
	return deduped
}

// SearchBySection fans out one independent search per requested kind,
// executed concurrently, and returns a map from kind to its own ranked
// result list. Buckets never cross-contaminate: each search is filtered
// to exactly one kind. Any failed search fails the whole call.
func (e *Engine) SearchBySection(ctx context.Context, query, projectID string, kinds []types.SectionKind, topKPerSection int) (map[types.SectionKind][]types.RetrievalResult, error) {
	if e.embedder == nil {
		return nil, ErrRetrievalUnavailable
	}
	if len(kinds) == 0 {
		return map[types.SectionKind][]types.RetrievalResult{}, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSectionSearches)

	var mu sync.Mutex
	buckets := make(map[types.SectionKind][]types.RetrievalResult, len(kinds))

	for _, kind := range kinds {
		g.Go(func() error {
			results, err := e.Search(gctx, SearchRequest{
				Query:     query,
				ProjectID: projectID,
				TopK:      topKPerSection,
				Kinds:     []types.SectionKind{kind},
			})
			if err != nil {
				return fmt.Errorf("search for section %s: %w", kind, err)
			}
			mu.Lock()
			buckets[kind] = results
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return buckets, nil
}
