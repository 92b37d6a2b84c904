package retriever

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperstack/paperindex/internal/embedder"
	"github.com/paperstack/paperindex/internal/storage"
	"github.com/paperstack/paperindex/pkg/types"
)

// mockStore implements storage.Store with canned similarity hits.
type mockStore struct {
	hits         []storage.SimilarityHit
	chunks       map[string]*storage.ChunkRow
	searchErr    error
	getByIDsErr  error
	lastFilters  *storage.SearchFilters
	lastLimit    int
	searchCalls  int
	getByIDsArgs []string
}

func (m *mockStore) UpsertPaper(ctx context.Context, paper *storage.Paper) error { return nil }
func (m *mockStore) GetPaper(ctx context.Context, id string) (*storage.Paper, error) {
	return nil, storage.ErrNotFound
}
func (m *mockStore) ListPapers(ctx context.Context, projectID string) ([]*storage.Paper, error) {
	return nil, nil
}
func (m *mockStore) DeletePaper(ctx context.Context, id string) error { return nil }
func (m *mockStore) UpsertChunks(ctx context.Context, projectID string, chunks []types.Chunk) error {
	return nil
}
func (m *mockStore) GetChunk(ctx context.Context, id string) (*storage.ChunkRow, error) {
	if row, ok := m.chunks[id]; ok {
		return row, nil
	}
	return nil, storage.ErrNotFound
}
func (m *mockStore) GetChunksByIDs(ctx context.Context, ids []string) ([]*storage.ChunkRow, error) {
	m.getByIDsArgs = ids
	if m.getByIDsErr != nil {
		return nil, m.getByIDsErr
	}
	var rows []*storage.ChunkRow
	for _, id := range ids {
		if row, ok := m.chunks[id]; ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}
func (m *mockStore) DeleteChunksByPaper(ctx context.Context, paperID string) error { return nil }
func (m *mockStore) UpsertEmbeddings(ctx context.Context, embs []*storage.Embedding) error {
	return nil
}
func (m *mockStore) GetEmbedding(ctx context.Context, chunkID string) (*storage.Embedding, error) {
	return nil, storage.ErrNotFound
}
func (m *mockStore) SearchSimilar(ctx context.Context, projectID string, vec []float32, limit int, filters *storage.SearchFilters) ([]storage.SimilarityHit, error) {
	m.searchCalls++
	m.lastLimit = limit
	m.lastFilters = filters
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	hits := m.hits
	if filters != nil && len(filters.Kinds) > 0 {
		var filtered []storage.SimilarityHit
		for _, h := range hits {
			for _, k := range filters.Kinds {
				if h.Chunk.Kind == k {
					filtered = append(filtered, h)
					break
				}
			}
		}
		hits = filtered
	}
	if filters != nil && filters.MinScore > 0 {
		var filtered []storage.SimilarityHit
		for _, h := range hits {
			if h.Score >= filters.MinScore {
				filtered = append(filtered, h)
			}
		}
		hits = filtered
	}
	if limit < len(hits) {
		hits = hits[:limit]
	}
	return hits, nil
}
func (m *mockStore) GetStatus(ctx context.Context, projectID string) (*storage.ProjectStatus, error) {
	return &storage.ProjectStatus{}, nil
}
func (m *mockStore) Close() error { return nil }

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newLocalEmbedder(t *testing.T) embedder.Embedder {
	t.Helper()
	emb, err := embedder.NewLocalProvider(nil)
	require.NoError(t, err)
	return emb
}

func hit(id, text string, kind types.SectionKind, level int, parentID string, score float64) storage.SimilarityHit {
	return storage.SimilarityHit{
		Chunk: storage.ChunkRow{
			Chunk: types.Chunk{
				ID:       id,
				PaperID:  "paper-1",
				Text:     text,
				Kind:     kind,
				Level:    level,
				ParentID: parentID,
			},
		},
		Score: score,
	}
}

func TestSearchRequiresEmbedder(t *testing.T) {
	engine := NewEngine(&mockStore{}, nil, nil, quietLogger())

	_, err := engine.Search(context.Background(), SearchRequest{Query: "q", ProjectID: "p"})
	assert.ErrorIs(t, err, ErrRetrievalUnavailable)

	_, err = engine.SearchBySection(context.Background(), "q", "p", []types.SectionKind{types.SectionResults}, 2)
	assert.ErrorIs(t, err, ErrRetrievalUnavailable)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	engine := NewEngine(&mockStore{}, newLocalEmbedder(t), nil, quietLogger())

	_, err := engine.Search(context.Background(), SearchRequest{Query: "   ", ProjectID: "p"})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSearchRejectsInvalidKind(t *testing.T) {
	engine := NewEngine(&mockStore{}, newLocalEmbedder(t), nil, quietLogger())

	_, err := engine.Search(context.Background(), SearchRequest{
		Query: "q", ProjectID: "p",
		Kinds: []types.SectionKind{"paragraph"},
	})
	assert.ErrorIs(t, err, types.ErrInvalidSectionKind)
}

func TestSearchNoMatchesReturnsEmpty(t *testing.T) {
	store := &mockStore{hits: []storage.SimilarityHit{
		hit("c1", "some text", types.SectionResults, types.LevelChild, "p1", 0.42),
	}}
	engine := NewEngine(store, newLocalEmbedder(t), nil, quietLogger())

	results, err := engine.Search(context.Background(), SearchRequest{
		Query: "anything", ProjectID: "proj", TopK: 5, MinScore: 0.99,
	})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NotNil(t, results)
}

func TestSearchOverfetchesForDedup(t *testing.T) {
	store := &mockStore{}
	engine := NewEngine(store, newLocalEmbedder(t), nil, quietLogger())

	_, err := engine.Search(context.Background(), SearchRequest{Query: "q", ProjectID: "p", TopK: 5})
	require.NoError(t, err)
	assert.Equal(t, 10, store.lastLimit)
}

func TestSearchDeduplicatesByTextPrefix(t *testing.T) {
	dupText := "Transformers improve NLP tasks significantly across benchmarks and domains, with attention providing interpretability"
	store := &mockStore{hits: []storage.SimilarityHit{
		hit("c1", dupText, types.SectionResults, types.LevelChild, "", 0.91),
		hit("c2", strings.ToUpper(dupText), types.SectionDiscussion, types.LevelChild, "", 0.77),
		hit("c3", "A different result about datasets", types.SectionMethodology, types.LevelChild, "", 0.60),
	}}
	engine := NewEngine(store, newLocalEmbedder(t), nil, quietLogger())

	results, err := engine.Search(context.Background(), SearchRequest{
		Query: "transformers", ProjectID: "proj", TopK: 5, Mode: types.ModeChunksOnly,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "c1", results[0].ChunkID)
	assert.Equal(t, "c3", results[1].ChunkID)
}

func TestSearchTieBreakPrefersChildren(t *testing.T) {
	store := &mockStore{hits: []storage.SimilarityHit{
		hit("parent", "whole section text on evaluation", types.SectionResults, types.LevelParent, "", 0.8),
		hit("child", "child paragraph text on evaluation metrics", types.SectionResults, types.LevelChild, "parent", 0.8),
	}}
	engine := NewEngine(store, newLocalEmbedder(t), nil, quietLogger())

	results, err := engine.Search(context.Background(), SearchRequest{
		Query: "evaluation", ProjectID: "proj", TopK: 5, Mode: types.ModeChunksOnly,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "child", results[0].ChunkID)
	assert.Equal(t, "parent", results[1].ChunkID)
}

func TestSearchCapsAtTopK(t *testing.T) {
	var hits []storage.SimilarityHit
	for i := 0; i < 8; i++ {
		hits = append(hits, hit(
			fmt.Sprintf("c%d", i),
			fmt.Sprintf("distinct result number %d with unique content", i),
			types.SectionResults, types.LevelChild, "", 0.9-float64(i)*0.05))
	}
	engine := NewEngine(&mockStore{hits: hits}, newLocalEmbedder(t), nil, quietLogger())

	results, err := engine.Search(context.Background(), SearchRequest{
		Query: "q", ProjectID: "proj", TopK: 3, Mode: types.ModeChunksOnly,
	})
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, "c0", results[0].ChunkID)
}

func TestSearchExpandsParents(t *testing.T) {
	store := &mockStore{
		hits: []storage.SimilarityHit{
			hit("c1", "child text about ablation studies", types.SectionResults, types.LevelChild, "parent-1", 0.9),
		},
		chunks: map[string]*storage.ChunkRow{
			"parent-1": {Chunk: types.Chunk{
				ID:    "parent-1",
				Text:  "full section text including ablation studies and more",
				Kind:  types.SectionResults,
				Level: types.LevelParent,
			}},
		},
	}
	engine := NewEngine(store, newLocalEmbedder(t), nil, quietLogger())

	results, err := engine.Search(context.Background(), SearchRequest{
		Query: "ablation", ProjectID: "proj", TopK: 5,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "full section text including ablation studies and more", results[0].ParentText)
	assert.Equal(t, []string{"parent-1"}, store.getByIDsArgs)
}

func TestSearchParentFetchFailureNonFatal(t *testing.T) {
	store := &mockStore{
		hits: []storage.SimilarityHit{
			hit("c1", "child text about datasets", types.SectionMethodology, types.LevelChild, "parent-1", 0.9),
		},
		getByIDsErr: errors.New("disk unhappy"),
	}
	engine := NewEngine(store, newLocalEmbedder(t), nil, quietLogger())

	results, err := engine.Search(context.Background(), SearchRequest{
		Query: "datasets", ProjectID: "proj", TopK: 5,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].ParentText)
	assert.Equal(t, "child text about datasets", results[0].Text)
}

func TestSearchChunksOnlySkipsParentFetch(t *testing.T) {
	store := &mockStore{
		hits: []storage.SimilarityHit{
			hit("c1", "child text", types.SectionResults, types.LevelChild, "parent-1", 0.9),
		},
	}
	engine := NewEngine(store, newLocalEmbedder(t), nil, quietLogger())

	results, err := engine.Search(context.Background(), SearchRequest{
		Query: "q", ProjectID: "proj", TopK: 5, Mode: types.ModeChunksOnly,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Nil(t, store.getByIDsArgs)
}

func TestSearchPropagatesStoreError(t *testing.T) {
	store := &mockStore{searchErr: errors.New("db locked")}
	engine := NewEngine(store, newLocalEmbedder(t), nil, quietLogger())

	_, err := engine.Search(context.Background(), SearchRequest{Query: "q", ProjectID: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "similarity search failed")
}

func TestSearchBySectionBuckets(t *testing.T) {
	store := &mockStore{hits: []storage.SimilarityHit{
		hit("m1", "we train on 8 GPUs with Adam", types.SectionMethodology, types.LevelChild, "", 0.9),
		hit("m2", "the dataset is split 80/10/10", types.SectionMethodology, types.LevelChild, "", 0.8),
		hit("m3", "hyperparameters were tuned on dev", types.SectionMethodology, types.LevelChild, "", 0.7),
		hit("r1", "accuracy improves by 4 points", types.SectionResults, types.LevelChild, "", 0.85),
	}}
	engine := NewEngine(store, newLocalEmbedder(t), nil, quietLogger())

	kinds := []types.SectionKind{types.SectionMethodology, types.SectionResults}
	buckets, err := engine.SearchBySection(context.Background(), "training setup", "proj", kinds, 2)
	require.NoError(t, err)

	require.Len(t, buckets, 2)
	assert.LessOrEqual(t, len(buckets[types.SectionMethodology]), 2)
	assert.LessOrEqual(t, len(buckets[types.SectionResults]), 2)

	for kind, results := range buckets {
		for _, r := range results {
			assert.Equal(t, kind, r.Kind, "bucket %s contains foreign kind", kind)
		}
	}
}

func TestSearchBySectionEmptyKinds(t *testing.T) {
	engine := NewEngine(&mockStore{}, newLocalEmbedder(t), nil, quietLogger())

	buckets, err := engine.SearchBySection(context.Background(), "q", "proj", nil, 2)
	require.NoError(t, err)
	assert.Empty(t, buckets)
}

func TestSearchBySectionPropagatesFailure(t *testing.T) {
	store := &mockStore{searchErr: errors.New("db locked")}
	engine := NewEngine(store, newLocalEmbedder(t), nil, quietLogger())

	_, err := engine.SearchBySection(context.Background(), "q", "proj",
		[]types.SectionKind{types.SectionResults, types.SectionDiscussion}, 2)
	require.Error(t, err)
}
