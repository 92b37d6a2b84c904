package retriever

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperstack/paperindex/internal/storage"
	"github.com/paperstack/paperindex/pkg/types"
)

// wordCounter counts one token per whitespace-separated word.
type wordCounter struct{}

func (wordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

func words(n int, marker string) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = marker
	}
	return strings.Join(parts, " ")
}

func TestGetContextPacksWithinBudget(t *testing.T) {
	store := &mockStore{hits: []storage.SimilarityHit{
		hit("c1", words(40, "alpha"), types.SectionMethodology, types.LevelChild, "", 0.9),
		hit("c2", words(40, "beta"), types.SectionResults, types.LevelChild, "", 0.8),
		hit("c3", words(40, "gamma"), types.SectionDiscussion, types.LevelChild, "", 0.7),
	}}
	engine := NewEngine(store, newLocalEmbedder(t), wordCounter{}, quietLogger())

	text, rc, err := engine.GetContext(context.Background(), "query", "proj", 100, nil)
	require.NoError(t, err)

	// 40 + 40 fit; the third 40-word block would exceed 100
	require.Len(t, rc.Results, 2)
	assert.Equal(t, 80, rc.TotalTokens)
	assert.Contains(t, text, "[methodology]")
	assert.Contains(t, text, "[results]")
	assert.NotContains(t, text, "gamma")
	assert.Contains(t, text, "---")
}

func TestGetContextFirstFitThenStop(t *testing.T) {
	store := &mockStore{hits: []storage.SimilarityHit{
		hit("c1", words(30, "alpha"), types.SectionResults, types.LevelChild, "", 0.9),
		hit("c2", words(90, "beta"), types.SectionResults, types.LevelChild, "", 0.8),
		hit("c3", words(10, "gamma"), types.SectionResults, types.LevelChild, "", 0.7),
	}}
	engine := NewEngine(store, newLocalEmbedder(t), wordCounter{}, quietLogger())

	_, rc, err := engine.GetContext(context.Background(), "query", "proj", 50, nil)
	require.NoError(t, err)

	// The 90-word candidate stops the walk; the later 10-word candidate
	// is excluded even though it would have fit
	require.Len(t, rc.Results, 1)
	assert.Equal(t, "c1", rc.Results[0].ChunkID)
	assert.Equal(t, 30, rc.TotalTokens)
}

func TestGetContextUsesParentTextCost(t *testing.T) {
	store := &mockStore{
		hits: []storage.SimilarityHit{
			hit("c1", words(10, "child"), types.SectionResults, types.LevelChild, "parent-1", 0.9),
		},
		chunks: map[string]*storage.ChunkRow{
			"parent-1": {Chunk: types.Chunk{
				ID: "parent-1", Text: words(60, "section"),
				Kind: types.SectionResults, Level: types.LevelParent,
			}},
		},
	}
	engine := NewEngine(store, newLocalEmbedder(t), wordCounter{}, quietLogger())

	// Budget fits the child but not the expanded parent
	text, rc, err := engine.GetContext(context.Background(), "query", "proj", 30, nil)
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Zero(t, rc.TotalTokens)

	// A larger budget includes the parent's full section text
	text, rc, err = engine.GetContext(context.Background(), "query", "proj", 100, nil)
	require.NoError(t, err)
	assert.Contains(t, text, "section")
	assert.Equal(t, 60, rc.TotalTokens)
}

func TestGetContextTracksCoverage(t *testing.T) {
	store := &mockStore{hits: []storage.SimilarityHit{
		hit("c1", words(10, "alpha"), types.SectionMethodology, types.LevelChild, "", 0.9),
		hit("c2", words(10, "beta"), types.SectionMethodology, types.LevelChild, "", 0.8),
		hit("c3", words(10, "gamma"), types.SectionResults, types.LevelChild, "", 0.7),
	}}
	engine := NewEngine(store, newLocalEmbedder(t), wordCounter{}, quietLogger())

	_, rc, err := engine.GetContext(context.Background(), "query", "proj", 100, nil)
	require.NoError(t, err)

	assert.ElementsMatch(t, []types.SectionKind{types.SectionMethodology, types.SectionResults}, rc.SectionsCovered)
	assert.Equal(t, []string{"paper-1"}, rc.PapersCovered)
}

func TestGetContextRejectsNonPositiveBudget(t *testing.T) {
	engine := NewEngine(&mockStore{}, newLocalEmbedder(t), wordCounter{}, quietLogger())

	_, _, err := engine.GetContext(context.Background(), "query", "proj", 0, nil)
	require.Error(t, err)
}
