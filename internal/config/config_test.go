package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.ProjectID)
	assert.Equal(t, 400, cfg.Chunking.TargetTokens)
	assert.Equal(t, 50, cfg.Chunking.OverlapTokens)
	assert.Equal(t, 100, cfg.Chunking.MinTokens)
	assert.Equal(t, "char", cfg.Chunking.TokenCounter)
	assert.Equal(t, 10, cfg.Retrieval.TopK)
	assert.NotEmpty(t, cfg.Storage.DatabasePath)
}

func TestLoadAppliesFileValues(t *testing.T) {
	path := writeConfig(t, `
project_id: nlp-survey
storage:
  database_path: /tmp/papers.db
embedder:
  provider: jina
chunking:
  target_tokens: 512
  token_counter: word
retrieval:
  top_k: 5
  min_score: 0.3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "nlp-survey", cfg.ProjectID)
	assert.Equal(t, "/tmp/papers.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "jina", cfg.Embedder.Provider)
	assert.Equal(t, 512, cfg.Chunking.TargetTokens)
	assert.Equal(t, "word", cfg.Chunking.TokenCounter)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.InDelta(t, 0.3, cfg.Retrieval.MinScore, 1e-9)

	// Unspecified fields keep defaults
	assert.Equal(t, 50, cfg.Chunking.OverlapTokens)
	assert.Equal(t, 10000, cfg.Embedder.CacheSize)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "target below min",
			content: `
chunking:
  target_tokens: 50
  min_tokens: 100
`,
		},
		{
			name: "unknown token counter",
			content: `
chunking:
  token_counter: bpe
`,
		},
		{
			name: "min score out of range",
			content: `
retrieval:
  min_score: 1.5
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "chunking: [not: a: mapping"))
	assert.Error(t, err)
}
