package storage

import (
	"context"
	"time"

	"github.com/paperstack/paperindex/pkg/types"
)

// Store defines the persistence interface for papers, chunks, and their
// embeddings. It doubles as the vector store collaborator for the retriever:
// SearchSimilar runs a cosine similarity query scoped to one project.
type Store interface {
	// Paper operations
	UpsertPaper(ctx context.Context, paper *Paper) error
	GetPaper(ctx context.Context, paperID string) (*Paper, error)
	ListPapers(ctx context.Context, projectID string) ([]*Paper, error)
	DeletePaper(ctx context.Context, paperID string) error

	// Chunk operations
	UpsertChunks(ctx context.Context, projectID string, chunks []types.Chunk) error
	GetChunk(ctx context.Context, chunkID string) (*ChunkRow, error)
	GetChunksByIDs(ctx context.Context, chunkIDs []string) ([]*ChunkRow, error)
	DeleteChunksByPaper(ctx context.Context, paperID string) error

	// Embedding operations
	UpsertEmbeddings(ctx context.Context, embeddings []*Embedding) error
	GetEmbedding(ctx context.Context, chunkID string) (*Embedding, error)

	// Search operations
	SearchSimilar(ctx context.Context, projectID string, queryVector []float32, limit int, filters *SearchFilters) ([]SimilarityHit, error)

	// Status operations
	GetStatus(ctx context.Context, projectID string) (*ProjectStatus, error)

	Close() error
}

// Paper represents one indexed document.
type Paper struct {
	ID          string
	ProjectID   string
	Title       string
	TotalChunks int
	IndexedAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ChunkRow is a persisted chunk together with its storage metadata.
type ChunkRow struct {
	types.Chunk
	ProjectID string
	CreatedAt time.Time
}

// Embedding represents a stored vector for one chunk.
type Embedding struct {
	ChunkID   string
	Vector    []byte // serialized float32 array, little-endian
	Dimension int
	Provider  string
	Model     string
	CreatedAt time.Time
}

// SearchFilters narrows a similarity query.
type SearchFilters struct {
	Kinds    []types.SectionKind // restrict to these section kinds
	MinScore float64             // similarity floor, 0 disables
}

// SimilarityHit is one row returned by a similarity query.
type SimilarityHit struct {
	Chunk ChunkRow
	Score float64
}

// ProjectStatus contains statistics about an indexed project.
type ProjectStatus struct {
	PapersCount     int
	ChunksCount     int
	EmbeddingsCount int
	IndexSizeMB     float64
	Health          HealthStatus
}

// HealthStatus reports index health checks.
type HealthStatus struct {
	DatabaseAccessible  bool
	EmbeddingsAvailable bool
}
