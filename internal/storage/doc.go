// Package storage provides SQLite-based persistence for indexed papers.
//
// The storage layer manages:
//   - Paper metadata
//   - Chunk rows (hierarchical, content-addressed)
//   - Vector embeddings
//   - Similarity search over embeddings
//
// # Database Schema
//
// Tables:
//   - papers: Paper metadata (title, chunk counts, index timestamps)
//   - chunks: Parent and child chunks keyed by content-derived IDs
//   - embeddings: Vector embeddings, one per chunk
//
// Chunk IDs are derived from chunk content, so re-indexing an unchanged
// paper upserts the same rows rather than accumulating duplicates.
// Deleting a paper cascades to its chunks and their embeddings.
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStore("~/.paperindex/project.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	err = store.UpsertChunks(ctx, projectID, chunks)
//	err = store.UpsertEmbeddings(ctx, embeddings)
//
//	hits, err := store.SearchSimilar(ctx, projectID, queryVector, 20, &storage.SearchFilters{
//	    Kinds:    []types.SectionKind{types.SectionMethodology},
//	    MinScore: 0.3,
//	})
//
// # Vector Operations
//
// Similarity search uses cosine similarity via the sqlite-vec extension
// (CGO build) or a pure Go implementation (purego build). Both paths rank
// by similarity descending and apply kind and minimum-score filters with
// bound parameters only.
//
// # Build Tags
//
// CGO Build (sqlite_vec tag):
//
//   - Uses github.com/mattn/go-sqlite3 driver
//
//   - Includes sqlite-vec extension for fast vector operations
//
//   - Requires C compiler
//
//     CGO_ENABLED=1 go build -tags "sqlite_vec"
//
// Pure Go Build (purego tag):
//
//   - Uses modernc.org/sqlite driver
//
//   - Pure Go vector operations (slower)
//
//   - No C compiler needed
//
//     CGO_ENABLED=0 go build -tags "purego"
package storage
