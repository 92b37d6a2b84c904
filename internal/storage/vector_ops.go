package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/paperstack/paperindex/pkg/types"
)

// SearchSimilar performs vector similarity search over a project's chunks.
// Kind and minimum-score filters run at the database layer via bound
// parameters; kind values are never interpolated into SQL text.
func (s *SQLiteStore) SearchSimilar(ctx context.Context, projectID string, queryVector []float32, limit int, filters *SearchFilters) ([]SimilarityHit, error) {
	if len(queryVector) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}
	if limit <= 0 {
		return []SimilarityHit{}, nil
	}

	// Use optimized SQL-based search when sqlite-vec is available
	if VectorExtensionAvailable {
		return s.searchSimilarOptimized(ctx, projectID, queryVector, limit, filters)
	}
	// Fall back to Go-based computation for purego builds
	return s.searchSimilarFallback(ctx, projectID, queryVector, limit, filters)
}

// searchSimilarOptimized uses sqlite-vec for SQL-based similarity search.
// vec_distance_cosine returns distance (lower is better); we convert to
// similarity (1 - distance) so higher is always better in the API.
func (s *SQLiteStore) searchSimilarOptimized(ctx context.Context, projectID string, queryVector []float32, limit int, filters *SearchFilters) ([]SimilarityHit, error) {
	queryVectorBlob := SerializeVector(queryVector)

	query := `
		SELECT ` + prefixedChunkColumns + `,
			1.0 - vec_distance_cosine(e.vector, ?) as similarity
		FROM chunks c
		INNER JOIN embeddings e ON c.id = e.chunk_id
		WHERE c.project_id = ?
	`
	args := []any{queryVectorBlob, projectID}

	query, args = applyKindFilter(query, args, filters)

	if filters != nil && filters.MinScore > 0 {
		query += " AND (1.0 - vec_distance_cosine(e.vector, ?)) >= ?"
		args = append(args, queryVectorBlob, filters.MinScore)
	}

	query += " ORDER BY similarity DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute vector search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	hits := make([]SimilarityHit, 0, limit)
	for rows.Next() {
		hit, err := scanSimilarityHit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// searchSimilarFallback loads candidate vectors and computes cosine
// similarity in Go. Used when sqlite-vec is not available (purego builds).
func (s *SQLiteStore) searchSimilarFallback(ctx context.Context, projectID string, queryVector []float32, limit int, filters *SearchFilters) ([]SimilarityHit, error) {
	query := `
		SELECT ` + prefixedChunkColumns + `, e.vector
		FROM chunks c
		INNER JOIN embeddings e ON c.id = e.chunk_id
		WHERE c.project_id = ?
	`
	args := []any{projectID}

	query, args = applyKindFilter(query, args, filters)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	candidates := make([]SimilarityHit, 0, 256)
	for rows.Next() {
		row := &ChunkRow{}
		var parentID sql.NullString
		var kind string
		var vectorBlob []byte
		if err := rows.Scan(&row.ID, &row.PaperID, &row.ProjectID, &parentID,
			&kind, &row.Level, &row.SequenceOrder, &row.TokenCount, &row.Text,
			&row.CreatedAt, &vectorBlob); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		row.Kind = types.SectionKind(kind)
		if parentID.Valid {
			row.ParentID = parentID.String
		}

		vector := DeserializeVector(vectorBlob)
		if len(vector) != len(queryVector) {
			continue // dimension mismatch, skip
		}

		score := CosineSimilarity(queryVector, vector)
		if filters != nil && filters.MinScore > 0 && score < filters.MinScore {
			continue
		}

		candidates = append(candidates, SimilarityHit{Chunk: *row, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if limit > len(candidates) {
		limit = len(candidates)
	}
	return candidates[:limit], nil
}

const prefixedChunkColumns = "c.id, c.paper_id, c.project_id, c.parent_id, c.kind, c.level, c.sequence_order, c.token_count, c.content, c.created_at"

func scanSimilarityHit(rows *sql.Rows) (SimilarityHit, error) {
	hit := SimilarityHit{}
	var parentID sql.NullString
	var kind string
	err := rows.Scan(&hit.Chunk.ID, &hit.Chunk.PaperID, &hit.Chunk.ProjectID, &parentID,
		&kind, &hit.Chunk.Level, &hit.Chunk.SequenceOrder, &hit.Chunk.TokenCount,
		&hit.Chunk.Text, &hit.Chunk.CreatedAt, &hit.Score)
	if err != nil {
		return hit, err
	}
	hit.Chunk.Kind = types.SectionKind(kind)
	if parentID.Valid {
		hit.Chunk.ParentID = parentID.String
	}
	return hit, nil
}

// applyKindFilter adds a parameterized section-kind filter to the query
func applyKindFilter(query string, args []any, filters *SearchFilters) (string, []any) {
	if filters == nil || len(filters.Kinds) == 0 {
		return query, args
	}

	placeholders := make([]string, len(filters.Kinds))
	for i, kind := range filters.Kinds {
		placeholders[i] = "?"
		args = append(args, string(kind))
	}
	query += " AND c.kind IN (" + strings.Join(placeholders, ",") + ")"
	return query, args
}

// SerializeVector encodes a vector as the little-endian float32 blob stored
// in the embeddings table.
func SerializeVector(vector []float32) []byte {
	blob := make([]byte, 0, len(vector)*4)
	for _, v := range vector {
		blob = binary.LittleEndian.AppendUint32(blob, math.Float32bits(v))
	}
	return blob
}

// DeserializeVector decodes a blob written by SerializeVector.
func DeserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0 for
// mismatched dimensions and zero vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		magA += x * x
		magB += y * y
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / math.Sqrt(magA*magB)
}
