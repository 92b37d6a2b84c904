package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/paperstack/paperindex/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertPaper creates or updates a paper record
func (s *SQLiteStore) UpsertPaper(ctx context.Context, paper *Paper) error {
	query := `
		INSERT INTO papers (id, project_id, title, total_chunks, indexed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			title = excluded.title,
			total_chunks = excluded.total_chunks,
			indexed_at = excluded.indexed_at,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := s.db.ExecContext(ctx, query,
		paper.ID, paper.ProjectID, paper.Title, paper.TotalChunks, paper.IndexedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert paper %s: %w", paper.ID, err)
	}
	return nil
}

// GetPaper retrieves a paper by ID
func (s *SQLiteStore) GetPaper(ctx context.Context, paperID string) (*Paper, error) {
	query := `
		SELECT id, project_id, title, total_chunks, indexed_at, created_at, updated_at
		FROM papers WHERE id = ?
	`

	paper := &Paper{}
	var indexedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, paperID).Scan(
		&paper.ID, &paper.ProjectID, &paper.Title, &paper.TotalChunks,
		&indexedAt, &paper.CreatedAt, &paper.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("paper %s: %w", paperID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get paper %s: %w", paperID, err)
	}
	if indexedAt.Valid {
		paper.IndexedAt = indexedAt.Time
	}
	return paper, nil
}

// ListPapers returns all papers in a project ordered by title
func (s *SQLiteStore) ListPapers(ctx context.Context, projectID string) ([]*Paper, error) {
	query := `
		SELECT id, project_id, title, total_chunks, indexed_at, created_at, updated_at
		FROM papers WHERE project_id = ? ORDER BY title
	`

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list papers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var papers []*Paper
	for rows.Next() {
		paper := &Paper{}
		var indexedAt sql.NullTime
		if err := rows.Scan(&paper.ID, &paper.ProjectID, &paper.Title, &paper.TotalChunks,
			&indexedAt, &paper.CreatedAt, &paper.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan paper: %w", err)
		}
		if indexedAt.Valid {
			paper.IndexedAt = indexedAt.Time
		}
		papers = append(papers, paper)
	}
	return papers, rows.Err()
}

// DeletePaper removes a paper and, via cascade, its chunks and embeddings
func (s *SQLiteStore) DeletePaper(ctx context.Context, paperID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM papers WHERE id = ?", paperID)
	if err != nil {
		return fmt.Errorf("failed to delete paper %s: %w", paperID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("paper %s: %w", paperID, ErrNotFound)
	}
	return nil
}

// UpsertChunks writes a batch of chunks in a single transaction.
// Chunk IDs are content-derived, so re-indexing the same text is idempotent.
func (s *SQLiteStore) UpsertChunks(ctx context.Context, projectID string, chunks []types.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO chunks (id, paper_id, project_id, parent_id, kind, level, sequence_order, token_count, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			paper_id = excluded.paper_id,
			project_id = excluded.project_id,
			parent_id = excluded.parent_id,
			kind = excluded.kind,
			level = excluded.level,
			sequence_order = excluded.sequence_order,
			token_count = excluded.token_count,
			content = excluded.content
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare chunk upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range chunks {
		chunk := &chunks[i]
		if err := chunk.Validate(); err != nil {
			return fmt.Errorf("invalid chunk %s: %w", chunk.ID, err)
		}

		var parentID any
		if chunk.ParentID != "" {
			parentID = chunk.ParentID
		}

		if _, err := stmt.ExecContext(ctx,
			chunk.ID, chunk.PaperID, projectID, parentID,
			string(chunk.Kind), chunk.Level, chunk.SequenceOrder,
			chunk.TokenCount, chunk.Text); err != nil {
			return fmt.Errorf("failed to upsert chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunk upsert: %w", err)
	}
	return nil
}

func scanChunkRow(scanner interface{ Scan(...any) error }) (*ChunkRow, error) {
	row := &ChunkRow{}
	var parentID sql.NullString
	var kind string
	err := scanner.Scan(&row.ID, &row.PaperID, &row.ProjectID, &parentID,
		&kind, &row.Level, &row.SequenceOrder, &row.TokenCount, &row.Text, &row.CreatedAt)
	if err != nil {
		return nil, err
	}
	row.Kind = types.SectionKind(kind)
	if parentID.Valid {
		row.ParentID = parentID.String
	}
	return row, nil
}

const chunkColumns = "id, paper_id, project_id, parent_id, kind, level, sequence_order, token_count, content, created_at"

// GetChunk retrieves a chunk by ID
func (s *SQLiteStore) GetChunk(ctx context.Context, chunkID string) (*ChunkRow, error) {
	query := "SELECT " + chunkColumns + " FROM chunks WHERE id = ?"

	row, err := scanChunkRow(s.db.QueryRowContext(ctx, query, chunkID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("chunk %s: %w", chunkID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chunk %s: %w", chunkID, err)
	}
	return row, nil
}

// GetChunksByIDs retrieves multiple chunks in a single query. Missing IDs
// are silently skipped; callers decide whether absence is an error.
func (s *SQLiteStore) GetChunksByIDs(ctx context.Context, chunkIDs []string) ([]*ChunkRow, error) {
	if len(chunkIDs) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(chunkIDs))
	args := make([]any, len(chunkIDs))
	for i, id := range chunkIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := "SELECT " + chunkColumns + " FROM chunks WHERE id IN (" +
		strings.Join(placeholders, ",") + ")"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get chunks by IDs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*ChunkRow
	for rows.Next() {
		row, err := scanChunkRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// DeleteChunksByPaper removes all chunks belonging to a paper
func (s *SQLiteStore) DeleteChunksByPaper(ctx context.Context, paperID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE paper_id = ?", paperID)
	if err != nil {
		return fmt.Errorf("failed to delete chunks for paper %s: %w", paperID, err)
	}
	return nil
}

// UpsertEmbeddings writes a batch of embeddings in a single transaction
func (s *SQLiteStore) UpsertEmbeddings(ctx context.Context, embeddings []*Embedding) error {
	if len(embeddings) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO embeddings (chunk_id, vector, dimension, provider, model, created_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(chunk_id) DO UPDATE SET
			vector = excluded.vector,
			dimension = excluded.dimension,
			provider = excluded.provider,
			model = excluded.model
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare embedding upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, emb := range embeddings {
		if len(emb.Vector) == 0 {
			return fmt.Errorf("embedding for chunk %s has empty vector", emb.ChunkID)
		}
		if _, err := stmt.ExecContext(ctx,
			emb.ChunkID, emb.Vector, emb.Dimension, emb.Provider, emb.Model); err != nil {
			return fmt.Errorf("failed to upsert embedding for chunk %s: %w", emb.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit embedding upsert: %w", err)
	}
	return nil
}

// GetEmbedding retrieves an embedding by chunk ID
func (s *SQLiteStore) GetEmbedding(ctx context.Context, chunkID string) (*Embedding, error) {
	query := `
		SELECT chunk_id, vector, dimension, provider, model, created_at
		FROM embeddings WHERE chunk_id = ?
	`

	emb := &Embedding{}
	err := s.db.QueryRowContext(ctx, query, chunkID).Scan(
		&emb.ChunkID, &emb.Vector, &emb.Dimension, &emb.Provider, &emb.Model, &emb.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("embedding for chunk %s: %w", chunkID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get embedding for chunk %s: %w", chunkID, err)
	}
	return emb, nil
}

// GetStatus reports index health for a project
func (s *SQLiteStore) GetStatus(ctx context.Context, projectID string) (*ProjectStatus, error) {
	status := &ProjectStatus{}

	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM papers WHERE project_id = ?", projectID).Scan(&status.PapersCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count papers: %w", err)
	}
	status.Health.DatabaseAccessible = true

	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chunks WHERE project_id = ?", projectID).Scan(&status.ChunksCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM embeddings e
		JOIN chunks c ON c.id = e.chunk_id
		WHERE c.project_id = ?`, projectID).Scan(&status.EmbeddingsCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count embeddings: %w", err)
	}
	status.Health.EmbeddingsAvailable = status.EmbeddingsCount > 0

	if info, err := os.Stat(s.dbPath); err == nil {
		status.IndexSizeMB = float64(info.Size()) / (1024 * 1024)
	}

	return status, nil
}
