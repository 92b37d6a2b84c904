package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// CurrentSchemaVersion is the version a fully migrated database reports.
const CurrentSchemaVersion = "1.0.0"

// Migration pairs forward and reverse DDL for one schema version.
type Migration struct {
	Version string
	Up      string
	Down    string
}

// AllMigrations lists every migration in ascending version order.
var AllMigrations = []Migration{
	{
		Version: "1.0.0",
		Up:      migrationV1Up,
		Down:    migrationV1Down,
	},
}

const migrationV1Up = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Papers table
CREATE TABLE IF NOT EXISTS papers (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    title TEXT,
    total_chunks INTEGER DEFAULT 0,
    indexed_at TIMESTAMP,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_papers_project ON papers(project_id);

-- Chunks table. IDs are content-derived, so re-indexing a paper upserts
-- the same rows instead of accumulating duplicates.
CREATE TABLE IF NOT EXISTS chunks (
    id TEXT PRIMARY KEY,
    paper_id TEXT NOT NULL,
    project_id TEXT NOT NULL,
    parent_id TEXT,
    kind TEXT NOT NULL,
    level INTEGER NOT NULL,
    sequence_order INTEGER NOT NULL,
    token_count INTEGER,
    content TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (paper_id) REFERENCES papers(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_chunks_paper ON chunks(paper_id);
CREATE INDEX IF NOT EXISTS idx_chunks_project ON chunks(project_id);
CREATE INDEX IF NOT EXISTS idx_chunks_kind ON chunks(kind);
CREATE INDEX IF NOT EXISTS idx_chunks_parent ON chunks(parent_id);

-- Embeddings table
CREATE TABLE IF NOT EXISTS embeddings (
    chunk_id TEXT PRIMARY KEY,
    vector BLOB NOT NULL,
    dimension INTEGER NOT NULL,
    provider TEXT NOT NULL,
    model TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (chunk_id) REFERENCES chunks(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_embeddings_provider ON embeddings(provider, model);
`

const migrationV1Down = `
DROP TABLE IF EXISTS embeddings;
DROP TABLE IF EXISTS chunks;
DROP TABLE IF EXISTS papers;
DROP TABLE IF EXISTS schema_version;
`

// schemaVersion reads the newest applied version, or 0.0.0 when the tracking
// table is missing or empty (fresh database).
func schemaVersion(ctx context.Context, db *sql.DB) (*semver.Version, error) {
	var name string
	err := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return semver.MustParse("0.0.0"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("checking schema_version table: %w", err)
	}

	var raw string
	err = db.QueryRowContext(ctx,
		"SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) || raw == "" {
		return semver.MustParse("0.0.0"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading schema_version: %w", err)
	}

	v, err := semver.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("stored schema version %q: %w", raw, err)
	}
	return v, nil
}

// ApplyMigrations brings the database up to CurrentSchemaVersion, applying
// any migration whose version is newer than what the database records.
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	applied, err := schemaVersion(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range AllMigrations {
		target, err := semver.NewVersion(m.Version)
		if err != nil {
			return fmt.Errorf("migration version %q: %w", m.Version, err)
		}
		if !applied.LessThan(target) {
			continue
		}

		if _, err := db.ExecContext(ctx, m.Up); err != nil {
			return fmt.Errorf("applying migration %s: %w", m.Version, err)
		}
		if _, err := db.ExecContext(ctx,
			"INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return fmt.Errorf("recording migration %s: %w", m.Version, err)
		}
		applied = target
	}

	return nil
}

// RollbackMigration undoes the newest applied migration.
func RollbackMigration(ctx context.Context, db *sql.DB) error {
	var newest string
	err := db.QueryRowContext(ctx,
		"SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&newest)
	if err != nil {
		return fmt.Errorf("no migrations to roll back: %w", err)
	}

	for i := range AllMigrations {
		if AllMigrations[i].Version != newest {
			continue
		}
		if _, err := db.ExecContext(ctx, AllMigrations[i].Down); err != nil {
			return fmt.Errorf("rolling back migration %s: %w", newest, err)
		}
		if _, err := db.ExecContext(ctx,
			"DELETE FROM schema_version WHERE version = ?", newest); err != nil {
			return fmt.Errorf("clearing migration record %s: %w", newest, err)
		}
		return nil
	}

	return fmt.Errorf("migration %s not found", newest)
}
