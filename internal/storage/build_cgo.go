//go:build sqlite_vec
// +build sqlite_vec

package storage

// Cgo build using github.com/mattn/go-sqlite3 with the sqlite-vec extension
// loaded, so similarity queries run inside SQLite:
//
//	CGO_ENABLED=1 go build -tags "sqlite_vec" ./...
//
// Preferred for production-sized paper collections.

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName selects the database/sql driver for this build.
	DriverName = "sqlite3"

	// VectorExtensionAvailable reports whether similarity can be computed
	// in SQL rather than in Go.
	VectorExtensionAvailable = true

	// BuildMode names this build configuration for status reporting.
	BuildMode = "cgo"
)
