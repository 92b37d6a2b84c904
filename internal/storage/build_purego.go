//go:build purego || !sqlite_vec
// +build purego !sqlite_vec

package storage

// Pure Go build using modernc.org/sqlite, no C compiler needed:
//
//	CGO_ENABLED=0 go build -tags "purego" ./...
//
// Similarity is computed in Go over candidate vectors, which is fine for
// development and small collections but slower than the cgo build.

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName selects the database/sql driver for this build.
	DriverName = "sqlite"

	// VectorExtensionAvailable reports whether similarity can be computed
	// in SQL rather than in Go.
	VectorExtensionAvailable = false

	// BuildMode names this build configuration for status reporting.
	BuildMode = "purego"
)
