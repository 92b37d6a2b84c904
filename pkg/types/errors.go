package types

import "errors"

// Domain errors for type validation
var (
	ErrMissingChunkID     = errors.New("chunk ID is required")
	ErrEmptyContent       = errors.New("content cannot be empty")
	ErrInvalidSectionKind = errors.New("invalid section kind")
	ErrInvalidHierarchy   = errors.New("invalid chunk level or parent reference")
)
