package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Chunk levels in the section hierarchy.
const (
	// LevelParent marks a chunk holding the full text of one section.
	LevelParent = 0
	// LevelChild marks a paragraph-merged, token-bounded sub-unit of a section.
	LevelChild = 1
)

// chunkIDPrefixLen is the number of leading characters hashed into a chunk ID.
const chunkIDPrefixLen = 100

// Chunk is a retrievable text unit derived from one section. A section always
// yields exactly one parent chunk (level 0, sequence 0) and zero or more child
// chunks (level 1, sequence 1..N in document order). Chunks are immutable once
// created; replacing them requires a full re-index of the owning document.
type Chunk struct {
	ID            string
	PaperID       string
	Text          string
	Kind          SectionKind
	Level         int
	ParentID      string // set only on child chunks, references the parent chunk ID
	SequenceOrder int    // 0 for the parent, 1..N for children
	TokenCount    int
}

// NewChunkID derives a stable chunk identifier from the chunk's leading text
// and its position. The same text at the same kind/level/sequence always
// yields the same ID, which is what makes re-indexing idempotent.
func NewChunkID(text string, kind SectionKind, level, sequence int) string {
	prefix := []rune(text)
	if len(prefix) > chunkIDPrefixLen {
		prefix = prefix[:chunkIDPrefixLen]
	}
	h := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%d|%d", string(prefix), kind, level, sequence))
	return hex.EncodeToString(h[:8])
}

// Validate performs structural validation of the chunk.
func (c *Chunk) Validate() error {
	if c.ID == "" {
		return ErrMissingChunkID
	}
	if c.Text == "" {
		return ErrEmptyContent
	}
	if !c.Kind.Valid() {
		return ErrInvalidSectionKind
	}
	switch c.Level {
	case LevelParent:
		if c.ParentID != "" || c.SequenceOrder != 0 {
			return ErrInvalidHierarchy
		}
	case LevelChild:
		if c.ParentID == "" || c.SequenceOrder < 1 {
			return ErrInvalidHierarchy
		}
	default:
		return ErrInvalidHierarchy
	}
	return nil
}
