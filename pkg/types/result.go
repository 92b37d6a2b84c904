package types

import "strings"

// RetrievalMode controls whether child hits are expanded with their parent
// section text.
type RetrievalMode string

const (
	// ModeChunksOnly returns matched chunks as-is.
	ModeChunksOnly RetrievalMode = "chunks_only"
	// ModeWithParents batch-fetches parent section text for child hits.
	ModeWithParents RetrievalMode = "with_parents"
)

// Valid reports whether m is a recognized retrieval mode.
func (m RetrievalMode) Valid() bool {
	return m == ModeChunksOnly || m == ModeWithParents
}

// dedupKeyLen is the number of leading characters used to detect
// near-duplicate hits.
const dedupKeyLen = 100

// RetrievalResult is a scored hit returned by one retrieval call. Results are
// never persisted and are only valid for the duration of the call.
type RetrievalResult struct {
	ChunkID       string
	Text          string
	Kind          SectionKind
	Level         int
	Score         float64 // cosine similarity, nominally 0.0-1.0
	PaperID       string
	ParentID      string
	ParentText    string // populated only when parent expansion succeeds
	TokenCount    int
	SequenceOrder int
}

// DedupKey returns the lowercased leading text of the result, used to
// collapse near-duplicate hits across chunks.
func (r *RetrievalResult) DedupKey() string {
	runes := []rune(r.Text)
	if len(runes) > dedupKeyLen {
		runes = runes[:dedupKeyLen]
	}
	return strings.ToLower(string(runes))
}

// RetrievalContext aggregates the results assembled for one query under a
// token budget.
type RetrievalContext struct {
	Results         []RetrievalResult
	TotalTokens     int
	SectionsCovered []SectionKind
	PapersCovered   []string
}

// AddCoverage records the section kind and paper of an included result,
// keeping both covered lists duplicate-free.
func (rc *RetrievalContext) AddCoverage(kind SectionKind, paperID string) {
	if !containsKind(rc.SectionsCovered, kind) {
		rc.SectionsCovered = append(rc.SectionsCovered, kind)
	}
	if paperID != "" && !containsString(rc.PapersCovered, paperID) {
		rc.PapersCovered = append(rc.PapersCovered, paperID)
	}
}

func containsKind(kinds []SectionKind, k SectionKind) bool {
	for _, kind := range kinds {
		if kind == k {
			return true
		}
	}
	return false
}

func containsString(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
