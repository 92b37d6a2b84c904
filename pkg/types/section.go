package types

// SectionKind classifies a contiguous span of a paper into one of a closed
// set of section categories.
type SectionKind string

const (
	SectionAbstract         SectionKind = "abstract"
	SectionIntroduction     SectionKind = "introduction"
	SectionBackground       SectionKind = "background"
	SectionLiteratureReview SectionKind = "literature_review"
	SectionMethodology      SectionKind = "methodology"
	SectionResults          SectionKind = "results"
	SectionDiscussion       SectionKind = "discussion"
	SectionConclusion       SectionKind = "conclusion"
	SectionReferences       SectionKind = "references"
	SectionAppendix         SectionKind = "appendix"
	SectionAcknowledgments  SectionKind = "acknowledgments"
	SectionTable            SectionKind = "table"
	SectionUnknown          SectionKind = "unknown"
)

// AllSectionKinds returns every valid section kind in declaration order.
func AllSectionKinds() []SectionKind {
	return []SectionKind{
		SectionAbstract, SectionIntroduction, SectionBackground,
		SectionLiteratureReview, SectionMethodology, SectionResults,
		SectionDiscussion, SectionConclusion, SectionReferences,
		SectionAppendix, SectionAcknowledgments, SectionTable,
		SectionUnknown,
	}
}

// Valid reports whether k is a member of the closed SectionKind set.
func (k SectionKind) Valid() bool {
	switch k {
	case SectionAbstract, SectionIntroduction, SectionBackground,
		SectionLiteratureReview, SectionMethodology, SectionResults,
		SectionDiscussion, SectionConclusion, SectionReferences,
		SectionAppendix, SectionAcknowledgments, SectionTable,
		SectionUnknown:
		return true
	default:
		return false
	}
}

// Section is a contiguous span of raw document lines classified as one
// section kind. Sections are created once per document parse and are
// immutable; only the Chunks derived from them are persisted.
type Section struct {
	Kind    SectionKind
	Title   string // first matched header line, may be empty
	Content string // body text excluding the header line
	Level   int    // hierarchy depth, currently always 1

	// Line offsets into the raw document, 0-based.
	StartLine int
	EndLine   int
}
