package chunker

import (
	"github.com/paperstack/paperindex/internal/sectioner"
	"github.com/paperstack/paperindex/pkg/types"
)

// SegmentResult is the storage-ready output of segmenting one document.
type SegmentResult struct {
	Chunks   []types.Chunk
	Sections []types.Section
	Summary  map[types.SectionKind]int // chunk count per section kind
}

// SegmentDocument runs section detection over a full document and chunks each
// detected section, returning all chunks in section order. The function is
// pure and deterministic: identical input always yields identical chunk IDs,
// which is what allows re-indexing a paper to overwrite rather than duplicate.
func (c *Chunker) SegmentDocument(rawText, paperID string) SegmentResult {
	sections := sectioner.DetectSections(rawText)

	result := SegmentResult{
		Sections: sections,
		Summary:  make(map[types.SectionKind]int),
	}

	for _, section := range sections {
		chunks := c.ChunkSection(section, paperID)
		result.Chunks = append(result.Chunks, chunks...)
		result.Summary[section.Kind] += len(chunks)
	}

	return result
}
