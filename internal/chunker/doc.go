// Package chunker divides detected paper sections into hierarchical chunks
// for embedding and search.
//
// Each section produces a two-level hierarchy: one parent chunk holding the
// full section text (used for context expansion at retrieval time) and a run
// of child chunks built by greedily merging paragraphs under a token target
// (used for precise matching).
//
// # Basic Usage
//
//	c := chunker.New(tokenizer.NewWordCounter(), chunker.DefaultOptions())
//	result := c.SegmentDocument(rawText, paperID)
//
//	for _, chunk := range result.Chunks {
//	    fmt.Printf("%s level=%d seq=%d tokens=%d\n",
//	        chunk.Kind, chunk.Level, chunk.SequenceOrder, chunk.TokenCount)
//	}
//
// # Merging Strategy
//
// Paragraphs accumulate into a buffer until adding the next one would push
// the buffer past TargetTokens; the buffer is then closed as a child chunk.
// The most recently closed paragraph is repeated at the start of the next
// buffer when its own token count fits within OverlapTokens, so context is
// not lost at chunk boundaries. A single paragraph larger than TargetTokens
// is emitted whole rather than split mid-paragraph, so a child may exceed the
// target by at most one paragraph's length.
//
// A trailing buffer below MinTokens is silently dropped. This trades the last
// few sentences of a section for never emitting children too small to match
// anything; see DESIGN.md for the discussion of that trade-off.
//
// # Determinism
//
// SegmentDocument performs no I/O and derives chunk IDs from content and
// position, so re-running it on identical input reproduces identical IDs in
// identical order.
package chunker
