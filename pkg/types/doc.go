// Package types provides shared type definitions for the paperindex engine.
//
// This package defines the domain types used across segmentation and
// retrieval: sections, chunks, and retrieval results.
//
// # Core Types
//
// Section represents a contiguous span of a paper classified into one of a
// closed set of section kinds:
//
//	section := types.Section{
//	    Kind:    types.SectionMethodology,
//	    Title:   "3. Methodology",
//	    Content: bodyText,
//	}
//
// Chunk is the persisted retrieval unit. Each section produces exactly one
// parent chunk (level 0) carrying the full section text, plus paragraph-merged
// child chunks (level 1) sized for precise matching:
//
//	parent := types.Chunk{Level: types.LevelParent, SequenceOrder: 0, ...}
//	child  := types.Chunk{Level: types.LevelChild, ParentID: parent.ID, ...}
//
// # Content-Derived Identifiers
//
// Chunk IDs are derived from the chunk's leading text and position via
// NewChunkID. Re-segmenting the same document always reproduces the same IDs,
// so re-indexing overwrites rows in place instead of accumulating duplicates:
//
//	id := types.NewChunkID(text, types.SectionResults, types.LevelChild, 2)
//
// # Search Results
//
// RetrievalResult carries one scored hit, optionally expanded with the text
// of its parent section:
//
//	result := types.RetrievalResult{
//	    ChunkID: id,
//	    Score:   0.92,
//	    Kind:    types.SectionResults,
//	}
//
// Scores are cosine similarities, nominally in [0, 1], with higher values
// indicating better matches. RetrievalContext aggregates the results chosen
// for one context assembly together with the token total and the set of
// sections and papers covered.
package types
