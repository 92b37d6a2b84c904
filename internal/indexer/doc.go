// Package indexer coordinates the end-to-end pipeline for papers:
// segment the raw text into sections and chunks, embed the chunk texts
// in batches, and persist papers, chunks, and embeddings.
//
// # Basic Usage
//
//	idx := indexer.New(chunker, embedder, store, logger)
//
//	stats, err := idx.IndexPaper(ctx, indexer.IndexRequest{
//	    ProjectID: "nlp-survey",
//	    PaperID:   "attention-2017",
//	    Title:     "Attention Is All You Need",
//	    Text:      rawPaperText,
//	})
//
// # Idempotent Re-indexing
//
// Chunk IDs are derived from chunk content, position, and kind, so
// indexing unchanged text writes identical rows. Each IndexPaper call
// first deletes the paper's previous chunks so edits do not leave stale
// rows behind, then upserts the fresh set.
//
// # Batch Indexing
//
// IndexPapers processes many papers concurrently with a bounded worker
// pool. Per-paper failures are collected in the returned stats instead
// of aborting the batch. Only one batch run may be active at a time;
// a second concurrent call returns ErrIndexInProgress.
package indexer
