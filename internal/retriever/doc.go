// Package retriever finds the most relevant chunks for a query.
//
// The engine embeds the query, issues one similarity search scoped to a
// project, then post-processes the hits:
//
//  1. Rank by similarity descending; equal scores prefer child chunks
//     over parents (children are more precise matches).
//  2. Optionally batch-fetch parent section texts for child hits
//     (ModeWithParents, the default). Parent-fetch failure is non-fatal
//     and degrades to child text.
//  3. Deduplicate by the lowercased first 100 characters of each
//     result's text, keeping the highest-scoring survivor.
//  4. Truncate to the requested topK.
//
// The store is overfetched at 2x topK so deduplication does not shrink
// the final result set.
//
// SearchBySection fans out one search per section kind concurrently and
// returns per-kind buckets that never cross-contaminate. GetContext
// assembles a token-bounded context block with a first-fit-then-stop
// packing policy.
package retriever
