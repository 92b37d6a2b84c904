// Package embedder generates vector embeddings for paper chunks and
// search queries.
//
// # Providers
//
// Three providers are supported:
//
//   - jina: Jina AI API (jina-embeddings-v3, 1024 dimensions). Supports
//     asymmetric retrieval via task types, so passages and queries embed
//     differently.
//   - openai: OpenAI API (text-embedding-3-small, 1536 dimensions).
//     Symmetric; the request Purpose is accepted but ignored.
//   - local: deterministic hash-based vectors (384 dimensions). No API
//     key required; useful for development and tests, not for semantic
//     relevance.
//
// # Provider Selection
//
// NewFromEnv picks a provider from the environment:
//
//  1. PAPERINDEX_EMBEDDING_PROVIDER if set (jina, openai, local)
//  2. JINA_API_KEY present: jina
//  3. OPENAI_API_KEY present: openai
//  4. Otherwise: local
//
// # Purpose
//
// Every request carries a Purpose: PurposeIndex for chunk text written
// at indexing time, PurposeQuery for user queries at search time. The
// purpose is part of the cache key, so a text indexed as a passage and
// later issued as a query will not collide in the cache.
//
// # Usage
//
//	emb, err := embedder.NewFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	resp, err := emb.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{
//	    Texts:   chunkTexts,
//	    Purpose: embedder.PurposeIndex,
//	})
//
//	query, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
//	    Text:    "what datasets were used",
//	    Purpose: embedder.PurposeQuery,
//	})
//
// # Caching and Retry
//
// Results are cached in an in-memory LRU keyed by content hash. API
// providers retry transient failures with exponential backoff (3
// attempts, 100ms base delay, 5s cap).
package embedder
