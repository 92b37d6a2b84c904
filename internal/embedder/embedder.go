package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultCacheEntries bounds the embedding cache when no size is configured.
const defaultCacheEntries = 10000

var (
	ErrInvalidInput      = errors.New("invalid embedding input")
	ErrProviderFailed    = errors.New("embedding provider failed")
	ErrUnsupportedModel  = errors.New("unsupported embedding model")
	ErrEmptyText         = errors.New("text cannot be empty")
	ErrBatchTooLarge     = errors.New("batch exceeds provider limit")
	ErrNoProviderEnabled = errors.New("no embedding provider configured")
)

// Purpose distinguishes passage embeddings from query embeddings. Providers
// with asymmetric retrieval models (Jina task types) return different vectors
// for the same text depending on which side of the search it sits on, so the
// purpose participates in the cache key.
type Purpose string

const (
	PurposeIndex Purpose = "index"
	PurposeQuery Purpose = "query"
)

// Embedding is one generated vector together with its provenance.
type Embedding struct {
	Vector    []float32
	Dimension int
	Provider  string
	Model     string
	Hash      string // cache key, see ComputeHash
}

// EmbeddingRequest asks for a single vector.
type EmbeddingRequest struct {
	Text    string
	Purpose Purpose // empty means PurposeIndex
	Model   string  // optional model override
}

// BatchEmbeddingRequest asks for one vector per text, in order.
type BatchEmbeddingRequest struct {
	Texts   []string
	Purpose Purpose
	Model   string
}

// BatchEmbeddingResponse carries the vectors for a batch request.
type BatchEmbeddingResponse struct {
	Embeddings []*Embedding
	Provider   string
	Model      string
}

// Embedder generates dense vectors for text. Implementations are safe for
// concurrent use.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error)
	GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error)

	// Dimension reports the width of vectors this provider produces.
	Dimension() int
	Provider() string
	Model() string
	Close() error
}

// ComputeHash derives the cache key for one text/purpose pair. An empty
// purpose normalizes to PurposeIndex so cached rows written before a caller
// started setting the field stay addressable.
func ComputeHash(text string, purpose Purpose) string {
	if purpose == "" {
		purpose = PurposeIndex
	}
	sum := sha256.Sum256([]byte(string(purpose) + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// Cache is an LRU of embeddings keyed by ComputeHash.
type Cache struct {
	entries *lru.Cache[string, *Embedding]
}

// NewCache builds a cache holding at most maxLen embeddings. Non-positive
// sizes fall back to defaultCacheEntries.
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = defaultCacheEntries
	}
	entries, err := lru.New[string, *Embedding](maxLen)
	if err != nil {
		entries, _ = lru.New[string, *Embedding](defaultCacheEntries)
	}
	return &Cache{entries: entries}
}

// Get returns a copy of the cached embedding, if any. The vector is cloned
// so callers cannot mutate the cached value through the returned slice.
func (c *Cache) Get(hash string) (*Embedding, bool) {
	cached, ok := c.entries.Get(hash)
	if !ok {
		return nil, false
	}
	out := *cached
	out.Vector = append([]float32(nil), cached.Vector...)
	return &out, true
}

// Set stores an embedding, evicting the least recently used entry when full.
func (c *Cache) Set(hash string, emb *Embedding) {
	c.entries.Add(hash, emb)
}

func (c *Cache) Size() int {
	return c.entries.Len()
}

func (c *Cache) Clear() {
	c.entries.Purge()
}

// ValidateRequest rejects requests with no text to embed.
func ValidateRequest(req EmbeddingRequest) error {
	if req.Text == "" {
		return ErrEmptyText
	}
	return nil
}

// ValidateBatchRequest rejects empty batches and batches with blank entries,
// because a blank entry would silently shift vector/text alignment.
func ValidateBatchRequest(req BatchEmbeddingRequest) error {
	if len(req.Texts) == 0 {
		return fmt.Errorf("%w: batch has no texts", ErrInvalidInput)
	}
	for i, text := range req.Texts {
		if text == "" {
			return fmt.Errorf("%w: text at index %d is empty", ErrInvalidInput, i)
		}
	}
	return nil
}
