package embedder

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"time"
)

const (
	ProviderJina   = "jina"
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"

	EnvProvider     = "PAPERINDEX_EMBEDDING_PROVIDER"
	EnvJinaAPIKey   = "JINA_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"

	DefaultJinaModel   = "jina-embeddings-v3"
	DefaultOpenAIModel = "text-embedding-3-small"

	JinaDimension   = 1024
	OpenAIDimension = 1536
	LocalDimension  = 384

	DefaultBatchSize = 50
	MaxBatchSize     = 100

	MaxRetries        = 3
	InitialBackoffMs  = 100
	MaxBackoffMs      = 5000
	BackoffMultiplier = 2.0

	jinaEndpoint   = "https://api.jina.ai/v1/embeddings"
	openaiEndpoint = "https://api.openai.com/v1/embeddings"

	// Jina task types for asymmetric retrieval.
	jinaTaskPassage = "retrieval.passage"
	jinaTaskQuery   = "retrieval.query"

	requestTimeout = 30 * time.Second
)

// restClient is the shared HTTP plumbing behind the Jina and OpenAI
// providers. Both speak the same request/response shape; they differ only in
// endpoint, auth key, and whether the request carries a task field.
type restClient struct {
	provider   string
	endpoint   string
	apiKey     string
	model      string
	dimension  int
	httpClient *http.Client
	cache      *Cache

	// taskFor maps an embedding purpose to a provider task string, or ""
	// when the provider's model is symmetric.
	taskFor func(Purpose) string
}

func newRESTClient(provider, endpoint, apiKey, model string, dimension int, cache *Cache, taskFor func(Purpose) string) *restClient {
	return &restClient{
		provider:   provider,
		endpoint:   endpoint,
		apiKey:     apiKey,
		model:      model,
		dimension:  dimension,
		httpClient: &http.Client{Timeout: requestTimeout},
		cache:      cache,
		taskFor:    taskFor,
	}
}

func (r *restClient) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	if r.cache != nil {
		if emb, ok := r.cache.Get(ComputeHash(req.Text, req.Purpose)); ok {
			return emb, nil
		}
	}

	resp, err := r.GenerateBatch(ctx, BatchEmbeddingRequest{
		Texts:   []string{req.Text},
		Purpose: req.Purpose,
		Model:   req.Model,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrProviderFailed)
	}
	return resp.Embeddings[0], nil
}

func (r *restClient) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}
	if len(req.Texts) > MaxBatchSize {
		return nil, fmt.Errorf("%w: at most %d texts per call", ErrBatchTooLarge, MaxBatchSize)
	}

	model := req.Model
	if model == "" {
		model = r.model
	}

	embeddings, err := retryWithBackoff(ctx, DefaultRetryConfig(), func() ([]*Embedding, error) {
		return r.post(ctx, req.Texts, model, req.Purpose)
	})
	if err != nil {
		return nil, fmt.Errorf("%w after %d retries: %v", ErrProviderFailed, MaxRetries, err)
	}

	if r.cache != nil {
		for i, emb := range embeddings {
			emb.Hash = ComputeHash(req.Texts[i], req.Purpose)
			r.cache.Set(emb.Hash, emb)
		}
	}

	return &BatchEmbeddingResponse{Embeddings: embeddings, Provider: r.provider, Model: model}, nil
}

func (r *restClient) post(ctx context.Context, texts []string, model string, purpose Purpose) ([]*Embedding, error) {
	payload := map[string]interface{}{
		"input": texts,
		"model": model,
	}
	if r.taskFor != nil {
		if task := r.taskFor(purpose); task != "" {
			payload["task"] = task
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s api: %w", r.provider, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s api status %d: %s", r.provider, resp.StatusCode, string(detail))
	}

	return decodeEmbeddings(resp.Body, r.provider)
}

func (r *restClient) Dimension() int   { return r.dimension }
func (r *restClient) Provider() string { return r.provider }
func (r *restClient) Model() string    { return r.model }

func (r *restClient) Close() error {
	r.httpClient.CloseIdleConnections()
	return nil
}

// decodeEmbeddings parses the OpenAI-compatible payload both APIs return.
func decodeEmbeddings(body io.Reader, provider string) ([]*Embedding, error) {
	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
		Model string `json:"model"`
	}
	if err := json.NewDecoder(body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	out := make([]*Embedding, len(parsed.Data))
	for i, row := range parsed.Data {
		out[i] = &Embedding{
			Vector:    row.Embedding,
			Dimension: len(row.Embedding),
			Provider:  provider,
			Model:     parsed.Model,
		}
	}
	return out, nil
}

// JinaProvider embeds text through the Jina AI API. Jina's v3 models are
// asymmetric: passages and queries use distinct task types.
type JinaProvider struct {
	*restClient
}

func NewJinaProvider(apiKey string, cache *Cache) (*JinaProvider, error) {
	if apiKey == "" {
		apiKey = os.Getenv(EnvJinaAPIKey)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvJinaAPIKey)
	}
	return &JinaProvider{
		restClient: newRESTClient(ProviderJina, jinaEndpoint, apiKey, DefaultJinaModel, JinaDimension, cache, func(p Purpose) string {
			if p == PurposeQuery {
				return jinaTaskQuery
			}
			return jinaTaskPassage
		}),
	}, nil
}

// OpenAIProvider embeds text through the OpenAI API. The embedding models
// are symmetric, so Purpose only affects the cache key.
type OpenAIProvider struct {
	*restClient
}

func NewOpenAIProvider(apiKey string, cache *Cache) (*OpenAIProvider, error) {
	if apiKey == "" {
		apiKey = os.Getenv(EnvOpenAIAPIKey)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvOpenAIAPIKey)
	}
	return &OpenAIProvider{
		restClient: newRESTClient(ProviderOpenAI, openaiEndpoint, apiKey, DefaultOpenAIModel, OpenAIDimension, cache, nil),
	}, nil
}

// LocalProvider produces deterministic hash-derived vectors. It lets the
// pipeline run end to end without API keys; scores are not semantically
// meaningful.
type LocalProvider struct {
	model string
	cache *Cache
}

func NewLocalProvider(cache *Cache) (*LocalProvider, error) {
	return &LocalProvider{model: "local-embeddings", cache: cache}, nil
}

func (l *LocalProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	hash := ComputeHash(req.Text, req.Purpose)
	if l.cache != nil {
		if emb, ok := l.cache.Get(hash); ok {
			return emb, nil
		}
	}

	// Expand the text hash across the full dimension so equal texts always
	// embed identically.
	vector := make([]float32, LocalDimension)
	block := sha256.Sum256([]byte(req.Text))
	for i := range vector {
		if i > 0 && i%len(block) == 0 {
			block = sha256.Sum256(block[:])
		}
		vector[i] = float32(block[i%len(block)])/255.0 - 0.5
	}

	emb := &Embedding{
		Vector:    NormalizeVector(vector),
		Dimension: LocalDimension,
		Provider:  ProviderLocal,
		Model:     l.model,
		Hash:      hash,
	}
	if l.cache != nil {
		l.cache.Set(hash, emb)
	}
	return emb, nil
}

func (l *LocalProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	embeddings := make([]*Embedding, len(req.Texts))
	for i, text := range req.Texts {
		emb, err := l.GenerateEmbedding(ctx, EmbeddingRequest{Text: text, Purpose: req.Purpose, Model: req.Model})
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		embeddings[i] = emb
	}
	return &BatchEmbeddingResponse{Embeddings: embeddings, Provider: ProviderLocal, Model: l.model}, nil
}

func (l *LocalProvider) Dimension() int   { return LocalDimension }
func (l *LocalProvider) Provider() string { return ProviderLocal }
func (l *LocalProvider) Model() string    { return l.model }
func (l *LocalProvider) Close() error     { return nil }

// NormalizeVector scales v to unit length so dot products behave as cosine
// similarity. Zero vectors pass through unchanged.
func NormalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares == 0 {
		return v
	}

	norm := float32(math.Sqrt(sumSquares))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
