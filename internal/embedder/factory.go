package embedder

import (
	"fmt"
	"os"
	"strings"
)

// Config selects and sizes an embedding provider explicitly, bypassing
// environment detection.
type Config struct {
	Provider  string
	APIKey    string
	CacheSize int
}

// New builds the provider named in cfg. API keys left empty fall back to the
// provider's environment variable inside its constructor.
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}
	return build(strings.ToLower(cfg.Provider), cfg.APIKey, cache)
}

// NewFromEnv builds a provider from the environment. PAPERINDEX_EMBEDDING_PROVIDER
// wins when set; otherwise the first available API key decides (Jina before
// OpenAI), and with no keys at all the deterministic local provider is used
// so the server still starts.
func NewFromEnv() (Embedder, error) {
	name := os.Getenv(EnvProvider)
	if name == "" {
		name = DetectProvider()
	}
	return build(strings.ToLower(name), "", NewCache(defaultCacheEntries))
}

// DetectProvider reports which provider NewFromEnv would choose.
func DetectProvider() string {
	if name := os.Getenv(EnvProvider); name != "" {
		return strings.ToLower(name)
	}
	switch {
	case os.Getenv(EnvJinaAPIKey) != "":
		return ProviderJina
	case os.Getenv(EnvOpenAIAPIKey) != "":
		return ProviderOpenAI
	default:
		return ProviderLocal
	}
}

func build(name, apiKey string, cache *Cache) (Embedder, error) {
	switch name {
	case ProviderJina:
		return NewJinaProvider(apiKey, cache)
	case ProviderOpenAI:
		return NewOpenAIProvider(apiKey, cache)
	case ProviderLocal:
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrUnsupportedModel, name)
	}
}
