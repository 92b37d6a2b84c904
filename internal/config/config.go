// Package config loads application configuration from YAML with
// sensible defaults for every field.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// StorageConfig configures the SQLite database location.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// EmbedderConfig selects and configures the embedding provider.
type EmbedderConfig struct {
	Provider  string `yaml:"provider"` // jina, openai, local, or empty for auto-detect
	CacheSize int    `yaml:"cache_size"`
}

// ChunkingConfig configures segmentation token thresholds.
type ChunkingConfig struct {
	TargetTokens  int    `yaml:"target_tokens"`
	OverlapTokens int    `yaml:"overlap_tokens"`
	MinTokens     int    `yaml:"min_tokens"`
	TokenCounter  string `yaml:"token_counter"` // char or word
}

// RetrievalConfig configures search behavior.
type RetrievalConfig struct {
	TopK     int     `yaml:"top_k"`
	MinScore float64 `yaml:"min_score"`
}

// Config is the root application configuration.
type Config struct {
	ProjectID string          `yaml:"project_id"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
}

// Load reads a config from path. A missing file yields defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDefault tries ./paperindex.yaml first, then
// ~/.config/paperindex/config.yaml, falling back to defaults.
func LoadDefault() (*Config, error) {
	if _, err := os.Stat("paperindex.yaml"); err == nil {
		return Load("paperindex.yaml")
	}

	home, err := os.UserHomeDir()
	if err == nil {
		userPath := filepath.Join(home, ".config", "paperindex", "config.yaml")
		if _, err := os.Stat(userPath); err == nil {
			return Load(userPath)
		}
	}

	return Default(), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.ProjectID == "" {
		cfg.ProjectID = "default"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = defaultDatabasePath()
	}
	if cfg.Embedder.CacheSize == 0 {
		cfg.Embedder.CacheSize = 10000
	}
	if cfg.Chunking.TargetTokens == 0 {
		cfg.Chunking.TargetTokens = 400
	}
	if cfg.Chunking.OverlapTokens == 0 {
		cfg.Chunking.OverlapTokens = 50
	}
	if cfg.Chunking.MinTokens == 0 {
		cfg.Chunking.MinTokens = 100
	}
	if cfg.Chunking.TokenCounter == "" {
		cfg.Chunking.TokenCounter = "char"
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 10
	}
}

func validate(cfg *Config) error {
	if cfg.Chunking.TargetTokens < cfg.Chunking.MinTokens {
		return fmt.Errorf("chunking: target_tokens (%d) must be >= min_tokens (%d)",
			cfg.Chunking.TargetTokens, cfg.Chunking.MinTokens)
	}
	if cfg.Chunking.OverlapTokens < 0 {
		return fmt.Errorf("chunking: overlap_tokens must not be negative")
	}
	switch cfg.Chunking.TokenCounter {
	case "char", "word":
	default:
		return fmt.Errorf("chunking: unknown token_counter %q (want char or word)", cfg.Chunking.TokenCounter)
	}
	if cfg.Retrieval.MinScore < 0 || cfg.Retrieval.MinScore > 1 {
		return fmt.Errorf("retrieval: min_score must be within [0, 1]")
	}
	return nil
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "paperindex.db"
	}
	return filepath.Join(home, ".paperindex", "index.db")
}
