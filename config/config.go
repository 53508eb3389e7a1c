// Package config loads the CLI configuration from YAML. API keys never
// live in the file; the file names the environment variable to read.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/botirk38/docsim/aggregate"
)

// OpenAIConfig configures the text embedding provider.
type OpenAIConfig struct {
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
}

// GeminiConfig configures the image feature provider.
type GeminiConfig struct {
	APIKeyEnv  string `yaml:"api_key_env"`
	TagModel   string `yaml:"tag_model"`
	EmbedModel string `yaml:"embed_model"`
}

// CacheConfig selects and configures the embedding cache.
type CacheConfig struct {
	// Type is "none", "lru" or "redis".
	Type     string `yaml:"type"`
	Capacity int    `yaml:"capacity"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	Database int    `yaml:"database"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	OpenAI  OpenAIConfig      `yaml:"openai"`
	Gemini  GeminiConfig      `yaml:"gemini"`
	Weights aggregate.Weights `yaml:"weights"`
	// Strategy is the image pair aggregation strategy: mean, max or
	// bestmatch.
	Strategy string `yaml:"strategy"`
	// MaxConcurrency caps concurrent remote image-feature calls.
	MaxConcurrency int `yaml:"max_concurrency"`
	// CallTimeoutSecs bounds each external call; 0 disables the timeout.
	CallTimeoutSecs int         `yaml:"call_timeout_secs"`
	Cache           CacheConfig `yaml:"cache"`
}

// Load reads a config from path. A missing file yields defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		OpenAI:          OpenAIConfig{APIKeyEnv: "OPENAI_API_KEY", Model: "text-embedding-3-small"},
		Gemini:          GeminiConfig{APIKeyEnv: "GEMINI_API_KEY"},
		Weights:         aggregate.DefaultWeights(),
		Strategy:        string(aggregate.StrategyMean),
		MaxConcurrency:  4,
		CallTimeoutSecs: 60,
		Cache:           CacheConfig{Type: "lru", Capacity: 1024},
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.OpenAI.APIKeyEnv == "" {
		cfg.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Gemini.APIKeyEnv == "" {
		cfg.Gemini.APIKeyEnv = "GEMINI_API_KEY"
	}
	if cfg.Strategy == "" {
		cfg.Strategy = string(aggregate.StrategyMean)
	}
	if cfg.Weights == (aggregate.Weights{}) {
		cfg.Weights = aggregate.DefaultWeights()
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = 4
	}
	if cfg.Cache.Type == "" {
		cfg.Cache.Type = "lru"
	}
	if cfg.Cache.Type == "lru" && cfg.Cache.Capacity == 0 {
		cfg.Cache.Capacity = 1024
	}
}
