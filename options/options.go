// Package options provides functional options for configuring similarity
// pipelines.
package options

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/botirk38/docsim/aggregate"
	"github.com/botirk38/docsim/cache"
	"github.com/botirk38/docsim/chunker"
	extractpdf "github.com/botirk38/docsim/extract/pdf"
	"github.com/botirk38/docsim/providers/gemini"
	"github.com/botirk38/docsim/providers/openai"
	"github.com/botirk38/docsim/similarity"
	"github.com/botirk38/docsim/types"
)

// Option represents a configuration option for a pipeline.
type Option func(*Config) error

// Config holds the configuration for building a pipeline. Zero values are
// filled in by NewConfig; collaborators without defaults are validated.
type Config struct {
	TextExtractor  types.TextExtractor
	ImageExtractor types.ImageExtractor
	TextProvider   types.TextEmbeddingProvider
	ImageProvider  types.ImageFeatureProvider

	Comparator  similarity.Func
	Aggregation aggregate.Config
	Chunking    chunker.Config

	// Cache stores embeddings keyed by content hash; nil disables caching.
	Cache cache.Store

	// MaxConcurrency caps concurrent remote feature-extraction calls.
	MaxConcurrency int

	// CallTimeout bounds each external call; zero means no timeout.
	CallTimeout time.Duration

	// SkipDegeneratePairs drops image pairs whose vectors are degenerate
	// instead of aborting the whole comparison.
	SkipDegeneratePairs bool

	Logger *logrus.Logger
}

// DefaultMaxConcurrency bounds image feature fan-out when not configured.
const DefaultMaxConcurrency = 4

// NewConfig creates a configuration with default values: PDF extractors,
// cosine comparison, the reference aggregation policy, and a concurrency
// cap of DefaultMaxConcurrency.
func NewConfig() *Config {
	return &Config{
		TextExtractor:  extractpdf.NewTextExtractor(),
		ImageExtractor: extractpdf.NewImageExtractor(),
		Comparator:     similarity.Cosine,
		Aggregation:    aggregate.DefaultConfig(),
		Chunking:       chunker.DefaultConfig(),
		MaxConcurrency: DefaultMaxConcurrency,
	}
}

// Apply applies all the given options to the config.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks if the configuration is complete and consistent.
// Weight validation happens here, before any remote call is made.
func (c *Config) Validate() error {
	if c.TextProvider == nil {
		return errors.New("text embedding provider is required - use WithOpenAIProvider or WithTextProvider")
	}
	if c.ImageProvider == nil {
		return errors.New("image feature provider is required - use WithGeminiProvider or WithImageProvider")
	}
	if c.TextExtractor == nil {
		return errors.New("text extractor cannot be nil")
	}
	if c.ImageExtractor == nil {
		return errors.New("image extractor cannot be nil")
	}
	if c.Comparator == nil {
		return errors.New("comparator cannot be nil")
	}
	if c.MaxConcurrency <= 0 {
		return errors.New("max concurrency must be positive")
	}
	if err := c.Aggregation.Validate(); err != nil {
		return err
	}
	return c.Chunking.Validate()
}

// WithOpenAIProvider sets up an OpenAI text embedding provider.
func WithOpenAIProvider(cfg openai.Config) Option {
	return func(c *Config) error {
		provider, err := openai.New(cfg)
		if err != nil {
			return err
		}
		c.TextProvider = provider
		return nil
	}
}

// WithGeminiProvider sets up a Gemini image feature provider. The client
// is created eagerly, so construction needs a context.
func WithGeminiProvider(ctx context.Context, cfg gemini.Config) Option {
	return func(c *Config) error {
		provider, err := gemini.New(ctx, cfg)
		if err != nil {
			return err
		}
		c.ImageProvider = provider
		return nil
	}
}

// WithTextProvider uses a pre-configured text embedding provider.
func WithTextProvider(provider types.TextEmbeddingProvider) Option {
	return func(c *Config) error {
		if provider == nil {
			return errors.New("provider cannot be nil")
		}
		c.TextProvider = provider
		return nil
	}
}

// WithImageProvider uses a pre-configured image feature provider.
func WithImageProvider(provider types.ImageFeatureProvider) Option {
	return func(c *Config) error {
		if provider == nil {
			return errors.New("provider cannot be nil")
		}
		c.ImageProvider = provider
		return nil
	}
}

// WithTextExtractor uses a pre-configured text extractor.
func WithTextExtractor(extractor types.TextExtractor) Option {
	return func(c *Config) error {
		if extractor == nil {
			return errors.New("extractor cannot be nil")
		}
		c.TextExtractor = extractor
		return nil
	}
}

// WithImageExtractor uses a pre-configured image extractor.
func WithImageExtractor(extractor types.ImageExtractor) Option {
	return func(c *Config) error {
		if extractor == nil {
			return errors.New("extractor cannot be nil")
		}
		c.ImageExtractor = extractor
		return nil
	}
}

// WithWeights sets the text/image blend weights.
func WithWeights(weights aggregate.Weights) Option {
	return func(c *Config) error {
		c.Aggregation.Weights = weights
		return nil
	}
}

// WithStrategy sets the image pair aggregation strategy.
func WithStrategy(strategy aggregate.Strategy) Option {
	return func(c *Config) error {
		c.Aggregation.Strategy = strategy
		return nil
	}
}

// WithEmptyImageScore overrides the image sub-score used when there are no
// image pairs to compare.
func WithEmptyImageScore(score float64) Option {
	return func(c *Config) error {
		c.Aggregation.EmptyScore = score
		return nil
	}
}

// WithComparator sets a custom vector similarity function.
func WithComparator(comparator similarity.Func) Option {
	return func(c *Config) error {
		if comparator == nil {
			return errors.New("comparator cannot be nil")
		}
		c.Comparator = comparator
		return nil
	}
}

// WithCache enables embedding caching through the given store.
func WithCache(store cache.Store) Option {
	return func(c *Config) error {
		if store == nil {
			return errors.New("cache store cannot be nil")
		}
		c.Cache = store
		return nil
	}
}

// WithChunking overrides the text chunking configuration.
func WithChunking(cfg chunker.Config) Option {
	return func(c *Config) error {
		c.Chunking = cfg
		return nil
	}
}

// WithMaxConcurrency caps concurrent remote feature-extraction calls.
func WithMaxConcurrency(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return errors.New("max concurrency must be positive")
		}
		c.MaxConcurrency = n
		return nil
	}
}

// WithCallTimeout bounds each external call with the given timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Config) error {
		if d < 0 {
			return errors.New("call timeout cannot be negative")
		}
		c.CallTimeout = d
		return nil
	}
}

// WithSkipDegeneratePairs drops image pairs with degenerate vectors
// instead of failing the comparison.
func WithSkipDegeneratePairs() Option {
	return func(c *Config) error {
		c.SkipDegeneratePairs = true
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Config) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.Logger = logger
		return nil
	}
}
