package options

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/botirk38/docsim/aggregate"
	"github.com/botirk38/docsim/similarity"
	"github.com/botirk38/docsim/types"
)

type stubTextProvider struct{}

func (stubTextProvider) EmbedText(ctx context.Context, text string) (types.EmbeddingVector, error) {
	return types.EmbeddingVector{1}, nil
}
func (stubTextProvider) Close() {}

type stubImageProvider struct{}

func (stubImageProvider) EmbedImage(ctx context.Context, img types.Image) (types.EmbeddingVector, error) {
	return types.EmbeddingVector{1}, nil
}
func (stubImageProvider) Close() {}

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	if cfg.TextExtractor == nil || cfg.ImageExtractor == nil {
		t.Error("expected PDF extractors by default")
	}
	if cfg.Comparator == nil {
		t.Error("expected cosine comparator by default")
	}
	if cfg.MaxConcurrency != DefaultMaxConcurrency {
		t.Errorf("MaxConcurrency = %d, want %d", cfg.MaxConcurrency, DefaultMaxConcurrency)
	}
	if cfg.Aggregation.Strategy != aggregate.StrategyMean {
		t.Errorf("Strategy = %s, want mean", cfg.Aggregation.Strategy)
	}
	if w := cfg.Aggregation.Weights; w.Text != 0.7 || w.Image != 0.3 {
		t.Errorf("Weights = %+v, want {0.7 0.3}", w)
	}
}

func TestValidateRequiresProviders(t *testing.T) {
	cfg := NewConfig()
	if err := cfg.Validate(); err == nil {
		t.Error("expected error without providers")
	}

	cfg.TextProvider = stubTextProvider{}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error without image provider")
	}

	cfg.ImageProvider = stubImageProvider{}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestApplyOptions(t *testing.T) {
	cfg := NewConfig()
	err := cfg.Apply(
		WithTextProvider(stubTextProvider{}),
		WithImageProvider(stubImageProvider{}),
		WithWeights(aggregate.Weights{Text: 0.5, Image: 0.5}),
		WithStrategy(aggregate.StrategyMax),
		WithEmptyImageScore(0),
		WithComparator(similarity.Pearson),
		WithMaxConcurrency(8),
		WithCallTimeout(30*time.Second),
		WithSkipDegeneratePairs(),
	)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Aggregation.Weights.Text != 0.5 {
		t.Errorf("Weights.Text = %f, want 0.5", cfg.Aggregation.Weights.Text)
	}
	if cfg.Aggregation.Strategy != aggregate.StrategyMax {
		t.Errorf("Strategy = %s, want max", cfg.Aggregation.Strategy)
	}
	if cfg.Aggregation.EmptyScore != 0 {
		t.Errorf("EmptyScore = %f, want 0", cfg.Aggregation.EmptyScore)
	}
	if cfg.MaxConcurrency != 8 {
		t.Errorf("MaxConcurrency = %d, want 8", cfg.MaxConcurrency)
	}
	if cfg.CallTimeout != 30*time.Second {
		t.Errorf("CallTimeout = %v, want 30s", cfg.CallTimeout)
	}
	if !cfg.SkipDegeneratePairs {
		t.Error("SkipDegeneratePairs should be set")
	}
}

func TestInvalidOptionValues(t *testing.T) {
	cfg := NewConfig()

	if err := cfg.Apply(WithTextProvider(nil)); err == nil {
		t.Error("expected error for nil provider")
	}
	if err := cfg.Apply(WithComparator(nil)); err == nil {
		t.Error("expected error for nil comparator")
	}
	if err := cfg.Apply(WithMaxConcurrency(0)); err == nil {
		t.Error("expected error for zero concurrency")
	}
	if err := cfg.Apply(WithCallTimeout(-time.Second)); err == nil {
		t.Error("expected error for negative timeout")
	}
}

func TestValidateSurfacesInvalidWeights(t *testing.T) {
	cfg := NewConfig()
	cfg.TextProvider = stubTextProvider{}
	cfg.ImageProvider = stubImageProvider{}
	cfg.Aggregation.Weights = aggregate.Weights{Text: 0.9, Image: 0.2}

	if err := cfg.Validate(); !errors.Is(err, aggregate.ErrInvalidWeights) {
		t.Errorf("expected ErrInvalidWeights, got %v", err)
	}
}
