// Package providers bundles constructors for the concrete embedding and
// vision providers, plus adapters composing them.
package providers

import (
	"context"

	"github.com/botirk38/docsim/providers/anthropic"
	"github.com/botirk38/docsim/providers/gemini"
	"github.com/botirk38/docsim/providers/openai"
	"github.com/botirk38/docsim/types"
)

// NewOpenAIProvider creates an OpenAI text embedding provider.
func NewOpenAIProvider(config openai.Config) (types.TextEmbeddingProvider, error) {
	return openai.New(config)
}

// NewGeminiProvider creates a Gemini image feature provider.
func NewGeminiProvider(ctx context.Context, config gemini.Config) (types.ImageFeatureProvider, error) {
	return gemini.New(ctx, config)
}

// NewAnthropicTagger creates a Claude image tagger.
func NewAnthropicTagger(config anthropic.Config) (types.ImageTagger, error) {
	return anthropic.New(config)
}

// taggedImageProvider derives image features by tagging the image and
// embedding the tag text with a text provider.
type taggedImageProvider struct {
	tagger   types.ImageTagger
	embedder types.TextEmbeddingProvider
}

// NewTaggedImageProvider composes an image tagger with a text embedding
// provider into an ImageFeatureProvider. Useful when the vision service
// (e.g. Claude) does not expose an embeddings endpoint of its own.
func NewTaggedImageProvider(tagger types.ImageTagger, embedder types.TextEmbeddingProvider) types.ImageFeatureProvider {
	return &taggedImageProvider{tagger: tagger, embedder: embedder}
}

func (p *taggedImageProvider) EmbedImage(ctx context.Context, img types.Image) (types.EmbeddingVector, error) {
	tags, err := p.tagger.TagImage(ctx, img)
	if err != nil {
		return nil, err
	}
	return p.embedder.EmbedText(ctx, tags)
}

func (p *taggedImageProvider) Close() {
	p.tagger.Close()
	p.embedder.Close()
}
