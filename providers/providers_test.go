package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/botirk38/docsim/types"
)

type fakeTagger struct {
	tags string
	err  error
}

func (f *fakeTagger) TagImage(ctx context.Context, img types.Image) (string, error) {
	return f.tags, f.err
}
func (f *fakeTagger) Close() {}

type fakeEmbedder struct {
	byText map[string][]float64
}

func (f *fakeEmbedder) EmbedText(ctx context.Context, text string) (types.EmbeddingVector, error) {
	if vec, ok := f.byText[text]; ok {
		return vec, nil
	}
	return nil, errors.New("unknown text")
}
func (f *fakeEmbedder) Close() {}

func TestTaggedImageProvider(t *testing.T) {
	tagger := &fakeTagger{tags: "cat, sofa"}
	embedder := &fakeEmbedder{byText: map[string][]float64{
		"cat, sofa": {0.1, 0.9},
	}}
	provider := NewTaggedImageProvider(tagger, embedder)

	vec, err := provider.EmbedImage(context.Background(), types.Image{Data: []byte("jpeg"), MIMEType: "image/jpeg"})
	if err != nil {
		t.Fatalf("EmbedImage: %v", err)
	}
	if len(vec) != 2 || vec[1] != 0.9 {
		t.Errorf("unexpected vector %v", vec)
	}
}

func TestTaggedImageProviderPropagatesTaggerError(t *testing.T) {
	cause := &types.ProviderError{Provider: "anthropic", StatusCode: 529, Message: "overloaded"}
	provider := NewTaggedImageProvider(&fakeTagger{err: cause}, &fakeEmbedder{})

	_, err := provider.EmbedImage(context.Background(), types.Image{})

	var perr *types.ProviderError
	if !errors.As(err, &perr) || perr.StatusCode != 529 {
		t.Errorf("expected the tagger's ProviderError, got %v", err)
	}
}
