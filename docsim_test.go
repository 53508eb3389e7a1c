package docsim

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/botirk38/docsim/aggregate"
	"github.com/botirk38/docsim/cache"
	"github.com/botirk38/docsim/options"
	"github.com/botirk38/docsim/similarity"
	"github.com/botirk38/docsim/types"
)

// Mock extractors backed by in-memory fixtures keyed by path.

type mockTextExtractor struct {
	texts     map[string]string
	shouldErr bool
}

func (m *mockTextExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	if m.shouldErr {
		return "", &types.ExtractionError{Path: path, Err: errors.New("mock extraction failure")}
	}
	return m.texts[path], nil
}

type mockImageExtractor struct {
	images map[string][]types.Image
}

func (m *mockImageExtractor) ExtractImages(ctx context.Context, path string) ([]types.Image, error) {
	return m.images[path], nil
}

// mockTextProvider returns a fixed vector per known text and a shared
// fallback for everything else, so identical inputs embed identically.
type mockTextProvider struct {
	embeddings map[string][]float64
	shouldErr  error
	calls      atomic.Int64
}

func (m *mockTextProvider) EmbedText(ctx context.Context, text string) (types.EmbeddingVector, error) {
	m.calls.Add(1)
	if m.shouldErr != nil {
		return nil, m.shouldErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if vec, ok := m.embeddings[text]; ok {
		return vec, nil
	}
	return []float64{0.5, 0.5, 0.5}, nil
}

func (m *mockTextProvider) Close() {}

type mockImageProvider struct {
	mu         sync.Mutex
	inFlight   int
	maxSeen    int
	shouldErr  error
	embeddings map[string][]float64
}

func (m *mockImageProvider) EmbedImage(ctx context.Context, img types.Image) (types.EmbeddingVector, error) {
	m.mu.Lock()
	m.inFlight++
	if m.inFlight > m.maxSeen {
		m.maxSeen = m.inFlight
	}
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if m.shouldErr != nil {
		return nil, m.shouldErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if vec, ok := m.embeddings[string(img.Data)]; ok {
		return vec, nil
	}
	return []float64{1, 0, 0}, nil
}

func (m *mockImageProvider) Close() {}

func jpeg(name string) types.Image {
	return types.Image{Data: []byte(name), MIMEType: "image/jpeg", Page: 1, Name: name}
}

func newTestPipeline(t *testing.T, texts *mockTextExtractor, images *mockImageExtractor, textP *mockTextProvider, imageP *mockImageProvider, extra ...options.Option) *Pipeline {
	t.Helper()
	opts := append([]options.Option{
		options.WithTextExtractor(texts),
		options.WithImageExtractor(images),
		options.WithTextProvider(textP),
		options.WithImageProvider(imageP),
	}, extra...)
	p, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestCompareIdenticalDocuments(t *testing.T) {
	texts := &mockTextExtractor{texts: map[string]string{
		"a.pdf": "the same report",
		"b.pdf": "the same report",
	}}
	images := &mockImageExtractor{images: map[string][]types.Image{
		"a.pdf": {jpeg("chart")},
		"b.pdf": {jpeg("chart")},
	}}
	textP := &mockTextProvider{embeddings: map[string][]float64{
		"the same report": {0.2, 0.4, 0.9},
	}}
	imageP := &mockImageProvider{embeddings: map[string][]float64{
		"chart": {0.7, 0.1, 0.3},
	}}

	p := newTestPipeline(t, texts, images, textP, imageP)
	result, err := p.Compare(context.Background(), "a.pdf", "b.pdf")
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	if math.Abs(result.Score-1.0) > 1e-9 {
		t.Errorf("Score = %f, want 1.0", result.Score)
	}
	if math.Abs(result.TextScore-1.0) > 1e-9 {
		t.Errorf("TextScore = %f, want 1.0", result.TextScore)
	}
	if math.Abs(result.ImageScore-1.0) > 1e-9 {
		t.Errorf("ImageScore = %f, want 1.0", result.ImageScore)
	}
	if result.ImagePairs != 1 {
		t.Errorf("ImagePairs = %d, want 1", result.ImagePairs)
	}
}

func TestCompareNoImages(t *testing.T) {
	texts := &mockTextExtractor{texts: map[string]string{
		"a.pdf": "alpha",
		"b.pdf": "beta",
	}}
	images := &mockImageExtractor{images: map[string][]types.Image{}}
	textP := &mockTextProvider{embeddings: map[string][]float64{
		"alpha": {1, 0, 0},
		"beta":  {1, 1, 0},
	}}
	imageP := &mockImageProvider{}

	p := newTestPipeline(t, texts, images, textP, imageP)
	result, err := p.Compare(context.Background(), "a.pdf", "b.pdf")
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	if result.ImageScore != 1.0 {
		t.Errorf("ImageScore = %f, want empty-set default 1.0", result.ImageScore)
	}
	if result.ImagePairs != 0 {
		t.Errorf("ImagePairs = %d, want 0", result.ImagePairs)
	}

	// text cosine of (1,0,0) and (1,1,0) is 1/sqrt(2)
	wantText := 1 / math.Sqrt2
	if math.Abs(result.TextScore-wantText) > 1e-9 {
		t.Errorf("TextScore = %f, want %f", result.TextScore, wantText)
	}
	want := 0.7*wantText + 0.3*1.0
	if math.Abs(result.Score-want) > 1e-9 {
		t.Errorf("Score = %f, want %f", result.Score, want)
	}
}

func TestCompareOneSidedImagesUsesEmptyDefault(t *testing.T) {
	texts := &mockTextExtractor{texts: map[string]string{"a.pdf": "x", "b.pdf": "x"}}
	images := &mockImageExtractor{images: map[string][]types.Image{
		"a.pdf": {jpeg("only here")},
	}}
	textP := &mockTextProvider{}
	imageP := &mockImageProvider{}

	p := newTestPipeline(t, texts, images, textP, imageP)
	result, err := p.Compare(context.Background(), "a.pdf", "b.pdf")
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if result.ImageScore != 1.0 || result.ImagePairs != 0 {
		t.Errorf("got (score=%f, pairs=%d), want empty-set default", result.ImageScore, result.ImagePairs)
	}
}

func TestCompareExtractionErrorAbortsPipeline(t *testing.T) {
	texts := &mockTextExtractor{shouldErr: true}
	images := &mockImageExtractor{}
	p := newTestPipeline(t, texts, images, &mockTextProvider{}, &mockImageProvider{})

	_, err := p.Compare(context.Background(), "a.pdf", "b.pdf")

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected *StageError, got %v", err)
	}
	if stageErr.Stage != StageTextExtract {
		t.Errorf("Stage = %s, want %s", stageErr.Stage, StageTextExtract)
	}
	var extractionErr *types.ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Error("underlying *types.ExtractionError should remain reachable")
	}
}

func TestCompareProviderErrorPropagatesUnchanged(t *testing.T) {
	cause := &types.ProviderError{Provider: "openai", StatusCode: 429, Message: "rate limited"}
	texts := &mockTextExtractor{texts: map[string]string{"a.pdf": "x", "b.pdf": "y"}}
	p := newTestPipeline(t, texts, &mockImageExtractor{}, &mockTextProvider{shouldErr: cause}, &mockImageProvider{})

	_, err := p.Compare(context.Background(), "a.pdf", "b.pdf")

	var providerErr *types.ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected *types.ProviderError, got %v", err)
	}
	if providerErr.StatusCode != 429 {
		t.Errorf("StatusCode = %d, want 429", providerErr.StatusCode)
	}
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageTextEmbed {
		t.Errorf("expected failing stage %s, got %v", StageTextEmbed, err)
	}
}

func TestCompareInvalidWeightsFailFast(t *testing.T) {
	_, err := New(
		options.WithTextProvider(&mockTextProvider{}),
		options.WithImageProvider(&mockImageProvider{}),
		options.WithWeights(aggregate.Weights{Text: 0.9, Image: 0.5}),
	)
	if !errors.Is(err, aggregate.ErrInvalidWeights) {
		t.Errorf("expected ErrInvalidWeights at construction, got %v", err)
	}
}

func TestCompareRespectsConcurrencyCap(t *testing.T) {
	images := map[string][]types.Image{}
	for _, doc := range []string{"a.pdf", "b.pdf"} {
		for i := 0; i < 8; i++ {
			images[doc] = append(images[doc], jpeg(doc+"-img-"+string(rune('0'+i))))
		}
	}

	texts := &mockTextExtractor{texts: map[string]string{"a.pdf": "x", "b.pdf": "x"}}
	imageP := &mockImageProvider{}
	p := newTestPipeline(t, texts, &mockImageExtractor{images: images}, &mockTextProvider{}, imageP,
		options.WithMaxConcurrency(2))

	if _, err := p.Compare(context.Background(), "a.pdf", "b.pdf"); err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if imageP.maxSeen > 2 {
		t.Errorf("observed %d concurrent image embeds, cap is 2", imageP.maxSeen)
	}
}

func TestCompareCancellation(t *testing.T) {
	texts := &mockTextExtractor{texts: map[string]string{"a.pdf": "x", "b.pdf": "y"}}
	p := newTestPipeline(t, texts, &mockImageExtractor{}, &mockTextProvider{}, &mockImageProvider{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Compare(ctx, "a.pdf", "b.pdf"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCompareUsesEmbeddingCache(t *testing.T) {
	store, err := cache.NewLRUStore(16)
	if err != nil {
		t.Fatal(err)
	}

	texts := &mockTextExtractor{texts: map[string]string{"a.pdf": "same", "b.pdf": "same"}}
	textP := &mockTextProvider{}
	p := newTestPipeline(t, texts, &mockImageExtractor{}, textP, &mockImageProvider{},
		options.WithCache(store))

	if _, err := p.Compare(context.Background(), "a.pdf", "b.pdf"); err != nil {
		t.Fatalf("Compare: %v", err)
	}
	first := textP.calls.Load()
	if first == 0 {
		t.Fatal("expected at least one remote embed on a cold cache")
	}

	if _, err := p.Compare(context.Background(), "a.pdf", "b.pdf"); err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if textP.calls.Load() != first {
		t.Errorf("expected cache hits on second run, calls went %d -> %d", first, textP.calls.Load())
	}
}

func TestCompareDegenerateImageVector(t *testing.T) {
	texts := &mockTextExtractor{texts: map[string]string{"a.pdf": "x", "b.pdf": "x"}}
	images := &mockImageExtractor{images: map[string][]types.Image{
		"a.pdf": {jpeg("blank"), jpeg("photo")},
		"b.pdf": {jpeg("photo")},
	}}
	imageP := &mockImageProvider{embeddings: map[string][]float64{
		"blank": {0, 0, 0},
		"photo": {0.3, 0.3, 0.9},
	}}

	t.Run("aborts by default", func(t *testing.T) {
		p := newTestPipeline(t, texts, images, &mockTextProvider{}, imageP)
		_, err := p.Compare(context.Background(), "a.pdf", "b.pdf")

		var stageErr *StageError
		if !errors.As(err, &stageErr) || stageErr.Stage != StageScore {
			t.Fatalf("expected StageScore error, got %v", err)
		}
		if !errors.Is(err, similarity.ErrDegenerateVector) {
			t.Errorf("expected ErrDegenerateVector cause, got %v", err)
		}
	})

	t.Run("skips the pair when configured", func(t *testing.T) {
		p := newTestPipeline(t, texts, images, &mockTextProvider{}, imageP,
			options.WithSkipDegeneratePairs())
		result, err := p.Compare(context.Background(), "a.pdf", "b.pdf")
		if err != nil {
			t.Fatalf("Compare: %v", err)
		}
		if result.ImagePairs != 1 {
			t.Errorf("ImagePairs = %d, want 1 (degenerate pair skipped)", result.ImagePairs)
		}
		if math.Abs(result.ImageScore-1.0) > 1e-9 {
			t.Errorf("ImageScore = %f, want 1.0 from the surviving pair", result.ImageScore)
		}
	})
}

func TestCompareBestMatchStrategy(t *testing.T) {
	texts := &mockTextExtractor{texts: map[string]string{"a.pdf": "x", "b.pdf": "x"}}
	images := &mockImageExtractor{images: map[string][]types.Image{
		"a.pdf": {jpeg("sun"), jpeg("moon")},
		"b.pdf": {jpeg("sun"), jpeg("moon")},
	}}
	imageP := &mockImageProvider{embeddings: map[string][]float64{
		"sun":  {1, 0, 0},
		"moon": {0, 1, 0},
	}}

	p := newTestPipeline(t, texts, images, &mockTextProvider{}, imageP,
		options.WithStrategy(aggregate.StrategyBestMatch))

	result, err := p.Compare(context.Background(), "a.pdf", "b.pdf")
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	// Every image has a perfect counterpart; the plain mean over the
	// cross product would only give 0.5 here.
	if math.Abs(result.ImageScore-1.0) > 1e-9 {
		t.Errorf("ImageScore = %f, want 1.0 under best-match", result.ImageScore)
	}
}

func TestCompareBestMatchWithSkippedPairs(t *testing.T) {
	// A degenerate image empties its entire row of the pair matrix when
	// skipping is enabled; best-match must score the surviving pairs
	// instead of panicking or collapsing to 0.
	texts := &mockTextExtractor{texts: map[string]string{"a.pdf": "x", "b.pdf": "x"}}
	images := &mockImageExtractor{images: map[string][]types.Image{
		"a.pdf": {jpeg("blank"), jpeg("photo")},
		"b.pdf": {jpeg("blank"), jpeg("photo")},
	}}
	imageP := &mockImageProvider{embeddings: map[string][]float64{
		"blank": {0, 0, 0},
		"photo": {0.3, 0.3, 0.9},
	}}

	p := newTestPipeline(t, texts, images, &mockTextProvider{}, imageP,
		options.WithStrategy(aggregate.StrategyBestMatch),
		options.WithSkipDegeneratePairs())

	result, err := p.Compare(context.Background(), "a.pdf", "b.pdf")
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if result.ImagePairs != 1 {
		t.Errorf("ImagePairs = %d, want 1 (three degenerate pairs skipped)", result.ImagePairs)
	}
	if math.Abs(result.ImageScore-1.0) > 1e-9 {
		t.Errorf("ImageScore = %f, want 1.0 from the surviving pair", result.ImageScore)
	}
	if math.IsNaN(result.Score) || math.IsInf(result.Score, 0) {
		t.Errorf("Score = %f, want a finite value", result.Score)
	}
}
