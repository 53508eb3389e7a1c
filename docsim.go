// Package docsim scores the similarity of two PDF documents by blending a
// text-embedding comparison with a pairwise image-feature comparison.
package docsim

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/botirk38/docsim/aggregate"
	"github.com/botirk38/docsim/cache"
	"github.com/botirk38/docsim/chunker"
	"github.com/botirk38/docsim/options"
	"github.com/botirk38/docsim/similarity"
	"github.com/botirk38/docsim/types"
)

// Pipeline compares pairs of documents. It is stateless between
// comparisons and safe for concurrent use; each Compare call owns its own
// vectors and intermediate scores.
type Pipeline struct {
	textExtractor  types.TextExtractor
	imageExtractor types.ImageExtractor
	textProvider   types.TextEmbeddingProvider
	imageProvider  types.ImageFeatureProvider

	comparator similarity.Func
	aggregator *aggregate.Aggregator
	splitter   *chunker.Splitter
	store      cache.Store

	maxConcurrency int
	callTimeout    time.Duration
	skipDegenerate bool

	log *logrus.Logger
}

// New creates a Pipeline with functional options. Configuration problems,
// including invalid aggregation weights, fail here - before any remote
// call is made.
func New(opts ...options.Option) (*Pipeline, error) {
	cfg := options.NewConfig()
	if err := cfg.Apply(opts...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	aggregator, err := aggregate.New(cfg.Aggregation)
	if err != nil {
		return nil, err
	}
	splitter, err := chunker.NewSplitter(cfg.Chunking)
	if err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}

	return &Pipeline{
		textExtractor:  cfg.TextExtractor,
		imageExtractor: cfg.ImageExtractor,
		textProvider:   cfg.TextProvider,
		imageProvider:  cfg.ImageProvider,
		comparator:     cfg.Comparator,
		aggregator:     aggregator,
		splitter:       splitter,
		store:          cfg.Cache,
		maxConcurrency: cfg.MaxConcurrency,
		callTimeout:    cfg.CallTimeout,
		skipDegenerate: cfg.SkipDegeneratePairs,
		log:            log,
	}, nil
}

// Compare scores the similarity of the documents at pathA and pathB.
// The text and image branches run concurrently; a failure in either aborts
// the comparison and surfaces as a *StageError wrapping the original cause.
func (p *Pipeline) Compare(ctx context.Context, pathA, pathB string) (types.Result, error) {
	var (
		textScore  float64
		imageScore float64
		pairs      int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		score, err := p.textSimilarity(gctx, pathA, pathB)
		if err != nil {
			return err
		}
		textScore = score
		return nil
	})
	g.Go(func() error {
		score, n, err := p.imageSimilarity(gctx, pathA, pathB)
		if err != nil {
			return err
		}
		imageScore = score
		pairs = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return types.Result{}, err
	}

	result := types.Result{
		Score:      p.aggregator.Combine(textScore, imageScore),
		TextScore:  textScore,
		ImageScore: imageScore,
		ImagePairs: pairs,
	}

	p.log.WithFields(logrus.Fields{
		"a":           pathA,
		"b":           pathB,
		"score":       result.Score,
		"text_score":  result.TextScore,
		"image_score": result.ImageScore,
		"image_pairs": result.ImagePairs,
	}).Info("document comparison complete")

	return result, nil
}

// Close releases the providers and the cache store.
func (p *Pipeline) Close() error {
	p.textProvider.Close()
	p.imageProvider.Close()
	if p.store != nil {
		return p.store.Close()
	}
	return nil
}

func (p *Pipeline) textSimilarity(ctx context.Context, pathA, pathB string) (float64, error) {
	var vecs [2]types.EmbeddingVector

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range []string{pathA, pathB} {
		g.Go(func() error {
			text, err := p.extractText(gctx, path)
			if err != nil {
				return &StageError{Stage: StageTextExtract, Err: err}
			}
			vec, err := p.embedText(gctx, text)
			if err != nil {
				return &StageError{Stage: StageTextEmbed, Err: err}
			}
			vecs[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	score, err := p.comparator(vecs[0], vecs[1])
	if err != nil {
		return 0, &StageError{Stage: StageScore, Err: err}
	}
	return score, nil
}

func (p *Pipeline) imageSimilarity(ctx context.Context, pathA, pathB string) (float64, int, error) {
	var sets [2][]types.Image

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range []string{pathA, pathB} {
		g.Go(func() error {
			images, err := p.extractImages(gctx, path)
			if err != nil {
				return &StageError{Stage: StageImageExtract, Err: err}
			}
			sets[i] = images
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}

	// Either side having no images means an empty pairwise set; the
	// aggregator supplies the configured default without remote calls.
	if len(sets[0]) == 0 || len(sets[1]) == 0 {
		return p.aggregator.AggregatePairs(nil), 0, nil
	}

	vecsA, vecsB, err := p.embedImageSets(ctx, sets[0], sets[1])
	if err != nil {
		return 0, 0, err
	}

	matrix := make(aggregate.PairMatrix, len(vecsA))
	for i, a := range vecsA {
		row := make([]float64, 0, len(vecsB))
		for _, b := range vecsB {
			score, err := p.comparator(a, b)
			if err != nil {
				if p.skipDegenerate && errors.Is(err, similarity.ErrDegenerateVector) {
					p.log.WithField("row", i).Warn("skipping degenerate image pair")
					continue
				}
				return 0, 0, &StageError{Stage: StageScore, Err: err}
			}
			row = append(row, score)
		}
		matrix[i] = row
	}

	return p.aggregator.AggregatePairs(matrix), matrix.Pairs(), nil
}

// embedImageSets embeds every image of both documents exactly once, fanning
// the remote calls out under the configured concurrency cap.
func (p *Pipeline) embedImageSets(ctx context.Context, a, b []types.Image) ([]types.EmbeddingVector, []types.EmbeddingVector, error) {
	vecsA := make([]types.EmbeddingVector, len(a))
	vecsB := make([]types.EmbeddingVector, len(b))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxConcurrency)
	for i, img := range a {
		g.Go(func() error {
			vec, err := p.embedImage(gctx, img)
			if err != nil {
				return &StageError{Stage: StageImageEmbed, Err: err}
			}
			vecsA[i] = vec
			return nil
		})
	}
	for i, img := range b {
		g.Go(func() error {
			vec, err := p.embedImage(gctx, img)
			if err != nil {
				return &StageError{Stage: StageImageEmbed, Err: err}
			}
			vecsB[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return vecsA, vecsB, nil
}

func (p *Pipeline) extractText(ctx context.Context, path string) (string, error) {
	ctx, cancel := p.callContext(ctx)
	defer cancel()
	return p.textExtractor.ExtractText(ctx, path)
}

func (p *Pipeline) extractImages(ctx context.Context, path string) ([]types.Image, error) {
	ctx, cancel := p.callContext(ctx)
	defer cancel()
	return p.imageExtractor.ExtractImages(ctx, path)
}

// embedText chunks long text to respect the embedding model's input limit
// and mean-pools the chunk vectors back into one document vector.
func (p *Pipeline) embedText(ctx context.Context, text string) (types.EmbeddingVector, error) {
	key := cache.Key("text", []byte(text))
	if vec, ok := p.cacheGet(ctx, key); ok {
		return vec, nil
	}

	chunks := []string{text}
	if text != "" {
		var err error
		chunks, err = p.splitter.Split(text)
		if err != nil {
			return nil, err
		}
	}

	vectors := make([]types.EmbeddingVector, len(chunks))
	for i, chunk := range chunks {
		callCtx, cancel := p.callContext(ctx)
		vec, err := p.textProvider.EmbedText(callCtx, chunk)
		cancel()
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}

	pooled, err := meanPool(vectors)
	if err != nil {
		return nil, err
	}

	p.cacheSet(ctx, key, pooled)
	return pooled, nil
}

func (p *Pipeline) embedImage(ctx context.Context, img types.Image) (types.EmbeddingVector, error) {
	key := cache.Key("image", img.Data)
	if vec, ok := p.cacheGet(ctx, key); ok {
		return vec, nil
	}

	callCtx, cancel := p.callContext(ctx)
	defer cancel()
	vec, err := p.imageProvider.EmbedImage(callCtx, img)
	if err != nil {
		return nil, err
	}

	p.cacheSet(ctx, key, vec)
	return vec, nil
}

// cacheGet treats cache failures as misses: a broken cache degrades to
// extra remote calls, never to a failed comparison.
func (p *Pipeline) cacheGet(ctx context.Context, key string) (types.EmbeddingVector, bool) {
	if p.store == nil {
		return nil, false
	}
	vec, ok, err := p.store.Get(ctx, key)
	if err != nil {
		p.log.WithError(err).Warn("embedding cache read failed")
		return nil, false
	}
	return vec, ok
}

func (p *Pipeline) cacheSet(ctx context.Context, key string, vec types.EmbeddingVector) {
	if p.store == nil {
		return
	}
	if err := p.store.Set(ctx, key, vec); err != nil {
		p.log.WithError(err).Warn("embedding cache write failed")
	}
}

func (p *Pipeline) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.callTimeout > 0 {
		return context.WithTimeout(ctx, p.callTimeout)
	}
	return context.WithCancel(ctx)
}

// meanPool averages the chunk vectors element-wise. All chunks come from
// the same model, so a length mismatch indicates a provider bug.
func meanPool(vectors []types.EmbeddingVector) (types.EmbeddingVector, error) {
	if len(vectors) == 1 {
		return vectors[0], nil
	}

	dim := len(vectors[0])
	pooled := make(types.EmbeddingVector, dim)
	for _, vec := range vectors {
		if len(vec) != dim {
			return nil, similarity.ErrDimensionMismatch
		}
		for i, v := range vec {
			pooled[i] += v
		}
	}
	n := float64(len(vectors))
	for i := range pooled {
		pooled[i] /= n
	}
	return pooled, nil
}
