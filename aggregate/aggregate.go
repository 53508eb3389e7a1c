// Package aggregate combines per-branch similarity scores into one
// document-level score under a configurable weighting policy.
package aggregate

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidWeights indicates the aggregation weights are outside the
// accepted policy. Raised at construction, before any remote call is made.
var ErrInvalidWeights = errors.New("aggregation weights must be non-negative and sum to 1")

// ErrInvalidStrategy indicates an unknown pair aggregation strategy.
var ErrInvalidStrategy = errors.New("unknown aggregation strategy")

// weightTolerance absorbs float representation error when checking that
// weights sum to 1.
const weightTolerance = 1e-9

// Weights assigns the proportion of the final score contributed by each
// sub-score. Text + Image must equal 1; weights are validated, not
// silently normalized.
type Weights struct {
	Text  float64 `json:"text" yaml:"text"`
	Image float64 `json:"image" yaml:"image"`
}

// DefaultWeights returns the reference weighting: 70% text, 30% image.
func DefaultWeights() Weights {
	return Weights{Text: 0.7, Image: 0.3}
}

// Validate checks the weights against the accepted policy.
func (w Weights) Validate() error {
	if w.Text < 0 || w.Image < 0 {
		return fmt.Errorf("%w: got text=%v image=%v", ErrInvalidWeights, w.Text, w.Image)
	}
	if math.Abs(w.Text+w.Image-1) > weightTolerance {
		return fmt.Errorf("%w: got text=%v image=%v", ErrInvalidWeights, w.Text, w.Image)
	}
	return nil
}

// Strategy selects how a set of pairwise image scores collapses into a
// single image-level score.
type Strategy string

const (
	// StrategyMean averages all cross-product pairs (reference behavior).
	StrategyMean Strategy = "mean"

	// StrategyMax takes the single most similar pair.
	StrategyMax Strategy = "max"

	// StrategyBestMatch averages each image's best counterpart in the other
	// document, symmetrically over both directions. Less sensitive than the
	// plain mean to documents that share some images but not all.
	StrategyBestMatch Strategy = "bestmatch"
)

// Validate checks that the strategy is one of the known values.
func (s Strategy) Validate() error {
	switch s {
	case StrategyMean, StrategyMax, StrategyBestMatch:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidStrategy, string(s))
}

// PairMatrix holds the pairwise similarity scores of document A's images
// (rows) against document B's (columns). It is transient: computed and
// owned entirely within one comparison.
type PairMatrix [][]float64

// Pairs returns the total number of scored pairs.
func (m PairMatrix) Pairs() int {
	n := 0
	for _, row := range m {
		n += len(row)
	}
	return n
}

// DefaultEmptyScore is returned for an empty pair set: no images to
// compare means the image branch cannot distinguish the documents, so they
// are treated as fully similar. Policy choice, overridable via Config.
const DefaultEmptyScore = 1.0

// Config holds the aggregation policy.
type Config struct {
	// Weights blends the text and image sub-scores.
	Weights Weights

	// Strategy collapses the pairwise image scores.
	Strategy Strategy

	// EmptyScore is the image sub-score when there are no pairs.
	EmptyScore float64
}

// DefaultConfig returns the reference policy: mean over all pairs,
// 0.7/0.3 weighting, empty set scored 1.0.
func DefaultConfig() Config {
	return Config{
		Weights:    DefaultWeights(),
		Strategy:   StrategyMean,
		EmptyScore: DefaultEmptyScore,
	}
}

// Validate checks the whole policy.
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	return c.Strategy.Validate()
}

// Aggregator applies a validated aggregation policy. Stateless after
// construction and safe for concurrent use.
type Aggregator struct {
	config Config
}

// New creates an Aggregator, failing fast on an invalid policy.
func New(config Config) (*Aggregator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Aggregator{config: config}, nil
}

// Weights returns the configured blend weights.
func (a *Aggregator) Weights() Weights { return a.config.Weights }

// AggregatePairs collapses a pair matrix into one image-level score using
// the configured strategy. An empty matrix yields the configured empty-set
// score.
func (a *Aggregator) AggregatePairs(m PairMatrix) float64 {
	if m.Pairs() == 0 {
		return a.config.EmptyScore
	}
	switch a.config.Strategy {
	case StrategyMax:
		return maxPairs(m)
	case StrategyBestMatch:
		return bestMatch(m)
	default:
		return meanPairs(m)
	}
}

// Combine blends the two sub-scores: weights.Text*textScore +
// weights.Image*imageScore.
func (a *Aggregator) Combine(textScore, imageScore float64) float64 {
	w := a.config.Weights
	return w.Text*textScore + w.Image*imageScore
}

func meanPairs(m PairMatrix) float64 {
	var sum float64
	n := 0
	for _, row := range m {
		for _, s := range row {
			sum += s
			n++
		}
	}
	return sum / float64(n)
}

func maxPairs(m PairMatrix) float64 {
	best := math.Inf(-1)
	for _, row := range m {
		for _, s := range row {
			if s > best {
				best = s
			}
		}
	}
	return best
}

// bestMatch averages each row's maximum and each column's maximum, then
// takes the mean of the two directions. A symmetric relaxation of optimal
// bipartite matching that stays O(rows*cols). Rows may be ragged (skipped
// pairs shorten them); empty rows and columns with no surviving entries are
// left out of their direction's average.
func bestMatch(m PairMatrix) float64 {
	cols := 0
	for _, row := range m {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return 0
	}

	var rowSum float64
	rows := 0
	colBest := make([]float64, cols)
	colSeen := make([]bool, cols)
	for _, row := range m {
		if len(row) == 0 {
			continue
		}
		rowBest := math.Inf(-1)
		for j, s := range row {
			if s > rowBest {
				rowBest = s
			}
			if !colSeen[j] || s > colBest[j] {
				colBest[j] = s
				colSeen[j] = true
			}
		}
		rowSum += rowBest
		rows++
	}
	if rows == 0 {
		return 0
	}

	var colSum float64
	seen := 0
	for j, s := range colBest {
		if colSeen[j] {
			colSum += s
			seen++
		}
	}

	return (rowSum/float64(rows) + colSum/float64(seen)) / 2
}
