package similarity

import "errors"

var (
	// ErrDimensionMismatch indicates the two vectors have different lengths.
	// The comparison is undefined; it is never truncated or padded.
	ErrDimensionMismatch = errors.New("vector dimensions do not match")

	// ErrDegenerateVector indicates a zero-magnitude (or empty) vector.
	// Cosine similarity is undefined for it; the error replaces the NaN a
	// naive division would produce.
	ErrDegenerateVector = errors.New("degenerate zero-magnitude vector")
)
