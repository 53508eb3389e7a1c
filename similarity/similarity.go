// Package similarity provides vector comparison functions for embedding
// vectors. All functions are pure and safe for concurrent use.
package similarity

// Func computes a similarity score between two embedding vectors.
// Higher values indicate greater similarity. Implementations must fail
// with ErrDimensionMismatch when the lengths differ instead of silently
// truncating or padding.
type Func func(a, b []float64) (float64, error)
