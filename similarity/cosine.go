package similarity

import "math"

// Cosine computes the cosine similarity dot(a,b) / (||a|| * ||b||),
// in [-1, 1]. It fails with ErrDimensionMismatch when the lengths differ
// and with ErrDegenerateVector when either magnitude is exactly zero, so
// callers never observe NaN or Inf.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	if len(a) == 0 {
		return 0, ErrDegenerateVector
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, ErrDegenerateVector
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
