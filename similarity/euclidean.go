package similarity

import "math"

// Euclidean computes similarity based on Euclidean distance.
// Returns 1 / (1 + distance), always in (0, 1], where 1 means identical
// vectors.
func Euclidean(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	if len(a) == 0 {
		return 0, ErrDegenerateVector
	}

	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}

	return 1 / (1 + math.Sqrt(sum)), nil
}
