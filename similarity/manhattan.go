package similarity

import "math"

// Manhattan computes similarity based on Manhattan (L1) distance.
// Returns 1 / (1 + distance) to convert distance to similarity.
func Manhattan(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	if len(a) == 0 {
		return 0, ErrDegenerateVector
	}

	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}

	return 1 / (1 + sum), nil
}
