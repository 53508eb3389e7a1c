package similarity

import "math"

// Pearson computes the Pearson correlation coefficient, in [-1, 1],
// where 1 means perfect positive correlation. Constant vectors have no
// variance and fail with ErrDegenerateVector.
func Pearson(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	if len(a) == 0 {
		return 0, ErrDegenerateVector
	}

	n := float64(len(a))

	var meanA, meanB float64
	for i := range a {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= n
	meanB /= n

	var numerator, sumSqA, sumSqB float64
	for i := range a {
		diffA := a[i] - meanA
		diffB := b[i] - meanB
		numerator += diffA * diffB
		sumSqA += diffA * diffA
		sumSqB += diffB * diffB
	}

	denominator := math.Sqrt(sumSqA * sumSqB)
	if denominator == 0 {
		return 0, ErrDegenerateVector
	}

	return numerator / denominator, nil
}
