package similarity

// DotProduct computes the raw dot product between two vectors.
// No normalization is applied, so results depend on vector magnitudes.
func DotProduct(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	if len(a) == 0 {
		return 0, ErrDegenerateVector
	}

	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}

	return dot, nil
}
