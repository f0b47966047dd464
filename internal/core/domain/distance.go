package domain

import (
	"fmt"
	"math"
)

// DistanceFunc is the similarity metric a collection ranks neighbours with.
// Chosen once at collection creation and immutable thereafter.
type DistanceFunc string

const (
	DistanceCosine DistanceFunc = "cosine"
	DistanceL2     DistanceFunc = "l2"
	DistanceDot    DistanceFunc = "dot"
)

// ParseDistanceFunc validates a distance function name
func ParseDistanceFunc(s string) (DistanceFunc, error) {
	switch DistanceFunc(s) {
	case DistanceCosine, DistanceL2, DistanceDot:
		return DistanceFunc(s), nil
	case "":
		return DistanceCosine, nil
	default:
		return "", fmt.Errorf("%w: unknown distance function %q", ErrInvalidInput, s)
	}
}

// Between computes the distance between two vectors of equal length.
// Smaller is always better: cosine similarity is mapped to 1-sim and
// inner product to its negation so all three metrics rank ascending.
func (d DistanceFunc) Between(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("%w: empty vectors", ErrDimensionMismatch)
	}

	switch d {
	case DistanceL2:
		var sum float64
		for i := range a {
			diff := float64(a[i]) - float64(b[i])
			sum += diff * diff
		}
		return math.Sqrt(sum), nil

	case DistanceDot:
		var dot float64
		for i := range a {
			dot += float64(a[i]) * float64(b[i])
		}
		return -dot, nil

	case DistanceCosine:
		var dot, na, nb float64
		for i := range a {
			va := float64(a[i])
			vb := float64(b[i])
			dot += va * vb
			na += va * va
			nb += vb * vb
		}
		if na == 0 || nb == 0 {
			// Zero-magnitude vectors are maximally distant
			return 1, nil
		}
		return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb)), nil

	default:
		return 0, fmt.Errorf("%w: unknown distance function %q", ErrInvalidInput, string(d))
	}
}
