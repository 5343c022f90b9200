// Package metric provides similarity functions for comparing vectors.
//
// A similarity function scores two equal-length vectors; higher means more
// alike. Every function carries a declared Kind so that distance-based
// bookkeeping (cluster radii) can dispatch on the metric family instead of
// comparing function values.
package metric

import (
	"fmt"

	"github.com/hupe1980/clustervec/internal/math32"
)

// ErrDimensionMismatch indicates that two vectors being compared have
// different lengths.
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

// Error returns the error message for dimension mismatch.
func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Func scores the similarity of two equal-length vectors.
//
// Implementations must be symmetric (f(a,b) == f(b,a)) and return
// *ErrDimensionMismatch when the lengths differ.
type Func func(a, b []float32) (float32, error)

// Kind identifies the metric family of a similarity function.
type Kind int

// Constants representing the built-in metric families.
const (
	KindCosine Kind = iota
	KindEuclidean
	KindCustom
)

// String returns a string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindCosine:
		return "cosine"
	case KindEuclidean:
		return "euclidean"
	case KindCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// KindByName returns the Kind with the given stable name.
//
// This is used by self-describing snapshot formats that store the metric
// family as a tag.
func KindByName(name string) (Kind, bool) {
	switch name {
	case "cosine":
		return KindCosine, true
	case "euclidean":
		return KindEuclidean, true
	case "custom":
		return KindCustom, true
	default:
		return 0, false
	}
}

// Similarity pairs a similarity function with its declared metric family.
type Similarity struct {
	Kind Kind
	Func Func
}

// Cosine returns the built-in cosine similarity.
func Cosine() Similarity {
	return Similarity{Kind: KindCosine, Func: CosineSimilarity}
}

// Euclidean returns the built-in Euclidean-derived similarity.
func Euclidean() Similarity {
	return Similarity{Kind: KindEuclidean, Func: EuclideanSimilarity}
}

// Custom wraps a user-supplied similarity function.
//
// The function must satisfy the Func contract: symmetric, defined only for
// equal-length vectors.
func Custom(fn Func) Similarity {
	return Similarity{Kind: KindCustom, Func: fn}
}

// Score computes the similarity of a and b.
func (s Similarity) Score(a, b []float32) (float32, error) {
	return s.Func(a, b)
}

// Distance converts the similarity of a and b into a distance for radius
// bookkeeping. The cosine family uses 1 - similarity; every other family
// uses the raw Euclidean distance.
func (s Similarity) Distance(a, b []float32) (float32, error) {
	if s.Kind == KindCosine {
		sim, err := s.Func(a, b)
		if err != nil {
			return 0, err
		}
		return 1 - sim, nil
	}

	return EuclideanDistance(a, b)
}

// Magnitude calculates the magnitude (length) of a float32 slice.
func Magnitude(v []float32) float32 {
	return math32.Sqrt(math32.Dot(v, v))
}

// CosineSimilarity calculates the cosine similarity between two float32
// slices. It returns 0 if either vector has zero magnitude.
func CosineSimilarity(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, &ErrDimensionMismatch{Expected: len(a), Actual: len(b)}
	}

	dotProduct := math32.Dot(a, b)
	magnitudeA := Magnitude(a)
	magnitudeB := Magnitude(b)

	// Avoid division by zero
	if magnitudeA == 0 || magnitudeB == 0 {
		return 0, nil
	}

	return dotProduct / (magnitudeA * magnitudeB), nil
}

// EuclideanDistance calculates the L2 distance between two float32 slices.
func EuclideanDistance(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, &ErrDimensionMismatch{Expected: len(a), Actual: len(b)}
	}

	return math32.Sqrt(math32.SquaredL2(a, b)), nil
}

// EuclideanSimilarity calculates a similarity derived from the Euclidean
// distance: 1 / (1 + distance). It decreases monotonically from 1 (identical)
// toward 0 and is never negative.
func EuclideanSimilarity(a, b []float32) (float32, error) {
	d, err := EuclideanDistance(a, b)
	if err != nil {
		return 0, err
	}

	return 1 / (1 + d), nil
}
