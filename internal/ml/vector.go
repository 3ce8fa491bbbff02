package ml

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// CosineSimilarity measures directional similarity of two vectors independent of
// magnitude. Mismatched lengths or a zero vector yield 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	dot := floats.Dot(a, b)
	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (normA * normB)
}

// EuclideanDistance returns the L2 distance between two vectors of equal length,
// or +Inf when lengths differ.
func EuclideanDistance(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}

	diff := make([]float64, len(a))
	floats.SubTo(diff, a, b)
	return floats.Norm(diff, 2)
}

// L2Normalize scales the vector to unit length in place and returns it. A zero
// vector is returned unchanged so empty histories stay zero.
func L2Normalize(v []float64) []float64 {
	norm := floats.Norm(v, 2)
	if norm == 0 {
		return v
	}
	floats.Scale(1/norm, v)
	return v
}
