// ABOUTME: Cosine similarity between embedding vectors.
// ABOUTME: Uses a small epsilon in the denominator so zero vectors score 0 instead of NaN.
package embeddings

import (
	"fmt"
	"math"
)

// Epsilon keeps the cosine denominator away from zero.
const Epsilon = 1e-8

// Cosine returns dot(a,b) / (‖a‖·‖b‖ + Epsilon). The result is close to the
// usual cosine in [-1, 1] and exactly 0 when either vector is all zeros.
// Vectors of different lengths are a programming error and panic.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		panic(fmt.Sprintf("embeddings: cosine of vectors with lengths %d and %d", len(a), len(b)))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	return dot / (math.Sqrt(normA)*math.Sqrt(normB) + Epsilon)
}
