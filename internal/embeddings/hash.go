// ABOUTME: Offline embedder that hashes words and character trigrams into a fixed-size vector.
// ABOUTME: Deterministic and dependency-free; good for tests and air-gapped use, weak on meaning.
package embeddings

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultHashDimension is used when no dimension is configured.
const DefaultHashDimension = 256

// HashEmbedder maps text onto a bag of hashed features. Texts that share
// words or spelling score higher than unrelated texts.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates a hash embedder with dim output dimensions.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = DefaultHashDimension
	}
	return &HashEmbedder{dim: dim}
}

// Dimension returns the output vector size.
func (h *HashEmbedder) Dimension() int {
	return h.dim
}

// Embed returns an L2-normalized feature vector. Empty text yields the zero
// vector.
func (h *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, h.dim)
	for _, word := range tokenize(text) {
		h.add(vec, "w:"+word, 1)

		padded := []rune(" " + word + " ")
		for i := 0; i+3 <= len(padded); i++ {
			h.add(vec, "t:"+string(padded[i:i+3]), 0.5)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

// add hashes a feature into a bucket; one hash bit picks the sign so
// collisions tend to cancel out.
func (h *HashEmbedder) add(vec []float32, feature string, weight float32) {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(feature))
	sum := hasher.Sum64()

	bucket := int(sum % uint64(h.dim))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vec[bucket] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
