// Package heuristic provides local fallback collaborators used when no API
// key is configured, and in tests. Results are deterministic per input.
package heuristic

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Dim is the fixed embedding length of the hashing embedder.
const Dim = 256

// Embedder maps text to a bag-of-words hashing vector: each token is hashed
// into one of Dim buckets and the counts are L2-normalized. No semantics
// beyond lexical overlap, but deterministic and dependency-free, which is
// what offline runs and tests need.
type Embedder struct{}

// NewEmbedder creates a hashing embedder.
func NewEmbedder() *Embedder {
	return &Embedder{}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, Dim)

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, tok := range tokens {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%Dim]++
	}

	var norm2 float64
	for _, v := range vec {
		norm2 += float64(v) * float64(v)
	}
	if norm2 > 0 {
		inv := float32(1 / math.Sqrt(norm2))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec, nil
}
