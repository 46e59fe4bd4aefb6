package semindex

import "math"

// Vector helpers for the text space. Embeddings are L2-normalized once at
// build time so cosine similarity reduces to a dot product at query time.

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// normalizeL2InPlace scales v to unit length. Returns false for zero-norm
// vectors, which are left untouched.
func normalizeL2InPlace(v []float32) bool {
	norm2 := dot(v, v)
	if norm2 == 0 {
		return false
	}
	inv := 1 / float32(math.Sqrt(float64(norm2)))
	for i := range v {
		v[i] *= inv
	}
	return true
}

// cosineSimilarity01 maps cosine similarity of two unit vectors into [0,1].
func cosineSimilarity01(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	cos := float64(dot(a, b))
	sim := (1 + cos) / 2
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
