package ports

import "context"

// Embedder turns free text into a fixed-length vector. Implementations must
// be deterministic for identical input; the semantic index relies on that to
// stay reproducible across rebuilds.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
