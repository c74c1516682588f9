// Package embeddings turns entity text into vectors for similarity search.
package embeddings

import "context"

// Embedder converts texts into vectors. The returned slice has one vector
// per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedOne embeds a single text with e.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, ErrNoEmbedding
	}
	return vecs[0], nil
}
