package vectors

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/blas/gonum"

	"github.com/Benny93/hyperview/internal/embeddings"
	"github.com/Benny93/hyperview/internal/storage"
)

var blas = gonum.Implementation{}

// Entry is one indexed entity vector with the metadata returned on a match.
type Entry struct {
	ID          string
	Description string
	EntityType  string
	Weight      float64
	Vector      []float32
}

// EmbeddingIndex is a brute-force cosine index. Queries are embedded with
// the same Embedder that produced (or is compatible with) the entries.
type EmbeddingIndex struct {
	embedder embeddings.Embedder
	entries  []Entry
	norms    []float32
}

// NewEmbeddingIndex creates an index over entries. Entry order breaks ties
// between equal similarities.
func NewEmbeddingIndex(embedder embeddings.Embedder, entries []Entry) *EmbeddingIndex {
	norms := make([]float32, len(entries))
	for i, e := range entries {
		norms[i] = blas.Snrm2(len(e.Vector), e.Vector, 1)
	}
	return &EmbeddingIndex{embedder: embedder, entries: entries, norms: norms}
}

// EntriesFromEmbeddings converts stored embeddings into index entries.
func EntriesFromEmbeddings(embs []storage.EntityEmbedding) []Entry {
	entries := make([]Entry, 0, len(embs))
	for _, e := range embs {
		entries = append(entries, Entry{
			ID:          e.NodeID,
			Description: e.Description,
			EntityType:  e.EntityType,
			Weight:      e.Weight,
			Vector:      e.Embedding,
		})
	}
	return entries
}

// Len returns the number of indexed entries.
func (x *EmbeddingIndex) Len() int {
	return len(x.entries)
}

// Search implements Index. Entries with non-positive similarity or a
// mismatched dimension are skipped. A keyword that embeds to the zero vector,
// or to a dimension no entry shares, cannot be ranked and fails with
// ErrIndexUnavailable.
func (x *EmbeddingIndex) Search(ctx context.Context, keyword string, topK int) ([]Match, error) {
	if x.embedder == nil {
		return nil, ErrIndexUnavailable
	}
	if topK <= 0 {
		return nil, nil
	}

	query, err := embeddings.EmbedOne(ctx, x.embedder, keyword)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}
	qnorm := blas.Snrm2(len(query), query, 1)
	if qnorm == 0 {
		return nil, fmt.Errorf("%w: keyword %q has no embedding", ErrIndexUnavailable, keyword)
	}
	if !x.hasDimension(len(query)) {
		return nil, fmt.Errorf("%w: no entry has the query dimension %d", ErrIndexUnavailable, len(query))
	}

	matches := make([]Match, 0, len(x.entries))
	for i, e := range x.entries {
		sim := cosine(query, qnorm, e.Vector, x.norms[i])
		if sim <= 0 {
			continue
		}
		matches = append(matches, Match{
			ID:          e.ID,
			Description: e.Description,
			EntityType:  e.EntityType,
			Weight:      e.Weight,
			Similarity:  sim,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (x *EmbeddingIndex) hasDimension(n int) bool {
	for _, e := range x.entries {
		if len(e.Vector) == n {
			return true
		}
	}
	return false
}

func cosine(a []float32, anorm float32, b []float32, bnorm float32) float64 {
	if len(a) != len(b) || len(a) == 0 || anorm == 0 || bnorm == 0 {
		return 0
	}
	sim := float64(blas.Sdot(len(a), a, 1, b, 1)) / (float64(anorm) * float64(bnorm))
	if math.IsNaN(sim) {
		return 0
	}
	return sim
}
