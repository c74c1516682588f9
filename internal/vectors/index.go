// Package vectors provides similarity search over entity embeddings.
//
// An Index answers a free-text keyword with the best-matching entities. The
// hypergraph service treats any error from an Index as "vector search
// unavailable" and falls back to a lexical scan.
package vectors

import (
	"context"
	"errors"
)

// ErrIndexUnavailable reports that the index cannot answer queries.
var ErrIndexUnavailable = errors.New("vector index unavailable")

// Match is one vector search hit. ID is the raw entity ID used by the graph
// store.
type Match struct {
	ID          string  `json:"id"`
	Description string  `json:"description,omitempty"`
	EntityType  string  `json:"entity_type,omitempty"`
	Weight      float64 `json:"weight"`
	Similarity  float64 `json:"similarity"`
}

// Index is a similarity index over entities.
type Index interface {
	// Search returns up to topK matches in descending similarity order.
	Search(ctx context.Context, keyword string, topK int) ([]Match, error)
}

// Disabled is an Index that is never available.
type Disabled struct{}

// Search implements Index.
func (Disabled) Search(ctx context.Context, keyword string, topK int) ([]Match, error) {
	return nil, ErrIndexUnavailable
}
