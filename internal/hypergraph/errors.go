package hypergraph

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned by every operation on a Service that has
	// no store attached.
	ErrNotInitialized = errors.New("hypergraph service not initialized")

	// ErrNotFound marks a missing entity, edge or subgraph center. The
	// service itself reports absence with nil results; adapters wrap this
	// sentinel with NotFound when they need an error.
	ErrNotFound = errors.New("not found")
)

// NotFound returns an error reading "<kind> <id> not found" that matches
// ErrNotFound.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %s %w", kind, id, ErrNotFound)
}
