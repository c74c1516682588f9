// Package storage provides read access to the persisted bipartite graph.
//
// It defines the GraphStore interface the core reads through, along with the
// backends that satisfy it: an in-memory store over graph.KnowledgeGraph and
// a BadgerDB snapshot. Backends also persist entity embeddings for the vector
// index.
package storage

import (
	"context"

	"github.com/Benny93/hyperview/internal/graph"
)

// GraphStore is read-only access to one snapshot of the bipartite graph.
//
// Enumeration order is stable within a snapshot: Nodes always returns nodes
// in the same order, and Neighbors returns a node's neighbors in the order
// their edges were first written.
type GraphStore interface {
	// HasNode reports whether a node with the given ID exists.
	HasNode(ctx context.Context, nodeID string) (bool, error)

	// GetNode returns a single node by ID, or nil if not found.
	GetNode(ctx context.Context, nodeID string) (*graph.GraphNode, error)

	// Neighbors returns the IDs adjacent to nodeID in stable order.
	Neighbors(ctx context.Context, nodeID string) ([]string, error)

	// Nodes returns every node in stable enumeration order.
	Nodes(ctx context.Context) ([]*graph.GraphNode, error)

	// Relationships returns every native relation record.
	Relationships(ctx context.Context) ([]*graph.GraphRelationship, error)
}

// EntityEmbedding is a stored vector for one entity plus the metadata the
// vector index returns with a match.
type EntityEmbedding struct {
	// NodeID is the raw store ID of the entity.
	NodeID string `json:"node_id"`

	// Embedding is the vector (dimension depends on the embedding model).
	Embedding []float32 `json:"embedding"`

	Description string  `json:"description"`
	EntityType  string  `json:"entity_type"`
	Weight      float64 `json:"weight"`
}

// SnapshotBackend is a GraphStore that can be replaced wholesale from a
// freshly constructed graph and that keeps entity embeddings alongside it.
type SnapshotBackend interface {
	GraphStore

	// Initialize opens or creates the backend at the given path.
	// If readOnly is true, the backend is opened in read-only mode.
	Initialize(path string, readOnly bool) error

	// Close releases all resources held by the backend.
	Close() error

	// BulkLoad replaces the entire store with the contents of the graph.
	BulkLoad(ctx context.Context, g *graph.KnowledgeGraph) error

	// StoreEmbeddings persists entity embeddings.
	StoreEmbeddings(ctx context.Context, embeddings []EntityEmbedding) error

	// Embeddings returns all stored entity embeddings in store order.
	Embeddings(ctx context.Context) ([]EntityEmbedding, error)

	// NodeCount returns the node count.
	NodeCount() int

	// RelationshipCount returns the relation record count.
	RelationshipCount() int
}
