package storage

import (
	"context"
	"sync"

	"github.com/Benny93/hyperview/internal/graph"
)

// MemoryBackend is an in-memory implementation of SnapshotBackend.
type MemoryBackend struct {
	mu         sync.RWMutex
	graph      *graph.KnowledgeGraph
	embeddings []EntityEmbedding
}

// NewMemoryBackend creates a new in-memory storage backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		graph: graph.NewKnowledgeGraph(),
	}
}

// NewMemoryBackendFrom wraps an existing graph.
func NewMemoryBackendFrom(g *graph.KnowledgeGraph) *MemoryBackend {
	return &MemoryBackend{graph: g}
}

// Initialize implements SnapshotBackend. There is nothing to open.
func (m *MemoryBackend) Initialize(path string, readOnly bool) error {
	return nil
}

// Close implements SnapshotBackend.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embeddings = nil
	return nil
}

// BulkLoad implements SnapshotBackend.
func (m *MemoryBackend) BulkLoad(ctx context.Context, g *graph.KnowledgeGraph) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.graph = g
	m.embeddings = nil
	return nil
}

func (m *MemoryBackend) current() *graph.KnowledgeGraph {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.graph
}

// HasNode implements GraphStore.
func (m *MemoryBackend) HasNode(ctx context.Context, nodeID string) (bool, error) {
	return m.current().HasNode(nodeID), nil
}

// GetNode implements GraphStore.
func (m *MemoryBackend) GetNode(ctx context.Context, nodeID string) (*graph.GraphNode, error) {
	return m.current().GetNode(nodeID), nil
}

// Neighbors implements GraphStore.
func (m *MemoryBackend) Neighbors(ctx context.Context, nodeID string) ([]string, error) {
	return m.current().Neighbors(nodeID), nil
}

// Nodes implements GraphStore.
func (m *MemoryBackend) Nodes(ctx context.Context) ([]*graph.GraphNode, error) {
	return m.current().Nodes(), nil
}

// Relationships implements GraphStore.
func (m *MemoryBackend) Relationships(ctx context.Context) ([]*graph.GraphRelationship, error) {
	return m.current().Relationships(), nil
}

// StoreEmbeddings implements SnapshotBackend. An embedding for an entity
// that already has one replaces it in place.
func (m *MemoryBackend) StoreEmbeddings(ctx context.Context, embeddings []EntityEmbedding) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos := make(map[string]int, len(m.embeddings))
	for i, e := range m.embeddings {
		pos[e.NodeID] = i
	}
	for _, emb := range embeddings {
		if i, ok := pos[emb.NodeID]; ok {
			m.embeddings[i] = emb
			continue
		}
		pos[emb.NodeID] = len(m.embeddings)
		m.embeddings = append(m.embeddings, emb)
	}
	return nil
}

// Embeddings implements SnapshotBackend.
func (m *MemoryBackend) Embeddings(ctx context.Context) ([]EntityEmbedding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]EntityEmbedding, len(m.embeddings))
	copy(out, m.embeddings)
	return out, nil
}

// NodeCount returns the number of stored nodes.
func (m *MemoryBackend) NodeCount() int {
	return m.current().NodeCount()
}

// RelationshipCount returns the number of stored relation records.
func (m *MemoryBackend) RelationshipCount() int {
	return m.current().RelationshipCount()
}
