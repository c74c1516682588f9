package graph

import (
	"sync"
)

// KnowledgeGraph is an in-memory undirected bipartite graph of entities and
// hyperedges.
//
// Unlike a map-only store, every enumeration is ordered: nodes come back in
// insertion order and each adjacency list keeps the order in which its edges
// were first added. Projection and subgraph extraction depend on this to be
// deterministic.
type KnowledgeGraph struct {
	mu            sync.RWMutex
	nodes         map[string]*GraphNode
	order         []string
	relationships []*GraphRelationship

	// adjacency[a] lists neighbors of a in first-insertion order; linked
	// guards against duplicate edges between the same pair.
	adjacency map[string][]string
	linked    map[string]map[string]struct{}
}

// NewKnowledgeGraph creates a new empty knowledge graph.
func NewKnowledgeGraph() *KnowledgeGraph {
	return &KnowledgeGraph{
		nodes:     make(map[string]*GraphNode),
		adjacency: make(map[string][]string),
		linked:    make(map[string]map[string]struct{}),
	}
}

// NodeCount returns the number of nodes.
func (g *KnowledgeGraph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// RelationshipCount returns the number of relation records.
func (g *KnowledgeGraph) RelationshipCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.relationships)
}

// AddNode adds a node, replacing the attributes of an existing node with the
// same ID. A replaced node keeps its original enumeration position.
func (g *KnowledgeGraph) AddNode(node *GraphNode) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[node.ID]; !ok {
		g.order = append(g.order, node.ID)
	}
	g.nodes[node.ID] = node
}

// GetNode returns the node with the given ID, or nil if it does not exist.
func (g *KnowledgeGraph) GetNode(nodeID string) *GraphNode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[nodeID]
}

// HasNode reports whether a node with the given ID exists.
func (g *KnowledgeGraph) HasNode(nodeID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[nodeID]
	return ok
}

// AddRelationship records an undirected edge. Endpoints that are not yet
// known are added as bare nodes. A second edge between the same pair is
// ignored and false is returned.
func (g *KnowledgeGraph) AddRelationship(rel *GraphRelationship) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.linked[rel.Source][rel.Target]; ok {
		return false
	}

	for _, id := range []string{rel.Source, rel.Target} {
		if _, ok := g.nodes[id]; !ok {
			g.nodes[id] = &GraphNode{ID: id, Weight: DefaultWeight}
			g.order = append(g.order, id)
		}
	}

	g.link(rel.Source, rel.Target)
	if rel.Source != rel.Target {
		g.link(rel.Target, rel.Source)
	}
	g.relationships = append(g.relationships, rel)
	return true
}

// link must be called with the write lock held.
func (g *KnowledgeGraph) link(a, b string) {
	if g.linked[a] == nil {
		g.linked[a] = make(map[string]struct{})
	}
	g.linked[a][b] = struct{}{}
	g.adjacency[a] = append(g.adjacency[a], b)
}

// Neighbors returns the neighbor IDs of a node in first-insertion order.
// The returned slice is a copy.
func (g *KnowledgeGraph) Neighbors(nodeID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	adj := g.adjacency[nodeID]
	out := make([]string, len(adj))
	copy(out, adj)
	return out
}

// Nodes returns all nodes in insertion order.
func (g *KnowledgeGraph) Nodes() []*GraphNode {
	g.mu.RLock()
	defer g.mu.RUnlock()

	result := make([]*GraphNode, 0, len(g.order))
	for _, id := range g.order {
		result = append(result, g.nodes[id])
	}
	return result
}

// Relationships returns all relation records in insertion order.
func (g *KnowledgeGraph) Relationships() []*GraphRelationship {
	g.mu.RLock()
	defer g.mu.RUnlock()

	result := make([]*GraphRelationship, len(g.relationships))
	copy(result, g.relationships)
	return result
}

// Stats returns a summary of graph size.
func (g *KnowledgeGraph) Stats() map[string]int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	byRole := make(map[NodeRole]int)
	for _, node := range g.nodes {
		byRole[node.Role]++
	}

	return map[string]int{
		"nodes":         len(g.nodes),
		"entities":      byRole[RoleEntity],
		"hyperedges":    byRole[RoleHyperedge],
		"relationships": len(g.relationships),
	}
}
