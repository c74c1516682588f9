package graph

// RelationConnectedVia is the relation label of every projected edge.
const RelationConnectedVia = "connected_via"

// Node is the consumer-facing view of an entity.
type Node struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`

	// RelevanceScore is only set on search results.
	RelevanceScore *float64 `json:"relevance_score,omitempty"`
}

// NewNode builds the entity view of a stored node.
func NewNode(n *GraphNode) Node {
	return Node{
		ID:          n.ID,
		Label:       DisplayLabel(n.ID),
		Type:        EntityTypeLabel(n.EntityType),
		Description: CleanText(n.Description),
		Weight:      n.Weight,
	}
}

// WithScore returns a copy of the node carrying a relevance score.
func (n Node) WithScore(score float64) Node {
	n.RelevanceScore = &score
	return n
}

// ProjectedEdge is a derived entity-to-entity edge. It is computed from a
// hyperedge on every request and never persisted.
type ProjectedEdge struct {
	ID          string   `json:"id"`
	Source      string   `json:"source"`
	Target      string   `json:"target"`
	Relation    string   `json:"relation"`
	Description string   `json:"description"`
	Weight      float64  `json:"weight"`
	Entities    []string `json:"entities"`
	IsHyperedge bool     `json:"isHyperedge"`

	// Hyperedge is the raw ID of the originating hyperedge node.
	Hyperedge string `json:"hyperedge"`
}

// Subgraph holds the entities and projected edges around a center node.
type Subgraph struct {
	Nodes []Node          `json:"nodes"`
	Edges []ProjectedEdge `json:"edges"`
}

// IsEmpty returns true if the subgraph has no nodes.
func (s *Subgraph) IsEmpty() bool {
	return len(s.Nodes) == 0
}

// GraphStats are metrics over the raw bipartite graph, not the projection.
type GraphStats struct {
	NumNodes      int     `json:"num_nodes"`
	NumEdges      int     `json:"num_edges"`
	NumHyperedges int     `json:"num_hyperedges"`
	AvgDegree     float64 `json:"avg_degree"`
	Density       float64 `json:"density"`
}
