// Package graph provides the bipartite entity-hyperedge data model for Hyperview.
//
// It defines the raw node and relation types persisted by the knowledge
// construction pipeline, the derived view types handed to consumers
// (entities, projected edges, subgraphs, statistics), and the one place where
// stored identifiers are turned into display text.
package graph

// NodeRole is the role a node plays in the bipartite graph.
type NodeRole string

const (
	RoleEntity    NodeRole = "entity"
	RoleHyperedge NodeRole = "hyperedge"
)

// DefaultWeight is used when a record carries no usable weight.
const DefaultWeight = 1.0

// GraphNode represents a node in the raw bipartite store.
type GraphNode struct {
	// ID is the store identifier. It may carry literal quote characters and,
	// for hyperedges, a "<hyperedge>" marker. Never normalize it for lookups.
	ID string `json:"id"`

	// Role is either entity or hyperedge.
	Role NodeRole `json:"role,omitempty"`

	// EntityType is only meaningful for entities (e.g. "DISEASE").
	EntityType string `json:"entity_type,omitempty"`

	// Description is the free-text description written by the pipeline.
	Description string `json:"description,omitempty"`

	// Weight is non-negative, DefaultWeight when absent.
	Weight float64 `json:"weight"`

	// SourceID references the text chunks this node was extracted from.
	SourceID string `json:"source_id,omitempty"`

	// Properties holds attributes the reader did not recognize.
	Properties map[string]string `json:"properties,omitempty"`
}

// IsEntity reports whether the node has the entity role.
func (n *GraphNode) IsEntity() bool {
	return n != nil && n.Role == RoleEntity
}

// IsHyperedge reports whether the node has the hyperedge role.
func (n *GraphNode) IsHyperedge() bool {
	return n != nil && n.Role == RoleHyperedge
}

// GraphRelationship is one native relation record: an undirected incidence
// between an entity and a hyperedge.
type GraphRelationship struct {
	// Source and Target are the endpoint node IDs, in the order the pipeline wrote them.
	Source string `json:"source"`
	Target string `json:"target"`

	// Weight of the incidence record.
	Weight float64 `json:"weight"`

	// Description and Keywords as written by the pipeline.
	Description string `json:"description,omitempty"`
	Keywords    string `json:"keywords,omitempty"`

	// SourceID references the text chunks this record was extracted from.
	SourceID string `json:"source_id,omitempty"`

	// Entities is the associated entity list, when the pipeline recorded one.
	Entities []string `json:"entities,omitempty"`

	// Properties holds attributes the reader did not recognize.
	Properties map[string]string `json:"properties,omitempty"`
}

// Arity returns the number of entities associated with the record.
func (r *GraphRelationship) Arity() int {
	return len(r.Entities)
}
