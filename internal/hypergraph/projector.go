package hypergraph

import (
	"context"

	"github.com/Benny93/hyperview/internal/graph"
	"github.com/Benny93/hyperview/internal/storage"
)

// projector turns hyperedge incidence into pairwise entity edges. It caches
// node lookups for the duration of one operation only.
type projector struct {
	store storage.GraphStore
	nodes map[string]*graph.GraphNode
}

func newProjector(store storage.GraphStore, known []*graph.GraphNode) *projector {
	p := &projector{store: store, nodes: make(map[string]*graph.GraphNode, len(known))}
	for _, n := range known {
		p.nodes[n.ID] = n
	}
	return p
}

// node returns the node with the given ID, or nil when it is absent.
func (p *projector) node(ctx context.Context, id string) (*graph.GraphNode, error) {
	if n, ok := p.nodes[id]; ok {
		return n, nil
	}
	n, err := p.store.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}
	p.nodes[id] = n
	return n, nil
}

// entityNeighbors returns the entity neighbors of a hyperedge in store
// order. A non-nil within restricts the result to IDs in that set.
func (p *projector) entityNeighbors(ctx context.Context, hyperedgeID string, within map[string]struct{}) ([]string, error) {
	neighbors, err := p.store.Neighbors(ctx, hyperedgeID)
	if err != nil {
		return nil, err
	}

	entities := make([]string, 0, len(neighbors))
	for _, id := range neighbors {
		if within != nil {
			if _, ok := within[id]; !ok {
				continue
			}
		}
		n, err := p.node(ctx, id)
		if err != nil {
			return nil, err
		}
		if n.IsEntity() {
			entities = append(entities, id)
		}
	}
	return entities, nil
}

// project emits one edge per unordered entity pair of each hyperedge. Each
// hyperedge is visited once; hyperedges lighter than minWeight or with fewer
// than two qualifying entities produce nothing.
func (p *projector) project(ctx context.Context, hyperedges []*graph.GraphNode, within map[string]struct{}, minWeight *float64) ([]graph.ProjectedEdge, error) {
	edges := make([]graph.ProjectedEdge, 0)
	seen := make(map[string]struct{}, len(hyperedges))

	for _, h := range hyperedges {
		if !h.IsHyperedge() {
			continue
		}
		if _, ok := seen[h.ID]; ok {
			continue
		}
		seen[h.ID] = struct{}{}

		if minWeight != nil && h.Weight < *minWeight {
			continue
		}

		entities, err := p.entityNeighbors(ctx, h.ID, within)
		if err != nil {
			return nil, err
		}
		if len(entities) < 2 {
			continue
		}

		for i := 0; i < len(entities); i++ {
			for j := i + 1; j < len(entities); j++ {
				edges = append(edges, newProjectedEdge(entities[i], entities[j], h, entities))
			}
		}
	}
	return edges, nil
}

// newProjectedEdge builds the edge between source and target derived from
// hyperedge h, whose qualifying entities are listed in entities.
func newProjectedEdge(source, target string, h *graph.GraphNode, entities []string) graph.ProjectedEdge {
	return graph.ProjectedEdge{
		ID:          graph.EdgeID(source, target, h.ID),
		Source:      source,
		Target:      target,
		Relation:    graph.RelationConnectedVia,
		Description: graph.HyperedgeLabel(h.ID),
		Weight:      h.Weight,
		Entities:    entities,
		IsHyperedge: len(entities) >= 3,
		Hyperedge:   h.ID,
	}
}
