package hypergraph

import (
	"context"

	"go.uber.org/zap"

	"github.com/Benny93/hyperview/internal/graph"
)

// MaxDepth bounds subgraph expansion.
const MaxDepth = 3

// Subgraph expands breadth-first from center over both entity and hyperedge
// nodes for up to depth rounds, then projects the hyperedges inside the
// visited set onto the visited entities. Depth is clamped to [0, MaxDepth].
// A missing center yields an empty subgraph.
func (s *Service) Subgraph(ctx context.Context, center string, depth int) (graph.Subgraph, error) {
	r, err := s.snapshot()
	if err != nil {
		return graph.Subgraph{}, err
	}

	empty := graph.Subgraph{Nodes: []graph.Node{}, Edges: []graph.ProjectedEdge{}}
	depth = min(max(depth, 0), MaxDepth)

	exists, err := r.store.HasNode(ctx, center)
	if err != nil {
		return graph.Subgraph{}, err
	}
	if !exists {
		s.log().Warn("subgraph center not found", zap.String("center", center))
		return empty, nil
	}

	visited := map[string]struct{}{center: {}}
	order := []string{center}
	frontier := []string{center}

	for round := 0; round < depth && len(frontier) > 0; round++ {
		if err := ctx.Err(); err != nil {
			return graph.Subgraph{}, err
		}
		var next []string
		for _, id := range frontier {
			neighbors, err := r.store.Neighbors(ctx, id)
			if err != nil {
				return graph.Subgraph{}, err
			}
			for _, n := range neighbors {
				if _, ok := visited[n]; ok {
					continue
				}
				visited[n] = struct{}{}
				next = append(next, n)
			}
		}
		order = append(order, next...)
		frontier = next
	}

	p := newProjector(r.store, nil)
	nodes := make([]graph.Node, 0, len(order))
	var hyperedges []*graph.GraphNode
	for _, id := range order {
		n, err := p.node(ctx, id)
		if err != nil {
			return graph.Subgraph{}, err
		}
		switch {
		case n.IsEntity():
			nodes = append(nodes, graph.NewNode(n))
		case n.IsHyperedge():
			hyperedges = append(hyperedges, n)
		}
	}

	edges, err := p.project(ctx, hyperedges, visited, nil)
	if err != nil {
		return graph.Subgraph{}, err
	}

	s.log().Info("extracted subgraph",
		zap.String("center", center),
		zap.Int("depth", depth),
		zap.Int("nodes", len(nodes)),
		zap.Int("edges", len(edges)),
	)
	return graph.Subgraph{Nodes: nodes, Edges: edges}, nil
}
