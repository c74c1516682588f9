package hypergraph

import "github.com/Benny93/hyperview/internal/graph"

// computeStats derives graph metrics from the node count and the native
// relation records. Every record is one undirected edge and adds two to the
// total degree.
func computeStats(numNodes int, rels []*graph.GraphRelationship) graph.GraphStats {
	stats := graph.GraphStats{
		NumNodes: numNodes,
		NumEdges: len(rels),
	}
	for _, rel := range rels {
		if rel.Arity() >= 3 {
			stats.NumHyperedges++
		}
	}

	if numNodes > 0 {
		stats.AvgDegree = float64(2*stats.NumEdges) / float64(numNodes)
	}
	if numNodes > 1 {
		stats.Density = float64(2*stats.NumEdges) / float64(numNodes*(numNodes-1))
	}
	return stats
}
