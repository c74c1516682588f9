package hypergraph

import (
	"context"
	"errors"
	"fmt"

	"github.com/Benny93/hyperview/internal/graph"
	"github.com/Benny93/hyperview/internal/storage"
	"github.com/Benny93/hyperview/internal/vectors"
)

// builder assembles bipartite test graphs.
type builder struct {
	g *graph.KnowledgeGraph
}

func newBuilder() *builder {
	return &builder{g: graph.NewKnowledgeGraph()}
}

func (b *builder) entity(id, entityType, description string) *builder {
	b.g.AddNode(&graph.GraphNode{
		ID:          id,
		Role:        graph.RoleEntity,
		EntityType:  entityType,
		Description: description,
		Weight:      graph.DefaultWeight,
	})
	return b
}

// hyperedge adds a hyperedge node linked to each entity in order. Every
// relation record carries the full entity list.
func (b *builder) hyperedge(id string, weight float64, entities ...string) *builder {
	b.g.AddNode(&graph.GraphNode{ID: id, Role: graph.RoleHyperedge, Weight: weight})
	for _, e := range entities {
		if !b.g.HasNode(e) {
			b.entity(e, "", "")
		}
		b.g.AddRelationship(&graph.GraphRelationship{
			Source:   e,
			Target:   id,
			Weight:   weight,
			Entities: entities,
		})
	}
	return b
}

func (b *builder) service(opts ...Option) *Service {
	return New(storageOf(b), opts...)
}

func storageOf(b *builder) storage.GraphStore {
	return storage.NewMemoryBackendFrom(b.g)
}

// scenarioGraph is entities A, B, C joined by hyperedge H (0.8).
func scenarioGraph() *builder {
	return newBuilder().
		entity("A", "PERSON", "").
		entity("B", "PERSON", "").
		entity("C", "PLACE", "").
		hyperedge("H", 0.8, "A", "B", "C")
}

// entityIDs returns n distinct entity IDs.
func entityIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf(`"E%d"`, i)
	}
	return ids
}

var errBoom = errors.New("store exploded")

// failingStore returns errBoom from every read.
type failingStore struct{}

func (failingStore) HasNode(ctx context.Context, id string) (bool, error) { return false, errBoom }

func (failingStore) GetNode(ctx context.Context, id string) (*graph.GraphNode, error) {
	return nil, errBoom
}

func (failingStore) Neighbors(ctx context.Context, id string) ([]string, error) { return nil, errBoom }

func (failingStore) Nodes(ctx context.Context) ([]*graph.GraphNode, error) { return nil, errBoom }

func (failingStore) Relationships(ctx context.Context) ([]*graph.GraphRelationship, error) {
	return nil, errBoom
}

// fixedIndex returns canned matches or an error.
type fixedIndex struct {
	matches []vectors.Match
	err     error
	calls   int
}

func (f *fixedIndex) Search(ctx context.Context, keyword string, topK int) ([]vectors.Match, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

func edgeKeys(edges []graph.ProjectedEdge) []string {
	keys := make([]string, 0, len(edges))
	for _, e := range edges {
		keys = append(keys, e.Source+"|"+e.Target+"|"+e.Hyperedge)
	}
	return keys
}

func nodeIDs(nodes []graph.Node) []string {
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

func scores(nodes []graph.Node) []float64 {
	out := make([]float64, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, *n.RelevanceScore)
	}
	return out
}
