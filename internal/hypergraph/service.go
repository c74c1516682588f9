// Package hypergraph derives consumer views from a bipartite entity-hyperedge
// graph: pairwise projected edges, bounded subgraphs, statistics and ranked
// keyword search.
//
// A Service never mutates the store. Each operation reads what it needs from
// the attached GraphStore, derives its result and keeps nothing afterwards.
package hypergraph

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/Benny93/hyperview/internal/graph"
	"github.com/Benny93/hyperview/internal/storage"
	"github.com/Benny93/hyperview/internal/vectors"
)

// state is either uninitialized or *ready.
type state interface {
	isState()
}

type uninitialized struct{}

func (uninitialized) isState() {}

// ready holds the collaborators of an initialized service.
type ready struct {
	store storage.GraphStore
	index vectors.Index
}

func (*ready) isState() {}

// Service exposes the read operations over one graph store. The zero value
// is an uninitialized service whose operations fail with ErrNotInitialized.
type Service struct {
	state  state
	logger *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default discards all output.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIndex sets the vector index used by Search. Without one, Search always
// uses the lexical scan.
func WithIndex(index vectors.Index) Option {
	return func(s *Service) {
		if r, ok := s.state.(*ready); ok && index != nil {
			r.index = index
		}
	}
}

// New returns a service reading from store. A nil store yields an
// uninitialized service.
func New(store storage.GraphStore, opts ...Option) *Service {
	s := &Service{state: uninitialized{}, logger: zap.NewNop()}
	if store != nil {
		s.state = &ready{store: store, index: vectors.Disabled{}}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialized reports whether a store is attached.
func (s *Service) Initialized() bool {
	_, err := s.snapshot()
	return err == nil
}

// snapshot resolves the service state for one operation.
func (s *Service) snapshot() (*ready, error) {
	if s == nil {
		return nil, ErrNotInitialized
	}
	switch st := s.state.(type) {
	case *ready:
		return st, nil
	default:
		return nil, ErrNotInitialized
	}
}

func (s *Service) log() *zap.Logger {
	if s.logger == nil {
		return zap.NewNop()
	}
	return s.logger
}

// EntityQuery selects a page of entities.
type EntityQuery struct {
	Limit  int
	Offset int

	// EntityType, when set, keeps only entities whose display type equals it.
	EntityType string
}

// EdgeQuery selects a page of projected edges.
type EdgeQuery struct {
	Limit  int
	Offset int

	// MinWeight, when set, drops hyperedges lighter than it before projection.
	MinWeight *float64
}

// ListEntities returns a page of entities in store enumeration order.
func (s *Service) ListEntities(ctx context.Context, q EntityQuery) ([]graph.Node, error) {
	r, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	nodes, err := r.store.Nodes(ctx)
	if err != nil {
		return nil, err
	}

	entities := make([]graph.Node, 0)
	for _, n := range nodes {
		if !n.IsEntity() {
			continue
		}
		if q.EntityType != "" && graph.EntityTypeLabel(n.EntityType) != q.EntityType {
			continue
		}
		entities = append(entities, graph.NewNode(n))
	}

	page := paginate(entities, q.Offset, q.Limit)
	s.log().Info("listed entities",
		zap.Int("returned", len(page)),
		zap.Int("matched", len(entities)),
		zap.Int("offset", q.Offset),
		zap.Int("limit", q.Limit),
		zap.String("entity_type", q.EntityType),
	)
	return page, nil
}

// GetEntity returns the entity with the given raw ID, or nil when it is
// absent or not an entity.
func (s *Service) GetEntity(ctx context.Context, id string) (*graph.Node, error) {
	r, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	n, err := r.store.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}
	if !n.IsEntity() {
		s.log().Warn("entity not found", zap.String("id", id))
		return nil, nil
	}

	node := graph.NewNode(n)
	return &node, nil
}

// ListEdges projects every hyperedge into pairwise entity edges and returns
// one page of them.
func (s *Service) ListEdges(ctx context.Context, q EdgeQuery) ([]graph.ProjectedEdge, error) {
	r, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	nodes, err := r.store.Nodes(ctx)
	if err != nil {
		return nil, err
	}

	p := newProjector(r.store, nodes)
	var hyperedges []*graph.GraphNode
	for _, n := range nodes {
		if n.IsHyperedge() {
			hyperedges = append(hyperedges, n)
		}
	}

	edges, err := p.project(ctx, hyperedges, nil, q.MinWeight)
	if err != nil {
		return nil, err
	}

	page := paginate(edges, q.Offset, q.Limit)
	fields := []zap.Field{
		zap.Int("returned", len(page)),
		zap.Int("projected", len(edges)),
		zap.Int("hyperedges", len(hyperedges)),
		zap.Int("offset", q.Offset),
		zap.Int("limit", q.Limit),
	}
	if q.MinWeight != nil {
		fields = append(fields, zap.Float64("min_weight", *q.MinWeight))
	}
	s.log().Info("listed edges", fields...)
	return page, nil
}

// GetEdge resolves a composite edge ID. It returns nil when the ID is
// malformed, the hyperedge is missing, or either endpoint is not one of the
// hyperedge's entities.
func (s *Service) GetEdge(ctx context.Context, compositeID string) (*graph.ProjectedEdge, error) {
	r, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	source, target, hyperedgeID, ok := graph.ParseEdgeID(compositeID)
	if !ok || source == target {
		s.log().Warn("malformed edge id", zap.String("id", compositeID))
		return nil, nil
	}

	h, err := r.store.GetNode(ctx, hyperedgeID)
	if err != nil {
		return nil, err
	}
	if !h.IsHyperedge() {
		s.log().Warn("edge hyperedge not found", zap.String("id", compositeID), zap.String("hyperedge", hyperedgeID))
		return nil, nil
	}

	p := newProjector(r.store, nil)
	entities, err := p.entityNeighbors(ctx, h.ID, nil)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(entities, source) || !slices.Contains(entities, target) {
		s.log().Warn("edge endpoints not connected", zap.String("id", compositeID))
		return nil, nil
	}

	edge := newProjectedEdge(source, target, h, entities)
	return &edge, nil
}

// Stats returns metrics over the raw bipartite graph.
func (s *Service) Stats(ctx context.Context) (graph.GraphStats, error) {
	r, err := s.snapshot()
	if err != nil {
		return graph.GraphStats{}, err
	}

	nodes, err := r.store.Nodes(ctx)
	if err != nil {
		return graph.GraphStats{}, err
	}
	rels, err := r.store.Relationships(ctx)
	if err != nil {
		return graph.GraphStats{}, err
	}

	stats := computeStats(len(nodes), rels)
	s.log().Info("computed graph stats",
		zap.Int("nodes", stats.NumNodes),
		zap.Int("edges", stats.NumEdges),
		zap.Int("hyperedges", stats.NumHyperedges),
	)
	return stats, nil
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || offset >= len(items) {
		return make([]T, 0)
	}
	end := offset + limit
	if end > len(items) || end < offset {
		end = len(items)
	}
	return items[offset:end]
}
