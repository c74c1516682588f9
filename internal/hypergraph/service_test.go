package hypergraph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/hyperview/internal/graph"
)

func TestService_NotInitialized(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	services := map[string]*Service{
		"ZeroValue": {},
		"NilStore":  New(nil, WithIndex(&fixedIndex{})),
	}

	for name, svc := range services {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.False(t, svc.Initialized())

			_, err := svc.ListEntities(ctx, EntityQuery{Limit: 10})
			assert.ErrorIs(t, err, ErrNotInitialized)
			_, err = svc.GetEntity(ctx, "A")
			assert.ErrorIs(t, err, ErrNotInitialized)
			_, err = svc.ListEdges(ctx, EdgeQuery{Limit: 10})
			assert.ErrorIs(t, err, ErrNotInitialized)
			_, err = svc.GetEdge(ctx, "A-B-H")
			assert.ErrorIs(t, err, ErrNotInitialized)
			_, err = svc.Stats(ctx)
			assert.ErrorIs(t, err, ErrNotInitialized)
			_, err = svc.Subgraph(ctx, "A", 1)
			assert.ErrorIs(t, err, ErrNotInitialized)
			_, err = svc.Search(ctx, "a", 10)
			assert.ErrorIs(t, err, ErrNotInitialized)
		})
	}
}

func TestService_StoreErrorsPropagateUnchanged(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := New(failingStore{}, WithIndex(&fixedIndex{err: assert.AnError}))
	assert.True(t, svc.Initialized())

	_, err := svc.ListEntities(ctx, EntityQuery{Limit: 10})
	assert.Equal(t, errBoom, err)
	_, err = svc.GetEntity(ctx, "A")
	assert.Equal(t, errBoom, err)
	_, err = svc.ListEdges(ctx, EdgeQuery{Limit: 10})
	assert.Equal(t, errBoom, err)
	_, err = svc.GetEdge(ctx, "A-B-H")
	assert.Equal(t, errBoom, err)
	_, err = svc.Stats(ctx)
	assert.Equal(t, errBoom, err)
	_, err = svc.Subgraph(ctx, "A", 1)
	assert.Equal(t, errBoom, err)
	_, err = svc.Search(ctx, "a", 10)
	assert.Equal(t, errBoom, err, "fallback store failures are not masked")
}

func TestService_ListEntities(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newBuilder().
		entity(`"THEFT"`, `"CRIME"`, `"Taking property"`).
		entity(`"ALICE"`, `"PERSON"`, "").
		hyperedge(`<hyperedge>"Alice committed theft"`, 1, `"ALICE"`, `"THEFT"`).
		entity(`"FRAUD"`, `"CRIME"`, "").
		entity(`"UNTYPED"`, "", "").
		service()

	t.Run("EntitiesOnlyInStoreOrder", func(t *testing.T) {
		nodes, err := svc.ListEntities(ctx, EntityQuery{Limit: 100})
		require.NoError(t, err)
		assert.Equal(t, []string{`"THEFT"`, `"ALICE"`, `"FRAUD"`, `"UNTYPED"`}, nodeIDs(nodes))

		assert.Equal(t, "THEFT", nodes[0].Label)
		assert.Equal(t, "CRIME", nodes[0].Type)
		assert.Equal(t, "Taking property", nodes[0].Description)
		assert.Nil(t, nodes[0].RelevanceScore)
		assert.Equal(t, "unknown", nodes[3].Type)
	})

	t.Run("TypeFilter", func(t *testing.T) {
		nodes, err := svc.ListEntities(ctx, EntityQuery{Limit: 100, EntityType: "CRIME"})
		require.NoError(t, err)
		assert.Equal(t, []string{`"THEFT"`, `"FRAUD"`}, nodeIDs(nodes))

		nodes, err = svc.ListEntities(ctx, EntityQuery{Limit: 100, EntityType: "unknown"})
		require.NoError(t, err)
		assert.Equal(t, []string{`"UNTYPED"`}, nodeIDs(nodes))
	})

	t.Run("Pagination", func(t *testing.T) {
		tests := []struct {
			name     string
			offset   int
			limit    int
			expected []string
		}{
			{"FirstPage", 0, 2, []string{`"THEFT"`, `"ALICE"`}},
			{"SecondPage", 2, 2, []string{`"FRAUD"`, `"UNTYPED"`}},
			{"PastEnd", 10, 2, []string{}},
			{"NegativeOffset", -5, 1, []string{`"THEFT"`}},
			{"ZeroLimit", 0, 0, []string{}},
			{"NegativeLimit", 0, -1, []string{}},
		}
		for _, tt := range tests {
			nodes, err := svc.ListEntities(ctx, EntityQuery{Offset: tt.offset, Limit: tt.limit})
			require.NoError(t, err, tt.name)
			assert.NotNil(t, nodes, tt.name)
			assert.Equal(t, tt.expected, nodeIDs(nodes), tt.name)
		}
	})
}

func TestService_GetEntity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newBuilder().
		entity(`"THEFT"`, `"CRIME"`, `"Taking property"`).
		hyperedge(`<hyperedge>"x"`, 1, `"THEFT"`).
		service()

	node, err := svc.GetEntity(ctx, `"THEFT"`)
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, `"THEFT"`, node.ID)
	assert.Equal(t, "THEFT", node.Label)

	node, err = svc.GetEntity(ctx, "THEFT")
	require.NoError(t, err)
	assert.Nil(t, node, "display form is not a lookup key")

	node, err = svc.GetEntity(ctx, `<hyperedge>"x"`)
	require.NoError(t, err)
	assert.Nil(t, node, "hyperedges are not entities")

	node, err = svc.GetEntity(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, node)
}

func TestService_Stats(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("EmptyStore", func(t *testing.T) {
		t.Parallel()
		stats, err := newBuilder().service().Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, graph.GraphStats{}, stats)
	})

	t.Run("SingleNode", func(t *testing.T) {
		t.Parallel()
		stats, err := newBuilder().entity("A", "", "").service().Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.NumNodes)
		assert.Equal(t, 0.0, stats.AvgDegree)
		assert.Equal(t, 0.0, stats.Density)
	})

	t.Run("Scenario", func(t *testing.T) {
		t.Parallel()
		stats, err := scenarioGraph().service().Stats(ctx)
		require.NoError(t, err)

		assert.Equal(t, 4, stats.NumNodes)
		assert.Equal(t, 3, stats.NumEdges)
		assert.Equal(t, 3, stats.NumHyperedges, "counted over relation records")
		assert.InDelta(t, 1.5, stats.AvgDegree, 1e-9)
		assert.InDelta(t, 0.5, stats.Density, 1e-9)
	})

	t.Run("ArityFromRecordsNotProjection", func(t *testing.T) {
		t.Parallel()
		b := newBuilder().hyperedge("H2", 1, "A", "B")
		// A record without an entity list has arity 0 even on a wide hyperedge.
		b.g.AddRelationship(&graph.GraphRelationship{Source: "C", Target: "H2"})
		stats, err := b.service().Stats(ctx)
		require.NoError(t, err)

		assert.Equal(t, 3, stats.NumEdges)
		assert.Equal(t, 0, stats.NumHyperedges)
	})
}
