package mcp

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/Benny93/hyperview/internal/graph"
	"github.com/Benny93/hyperview/internal/hypergraph"
)

// Tool names.
const (
	ToolListEntities = "hyper_list_entities"
	ToolGetEntity    = "hyper_get_entity"
	ToolListEdges    = "hyper_list_edges"
	ToolGetEdge      = "hyper_get_edge"
	ToolStats        = "hyper_stats"
	ToolSubgraph     = "hyper_subgraph"
	ToolSearch       = "hyper_search"
)

// Argument bounds and defaults applied at the tool boundary.
const (
	DefaultListLimit   = 100
	MaxListLimit       = 10000
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
	DefaultDepth       = 1
	MaxDepth           = hypergraph.MaxDepth
)

type ListEntitiesArgs struct {
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
	EntityType string `json:"entity_type,omitempty"`
}

type GetEntityArgs struct {
	EntityID string `json:"entity_id"`
}

type ListEdgesArgs struct {
	Limit     int      `json:"limit,omitempty"`
	Offset    int      `json:"offset,omitempty"`
	MinWeight *float64 `json:"min_weight,omitempty"`
}

type GetEdgeArgs struct {
	EdgeID string `json:"edge_id"`
}

type StatsArgs struct{}

type SubgraphArgs struct {
	EntityID string `json:"entity_id"`
	Depth    int    `json:"depth,omitempty"`
}

type SearchArgs struct {
	Keyword string `json:"keyword"`
	Limit   int    `json:"limit,omitempty"`
}

// EntityList is the output of hyper_list_entities.
type EntityList struct {
	Entities []graph.Node `json:"entities"`
}

// EdgeList is the output of hyper_list_edges.
type EdgeList struct {
	Edges []graph.ProjectedEdge `json:"edges"`
}

// SearchResults is the output of hyper_search.
type SearchResults struct {
	Keyword string       `json:"keyword"`
	Results []graph.Node `json:"results"`
}

// ListTools returns the tool definitions the server registers.
func (s *Server) ListTools() []*mcp.Tool {
	return []*mcp.Tool{
		{
			Name:        ToolListEntities,
			Description: "List entities of the hypergraph in snapshot order, optionally filtered by entity type.",
			InputSchema: object(map[string]*jsonschema.Schema{
				"limit":       integer("Maximum number of entities (default 100)", 1, MaxListLimit),
				"offset":      integer("Number of entities to skip", 0, -1),
				"entity_type": {Type: "string", Description: "Only entities of this display type, e.g. PERSON"},
			}),
		},
		{
			Name:        ToolGetEntity,
			Description: "Get one entity by its raw id.",
			InputSchema: object(map[string]*jsonschema.Schema{
				"entity_id": {Type: "string", Description: "Raw entity id as stored in the graph"},
			}, "entity_id"),
		},
		{
			Name:        ToolListEdges,
			Description: "List entity-to-entity edges projected from hyperedges. A hyperedge with k entities yields k*(k-1)/2 edges.",
			InputSchema: object(map[string]*jsonschema.Schema{
				"limit":      integer("Maximum number of edges (default 100)", 1, MaxListLimit),
				"offset":     integer("Number of edges to skip", 0, -1),
				"min_weight": {Type: "number", Description: "Drop hyperedges lighter than this before projecting"},
			}),
		},
		{
			Name:        ToolGetEdge,
			Description: "Get one projected edge by its composite id source-target-hyperedge.",
			InputSchema: object(map[string]*jsonschema.Schema{
				"edge_id": {Type: "string", Description: "Composite edge id as returned by hyper_list_edges"},
			}, "edge_id"),
		},
		{
			Name:        ToolStats,
			Description: "Node count, relation record count, hyperedge count, average degree and density of the stored graph.",
			InputSchema: object(map[string]*jsonschema.Schema{}),
		},
		{
			Name:        ToolSubgraph,
			Description: "Entities within depth hops of an entity, with the projected edges among them.",
			InputSchema: object(map[string]*jsonschema.Schema{
				"entity_id": {Type: "string", Description: "Raw id of the center entity"},
				"depth":     integer("Traversal depth in graph hops (default 1)", 1, MaxDepth),
			}, "entity_id"),
		},
		{
			Name:        ToolSearch,
			Description: "Rank entities by relevance to a keyword. Uses vector similarity, falling back to label and description matching.",
			InputSchema: object(map[string]*jsonschema.Schema{
				"keyword": {Type: "string", Description: "Search keyword or phrase"},
				"limit":   integer("Maximum number of results (default 20)", 1, MaxSearchLimit),
			}, "keyword"),
		},
	}
}

func (s *Server) registerTools() {
	tools := make(map[string]*mcp.Tool)
	for _, t := range s.ListTools() {
		tools[t.Name] = t
	}

	mcp.AddTool(s.server, tools[ToolListEntities], s.listEntities)
	mcp.AddTool(s.server, tools[ToolGetEntity], s.getEntity)
	mcp.AddTool(s.server, tools[ToolListEdges], s.listEdges)
	mcp.AddTool(s.server, tools[ToolGetEdge], s.getEdge)
	mcp.AddTool(s.server, tools[ToolStats], s.stats)
	mcp.AddTool(s.server, tools[ToolSubgraph], s.subgraph)
	mcp.AddTool(s.server, tools[ToolSearch], s.search)
}

// Tool Handlers

func (s *Server) listEntities(ctx context.Context, _ *mcp.CallToolRequest, args ListEntitiesArgs) (*mcp.CallToolResult, EntityList, error) {
	nodes, err := s.service().ListEntities(ctx, hypergraph.EntityQuery{
		Limit:      withDefault(args.Limit, DefaultListLimit),
		Offset:     args.Offset,
		EntityType: args.EntityType,
	})
	if err != nil {
		return nil, EntityList{}, err
	}
	return nil, EntityList{Entities: nodes}, nil
}

func (s *Server) getEntity(ctx context.Context, _ *mcp.CallToolRequest, args GetEntityArgs) (*mcp.CallToolResult, graph.Node, error) {
	node, err := s.service().GetEntity(ctx, args.EntityID)
	if err != nil {
		return nil, graph.Node{}, err
	}
	if node == nil {
		return nil, graph.Node{}, hypergraph.NotFound("entity", args.EntityID)
	}
	return nil, *node, nil
}

func (s *Server) listEdges(ctx context.Context, _ *mcp.CallToolRequest, args ListEdgesArgs) (*mcp.CallToolResult, EdgeList, error) {
	edges, err := s.service().ListEdges(ctx, hypergraph.EdgeQuery{
		Limit:     withDefault(args.Limit, DefaultListLimit),
		Offset:    args.Offset,
		MinWeight: args.MinWeight,
	})
	if err != nil {
		return nil, EdgeList{}, err
	}
	return nil, EdgeList{Edges: edges}, nil
}

func (s *Server) getEdge(ctx context.Context, _ *mcp.CallToolRequest, args GetEdgeArgs) (*mcp.CallToolResult, graph.ProjectedEdge, error) {
	edge, err := s.service().GetEdge(ctx, args.EdgeID)
	if err != nil {
		return nil, graph.ProjectedEdge{}, err
	}
	if edge == nil {
		return nil, graph.ProjectedEdge{}, hypergraph.NotFound("edge", args.EdgeID)
	}
	return nil, *edge, nil
}

func (s *Server) stats(ctx context.Context, _ *mcp.CallToolRequest, _ StatsArgs) (*mcp.CallToolResult, graph.GraphStats, error) {
	stats, err := s.service().Stats(ctx)
	if err != nil {
		return nil, graph.GraphStats{}, err
	}
	return nil, stats, nil
}

func (s *Server) subgraph(ctx context.Context, _ *mcp.CallToolRequest, args SubgraphArgs) (*mcp.CallToolResult, graph.Subgraph, error) {
	sub, err := s.service().Subgraph(ctx, args.EntityID, withDefault(args.Depth, DefaultDepth))
	if err != nil {
		return nil, graph.Subgraph{}, err
	}
	if sub.IsEmpty() {
		return nil, graph.Subgraph{}, hypergraph.NotFound("entity", args.EntityID)
	}
	return nil, sub, nil
}

func (s *Server) search(ctx context.Context, _ *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, SearchResults, error) {
	nodes, err := s.service().Search(ctx, args.Keyword, withDefault(args.Limit, DefaultSearchLimit))
	if err != nil {
		return nil, SearchResults{}, err
	}
	s.logger.Debug("search tool", zap.String("keyword", args.Keyword), zap.Int("results", len(nodes)))
	return nil, SearchResults{Keyword: args.Keyword, Results: nodes}, nil
}

// Schema helpers

func object(props map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

// integer builds an integer schema bounded below by lo and, when hi is
// non-negative, above by hi.
func integer(description string, lo, hi int) *jsonschema.Schema {
	schema := &jsonschema.Schema{Type: "integer", Description: description}
	minimum := float64(lo)
	schema.Minimum = &minimum
	if hi >= 0 {
		maximum := float64(hi)
		schema.Maximum = &maximum
	}
	return schema
}

func withDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
