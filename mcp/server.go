// Package mcp exposes the hypergraph queries as MCP (Model Context Protocol)
// tools and resources.
package mcp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/Benny93/hyperview/internal/hypergraph"
)

// Resource URIs.
const (
	OverviewURI = "hyperview://overview"
	SchemaURI   = "hyperview://schema"
)

// Server is the MCP server. The service it queries can be swapped while it
// runs, which is how a re-imported snapshot goes live.
type Server struct {
	mu     sync.RWMutex
	svc    *hypergraph.Service
	server *mcp.Server
	logger *zap.Logger
}

// NewServer creates a server answering from svc.
func NewServer(svc *hypergraph.Service, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{svc: svc, logger: logger}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "hyperview",
		Version: version,
	}, nil)

	s.registerTools()
	s.registerResources()

	return s
}

// Swap replaces the service answering requests. In-flight requests finish
// against the service they started with.
func (s *Server) Swap(svc *hypergraph.Service) {
	s.mu.Lock()
	s.svc = svc
	s.mu.Unlock()
	s.logger.Info("snapshot swapped in")
}

// service returns the current service.
func (s *Server) service() *hypergraph.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.svc
}

// Run serves MCP over t until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context, t mcp.Transport) error {
	return s.server.Run(ctx, t)
}

// ServeStdio serves MCP over stdin and stdout. Nothing else may write to
// stdout while it runs.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.Run(ctx, &mcp.StdioTransport{})
}

// ListResources returns the resources the server publishes.
func (s *Server) ListResources() []*mcp.Resource {
	return []*mcp.Resource{
		{
			URI:         OverviewURI,
			Name:        "overview",
			Title:       "Hypergraph Overview",
			Description: "Size and density of the loaded hypergraph snapshot",
			MIMEType:    "text/markdown",
		},
		{
			URI:         SchemaURI,
			Name:        "schema",
			Title:       "Hypergraph Schema",
			Description: "How entities, hyperedges and projected edges relate",
			MIMEType:    "text/markdown",
		},
	}
}

// ReadResource renders the resource at uri.
func (s *Server) ReadResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case OverviewURI:
		return s.overview(ctx)
	case SchemaURI:
		return schemaDoc, nil
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}

func (s *Server) registerResources() {
	for _, res := range s.ListResources() {
		s.server.AddResource(res, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			text, err := s.ReadResource(ctx, req.Params.URI)
			if err != nil {
				return nil, err
			}
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{
					{URI: req.Params.URI, MIMEType: "text/markdown", Text: text},
				},
			}, nil
		})
	}
}

func (s *Server) overview(ctx context.Context) (string, error) {
	stats, err := s.service().Stats(ctx)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("# Hypergraph Overview\n\n")
	fmt.Fprintf(&sb, "**Nodes:** %d\n", stats.NumNodes)
	fmt.Fprintf(&sb, "**Relation records:** %d\n", stats.NumEdges)
	fmt.Fprintf(&sb, "**Hyperedges (arity >= 3):** %d\n", stats.NumHyperedges)
	fmt.Fprintf(&sb, "**Average degree:** %.4f\n", stats.AvgDegree)
	fmt.Fprintf(&sb, "**Density:** %.6f\n", stats.Density)
	return sb.String(), nil
}

const schemaDoc = `# Hypergraph Schema

## Nodes

| Role | Description | Key Properties |
|------|-------------|----------------|
| ` + "`entity`" + ` | A named concept extracted from the corpus | entity_type, description, weight |
| ` + "`hyperedge`" + ` | An n-ary fact joining several entities | description, weight |

## Edges

Stored edges only join an entity to a hyperedge.
The tools never return them directly: every hyperedge with k entities is
projected into k*(k-1)/2 entity-to-entity edges with relation ` + "`connected_via`" + `.

A projected edge id is ` + "`source-target-hyperedge`" + `, with ` + "`%`" + ` and ` + "`-`" + `
inside each part escaped as ` + "`%25`" + ` and ` + "`%2D`" + `.
`
