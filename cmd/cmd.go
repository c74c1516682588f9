// Package cmd provides CLI command implementations for hyperview.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/Benny93/hyperview/internal/config"
	"github.com/Benny93/hyperview/internal/graph"
	"github.com/Benny93/hyperview/internal/hypergraph"
	"github.com/Benny93/hyperview/internal/logging"
	"github.com/Benny93/hyperview/internal/snapshot"
	"github.com/Benny93/hyperview/internal/storage"
)

// Version is set at build time via ldflags.
var Version = "dev"

var heading = color.New(color.FgCyan, color.Bold)

// Globals are the flags shared by every command.
type Globals struct {
	Config     string `short:"c" help:"Path to a YAML config file" type:"path"`
	WorkingDir string `short:"d" help:"Directory holding the pipeline output files" type:"path"`
	Store      string `help:"Directory of the Badger snapshot store" type:"path"`
	LogLevel   string `help:"Log level (debug|info|warn|error)"`
	JSON       bool   `help:"Print results as JSON"`

	out io.Writer
}

func (g *Globals) stdout() io.Writer {
	if g.out == nil {
		return os.Stdout
	}
	return g.out
}

// load resolves the configuration and builds the logger.
func (g *Globals) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(g.Config, func(c *config.Config) {
		if g.WorkingDir != "" {
			c.WorkingDir = g.WorkingDir
		}
		if g.Store != "" {
			c.StorePath = g.Store
		}
		if g.LogLevel != "" {
			c.Log.Level = g.LogLevel
		}
	})
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// session is an opened snapshot ready to answer queries.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	svc    *hypergraph.Service
	store  *storage.BadgerBackend
}

func (s *session) Close() {
	_ = s.store.Close()
	_ = s.logger.Sync()
}

// open loads the configuration and opens the snapshot store read-only.
func (g *Globals) open(ctx context.Context) (*session, error) {
	cfg, logger, err := g.load()
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg.StorePath, true)
	if err != nil {
		return nil, err
	}

	svc, err := newService(ctx, cfg, store, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, svc: svc, store: store}, nil
}

// newService builds the query service over store with the configured index.
func newService(ctx context.Context, cfg *config.Config, store snapshot.EmbeddingSource, logger *zap.Logger) (*hypergraph.Service, error) {
	index, err := snapshot.BuildIndex(ctx, cfg.Embedding, store, logger)
	if err != nil {
		return nil, fmt.Errorf("building vector index: %w", err)
	}
	return hypergraph.New(store,
		hypergraph.WithLogger(logger),
		hypergraph.WithIndex(index),
	), nil
}

// openStore opens the Badger store at path. A read-only open requires an
// existing snapshot.
func openStore(path string, readOnly bool) (*storage.BadgerBackend, error) {
	if readOnly {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no snapshot found at %s. Run 'hyperview import' first", path)
		}
	} else if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	store := storage.NewBadgerBackend()
	if err := store.Initialize(path, readOnly); err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	return store, nil
}

// ImportCmd loads the pipeline output into the snapshot store.
type ImportCmd struct{}

// Run executes the import command.
func (c *ImportCmd) Run(g *Globals) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, logger, err := g.load()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, err := openStore(cfg.StorePath, false)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	result, err := importSnapshot(ctx, cfg, store, logger)
	if err != nil {
		return err
	}

	w := g.stdout()
	if g.JSON {
		return writeJSON(w, result)
	}
	color.New(color.FgGreen).Fprintf(w, "✓ Imported %s\n", cfg.GraphPath())
	fmt.Fprintf(w, "  Entities:       %d\n", result.Entities)
	fmt.Fprintf(w, "  Hyperedges:     %d\n", result.Hyperedges)
	fmt.Fprintf(w, "  Relationships:  %d\n", result.Relationships)
	fmt.Fprintf(w, "  Embeddings:     %d\n", result.Embeddings)
	fmt.Fprintf(w, "  Duration:       %.2fs\n", result.Duration.Seconds())
	return nil
}

// importSnapshot imports the configured files into store and records the
// import in meta.json.
func importSnapshot(ctx context.Context, cfg *config.Config, store storage.SnapshotBackend, logger *zap.Logger) (*snapshot.Result, error) {
	result, err := snapshot.Import(ctx, snapshot.Options{
		GraphPath:  cfg.GraphPath(),
		VectorPath: cfg.VectorPath(),
		Logger:     logger,
	}, store)
	if err != nil {
		return nil, err
	}

	meta := Meta{
		Version:    Version,
		GraphFile:  cfg.GraphPath(),
		VectorFile: cfg.VectorPath(),
		ImportedAt: time.Now().UTC().Format(time.RFC3339),
		Stats:      *result,
	}
	if err := writeMeta(metaPath(cfg), meta); err != nil {
		return nil, err
	}
	return result, nil
}

// EntitiesCmd lists entities.
type EntitiesCmd struct {
	Limit  int    `short:"n" default:"100" help:"Maximum entities"`
	Offset int    `help:"Entities to skip"`
	Type   string `short:"t" help:"Only entities of this type"`
}

// Run executes the entities command.
func (c *EntitiesCmd) Run(g *Globals) error {
	ctx := context.Background()
	s, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	nodes, err := s.svc.ListEntities(ctx, hypergraph.EntityQuery{Limit: c.Limit, Offset: c.Offset, EntityType: c.Type})
	if err != nil {
		return err
	}

	w := g.stdout()
	if g.JSON {
		return writeJSON(w, nodes)
	}
	if len(nodes) == 0 {
		fmt.Fprintln(w, "No entities found")
		return nil
	}
	heading.Fprintf(w, "## Entities (%d)\n\n", len(nodes))
	for _, n := range nodes {
		printNode(w, n)
	}
	return nil
}

// EntityCmd shows one entity.
type EntityCmd struct {
	ID string `arg:"" help:"Raw entity id"`
}

// Run executes the entity command.
func (c *EntityCmd) Run(g *Globals) error {
	ctx := context.Background()
	s, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	node, err := s.svc.GetEntity(ctx, c.ID)
	if err != nil {
		return err
	}
	if node == nil {
		return hypergraph.NotFound("entity", c.ID)
	}

	w := g.stdout()
	if g.JSON {
		return writeJSON(w, node)
	}
	heading.Fprintf(w, "## %s\n\n", node.Label)
	fmt.Fprintf(w, "**ID:** %s\n", node.ID)
	fmt.Fprintf(w, "**Type:** %s\n", node.Type)
	fmt.Fprintf(w, "**Weight:** %g\n", node.Weight)
	if node.Description != "" {
		fmt.Fprintf(w, "\n%s\n", node.Description)
	}
	fmt.Fprintln(w, "\nNext: Use `hyperview subgraph` to see what it is connected to.")
	return nil
}

// EdgesCmd lists projected edges.
type EdgesCmd struct {
	Limit     int      `short:"n" default:"100" help:"Maximum edges"`
	Offset    int      `help:"Edges to skip"`
	MinWeight *float64 `help:"Drop hyperedges lighter than this"`
}

// Run executes the edges command.
func (c *EdgesCmd) Run(g *Globals) error {
	ctx := context.Background()
	s, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	edges, err := s.svc.ListEdges(ctx, hypergraph.EdgeQuery{Limit: c.Limit, Offset: c.Offset, MinWeight: c.MinWeight})
	if err != nil {
		return err
	}

	w := g.stdout()
	if g.JSON {
		return writeJSON(w, edges)
	}
	if len(edges) == 0 {
		fmt.Fprintln(w, "No edges found")
		return nil
	}
	heading.Fprintf(w, "## Edges (%d)\n\n", len(edges))
	for _, e := range edges {
		printEdge(w, e)
	}
	return nil
}

// EdgeCmd shows one projected edge.
type EdgeCmd struct {
	ID string `arg:"" help:"Composite edge id"`
}

// Run executes the edge command.
func (c *EdgeCmd) Run(g *Globals) error {
	ctx := context.Background()
	s, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	edge, err := s.svc.GetEdge(ctx, c.ID)
	if err != nil {
		return err
	}
	if edge == nil {
		return hypergraph.NotFound("edge", c.ID)
	}

	w := g.stdout()
	if g.JSON {
		return writeJSON(w, edge)
	}
	printEdge(w, *edge)
	fmt.Fprintf(w, "   Entities: %d\n", len(edge.Entities))
	return nil
}

// StatsCmd shows graph metrics.
type StatsCmd struct{}

// Run executes the stats command.
func (c *StatsCmd) Run(g *Globals) error {
	ctx := context.Background()
	s, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	stats, err := s.svc.Stats(ctx)
	if err != nil {
		return err
	}

	w := g.stdout()
	if g.JSON {
		return writeJSON(w, stats)
	}
	heading.Fprintln(w, "## Graph Stats")
	fmt.Fprintf(w, "  Nodes:           %d\n", stats.NumNodes)
	fmt.Fprintf(w, "  Edges:           %d\n", stats.NumEdges)
	fmt.Fprintf(w, "  Hyperedges:      %d\n", stats.NumHyperedges)
	fmt.Fprintf(w, "  Average degree:  %.4f\n", stats.AvgDegree)
	fmt.Fprintf(w, "  Density:         %.6f\n", stats.Density)
	return nil
}

// SubgraphCmd shows the neighborhood of an entity.
type SubgraphCmd struct {
	ID    string `arg:"" help:"Raw id of the center entity"`
	Depth int    `short:"k" default:"1" help:"Traversal depth (1-3)"`
}

// Run executes the subgraph command.
func (c *SubgraphCmd) Run(g *Globals) error {
	if c.Depth < 1 || c.Depth > hypergraph.MaxDepth {
		return fmt.Errorf("depth must be between 1 and %d", hypergraph.MaxDepth)
	}

	ctx := context.Background()
	s, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	sub, err := s.svc.Subgraph(ctx, c.ID, c.Depth)
	if err != nil {
		return err
	}
	if sub.IsEmpty() {
		return hypergraph.NotFound("entity", c.ID)
	}

	w := g.stdout()
	if g.JSON {
		return writeJSON(w, sub)
	}
	heading.Fprintf(w, "## Subgraph around %s (depth %d)\n\n", graph.DisplayLabel(c.ID), c.Depth)
	fmt.Fprintf(w, "### Entities (%d)\n", len(sub.Nodes))
	for _, n := range sub.Nodes {
		printNode(w, n)
	}
	fmt.Fprintf(w, "\n### Edges (%d)\n", len(sub.Edges))
	for _, e := range sub.Edges {
		printEdge(w, e)
	}
	return nil
}

// SearchCmd ranks entities by relevance to a keyword.
type SearchCmd struct {
	Keyword string `arg:"" help:"Search keyword"`
	Limit   int    `short:"n" default:"20" help:"Maximum results"`
}

// Run executes the search command.
func (c *SearchCmd) Run(g *Globals) error {
	ctx := context.Background()
	s, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	nodes, err := s.svc.Search(ctx, c.Keyword, c.Limit)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	w := g.stdout()
	if g.JSON {
		return writeJSON(w, nodes)
	}
	if len(nodes) == 0 {
		fmt.Fprintln(w, "No results found")
		return nil
	}
	heading.Fprintf(w, "Found %d results for '%s':\n\n", len(nodes), c.Keyword)
	for i, n := range nodes {
		fmt.Fprintf(w, "%d. ", i+1)
		printNode(w, n)
		if n.RelevanceScore != nil {
			fmt.Fprintf(w, "   Score: %.3f\n", *n.RelevanceScore)
		}
	}
	fmt.Fprintln(w, "\nNext: Use `hyperview entity` on a result for the full picture.")
	return nil
}

// StatusCmd shows what the snapshot store holds.
type StatusCmd struct{}

// storeCounts are read from the open store, not from meta.json, so they show
// a store that was cleaned or re-imported behind the last recorded import.
type storeCounts struct {
	Nodes         int `json:"nodes"`
	Relationships int `json:"relationships"`
}

// Run executes the status command.
func (c *StatusCmd) Run(g *Globals) error {
	cfg, _, err := g.load()
	if err != nil {
		return err
	}

	meta, err := readMeta(metaPath(cfg))
	if err != nil {
		return err
	}
	live, liveErr := readStoreCounts(cfg.StorePath)

	w := g.stdout()
	if g.JSON {
		return writeJSON(w, struct {
			*Meta
			Store *storeCounts `json:"store,omitempty"`
		}{meta, live})
	}
	heading.Fprintf(w, "Snapshot status for %s\n", cfg.WorkingDir)
	fmt.Fprintf(w, "  Version:        %s\n", meta.Version)
	fmt.Fprintf(w, "  Last imported:  %s\n", meta.ImportedAt)
	fmt.Fprintf(w, "  Graph file:     %s\n", meta.GraphFile)
	fmt.Fprintf(w, "  Entities:       %d\n", meta.Stats.Entities)
	fmt.Fprintf(w, "  Hyperedges:     %d\n", meta.Stats.Hyperedges)
	fmt.Fprintf(w, "  Relationships:  %d\n", meta.Stats.Relationships)
	fmt.Fprintf(w, "  Embeddings:     %d\n", meta.Stats.Embeddings)
	if liveErr != nil {
		fmt.Fprintf(w, "  Store:          unavailable (%v)\n", liveErr)
		return nil
	}
	fmt.Fprintf(w, "  Stored nodes:   %d\n", live.Nodes)
	fmt.Fprintf(w, "  Stored records: %d\n", live.Relationships)
	return nil
}

func readStoreCounts(path string) (*storeCounts, error) {
	store, err := openStore(path, true)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()
	return &storeCounts{Nodes: store.NodeCount(), Relationships: store.RelationshipCount()}, nil
}

// CleanCmd deletes the snapshot store.
type CleanCmd struct {
	Force bool `short:"f" help:"Skip confirmation"`

	in io.Reader
}

// Run executes the clean command.
func (c *CleanCmd) Run(g *Globals) error {
	cfg, _, err := g.load()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfg.StorePath); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("no snapshot found at %s. Nothing to clean", cfg.StorePath)
	}

	w := g.stdout()
	if !c.Force {
		in := c.in
		if in == nil {
			in = os.Stdin
		}
		fmt.Fprintf(w, "Delete snapshot at %s? [y/N] ", cfg.StorePath)
		var response string
		_, _ = fmt.Fscanln(in, &response)
		if response != "y" && response != "Y" {
			fmt.Fprintln(w, "Aborted")
			return nil
		}
	}

	if err := os.RemoveAll(cfg.StorePath); err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	if err := os.Remove(metaPath(cfg)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting meta.json: %w", err)
	}

	color.New(color.FgGreen).Fprintf(w, "Deleted %s\n", cfg.StorePath)
	return nil
}

// Helper functions

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func printNode(w io.Writer, n graph.Node) {
	fmt.Fprintf(w, "%s (%s) weight=%g\n", n.Label, n.Type, n.Weight)
	if n.Description != "" {
		fmt.Fprintf(w, "   %s\n", truncate(n.Description, 200))
	}
}

func printEdge(w io.Writer, e graph.ProjectedEdge) {
	fmt.Fprintf(w, "- %s -- %s  weight=%g\n", graph.DisplayLabel(e.Source), graph.DisplayLabel(e.Target), e.Weight)
	fmt.Fprintf(w, "   via %s\n", graph.HyperedgeLabel(e.Hyperedge))
	fmt.Fprintf(w, "   id: %s\n", e.ID)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// CLI is the root Kong command structure.
type CLI struct {
	Globals

	Version kong.VersionFlag `help:"Show version information"`

	// Commands
	Import   ImportCmd   `cmd:"" help:"Import the pipeline output into the snapshot store"`
	Entities EntitiesCmd `cmd:"" help:"List entities"`
	Entity   EntityCmd   `cmd:"" help:"Show one entity"`
	Edges    EdgesCmd    `cmd:"" help:"List projected entity-to-entity edges"`
	Edge     EdgeCmd     `cmd:"" help:"Show one projected edge"`
	Stats    StatsCmd    `cmd:"" help:"Show graph metrics"`
	Subgraph SubgraphCmd `cmd:"" help:"Show the neighborhood of an entity"`
	Search   SearchCmd   `cmd:"" help:"Search entities by keyword"`
	MCP      MCPCmd      `cmd:"" help:"Start MCP server (stdio transport)"`
	Serve    ServeCmd    `cmd:"" help:"Start MCP server with optional watch mode"`
	Setup    SetupCmd    `cmd:"" help:"Configure MCP for Claude Code / Cursor / Qwen"`
	Status   StatusCmd   `cmd:"" help:"Show snapshot status"`
	Clean    CleanCmd    `cmd:"" help:"Delete the snapshot store"`
}

// NewCLI creates a new CLI instance.
func NewCLI() *CLI {
	return &CLI{}
}

// Execute parses command-line arguments and executes the selected command.
func (c *CLI) Execute(args []string) error {
	parser, err := kong.New(c,
		kong.Name("hyperview"),
		kong.Description("Query service for entity-hyperedge knowledge graphs"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": Version,
		},
	)
	if err != nil {
		return err
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return kongCtx.Run(&c.Globals)
}
