package cmd

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Benny93/hyperview/internal/config"
	"github.com/Benny93/hyperview/internal/hypergraph"
	"github.com/Benny93/hyperview/internal/snapshot"
	"github.com/Benny93/hyperview/internal/storage"
	"github.com/Benny93/hyperview/mcp"
)

// MCPCmd starts the MCP server.
type MCPCmd struct{}

// Run executes the mcp command.
func (c *MCPCmd) Run(g *Globals) error {
	return (&ServeCmd{}).Run(g)
}

// ServeCmd starts the MCP server with optional watch mode.
type ServeCmd struct {
	Watch    bool          `short:"w" help:"Re-import when the pipeline output changes"`
	Debounce time.Duration `default:"2s" help:"Quiet period before a re-import"`
}

// Run executes the serve command. Logs go to stderr: stdout carries the
// JSON-RPC stream.
func (c *ServeCmd) Run(g *Globals) error {
	ctx, stop := signalContext()
	defer stop()

	if !c.Watch {
		s, err := g.open(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		s.logger.Info("starting MCP server", zap.String("store", s.cfg.StorePath))
		return mcp.NewServer(s.svc, Version, s.logger).ServeStdio(ctx)
	}

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

	w := &watcher{cfg: cfg, store: store, logger: logger}
	svc, err := w.reload(ctx)
	if err != nil {
		return err
	}
	server := mcp.NewServer(svc, Version, logger)
	w.server = server

	go func() {
		err := snapshot.Watch(ctx, []string{cfg.GraphPath(), cfg.VectorPath()}, c.Debounce, w.onChange, logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("watch stopped", zap.Error(err))
		}
	}()

	logger.Info("starting MCP server with watch mode", zap.String("store", cfg.StorePath))
	return server.ServeStdio(ctx)
}

// watcher re-imports the snapshot and swaps the served service.
type watcher struct {
	cfg    *config.Config
	store  storage.SnapshotBackend
	logger *zap.Logger
	server *mcp.Server
}

// reload imports the pipeline output and builds a service over it.
func (w *watcher) reload(ctx context.Context) (*hypergraph.Service, error) {
	if _, err := importSnapshot(ctx, w.cfg, w.store, w.logger); err != nil {
		return nil, err
	}
	return newService(ctx, w.cfg, w.store, w.logger)
}

func (w *watcher) onChange(ctx context.Context) error {
	svc, err := w.reload(ctx)
	if err != nil {
		return err
	}
	w.server.Swap(svc)
	return nil
}
