// Package snapshot materializes the construction pipeline's output files
// into a graph store and keeps it current while they change.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Benny93/hyperview/internal/graph"
	"github.com/Benny93/hyperview/internal/storage"
	"github.com/Benny93/hyperview/internal/vectors"
)

// Options locates the pipeline files to import.
type Options struct {
	// GraphPath is the GraphML file. Required.
	GraphPath string

	// VectorPath is the nano-vectordb entity file. Optional; a missing file
	// is skipped with a warning.
	VectorPath string

	Logger *zap.Logger
}

// Result summarizes one import.
type Result struct {
	Nodes         int
	Entities      int
	Hyperedges    int
	Relationships int
	Embeddings    int
	Duration      time.Duration
}

// Import replaces the backend's contents with the graph at opts.GraphPath
// and stores the entity vectors found at opts.VectorPath.
func Import(ctx context.Context, opts Options, backend storage.SnapshotBackend) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()

	g, err := storage.LoadGraphML(opts.GraphPath)
	if err != nil {
		return nil, err
	}
	if err := backend.BulkLoad(ctx, g); err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	stats := g.Stats()
	result := &Result{
		Nodes:         stats["nodes"],
		Entities:      stats["entities"],
		Hyperedges:    stats["hyperedges"],
		Relationships: stats["relationships"],
	}

	if opts.VectorPath != "" {
		n, err := importVectors(ctx, opts.VectorPath, g, backend, logger)
		if err != nil {
			return nil, err
		}
		result.Embeddings = n
	}

	result.Duration = time.Since(start)
	logger.Info("imported snapshot",
		zap.String("graph", opts.GraphPath),
		zap.Int("nodes", result.Nodes),
		zap.Int("entities", result.Entities),
		zap.Int("hyperedges", result.Hyperedges),
		zap.Int("relationships", result.Relationships),
		zap.Int("embeddings", result.Embeddings),
		zap.Duration("took", result.Duration),
	)
	return result, nil
}

// importVectors stores the vectors of records whose key names an entity in
// g, carrying that entity's metadata.
func importVectors(ctx context.Context, path string, g *graph.KnowledgeGraph, backend storage.SnapshotBackend, logger *zap.Logger) (int, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		logger.Warn("vector file not found, skipping embeddings", zap.String("path", path))
		return 0, nil
	}

	db, err := vectors.LoadNanoVectorDB(path)
	if err != nil {
		return 0, err
	}

	embs := make([]storage.EntityEmbedding, 0, len(db.Records))
	skipped := 0
	for _, rec := range db.Records {
		node := g.GetNode(rec.Key())
		if !node.IsEntity() {
			skipped++
			continue
		}
		embs = append(embs, storage.EntityEmbedding{
			NodeID:      node.ID,
			Embedding:   rec.Vector,
			Description: node.Description,
			EntityType:  node.EntityType,
			Weight:      node.Weight,
		})
	}
	if skipped > 0 {
		logger.Warn("vector records without a matching entity", zap.Int("skipped", skipped))
	}

	if err := backend.StoreEmbeddings(ctx, embs); err != nil {
		return 0, fmt.Errorf("storing embeddings: %w", err)
	}
	return len(embs), nil
}
