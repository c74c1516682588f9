package snapshot

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Benny93/hyperview/internal/config"
	"github.com/Benny93/hyperview/internal/embeddings"
	"github.com/Benny93/hyperview/internal/graph"
	"github.com/Benny93/hyperview/internal/storage"
	"github.com/Benny93/hyperview/internal/vectors"
)

// EmbeddingSource is a store that also serves stored entity vectors.
type EmbeddingSource interface {
	storage.GraphStore
	Embeddings(ctx context.Context) ([]storage.EntityEmbedding, error)
}

// BuildIndex creates the vector index for the configured provider.
//
//   - none: an index that is never available, so search is always lexical.
//   - openai: the pipeline's stored vectors, queried through the OpenAI
//     embeddings API behind a circuit breaker.
//   - tfidf: a TF-IDF model fit on the snapshot's entities.
func BuildIndex(ctx context.Context, cfg config.EmbeddingConfig, store EmbeddingSource, logger *zap.Logger) (vectors.Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Provider {
	case config.ProviderNone:
		logger.Info("vector search disabled")
		return vectors.Disabled{}, nil

	case config.ProviderOpenAI:
		embs, err := store.Embeddings(ctx)
		if err != nil {
			return nil, err
		}
		if len(embs) == 0 {
			logger.Warn("no stored embeddings, vector search disabled")
			return vectors.Disabled{}, nil
		}
		embedder := embeddings.NewOpenAIEmbedder(embeddings.OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
		guarded := embeddings.NewBreakerEmbedder(embedder, "openai-embeddings", embeddings.DefaultBreakerConfig, logger)
		logger.Info("vector index ready",
			zap.String("provider", cfg.Provider),
			zap.String("model", embedder.Model()),
			zap.Int("entries", len(embs)),
		)
		return vectors.NewEmbeddingIndex(guarded, vectors.EntriesFromEmbeddings(embs)), nil

	case config.ProviderTFIDF, "":
		return buildTFIDFIndex(ctx, cfg.Dimension, store, logger)

	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

func buildTFIDFIndex(ctx context.Context, dimension int, store storage.GraphStore, logger *zap.Logger) (vectors.Index, error) {
	nodes, err := store.Nodes(ctx)
	if err != nil {
		return nil, err
	}

	var entities []*graph.GraphNode
	for _, n := range nodes {
		if n.IsEntity() {
			entities = append(entities, n)
		}
	}

	embedder := embeddings.NewTFIDFEmbedder(dimension)
	vecs := embedder.EmbedNodes(entities)

	entries := make([]vectors.Entry, len(entities))
	for i, n := range entities {
		entries[i] = vectors.Entry{
			ID:          n.ID,
			Description: n.Description,
			EntityType:  n.EntityType,
			Weight:      n.Weight,
			Vector:      vecs[i],
		}
	}

	logger.Info("vector index ready",
		zap.String("provider", config.ProviderTFIDF),
		zap.Int("dimension", embedder.Dimension()),
		zap.Int("entries", len(entries)),
	)
	return vectors.NewEmbeddingIndex(embedder, entries), nil
}
