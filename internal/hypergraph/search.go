package hypergraph

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Benny93/hyperview/internal/graph"
	"github.com/Benny93/hyperview/internal/vectors"
)

// Lexical fallback scores.
const (
	LabelMatchScore       = 1.0
	DescriptionMatchScore = 0.5
)

// Search returns up to limit entities ranked by relevance to keyword.
//
// The vector index is asked first and its similarities are passed through as
// relevance scores. Only when the index fails does Search scan all entities
// lexically; that failure is logged and never returned.
func (s *Service) Search(ctx context.Context, keyword string, limit int) ([]graph.Node, error) {
	r, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []graph.Node{}, nil
	}

	matches, err := r.index.Search(ctx, keyword, limit)
	if err == nil {
		nodes := fromMatches(matches, limit)
		s.log().Info("vector search",
			zap.String("keyword", keyword),
			zap.Int("results", len(nodes)),
		)
		return nodes, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	s.log().Error("vector search failed, using lexical fallback",
		zap.String("keyword", keyword),
		zap.Error(err),
	)
	return s.lexicalSearch(ctx, r, keyword, limit)
}

func fromMatches(matches []vectors.Match, limit int) []graph.Node {
	if len(matches) > limit {
		matches = matches[:limit]
	}
	nodes := make([]graph.Node, 0, len(matches))
	for _, m := range matches {
		n := graph.Node{
			ID:          m.ID,
			Label:       graph.DisplayLabel(m.ID),
			Type:        graph.EntityTypeLabel(m.EntityType),
			Description: graph.CleanText(m.Description),
			Weight:      m.Weight,
		}
		nodes = append(nodes, n.WithScore(m.Similarity))
	}
	return nodes
}

// lexicalSearch scores entities by case-insensitive substring match on the
// display label, then the description, keeping store order among equals.
func (s *Service) lexicalSearch(ctx context.Context, r *ready, keyword string, limit int) ([]graph.Node, error) {
	all, err := r.store.Nodes(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(keyword)
	nodes := make([]graph.Node, 0)
	for _, n := range all {
		if !n.IsEntity() {
			continue
		}
		view := graph.NewNode(n)
		switch {
		case strings.Contains(strings.ToLower(view.Label), needle):
			nodes = append(nodes, view.WithScore(LabelMatchScore))
		case strings.Contains(strings.ToLower(view.Description), needle):
			nodes = append(nodes, view.WithScore(DescriptionMatchScore))
		}
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		return *nodes[i].RelevanceScore > *nodes[j].RelevanceScore
	})
	if len(nodes) > limit {
		nodes = nodes[:limit]
	}

	s.log().Info("lexical search",
		zap.String("keyword", keyword),
		zap.Int("results", len(nodes)),
	)
	return nodes, nil
}
