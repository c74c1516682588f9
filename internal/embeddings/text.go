package embeddings

import (
	"strings"

	"github.com/Benny93/hyperview/internal/graph"
)

// EntityText generates the text embedded for an entity: its display label,
// followed by its type and description when present.
func EntityText(node *graph.GraphNode) string {
	if node == nil {
		return ""
	}

	parts := []string{graph.DisplayLabel(node.ID)}
	if t := graph.CleanText(node.EntityType); t != "" {
		parts = append(parts, t)
	}
	if d := graph.CleanText(node.Description); d != "" {
		parts = append(parts, d)
	}
	return strings.Join(parts, ". ")
}
