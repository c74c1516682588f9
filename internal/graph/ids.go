package graph

import (
	"strings"
)

// HyperedgeMarker is the prefix the construction pipeline puts on hyperedge IDs.
const HyperedgeMarker = "<hyperedge>"

// EdgeIDSeparator joins the three segments of a composite edge ID.
const EdgeIDSeparator = "-"

const quoteChars = `"`

// Everything below is display-only. Store lookups always use the raw ID.

// CleanText strips the literal quote decoration the pipeline leaves around
// attribute values.
func CleanText(s string) string {
	return strings.Trim(s, quoteChars)
}

// DisplayLabel returns the display label of an entity ID.
func DisplayLabel(id string) string {
	return CleanText(id)
}

// HyperedgeLabel returns the display label of a hyperedge ID: quotes and the
// hyperedge marker removed.
func HyperedgeLabel(id string) string {
	label := CleanText(id)
	label = strings.TrimPrefix(label, HyperedgeMarker)
	return strings.TrimSpace(CleanText(label))
}

// EntityTypeLabel returns the cleaned entity type, or "unknown" when empty.
func EntityTypeLabel(entityType string) string {
	if t := CleanText(entityType); t != "" {
		return t
	}
	return "unknown"
}

var (
	segmentEscaper   = strings.NewReplacer("%", "%25", EdgeIDSeparator, "%2D")
	segmentUnescaper = strings.NewReplacer("%2D", EdgeIDSeparator, "%2d", EdgeIDSeparator, "%25", "%")
)

// EdgeID builds the composite ID of a projected edge. Each segment has "%"
// and the separator percent-escaped, so IDs containing hyphens round-trip.
// IDs without either character encode to the plain "source-target-hyperedge" form.
func EdgeID(source, target, hyperedge string) string {
	return segmentEscaper.Replace(source) + EdgeIDSeparator +
		segmentEscaper.Replace(target) + EdgeIDSeparator +
		segmentEscaper.Replace(hyperedge)
}

// ParseEdgeID splits a composite edge ID into its raw segments. It reports
// false unless the ID has exactly three non-empty segments.
func ParseEdgeID(id string) (source, target, hyperedge string, ok bool) {
	parts := strings.Split(id, EdgeIDSeparator)
	if len(parts) != 3 {
		return "", "", "", false
	}
	for i, part := range parts {
		if part == "" {
			return "", "", "", false
		}
		parts[i] = segmentUnescaper.Replace(part)
	}
	return parts[0], parts[1], parts[2], true
}
