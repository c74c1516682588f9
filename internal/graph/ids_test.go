package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayLabels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		fn       func(string) string
		input    string
		expected string
	}{
		{"EntityQuoted", DisplayLabel, `"THEFT"`, "THEFT"},
		{"EntityPlain", DisplayLabel, "THEFT", "THEFT"},
		{"EntityInnerQuotesKept", DisplayLabel, `"THE "BIG" ONE"`, `THE "BIG" ONE`},
		{"HyperedgeMarker", HyperedgeLabel, `<hyperedge>"Aspirin reduces fever"`, "Aspirin reduces fever"},
		{"HyperedgeQuotedMarker", HyperedgeLabel, `"<hyperedge>Aspirin reduces fever"`, "Aspirin reduces fever"},
		{"HyperedgeNoMarker", HyperedgeLabel, "plain", "plain"},
		{"HyperedgeKeepsInnerBrackets", HyperedgeLabel, `<hyperedge>"x <y> z"`, "x <y> z"},
		{"TextQuoted", CleanText, `"a crime"`, "a crime"},
		{"TypeEmpty", EntityTypeLabel, `""`, "unknown"},
		{"TypeQuoted", EntityTypeLabel, `"PERSON"`, "PERSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.fn(tt.input))
		})
	}
}

func TestEdgeID(t *testing.T) {
	t.Parallel()

	t.Run("PlainIDsUseLegacyForm", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, `"A"-"B"-<hyperedge>"H"`, EdgeID(`"A"`, `"B"`, `<hyperedge>"H"`))
	})

	t.Run("RoundTrip", func(t *testing.T) {
		t.Parallel()

		cases := [][3]string{
			{"A", "B", "H"},
			{"COVID-19", "SARS-CoV-2", "<hyperedge>\"COVID-19 is caused by SARS-CoV-2\""},
			{"100%", "50%2D", "h-%-h"},
		}
		for _, c := range cases {
			id := EdgeID(c[0], c[1], c[2])
			src, tgt, he, ok := ParseEdgeID(id)
			assert.True(t, ok, id)
			assert.Equal(t, c[0], src)
			assert.Equal(t, c[1], tgt)
			assert.Equal(t, c[2], he)
		}
	})

	t.Run("Malformed", func(t *testing.T) {
		t.Parallel()

		for _, id := range []string{"", "A", "A-B", "A-B-C-D", "A--C", "-B-C", "A-B-"} {
			_, _, _, ok := ParseEdgeID(id)
			assert.False(t, ok, id)
		}
	})
}
