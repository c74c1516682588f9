package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/hyperview/internal/config"
	"github.com/Benny93/hyperview/internal/graph"
	"github.com/Benny93/hyperview/internal/hypergraph"
)

const testGraphML = `<?xml version='1.0' encoding='utf-8'?>
<graphml xmlns="http://graphml.graphdrawing.org/xmlns">
  <key id="d0" for="node" attr.name="role" attr.type="string" />
  <key id="d1" for="node" attr.name="entity_type" attr.type="string" />
  <key id="d2" for="node" attr.name="description" attr.type="string" />
  <key id="d3" for="node" attr.name="weight" attr.type="double" />
  <key id="d4" for="edge" attr.name="entities" attr.type="string" />
  <graph edgedefault="undirected">
    <node id="&quot;THEFT&quot;">
      <data key="d0">entity</data>
      <data key="d1">"CRIME"</data>
      <data key="d2">"Taking property without consent"</data>
    </node>
    <node id="&quot;FRAUD&quot;">
      <data key="d0">entity</data>
      <data key="d1">"CRIME"</data>
      <data key="d2">"Deception for gain"</data>
    </node>
    <node id="&quot;COURT&quot;">
      <data key="d0">entity</data>
      <data key="d1">"ORGANIZATION"</data>
      <data key="d2">"Hears criminal cases"</data>
    </node>
    <node id="&lt;hyperedge&gt;&quot;Crimes are tried in court&quot;">
      <data key="d0">hyperedge</data>
      <data key="d3">0.9</data>
    </node>
    <edge source="&quot;THEFT&quot;" target="&lt;hyperedge&gt;&quot;Crimes are tried in court&quot;">
      <data key="d4">"THEFT","FRAUD","COURT"</data>
    </edge>
    <edge source="&quot;FRAUD&quot;" target="&lt;hyperedge&gt;&quot;Crimes are tried in court&quot;">
      <data key="d4">"THEFT","FRAUD","COURT"</data>
    </edge>
    <edge source="&quot;COURT&quot;" target="&lt;hyperedge&gt;&quot;Crimes are tried in court&quot;">
      <data key="d4">"THEFT","FRAUD","COURT"</data>
    </edge>
  </graph>
</graphml>`

const trial = `<hyperedge>"Crimes are tried in court"`

// newGlobals returns globals for a fresh working directory holding the
// test graph, with output captured in the returned buffer.
func newGlobals(t *testing.T) (*Globals, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultGraphFile), []byte(testGraphML), 0o644))

	var out bytes.Buffer
	return &Globals{WorkingDir: dir, LogLevel: "error", out: &out}, &out
}

// importedGlobals is newGlobals after a successful import.
func importedGlobals(t *testing.T) (*Globals, *bytes.Buffer) {
	t.Helper()
	g, out := newGlobals(t)
	require.NoError(t, (&ImportCmd{}).Run(g))
	out.Reset()
	return g, out
}

func TestImportCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("ImportsSnapshot", func(t *testing.T) {
		t.Parallel()
		g, out := newGlobals(t)

		require.NoError(t, (&ImportCmd{}).Run(g))
		assert.Contains(t, out.String(), "Entities:       3")
		assert.Contains(t, out.String(), "Hyperedges:     1")
		assert.Contains(t, out.String(), "Embeddings:     0")

		storeDir := filepath.Join(g.WorkingDir, ".hyperview", "badger")
		_, err := os.Stat(storeDir)
		assert.NoError(t, err)

		meta, err := readMeta(filepath.Join(g.WorkingDir, ".hyperview", "meta.json"))
		require.NoError(t, err)
		assert.Equal(t, Version, meta.Version)
		assert.Equal(t, 3, meta.Stats.Relationships)
	})

	t.Run("CustomStore", func(t *testing.T) {
		t.Parallel()
		g, _ := newGlobals(t)
		g.Store = filepath.Join(t.TempDir(), "elsewhere")

		require.NoError(t, (&ImportCmd{}).Run(g))
		_, err := os.Stat(g.Store)
		assert.NoError(t, err)
	})

	t.Run("MissingGraph", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		g := &Globals{WorkingDir: t.TempDir(), LogLevel: "error", out: &out}

		assert.Error(t, (&ImportCmd{}).Run(g))
	})
}

func TestQueryCmds_NoSnapshot(t *testing.T) {
	t.Parallel()

	g, _ := newGlobals(t)
	tests := []struct {
		name string
		run  func(*Globals) error
	}{
		{"Entities", (&EntitiesCmd{Limit: 10}).Run},
		{"Entity", (&EntityCmd{ID: `"THEFT"`}).Run},
		{"Edges", (&EdgesCmd{Limit: 10}).Run},
		{"Edge", (&EdgeCmd{ID: "a-b-c"}).Run},
		{"Stats", (&StatsCmd{}).Run},
		{"Subgraph", (&SubgraphCmd{ID: `"THEFT"`, Depth: 1}).Run},
		{"Search", (&SearchCmd{Keyword: "theft", Limit: 5}).Run},
		{"Status", (&StatusCmd{}).Run},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run(g)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "no snapshot found")
		})
	}
}

func TestEntitiesCmd_Run(t *testing.T) {
	t.Parallel()

	g, out := importedGlobals(t)

	t.Run("Text", func(t *testing.T) {
		out.Reset()
		require.NoError(t, (&EntitiesCmd{Limit: 100}).Run(g))
		assert.Contains(t, out.String(), "## Entities (3)")
		assert.Contains(t, out.String(), "THEFT (CRIME)")
		assert.NotContains(t, out.String(), "hyperedge")
	})

	t.Run("FilteredJSON", func(t *testing.T) {
		out.Reset()
		jg := *g
		jg.JSON = true
		require.NoError(t, (&EntitiesCmd{Limit: 100, Type: "ORGANIZATION"}).Run(&jg))

		var nodes []graph.Node
		require.NoError(t, json.Unmarshal(out.Bytes(), &nodes))
		require.Len(t, nodes, 1)
		assert.Equal(t, `"COURT"`, nodes[0].ID)
	})

	t.Run("EmptyPage", func(t *testing.T) {
		out.Reset()
		require.NoError(t, (&EntitiesCmd{Limit: 10, Offset: 50}).Run(g))
		assert.Contains(t, out.String(), "No entities found")
	})
}

func TestEntityCmd_Run(t *testing.T) {
	t.Parallel()

	g, out := importedGlobals(t)

	require.NoError(t, (&EntityCmd{ID: `"FRAUD"`}).Run(g))
	assert.Contains(t, out.String(), "## FRAUD")
	assert.Contains(t, out.String(), "Deception for gain")

	err := (&EntityCmd{ID: trial}).Run(g)
	assert.ErrorIs(t, err, hypergraph.ErrNotFound)
}

func TestEdgeCmds_Run(t *testing.T) {
	t.Parallel()

	g, out := importedGlobals(t)
	jg := *g
	jg.JSON = true

	require.NoError(t, (&EdgesCmd{Limit: 100}).Run(&jg))
	var edges []graph.ProjectedEdge
	require.NoError(t, json.Unmarshal(out.Bytes(), &edges))
	require.Len(t, edges, 3)
	assert.Equal(t, `"THEFT"`, edges[0].Source)
	assert.Equal(t, `"FRAUD"`, edges[0].Target)

	t.Run("MinWeight", func(t *testing.T) {
		out.Reset()
		heavy := 0.95
		require.NoError(t, (&EdgesCmd{Limit: 100, MinWeight: &heavy}).Run(g))
		assert.Contains(t, out.String(), "No edges found")
	})

	t.Run("Edge", func(t *testing.T) {
		out.Reset()
		require.NoError(t, (&EdgeCmd{ID: edges[2].ID}).Run(g))
		assert.Contains(t, out.String(), "FRAUD -- COURT")
		assert.Contains(t, out.String(), "Entities: 3")
	})

	t.Run("EdgeNotFound", func(t *testing.T) {
		err := (&EdgeCmd{ID: graph.EdgeID(`"THEFT"`, `"THEFT"`, trial)}).Run(g)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestStatsCmd_Run(t *testing.T) {
	t.Parallel()

	g, out := importedGlobals(t)
	g.JSON = true

	require.NoError(t, (&StatsCmd{}).Run(g))
	var stats graph.GraphStats
	require.NoError(t, json.Unmarshal(out.Bytes(), &stats))
	assert.Equal(t, 4, stats.NumNodes)
	assert.Equal(t, 3, stats.NumEdges)
	assert.Equal(t, 3, stats.NumHyperedges)
	assert.InDelta(t, 1.5, stats.AvgDegree, 1e-9)
	assert.InDelta(t, 0.5, stats.Density, 1e-9)
}

func TestSubgraphCmd_Run(t *testing.T) {
	t.Parallel()

	g, out := importedGlobals(t)

	require.NoError(t, (&SubgraphCmd{ID: `"COURT"`, Depth: 2}).Run(g))
	assert.Contains(t, out.String(), "### Entities (3)")
	assert.Contains(t, out.String(), "### Edges (3)")

	t.Run("DepthOneReachesOnlyHyperedges", func(t *testing.T) {
		out.Reset()
		require.NoError(t, (&SubgraphCmd{ID: `"COURT"`, Depth: 1}).Run(g))
		assert.Contains(t, out.String(), "### Entities (1)")
		assert.Contains(t, out.String(), "### Edges (0)")
	})

	t.Run("UnknownCenter", func(t *testing.T) {
		err := (&SubgraphCmd{ID: "NOPE", Depth: 1}).Run(g)
		assert.ErrorIs(t, err, hypergraph.ErrNotFound)
	})

	t.Run("DepthOutOfRange", func(t *testing.T) {
		err := (&SubgraphCmd{ID: `"COURT"`, Depth: 4}).Run(g)
		assert.ErrorContains(t, err, "depth must be between 1 and 3")
	})
}

func TestSearchCmd_Run(t *testing.T) {
	t.Parallel()

	g, out := importedGlobals(t)

	require.NoError(t, (&SearchCmd{Keyword: "deception", Limit: 5}).Run(g))
	lines := strings.Split(out.String(), "\n")
	require.Greater(t, len(lines), 2)
	assert.Contains(t, lines[2], "1. FRAUD")

	t.Run("NoResults", func(t *testing.T) {
		out.Reset()
		require.NoError(t, (&SearchCmd{Keyword: "zebra", Limit: 5}).Run(g))
		assert.Contains(t, out.String(), "No results found")
	})
}

func TestStatusCmd_Run(t *testing.T) {
	t.Parallel()

	g, out := importedGlobals(t)

	require.NoError(t, (&StatusCmd{}).Run(g))
	assert.Contains(t, out.String(), "Snapshot status for "+g.WorkingDir)
	assert.Contains(t, out.String(), "Entities:       3")
	assert.Contains(t, out.String(), "Stored nodes:   4")
	assert.Contains(t, out.String(), "Stored records: 3")

	t.Run("JSON", func(t *testing.T) {
		out.Reset()
		g.JSON = true
		defer func() { g.JSON = false }()

		require.NoError(t, (&StatusCmd{}).Run(g))
		var status struct {
			Version string `json:"version"`
			Store   struct {
				Nodes         int `json:"nodes"`
				Relationships int `json:"relationships"`
			} `json:"store"`
		}
		require.NoError(t, json.Unmarshal(out.Bytes(), &status))
		assert.Equal(t, Version, status.Version)
		assert.Equal(t, 4, status.Store.Nodes)
		assert.Equal(t, 3, status.Store.Relationships)
	})

	t.Run("StoreRemovedBehindMeta", func(t *testing.T) {
		g, out := importedGlobals(t)
		cfg, _, err := g.load()
		require.NoError(t, err)
		require.NoError(t, os.RemoveAll(cfg.StorePath))

		require.NoError(t, (&StatusCmd{}).Run(g))
		assert.Contains(t, out.String(), "Store:          unavailable")
	})
}

func TestCleanCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("CleanWithNoSnapshot", func(t *testing.T) {
		t.Parallel()
		g, _ := newGlobals(t)
		assert.Error(t, (&CleanCmd{Force: true}).Run(g))
	})

	t.Run("CleanWithSnapshot", func(t *testing.T) {
		t.Parallel()
		g, _ := importedGlobals(t)

		require.NoError(t, (&CleanCmd{Force: true}).Run(g))

		_, err := os.Stat(filepath.Join(g.WorkingDir, ".hyperview", "badger"))
		assert.True(t, os.IsNotExist(err))
		_, err = os.Stat(filepath.Join(g.WorkingDir, ".hyperview", "meta.json"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("Aborted", func(t *testing.T) {
		t.Parallel()
		g, out := importedGlobals(t)

		require.NoError(t, (&CleanCmd{in: strings.NewReader("n\n")}).Run(g))
		assert.Contains(t, out.String(), "Aborted")

		_, err := os.Stat(filepath.Join(g.WorkingDir, ".hyperview", "badger"))
		assert.NoError(t, err)
	})
}

func TestCLI_Execute(t *testing.T) {
	t.Parallel()

	t.Run("UnknownCommand", func(t *testing.T) {
		assert.Error(t, NewCLI().Execute([]string{"analyze"}))
	})

	t.Run("BadLogLevel", func(t *testing.T) {
		err := NewCLI().Execute([]string{"--working-dir", t.TempDir(), "--log-level", "loud", "stats"})
		assert.ErrorContains(t, err, "Level")
	})
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
	assert.Equal(t, "日本...", truncate("日本語", 2))
}
