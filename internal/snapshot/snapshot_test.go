package snapshot

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"maps"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

const testGraphML = `<?xml version='1.0' encoding='utf-8'?>
<graphml xmlns="http://graphml.graphdrawing.org/xmlns">
  <key id="d0" for="node" attr.name="role" attr.type="string" />
  <key id="d1" for="node" attr.name="entity_type" attr.type="string" />
  <key id="d2" for="node" attr.name="description" attr.type="string" />
  <key id="d3" for="node" attr.name="weight" attr.type="double" />
  <graph edgedefault="undirected">
    <node id="&quot;THEFT&quot;">
      <data key="d0">entity</data>
      <data key="d1">"CRIME"</data>
      <data key="d2">"Taking property without consent"</data>
      <data key="d3">2</data>
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
    </node>
    <edge source="&quot;THEFT&quot;" target="&lt;hyperedge&gt;&quot;Crimes are tried in court&quot;" />
    <edge source="&quot;FRAUD&quot;" target="&lt;hyperedge&gt;&quot;Crimes are tried in court&quot;" />
    <edge source="&quot;COURT&quot;" target="&lt;hyperedge&gt;&quot;Crimes are tried in court&quot;" />
  </graph>
</graphml>`

// writeSnapshot writes a graph file and, when records is non-nil, a
// nano-vectordb file holding one 2-d vector per record key.
func writeSnapshot(t *testing.T, records map[string][]float32) (graphPath, vectorPath string) {
	t.Helper()
	dir := t.TempDir()

	graphPath = filepath.Join(dir, "graph_chunk_entity_relation.graphml")
	require.NoError(t, os.WriteFile(graphPath, []byte(testGraphML), 0o644))

	vectorPath = filepath.Join(dir, "vdb_entities.json")
	if records == nil {
		return graphPath, vectorPath
	}

	var (
		data []map[string]any
		buf  []byte
	)
	for _, key := range slices.Sorted(maps.Keys(records)) {
		data = append(data, map[string]any{"__id__": "ent-" + key, "entity_name": key})
		for _, v := range records[key] {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}
	raw, err := json.Marshal(map[string]any{
		"embedding_dim": 2,
		"data":          data,
		"matrix":        base64.StdEncoding.EncodeToString(buf),
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(vectorPath, raw, 0o644))
	return graphPath, vectorPath
}
