package storage

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/Benny93/hyperview/internal/graph"
)

// GraphML attribute names written by the knowledge construction pipeline.
const (
	attrRole        = "role"
	attrEntityType  = "entity_type"
	attrDescription = "description"
	attrWeight      = "weight"
	attrSourceID    = "source_id"
	attrKeywords    = "keywords"
	attrEntities    = "entities"
)

type graphMLDocument struct {
	XMLName xml.Name       `xml:"graphml"`
	Keys    []graphMLKey   `xml:"key"`
	Graphs  []graphMLGraph `xml:"graph"`
}

type graphMLKey struct {
	ID   string `xml:"id,attr"`
	For  string `xml:"for,attr"`
	Name string `xml:"attr.name,attr"`
}

type graphMLGraph struct {
	Nodes []graphMLElement `xml:"node"`
	Edges []graphMLElement `xml:"edge"`
}

type graphMLElement struct {
	ID     string        `xml:"id,attr"`
	Source string        `xml:"source,attr"`
	Target string        `xml:"target,attr"`
	Data   []graphMLData `xml:"data"`
}

type graphMLData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// LoadGraphML reads a GraphML file into a KnowledgeGraph.
func LoadGraphML(path string) (*graph.KnowledgeGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening graphml: %w", err)
	}
	defer f.Close()

	return ReadGraphML(f)
}

// ReadGraphML decodes a GraphML document. Nodes keep document order and
// each node's adjacency keeps the order its edges appear in. Malformed
// numeric attributes fall back to defaults; a malformed document is an error.
func ReadGraphML(r io.Reader) (*graph.KnowledgeGraph, error) {
	var doc graphMLDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding graphml: %w", err)
	}

	nodeKeys := make(map[string]string)
	edgeKeys := make(map[string]string)
	for _, k := range doc.Keys {
		name := k.Name
		if name == "" {
			name = k.ID
		}
		switch k.For {
		case "node":
			nodeKeys[k.ID] = name
		case "edge":
			edgeKeys[k.ID] = name
		default:
			nodeKeys[k.ID] = name
			edgeKeys[k.ID] = name
		}
	}

	g := graph.NewKnowledgeGraph()
	for _, gr := range doc.Graphs {
		for _, el := range gr.Nodes {
			if el.ID == "" {
				continue
			}
			g.AddNode(decodeNode(el, nodeKeys))
		}
		for _, el := range gr.Edges {
			if el.Source == "" || el.Target == "" {
				continue
			}
			g.AddRelationship(decodeEdge(el, edgeKeys))
		}
	}
	return g, nil
}

func decodeNode(el graphMLElement, keys map[string]string) *graph.GraphNode {
	node := &graph.GraphNode{ID: el.ID, Weight: graph.DefaultWeight}
	for _, d := range el.Data {
		name := keys[d.Key]
		switch name {
		case attrRole:
			node.Role = graph.NodeRole(strings.TrimSpace(d.Value))
		case attrEntityType:
			node.EntityType = d.Value
		case attrDescription:
			node.Description = d.Value
		case attrWeight:
			node.Weight = parseWeight(d.Value)
		case attrSourceID:
			node.SourceID = d.Value
		default:
			node.Properties = setProperty(node.Properties, name, d)
		}
	}
	return node
}

func decodeEdge(el graphMLElement, keys map[string]string) *graph.GraphRelationship {
	rel := &graph.GraphRelationship{Source: el.Source, Target: el.Target, Weight: graph.DefaultWeight}
	for _, d := range el.Data {
		name := keys[d.Key]
		switch name {
		case attrWeight:
			rel.Weight = parseWeight(d.Value)
		case attrDescription:
			rel.Description = d.Value
		case attrKeywords:
			rel.Keywords = d.Value
		case attrSourceID:
			rel.SourceID = d.Value
		case attrEntities:
			rel.Entities = splitEntities(d.Value)
		default:
			rel.Properties = setProperty(rel.Properties, name, d)
		}
	}
	return rel
}

// parseWeight returns DefaultWeight for missing or unparsable values and
// clamps negatives to zero.
func parseWeight(s string) float64 {
	w, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(w) || math.IsInf(w, 0) {
		return graph.DefaultWeight
	}
	if w < 0 {
		return 0
	}
	return w
}

func splitEntities(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setProperty(props map[string]string, name string, d graphMLData) map[string]string {
	if name == "" {
		name = d.Key
	}
	if props == nil {
		props = make(map[string]string)
	}
	props[name] = d.Value
	return props
}
