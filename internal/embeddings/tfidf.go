package embeddings

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/Benny93/hyperview/internal/graph"
)

// DefaultDimension is the default size of generated TF-IDF vectors.
const DefaultDimension = 512

// TFIDFEmbedder generates TF-IDF based embeddings for entity text.
// It needs no external model: the vocabulary is fit on the snapshot's own
// entities.
type TFIDFEmbedder struct {
	mu        sync.RWMutex
	dimension int
	idf       map[string]float64 // term -> IDF score
	docCount  int                // number of documents processed
	vocab     map[string]int     // term -> index in embedding vector
}

// NewTFIDFEmbedder creates a new TF-IDF embedder producing vectors of the
// given dimension. A non-positive dimension selects DefaultDimension.
func NewTFIDFEmbedder(dimension int) *TFIDFEmbedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &TFIDFEmbedder{
		dimension: dimension,
		idf:       make(map[string]float64),
		vocab:     make(map[string]int),
	}
}

// Dimension returns the vector size.
func (e *TFIDFEmbedder) Dimension() int {
	return e.dimension
}

// Fit builds the vocabulary and IDF table from docs.
func (e *TFIDFEmbedder) Fit(docs []string) {
	e.BuildVocabulary(docs)
	e.ComputeIDF(docs)
}

// BuildVocabulary assigns vector slots to the terms found in the most
// documents, up to the dimension. Ties keep first-seen order so the layout
// is deterministic for a given corpus.
func (e *TFIDFEmbedder) BuildVocabulary(docs []string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.docCount = len(docs)

	var terms []string
	docFreq := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, term := range tokenize(doc) {
			if seen[term] {
				continue
			}
			seen[term] = true
			if docFreq[term] == 0 {
				terms = append(terms, term)
			}
			docFreq[term]++
		}
	}

	sort.SliceStable(terms, func(i, j int) bool {
		return docFreq[terms[i]] > docFreq[terms[j]]
	})
	if len(terms) > e.dimension {
		terms = terms[:e.dimension]
	}

	e.vocab = make(map[string]int, len(terms))
	for i, term := range terms {
		e.vocab[term] = i
	}
}

// ComputeIDF computes IDF scores for all terms in docs.
func (e *TFIDFEmbedder) ComputeIDF(docs []string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	docFreq := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, term := range tokenize(doc) {
			if !seen[term] {
				docFreq[term]++
				seen[term] = true
			}
		}
	}

	// Smoothed so a term present in every document still carries weight.
	for term, df := range docFreq {
		e.idf[term] = math.Log(float64(e.docCount+1)/float64(df)) + 1
	}
}

// EmbedText generates an L2-normalized TF-IDF vector for a document.
// A document with no known terms yields the zero vector.
func (e *TFIDFEmbedder) EmbedText(doc string) []float32 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	embedding := make([]float32, e.dimension)

	tf := make(map[string]int)
	maxTF := 0
	for _, term := range tokenize(doc) {
		tf[term]++
		if tf[term] > maxTF {
			maxTF = tf[term]
		}
	}

	for term, count := range tf {
		idx, exists := e.vocab[term]
		if !exists {
			continue
		}
		idf := e.idf[term]
		if idf == 0 {
			idf = 1.0
		}
		embedding[idx] = float32(float64(count) / float64(maxTF) * idf)
	}

	norm := 0.0
	for _, v := range embedding {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range embedding {
			embedding[i] = float32(float64(embedding[i]) / norm)
		}
	}

	return embedding
}

// Embed implements Embedder.
func (e *TFIDFEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.EmbedText(text)
	}
	return out, nil
}

// EmbedNodes fits the embedder on the nodes' text and returns one vector per
// node.
func (e *TFIDFEmbedder) EmbedNodes(nodes []*graph.GraphNode) [][]float32 {
	docs := make([]string, 0, len(nodes))
	for _, node := range nodes {
		docs = append(docs, EntityText(node))
	}

	e.Fit(docs)

	embeddings := make([][]float32, len(docs))
	for i, doc := range docs {
		embeddings[i] = e.EmbedText(doc)
	}
	return embeddings
}

// tokenize lowercases text and splits it on anything that is not a letter
// or digit, dropping single-character terms.
func tokenize(text string) []string {
	terms := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	filtered := make([]string, 0, len(terms))
	for _, term := range terms {
		if len([]rune(term)) >= 2 {
			filtered = append(filtered, term)
		}
	}
	return filtered
}
