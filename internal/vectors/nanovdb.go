package vectors

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// NanoVectorDB is the content of a nano-vectordb JSON file as written by the
// construction pipeline (vdb_entities.json).
type NanoVectorDB struct {
	Dimension int
	Records   []NanoRecord
}

// NanoRecord is one stored vector. EntityName is the raw entity ID when the
// pipeline recorded one.
type NanoRecord struct {
	ID         string
	EntityName string
	Content    string
	Vector     []float32
}

// Key returns the entity ID the record belongs to.
func (r NanoRecord) Key() string {
	if r.EntityName != "" {
		return r.EntityName
	}
	return r.ID
}

type nanoFile struct {
	EmbeddingDim int               `json:"embedding_dim"`
	Data         []json.RawMessage `json:"data"`
	Matrix       string            `json:"matrix"`
}

type nanoData struct {
	ID         string `json:"__id__"`
	EntityName string `json:"entity_name"`
	Content    string `json:"content"`
}

// LoadNanoVectorDB reads a nano-vectordb file. The matrix is a base64
// encoded row-major array of little-endian float32 values with one row per
// data record.
func LoadNanoVectorDB(path string) (*NanoVectorDB, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vector db: %w", err)
	}
	return ParseNanoVectorDB(raw)
}

// ParseNanoVectorDB decodes the JSON content of a nano-vectordb file.
func ParseNanoVectorDB(raw []byte) (*NanoVectorDB, error) {
	var f nanoFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decoding vector db: %w", err)
	}
	if f.EmbeddingDim <= 0 {
		return nil, fmt.Errorf("vector db has invalid embedding_dim %d", f.EmbeddingDim)
	}

	matrix, err := base64.StdEncoding.DecodeString(f.Matrix)
	if err != nil {
		return nil, fmt.Errorf("decoding vector matrix: %w", err)
	}

	rowBytes := f.EmbeddingDim * 4
	if len(matrix) != rowBytes*len(f.Data) {
		return nil, fmt.Errorf("vector matrix has %d bytes, want %d for %d records of dimension %d",
			len(matrix), rowBytes*len(f.Data), len(f.Data), f.EmbeddingDim)
	}

	db := &NanoVectorDB{Dimension: f.EmbeddingDim, Records: make([]NanoRecord, 0, len(f.Data))}
	for i, rawData := range f.Data {
		var d nanoData
		if err := json.Unmarshal(rawData, &d); err != nil {
			return nil, fmt.Errorf("decoding vector record %d: %w", i, err)
		}

		row := matrix[i*rowBytes : (i+1)*rowBytes]
		vec := make([]float32, f.EmbeddingDim)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(row[j*4:]))
		}

		db.Records = append(db.Records, NanoRecord{
			ID:         d.ID,
			EntityName: d.EntityName,
			Content:    d.Content,
			Vector:     vec,
		})
	}
	return db, nil
}
