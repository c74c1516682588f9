package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Benny93/hyperview/internal/config"
	"github.com/Benny93/hyperview/internal/snapshot"
)

// Meta records the last import next to the snapshot store.
type Meta struct {
	Version    string          `json:"version"`
	GraphFile  string          `json:"graph_file"`
	VectorFile string          `json:"vector_file,omitempty"`
	ImportedAt string          `json:"imported_at"`
	Stats      snapshot.Result `json:"stats"`
}

func metaPath(cfg *config.Config) string {
	return filepath.Join(filepath.Dir(cfg.StorePath), "meta.json")
}

func writeMeta(path string, meta Meta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling meta.json: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing meta.json: %w", err)
	}
	return nil
}

func readMeta(path string) (*Meta, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("no snapshot found at %s. Run 'hyperview import' first", filepath.Dir(path))
	}
	if err != nil {
		return nil, fmt.Errorf("reading meta.json: %w", err)
	}

	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing meta.json: %w", err)
	}
	return &meta, nil
}
