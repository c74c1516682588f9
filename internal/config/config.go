// Package config loads hyperview settings from an optional YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Embedding providers.
const (
	ProviderOpenAI = "openai"
	ProviderTFIDF  = "tfidf"
	ProviderNone   = "none"
)

// Defaults matching the construction pipeline's output layout.
const (
	DefaultWorkingDir     = "expr/example"
	DefaultGraphFile      = "graph_chunk_entity_relation.graphml"
	DefaultVectorFile     = "vdb_entities.json"
	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultTimeout        = 30 * time.Second
	storeDir              = ".hyperview"
)

// Config is the full application configuration.
type Config struct {
	// WorkingDir is the pipeline output directory holding the graph and
	// vector files.
	WorkingDir string `yaml:"working_dir" validate:"required"`
	GraphFile  string `yaml:"graph_file" validate:"required"`

	// VectorFile is optional; an empty value disables the vector import.
	VectorFile string `yaml:"vector_file"`

	// StorePath is the badger directory. Defaults to
	// <working_dir>/.hyperview/badger.
	StorePath string `yaml:"store_path"`

	Log       LogConfig       `yaml:"log"`
	Embedding EmbeddingConfig `yaml:"embedding"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// EmbeddingConfig selects how search keywords are embedded.
type EmbeddingConfig struct {
	Provider  string        `yaml:"provider" validate:"oneof=openai tfidf none"`
	Model     string        `yaml:"model"`
	BaseURL   string        `yaml:"base_url" validate:"omitempty,url"`
	APIKey    string        `yaml:"api_key" validate:"required_if=Provider openai"`
	Timeout   time.Duration `yaml:"timeout" validate:"gte=0"`
	Dimension int           `yaml:"dimension" validate:"gte=0"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		WorkingDir: DefaultWorkingDir,
		GraphFile:  DefaultGraphFile,
		VectorFile: DefaultVectorFile,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Embedding: EmbeddingConfig{
			Provider: ProviderTFIDF,
			Model:    DefaultEmbeddingModel,
			Timeout:  DefaultTimeout,
		},
	}
}

// Override adjusts a configuration after the file and environment are
// applied, before derived values are filled in.
type Override func(*Config)

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then environment variables, then overrides. The
// result is validated.
func Load(path string, overrides ...Override) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	for _, o := range overrides {
		o(cfg)
	}
	cfg.finalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding config %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides fields from the environment.
func (c *Config) applyEnv() {
	c.WorkingDir = getEnv("HYPERVIEW_WORKING_DIR", c.WorkingDir)
	c.StorePath = getEnv("HYPERVIEW_STORE_PATH", c.StorePath)
	c.Log.Level = getEnv("HYPERVIEW_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("HYPERVIEW_LOG_FORMAT", c.Log.Format)
	c.Embedding.Provider = getEnv("HYPERVIEW_EMBEDDING_PROVIDER", c.Embedding.Provider)
	c.Embedding.APIKey = getEnv("OPENAI_API_KEY", c.Embedding.APIKey)
	c.Embedding.BaseURL = getEnv("OPENAI_BASE_URL", c.Embedding.BaseURL)
	c.Embedding.Model = getEnv("EMBEDDING_MODEL", c.Embedding.Model)
}

// finalize fills values derived from other fields.
func (c *Config) finalize() {
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Embedding.Provider = strings.ToLower(c.Embedding.Provider)
	if c.StorePath == "" {
		c.StorePath = filepath.Join(c.WorkingDir, storeDir, "badger")
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = DefaultEmbeddingModel
	}
}

var validate = validator.New()

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", e.Namespace()))
		case "required_if":
			msgs = append(msgs, fmt.Sprintf("%s is required when %s", e.Namespace(), e.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %q", e.Namespace(), e.Param(), e.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", e.Namespace(), e.Tag()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// GraphPath returns the GraphML file location.
func (c *Config) GraphPath() string {
	return c.resolve(c.GraphFile)
}

// VectorPath returns the vector DB file location, or "" when none is set.
func (c *Config) VectorPath() string {
	if c.VectorFile == "" {
		return ""
	}
	return c.resolve(c.VectorFile)
}

func (c *Config) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.WorkingDir, name)
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
