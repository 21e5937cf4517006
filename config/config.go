// Package config loads the YAML file that describes how graphs are built, stored
// and queried, and turns it into a service context and a graph store.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/smallnest/gptindex/query"
)

// Provider names.
const (
	ProviderEcho   = "echo"
	ProviderOpenAI = "openai"
	ProviderHash   = "hash"
	ProviderNone   = "none"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSqlite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendBadger   = "badger"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the root of the configuration file.
type Config struct {
	// LogLevel is one of debug, info, warn, error or none.
	LogLevel string `json:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error none off"`

	// Logger selects the logging backend: std or golog.
	Logger string `json:"logger" yaml:"logger" validate:"omitempty,oneof=std golog"`

	LLM       LLMConfig       `json:"llm" yaml:"llm"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`
	Chunking  ChunkingConfig  `json:"chunking" yaml:"chunking"`
	Build     BuildConfig     `json:"build" yaml:"build"`
	Store     StoreConfig     `json:"store" yaml:"store"`

	// Queries are the per-type and per-index query rules used by the query command.
	Queries []query.Config `json:"queries" yaml:"queries" validate:"dive"`
}

// LLMConfig selects the synthesizer.
type LLMConfig struct {
	Provider    string  `json:"provider" yaml:"provider" validate:"required,oneof=echo openai"`
	Model       string  `json:"model" yaml:"model"`
	BaseURL     string  `json:"base_url" yaml:"base_url" validate:"omitempty,url"`
	APIKeyEnv   string  `json:"api_key_env" yaml:"api_key_env"`
	Temperature float64 `json:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens" validate:"gte=0"`
}

// EmbeddingConfig selects the embedder.
type EmbeddingConfig struct {
	Provider  string `json:"provider" yaml:"provider" validate:"required,oneof=none hash openai"`
	Model     string `json:"model" yaml:"model"`
	BaseURL   string `json:"base_url" yaml:"base_url" validate:"omitempty,url"`
	APIKeyEnv string `json:"api_key_env" yaml:"api_key_env"`
	// Dimension sizes the hash embedder.
	Dimension int `json:"dimension" yaml:"dimension" validate:"gte=0"`
}

// ChunkingConfig sizes document chunks.
type ChunkingConfig struct {
	ChunkSize    int `json:"chunk_size" yaml:"chunk_size" validate:"gt=0"`
	ChunkOverlap int `json:"chunk_overlap" yaml:"chunk_overlap" validate:"gte=0,ltfield=ChunkSize"`
}

// BuildConfig holds index build parameters.
type BuildConfig struct {
	NumChildren         int    `json:"num_children" yaml:"num_children" validate:"gte=2"`
	MaxKeywordsPerChunk int    `json:"max_keywords_per_chunk" yaml:"max_keywords_per_chunk" validate:"gt=0"`
	KeywordExtraction   string `json:"keyword_extraction" yaml:"keyword_extraction" validate:"oneof=synthesizer simple"`
	VectorStore         string `json:"vector_store" yaml:"vector_store" validate:"required"`
}

// StoreConfig selects where graphs are persisted.
type StoreConfig struct {
	Backend  string        `json:"backend" yaml:"backend" validate:"required,oneof=memory file sqlite postgres redis badger"`
	Path     string        `json:"path" yaml:"path"`
	DSN      string        `json:"dsn" yaml:"dsn"`
	Addr     string        `json:"addr" yaml:"addr"`
	Password string        `json:"password" yaml:"password"`
	DB       int           `json:"db" yaml:"db" validate:"gte=0"`
	Prefix   string        `json:"prefix" yaml:"prefix"`
	TTL      time.Duration `json:"ttl" yaml:"ttl" validate:"gte=0"`
	Table    string        `json:"table" yaml:"table"`
}

// Default returns the configuration used when no file is given: the echo synthesizer,
// no embedder and graphs stored as files under .gptindex.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Logger:   "std",
		LLM: LLMConfig{
			Provider:  ProviderEcho,
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Embedding: EmbeddingConfig{
			Provider:  ProviderNone,
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 64,
		},
		Chunking: ChunkingConfig{
			ChunkSize:    512,
			ChunkOverlap: 100,
		},
		Build: BuildConfig{
			NumChildren:         10,
			MaxKeywordsPerChunk: 10,
			KeywordExtraction:   "synthesizer",
			VectorStore:         "simple",
		},
		Store: StoreConfig{
			Backend: BackendFile,
			Path:    ".gptindex/graphs",
		},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(validateStore, StoreConfig{})
	return v
}

// validateStore requires the connection field each backend needs.
func validateStore(sl validator.StructLevel) {
	s := sl.Current().Interface().(StoreConfig)
	switch s.Backend {
	case BackendFile, BackendSqlite, BackendBadger:
		if s.Path == "" {
			sl.ReportError(s.Path, "Path", "path", "required_for_backend", s.Backend)
		}
	case BackendPostgres:
		if s.DSN == "" {
			sl.ReportError(s.DSN, "DSN", "dsn", "required_for_backend", s.Backend)
		}
	case BackendRedis:
		if s.Addr == "" {
			sl.ReportError(s.Addr, "Addr", "addr", "required_for_backend", s.Backend)
		}
	}
}

// Validate checks field constraints and that no two query rules name the same index.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := query.Validate(c.Queries); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Parse decodes YAML over the defaults and validates the result. Unknown keys are
// rejected.
func Parse(b []byte) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(b)
}
