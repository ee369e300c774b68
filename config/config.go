// Package config holds the application settings shared by the CLI and the
// HTTP server.
//
// Settings come from built-in defaults, then an optional TOML file, then
// the environment (optionally seeded from env files), then command-line
// flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/poiesic/talkrag/ai"
	"github.com/poiesic/talkrag/chunking"
	"github.com/poiesic/talkrag/corpus"
	"github.com/poiesic/talkrag/retrieval"
	"github.com/poiesic/talkrag/retry"
)

// Index backends.
const (
	BackendBadger   = "badger"
	BackendPgvector = "pgvector"
)

// Environment variables read by ApplyEnv.
const (
	EnvAPIKey  = "OPENAI_API_KEY"
	EnvBaseURL = "OPENAI_BASE_URL"
	EnvCorpus  = "TED_CSV_PATH"
	EnvDSN     = "DATABASE_URL"
	EnvBackend = "TALKRAG_INDEX"
	EnvAddr    = "TALKRAG_ADDR"
)

// DefaultEnvFiles are loaded in order when no env file is named. Values
// already present in the environment are never overwritten.
var DefaultEnvFiles = []string{".env.local", ".env"}

// Config is the complete application configuration.
type Config struct {
	Index     IndexConfig     `toml:"index"`
	AI        *ai.Config      `toml:"ai"`
	Corpus    CorpusConfig    `toml:"corpus"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Ingestion IngestionConfig `toml:"ingestion"`
	Server    ServerConfig    `toml:"server"`
}

// IndexConfig selects and locates the vector index.
type IndexConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"` // badger directory
	DSN     string `toml:"-"`    // postgres connection string, may hold a password
}

// CorpusConfig locates the talk dataset.
type CorpusConfig struct {
	Path    string         `toml:"path"`
	Columns corpus.Columns `toml:"columns"`
}

// ChunkingConfig is the word-window policy shared by ingestion and stats.
type ChunkingConfig struct {
	WindowSize   int     `toml:"window_size"`
	OverlapRatio float64 `toml:"overlap_ratio"`
}

// RetrievalConfig controls question answering.
type RetrievalConfig struct {
	TopK        int     `toml:"top_k"`
	MinScore    float64 `toml:"min_score"`
	MaxAttempts int     `toml:"max_attempts"`
}

// IngestionConfig controls the ingestion worker pool.
type IngestionConfig struct {
	Workers           int     `toml:"workers"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	MaxAttempts       int     `toml:"max_attempts"`
	RetryDelay        string  `toml:"retry_delay"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Index: IndexConfig{
			Backend: BackendBadger,
			Path:    "talkrag.db",
		},
		AI: ai.DefaultConfig(),
		Corpus: CorpusConfig{
			Path:    "ted_talks_en.csv",
			Columns: corpus.DefaultColumns(),
		},
		Chunking: ChunkingConfig{
			WindowSize:   chunking.DefaultWindowSize,
			OverlapRatio: chunking.DefaultOverlapRatio,
		},
		Retrieval: RetrievalConfig{
			TopK:        retrieval.DefaultTopK,
			MinScore:    float64(retrieval.DefaultMinScore),
			MaxAttempts: 1,
		},
		Ingestion: IngestionConfig{
			Workers:           4,
			RequestsPerSecond: 10,
			Burst:             10,
			MaxAttempts:       3,
			RetryDelay:        "500ms",
		},
		Server: ServerConfig{
			Addr: ":3000",
		},
	}
}

// Load returns the defaults overlaid with the TOML file at path. An empty
// path returns the defaults. Unknown keys are an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := Decode(f, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode overlays TOML from r onto cfg.
func Decode(r io.Reader, cfg *Config) error {
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}

// Encode writes cfg as TOML. Secrets are never written.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// LoadEnv loads environment files into the process environment. Missing
// files are skipped. With no arguments DefaultEnvFiles are used.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = DefaultEnvFiles
	}
	for _, file := range files {
		if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("load env file %s: %w", file, err)
		}
	}
	return nil
}

// ApplyEnv overlays the environment variables that are set onto c.
// OPENAI_BASE_URL sets both the embedding and the generation host.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.AI.APIKey = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.AI.EmbeddingHost = v
		c.AI.GenerationHost = v
	}
	if v := os.Getenv(EnvCorpus); v != "" {
		c.Corpus.Path = v
	}
	if v := os.Getenv(EnvDSN); v != "" {
		c.Index.DSN = v
	}
	if v := os.Getenv(EnvBackend); v != "" {
		c.Index.Backend = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	switch c.Index.Backend {
	case BackendBadger:
		if c.Index.Path == "" {
			return errors.New("config: index.path is required for the badger backend")
		}
	case BackendPgvector:
		if c.Index.DSN == "" {
			return errors.New("config: a DSN is required for the pgvector backend")
		}
	default:
		return fmt.Errorf("config: unknown index backend %q (want %s or %s)", c.Index.Backend, BackendBadger, BackendPgvector)
	}

	if c.AI == nil {
		return errors.New("config: ai section is required")
	}
	if err := c.AI.Validate(); err != nil {
		return err
	}
	if _, err := c.Chunker(); err != nil {
		return fmt.Errorf("config: chunking: %w", err)
	}
	if c.Corpus.Columns.RecordID == "" || c.Corpus.Columns.Transcript == "" {
		return errors.New("config: corpus.columns.record_id and corpus.columns.transcript are required")
	}

	if c.Retrieval.TopK < 1 {
		return errors.New("config: retrieval.top_k must be at least 1")
	}
	if c.Retrieval.MaxAttempts < 1 {
		return errors.New("config: retrieval.max_attempts must be at least 1")
	}

	if c.Ingestion.Workers < 1 {
		return errors.New("config: ingestion.workers must be at least 1")
	}
	if c.Ingestion.Burst < 1 {
		return errors.New("config: ingestion.burst must be at least 1")
	}
	if c.Ingestion.MaxAttempts < 1 {
		return errors.New("config: ingestion.max_attempts must be at least 1")
	}
	if _, err := c.IngestRetry(); err != nil {
		return err
	}
	return nil
}

// Chunker builds the chunker described by the chunking section.
func (c *Config) Chunker() (*chunking.Chunker, error) {
	return chunking.New(
		chunking.WithWindowSize(c.Chunking.WindowSize),
		chunking.WithOverlapRatio(c.Chunking.OverlapRatio),
	)
}

// IngestRetry returns the per-chunk retry policy.
func (c *Config) IngestRetry() (retry.Policy, error) {
	delay, err := time.ParseDuration(c.Ingestion.RetryDelay)
	if err != nil {
		return retry.Policy{}, fmt.Errorf("config: ingestion.retry_delay: %w", err)
	}
	return retry.Policy{MaxAttempts: c.Ingestion.MaxAttempts, BaseDelay: delay}, nil
}

// QueryRetry returns the retry policy for question answering.
func (c *Config) QueryRetry() retry.Policy {
	return retry.Policy{MaxAttempts: c.Retrieval.MaxAttempts, BaseDelay: 250 * time.Millisecond}
}
