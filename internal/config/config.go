// Package config loads the Codegraph configuration: built-in defaults,
// overridden by a project .codegraph.yaml, overridden by environment
// variables for the knobs that matter in scripts.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	kgerrors "github.com/Aman-CERP/codegraph/internal/errors"
)

// ProjectFileName is the per-project configuration file.
const ProjectFileName = ".codegraph.yaml"

// DataDirName is the per-project data directory holding the database,
// lock file, and logs.
const DataDirName = ".codegraph"

// Config is the complete Codegraph configuration.
type Config struct {
	Paths      PathsConfig      `yaml:"paths"`
	Search     SearchConfig     `yaml:"search"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Graph      GraphConfig      `yaml:"graph"`
	Server     ServerConfig     `yaml:"server"`
}

// PathsConfig configures which paths to exclude from indexing.
type PathsConfig struct {
	// Exclude holds glob patterns matched against relative paths.
	Exclude []string `yaml:"exclude"`
}

// SearchConfig configures the hybrid query engine.
type SearchConfig struct {
	// RRFConstant is the fusion smoothing parameter (k). Default: 60.
	RRFConstant int `yaml:"rrf_constant"`

	// FTSBackend selects the full-text backend: "sqlite" (default,
	// in-database FTS5) or "bleve" (separate index directory).
	FTSBackend string `yaml:"fts_backend"`

	// VectorBackend selects the vector stage: "exact" (default,
	// brute-force reference behavior) or "hnsw" (approximate).
	VectorBackend string `yaml:"vector_backend"`

	// MaxResults is a hard cap on requested result counts.
	MaxResults int `yaml:"max_results"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider is "static" (default, no model download) or "ollama".
	Provider string `yaml:"provider"`
	// Model overrides the provider default model.
	Model string `yaml:"model"`
	// OllamaHost is the Ollama endpoint (default: http://localhost:11434).
	OllamaHost string `yaml:"ollama_host"`
	// BatchSize for batch embedding requests.
	BatchSize int `yaml:"batch_size"`
	// Timeout bounds a single embedding request.
	Timeout time.Duration `yaml:"timeout"`
	// CacheSize for the query embedding LRU cache.
	CacheSize int `yaml:"cache_size"`
}

// GraphConfig configures traversal and rollup.
type GraphConfig struct {
	// CommonSymbols is the traversal allowlist; revisits of these stop
	// recursion without a cycle report. Unset (nil) selects the
	// defaults; an explicit empty list disables the allowlist.
	CommonSymbols []string `yaml:"common_symbols"`
	// MaxDepth is the default traversal depth.
	MaxDepth int `yaml:"max_depth"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Port for the HTTP API.
	Port int `yaml:"port"`
	// LogLevel is the minimum log level.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Search: SearchConfig{
			RRFConstant:   60,
			FTSBackend:    "sqlite",
			VectorBackend: "exact",
			MaxResults:    100,
		},
		Embeddings: EmbeddingsConfig{
			Provider:  "static",
			BatchSize: 32,
			Timeout:   60 * time.Second,
			CacheSize: 1000,
		},
		Graph: GraphConfig{
			MaxDepth: 3,
		},
		Server: ServerConfig{
			Port:     7700,
			LogLevel: "info",
		},
	}
}

// Load reads configuration for a project root: defaults, then the
// project file when present, then environment overrides.
func Load(root string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(root, ProjectFileName)
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, kgerrors.Config("parse " + path + ": " + err.Error())
		}
	}

	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

// DataDir returns the data directory for a project root.
func DataDir(root string) string {
	return filepath.Join(root, DataDirName)
}

// DatabasePath returns the SQLite database location for a project root.
func DatabasePath(root string) string {
	return filepath.Join(DataDir(root), "index.db")
}

// LockPath returns the index lock file location for a project root.
func LockPath(root string) string {
	return filepath.Join(DataDir(root), "index.lock")
}

// applyEnv overlays environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("CODEGRAPH_RRF_CONSTANT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.RRFConstant = n
		}
	}
	if v := os.Getenv("CODEGRAPH_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("CODEGRAPH_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("CODEGRAPH_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
}

// normalize clamps invalid values back to defaults.
func (c *Config) normalize() {
	if c.Search.RRFConstant <= 0 {
		c.Search.RRFConstant = 60
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = 100
	}
	if c.Search.FTSBackend == "" {
		c.Search.FTSBackend = "sqlite"
	}
	if c.Search.VectorBackend == "" {
		c.Search.VectorBackend = "exact"
	}
	if c.Embeddings.Provider == "" {
		c.Embeddings.Provider = "static"
	}
	if c.Graph.MaxDepth <= 0 {
		c.Graph.MaxDepth = 3
	}
	if c.Server.Port <= 0 {
		c.Server.Port = 7700
	}
}

// Save writes the configuration to the project file.
func (c *Config) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return kgerrors.Config("marshal config: " + err.Error())
	}
	return os.WriteFile(filepath.Join(root, ProjectFileName), data, 0o644)
}
