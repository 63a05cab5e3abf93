package embed

import (
	"fmt"
	"time"
)

// FactoryConfig selects and tunes an embedding provider.
type FactoryConfig struct {
	// Provider is "static" or "ollama".
	Provider string
	// Model overrides the provider's default model where applicable.
	Model string
	// OllamaHost overrides the default Ollama endpoint.
	OllamaHost string
	// BatchSize for batch requests.
	BatchSize int
	// Timeout bounds a single request.
	Timeout time.Duration
	// CacheSize for the LRU wrapper; 0 selects the default, negative
	// disables caching.
	CacheSize int
}

// NewEmbedder builds the configured provider wrapped in the LRU cache.
func NewEmbedder(cfg FactoryConfig) (Embedder, error) {
	var inner Embedder

	switch cfg.Provider {
	case "", "static":
		inner = NewStaticEmbedder()
	case "ollama":
		inner = NewOllamaEmbedder(OllamaConfig{
			Host:      cfg.OllamaHost,
			Model:     cfg.Model,
			BatchSize: cfg.BatchSize,
			Timeout:   cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Provider)
	}

	if cfg.CacheSize < 0 {
		return inner, nil
	}
	return NewCachedEmbedder(inner, cfg.CacheSize), nil
}
