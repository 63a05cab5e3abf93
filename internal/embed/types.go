// Package embed provides the embedding providers behind the engine's
// embedder contract: embed(text) -> float32[dim]. The static provider
// needs no network or model download; the Ollama provider talks to a
// local model server. An LRU cache wrapper avoids re-embedding repeated
// queries.
package embed

import (
	"context"
	"math"
	"time"
)

// Batch and timeout defaults.
const (
	// DefaultBatchSize is the default batch size for embedding requests.
	DefaultBatchSize = 32

	// MaxBatchSize caps batches to prevent memory exhaustion.
	MaxBatchSize = 256

	// DefaultTimeout bounds a single embedding request.
	DefaultTimeout = 60 * time.Second
)

// StaticDimensions is the vector dimension of the static embedder.
const StaticDimensions = 256

// Embedder generates vector embeddings for text. All embeddings for one
// index use one model id; mixing models renders similarity meaningless.
type Embedder interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelID returns the model identifier stored with each embedding.
	ModelID() string

	// Available checks if the embedder is ready.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// normalizeVector normalizes a vector to unit length.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
