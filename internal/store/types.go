// Package store is the persistence layer for all indexed data: chunks,
// embeddings, locations, edges, and modules live in a single SQLite
// database, with a full-text index over chunk text. A single mutex
// guards the connection; every operation except full-text search (whose
// backend locks internally) acquires it for the duration of a statement
// batch.
package store

import (
	"context"

	"github.com/Aman-CERP/codegraph/internal/hash"
)

// FTSDocument is a chunk's searchable text handed to the full-text index.
type FTSDocument struct {
	ContentHash string // hex form
	SymbolName  string
	Docstring   string
	Content     string
}

// FTSResult is a single full-text hit. Results arrive best-first; Rank is
// the 1-indexed position in that order.
type FTSResult struct {
	ContentHash string
	Rank        int
	Score       float64
}

// FTSIndex is the full-text search backend. The default implementation
// is SQLite FTS5 inside the main database; a Bleve-backed implementation
// is available for setups that want a separate index directory.
type FTSIndex interface {
	// Index adds or replaces documents keyed by content hash.
	Index(ctx context.Context, docs []*FTSDocument) error

	// Search returns up to limit hits for the query text, best first.
	Search(ctx context.Context, text string, limit int) ([]*FTSResult, error)

	// Delete removes documents by content hash.
	Delete(ctx context.Context, hashes []string) error

	// Close releases backend resources.
	Close() error
}

// SimilarityResult is a single vector search hit.
type SimilarityResult struct {
	ContentHash hash.ContentHash
	Similarity  float32
}

// StoredVector is an embedding row streamed out for brute-force scans.
type StoredVector struct {
	ContentHash hash.ContentHash
	Vector      []float32
}

// ChunkRef is the slim chunk projection used by the graph engines.
type ChunkRef struct {
	ContentHash hash.ContentHash
	SymbolName  string
	ModuleID    string
}

// EdgeRow is a chunk edge joined with its source chunk, deduplicated on
// the (source, target, kind, line) tuple at read time.
type EdgeRow struct {
	SourceHash   hash.ContentHash
	SourceSymbol string
	SourceModule string
	TargetQuery  string
	Kind         string
	LineNumber   int
}

// Stats summarizes index contents.
type Stats struct {
	Chunks     int `json:"chunks"`
	Embeddings int `json:"embeddings"`
	Locations  int `json:"locations"`
	Edges      int `json:"edges"`
	Modules    int `json:"modules"`
}

// DefaultFTSLimit caps full-text candidates fed into fusion.
const DefaultFTSLimit = 100

// DefaultCodeStopWords contains programming keywords filtered out of
// full-text queries and documents.
var DefaultCodeStopWords = []string{
	"var", "let", "const", "func", "fn", "function", "def", "class",
	"return", "if", "else", "for", "while",
	"data", "result", "value", "item", "key", "err", "ctx", "tmp",
}
