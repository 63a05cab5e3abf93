// Package service is the engine's abstract surface, bound by the CLI,
// HTTP, and MCP layers. It composes the query engine, the graph
// engines, and the indexing pipeline over one store.
package service

import (
	"context"

	"github.com/Aman-CERP/codegraph/internal/embed"
	"github.com/Aman-CERP/codegraph/internal/graph"
	"github.com/Aman-CERP/codegraph/internal/hash"
	"github.com/Aman-CERP/codegraph/internal/index"
	"github.com/Aman-CERP/codegraph/internal/model"
	"github.com/Aman-CERP/codegraph/internal/query"
	"github.com/Aman-CERP/codegraph/internal/search"
	"github.com/Aman-CERP/codegraph/internal/store"
)

// SearchOptions tunes a search call.
type SearchOptions struct {
	// Limit caps results; 0 selects the query's own limit.
	Limit int `json:"limit"`
	// Threshold drops results whose fused score falls below it. Zero
	// keeps the raw RRF ranking.
	Threshold float64 `json:"threshold"`
}

// SearchResult is one hit with its chunk attached when available.
type SearchResult struct {
	ContentHash string       `json:"content_hash"`
	Score       float64      `json:"score"`
	Chunk       *model.Chunk `json:"chunk,omitempty"`
}

// TreeResult is a dependency tree (or forest) plus its rendering.
type TreeResult struct {
	Roots    []*graph.Node `json:"roots"`
	Rendered string        `json:"rendered"`
}

// RelatedResult combines graph neighbors with vector-nearest symbols.
type RelatedResult struct {
	GraphNeighbors    []string `json:"graph_neighbors"`
	SemanticRelatives []string `json:"semantic_relatives"`
}

// StatsResult reports store contents and indexing state.
type StatsResult struct {
	Store        *store.Stats   `json:"store"`
	Indexing     bool           `json:"indexing"`
	LastIndexRun *index.Summary `json:"last_index_run,omitempty"`
}

// Service is the surface the presentation layers bind.
type Service interface {
	// Search runs the hybrid query pipeline over a raw query string.
	Search(ctx context.Context, queryText string, opts SearchOptions) ([]*SearchResult, error)

	// Tree builds the dependency tree for a symbol, or the whole forest
	// when symbol is empty.
	Tree(ctx context.Context, symbol string, depth int) (*TreeResult, error)

	// ModuleGraph returns the aggregated module dependency graph.
	ModuleGraph(ctx context.Context, level string, filterIDs []string, includeEdges bool) ([]*graph.ModuleEntry, error)

	// FindModuleCycles reports circular module dependencies; each cycle
	// closes by repeating its entry module.
	FindModuleCycles(ctx context.Context) ([][]string, error)

	// Context returns all chunks defining a symbol.
	Context(ctx context.Context, symbol string) ([]*model.Chunk, error)

	// Related returns graph neighbors and semantic relatives of a symbol.
	Related(ctx context.Context, symbol string, limit int) (*RelatedResult, error)

	// History returns where a chunk has been seen over time. A 64-char
	// hex target is treated as a content hash; anything else as a file
	// path.
	History(ctx context.Context, target string, limit int) ([]*model.ChunkLocation, error)

	// Index starts a background index run; completion is observable via
	// Stats. Returns false when a run is already in flight.
	Index(ctx context.Context, path string, gitMode bool) bool

	// Stats reports store counts and indexing progress.
	Stats(ctx context.Context) (*StatsResult, error)
}

// Config tunes the default service.
type Config struct {
	// RRFConstant for fusion (default 60).
	RRFConstant int
	// MaxResults caps any requested limit; 0 means uncapped.
	MaxResults int
	// CommonSymbols overrides the traversal allowlist; nil selects the
	// defaults.
	CommonSymbols []string
	// RelatedThreshold is the similarity floor for semantic relatives.
	RelatedThreshold float32
	// IndexExclude holds scanner glob patterns for index runs.
	IndexExclude []string
	// IndexLockPath serializes index runs across processes.
	IndexLockPath string
}

// Engine is the default Service implementation.
type Engine struct {
	store     *store.Store
	embedder  embed.Embedder
	searcher  *search.Engine
	traverser *graph.Traverser
	rollup    *graph.Rollup
	runner    *index.Runner
	cfg       Config
}

var _ Service = (*Engine)(nil)

// New wires a service over the store and embedder.
func New(s *store.Store, embedder embed.Embedder, cfg Config, searchOpts ...search.Option) *Engine {
	if cfg.RelatedThreshold == 0 {
		cfg.RelatedThreshold = 0.5
	}
	return &Engine{
		store:     s,
		embedder:  embedder,
		searcher:  search.NewEngine(s, search.Config{RRFConstant: cfg.RRFConstant}, searchOpts...),
		traverser: graph.NewTraverser(s, cfg.CommonSymbols),
		rollup:    graph.NewRollup(s),
		runner:    index.NewRunner(index.NewPipeline(s, embedder)),
		cfg:       cfg,
	}
}

// Search parses the raw query, embeds its text, runs the hybrid engine,
// applies the threshold, and attaches chunks.
func (e *Engine) Search(ctx context.Context, queryText string, opts SearchOptions) ([]*SearchResult, error) {
	q := query.Parse(queryText)
	if opts.Limit > 0 {
		q.Limit = opts.Limit
	}
	if e.cfg.MaxResults > 0 && q.Limit > e.cfg.MaxResults {
		q.Limit = e.cfg.MaxResults
	}

	emb, err := e.embedder.Embed(ctx, q.Text)
	if err != nil {
		// Metadata and lexical stages still apply without a vector.
		emb = nil
	}

	var queryEmbedding *model.Embedding
	if emb != nil {
		queryEmbedding = model.NewEmbedding(emb, e.embedder.ModelID())
	}

	hits, err := e.searcher.Search(ctx, &q, queryEmbedding)
	if err != nil {
		return nil, err
	}

	results := make([]*SearchResult, 0, len(hits))
	for _, hit := range hits {
		if hit.Score < opts.Threshold {
			continue
		}
		r := &SearchResult{ContentHash: hit.ContentHash.Hex(), Score: hit.Score}
		if chunk, err := e.store.GetChunk(ctx, hit.ContentHash); err == nil {
			r.Chunk = chunk
		}
		results = append(results, r)
	}
	return results, nil
}

// Tree builds a single tree or, with an empty symbol, the forest.
func (e *Engine) Tree(ctx context.Context, symbol string, depth int) (*TreeResult, error) {
	if symbol == "" {
		forest, err := e.traverser.Forest(ctx, depth)
		if err != nil {
			return nil, err
		}
		return &TreeResult{Roots: forest, Rendered: graph.RenderForest(forest)}, nil
	}

	tree, err := e.traverser.Tree(ctx, symbol, depth)
	if err != nil {
		return nil, err
	}
	return &TreeResult{Roots: []*graph.Node{tree}, Rendered: graph.RenderTree(tree)}, nil
}

// ModuleGraph delegates to the rollup engine.
func (e *Engine) ModuleGraph(ctx context.Context, level string, filterIDs []string, includeEdges bool) ([]*graph.ModuleEntry, error) {
	return e.rollup.ModuleGraph(ctx, graph.ParseLevel(level), filterIDs, includeEdges)
}

// FindModuleCycles delegates to the rollup engine.
func (e *Engine) FindModuleCycles(ctx context.Context) ([][]string, error) {
	return e.rollup.FindCycles(ctx)
}

// Context returns every chunk defining the symbol.
func (e *Engine) Context(ctx context.Context, symbol string) ([]*model.Chunk, error) {
	return e.store.FindBySymbol(ctx, symbol)
}

// Related returns outgoing edge targets and the vector-nearest symbols,
// excluding the symbol itself.
func (e *Engine) Related(ctx context.Context, symbol string, limit int) (*RelatedResult, error) {
	result := &RelatedResult{
		GraphNeighbors:    []string{},
		SemanticRelatives: []string{},
	}

	chunks, err := e.store.FindBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return result, nil
	}
	source := chunks[0]

	edges, err := e.store.GetOutgoingEdges(ctx, source.ContentHash)
	if err != nil {
		return nil, err
	}
	for _, edge := range edges {
		result.GraphNeighbors = append(result.GraphNeighbors, edge.TargetQuery)
	}

	vec, err := e.embedder.Embed(ctx, source.SymbolName+" "+source.Docstring)
	if err != nil {
		// Graph neighbors alone still answer the question.
		return result, nil
	}

	similar, err := e.store.SearchSimilar(ctx,
		model.NewEmbedding(vec, e.embedder.ModelID()), limit+1, e.cfg.RelatedThreshold)
	if err != nil {
		return nil, err
	}
	for _, hit := range similar {
		if hit.ContentHash == source.ContentHash {
			continue
		}
		chunk, err := e.store.GetChunk(ctx, hit.ContentHash)
		if err != nil || chunk.SymbolName == "" {
			continue
		}
		result.SemanticRelatives = append(result.SemanticRelatives, chunk.SymbolName)
		if len(result.SemanticRelatives) >= limit {
			break
		}
	}
	return result, nil
}

// History resolves the target as a content hash when it looks like one,
// otherwise as a file path, and returns the matching locations.
func (e *Engine) History(ctx context.Context, target string, limit int) ([]*model.ChunkLocation, error) {
	var (
		locations []*model.ChunkLocation
		err       error
	)
	if h, hashErr := hash.FromHex(target); hashErr == nil {
		locations, err = e.store.GetLocationHistory(ctx, h)
	} else {
		locations, err = e.store.GetLocationsInFile(ctx, target)
	}
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(locations) > limit {
		locations = locations[:limit]
	}
	return locations, nil
}

// Index launches a fire-and-forget background run.
func (e *Engine) Index(ctx context.Context, path string, gitMode bool) bool {
	return e.runner.Start(ctx, index.Config{
		Root:     path,
		GitMode:  gitMode,
		Exclude:  e.cfg.IndexExclude,
		LockPath: e.cfg.IndexLockPath,
	})
}

// Stats reports store counts and background indexing state.
func (e *Engine) Stats(ctx context.Context) (*StatsResult, error) {
	stats, err := e.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	running, last, _ := e.runner.Status()
	return &StatsResult{Store: stats, Indexing: running, LastIndexRun: last}, nil
}
