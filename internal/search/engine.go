package search

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/codegraph/internal/hash"
	"github.com/Aman-CERP/codegraph/internal/model"
	"github.com/Aman-CERP/codegraph/internal/query"
	"github.com/Aman-CERP/codegraph/internal/store"
	"github.com/Aman-CERP/codegraph/internal/vector"
)

// Result is a single hybrid search hit, ordered by fused score.
type Result struct {
	ContentHash hash.ContentHash
	Score       float64
}

// Config tunes the engine.
type Config struct {
	// RRFConstant is the fusion smoothing parameter (default 60).
	RRFConstant int
	// FTSLimit caps full-text candidates fed into fusion (default 100).
	FTSLimit int
}

// Engine executes hybrid queries against the store. Both ranking stages
// run in parallel; they are pure reads over a snapshot.
type Engine struct {
	store  *store.Store
	fusion *RRFFusion
	cfg    Config

	// ann is an optional approximate vector index. When set, the vector
	// stage uses it instead of the exact scan; exact remains the
	// reference behavior.
	ann *store.HNSWIndex
}

// Option configures the engine.
type Option func(*Engine)

// WithANN installs an approximate vector index for the vector stage.
func WithANN(idx *store.HNSWIndex) Option {
	return func(e *Engine) {
		e.ann = idx
	}
}

// NewEngine creates a hybrid search engine.
func NewEngine(s *store.Store, cfg Config, opts ...Option) *Engine {
	if cfg.FTSLimit <= 0 {
		cfg.FTSLimit = store.DefaultFTSLimit
	}
	e := &Engine{
		store:  s,
		fusion: NewRRFFusion(cfg.RRFConstant),
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search runs the full hybrid pipeline for a parsed query and its
// embedding: filter, rank, fuse, truncate.
func (e *Engine) Search(ctx context.Context, q *query.SearchQuery, emb *model.Embedding) ([]*Result, error) {
	// Filter stage: compute the candidate set when any metadata filter
	// is present. A nil set means the whole universe.
	var candidates map[hash.ContentHash]struct{}
	if q.HasFilters() {
		var err error
		candidates, err = e.store.FilterCandidates(ctx, q)
		if err != nil {
			return nil, err
		}
	}

	// Vector and lexical stages in parallel.
	var (
		vectorList []hash.ContentHash
		ftsList    []hash.ContentHash
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		vectorList, err = e.vectorStage(gctx, emb, candidates)
		return err
	})
	g.Go(func() error {
		var err error
		ftsList, err = e.lexicalStage(gctx, q.Text, candidates)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fused := e.fusion.Fuse(vectorList, ftsList)

	limit := q.Limit
	if limit <= 0 {
		limit = query.DefaultLimit
	}
	if len(fused) > limit {
		fused = fused[:limit]
	}

	results := make([]*Result, len(fused))
	for i, f := range fused {
		results[i] = &Result{ContentHash: f.ContentHash, Score: f.Score}
	}
	return results, nil
}

// vectorStage ranks the candidate set by cosine similarity, descending,
// with a content-hash tiebreak for a stable total order.
func (e *Engine) vectorStage(ctx context.Context, emb *model.Embedding, candidates map[hash.ContentHash]struct{}) ([]hash.ContentHash, error) {
	if emb == nil || len(emb.Vector) == 0 {
		return nil, nil
	}

	if e.ann != nil && candidates == nil {
		return e.annStage(emb)
	}

	vectors, err := e.store.AllEmbeddings(ctx)
	if err != nil {
		return nil, err
	}

	type scored struct {
		h hash.ContentHash
		s float32
	}
	hits := make([]scored, 0, len(vectors))
	for _, sv := range vectors {
		if candidates != nil {
			if _, ok := candidates[sv.ContentHash]; !ok {
				continue
			}
		}
		hits = append(hits, scored{h: sv.ContentHash, s: vector.Cosine(emb.Vector, sv.Vector)})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].s != hits[j].s {
			return hits[i].s > hits[j].s
		}
		return hits[i].h.Less(hits[j].h)
	})

	ranked := make([]hash.ContentHash, len(hits))
	for i, hit := range hits {
		ranked[i] = hit.h
	}
	return ranked, nil
}

// annStage ranks via the approximate index. Only used without metadata
// filters, where the candidate set is the universe.
func (e *Engine) annStage(emb *model.Embedding) ([]hash.ContentHash, error) {
	if e.ann.Count() == 0 {
		return nil, nil
	}
	hits, err := e.ann.Search(emb.Vector, e.ann.Count())
	if err != nil {
		return nil, err
	}
	ranked := make([]hash.ContentHash, len(hits))
	for i, hit := range hits {
		ranked[i] = hit.ContentHash
	}
	return ranked, nil
}

// lexicalStage runs the FTS engine and keeps candidates in engine order.
func (e *Engine) lexicalStage(ctx context.Context, text string, candidates map[hash.ContentHash]struct{}) ([]hash.ContentHash, error) {
	if text == "" {
		return nil, nil
	}

	hits, err := e.store.FTSSearch(ctx, text, e.cfg.FTSLimit)
	if err != nil {
		return nil, err
	}

	ranked := make([]hash.ContentHash, 0, len(hits))
	for _, hit := range hits {
		h, err := hash.FromHex(hit.ContentHash)
		if err != nil {
			continue
		}
		if candidates != nil {
			if _, ok := candidates[h]; !ok {
				continue
			}
		}
		ranked = append(ranked, h)
	}
	return ranked, nil
}
