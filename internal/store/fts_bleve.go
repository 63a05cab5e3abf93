package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"

	kgerrors "github.com/Aman-CERP/codegraph/internal/errors"
)

// BleveFTS implements FTSIndex on a Bleve index stored beside the main
// database. Chunk text is pre-tokenized the same way as the FTS5 backend
// so the two rank compatibly.
type BleveFTS struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	closed bool
	tok    *codeTokenizer
}

var _ FTSIndex = (*BleveFTS)(nil)

// bleveDocument is the indexed document shape.
type bleveDocument struct {
	SymbolName string `json:"symbol_name"`
	Docstring  string `json:"docstring"`
	Content    string `json:"content"`
}

// NewBleveFTS creates or opens a Bleve-backed FTS index. An empty path
// creates an in-memory index for testing.
func NewBleveFTS(path string) (*BleveFTS, error) {
	mapping := bleve.NewIndexMapping()

	var (
		idx bleve.Index
		err error
	)
	if path == "" {
		idx, err = bleve.NewMemOnly(mapping)
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return nil, kgerrors.Store("create FTS directory", mkErr)
		}
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, mapping)
		}
	}
	if err != nil {
		return nil, kgerrors.Store("open bleve index", err)
	}

	return &BleveFTS{
		index: idx,
		path:  path,
		tok:   newCodeTokenizer(DefaultCodeStopWords),
	}, nil
}

// Index adds or replaces documents keyed by content hash.
func (b *BleveFTS) Index(ctx context.Context, docs []*FTSDocument) error {
	if len(docs) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return kgerrors.Store("index document", fmt.Errorf("index is closed"))
	}

	batch := b.index.NewBatch()
	for _, doc := range docs {
		bd := bleveDocument{
			SymbolName: b.tok.Join(doc.SymbolName),
			Docstring:  b.tok.Join(doc.Docstring),
			Content:    b.tok.Join(doc.Content),
		}
		if err := batch.Index(doc.ContentHash, bd); err != nil {
			return kgerrors.Store("batch FTS document", err)
		}
	}

	if err := b.index.Batch(batch); err != nil {
		return kgerrors.Store("execute FTS batch", err)
	}
	return nil
}

// Search returns up to limit hits, best first.
func (b *BleveFTS) Search(ctx context.Context, text string, limit int) ([]*FTSResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, kgerrors.Store("search", fmt.Errorf("index is closed"))
	}

	tokens := b.tok.Tokenize(text)
	if len(tokens) == 0 {
		return []*FTSResult{}, nil
	}

	matchQuery := bleve.NewMatchQuery(strings.Join(tokens, " "))
	req := bleve.NewSearchRequest(matchQuery)
	req.Size = limit

	result, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, kgerrors.Store("bleve search", err)
	}

	results := make([]*FTSResult, 0, len(result.Hits))
	for i, hit := range result.Hits {
		results = append(results, &FTSResult{
			ContentHash: hit.ID,
			Rank:        i + 1,
			Score:       hit.Score,
		})
	}
	return results, nil
}

// Delete removes documents by content hash.
func (b *BleveFTS) Delete(ctx context.Context, hashes []string) error {
	if len(hashes) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return kgerrors.Store("delete", fmt.Errorf("index is closed"))
	}

	batch := b.index.NewBatch()
	for _, h := range hashes {
		batch.Delete(h)
	}
	if err := b.index.Batch(batch); err != nil {
		return kgerrors.Store("delete FTS documents", err)
	}
	return nil
}

// Close closes the underlying index. Idempotent.
func (b *BleveFTS) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	return b.index.Close()
}
