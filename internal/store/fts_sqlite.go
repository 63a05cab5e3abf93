package store

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	kgerrors "github.com/Aman-CERP/codegraph/internal/errors"
)

// sqliteFTS implements FTSIndex on SQLite FTS5 inside the main database.
// Chunk text is pre-tokenized with the code tokenizer so camelCase and
// snake_case identifiers match their parts.
type sqliteFTS struct {
	mu  sync.RWMutex
	db  *sql.DB
	tok *codeTokenizer
}

var _ FTSIndex = (*sqliteFTS)(nil)

func newSQLiteFTS(db *sql.DB) (*sqliteFTS, error) {
	schema := `
	CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
		content_hash UNINDEXED,
		symbol_name,
		docstring,
		content,
		tokenize='unicode61'
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, kgerrors.Store("initialize FTS schema", err)
	}

	return &sqliteFTS{
		db:  db,
		tok: newCodeTokenizer(DefaultCodeStopWords),
	}, nil
}

// Index adds or replaces documents. FTS5 virtual tables have no REPLACE,
// so existing rows are deleted first.
func (f *sqliteFTS) Index(ctx context.Context, docs []*FTSDocument) error {
	if len(docs) == 0 {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, doc := range docs {
		if _, err := f.db.ExecContext(ctx,
			`DELETE FROM chunks_fts WHERE content_hash = ?`, doc.ContentHash); err != nil {
			return kgerrors.Store("delete FTS document", err)
		}
		if _, err := f.db.ExecContext(ctx,
			`INSERT INTO chunks_fts (content_hash, symbol_name, docstring, content) VALUES (?, ?, ?, ?)`,
			doc.ContentHash,
			f.tok.Join(doc.SymbolName),
			f.tok.Join(doc.Docstring),
			f.tok.Join(doc.Content)); err != nil {
			return kgerrors.Store("insert FTS document", err)
		}
	}
	return nil
}

// Search runs an FTS5 MATCH query. The query text goes through the same
// tokenization as documents; malformed MATCH expressions yield an empty
// result instead of an error.
func (f *sqliteFTS) Search(ctx context.Context, text string, limit int) ([]*FTSResult, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	tokens := f.tok.Tokenize(text)
	if len(tokens) == 0 {
		return []*FTSResult{}, nil
	}

	// Quote tokens so identifiers never parse as FTS5 operators, and OR
	// them so partial matches still surface.
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = `"` + t + `"`
	}
	match := strings.Join(quoted, " OR ")

	rows, err := f.db.QueryContext(ctx, `
		SELECT content_hash, rank FROM chunks_fts
		WHERE chunks_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, match, limit)
	if err != nil {
		if strings.Contains(err.Error(), "fts5") || strings.Contains(err.Error(), "syntax error") {
			return []*FTSResult{}, nil
		}
		return nil, kgerrors.Store("FTS search", err)
	}
	defer rows.Close()

	var results []*FTSResult
	for rows.Next() {
		var hexHash string
		var rank float64
		if err := rows.Scan(&hexHash, &rank); err != nil {
			return nil, kgerrors.Store("scan FTS result", err)
		}
		// FTS5 rank is negative bm25 (lower is better); negate so a
		// higher score means a better match.
		results = append(results, &FTSResult{
			ContentHash: hexHash,
			Rank:        len(results) + 1,
			Score:       -rank,
		})
	}
	return results, rows.Err()
}

// Delete removes documents by content hash.
func (f *sqliteFTS) Delete(ctx context.Context, hashes []string) error {
	if len(hashes) == 0 {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	placeholders := make([]string, len(hashes))
	args := make([]any, len(hashes))
	for i, h := range hashes {
		placeholders[i] = "?"
		args[i] = h
	}

	_, err := f.db.ExecContext(ctx,
		`DELETE FROM chunks_fts WHERE content_hash IN (`+strings.Join(placeholders, ",")+`)`, args...)
	if err != nil {
		return kgerrors.Store("delete FTS documents", err)
	}
	return nil
}

// Close is a no-op; the store owns the shared connection.
func (f *sqliteFTS) Close() error {
	return nil
}
