package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	kgerrors "github.com/Aman-CERP/codegraph/internal/errors"
	"github.com/Aman-CERP/codegraph/internal/hash"
	"github.com/Aman-CERP/codegraph/internal/model"
	"github.com/Aman-CERP/codegraph/internal/query"
	"github.com/Aman-CERP/codegraph/internal/vector"
)

// Store is the SQLite-backed persistence layer. All record kinds live in
// one database file; a single mutex serializes access to the connection.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	fts    FTSIndex
	path   string
	closed bool
}

// Option configures a Store.
type Option func(*Store)

// WithFTSIndex replaces the default FTS5 index with another backend
// (e.g. Bleve).
func WithFTSIndex(idx FTSIndex) Option {
	return func(s *Store) {
		s.fts = idx
	}
}

// New opens (or creates) a store at the given path. Schema creation is
// idempotent.
func New(path string, opts ...Option) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, kgerrors.Store("create data directory", err)
	}
	return open(path+"?_journal_mode=WAL&_busy_timeout=5000", path, opts...)
}

// NewMemory creates an in-memory store for testing.
func NewMemory(opts ...Option) (*Store, error) {
	return open(":memory:", "", opts...)
}

func open(dsn, path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, kgerrors.Store("open database", err)
	}

	// Single connection: SQLite has one writer, and the mutex above makes
	// additional pooled connections pointless.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if path != "" {
		// WAL must be set via PRAGMA for modernc.org/sqlite; DSN params alone
		// are not honored.
		pragmas := []string{
			"PRAGMA journal_mode = WAL",
			"PRAGMA busy_timeout = 5000",
			"PRAGMA synchronous = NORMAL",
			"PRAGMA temp_store = MEMORY",
		}
		for _, pragma := range pragmas {
			if _, err := db.Exec(pragma); err != nil {
				_ = db.Close()
				return nil, kgerrors.Store("set pragma", err)
			}
		}
	}

	s := &Store{db: db, path: path}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if s.fts == nil {
		fts, err := newSQLiteFTS(db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		s.fts = fts
	}

	return s, nil
}

// initSchema creates all tables and indexes. Safe to run repeatedly.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS modules (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		path            TEXT NOT NULL,
		language        TEXT NOT NULL,
		project_type    TEXT NOT NULL,
		parent_id       TEXT REFERENCES modules(id)
	);

	CREATE TABLE IF NOT EXISTS chunks (
		content_hash    TEXT PRIMARY KEY,
		content         TEXT NOT NULL,
		language        TEXT NOT NULL,
		chunk_kind      TEXT NOT NULL,
		symbol_name     TEXT,
		signature       TEXT,
		docstring       TEXT,
		byte_size       INTEGER NOT NULL,
		line_start      INTEGER NOT NULL,
		line_end        INTEGER NOT NULL,
		line_count      INTEGER NOT NULL,
		module_id       TEXT REFERENCES modules(id),
		created_at      TEXT NOT NULL DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_symbol ON chunks(symbol_name);
	CREATE INDEX IF NOT EXISTS idx_chunks_kind ON chunks(chunk_kind, language);
	CREATE INDEX IF NOT EXISTS idx_chunks_module ON chunks(module_id);

	CREATE TABLE IF NOT EXISTS embeddings (
		content_hash    TEXT PRIMARY KEY,
		model_id        TEXT NOT NULL,
		vector          BLOB NOT NULL,
		dimensions      INTEGER NOT NULL,
		created_at      TEXT NOT NULL DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS locations (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		content_hash    TEXT NOT NULL,
		file_path       TEXT NOT NULL,
		byte_start      INTEGER NOT NULL,
		byte_end        INTEGER NOT NULL,
		line_start      INTEGER NOT NULL,
		line_end        INTEGER NOT NULL,
		commit_hash     TEXT,
		author          TEXT,
		timestamp       TEXT,
		created_at      TEXT NOT NULL DEFAULT (datetime('now')),
		UNIQUE(content_hash, file_path, commit_hash)
	);

	CREATE INDEX IF NOT EXISTS idx_locations_hash ON locations(content_hash);
	CREATE INDEX IF NOT EXISTS idx_locations_commit ON locations(commit_hash);
	CREATE INDEX IF NOT EXISTS idx_locations_file ON locations(file_path);

	CREATE TABLE IF NOT EXISTS edges (
		source_hash     TEXT NOT NULL,
		target_query    TEXT NOT NULL,
		edge_kind       TEXT NOT NULL,
		line_number     INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_hash);
	CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_query);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return kgerrors.Store("initialize schema", err)
	}
	return nil
}

// Close closes the store and its FTS backend.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.fts != nil {
		_ = s.fts.Close()
	}
	if s.path != "" {
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	}
	return s.db.Close()
}

// --- chunks ---

// PutChunk stores a chunk, replacing any existing row with the same
// content hash, and refreshes the full-text entry. Idempotent.
func (s *Store) PutChunk(ctx context.Context, c *model.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO chunks
		(content_hash, content, language, chunk_kind, symbol_name, signature, docstring, byte_size, line_start, line_end, line_count, module_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ContentHash.Hex(), c.Content, string(c.Language), string(c.Kind),
		nullStr(c.SymbolName), nullStr(c.Signature), nullStr(c.Docstring),
		c.ByteSize, c.LineStart, c.LineEnd, c.LineCount, nullStr(c.ModuleID),
	)
	if err != nil {
		return kgerrors.Store("put chunk", err)
	}

	return s.fts.Index(ctx, []*FTSDocument{{
		ContentHash: c.ContentHash.Hex(),
		SymbolName:  c.SymbolName,
		Docstring:   c.Docstring,
		Content:     c.Content,
	}})
}

const chunkColumns = `content_hash, content, language, chunk_kind, symbol_name, signature, docstring, byte_size, line_start, line_end, line_count, module_id`

// GetChunk retrieves a chunk by hash. Returns a NotFound error when the
// hash is absent.
func (s *Store) GetChunk(ctx context.Context, h hash.ContentHash) (*model.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE content_hash = ?`, h.Hex())
	c, err := scanChunk(row)
	if err == sql.ErrNoRows {
		return nil, kgerrors.NotFound("chunk " + h.Short())
	}
	if err != nil {
		return nil, kgerrors.Store("get chunk", err)
	}
	return c, nil
}

// HasChunk reports whether a chunk exists.
func (s *Store) HasChunk(ctx context.Context, h hash.ContentHash) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chunks WHERE content_hash = ?`, h.Hex()).Scan(&count)
	if err != nil {
		return false, kgerrors.Store("chunk exists", err)
	}
	return count > 0, nil
}

// GetChunks retrieves multiple chunks; absent hashes are skipped.
func (s *Store) GetChunks(ctx context.Context, hashes []hash.ContentHash) ([]*model.Chunk, error) {
	if len(hashes) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	placeholders := make([]string, len(hashes))
	args := make([]any, len(hashes))
	for i, h := range hashes {
		placeholders[i] = "?"
		args[i] = h.Hex()
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE content_hash IN (`+strings.Join(placeholders, ",")+`)`,
		args...)
	if err != nil {
		return nil, kgerrors.Store("get chunks", err)
	}
	defer rows.Close()

	byHash := make(map[hash.ContentHash]*model.Chunk)
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, kgerrors.Store("scan chunk", err)
		}
		byHash[c.ContentHash] = c
	}
	if err := rows.Err(); err != nil {
		return nil, kgerrors.Store("iterate chunks", err)
	}

	// Preserve caller order.
	result := make([]*model.Chunk, 0, len(byHash))
	for _, h := range hashes {
		if c, ok := byHash[h]; ok {
			result = append(result, c)
		}
	}
	return result, nil
}

// FindBySymbol returns all chunks with the given symbol name, ordered by
// content hash for determinism. Overloads and duplicates coexist.
func (s *Store) FindBySymbol(ctx context.Context, symbol string) ([]*model.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE symbol_name = ? ORDER BY content_hash`, symbol)
	if err != nil {
		return nil, kgerrors.Store("find by symbol", err)
	}
	defer rows.Close()

	var chunks []*model.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, kgerrors.Store("scan chunk", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChunk(row rowScanner) (*model.Chunk, error) {
	var (
		hexHash, content, lang, kind          string
		symbol, signature, docstring, modID   sql.NullString
		byteSize, lineStart, lineEnd, lineCnt int
	)
	err := row.Scan(&hexHash, &content, &lang, &kind, &symbol, &signature,
		&docstring, &byteSize, &lineStart, &lineEnd, &lineCnt, &modID)
	if err != nil {
		return nil, err
	}

	h, err := hash.FromHex(hexHash)
	if err != nil {
		return nil, fmt.Errorf("corrupt content hash %q: %w", hexHash, err)
	}

	return &model.Chunk{
		ContentHash: h,
		Content:     content,
		Language:    model.LanguageFromString(lang),
		Kind:        model.ChunkKindFromString(kind),
		SymbolName:  symbol.String,
		Signature:   signature.String,
		Docstring:   docstring.String,
		ByteSize:    byteSize,
		LineStart:   lineStart,
		LineEnd:     lineEnd,
		LineCount:   lineCnt,
		ModuleID:    modID.String,
	}, nil
}

// --- embeddings ---

// PutEmbedding stores the embedding for a hash, overwriting any previous
// one (one embedding per hash; model changes overwrite).
func (s *Store) PutEmbedding(ctx context.Context, h hash.ContentHash, e *model.Embedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO embeddings (content_hash, model_id, vector, dimensions)
		VALUES (?, ?, ?, ?)`,
		h.Hex(), e.ModelID, vector.Encode(e.Vector), e.Dimensions)
	if err != nil {
		return kgerrors.Store("put embedding", err)
	}
	return nil
}

// GetEmbedding retrieves the embedding for a hash. Returns a NotFound
// error when absent.
func (s *Store) GetEmbedding(ctx context.Context, h hash.ContentHash) (*model.Embedding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		modelID string
		blob    []byte
		dims    int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT model_id, vector, dimensions FROM embeddings WHERE content_hash = ?`,
		h.Hex()).Scan(&modelID, &blob, &dims)
	if err == sql.ErrNoRows {
		return nil, kgerrors.NotFound("embedding " + h.Short())
	}
	if err != nil {
		return nil, kgerrors.Store("get embedding", err)
	}

	vec, err := vector.Decode(blob)
	if err != nil {
		return nil, kgerrors.Store("decode vector", err)
	}
	return &model.Embedding{Vector: vec, ModelID: modelID, Dimensions: dims}, nil
}

// AllEmbeddings streams out every stored vector for brute-force scans
// and ANN index builds.
func (s *Store) AllEmbeddings(ctx context.Context) ([]StoredVector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT content_hash, vector FROM embeddings`)
	if err != nil {
		return nil, kgerrors.Store("scan embeddings", err)
	}
	defer rows.Close()

	var out []StoredVector
	for rows.Next() {
		var hexHash string
		var blob []byte
		if err := rows.Scan(&hexHash, &blob); err != nil {
			return nil, kgerrors.Store("scan embedding row", err)
		}
		h, err := hash.FromHex(hexHash)
		if err != nil {
			return nil, kgerrors.Store("decode embedding hash", err)
		}
		vec, err := vector.Decode(blob)
		if err != nil {
			return nil, kgerrors.Store("decode embedding vector", err)
		}
		out = append(out, StoredVector{ContentHash: h, Vector: vec})
	}
	return out, rows.Err()
}

// SearchSimilar performs an exact brute-force similarity scan. Results
// are ordered by similarity descending with a content-hash tiebreak, and
// scores below threshold are dropped.
func (s *Store) SearchSimilar(ctx context.Context, q *model.Embedding, limit int, threshold float32) ([]*SimilarityResult, error) {
	vectors, err := s.AllEmbeddings(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*SimilarityResult, 0, len(vectors))
	for _, sv := range vectors {
		sim := vector.Cosine(q.Vector, sv.Vector)
		if sim < threshold {
			continue
		}
		results = append(results, &SimilarityResult{ContentHash: sv.ContentHash, Similarity: sim})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ContentHash.Less(results[j].ContentHash)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// --- locations ---

// PutLocation records a sighting of a chunk. Replaces on the
// (content_hash, file_path, commit_hash) key, so re-indexing the same
// commit is idempotent.
func (s *Store) PutLocation(ctx context.Context, loc *model.ChunkLocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ts any
	if loc.Timestamp != nil {
		ts = loc.Timestamp.UTC().Format(time.RFC3339)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO locations
		(content_hash, file_path, byte_start, byte_end, line_start, line_end, commit_hash, author, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		loc.ContentHash.Hex(), loc.FilePath, loc.ByteStart, loc.ByteEnd,
		loc.LineStart, loc.LineEnd, nullStr(loc.CommitHash), nullStr(loc.Author), ts)
	if err != nil {
		return kgerrors.Store("put location", err)
	}
	return nil
}

const locationColumns = `content_hash, file_path, byte_start, byte_end, line_start, line_end, commit_hash, author, timestamp`

// GetLocations returns all sightings of a chunk, most recent first.
func (s *Store) GetLocations(ctx context.Context, h hash.ContentHash) ([]*model.ChunkLocation, error) {
	return s.queryLocations(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE content_hash = ? ORDER BY id DESC`, h.Hex())
}

// GetLocationsInFile returns the chunks seen in a file, in line order.
func (s *Store) GetLocationsInFile(ctx context.Context, filePath string) ([]*model.ChunkLocation, error) {
	return s.queryLocations(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE file_path = ? ORDER BY line_start`, filePath)
}

// GetLocationHistory returns a chunk's sightings ordered by blame
// timestamp, newest first; unattributed rows sort last.
func (s *Store) GetLocationHistory(ctx context.Context, h hash.ContentHash) ([]*model.ChunkLocation, error) {
	return s.queryLocations(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE content_hash = ? ORDER BY timestamp DESC`, h.Hex())
}

// GetLocationsAtCommit returns all locations recorded for a commit.
func (s *Store) GetLocationsAtCommit(ctx context.Context, commitHash string) ([]*model.ChunkLocation, error) {
	return s.queryLocations(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE commit_hash = ? ORDER BY file_path`, commitHash)
}

func (s *Store) queryLocations(ctx context.Context, q string, args ...any) ([]*model.ChunkLocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, kgerrors.Store("query locations", err)
	}
	defer rows.Close()

	var locations []*model.ChunkLocation
	for rows.Next() {
		var (
			hexHash, filePath        string
			byteStart, byteEnd       int
			lineStart, lineEnd       int
			commitHash, author, tsty sql.NullString
		)
		if err := rows.Scan(&hexHash, &filePath, &byteStart, &byteEnd,
			&lineStart, &lineEnd, &commitHash, &author, &tsty); err != nil {
			return nil, kgerrors.Store("scan location", err)
		}

		h, err := hash.FromHex(hexHash)
		if err != nil {
			return nil, kgerrors.Store("decode location hash", err)
		}

		loc := &model.ChunkLocation{
			ContentHash: h,
			FilePath:    filePath,
			ByteStart:   byteStart,
			ByteEnd:     byteEnd,
			LineStart:   lineStart,
			LineEnd:     lineEnd,
			CommitHash:  commitHash.String,
			Author:      author.String,
		}
		if tsty.Valid {
			if t, err := time.Parse(time.RFC3339, tsty.String); err == nil {
				loc.Timestamp = &t
			}
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

// --- edges ---

// AddEdges inserts a batch of edges in a single transaction. Edges are
// pure inserts: duplicates are legal distinct call sites, and reads
// deduplicate instead.
func (s *Store) AddEdges(ctx context.Context, edges []model.Edge) error {
	if len(edges) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return kgerrors.Store("begin edge batch", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO edges (source_hash, target_query, edge_kind, line_number) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return kgerrors.Store("prepare edge insert", err)
	}
	defer stmt.Close()

	for _, e := range edges {
		var line any
		if e.LineNumber > 0 {
			line = e.LineNumber
		}
		if _, err := stmt.ExecContext(ctx, e.SourceHash.Hex(), e.TargetQuery, string(e.Kind), line); err != nil {
			return kgerrors.Store("insert edge", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return kgerrors.Store("commit edge batch", err)
	}
	return nil
}

// GetOutgoingEdges returns the deduplicated outgoing edges of a chunk.
func (s *Store) GetOutgoingEdges(ctx context.Context, h hash.ContentHash) ([]model.Edge, error) {
	return s.queryEdges(ctx, `
		SELECT DISTINCT source_hash, target_query, edge_kind, line_number
		FROM edges WHERE source_hash = ?
		ORDER BY target_query, line_number`, h.Hex())
}

// GetIncomingEdges returns the deduplicated edges targeting a symbol.
func (s *Store) GetIncomingEdges(ctx context.Context, symbol string) ([]model.Edge, error) {
	return s.queryEdges(ctx, `
		SELECT DISTINCT source_hash, target_query, edge_kind, line_number
		FROM edges WHERE target_query = ?
		ORDER BY source_hash, line_number`, symbol)
}

func (s *Store) queryEdges(ctx context.Context, q string, args ...any) ([]model.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, kgerrors.Store("query edges", err)
	}
	defer rows.Close()

	var edges []model.Edge
	for rows.Next() {
		var hexHash, target, kind string
		var line sql.NullInt64
		if err := rows.Scan(&hexHash, &target, &kind, &line); err != nil {
			return nil, kgerrors.Store("scan edge", err)
		}
		h, err := hash.FromHex(hexHash)
		if err != nil {
			return nil, kgerrors.Store("decode edge hash", err)
		}
		edges = append(edges, model.Edge{
			SourceHash:  h,
			TargetQuery: target,
			Kind:        model.EdgeKindFromString(kind),
			LineNumber:  int(line.Int64),
		})
	}
	return edges, rows.Err()
}

// FindSymbolDeps returns the union of outgoing edge targets across every
// chunk carrying the symbol, sorted and deduplicated.
func (s *Store) FindSymbolDeps(ctx context.Context, symbol string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT e.target_query
		FROM edges e
		JOIN chunks c ON c.content_hash = e.source_hash
		WHERE c.symbol_name = ?
		ORDER BY e.target_query`, symbol)
	if err != nil {
		return nil, kgerrors.Store("query symbol deps", err)
	}
	defer rows.Close()

	var deps []string
	for rows.Next() {
		var target string
		if err := rows.Scan(&target); err != nil {
			return nil, kgerrors.Store("scan symbol dep", err)
		}
		deps = append(deps, target)
	}
	return deps, rows.Err()
}

// GetRoots returns symbols defined in the index that never appear as an
// edge target (natural entry points), sorted.
func (s *Store) GetRoots(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT symbol_name FROM chunks
		WHERE symbol_name IS NOT NULL
		AND symbol_name NOT IN (SELECT DISTINCT target_query FROM edges)
		ORDER BY symbol_name`)
	if err != nil {
		return nil, kgerrors.Store("query roots", err)
	}
	defer rows.Close()

	var roots []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, kgerrors.Store("scan root", err)
		}
		roots = append(roots, symbol)
	}
	return roots, rows.Err()
}

// AllChunkRefs returns the slim (hash, symbol, module) projection of every
// chunk, for the graph engines.
func (s *Store) AllChunkRefs(ctx context.Context) ([]ChunkRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT content_hash, symbol_name, module_id FROM chunks`)
	if err != nil {
		return nil, kgerrors.Store("query chunk refs", err)
	}
	defer rows.Close()

	var refs []ChunkRef
	for rows.Next() {
		var hexHash string
		var symbol, modID sql.NullString
		if err := rows.Scan(&hexHash, &symbol, &modID); err != nil {
			return nil, kgerrors.Store("scan chunk ref", err)
		}
		h, err := hash.FromHex(hexHash)
		if err != nil {
			return nil, kgerrors.Store("decode chunk ref hash", err)
		}
		refs = append(refs, ChunkRef{ContentHash: h, SymbolName: symbol.String, ModuleID: modID.String})
	}
	return refs, rows.Err()
}

// AllEdgeRows returns every edge joined with its source chunk,
// deduplicated on the full tuple. This is the module rollup's input.
func (s *Store) AllEdgeRows(ctx context.Context) ([]EdgeRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT e.source_hash, c.symbol_name, c.module_id, e.target_query, e.edge_kind, e.line_number
		FROM edges e
		JOIN chunks c ON c.content_hash = e.source_hash
		ORDER BY e.source_hash, e.target_query, e.line_number`)
	if err != nil {
		return nil, kgerrors.Store("query edge rows", err)
	}
	defer rows.Close()

	var out []EdgeRow
	for rows.Next() {
		var hexHash, target, kind string
		var symbol, modID sql.NullString
		var line sql.NullInt64
		if err := rows.Scan(&hexHash, &symbol, &modID, &target, &kind, &line); err != nil {
			return nil, kgerrors.Store("scan edge row", err)
		}
		h, err := hash.FromHex(hexHash)
		if err != nil {
			return nil, kgerrors.Store("decode edge row hash", err)
		}
		out = append(out, EdgeRow{
			SourceHash:   h,
			SourceSymbol: symbol.String,
			SourceModule: modID.String,
			TargetQuery:  target,
			Kind:         kind,
			LineNumber:   int(line.Int64),
		})
	}
	return out, rows.Err()
}

// --- modules ---

// PutModule stores a module, replacing by ID. The detector refreshes
// modules on every index run.
func (s *Store) PutModule(ctx context.Context, m *model.Module) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO modules (id, name, path, language, project_type, parent_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Path, string(m.Language), string(m.ProjectType), nullStr(m.ParentID))
	if err != nil {
		return kgerrors.Store("put module", err)
	}
	return nil
}

// GetModule retrieves a module by ID. Returns a NotFound error when
// absent.
func (s *Store) GetModule(ctx context.Context, id string) (*model.Module, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, path, language, project_type, parent_id FROM modules WHERE id = ?`, id)
	m, err := scanModule(row)
	if err == sql.ErrNoRows {
		return nil, kgerrors.NotFound("module " + id)
	}
	if err != nil {
		return nil, kgerrors.Store("get module", err)
	}
	return m, nil
}

// ListModules returns all modules ordered by ID.
func (s *Store) ListModules(ctx context.Context) ([]*model.Module, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, path, language, project_type, parent_id FROM modules ORDER BY id`)
	if err != nil {
		return nil, kgerrors.Store("list modules", err)
	}
	defer rows.Close()

	var modules []*model.Module
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, kgerrors.Store("scan module", err)
		}
		modules = append(modules, m)
	}
	return modules, rows.Err()
}

func scanModule(row rowScanner) (*model.Module, error) {
	var id, name, path, lang, ptype string
	var parent sql.NullString
	if err := row.Scan(&id, &name, &path, &lang, &ptype, &parent); err != nil {
		return nil, err
	}
	return &model.Module{
		ID:          id,
		Name:        name,
		Path:        path,
		Language:    model.LanguageFromString(lang),
		ProjectType: model.ProjectTypeFromString(ptype),
		ParentID:    parent.String,
	}, nil
}

// --- query support ---

// FTSSearch runs the full-text backend over chunk text, returning hits
// best-first with 1-indexed ranks.
func (s *Store) FTSSearch(ctx context.Context, text string, limit int) ([]*FTSResult, error) {
	// FTS backends lock internally; the store mutex is not held so the
	// SQLite FTS implementation can share the connection safely.
	return s.fts.Search(ctx, text, limit)
}

// FilterCandidates evaluates the metadata filters of a query and returns
// the surviving candidate hash set. Filters are conjunctive and join
// each chunk with its most recent location.
func (s *Store) FilterCandidates(ctx context.Context, q *query.SearchQuery) (map[hash.ContentHash]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !q.HasFilters() {
		return nil, nil
	}

	var (
		conds []string
		args  []any
	)

	if q.Author != "" {
		conds = append(conds, "l.author LIKE ?")
		args = append(args, "%"+q.Author+"%")
	}
	if q.Lang != nil {
		conds = append(conds, "c.language = ?")
		args = append(args, string(*q.Lang))
	}
	if q.After != nil {
		conds = append(conds, "l.timestamp >= ?")
		args = append(args, q.After.UTC().Format(time.RFC3339))
	}
	if q.Before != nil {
		conds = append(conds, "l.timestamp < ?")
		args = append(args, q.Before.UTC().Format(time.RFC3339))
	}
	if q.FilePattern != "" {
		conds = append(conds, "l.file_path LIKE ?")
		args = append(args, "%"+q.FilePattern+"%")
	}

	sqlQuery := `
		SELECT c.content_hash
		FROM chunks c
		JOIN locations l ON l.content_hash = c.content_hash
		JOIN (
			SELECT content_hash, MAX(id) AS latest_id
			FROM locations GROUP BY content_hash
		) latest ON latest.content_hash = l.content_hash AND latest.latest_id = l.id
		WHERE ` + strings.Join(conds, " AND ")

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, kgerrors.Store("filter candidates", err)
	}
	defer rows.Close()

	candidates := make(map[hash.ContentHash]struct{})
	for rows.Next() {
		var hexHash string
		if err := rows.Scan(&hexHash); err != nil {
			return nil, kgerrors.Store("scan candidate", err)
		}
		h, err := hash.FromHex(hexHash)
		if err != nil {
			return nil, kgerrors.Store("decode candidate hash", err)
		}
		candidates[h] = struct{}{}
	}
	return candidates, rows.Err()
}

// Stats returns index-wide counts.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := &Stats{}
	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM chunks`, &stats.Chunks},
		{`SELECT COUNT(*) FROM embeddings`, &stats.Embeddings},
		{`SELECT COUNT(*) FROM locations`, &stats.Locations},
		{`SELECT COUNT(*) FROM edges`, &stats.Edges},
		{`SELECT COUNT(*) FROM modules`, &stats.Modules},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, kgerrors.Store("count rows", err)
		}
	}
	return stats, nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
