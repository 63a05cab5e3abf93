package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/codegraph/internal/embed"
	"github.com/Aman-CERP/codegraph/internal/graph"
	"github.com/Aman-CERP/codegraph/internal/model"
	"github.com/Aman-CERP/codegraph/internal/store"
)

func newService(t *testing.T) (*Engine, *store.Store, embed.Embedder) {
	t.Helper()
	s, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	embedder := embed.NewStaticEmbedder()
	return New(s, embedder, Config{}), s, embedder
}

// seedIndexed stores a chunk the way the pipeline would: chunk,
// embedding, and location.
func seedIndexed(t *testing.T, s *store.Store, embedder embed.Embedder, content string, lang model.Language, symbol, file string) *model.Chunk {
	t.Helper()
	ctx := context.Background()

	c := model.NewChunk(content, lang, model.KindFunction, symbol)
	c.LineStart, c.LineEnd = 1, c.LineCount
	require.NoError(t, s.PutChunk(ctx, c))

	vec, err := embedder.Embed(ctx, c.EmbeddingText())
	require.NoError(t, err)
	require.NoError(t, s.PutEmbedding(ctx, c.ContentHash, model.NewEmbedding(vec, embedder.ModelID())))

	require.NoError(t, s.PutLocation(ctx, &model.ChunkLocation{
		ContentHash: c.ContentHash, FilePath: file,
		LineStart: c.LineStart, LineEnd: c.LineEnd,
	}))
	return c
}

func TestSearch_ExactSymbolRetrieval(t *testing.T) {
	// E1: querying an indexed symbol name returns its chunk first.
	svc, s, embedder := newService(t)

	auth := seedIndexed(t, s, embedder,
		"fn authenticate_user(u: &str, p: &str) -> bool { true }",
		model.LangRust, "authenticate_user", "src/auth.rs")
	seedIndexed(t, s, embedder,
		"fn render_template(name: &str) -> String { String::new() }",
		model.LangRust, "render_template", "src/render.rs")

	results, err := svc.Search(context.Background(), "authenticate_user",
		SearchOptions{Limit: 5, Threshold: 0})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, auth.ContentHash.Hex(), results[0].ContentHash)
	require.NotNil(t, results[0].Chunk)
	assert.Equal(t, "authenticate_user", results[0].Chunk.SymbolName)
}

func TestSearch_LanguageFilter(t *testing.T) {
	// E2: identical content text, distinct languages; lang:rust keeps
	// only the Rust chunk.
	svc, s, embedder := newService(t)

	rust := seedIndexed(t, s, embedder, "parser entry point", model.LangRust, "parse", "src/p.rs")
	seedIndexed(t, s, embedder, "parser entry point ", model.LangPython, "parse", "lib/p.py")

	results, err := svc.Search(context.Background(), "parser lang:rust",
		SearchOptions{Limit: 10, Threshold: 0})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, rust.ContentHash.Hex(), results[0].ContentHash)
}

func TestSearch_ThresholdDropsLowScores(t *testing.T) {
	svc, s, embedder := newService(t)
	seedIndexed(t, s, embedder, "fn solo() {}", model.LangRust, "solo", "a.rs")

	results, err := svc.Search(context.Background(), "solo",
		SearchOptions{Limit: 5, Threshold: 1.0})
	require.NoError(t, err)
	assert.Empty(t, results, "RRF scores never reach 1.0")
}

func TestTree_SymbolAndForest(t *testing.T) {
	svc, s, embedder := newService(t)
	ctx := context.Background()

	main := seedIndexed(t, s, embedder, "fn main() { helper(); }", model.LangRust, "main", "m.rs")
	seedIndexed(t, s, embedder, "fn helper() {}", model.LangRust, "helper", "h.rs")
	require.NoError(t, s.AddEdges(ctx, []model.Edge{
		{SourceHash: main.ContentHash, TargetQuery: "helper", Kind: model.EdgeCalls, LineNumber: 1},
	}))

	tree, err := svc.Tree(ctx, "main", 3)
	require.NoError(t, err)
	require.Len(t, tree.Roots, 1)
	assert.Equal(t, []string{"main", "helper"}, graph.Flatten(tree.Roots[0]))
	assert.Contains(t, tree.Rendered, "helper")

	forest, err := svc.Tree(ctx, "", 3)
	require.NoError(t, err)
	require.Len(t, forest.Roots, 1, "only main is a root with outgoing edges")
	assert.Equal(t, "main", forest.Roots[0].Symbol)
}

func TestModuleGraphAndCycles(t *testing.T) {
	// E5 + E6 via the service surface.
	svc, s, _ := newService(t)
	ctx := context.Background()

	for _, id := range []string{"m1", "m2", "m3"} {
		require.NoError(t, s.PutModule(ctx, &model.Module{
			ID: id, Name: id, Path: id, Language: model.LangRust, ProjectType: model.ProjectCrate,
		}))
	}

	mk := func(moduleID, symbol, target string) {
		c := model.NewChunk("fn "+symbol+"() { "+target+"(); }", model.LangRust, model.KindFunction, symbol)
		c.ModuleID = moduleID
		c.LineStart, c.LineEnd = 1, 1
		require.NoError(t, s.PutChunk(ctx, c))
		require.NoError(t, s.AddEdges(ctx, []model.Edge{
			{SourceHash: c.ContentHash, TargetQuery: target, Kind: model.EdgeCalls, LineNumber: 1},
		}))
	}
	mk("m1", "f1", "f2")
	mk("m2", "f2", "f3")
	mk("m3", "f3", "f1")

	entries, err := svc.ModuleGraph(ctx, "crate", []string{"m2"}, false)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Len(t, entries[0].Dependencies, 1)
	assert.Equal(t, "m3", entries[0].Dependencies[0].TargetID)
	assert.Equal(t, 1, entries[0].Dependencies[0].Count)

	cycles, err := svc.FindModuleCycles(ctx)
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	cycle := cycles[0]
	assert.Equal(t, cycle[0], cycle[len(cycle)-1])
	assert.ElementsMatch(t, []string{"m1", "m2", "m3"}, cycle[:3])
}

func TestContext(t *testing.T) {
	svc, s, embedder := newService(t)

	seedIndexed(t, s, embedder, "fn dup(a: u8) {}", model.LangRust, "dup", "a.rs")
	seedIndexed(t, s, embedder, "fn dup(a: u8, b: u8) {}", model.LangRust, "dup", "b.rs")

	chunks, err := svc.Context(context.Background(), "dup")
	require.NoError(t, err)
	assert.Len(t, chunks, 2)

	missing, err := svc.Context(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestRelated(t *testing.T) {
	svc, s, embedder := newService(t)
	ctx := context.Background()

	login := seedIndexed(t, s, embedder,
		"fn login_user(name: &str) { check_password(); }",
		model.LangRust, "login_user", "auth.rs")
	seedIndexed(t, s, embedder,
		"fn logout_user(name: &str) { }",
		model.LangRust, "logout_user", "auth.rs")
	require.NoError(t, s.AddEdges(ctx, []model.Edge{
		{SourceHash: login.ContentHash, TargetQuery: "check_password", Kind: model.EdgeCalls, LineNumber: 1},
	}))

	related, err := svc.Related(ctx, "login_user", 5)
	require.NoError(t, err)
	assert.Contains(t, related.GraphNeighbors, "check_password")
	assert.NotContains(t, related.SemanticRelatives, "login_user", "self is excluded")
}

func TestRelated_UnknownSymbol(t *testing.T) {
	svc, _, _ := newService(t)

	related, err := svc.Related(context.Background(), "nope", 5)
	require.NoError(t, err)
	assert.Empty(t, related.GraphNeighbors)
	assert.Empty(t, related.SemanticRelatives)
}

func TestHistory(t *testing.T) {
	svc, s, embedder := newService(t)
	ctx := context.Background()

	c := seedIndexed(t, s, embedder, "fn tracked() {}", model.LangRust, "tracked", "src/a.rs")

	// Same chunk seen at a second site.
	require.NoError(t, s.PutLocation(ctx, &model.ChunkLocation{
		ContentHash: c.ContentHash, FilePath: "src/b.rs",
		LineStart: 10, LineEnd: 10,
	}))

	// By content hash: every sighting of the chunk.
	byHash, err := svc.History(ctx, c.ContentHash.Hex(), 10)
	require.NoError(t, err)
	assert.Len(t, byHash, 2)

	// By file path: the chunks seen in that file.
	byFile, err := svc.History(ctx, "src/b.rs", 10)
	require.NoError(t, err)
	require.Len(t, byFile, 1)
	assert.Equal(t, c.ContentHash, byFile[0].ContentHash)

	// Limit truncates.
	limited, err := svc.History(ctx, c.ContentHash.Hex(), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	// Unknown target is an empty result, not an error.
	missing, err := svc.History(ctx, "no/such/file.rs", 10)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestIndexAndStats(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"),
		[]byte("package main\n\nfunc main() {}\n"), 0o644))

	require.True(t, svc.Index(ctx, root, false))

	require.Eventually(t, func() bool {
		stats, err := svc.Stats(ctx)
		return err == nil && !stats.Indexing && stats.LastIndexRun != nil
	}, 5*time.Second, 10*time.Millisecond)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.LastIndexRun.FilesSeen)
	assert.Greater(t, stats.Store.Chunks, 0)
}
