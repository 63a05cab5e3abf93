package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/codegraph/internal/embed"
	"github.com/Aman-CERP/codegraph/internal/store"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func newPipeline(t *testing.T) (*Pipeline, *store.Store) {
	t.Helper()
	s, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return NewPipeline(s, embed.NewStaticEmbedder()), s
}

func TestRun_IndexesTree(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"go.mod":      "module github.com/acme/demo\n",
		"main.go":     "package main\n\nfunc main() {\n\thelper()\n}\n",
		"helper.go":   "package main\n\nfunc helper() {}\n",
		"notes.txt":   "not code",
		"sub/util.py": "def util():\n    pass\n",
	})

	p, s := newPipeline(t)
	summary, err := p.Run(context.Background(), Config{Root: root})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.FilesSeen, "txt file is not scanned")
	assert.GreaterOrEqual(t, summary.ChunksWritten, 3)
	assert.Equal(t, summary.ChunksWritten, summary.LocationsWritten)
	assert.Zero(t, summary.Errors)

	ctx := context.Background()
	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, summary.ChunksWritten, stats.Chunks)
	assert.Equal(t, stats.Chunks, stats.Embeddings, "every chunk embedded")
	assert.Greater(t, stats.Modules, 0)
	assert.Greater(t, stats.Edges, 0, "main -> helper call edge recorded")

	// Chunks carry a module id stamped by the pipeline.
	mains, err := s.FindBySymbol(ctx, "main")
	require.NoError(t, err)
	require.Len(t, mains, 1)
	assert.Equal(t, "root", mains[0].ModuleID)

	subs, err := s.FindBySymbol(ctx, "util")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "sub", subs[0].ModuleID)
}

func TestRun_LocationByteOffsets(t *testing.T) {
	// Locations carry each chunk's real byte range within the file;
	// the second chunk must not restart at offset zero.
	root := t.TempDir()
	source := "package a\n\nfunc First() {}\n\nfunc Second() {}\n"
	writeTree(t, root, map[string]string{"a.go": source})

	p, s := newPipeline(t)
	_, err := p.Run(context.Background(), Config{Root: root})
	require.NoError(t, err)

	ctx := context.Background()
	locations, err := s.GetLocationsInFile(ctx, "a.go")
	require.NoError(t, err)
	require.Len(t, locations, 2)

	for _, loc := range locations {
		chunk, err := s.GetChunk(ctx, loc.ContentHash)
		require.NoError(t, err)
		assert.Equal(t, chunk.Content, source[loc.ByteStart:loc.ByteEnd],
			"byte range must slice the chunk out of the file")
	}
	assert.Greater(t, locations[1].ByteStart, locations[0].ByteEnd,
		"ranges of sibling chunks must not overlap")
}

func TestRun_Idempotent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.go": "package a\n\nfunc A() {\n\tB()\n}\n",
		"b.go": "package a\n\nfunc B() {}\n",
	})

	p, s := newPipeline(t)
	ctx := context.Background()

	_, err := p.Run(ctx, Config{Root: root})
	require.NoError(t, err)
	first, err := s.Stats(ctx)
	require.NoError(t, err)

	_, err = p.Run(ctx, Config{Root: root})
	require.NoError(t, err)
	second, err := s.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.Chunks, second.Chunks)
	assert.Equal(t, first.Embeddings, second.Embeddings)
	assert.Equal(t, first.Locations, second.Locations)
	assert.Equal(t, first.Modules, second.Modules)

	// Edge rows accumulate; reads stay deduplicated.
	chunks, err := s.FindBySymbol(ctx, "A")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	edges, err := s.GetOutgoingEdges(ctx, chunks[0].ContentHash)
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}

// failingEmbedder simulates a model outage.
type failingEmbedder struct {
	embed.Embedder
}

func (f *failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, assert.AnError
}

func TestRun_EmbeddingFailureKeepsChunk(t *testing.T) {
	// A failed embedding counts as an error; the chunk is stored without
	// a vector and stays reachable via FTS.
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.go": "package a\n\nfunc Unembeddable() {}\n",
	})

	s, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	p := NewPipeline(s, &failingEmbedder{Embedder: embed.NewStaticEmbedder()})
	summary, err := p.Run(context.Background(), Config{Root: root})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ChunksWritten)
	assert.Equal(t, 1, summary.Errors)

	ctx := context.Background()
	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Chunks)
	assert.Zero(t, stats.Embeddings)

	hits, err := s.FTSSearch(ctx, "unembeddable", 10)
	require.NoError(t, err)
	assert.NotEmpty(t, hits)
}

func TestRun_CancelledBetweenFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.go": "package a\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, _ := newPipeline(t)
	_, err := p.Run(ctx, Config{Root: root})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_ExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"keep.go":      "package a\n\nfunc Keep() {}\n",
		"skip_test.go": "package a\n\nfunc TestSkip() {}\n",
	})

	p, s := newPipeline(t)
	summary, err := p.Run(context.Background(), Config{Root: root, Exclude: []string{"**_test.go"}})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.FilesSeen)

	chunks, err := s.FindBySymbol(context.Background(), "TestSkip")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestRunner_FireAndForget(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.go": "package a\n\nfunc A() {}\n"})

	p, _ := newPipeline(t)
	r := NewRunner(p)

	require.True(t, r.Start(context.Background(), Config{Root: root}))

	require.Eventually(t, func() bool {
		running, last, err := r.Status()
		return !running && last != nil && err == nil
	}, 5*time.Second, 10*time.Millisecond)

	_, last, _ := r.Status()
	assert.Equal(t, 1, last.FilesSeen)
}
