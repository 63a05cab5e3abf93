// Package index drives the indexing pipeline: walk the filesystem,
// parse files into chunks and edges, embed chunk text, attribute
// locations via blame, and write everything through the store. Per-file
// failures are logged and counted; they never abort the run.
package index

import (
	"context"
	"log/slog"

	"github.com/gofrs/flock"

	kgerrors "github.com/Aman-CERP/codegraph/internal/errors"
	"github.com/Aman-CERP/codegraph/internal/embed"
	"github.com/Aman-CERP/codegraph/internal/gitblame"
	"github.com/Aman-CERP/codegraph/internal/model"
	"github.com/Aman-CERP/codegraph/internal/parser"
	"github.com/Aman-CERP/codegraph/internal/project"
	"github.com/Aman-CERP/codegraph/internal/scanner"
	"github.com/Aman-CERP/codegraph/internal/store"
)

// Summary reports what an index run did.
type Summary struct {
	FilesSeen        int `json:"files_seen"`
	ChunksWritten    int `json:"chunks_written"`
	LocationsWritten int `json:"locations_written"`
	Errors           int `json:"errors"`
}

// Config tunes one index run.
type Config struct {
	// Root is the directory to index.
	Root string
	// GitMode enables blame attribution on locations.
	GitMode bool
	// Exclude holds scanner glob patterns.
	Exclude []string
	// LockPath, when set, serializes index runs across processes.
	LockPath string
}

// Pipeline wires the external collaborators to the store.
type Pipeline struct {
	store     *store.Store
	extractor *parser.Extractor
	embedder  embed.Embedder
}

// NewPipeline creates an indexing pipeline.
func NewPipeline(s *store.Store, embedder embed.Embedder) *Pipeline {
	return &Pipeline{
		store:     s,
		extractor: parser.NewExtractor(),
		embedder:  embedder,
	}
}

// Run indexes the tree rooted at cfg.Root. Cancellation is checked
// between files, not between chunks.
func (p *Pipeline) Run(ctx context.Context, cfg Config) (*Summary, error) {
	if cfg.LockPath != "" {
		lock := flock.New(cfg.LockPath)
		locked, err := lock.TryLock()
		if err != nil {
			return nil, kgerrors.Store("acquire index lock", err)
		}
		if !locked {
			return nil, kgerrors.Config("another index run holds the lock")
		}
		defer func() { _ = lock.Unlock() }()
	}

	summary := &Summary{}

	// Module detection first: chunks need module ids stamped.
	detector := project.NewDetector(cfg.Root)
	modules := detector.DetectModules()
	for _, m := range modules {
		if err := p.store.PutModule(ctx, m); err != nil {
			return summary, err
		}
	}
	slog.Debug("modules detected", slog.Int("count", len(modules)))

	// Blame is optional; a missing repository downgrades git mode.
	var blame gitblame.Provider
	var commitHash string
	if cfg.GitMode {
		provider, err := gitblame.Open(cfg.Root)
		if err != nil {
			slog.Warn("git mode requested but repository unavailable",
				slog.String("error", err.Error()))
		} else {
			blame = provider
			if head, err := provider.HeadCommit(); err == nil {
				commitHash = head
			}
		}
	}

	sc, err := scanner.New(scanner.Options{RootDir: cfg.Root, Exclude: cfg.Exclude})
	if err != nil {
		return summary, kgerrors.Config(err.Error())
	}
	files, err := sc.Scan(ctx)
	if err != nil {
		return summary, err
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		p.indexFile(ctx, file, detector, blame, commitHash, summary)
	}

	slog.Info("index run complete",
		slog.Int("files", summary.FilesSeen),
		slog.Int("chunks", summary.ChunksWritten),
		slog.Int("errors", summary.Errors))
	return summary, nil
}

// indexFile processes one file: all chunks persisted, then all edges
// batched atomically.
func (p *Pipeline) indexFile(ctx context.Context, file scanner.File, detector *project.Detector, blame gitblame.Provider, commitHash string, summary *Summary) {
	summary.FilesSeen++

	content, err := file.ReadFile()
	if err != nil {
		slog.Warn("read failed", slog.String("file", file.RelPath), slog.String("error", err.Error()))
		summary.Errors++
		return
	}

	chunks, edges, err := p.extractor.Parse(ctx, content, file.Language)
	if err != nil {
		slog.Warn("parse failed", slog.String("file", file.RelPath), slog.String("error", err.Error()))
		summary.Errors++
		return
	}

	moduleID := detector.ModuleIDForFile(file.RelPath)

	for _, chunk := range chunks {
		chunk.ModuleID = moduleID

		if err := p.store.PutChunk(ctx, chunk); err != nil {
			slog.Warn("chunk write failed",
				slog.String("file", file.RelPath),
				slog.String("hash", chunk.ContentHash.Short()),
				slog.String("error", err.Error()))
			summary.Errors++
			continue
		}
		summary.ChunksWritten++

		// A failed embedding leaves the chunk reachable via FTS only.
		if vec, err := p.embedder.Embed(ctx, chunk.EmbeddingText()); err != nil {
			slog.Warn("embedding failed",
				slog.String("hash", chunk.ContentHash.Short()),
				slog.String("error", err.Error()))
			summary.Errors++
		} else if err := p.store.PutEmbedding(ctx, chunk.ContentHash, model.NewEmbedding(vec, p.embedder.ModelID())); err != nil {
			summary.Errors++
		}

		location := &model.ChunkLocation{
			ContentHash: chunk.ContentHash,
			FilePath:    file.RelPath,
			ByteStart:   chunk.ByteStart,
			ByteEnd:     chunk.ByteEnd,
			LineStart:   chunk.LineStart,
			LineEnd:     chunk.LineEnd,
			CommitHash:  commitHash,
		}
		if blame != nil {
			// Blame errors are always non-fatal; the location is stored
			// without attribution.
			if attr, err := blame.PrimaryAuthor(file.RelPath, chunk.LineStart, chunk.LineEnd); err == nil && attr != nil {
				location.Author = attr.Author
				location.CommitHash = attr.CommitHash
				ts := attr.Timestamp
				location.Timestamp = &ts
			}
		}
		if err := p.store.PutLocation(ctx, location); err != nil {
			summary.Errors++
			continue
		}
		summary.LocationsWritten++
	}

	if len(edges) > 0 {
		if err := p.store.AddEdges(ctx, edges); err != nil {
			slog.Warn("edge batch failed",
				slog.String("file", file.RelPath),
				slog.String("error", err.Error()))
			summary.Errors++
		}
	}
}
