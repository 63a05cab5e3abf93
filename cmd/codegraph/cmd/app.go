package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Aman-CERP/codegraph/internal/config"
	"github.com/Aman-CERP/codegraph/internal/embed"
	"github.com/Aman-CERP/codegraph/internal/search"
	"github.com/Aman-CERP/codegraph/internal/service"
	"github.com/Aman-CERP/codegraph/internal/store"
)

// app bundles the wired engine for a command invocation.
type app struct {
	cfg      *config.Config
	store    *store.Store
	embedder embed.Embedder
	svc      service.Service
}

// openApp loads configuration and wires store, embedder, and service
// for the project root.
func openApp() (*app, error) {
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	var storeOpts []store.Option
	if cfg.Search.FTSBackend == "bleve" {
		fts, err := store.NewBleveFTS(filepath.Join(config.DataDir(root), "fts.bleve"))
		if err != nil {
			return nil, err
		}
		storeOpts = append(storeOpts, store.WithFTSIndex(fts))
	}

	st, err := store.New(config.DatabasePath(root), storeOpts...)
	if err != nil {
		return nil, err
	}

	embedder, err := embed.NewEmbedder(embed.FactoryConfig{
		Provider:   cfg.Embeddings.Provider,
		Model:      cfg.Embeddings.Model,
		OllamaHost: cfg.Embeddings.OllamaHost,
		BatchSize:  cfg.Embeddings.BatchSize,
		Timeout:    cfg.Embeddings.Timeout,
		CacheSize:  cfg.Embeddings.CacheSize,
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	var searchOpts []search.Option
	if cfg.Search.VectorBackend == "hnsw" {
		if dims := embedder.Dimensions(); dims > 0 {
			ann := store.NewHNSWIndex(dims)
			if err := ann.BuildFromStore(context.Background(), st); err != nil {
				_ = st.Close()
				return nil, fmt.Errorf("build hnsw index: %w", err)
			}
			searchOpts = append(searchOpts, search.WithANN(ann))
		}
	}

	svc := service.New(st, embedder, service.Config{
		RRFConstant:   cfg.Search.RRFConstant,
		MaxResults:    cfg.Search.MaxResults,
		CommonSymbols: cfg.Graph.CommonSymbols,
		IndexExclude:  cfg.Paths.Exclude,
		IndexLockPath: config.LockPath(root),
	}, searchOpts...)

	return &app{cfg: cfg, store: st, embedder: embedder, svc: svc}, nil
}

// Close releases the app's resources.
func (a *app) Close() {
	_ = a.embedder.Close()
	_ = a.store.Close()
}
