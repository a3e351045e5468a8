// Package app wires the driven adapters into the core services.
//
// Every driving adapter (CLI, HTTP API, MCP, TUI) shares one App, so the
// indexer and the retriever always use the same embedding service and the
// same vector store.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/owngpt/internal/adapters/driven/ai"
	"github.com/custodia-labs/owngpt/internal/adapters/driven/config/file"
	"github.com/custodia-labs/owngpt/internal/adapters/driven/fetcher/web"
	"github.com/custodia-labs/owngpt/internal/adapters/driven/search"
	"github.com/custodia-labs/owngpt/internal/adapters/driven/storage"
	"github.com/custodia-labs/owngpt/internal/core/domain"
	"github.com/custodia-labs/owngpt/internal/core/ports/driven"
	"github.com/custodia-labs/owngpt/internal/core/services"
	"github.com/custodia-labs/owngpt/internal/logger"
	"github.com/custodia-labs/owngpt/internal/normalisers/html"
	"github.com/custodia-labs/owngpt/internal/postprocessors/chunker"
)

// Options tunes Build.
type Options struct {
	// PromptDir overrides ~/.owngpt/prompts.
	PromptDir string

	// SkipPing skips the start-up connectivity checks.
	SkipPing bool

	// Search replaces the configured search provider.
	Search driven.SearchProvider
}

// App is a fully wired pipeline.
type App struct {
	Settings domain.AppSettings
	Pipeline *services.Orchestrator
	History  *services.HistoryService
	Prompts  *file.PromptStore
	Warnings []string

	ai      *ai.InitResult
	stores  *storage.Stores
	fetcher *web.Fetcher
}

// Build validates settings and constructs every component.
// Setup failures (bad config, unopenable store, unreachable embedding
// service) are returned; everything else degrades at run time.
func Build(ctx context.Context, settings domain.AppSettings, opts Options) (*App, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	chunks, err := chunker.NewFromSettings(settings.Chunk)
	if err != nil {
		return nil, err
	}

	provider := opts.Search
	if provider == nil {
		provider, err = search.NewProvider(ctx, settings.Search)
		if err != nil {
			return nil, err
		}
	}

	stores, err := storage.Open(settings.Store)
	if err != nil {
		return nil, err
	}

	aiResult, err := ai.Init(settings, ai.Options{
		PromptDir: opts.PromptDir,
		Prompts:   services.DefaultPrompts(),
		SkipPing:  opts.SkipPing,
	})
	if err != nil {
		stores.Close()
		return nil, err
	}
	for _, w := range aiResult.Warnings {
		logger.Warn("%s", w)
	}

	fetcher := web.NewFetcherFromSettings(settings.Fetch)

	// One embedding service for both sides of the store.
	embedder := aiResult.EmbeddingService
	pipeline := services.NewOrchestrator(services.Deps{
		Search:    provider,
		Fetcher:   fetcher,
		Extractor: html.New(),
		Chunker:   chunks,
		Indexer:   services.NewIndexer(embedder, stores.Vectors),
		Retriever: services.NewRetriever(embedder, stores.Vectors),
		Generator: services.NewGenerator(aiResult.LLMService, aiResult.PromptStore),
		Runs:      stores.Runs,
		Config:    services.NewPipelineConfig(settings),
	})

	logger.Debug("Search: %s, store: %s, embedding: %s, llm: %s",
		provider.Name(), settings.Store.Backend, embedder.ModelName(), settings.LLM.Model)

	return &App{
		Settings: settings,
		Pipeline: pipeline,
		History:  services.NewHistoryService(stores.Runs),
		Prompts:  aiResult.PromptStore,
		Warnings: aiResult.Warnings,
		ai:       aiResult,
		stores:   stores,
		fetcher:  fetcher,
	}, nil
}

// WatchPrompts reloads prompt templates when their files change.
// It blocks until ctx is cancelled.
func (a *App) WatchPrompts(ctx context.Context) error {
	return a.Prompts.Watch(ctx, func(name string) {
		logger.Info("Reloaded prompt %s", name)
	})
}

// Close releases every adapter.
func (a *App) Close() error {
	var errs []error
	if a.fetcher != nil {
		errs = append(errs, a.fetcher.Close())
	}
	if a.ai != nil {
		errs = append(errs, a.ai.Close())
	}
	if a.stores != nil {
		errs = append(errs, a.stores.Close())
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("closing app: %w", err)
	}
	return nil
}
