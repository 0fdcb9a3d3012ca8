package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/sandevgo/membot/internal/config"
	"github.com/sandevgo/membot/internal/core"
	"github.com/sandevgo/membot/internal/index/memory"
	"github.com/sandevgo/membot/internal/index/qdrant"
	sqliteindex "github.com/sandevgo/membot/internal/index/sqlite"
	"github.com/sandevgo/membot/internal/providers/llm"
	"github.com/sandevgo/membot/internal/providers/source"
	"github.com/sandevgo/membot/internal/rag"
	"github.com/sandevgo/membot/internal/service/answer"
	"github.com/sandevgo/membot/internal/service/sync"
	"github.com/sandevgo/membot/internal/transport/httpapi"
	"github.com/sandevgo/membot/pkg/log"
	"github.com/sandevgo/membot/pkg/srv"
)

// NewServices wires the process: config, index backend, model provider,
// sync engine and HTTP transport. Bootstrap runs here, before any
// service starts, so the first request sees a populated directory and
// the refresh loop never overlaps the initial load.
func NewServices(ctx context.Context) ([]srv.Service, error) {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	initEnv(ctx)

	appCfg := config.NewAppConfig(ctx)
	openaiCfg := config.NewOpenAIConfig(ctx)
	syncCfg := config.NewSyncConfig(ctx)
	indexCfg := config.NewIndexConfig(ctx)

	provider := llm.NewOpenAI(llm.Config{
		BaseURL:    openaiCfg.BaseURL,
		APIKey:     openaiCfg.APIKey,
		ChatModel:  openaiCfg.ChatModel,
		EmbedModel: openaiCfg.EmbedModel,
		Timeout:    time.Duration(openaiCfg.TimeoutSec) * time.Second,
	})

	index, cleanup, err := initIndex(ctx, indexCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}
	if cleanup != nil {
		services = append(services, srv.NewCleanup(cleanup))
	}

	feed := source.NewClient(source.Config{
		Endpoint: syncCfg.SourceURL,
		Limit:    syncCfg.FetchLimit,
		Timeout:  time.Duration(syncCfg.FetchTimeoutSec) * time.Second,
	})

	dir := sync.NewDirectory()
	syncer := sync.NewSyncer(feed, provider, index, dir,
		rag.ChunkerConfig{
			MaxRunes:     syncCfg.ChunkSize,
			OverlapRunes: syncCfg.ChunkOverlap,
		},
		time.Duration(syncCfg.IntervalSec)*time.Second,
	)
	if err := syncer.Bootstrap(ctx); err != nil {
		return nil, fmt.Errorf("bootstrap failed: %w", err)
	}
	services = append(services, syncer)

	api := httpapi.NewServer(
		answer.NewResolver(provider),
		answer.NewComposer(provider, provider, index, indexCfg.TopK, indexCfg.ContextTokenBudget),
		dir,
		indexCfg.Backend,
		appCfg.Port,
	)
	services = append(services, api)

	logger.Info().Str("backend", indexCfg.Backend).Msg("services wired")
	return services, nil
}

func initIndex(ctx context.Context, cfg *config.IndexConfig) (core.VectorIndex, func() error, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		db, err := sqliteindex.NewDB(ctx, cfg.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		return sqliteindex.NewIndex(db), db.Close, nil

	case config.BackendQdrant:
		idx := qdrant.New(qdrant.Config{
			URL:        cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.QdrantCollection,
		})
		if err := idx.Init(ctx, cfg.QdrantDimension); err != nil {
			return nil, nil, err
		}
		return idx, nil, nil

	case config.BackendMemory:
		return memory.New(), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown index backend %q", cfg.Backend)
	}
}

func initEnv(ctx context.Context) {
	logger := log.FromCtx(ctx)

	if _, err := os.Stat(".env"); err != nil {
		return
	}
	if err := godotenv.Load(".env"); err != nil {
		logger.Warn().Err(err).Msg("failed to load .env file")
		return
	}
	logger.Debug().Msg("loaded .env file")
}
