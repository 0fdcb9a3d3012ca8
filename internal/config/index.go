package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/membot/pkg/log"
)

const (
	BackendSQLite = "sqlite"
	BackendQdrant = "qdrant"
	BackendMemory = "memory"
)

type IndexConfig struct {
	Backend string `env:"MEMBOT_INDEX_BACKEND" envDefault:"sqlite"`

	// sqlite backend
	DatabasePath string `env:"MEMBOT_DB_PATH" envDefault:".membot/membot.db"`

	// qdrant backend
	QdrantURL        string `env:"MEMBOT_QDRANT_URL" envDefault:"http://localhost:6333"`
	QdrantAPIKey     string `env:"MEMBOT_QDRANT_API_KEY"`
	QdrantCollection string `env:"MEMBOT_QDRANT_COLLECTION" envDefault:"member_messages"`
	QdrantDimension  int    `env:"MEMBOT_QDRANT_DIMENSION" envDefault:"1536"`

	// retrieval
	TopK               int `env:"MEMBOT_TOP_K" envDefault:"4"`
	ContextTokenBudget int `env:"MEMBOT_CONTEXT_TOKEN_BUDGET" envDefault:"3000"`
}

func NewIndexConfig(ctx context.Context) *IndexConfig {
	c := &IndexConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse index config")
	}
	return c
}
