package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/membot/pkg/log"
)

type SyncConfig struct {
	SourceURL       string `env:"MEMBOT_SOURCE_URL,required"`
	FetchLimit      int    `env:"MEMBOT_FETCH_LIMIT" envDefault:"5000"`
	FetchTimeoutSec int    `env:"MEMBOT_FETCH_TIMEOUT_SEC" envDefault:"30"`
	IntervalSec     int    `env:"MEMBOT_REFRESH_INTERVAL_SEC" envDefault:"3600"`
	ChunkSize       int    `env:"MEMBOT_CHUNK_SIZE" envDefault:"500"`
	ChunkOverlap    int    `env:"MEMBOT_CHUNK_OVERLAP" envDefault:"50"`
}

func NewSyncConfig(ctx context.Context) *SyncConfig {
	c := &SyncConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse sync config")
	}
	return c
}
