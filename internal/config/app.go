package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/membot/pkg/log"
)

type AppConfig struct {
	Port int `env:"PORT" envDefault:"8080"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse app config")
	}
	return c
}
