package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/membot/pkg/log"
)

type OpenAIConfig struct {
	APIKey     string `env:"OPENAI_API_KEY,required"`
	BaseURL    string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com"`
	ChatModel  string `env:"MEMBOT_CHAT_MODEL" envDefault:"gpt-4o-mini"`
	EmbedModel string `env:"MEMBOT_EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	TimeoutSec int    `env:"MEMBOT_MODEL_TIMEOUT_SEC" envDefault:"60"`
}

func NewOpenAIConfig(ctx context.Context) *OpenAIConfig {
	c := &OpenAIConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse OpenAI config")
	}
	return c
}
