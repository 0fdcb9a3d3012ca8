package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sandevgo/membot/internal/core"
	"github.com/sandevgo/membot/pkg/retry"
)

const defaultBaseURL = "https://api.openai.com"

// OpenAI talks to an OpenAI-compatible API and serves both ports of the
// model provider: chat completions and embeddings. Transient transport
// failures are retried once; a second failure is returned to the caller.
type OpenAI struct {
	baseProvider
	chatModel  string
	embedModel string
	retrier    *retry.Retrier
}

type Config struct {
	BaseURL    string
	APIKey     string
	ChatModel  string
	EmbedModel string
	Timeout    time.Duration
}

func NewOpenAI(cfg Config) *OpenAI {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &OpenAI{
		baseProvider: newBaseProvider(baseURL, cfg.APIKey, cfg.Timeout),
		chatModel:    cfg.ChatModel,
		embedModel:   cfg.EmbedModel,
		retrier:      retry.NewRetrier(retry.NewOnceConfig()),
	}
}

func (o *OpenAI) Chat(ctx context.Context, history []core.ChatMessage) (core.ChatMessage, error) {
	payload := map[string]any{
		"model":    o.chatModel,
		"messages": history,
	}

	var result struct {
		Choices []struct {
			Message core.ChatMessage `json:"message"`
		} `json:"choices"`
	}

	err := o.retrier.Do(ctx, func() error {
		resp, err := o.doRequest(ctx, http.MethodPost, "/v1/chat/completions", payload)
		if err != nil {
			return err
		}
		return decodeResponse(resp, &result)
	})
	if err != nil {
		return core.ChatMessage{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(result.Choices) == 0 {
		return core.ChatMessage{}, fmt.Errorf("chat completion: empty choices")
	}
	return result.Choices[0].Message, nil
}

func (o *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	payload := map[string]any{
		"model": o.embedModel,
		"input": texts,
	}

	var result struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}

	err := o.retrier.Do(ctx, func() error {
		resp, err := o.doRequest(ctx, http.MethodPost, "/v1/embeddings", payload)
		if err != nil {
			return err
		}
		return decodeResponse(resp, &result)
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}
	if len(result.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings: got %d vectors for %d inputs", len(result.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range result.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("embeddings: index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}
