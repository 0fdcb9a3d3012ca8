// Package qdrant is a minimal REST client for a Qdrant collection used
// as the chunk vector index. The collection is created on first use with
// cosine distance; every search carries a mandatory user_id payload
// filter so no ranking can surface another member's chunks.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sandevgo/membot/internal/core"
)

type Index struct {
	client     *http.Client
	url        string
	apiKey     string
	collection string
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func New(cfg Config) *Index {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Index{
		client:     &http.Client{Timeout: timeout},
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
	}
}

// Init creates the collection if it does not exist. Qdrant answers 200
// for an existing collection with the same schema.
func (x *Index) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return x.send(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", x.collection), body, nil)
}

func (x *Index) Add(ctx context.Context, chunks []core.IndexedChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	points := make([]map[string]any, len(chunks))
	for i, c := range chunks {
		points[i] = map[string]any{
			"id":     uuid.NewString(),
			"vector": c.Vector,
			"payload": map[string]any{
				"text":       c.Text,
				"user_id":    c.Meta.UserID,
				"user_name":  c.Meta.UserName,
				"timestamp":  c.Meta.Timestamp,
				"message_id": c.Meta.MessageID,
			},
		}
	}
	body := map[string]any{"points": points}
	path := fmt.Sprintf("/collections/%s/points?wait=true", x.collection)
	if err := x.send(ctx, http.MethodPut, path, body, nil); err != nil {
		return fmt.Errorf("upsert points: %w", err)
	}
	return nil
}

func (x *Index) Search(ctx context.Context, vector []float32, k int, userID string) ([]core.ScoredChunk, error) {
	if k <= 0 {
		k = 4
	}
	body := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "user_id", "match": map[string]any{"value": userID}},
			},
		},
	}

	var out struct {
		Result []struct {
			Score   float32 `json:"score"`
			Payload struct {
				Text      string `json:"text"`
				UserID    string `json:"user_id"`
				UserName  string `json:"user_name"`
				Timestamp string `json:"timestamp"`
				MessageID int64  `json:"message_id"`
			} `json:"payload"`
		} `json:"result"`
	}

	path := fmt.Sprintf("/collections/%s/points/search", x.collection)
	if err := x.send(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, fmt.Errorf("search points: %w", err)
	}

	hits := make([]core.ScoredChunk, 0, len(out.Result))
	for _, r := range out.Result {
		hits = append(hits, core.ScoredChunk{
			Text:  r.Payload.Text,
			Score: r.Score,
			Meta: core.ChunkMeta{
				UserID:    r.Payload.UserID,
				UserName:  r.Payload.UserName,
				Timestamp: r.Payload.Timestamp,
				MessageID: r.Payload.MessageID,
			},
		})
	}
	return hits, nil
}

func (x *Index) send(ctx context.Context, method, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, x.url+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}

	resp, err := x.client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s: http %d: %s", method, path, resp.StatusCode, string(raw))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode: %w", err)
		}
	}
	return nil
}
