// Package source implements the client for the remote member message
// feed. The feed has no incremental protocol: every fetch pulls the full
// snapshot and the sync engine deduplicates against what it already knows.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sandevgo/membot/internal/core"
	"github.com/sandevgo/membot/pkg/retry"
)

type Client struct {
	client   *http.Client
	endpoint string
	limit    int
	retrier  *retry.Retrier
}

type Config struct {
	Endpoint string
	Limit    int
	Timeout  time.Duration
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		client:   &http.Client{Timeout: timeout},
		endpoint: cfg.Endpoint,
		limit:    cfg.Limit,
		retrier:  retry.NewRetrier(retry.NewOnceConfig()),
	}
}

// Fetch pulls the full message snapshot. Non-2xx statuses and malformed
// bodies are errors; the caller decides how to degrade.
func (c *Client) Fetch(ctx context.Context) ([]core.Message, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("skip", "0")
	q.Set("limit", strconv.Itoa(c.limit))
	u.RawQuery = q.Encode()

	var snapshot struct {
		Total int            `json:"total"`
		Items []core.Message `json:"items"`
	}

	err = c.retrier.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("request: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
		}

		snapshot.Items = nil
		if err := json.Unmarshal(data, &snapshot); err != nil {
			return fmt.Errorf("decode snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	return snapshot.Items, nil
}
