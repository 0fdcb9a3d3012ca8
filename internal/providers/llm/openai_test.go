package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/membot/internal/core"
)

func newTestProvider(serverURL string) *OpenAI {
	return NewOpenAI(Config{
		BaseURL:    serverURL,
		APIKey:     "test-key",
		ChatModel:  "gpt-4o-mini",
		EmbedModel: "text-embedding-3-small",
	})
}

func TestOpenAI_Chat(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, `{"choices": [{"message": {"role": "assistant", "content": "hello there"}}]}`)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	reply, err := provider.Chat(context.Background(), []core.ChatMessage{
		{Role: core.RoleUser, Content: "hi"},
	})
	require.NoError(t, err)

	assert.Equal(t, "hello there", reply.Content)
	assert.Equal(t, core.RoleAssistant, reply.Role)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotBody["model"])
}

func TestOpenAI_ChatEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices": []}`)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	_, err := provider.Chat(context.Background(), []core.ChatMessage{{Role: core.RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty choices")
}

func TestOpenAI_ChatRetriesOnceThenReports(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	_, err := provider.Chat(context.Background(), []core.ChatMessage{{Role: core.RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 503")
	assert.Equal(t, 2, calls)
}

func TestOpenAI_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/embeddings", r.URL.Path)

		var body struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "text-embedding-3-small", body.Model)

		// Return out of order to exercise index-based placement.
		fmt.Fprintf(w, `{"data": [
			{"index": 1, "embedding": [0.4, 0.5]},
			{"index": 0, "embedding": [0.1, 0.2]}
		]}`)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	vectors, err := provider.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1, 0.2}, vectors[0])
	assert.Equal(t, []float32{0.4, 0.5}, vectors[1])
}

func TestOpenAI_EmbedCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": [{"index": 0, "embedding": [0.1]}]}`)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	_, err := provider.Embed(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 1 vectors for 2 inputs")
}

func TestOpenAI_EmbedEmptyInput(t *testing.T) {
	provider := newTestProvider("http://unused.invalid")
	vectors, err := provider.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}
