package qdrant

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

func TestIndex_AddUpsertsPointsWithPayload(t *testing.T) {
	var gotPath string
	var gotBody struct {
		Points []struct {
			ID      string         `json:"id"`
			Vector  []float32      `json:"vector"`
			Payload map[string]any `json:"payload"`
		} `json:"points"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		require.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, `{"status": "ok"}`)
	}))
	defer server.Close()

	idx := New(Config{URL: server.URL, Collection: "member_messages"})
	err := idx.Add(context.Background(), []core.IndexedChunk{{
		Text:   "I went hiking yesterday.",
		Vector: []float32{0.1, 0.2},
		Meta: core.ChunkMeta{
			UserID:    "u1",
			UserName:  "Alice",
			Timestamp: "2024-01-01T10:00:00+00:00",
			MessageID: 1,
		},
	}})
	require.NoError(t, err)

	assert.Equal(t, "/collections/member_messages/points?wait=true", gotPath)
	require.Len(t, gotBody.Points, 1)
	p := gotBody.Points[0]
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, []float32{0.1, 0.2}, p.Vector)
	assert.Equal(t, "u1", p.Payload["user_id"])
	assert.Equal(t, "I went hiking yesterday.", p.Payload["text"])
}

func TestIndex_SearchCarriesMandatoryUserFilter(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/member_messages/points/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, `{"result": [
			{"score": 0.91, "payload": {
				"text": "I went hiking yesterday.", "user_id": "u1",
				"user_name": "Alice", "timestamp": "2024-01-01T10:00:00+00:00",
				"message_id": 1
			}}
		]}`)
	}))
	defer server.Close()

	idx := New(Config{URL: server.URL, Collection: "member_messages"})
	hits, err := idx.Search(context.Background(), []float32{0.1, 0.2}, 4, "u1")
	require.NoError(t, err)

	raw, err := json.Marshal(gotBody["filter"])
	require.NoError(t, err)
	assert.JSONEq(t, `{"must": [{"key": "user_id", "match": {"value": "u1"}}]}`, string(raw))
	assert.EqualValues(t, 4, gotBody["limit"])

	require.Len(t, hits, 1)
	assert.Equal(t, "I went hiking yesterday.", hits[0].Text)
	assert.Equal(t, "u1", hits[0].Meta.UserID)
	assert.Equal(t, int64(1), hits[0].Meta.MessageID)
	assert.InDelta(t, 0.91, hits[0].Score, 1e-6)
}

func TestIndex_ErrorStatusSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status": {"error": "collection not found"}}`, http.StatusNotFound)
	}))
	defer server.Close()

	idx := New(Config{URL: server.URL, Collection: "missing"})
	_, err := idx.Search(context.Background(), []float32{0.1}, 4, "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 404")
}

func TestIndex_AddEmptyIsNoop(t *testing.T) {
	idx := New(Config{URL: "http://unused.invalid", Collection: "x"})
	require.NoError(t, idx.Add(context.Background(), nil))
}
