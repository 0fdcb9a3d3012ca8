package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/membot/internal/core"
	"github.com/sandevgo/membot/internal/index/memory"
	"github.com/sandevgo/membot/internal/rag"
)

type fakeSource struct {
	items []core.Message
	err   error
	calls int
}

func (f *fakeSource) Fetch(ctx context.Context) ([]core.Message, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = []float32{float32(len(t)), 1, 0}
	}
	return vectors, nil
}

func hikingMessage() core.Message {
	return core.Message{
		ID:        1,
		UserID:    "u1",
		UserName:  "Alice",
		Timestamp: "2024-01-01T10:00:00+00:00",
		Text:      "I went hiking yesterday.",
	}
}

func newTestSyncer(src core.MessageSource, idx core.VectorIndex) (*Syncer, *Directory) {
	dir := NewDirectory()
	s := NewSyncer(src, &fakeEmbedder{}, idx, dir, rag.DefaultChunkerConfig(), time.Hour)
	return s, dir
}

func TestBootstrap_IngestsSnapshot(t *testing.T) {
	idx := memory.New()
	src := &fakeSource{items: []core.Message{hikingMessage()}}
	s, dir := newTestSyncer(src, idx)

	require.NoError(t, s.Bootstrap(context.Background()))

	id, ok := dir.UserID("alice")
	require.True(t, ok, "directory should contain alice")
	assert.Equal(t, "u1", id)
	assert.True(t, dir.IsKnown("2024-01-01T10:00:00+00:00"))
	assert.Equal(t, 1, idx.Len(), "short message yields exactly one chunk")

	hits, err := idx.Search(context.Background(), []float32{24, 1, 0}, 4, "u1")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "I went hiking yesterday.", hits[0].Text)
	assert.Equal(t, core.ChunkMeta{
		UserID:    "u1",
		UserName:  "Alice",
		Timestamp: "2024-01-01T10:00:00+00:00",
		MessageID: 1,
	}, hits[0].Meta)
}

func TestRunPass_SecondPassIsIdempotent(t *testing.T) {
	idx := memory.New()
	src := &fakeSource{items: []core.Message{
		hikingMessage(),
		{ID: 2, UserID: "u2", UserName: "Bob", Timestamp: "2024-01-02T09:00:00+00:00", Text: "Bought a new bike."},
	}}
	s, dir := newTestSyncer(src, idx)

	added, err := s.runPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	usersBefore, knownBefore := dir.Counts()

	added, err = s.runPass(context.Background())
	require.NoError(t, err)
	assert.Zero(t, added, "unchanged snapshot must add no chunks")
	assert.Equal(t, 2, idx.Len())

	usersAfter, knownAfter := dir.Counts()
	assert.Equal(t, usersBefore, usersAfter)
	assert.Equal(t, knownBefore, knownAfter)
}

func TestRunPass_PicksUpOnlyNewMessages(t *testing.T) {
	idx := memory.New()
	src := &fakeSource{items: []core.Message{hikingMessage()}}
	s, dir := newTestSyncer(src, idx)

	_, err := s.runPass(context.Background())
	require.NoError(t, err)

	src.items = append(src.items, core.Message{
		ID: 7, UserID: "u1", UserName: "alice", Timestamp: "2024-02-01T08:00:00+00:00", Text: "Ran a marathon.",
	})

	added, err := s.runPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	// Last write wins on display casing; the id is unchanged.
	id, ok := dir.UserID("alice")
	require.True(t, ok)
	assert.Equal(t, "u1", id)
	_, known := dir.Counts()
	assert.Equal(t, 2, known)
}

func TestRunPass_FetchFailureDegradesToEmpty(t *testing.T) {
	idx := memory.New()
	src := &fakeSource{err: errors.New("feed down")}
	s, dir := newTestSyncer(src, idx)

	added, err := s.runPass(context.Background())
	assert.Error(t, err)
	assert.Zero(t, added)

	users, known := dir.Counts()
	assert.Zero(t, users)
	assert.Zero(t, known)

	// Bootstrap swallows the failure so startup proceeds.
	require.NoError(t, s.Bootstrap(context.Background()))
}

func TestRunPass_EmbedFailureSkipsMessageForRetry(t *testing.T) {
	idx := memory.New()
	src := &fakeSource{items: []core.Message{hikingMessage()}}
	dir := NewDirectory()
	emb := &fakeEmbedder{err: errors.New("provider down")}
	s := NewSyncer(src, emb, idx, dir, rag.DefaultChunkerConfig(), time.Hour)

	added, err := s.runPass(context.Background())
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.False(t, dir.IsKnown(hikingMessage().Timestamp),
		"failed message must stay unknown so the next pass retries it")

	emb.err = nil
	added, err = s.runPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, added)
}

func TestStart_StopsOnCancel(t *testing.T) {
	idx := memory.New()
	src := &fakeSource{}
	dir := NewDirectory()
	s := NewSyncer(src, &fakeEmbedder{}, idx, dir, rag.DefaultChunkerConfig(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("refresh loop did not stop on cancellation")
	}
	assert.GreaterOrEqual(t, src.calls, 1)
}
