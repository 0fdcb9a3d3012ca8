// Package sync keeps the vector index fresh against the remote member
// feed. Bootstrap ingests the full corpus once at startup; the periodic
// refresh re-fetches the snapshot and ingests whatever is not yet known.
package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/membot/internal/core"
	"github.com/sandevgo/membot/internal/rag"
	"github.com/sandevgo/membot/pkg/log"
)

type Syncer struct {
	source   core.MessageSource
	embedder core.Embedder
	index    core.VectorIndex
	dir      *Directory
	chunkCfg rag.ChunkerConfig
	interval time.Duration
}

func NewSyncer(
	source core.MessageSource,
	embedder core.Embedder,
	index core.VectorIndex,
	dir *Directory,
	chunkCfg rag.ChunkerConfig,
	interval time.Duration,
) *Syncer {
	return &Syncer{
		source:   source,
		embedder: embedder,
		index:    index,
		dir:      dir,
		chunkCfg: chunkCfg,
		interval: interval,
	}
}

// Bootstrap runs the first ingestion pass. Called before the HTTP
// transport starts so the first requests see a populated directory.
// A fetch failure degrades to an empty corpus; the refresh loop will
// pick the messages up on its next cycle.
func (s *Syncer) Bootstrap(ctx context.Context) error {
	logger := log.FromCtx(ctx)

	added, err := s.runPass(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("bootstrap fetch failed, starting with empty index")
		return nil
	}
	logger.Info().Int("chunks", added).Msg("bootstrapped vector index")
	return nil
}

// Start runs the refresh loop until ctx is cancelled. Cycles never
// overlap: each tick waits for the previous pass to finish.
func (s *Syncer) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Dur("interval", s.interval).Msg("starting corpus refresh loop")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			added, err := s.runPass(ctx)
			switch {
			case err != nil:
				logger.Error().Err(err).Msg("refresh pass failed")
			case added == 0:
				logger.Debug().Msg("no new messages found")
			default:
				logger.Info().Int("chunks", added).Msg("refreshed vector index")
			}
		}
	}
}

func (s *Syncer) Shutdown(ctx context.Context) error {
	return nil
}

// runPass fetches the full snapshot and ingests every message whose
// timestamp is not yet known. Returns the number of chunks written.
func (s *Syncer) runPass(ctx context.Context) (int, error) {
	items, err := s.source.Fetch(ctx)
	if err != nil {
		return 0, err
	}

	logger := log.FromCtx(ctx)
	added := 0
	for _, m := range items {
		if s.dir.IsKnown(m.Timestamp) {
			continue
		}
		n, err := s.ingest(ctx, m)
		if err != nil {
			// Skip, keep the rest of the pass going. The message is not
			// marked known, so the next cycle retries it.
			logger.Error().Err(err).Int64("message_id", m.ID).Msg("failed to ingest message")
			continue
		}
		added += n
	}
	return added, nil
}

// ingest commits one message: chunk, embed, write, then mark known and
// update the directory. The timestamp is only marked known after all
// chunks are durably written; a crash in between re-ingests the whole
// message next pass, which can duplicate chunks. Accepted risk.
func (s *Syncer) ingest(ctx context.Context, m core.Message) (int, error) {
	chunks := rag.ChunkText(m.Text, s.chunkCfg)
	if len(chunks) == 0 {
		s.dir.SetUser(strings.ToLower(m.UserName), m.UserID)
		s.dir.MarkKnown(m.Timestamp)
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed message %d: %w", m.ID, err)
	}
	if len(vectors) != len(texts) {
		return 0, fmt.Errorf("embed message %d: got %d vectors for %d chunks", m.ID, len(vectors), len(texts))
	}

	indexed := make([]core.IndexedChunk, len(chunks))
	for i, c := range chunks {
		indexed[i] = core.IndexedChunk{
			Text:   c.Text,
			Vector: vectors[i],
			Meta: core.ChunkMeta{
				UserID:    m.UserID,
				UserName:  m.UserName,
				Timestamp: m.Timestamp,
				MessageID: m.ID,
			},
		}
	}

	if err := s.index.Add(ctx, indexed); err != nil {
		return 0, fmt.Errorf("index message %d: %w", m.ID, err)
	}

	s.dir.SetUser(strings.ToLower(m.UserName), m.UserID)
	s.dir.MarkKnown(m.Timestamp)
	return len(indexed), nil
}
