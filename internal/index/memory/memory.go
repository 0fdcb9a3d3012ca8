// Package memory is a brute-force in-process vector index. It backs the
// tests and local development runs; nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/sandevgo/membot/internal/core"
	"github.com/sandevgo/membot/internal/index"
)

type Index struct {
	mu     sync.RWMutex
	chunks []core.IndexedChunk
}

func New() *Index {
	return &Index{}
}

func (x *Index) Add(ctx context.Context, chunks []core.IndexedChunk) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.chunks = append(x.chunks, chunks...)
	return nil
}

func (x *Index) Search(ctx context.Context, vector []float32, k int, userID string) ([]core.ScoredChunk, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var hits []core.ScoredChunk
	for _, c := range x.chunks {
		if c.Meta.UserID != userID {
			continue
		}
		hits = append(hits, core.ScoredChunk{
			Text:  c.Text,
			Meta:  c.Meta,
			Score: index.Cosine(vector, c.Vector),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Len reports the number of stored chunks.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.chunks)
}

