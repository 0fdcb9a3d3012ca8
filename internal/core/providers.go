package core

import "context"

// ChatModel produces one completion for a chat history.
type ChatModel interface {
	Chat(ctx context.Context, history []ChatMessage) (ChatMessage, error)
}

// Embedder converts a batch of texts into embedding vectors, one per input,
// in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex stores chunk embeddings and serves filtered similarity search.
//
// Add is append-only: entries are never updated or deleted. Search must
// restrict results to entries whose user id equals userID exactly; the
// filter is mandatory and no ranking may leak another user's chunks.
type VectorIndex interface {
	Add(ctx context.Context, chunks []IndexedChunk) error
	Search(ctx context.Context, vector []float32, k int, userID string) ([]ScoredChunk, error)
}

// MessageSource fetches the full remote message snapshot. There is no
// incremental protocol; every call returns the whole corpus.
type MessageSource interface {
	Fetch(ctx context.Context) ([]Message, error)
}
