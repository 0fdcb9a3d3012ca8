package core

// Message is a single entry of the remote member feed. The feed owns it;
// membot never mutates or writes messages back.
type Message struct {
	ID        int64  `json:"id"`
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	Timestamp string `json:"timestamp"`
	Text      string `json:"message"`
}

// ChunkMeta is the metadata attached to every indexed chunk. UserID is the
// immutable join key; UserName is a display name and may drift over time.
type ChunkMeta struct {
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	Timestamp string `json:"timestamp"`
	MessageID int64  `json:"message_id"`
}

// IndexedChunk is one vector index entry on the write path.
type IndexedChunk struct {
	Text   string
	Meta   ChunkMeta
	Vector []float32
}

// ScoredChunk is one search hit. Higher score means more similar.
type ScoredChunk struct {
	Text  string
	Meta  ChunkMeta
	Score float32
}

// ChatMessage is a single turn of a chat-completion exchange.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
