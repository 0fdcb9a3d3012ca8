package answer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/membot/internal/core"
	"github.com/sandevgo/membot/pkg/log"
)

const (
	dateLayout         = "January 02, 2006"
	unknownDate        = "unknown date"
	defaultTopK        = 4
	defaultTokenBudget = 3000
)

const composerPrompt = `You are answering a question about %s's messages.
Each message includes the date it was sent.

Context:
%s

Question:
%s

Answer clearly and concisely, using only the context above. When mentioning dates, use the format shown in the context.`

// Composer turns a resolved member plus a question into a grounded
// answer: filtered retrieval, dated context block, one generation call.
type Composer struct {
	llm      core.ChatModel
	embedder core.Embedder
	index    core.VectorIndex

	topK        int
	tokenBudget int
}

func NewComposer(llm core.ChatModel, embedder core.Embedder, index core.VectorIndex, topK, tokenBudget int) *Composer {
	if topK <= 0 {
		topK = defaultTopK
	}
	if tokenBudget <= 0 {
		tokenBudget = defaultTokenBudget
	}
	return &Composer{
		llm:         llm,
		embedder:    embedder,
		index:       index,
		topK:        topK,
		tokenBudget: tokenBudget,
	}
}

// Answer retrieves the member's most relevant chunks and asks the model
// for an answer grounded in them. A member with no indexed chunks gets
// the literal no-messages answer, which is a valid terminal result, not
// an error.
func (c *Composer) Answer(ctx context.Context, question, userID, userName string) (string, error) {
	vectors, err := c.embedder.Embed(ctx, []string{question})
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}
	if len(vectors) != 1 {
		return "", fmt.Errorf("embed question: got %d vectors", len(vectors))
	}

	hits, err := c.index.Search(ctx, vectors[0], c.topK, userID)
	if err != nil {
		return "", fmt.Errorf("search index: %w", err)
	}
	if len(hits) == 0 {
		return fmt.Sprintf("No messages found for %s.", userName), nil
	}

	contextBlock := c.buildContext(ctx, hits)
	prompt := fmt.Sprintf(composerPrompt, userName, contextBlock, question)

	reply, err := c.llm.Chat(ctx, []core.ChatMessage{
		{Role: core.RoleUser, Content: prompt},
	})
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return strings.TrimSpace(reply.Content), nil
}

// buildContext formats hits as a numbered, dated block in retrieval-rank
// order, dropping trailing hits once the token budget is spent.
func (c *Composer) buildContext(ctx context.Context, hits []core.ScoredChunk) string {
	logger := log.FromCtx(ctx)

	var parts []string
	spent := 0
	for i, hit := range hits {
		part := fmt.Sprintf("Message %d (Date: %s):\n%s", i+1, formatDate(hit.Meta.Timestamp), hit.Text)

		cost := countTokens(part)
		if spent > 0 && spent+cost > c.tokenBudget {
			logger.Debug().Int("kept", i).Int("dropped", len(hits)-i).Msg("context token budget reached")
			break
		}
		parts = append(parts, part)
		spent += cost
	}
	return strings.Join(parts, "\n\n")
}

// formatDate renders a stored ISO-8601 timestamp as a long-form date.
// Unparseable timestamps degrade to a placeholder instead of failing
// the request.
func formatDate(timestamp string) string {
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return unknownDate
	}
	return t.Format(dateLayout)
}
