// Package answer implements the query path: resolving which member a
// question refers to, then composing a grounded answer from that
// member's retrieved message chunks.
package answer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sandevgo/membot/internal/core"
	"github.com/sandevgo/membot/pkg/log"
)

const resolverPrompt = `You are an assistant that identifies which member a question refers to.
Known members: %s
Question: %q

Respond ONLY in valid JSON as:
{"user_name": "alice"}
If you are not sure about the member or who the question is about, respond with:
{"user_name": null}`

// Resolver maps a free-text question to one of the known member names
// using a constrained model call.
type Resolver struct {
	llm core.ChatModel
}

func NewResolver(llm core.ChatModel) *Resolver {
	return &Resolver{llm: llm}
}

// Resolve returns the matched lowercased member name. Any model failure,
// unparseable output, JSON null, or a name outside knownNames yields
// ok=false; resolution failure is never an error, only "unknown".
func (r *Resolver) Resolve(ctx context.Context, question string, knownNames []string) (name string, ok bool) {
	logger := log.FromCtx(ctx)

	prompt := fmt.Sprintf(resolverPrompt, strings.Join(knownNames, ", "), question)
	reply, err := r.llm.Chat(ctx, []core.ChatMessage{
		{Role: core.RoleUser, Content: prompt},
	})
	if err != nil {
		logger.Error().Err(err).Msg("member resolution call failed")
		return "", false
	}

	resolved, ok := decodeUserName(reply.Content)
	if !ok {
		logger.Debug().Str("raw", reply.Content).Msg("member resolution produced no usable name")
		return "", false
	}

	resolved = strings.ToLower(strings.TrimSpace(resolved))
	for _, known := range knownNames {
		if resolved == known {
			return resolved, true
		}
	}
	logger.Debug().Str("name", resolved).Msg("model resolved a name outside the known member set")
	return "", false
}

// decodeUserName strictly parses the expected {"user_name": ...} shape.
// Markdown code fences around the JSON are tolerated; anything else that
// fails to decode maps to not-ok.
func decodeUserName(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var out struct {
		UserName *string `json:"user_name"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return "", false
	}
	if out.UserName == nil || strings.TrimSpace(*out.UserName) == "" {
		return "", false
	}
	return *out.UserName, true
}
