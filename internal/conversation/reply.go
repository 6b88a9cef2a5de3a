// Package conversation produces tutor replies to free-form learner messages.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/tutor/internal/curriculum"
	"github.com/abhisek/tutor/internal/failure"
	"github.com/abhisek/tutor/internal/llm"
)

// FallbackReply is appended when no reply could be produced.
const FallbackReply = "Sorry, I couldn't come up with a reply just now. Let's continue with the session."

// Turn is one transcript entry as seen by the replier.
type Turn struct {
	FromLearner bool
	Content     string
}

// Replier is a capability that answers a learner's message in context.
type Replier interface {
	Reply(ctx context.Context, tail []Turn, m curriculum.Module, profileHint string) (string, error)
}

// MaxTail bounds how much transcript is sent with each reply request.
const MaxTail = 12

const systemPrompt = `You are a patient tutor chatting with a learner between questions.

Rules:
- Answer the learner's latest message briefly and stay on the module's topic.
- Never reveal the answer to a question the learner has not answered yet.
- If the learner seems stuck, suggest a way to think about the problem.`

// LLMReplier answers through a model.
type LLMReplier struct {
	provider  llm.Provider
	maxTokens int
}

// NewLLMReplier creates a Replier backed by provider.
func NewLLMReplier(provider llm.Provider) *LLMReplier {
	return &LLMReplier{provider: provider, maxTokens: 512}
}

func (r *LLMReplier) Reply(ctx context.Context, tail []Turn, m curriculum.Module, profileHint string) (string, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeReply)

	if len(tail) > MaxTail {
		tail = tail[len(tail)-MaxTail:]
	}
	if len(tail) == 0 {
		return "", failure.Validation("reply", errors.New("empty transcript"))
	}

	system := systemPrompt + "\n\n" + m.Context()
	if profileHint != "" {
		system += "\n\nLearner level: " + profileHint
	}

	resp, err := r.provider.Generate(ctx, llm.Request{
		System:      system,
		Messages:    toMessages(tail),
		MaxTokens:   r.maxTokens,
		Temperature: 0.6,
	})
	if err != nil {
		return "", failure.Generation("reply", fmt.Errorf("reply request: %w", err))
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", failure.Validation("reply", errors.New("empty reply"))
	}
	return text, nil
}

// toMessages maps turns to model messages, merging consecutive turns
// from the same side since some providers require alternating roles.
func toMessages(tail []Turn) []llm.Message {
	var msgs []llm.Message
	for _, t := range tail {
		role := llm.RoleAssistant
		if t.FromLearner {
			role = llm.RoleUser
		}
		if n := len(msgs); n > 0 && msgs[n-1].Role == role {
			msgs[n-1].Content += "\n\n" + t.Content
			continue
		}
		msgs = append(msgs, llm.Message{Role: role, Content: t.Content})
	}
	// The conversation must open with the learner.
	if len(msgs) > 0 && msgs[0].Role == llm.RoleAssistant {
		msgs = append([]llm.Message{{Role: llm.RoleUser, Content: "(session started)"}}, msgs...)
	}
	return msgs
}
