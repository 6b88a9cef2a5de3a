package level

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/tutor/internal/llm"
	"github.com/abhisek/tutor/internal/logger"
)

// Adjuster rewrites tutor text for a proficiency tier. Implementations
// must return the input unchanged when they cannot do better.
type Adjuster interface {
	Adjust(ctx context.Context, text string, tier Tier) string
}

// Passthrough is the Adjuster used when no model is available.
type Passthrough struct{}

func (Passthrough) Adjust(_ context.Context, text string, _ Tier) string { return text }

const adjustSystemPrompt = `You rewrite feedback for a learner without changing its meaning.

Rules:
- Keep every fact, number and correct answer exactly as given.
- beginner: short sentences, everyday words, one idea at a time.
- intermediate: precise vocabulary, brief reasoning.
- advanced: concise and technical; skip basics.
- Reply with the rewritten text only.`

// LLMAdjuster rewrites text through a model.
type LLMAdjuster struct {
	provider  llm.Provider
	log       *logger.Logger
	maxTokens int
}

// NewLLMAdjuster creates an Adjuster backed by provider.
func NewLLMAdjuster(provider llm.Provider, log *logger.Logger) *LLMAdjuster {
	if log == nil {
		log = logger.Nop()
	}
	return &LLMAdjuster{provider: provider, log: log, maxTokens: 512}
}

func (a *LLMAdjuster) Adjust(ctx context.Context, text string, tier Tier) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeLevelAdjust)

	resp, err := a.provider.Generate(ctx, llm.Request{
		System: adjustSystemPrompt,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: fmt.Sprintf("Tier: %s\n\nText:\n%s", tier, text),
		}},
		MaxTokens:   a.maxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		a.log.Debug("level adjust failed, keeping original text", "tier", tier, "error", err)
		return text
	}
	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return text
	}
	return out
}
