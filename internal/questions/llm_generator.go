package questions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abhisek/tutor/internal/curriculum"
	"github.com/abhisek/tutor/internal/llm"
)

// LLMGenerator produces question sets with a model.
type LLMGenerator struct {
	provider    llm.Provider
	maxTokens   int
	temperature float64
}

// NewLLMGenerator creates a Generator backed by provider.
func NewLLMGenerator(provider llm.Provider) *LLMGenerator {
	return &LLMGenerator{provider: provider, maxTokens: 2048, temperature: 0.7}
}

type questionSetOutput struct {
	Questions []struct {
		Prompt         string `json:"prompt"`
		ExpectedAnswer string `json:"expected_answer"`
		Hint           string `json:"hint"`
		Explanation    string `json:"explanation"`
		Difficulty     string `json:"difficulty"`
		Category       string `json:"category"`
	} `json:"questions"`
}

func (g *LLMGenerator) Generate(ctx context.Context, input GenerateInput) ([]curriculum.Question, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeQuestionSet)

	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildUserMessage(input)}},
		Schema:      QuestionSetSchema,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("question set request: %w", err)
	}

	var out questionSetOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse question set: %w", err)
	}

	qs := make([]curriculum.Question, 0, len(out.Questions))
	for _, raw := range out.Questions {
		qs = append(qs, curriculum.Question{
			Prompt:         raw.Prompt,
			ExpectedAnswer: raw.ExpectedAnswer,
			Hint:           raw.Hint,
			Explanation:    raw.Explanation,
			Difficulty:     curriculum.Difficulty(raw.Difficulty),
			Category:       raw.Category,
		})
	}
	return qs, nil
}
