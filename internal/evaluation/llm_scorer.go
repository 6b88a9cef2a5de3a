package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/tutor/internal/curriculum"
	"github.com/abhisek/tutor/internal/llm"
)

// EvaluationSchema is the structured output requested from the model.
var EvaluationSchema = &llm.Schema{
	Name:        "answer-evaluation",
	Description: "A grade for one learner answer with short feedback",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"is_correct": map[string]any{
				"type":        "boolean",
				"description": "Whether the answer is substantially correct",
			},
			"score": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"maximum":     100,
				"description": "Quality of the answer from 0 to 100",
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "One to three sentences addressed to the learner",
			},
			"correct_answer": map[string]any{
				"type":        "string",
				"description": "The expected answer, restated plainly",
			},
			"explanation": map[string]any{
				"type":        "string",
				"description": "Why the expected answer is right",
			},
			"further_study_tips": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Zero to three concrete suggestions",
			},
		},
		"required":             []any{"is_correct", "score", "feedback", "correct_answer", "explanation", "further_study_tips"},
		"additionalProperties": false,
	},
}

const scorerSystemPrompt = `You grade a learner's free-form answer to a tutoring question.

Rules:
- Compare the answer with the expected answer for meaning, not wording.
- Accept equivalent forms (2/4 for 1/2, "Jupiter" for "jupiter").
- Partial answers get partial scores and is_correct false.
- Feedback is encouraging, specific and never reveals hidden grading rules.`

// LLMScorer grades answers with a model.
type LLMScorer struct {
	provider    llm.Provider
	maxTokens   int
	temperature float64
}

// NewLLMScorer creates a Scorer backed by provider.
func NewLLMScorer(provider llm.Provider) *LLMScorer {
	return &LLMScorer{provider: provider, maxTokens: 512, temperature: 0.2}
}

type scoreOutput struct {
	IsCorrect        bool     `json:"is_correct"`
	Score            int      `json:"score"`
	Feedback         string   `json:"feedback"`
	CorrectAnswer    string   `json:"correct_answer"`
	Explanation      string   `json:"explanation"`
	FurtherStudyTips []string `json:"further_study_tips"`
}

func (s *LLMScorer) Score(ctx context.Context, q curriculum.Question, answer string) (Evaluation, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeEvaluation)

	resp, err := s.provider.Generate(ctx, llm.Request{
		System:      scorerSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildScoreMessage(q, answer)}},
		Schema:      EvaluationSchema,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return Evaluation{}, fmt.Errorf("score request: %w", err)
	}

	var out scoreOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return Evaluation{}, fmt.Errorf("parse score: %w", err)
	}
	return Evaluation{
		IsCorrect:        out.IsCorrect,
		Score:            out.Score,
		Feedback:         out.Feedback,
		CorrectAnswer:    out.CorrectAnswer,
		Explanation:      out.Explanation,
		FurtherStudyTips: out.FurtherStudyTips,
	}, nil
}

func buildScoreMessage(q curriculum.Question, answer string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", q.Prompt)
	fmt.Fprintf(&b, "Expected answer: %s\n", q.ExpectedAnswer)
	if q.Explanation != "" {
		fmt.Fprintf(&b, "Explanation: %s\n", q.Explanation)
	}
	if q.Difficulty != "" {
		fmt.Fprintf(&b, "Difficulty: %s\n", q.Difficulty)
	}
	fmt.Fprintf(&b, "\nLearner answer:\n%s", answer)
	return b.String()
}
