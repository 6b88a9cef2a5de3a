package questions

import "github.com/abhisek/tutor/internal/llm"

// QuestionSetSchema is the structured output requested from the model.
var QuestionSetSchema = &llm.Schema{
	Name:        "question-set",
	Description: "A set of tutoring questions with expected answers",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"prompt": map[string]any{
							"type":        "string",
							"description": "The question shown to the learner",
						},
						"expected_answer": map[string]any{
							"type":        "string",
							"description": "A short canonical answer",
						},
						"hint": map[string]any{
							"type":        "string",
							"description": "A nudge that must not contain the answer",
						},
						"explanation": map[string]any{
							"type":        "string",
							"description": "Why the expected answer is right",
						},
						"difficulty": map[string]any{
							"type": "string",
							"enum": []any{"beginner", "intermediate", "advanced"},
						},
						"category": map[string]any{
							"type":        "string",
							"description": "A short topic label",
						},
					},
					"required":             []any{"prompt", "expected_answer", "hint", "explanation", "difficulty", "category"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}
