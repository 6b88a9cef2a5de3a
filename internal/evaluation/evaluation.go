// Package evaluation scores free-form answers against a question.
package evaluation

import (
	"context"
	"errors"
	"strings"

	"github.com/abhisek/tutor/internal/curriculum"
	"github.com/abhisek/tutor/internal/failure"
	"github.com/abhisek/tutor/internal/logger"
)

// Evaluation is the normalized result of scoring one answer.
type Evaluation struct {
	IsCorrect        bool
	Score            int // 0-100
	Feedback         string
	CorrectAnswer    string
	Explanation      string
	FurtherStudyTips []string

	// Degraded marks the neutral result returned when scoring failed.
	Degraded bool
}

// NeutralFeedback is shown when an answer could not be scored.
const NeutralFeedback = "I had trouble checking that answer, so it was not counted as correct. Let's keep going."

// Scorer is a capability that grades an answer.
type Scorer interface {
	Score(ctx context.Context, q curriculum.Question, answer string) (Evaluation, error)
}

// Evaluator wraps a Scorer so that evaluation always produces a result.
type Evaluator struct {
	scorer Scorer
	log    *logger.Logger
}

// NewEvaluator creates an Evaluator over scorer.
func NewEvaluator(scorer Scorer, log *logger.Logger) *Evaluator {
	if log == nil {
		log = logger.Nop()
	}
	return &Evaluator{scorer: scorer, log: log}
}

// Evaluate grades answer. It never fails: any scorer error yields the
// neutral, degraded evaluation.
func (e *Evaluator) Evaluate(ctx context.Context, q curriculum.Question, answer string) Evaluation {
	if strings.TrimSpace(answer) == "" {
		return Evaluation{
			Feedback:      "No answer was given.",
			CorrectAnswer: q.ExpectedAnswer,
			Explanation:   q.Explanation,
		}
	}

	ev, err := e.score(ctx, q, answer)
	if err != nil {
		e.log.Warn("evaluation failed, using neutral result", "question", q.ID, "error", err)
		return neutral(q)
	}
	return ev
}

func (e *Evaluator) score(ctx context.Context, q curriculum.Question, answer string) (Evaluation, error) {
	if e.scorer == nil {
		return Evaluation{}, failure.Evaluation("score answer", errors.New("no scorer configured"))
	}
	ev, err := e.scorer.Score(ctx, q, answer)
	if err != nil {
		return Evaluation{}, failure.Evaluation("score answer", err)
	}

	ev.Feedback = strings.TrimSpace(ev.Feedback)
	if ev.Feedback == "" {
		return Evaluation{}, failure.Validation("score answer", errors.New("empty feedback"))
	}
	ev.Score = min(max(ev.Score, 0), 100)
	if ev.CorrectAnswer == "" {
		ev.CorrectAnswer = q.ExpectedAnswer
	}
	ev.Degraded = false
	return ev, nil
}

func neutral(q curriculum.Question) Evaluation {
	return Evaluation{
		Feedback:      NeutralFeedback,
		CorrectAnswer: q.ExpectedAnswer,
		Degraded:      true,
	}
}
