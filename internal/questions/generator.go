// Package questions supplies the question pool for a session: authored
// questions when a module has them, generated ones otherwise, and a
// static fallback set when generation fails.
package questions

import (
	"context"

	"github.com/abhisek/tutor/internal/curriculum"
)

// GenerateInput describes the question set to produce.
type GenerateInput struct {
	Module     curriculum.Module
	Kind       curriculum.Kind
	Count      int
	Difficulty curriculum.Difficulty
}

// Generator produces a set of questions in one call. Results are
// validated by the Supplier, not by the Generator.
type Generator interface {
	Generate(ctx context.Context, input GenerateInput) ([]curriculum.Question, error)
}
