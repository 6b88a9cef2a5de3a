package questions

import (
	"fmt"

	"github.com/abhisek/tutor/internal/curriculum"
)

// FallbackSize is the number of questions in a fallback set.
const FallbackSize = 3

var fallbackTemplates = []struct {
	prompt, hint string
}{
	{"In your own words, explain this idea: %s", "Start with what you already know and build from there."},
	{"Give a concrete example related to this goal: %s", "Think of a situation where this would come up."},
	{"What is the single most important point to remember about: %s", "Ask yourself what someone new to the topic would need first."},
}

// Fallback builds the fixed-size static set for a module. It is seeded
// from the module's objectives and never returns fewer than FallbackSize
// questions.
func Fallback(m curriculum.Module) []curriculum.Question {
	seeds := m.Objectives
	if len(seeds) == 0 {
		title := m.Title
		if title == "" {
			title = m.ID
		}
		seeds = []string{"the main ideas of " + title}
	}

	out := make([]curriculum.Question, FallbackSize)
	for i := range out {
		tmpl := fallbackTemplates[i%len(fallbackTemplates)]
		seed := seeds[i%len(seeds)]
		out[i] = curriculum.Question{
			ID:             fmt.Sprintf("%s-fallback-%d", m.ID, i+1),
			Prompt:         fmt.Sprintf(tmpl.prompt, seed),
			ExpectedAnswer: seed,
			Hint:           tmpl.hint,
			Explanation:    fmt.Sprintf("A good answer shows you understand: %s.", seed),
			Difficulty:     curriculum.DifficultyBeginner,
			Category:       "review",
		}
	}
	return out
}
