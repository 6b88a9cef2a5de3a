// Package level estimates a learner's proficiency tier from recent
// answers and adapts tutor text to that tier.
package level

import (
	"github.com/abhisek/tutor/internal/curriculum"
	"github.com/abhisek/tutor/internal/progress"
)

// Tier is a proficiency tier. It shares its values with question difficulty.
type Tier = curriculum.Difficulty

const (
	Beginner     = curriculum.DifficultyBeginner
	Intermediate = curriculum.DifficultyIntermediate
	Advanced     = curriculum.DifficultyAdvanced
)

// Window is how many of the most recent answers an estimate considers.
const Window = 10

// Estimate classifies the learner from the last Window history items.
// Advanced needs at least 5 answers at 80% accuracy, intermediate at
// least 3 at 60%; anything else, including no history, is beginner.
func Estimate(history []progress.HistoryItem) Tier {
	if len(history) > Window {
		history = history[len(history)-Window:]
	}
	n := len(history)
	if n == 0 {
		return Beginner
	}

	correct := 0
	for _, h := range history {
		if h.IsCorrect {
			correct++
		}
	}
	accuracy := float64(correct) / float64(n)

	switch {
	case n >= 5 && accuracy >= 0.8:
		return Advanced
	case n >= 3 && accuracy >= 0.6:
		return Intermediate
	default:
		return Beginner
	}
}
