package curriculum

import "fmt"

// Kind is the pedagogical mode of a session. It controls question style
// and framing.
type Kind string

const (
	KindPractice Kind = "practice"
	KindQuiz     Kind = "quiz"
	KindReview   Kind = "review"
	KindFeedback Kind = "feedback"
)

// AllKinds returns every session kind in display order.
func AllKinds() []Kind {
	return []Kind{KindPractice, KindQuiz, KindReview, KindFeedback}
}

// Valid reports whether k is a known session kind.
func (k Kind) Valid() bool {
	switch k {
	case KindPractice, KindQuiz, KindReview, KindFeedback:
		return true
	}
	return false
}

// DisplayName returns a human-readable label for the kind.
func (k Kind) DisplayName() string {
	switch k {
	case KindPractice:
		return "Practice"
	case KindQuiz:
		return "Quiz"
	case KindReview:
		return "Review"
	case KindFeedback:
		return "Feedback"
	default:
		return string(k)
	}
}

// ParseKind converts a string to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown session kind %q", s)
	}
	return k, nil
}

// Difficulty is the proficiency tier a question targets.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Rank orders difficulties from 0 (beginner) to 2 (advanced).
// Unknown values rank as beginner.
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyIntermediate:
		return 1
	case DifficultyAdvanced:
		return 2
	default:
		return 0
	}
}
