package evaluation

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"unicode"

	"github.com/abhisek/tutor/internal/curriculum"
)

// MatchScorer grades offline by comparing normalized text. Numbers and
// fractions compare by value, so "2/4", "0.5" and "1/2" are equal.
type MatchScorer struct{}

func (MatchScorer) Score(_ context.Context, q curriculum.Question, answer string) (Evaluation, error) {
	ev := Evaluation{CorrectAnswer: q.ExpectedAnswer, Explanation: q.Explanation}

	got, want := normalize(answer), normalize(q.ExpectedAnswer)
	switch {
	case want == "":
		return Evaluation{}, fmt.Errorf("question %q has no expected answer", q.ID)
	case got == want || sameNumber(got, want):
		ev.IsCorrect, ev.Score = true, 100
		ev.Feedback = "Correct."
	case containsWord(got, want):
		ev.IsCorrect, ev.Score = true, 90
		ev.Feedback = "Correct, the key part of your answer matches."
	default:
		ev.Score = int(overlap(got, want) * 60)
		ev.Feedback = fmt.Sprintf("Not quite. The expected answer is %q.", q.ExpectedAnswer)
		if q.Hint != "" {
			ev.FurtherStudyTips = []string{q.Hint}
		}
	}
	return ev, nil
}

// normalize lowercases, trims surrounding punctuation and collapses
// internal whitespace.
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) && r != '/' && r != '-' && r != '.'
	})
	s = strings.TrimRight(s, ".")
	return strings.Join(strings.Fields(s), " ")
}

// sameNumber reports whether both strings parse as the same rational.
// big.Rat accepts integers, decimals and "a/b" fractions.
func sameNumber(a, b string) bool {
	ra, ok := new(big.Rat).SetString(strings.ReplaceAll(a, " ", ""))
	if !ok {
		return false
	}
	rb, ok := new(big.Rat).SetString(strings.ReplaceAll(b, " ", ""))
	if !ok {
		return false
	}
	return ra.Cmp(rb) == 0
}

// containsWord reports whether want appears in got on word boundaries.
// Very short expected answers must match exactly.
func containsWord(got, want string) bool {
	if len(want) < 3 {
		return false
	}
	padded := " " + got + " "
	return strings.Contains(padded, " "+want+" ")
}

// overlap is the share of want's words that occur in got.
func overlap(got, want string) float64 {
	wantWords := strings.Fields(want)
	if len(wantWords) == 0 {
		return 0
	}
	have := make(map[string]bool)
	for _, w := range strings.Fields(got) {
		have[w] = true
	}
	hits := 0
	for _, w := range wantWords {
		if have[w] {
			hits++
		}
	}
	return float64(hits) / float64(len(wantWords))
}
