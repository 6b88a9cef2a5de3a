package questions

import (
	"strings"

	"github.com/google/uuid"

	"github.com/abhisek/tutor/internal/curriculum"
)

// HintRedirect replaces hints that would give the answer away.
const HintRedirect = "Think about the key idea the question is testing, and work it out step by step."

// normalizeSet drops questions without a prompt or expected answer,
// assigns ids, re-keys duplicate ids and sanitizes hints. The input is
// not modified.
func normalizeSet(moduleID string, in []curriculum.Question) []curriculum.Question {
	out := make([]curriculum.Question, 0, len(in))
	seen := make(map[string]bool, len(in))

	for _, q := range in {
		q.Prompt = strings.TrimSpace(q.Prompt)
		q.ExpectedAnswer = strings.TrimSpace(q.ExpectedAnswer)
		if q.Prompt == "" || q.ExpectedAnswer == "" {
			continue
		}

		if q.ID == "" {
			q.ID = stableID(moduleID, q.Prompt)
		}
		if seen[q.ID] {
			q.ID = uuid.NewString()
		}
		seen[q.ID] = true

		q.Hint = sanitizeHint(q.Hint, q.ExpectedAnswer)
		out = append(out, q)
	}
	return out
}

// stableID derives an id from the prompt so a regenerated identical
// question keeps its identity across sessions.
func stableID(moduleID, prompt string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("tutor:"+moduleID+":"+prompt)).String()
}

// sanitizeHint replaces hint when it contains the answer, ignoring case.
func sanitizeHint(hint, answer string) string {
	hint = strings.TrimSpace(hint)
	if hint == "" || answer == "" {
		return hint
	}
	if strings.Contains(strings.ToLower(hint), strings.ToLower(answer)) {
		return HintRedirect
	}
	return hint
}
