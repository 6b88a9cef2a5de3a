package questions

import (
	"fmt"
	"strings"

	"github.com/abhisek/tutor/internal/curriculum"
)

const systemPrompt = `You write questions for a one-to-one tutoring session.

Rules:
- Every question must be answerable in a sentence or less.
- expected_answer is the shortest complete correct answer.
- Hints guide thinking and never state or spell out the answer.
- Stay within the module's objectives.
- Match the requested difficulty; vary the category across the set.`

// kindStyle tells the model how each session kind should feel.
var kindStyle = map[curriculum.Kind]string{
	curriculum.KindPractice: "Practice: build up from fundamentals, one concept per question.",
	curriculum.KindQuiz:     "Quiz: check understanding across all objectives, no scaffolding in the prompt.",
	curriculum.KindReview:   "Review: revisit the core ideas with recall-style questions.",
	curriculum.KindFeedback: "Feedback: open questions that ask the learner to reflect on what they learned.",
}

func buildUserMessage(input GenerateInput) string {
	var b strings.Builder

	b.WriteString(input.Module.Context())
	fmt.Fprintf(&b, "\n\nSession: %s\n", kindStyle[input.Kind])
	fmt.Fprintf(&b, "Difficulty: %s\n", input.Difficulty)
	fmt.Fprintf(&b, "Number of questions: %d\n", input.Count)
	return b.String()
}
