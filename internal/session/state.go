// Package session holds the learning-session state machine: the state
// types, the actions that change them and the single-queue store that
// applies actions in order.
package session

import (
	"time"

	"github.com/abhisek/tutor/internal/curriculum"
	"github.com/abhisek/tutor/internal/evaluation"
	"github.com/abhisek/tutor/internal/progress"
)

// Phase is the lifecycle position of the active session.
type Phase int

const (
	PhaseEmpty            Phase = iota // No session started
	PhaseLoadingQuestions              // Session created, pool not yet selected
	PhaseAwaitingAnswer                // A question (or chat) is awaiting the learner
	PhaseEvaluating                    // An answer is being scored
	PhaseCompleted                     // Session ended; no further questions
	PhaseError                         // Something failed; see State.Err
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseLoadingQuestions:
		return "loading-questions"
	case PhaseAwaitingAnswer:
		return "awaiting-answer"
	case PhaseEvaluating:
		return "evaluating"
	case PhaseCompleted:
		return "completed"
	case PhaseError:
		return "error"
	}
	return "unknown"
}

// Sender identifies who wrote a transcript message.
type Sender string

const (
	SenderLearner Sender = "learner"
	SenderTutor   Sender = "tutor"
)

// Message is one transcript entry. Only Evaluation is ever set after the
// message was appended.
type Message struct {
	ID         string
	Sender     Sender
	Content    string
	Timestamp  time.Time
	IsQuestion bool
	QuestionID string
	Evaluation *evaluation.Evaluation
}

// Progress holds the session counters.
// Answered <= Total, Correct <= Answered, Completed implies Answered == Total.
type Progress struct {
	Answered  int
	Correct   int
	Total     int
	Completed bool
}

// Session is one bounded tutoring interaction.
type Session struct {
	ID        string
	Kind      curriculum.Kind
	Title     string
	ModuleID  string
	LearnerID string
	StartedAt time.Time

	Transcript   []Message
	QuestionPool []curriculum.Question

	// CurrentQuestionID is empty when no question is awaiting an answer.
	CurrentQuestionID string
	QuestionShownAt   time.Time

	Progress Progress

	// History holds at most one item per question id.
	History []progress.HistoryItem
}

// Question returns the pool question with id.
func (s *Session) Question(id string) (curriculum.Question, bool) {
	for _, q := range s.QuestionPool {
		if q.ID == id {
			return q, true
		}
	}
	return curriculum.Question{}, false
}

// QuestionIndex returns the position of id in the pool, or -1.
func (s *Session) QuestionIndex(id string) int {
	for i, q := range s.QuestionPool {
		if q.ID == id {
			return i
		}
	}
	return -1
}

// Answered reports whether the history has an item for question id.
func (s *Session) Answered(id string) bool {
	for _, h := range s.History {
		if h.QuestionID == id {
			return true
		}
	}
	return false
}

// NextUnanswered returns the first unanswered pool question at or after
// position from, wrapping around. It reports false when every question
// has been answered.
func (s *Session) NextUnanswered(from int) (curriculum.Question, bool) {
	n := len(s.QuestionPool)
	if n == 0 {
		return curriculum.Question{}, false
	}
	from = ((from % n) + n) % n
	for i := range n {
		q := s.QuestionPool[(from+i)%n]
		if !s.Answered(q.ID) {
			return q, true
		}
	}
	return curriculum.Question{}, false
}

// Message returns the transcript message with id.
func (s *Session) Message(id string) (Message, bool) {
	for _, m := range s.Transcript {
		if m.ID == id {
			return m, true
		}
	}
	return Message{}, false
}

// State is a read-only snapshot of the store.
type State struct {
	// Session is nil until a session is started.
	Session *Session
	Phase   Phase
	Loading bool
	Err     error

	// lastSelect is the latest question selection that succeeded, kept so
	// an errored session can be put back where it was.
	lastSelect *SetCurrentQuestion
}

// Active reports whether a session exists and has not ended.
func (s State) Active() bool {
	return s.Session != nil && s.Phase != PhaseCompleted
}

// CurrentQuestion returns the question awaiting an answer, if any.
func (s State) CurrentQuestion() (curriculum.Question, bool) {
	if s.Session == nil || s.Session.CurrentQuestionID == "" {
		return curriculum.Question{}, false
	}
	return s.Session.Question(s.Session.CurrentQuestionID)
}

// CanRecover reports whether Store.Recover would restore a question.
func (s State) CanRecover() bool {
	return s.Phase == PhaseError && s.lastSelect != nil
}
