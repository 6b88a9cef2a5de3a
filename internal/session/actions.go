package session

import (
	"time"

	"github.com/abhisek/tutor/internal/curriculum"
	"github.com/abhisek/tutor/internal/evaluation"
	"github.com/abhisek/tutor/internal/progress"
)

// Action is a state change request. The set of actions is closed: only
// types in this package implement it.
type Action interface {
	// target is the session the action was produced for.
	target() string
}

// StartSession discards any current session and begins a new one.
type StartSession struct {
	ID        string
	Kind      curriculum.Kind
	Title     string
	ModuleID  string
	LearnerID string
	At        time.Time
}

// AppendLearnerMessage adds a learner message to the transcript.
type AppendLearnerMessage struct {
	SessionID string
	Message   Message
}

// AppendTutorMessage adds a tutor message to the transcript.
type AppendTutorMessage struct {
	SessionID string
	Message   Message
}

// SetQuestionPool fixes the questions for the session. A pool can be set
// only once.
type SetQuestionPool struct {
	SessionID string
	Questions []curriculum.Question
}

// SetCurrentQuestion selects the question awaiting an answer. An empty
// QuestionID clears the selection.
type SetCurrentQuestion struct {
	SessionID  string
	QuestionID string
	At         time.Time
}

// AttachEvaluation records the evaluation of a learner answer: it is set
// on the answer message and the question's history item is added or
// replaced.
type AttachEvaluation struct {
	SessionID  string
	MessageID  string
	QuestionID string
	HistoryID  string
	Evaluation evaluation.Evaluation
	At         time.Time
}

// UpdateProgress sets the session counters. A non-nil History replaces
// the answer history.
type UpdateProgress struct {
	SessionID string
	Answered  int
	Correct   int
	Total     int
	Completed bool
	History   []progress.HistoryItem
}

// CompleteSession ends the session.
type CompleteSession struct {
	SessionID string
	At        time.Time
}

// SetLoading flags a pending external call.
type SetLoading struct {
	SessionID string
	Loading   bool
}

// SetError moves the session into the error phase.
type SetError struct {
	SessionID string
	Err       error
}

// recoverSelection re-applies the last successful question selection.
type recoverSelection struct {
	sessionID string
	at        time.Time
}

func (a StartSession) target() string         { return a.ID }
func (a AppendLearnerMessage) target() string { return a.SessionID }
func (a AppendTutorMessage) target() string   { return a.SessionID }
func (a SetQuestionPool) target() string      { return a.SessionID }
func (a SetCurrentQuestion) target() string   { return a.SessionID }
func (a AttachEvaluation) target() string     { return a.SessionID }
func (a UpdateProgress) target() string       { return a.SessionID }
func (a CompleteSession) target() string      { return a.SessionID }
func (a SetLoading) target() string           { return a.SessionID }
func (a SetError) target() string             { return a.SessionID }
func (a recoverSelection) target() string     { return a.sessionID }
