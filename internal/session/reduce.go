package session

import (
	"fmt"
	"slices"
	"time"

	"github.com/abhisek/tutor/internal/progress"
)

// Reduce returns the state that results from applying a to s. It never
// modifies s: changed slices are copied, so earlier snapshots stay valid.
//
// Every action other than StartSession is ignored when there is no
// session or when it was produced for a different session.
func Reduce(s State, a Action) State {
	if start, ok := a.(StartSession); ok {
		return startSession(start)
	}
	if s.Session == nil || a.target() != s.Session.ID {
		return s
	}

	switch a := a.(type) {
	case AppendLearnerMessage:
		return appendMessage(s, a.Message, SenderLearner)
	case AppendTutorMessage:
		return appendMessage(s, a.Message, SenderTutor)
	case SetQuestionPool:
		return setQuestionPool(s, a)
	case SetCurrentQuestion:
		return setCurrentQuestion(s, a)
	case AttachEvaluation:
		return attachEvaluation(s, a)
	case UpdateProgress:
		return updateProgress(s, a)
	case CompleteSession:
		return completeSession(s)
	case SetLoading:
		return setLoading(s, a)
	case SetError:
		return setError(s, a)
	case recoverSelection:
		if !s.CanRecover() {
			return s
		}
		sel := *s.lastSelect
		sel.At = a.at
		return setCurrentQuestion(s, sel)
	}
	return s
}

func startSession(a StartSession) State {
	return State{
		Session: &Session{
			ID:        a.ID,
			Kind:      a.Kind,
			Title:     a.Title,
			ModuleID:  a.ModuleID,
			LearnerID: a.LearnerID,
			StartedAt: a.At,
		},
		Phase:   PhaseLoadingQuestions,
		Loading: true,
	}
}

// withSession returns a copy of s whose Session is a shallow copy that
// can be modified.
func withSession(s State) (State, *Session) {
	sess := *s.Session
	s.Session = &sess
	return s, &sess
}

func appendMessage(s State, m Message, sender Sender) State {
	s, sess := withSession(s)
	m.Sender = sender
	if m.ID == "" {
		m.ID = fmt.Sprintf("%s-m%d", sess.ID, len(sess.Transcript)+1)
	}
	if m.Evaluation != nil {
		ev := *m.Evaluation
		m.Evaluation = &ev
	}
	sess.Transcript = append(slices.Clip(sess.Transcript), m)
	return s
}

func setQuestionPool(s State, a SetQuestionPool) State {
	if s.Phase == PhaseCompleted || len(s.Session.QuestionPool) > 0 || len(a.Questions) == 0 {
		return s
	}
	s, sess := withSession(s)
	sess.QuestionPool = slices.Clone(a.Questions)
	sess.Progress.Total = max(sess.Progress.Total, len(sess.QuestionPool))
	return s
}

func setCurrentQuestion(s State, a SetCurrentQuestion) State {
	if s.Phase == PhaseCompleted {
		return s
	}
	if a.QuestionID == "" {
		s, sess := withSession(s)
		sess.CurrentQuestionID = ""
		sess.QuestionShownAt = a.At
		return s
	}
	if s.Session.QuestionIndex(a.QuestionID) < 0 {
		return s
	}

	s, sess := withSession(s)
	sess.CurrentQuestionID = a.QuestionID
	sess.QuestionShownAt = a.At
	s.Phase = PhaseAwaitingAnswer
	s.Loading = false
	s.Err = nil
	sel := a
	s.lastSelect = &sel
	return s
}

func attachEvaluation(s State, a AttachEvaluation) State {
	if s.Phase == PhaseCompleted {
		return s
	}
	q, ok := s.Session.Question(a.QuestionID)
	if !ok {
		return s
	}
	msgIdx := slices.IndexFunc(s.Session.Transcript, func(m Message) bool { return m.ID == a.MessageID })
	if msgIdx < 0 || s.Session.Transcript[msgIdx].Sender != SenderLearner {
		return s
	}

	s, sess := withSession(s)

	ev := a.Evaluation
	sess.Transcript = slices.Clone(sess.Transcript)
	msg := &sess.Transcript[msgIdx]
	msg.Evaluation = &ev
	msg.QuestionID = a.QuestionID

	var spent time.Duration
	if sess.CurrentQuestionID == a.QuestionID && !sess.QuestionShownAt.IsZero() && a.At.After(sess.QuestionShownAt) {
		spent = a.At.Sub(sess.QuestionShownAt)
	}
	correct := ev.CorrectAnswer
	if correct == "" {
		correct = q.ExpectedAnswer
	}
	id := a.HistoryID
	if id == "" {
		id = fmt.Sprintf("%s-h-%s", sess.ID, a.QuestionID)
	}
	item := progress.HistoryItem{
		ID:            id,
		QuestionID:    a.QuestionID,
		Question:      q.Prompt,
		UserAnswer:    msg.Content,
		CorrectAnswer: correct,
		IsCorrect:     ev.IsCorrect,
		Score:         ev.Score,
		Feedback:      ev.Feedback,
		Timestamp:     a.At,
		TimeSpent:     spent,
	}

	sess.History = slices.Clone(sess.History)
	if i := slices.IndexFunc(sess.History, func(h progress.HistoryItem) bool { return h.QuestionID == a.QuestionID }); i >= 0 {
		sess.History[i] = item
	} else {
		sess.History = append(sess.History, item)
	}
	return s
}

func updateProgress(s State, a UpdateProgress) State {
	if s.Phase == PhaseCompleted {
		return s
	}
	s, sess := withSession(s)

	if a.History != nil {
		sess.History = dedupeHistory(a.History)
	}

	p := Progress{
		Total:    max(a.Total, len(sess.QuestionPool), 0),
		Answered: max(a.Answered, 0),
		Correct:  max(a.Correct, 0),
	}
	p.Answered = min(p.Answered, p.Total)
	p.Correct = min(p.Correct, p.Answered)
	p.Completed = sess.Progress.Completed || (a.Completed && p.Answered == p.Total)
	if sess.Progress.Completed {
		p = sess.Progress
	}
	sess.Progress = p
	return s
}

// dedupeHistory keeps the last item per question id, at the position of
// the first occurrence.
func dedupeHistory(in []progress.HistoryItem) []progress.HistoryItem {
	out := make([]progress.HistoryItem, 0, len(in))
	pos := make(map[string]int, len(in))
	for _, h := range in {
		if i, ok := pos[h.QuestionID]; ok {
			out[i] = h
			continue
		}
		pos[h.QuestionID] = len(out)
		out = append(out, h)
	}
	return out
}

func completeSession(s State) State {
	if s.Phase == PhaseCompleted {
		return s
	}
	s, sess := withSession(s)
	sess.CurrentQuestionID = ""
	p := &sess.Progress
	p.Completed = p.Completed || (p.Total > 0 && p.Answered == p.Total)
	s.Phase = PhaseCompleted
	s.Loading = false
	return s
}

func setLoading(s State, a SetLoading) State {
	if s.Phase == PhaseCompleted {
		return s
	}
	s.Loading = a.Loading
	switch {
	case a.Loading && s.Phase == PhaseAwaitingAnswer:
		s.Phase = PhaseEvaluating
	case !a.Loading && s.Phase == PhaseEvaluating:
		s.Phase = PhaseAwaitingAnswer
	}
	return s
}

func setError(s State, a SetError) State {
	if s.Phase == PhaseCompleted {
		return s
	}
	s.Phase = PhaseError
	s.Err = a.Err
	s.Loading = false
	return s
}
