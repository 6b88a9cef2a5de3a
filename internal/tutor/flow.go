package tutor

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/tutor/internal/conversation"
	"github.com/abhisek/tutor/internal/curriculum"
	"github.com/abhisek/tutor/internal/evaluation"
	"github.com/abhisek/tutor/internal/level"
	"github.com/abhisek/tutor/internal/progress"
	"github.com/abhisek/tutor/internal/session"
)

// SendMessage records a learner message. When isAnswer is set and a
// question is awaiting an answer, the message is evaluated and the
// session advances; otherwise the tutor replies conversationally.
func (t *Tutor) SendMessage(ctx context.Context, text string, isAnswer bool) error {
	st := t.store.State()
	if st.Session == nil {
		return ErrNoSession
	}
	id := st.Session.ID

	if isAnswer {
		if q, ok := st.CurrentQuestion(); ok {
			if !t.claim(id) {
				return ErrEvaluationInFlight
			}
			defer t.release(id)
			t.answer(ctx, id, q, text)
			return nil
		}
		if st.Phase == session.PhaseEvaluating {
			return ErrEvaluationInFlight
		}
	}

	if strings.TrimSpace(text) == "" {
		return nil
	}
	t.store.Dispatch(session.AppendLearnerMessage{SessionID: id, Message: t.message(text)})
	t.reply(ctx, id)
	return nil
}

func (t *Tutor) answer(ctx context.Context, id string, q curriculum.Question, text string) {
	msg := t.message(text)
	msg.QuestionID = q.ID
	t.store.Dispatch(session.AppendLearnerMessage{SessionID: id, Message: msg})
	t.store.Dispatch(session.SetLoading{SessionID: id, Loading: true})

	ev := t.deps.Evaluator.Evaluate(ctx, q, text)

	st := t.store.State()
	if st.Session == nil || st.Session.ID != id || st.Session.CurrentQuestionID != q.ID {
		t.log.Debug("dropping evaluation for a question that is no longer current", "session", id, "question", q.ID)
		t.store.Dispatch(session.SetLoading{SessionID: id, Loading: false})
		return
	}

	st = t.store.Dispatch(session.AttachEvaluation{
		SessionID:  id,
		MessageID:  msg.ID,
		QuestionID: q.ID,
		Evaluation: ev,
		At:         t.deps.Now(),
	})
	answered, correct := tally(st.Session.History)
	st = t.store.Dispatch(session.UpdateProgress{
		SessionID: id,
		Answered:  answered,
		Correct:   correct,
		Total:     st.Session.Progress.Total,
	})

	feedback := feedbackText(ev)
	if !ev.Degraded {
		feedback = t.deps.Adjuster.Adjust(ctx, feedback, level.Estimate(st.Session.History))
	}
	t.store.Dispatch(session.AppendTutorMessage{SessionID: id, Message: t.message(feedback)})
	t.persist(ctx, st)

	t.store.Dispatch(session.SetLoading{SessionID: id, Loading: false})
	st = t.store.Dispatch(session.SetCurrentQuestion{SessionID: id, At: t.deps.Now()})
	if st.Session == nil || st.Session.ID != id {
		return
	}

	next, ok := st.Session.NextUnanswered(st.Session.QuestionIndex(q.ID) + 1)
	if !ok {
		t.complete(ctx, id)
		return
	}
	t.pacer.Schedule(t.cfg.QuestionDelay, func() { t.showQuestion(id, next) })
}

func (t *Tutor) reply(ctx context.Context, id string) {
	st := t.store.State()
	if st.Session == nil || st.Session.ID != id {
		return
	}
	tr := st.Session.Transcript
	if len(tr) > conversation.MaxTail {
		tr = tr[len(tr)-conversation.MaxTail:]
	}
	tail := make([]conversation.Turn, len(tr))
	for i, m := range tr {
		tail[i] = conversation.Turn{FromLearner: m.Sender == session.SenderLearner, Content: m.Content}
	}

	text := conversation.FallbackReply
	if t.deps.Replier != nil {
		t.mu.Lock()
		module := t.module
		t.mu.Unlock()
		hint := fmt.Sprintf("learner level: %s", level.Estimate(st.Session.History))
		out, err := t.deps.Replier.Reply(ctx, tail, module, hint)
		if err != nil {
			t.log.Warn("conversational reply failed", "session", id, "error", err)
		} else {
			text = out
		}
	}
	t.store.Dispatch(session.AppendTutorMessage{SessionID: id, Message: t.message(text)})
}

// AdvanceQuestion shows the next question now. A paced question is shown
// immediately; otherwise the current question is skipped. With nothing
// left to ask the session completes.
func (t *Tutor) AdvanceQuestion(ctx context.Context) error {
	if t.pacer.Flush() {
		return nil
	}
	st := t.store.State()
	if st.Session == nil {
		return ErrNoSession
	}
	if st.Phase == session.PhaseCompleted {
		return nil
	}
	if st.Phase == session.PhaseEvaluating {
		return ErrEvaluationInFlight
	}

	from := 0
	if cur := st.Session.CurrentQuestionID; cur != "" {
		from = st.Session.QuestionIndex(cur) + 1
	}
	next, ok := st.Session.NextUnanswered(from)
	if !ok {
		t.complete(ctx, st.Session.ID)
		return nil
	}
	t.showQuestion(st.Session.ID, next)
	return nil
}

// CompleteSession ends the current session and records the result.
func (t *Tutor) CompleteSession(ctx context.Context) error {
	st := t.store.State()
	if st.Session == nil {
		return ErrNoSession
	}
	t.pacer.Cancel()
	t.complete(ctx, st.Session.ID)
	return nil
}

func (t *Tutor) complete(ctx context.Context, id string) {
	t.completeMu.Lock()
	defer t.completeMu.Unlock()

	st := t.store.State()
	if st.Session == nil || st.Session.ID != id || st.Phase == session.PhaseCompleted {
		return
	}
	st = t.store.Dispatch(session.CompleteSession{SessionID: id, At: t.deps.Now()})
	t.store.Dispatch(session.AppendTutorMessage{SessionID: id, Message: t.message(summaryText(st.Session.Progress))})
	t.persist(ctx, st)

	p := st.Session.Progress
	t.log.Info("session complete", "session", id, "answered", p.Answered, "correct", p.Correct, "total", p.Total)
}

func (t *Tutor) showQuestion(id string, q curriculum.Question) {
	st := t.store.Dispatch(session.SetCurrentQuestion{SessionID: id, QuestionID: q.ID, At: t.deps.Now()})
	if st.Session == nil || st.Session.ID != id || st.Session.CurrentQuestionID != q.ID {
		return
	}
	msg := t.message(questionText(st.Session.QuestionIndex(q.ID)+1, len(st.Session.QuestionPool), q))
	msg.IsQuestion = true
	msg.QuestionID = q.ID
	t.store.Dispatch(session.AppendTutorMessage{SessionID: id, Message: msg})
}

// persist writes the session's progress in the background.
func (t *Tutor) persist(ctx context.Context, st session.State) {
	if t.deps.Progress == nil || st.Session == nil {
		return
	}
	s := st.Session
	rec := progress.Record{
		Key:         progress.Key{LearnerID: s.LearnerID, ModuleID: s.ModuleID, Kind: s.Kind},
		Answered:    s.Progress.Answered,
		Correct:     s.Progress.Correct,
		Total:       s.Progress.Total,
		Completed:   s.Progress.Completed,
		LastUpdated: t.deps.Now(),
		History:     s.History,
	}
	ctx = context.WithoutCancel(ctx)

	// Writes land in the order they were issued.
	t.writeMu.Lock()
	prev := t.lastWrite
	done := make(chan struct{})
	t.lastWrite = done
	t.writeMu.Unlock()

	t.persisting.Add(1)
	go func() {
		defer t.persisting.Done()
		defer close(done)
		if prev != nil {
			<-prev
		}
		if err := t.deps.Progress.Persist(ctx, rec); err != nil {
			t.log.Debug("progress write failed", "session", s.ID, "module", s.ModuleID, "error", err)
		}
	}()
}

func (t *Tutor) message(content string) session.Message {
	return session.Message{ID: t.deps.NewID(), Content: content, Timestamp: t.deps.Now()}
}

func questionText(n, total int, q curriculum.Question) string {
	s := fmt.Sprintf("Question %d/%d: %s", n, total, q.Prompt)
	if q.Hint != "" {
		s += "\nHint: " + q.Hint
	}
	return s
}

func feedbackText(ev evaluation.Evaluation) string {
	if ev.Degraded {
		return ev.Feedback
	}

	var b strings.Builder
	b.WriteString(ev.Feedback)
	if !ev.IsCorrect && ev.CorrectAnswer != "" && !strings.Contains(ev.Feedback, ev.CorrectAnswer) {
		fmt.Fprintf(&b, "\nExpected answer: %s", ev.CorrectAnswer)
	}
	if ev.Explanation != "" {
		b.WriteString("\n" + ev.Explanation)
	}
	for _, tip := range ev.FurtherStudyTips {
		b.WriteString("\nTip: " + tip)
	}
	return b.String()
}

func summaryText(p session.Progress) string {
	if p.Total == 0 || p.Answered == 0 {
		return "Session ended. No questions were answered."
	}
	s := fmt.Sprintf("Session complete: %d of %d correct", p.Correct, p.Total)
	if p.Answered < p.Total {
		s += fmt.Sprintf(" (%d answered)", p.Answered)
	}
	return s + "."
}
