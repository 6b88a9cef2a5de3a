// Package tutor drives learning sessions. It turns learner input and the
// results of question supply, evaluation and persistence into actions on
// the session store.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/tutor/internal/conversation"
	"github.com/abhisek/tutor/internal/curriculum"
	"github.com/abhisek/tutor/internal/evaluation"
	"github.com/abhisek/tutor/internal/failure"
	"github.com/abhisek/tutor/internal/level"
	"github.com/abhisek/tutor/internal/logger"
	"github.com/abhisek/tutor/internal/progress"
	"github.com/abhisek/tutor/internal/session"
)

var (
	// ErrNoSession is returned when an operation needs a started session.
	ErrNoSession = errors.New("no active session")

	// ErrEvaluationInFlight is returned when an answer arrives while the
	// previous one is still being evaluated.
	ErrEvaluationInFlight = errors.New("an answer is already being evaluated")
)

// QuestionSupplier provides the question pool for a session.
type QuestionSupplier interface {
	Supply(ctx context.Context, m curriculum.Module, kind curriculum.Kind, count int, difficulty curriculum.Difficulty) []curriculum.Question
}

// AnswerEvaluator grades an answer. It must always return a result.
type AnswerEvaluator interface {
	Evaluate(ctx context.Context, q curriculum.Question, answer string) evaluation.Evaluation
}

// ProgressStore reads and writes durable progress. Persist failures are
// reported but never stop a session.
type ProgressStore interface {
	Persist(ctx context.Context, rec progress.Record) error
	Fetch(ctx context.Context, key progress.Key) *progress.Record
}

// Deps are the collaborators a Tutor is built from. Supplier and
// Evaluator are required; the rest have working defaults.
type Deps struct {
	Supplier  QuestionSupplier
	Evaluator AnswerEvaluator
	Replier   conversation.Replier
	Adjuster  level.Adjuster
	Progress  ProgressStore
	Logger    *logger.Logger

	Now   func() time.Time
	NewID func() string
}

type startRequest struct {
	kind   curriculum.Kind
	module curriculum.Module
}

// Tutor runs one session at a time.
type Tutor struct {
	cfg   Config
	deps  Deps
	log   *logger.Logger
	store *session.Store

	pacer      pacer
	completeMu sync.Mutex
	persisting sync.WaitGroup
	writeMu    sync.Mutex
	lastWrite  chan struct{}

	mu     sync.Mutex
	last   *startRequest
	module curriculum.Module

	// inflight is the session whose answer is being evaluated.
	inflightMu sync.Mutex
	inflight   string
}

// New creates a Tutor. Call Close when done with it.
func New(cfg Config, deps Deps) (*Tutor, error) {
	if deps.Supplier == nil {
		return nil, failure.Validation("create tutor", errors.New("question supplier is required"))
	}
	if deps.Evaluator == nil {
		return nil, failure.Validation("create tutor", errors.New("answer evaluator is required"))
	}
	if deps.Adjuster == nil {
		deps.Adjuster = level.Passthrough{}
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if cfg.LearnerID == "" {
		cfg.LearnerID = DefaultConfig().LearnerID
	}

	return &Tutor{
		cfg:   cfg,
		deps:  deps,
		log:   deps.Logger.With("component", "tutor"),
		store: session.NewStore(),
	}, nil
}

// claim marks an evaluation in flight for session id. It fails when that
// session already has one.
func (t *Tutor) claim(id string) bool {
	t.inflightMu.Lock()
	defer t.inflightMu.Unlock()
	if t.inflight == id {
		return false
	}
	t.inflight = id
	return true
}

func (t *Tutor) release(id string) {
	t.inflightMu.Lock()
	defer t.inflightMu.Unlock()
	if t.inflight == id {
		t.inflight = ""
	}
}

// State returns the current session snapshot.
func (t *Tutor) State() session.State {
	return t.store.State()
}

// Changes signals after the session state changed.
func (t *Tutor) Changes() <-chan struct{} {
	return t.store.Changes()
}

// Wait blocks until background progress writes have finished.
func (t *Tutor) Wait() {
	t.persisting.Wait()
}

// Close cancels pending work, waits for outstanding writes and stops the
// store.
func (t *Tutor) Close() {
	t.pacer.Cancel()
	t.Wait()
	t.store.Close()
}

// StartSession replaces any current session with a new one for module.
// It fails only when the kind is invalid or no questions are available;
// the latter also leaves the session in the error phase.
func (t *Tutor) StartSession(ctx context.Context, kind curriculum.Kind, module curriculum.Module) error {
	if !kind.Valid() {
		return failure.Validation("start session", fmt.Errorf("unknown session kind %q", kind))
	}

	t.pacer.Cancel()

	t.mu.Lock()
	t.last = &startRequest{kind: kind, module: module}
	t.module = module
	t.mu.Unlock()

	id := t.deps.NewID()
	t.store.Dispatch(session.StartSession{
		ID:        id,
		Kind:      kind,
		Title:     fmt.Sprintf("%s: %s", kind.DisplayName(), module.Title),
		ModuleID:  module.ID,
		LearnerID: t.cfg.LearnerID,
		At:        t.deps.Now(),
	})
	log := t.log.With("session", id, "module", module.ID, "kind", kind)

	stored := t.fetch(ctx, progress.Key{LearnerID: t.cfg.LearnerID, ModuleID: module.ID, Kind: kind})
	var prior []progress.HistoryItem
	if stored != nil {
		prior = stored.History
	}
	tier := level.Estimate(prior)

	qs := t.deps.Supplier.Supply(ctx, module, kind, t.cfg.QuestionCount, tier)
	if !t.current(id) {
		log.Debug("session replaced while loading questions")
		return nil
	}
	if len(qs) == 0 {
		err := failure.Generation("start session", errors.New("no questions available"))
		t.store.Dispatch(session.SetError{SessionID: id, Err: err})
		return err
	}
	t.store.Dispatch(session.SetQuestionPool{SessionID: id, Questions: qs})

	if resumable(stored, qs) {
		answered, correct := tally(stored.History)
		t.store.Dispatch(session.UpdateProgress{
			SessionID: id,
			Answered:  answered,
			Correct:   correct,
			Total:     len(qs),
			History:   stored.History,
		})
		log.Info("resuming stored progress", "answered", answered, "total", len(qs))
	}

	st := t.store.State()
	q, ok := st.Session.NextUnanswered(0)
	if !ok {
		t.complete(ctx, id)
		return nil
	}
	log.Info("session started", "questions", len(qs), "tier", tier)
	t.showQuestion(id, q)
	return nil
}

// Retry leaves the error phase: it restores the last shown question, or
// starts the last requested session again when none was ever shown.
func (t *Tutor) Retry(ctx context.Context) error {
	st := t.store.State()
	if st.Session == nil {
		return ErrNoSession
	}
	if st.Phase != session.PhaseError {
		return nil
	}
	if t.store.Recover() {
		return nil
	}

	t.mu.Lock()
	last := t.last
	t.mu.Unlock()
	if last == nil {
		return ErrNoSession
	}
	return t.StartSession(ctx, last.kind, last.module)
}

// current reports whether id is still the active session.
func (t *Tutor) current(id string) bool {
	st := t.store.State()
	return st.Session != nil && st.Session.ID == id
}

func (t *Tutor) fetch(ctx context.Context, key progress.Key) *progress.Record {
	if t.deps.Progress == nil {
		return nil
	}
	return t.deps.Progress.Fetch(ctx, key)
}

// resumable reports whether rec can continue in a session over pool: it
// must be unfinished and every answered question must still be offered.
func resumable(rec *progress.Record, pool []curriculum.Question) bool {
	if rec == nil || rec.Completed || len(rec.History) == 0 {
		return false
	}
	offered := make(map[string]bool, len(pool))
	for _, q := range pool {
		offered[q.ID] = true
	}
	for id := range rec.AnsweredIDs() {
		if !offered[id] {
			return false
		}
	}
	return true
}

func tally(history []progress.HistoryItem) (answered, correct int) {
	for _, h := range history {
		answered++
		if h.IsCorrect {
			correct++
		}
	}
	return answered, correct
}
