package session

import (
	"sync"
	"sync/atomic"
	"time"
)

type dispatch struct {
	action Action
	done   chan State
}

// Store applies actions one at a time on its own goroutine. Readers get
// immutable snapshots without locking.
type Store struct {
	queue   chan dispatch
	state   atomic.Pointer[State]
	changes chan struct{}
	closed  chan struct{}
	once    sync.Once
	now     func() time.Time
}

// NewStore starts a store with an empty state. Call Close to stop it.
func NewStore() *Store {
	s := &Store{
		queue:   make(chan dispatch),
		changes: make(chan struct{}, 1),
		closed:  make(chan struct{}),
		now:     time.Now,
	}
	s.state.Store(&State{})
	go s.loop()
	return s
}

func (s *Store) loop() {
	for {
		select {
		case d := <-s.queue:
			next := Reduce(*s.state.Load(), d.action)
			s.state.Store(&next)
			d.done <- next
			select {
			case s.changes <- struct{}{}:
			default:
			}
		case <-s.closed:
			return
		}
	}
}

// Dispatch applies a and returns the resulting state. After Close it
// returns the last state without applying anything.
func (s *Store) Dispatch(a Action) State {
	select {
	case <-s.closed:
		return s.State()
	default:
	}
	d := dispatch{action: a, done: make(chan State, 1)}
	select {
	case s.queue <- d:
		return <-d.done
	case <-s.closed:
		return s.State()
	}
}

// State returns the latest snapshot.
func (s *Store) State() State {
	return *s.state.Load()
}

// Changes signals after actions are applied. Signals coalesce: one
// receive may stand for many changes, so readers should call State.
func (s *Store) Changes() <-chan struct{} {
	return s.changes
}

// Recover restores the last successful question selection of an errored
// session. It reports whether the session is awaiting an answer again.
func (s *Store) Recover() bool {
	st := s.State()
	if !st.CanRecover() {
		return false
	}
	next := s.Dispatch(recoverSelection{sessionID: st.Session.ID, at: s.now()})
	return next.Phase == PhaseAwaitingAnswer
}

// Close stops the store goroutine. It is safe to call more than once.
func (s *Store) Close() {
	s.once.Do(func() { close(s.closed) })
}
