package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tutor/internal/curriculum"
)

func newStartedStore(t *testing.T) *Store {
	t.Helper()
	st := NewStore()
	t.Cleanup(st.Close)
	st.Dispatch(StartSession{ID: "s1", Kind: curriculum.KindQuiz, At: t0})
	st.Dispatch(SetQuestionPool{SessionID: "s1", Questions: pool()})
	st.Dispatch(SetCurrentQuestion{SessionID: "s1", QuestionID: "q1", At: t0})
	return st
}

func TestStore_DispatchReturnsAppliedState(t *testing.T) {
	st := NewStore()
	defer st.Close()

	assert.Equal(t, PhaseEmpty, st.State().Phase)

	got := st.Dispatch(StartSession{ID: "s1"})
	assert.Equal(t, PhaseLoadingQuestions, got.Phase)
	assert.Equal(t, got, st.State())
}

func TestStore_ChangesSignal(t *testing.T) {
	st := NewStore()
	defer st.Close()

	st.Dispatch(StartSession{ID: "s1"})
	select {
	case <-st.Changes():
	case <-time.After(time.Second):
		t.Fatal("no change signal")
	}

	// Many dispatches coalesce into a pending signal.
	for i := range 5 {
		st.Dispatch(AppendTutorMessage{SessionID: "s1", Message: Message{Content: fmt.Sprint(i)}})
	}
	<-st.Changes()
	assert.Len(t, st.State().Session.Transcript, 5)
}

func TestStore_ConcurrentDispatchKeepsEveryAction(t *testing.T) {
	st := newStartedStore(t)

	const writers, each = 8, 25
	var wg sync.WaitGroup
	for w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range each {
				st.Dispatch(AppendLearnerMessage{SessionID: "s1", Message: Message{ID: fmt.Sprintf("w%d-%d", w, i), Content: "x"}})
			}
		}()
	}
	wg.Wait()

	tr := st.State().Session.Transcript
	require.Len(t, tr, writers*each)

	// Per-writer order is preserved.
	next := map[int]int{}
	for _, m := range tr {
		var w, i int
		_, err := fmt.Sscanf(m.ID, "w%d-%d", &w, &i)
		require.NoError(t, err)
		assert.Equal(t, next[w], i)
		next[w] = i + 1
	}
}

func TestStore_SnapshotsAreStable(t *testing.T) {
	st := newStartedStore(t)
	snap := st.State()

	st.Dispatch(AppendTutorMessage{SessionID: "s1", Message: Message{Content: "hello"}})
	st.Dispatch(SetCurrentQuestion{SessionID: "s1", QuestionID: "q2"})

	assert.Empty(t, snap.Session.Transcript)
	assert.Equal(t, "q1", snap.Session.CurrentQuestionID)
	assert.Equal(t, "q2", st.State().Session.CurrentQuestionID)
}

func TestStore_Recover(t *testing.T) {
	st := newStartedStore(t)
	later := t0.Add(time.Hour)
	st.now = func() time.Time { return later }

	assert.False(t, st.Recover(), "nothing to recover while healthy")

	st.Dispatch(SetError{SessionID: "s1", Err: errors.New("provider down")})
	require.True(t, st.State().CanRecover())

	assert.True(t, st.Recover())
	s := st.State()
	assert.Equal(t, PhaseAwaitingAnswer, s.Phase)
	assert.Equal(t, later, s.Session.QuestionShownAt)
}

func TestStore_RecoverWithoutSession(t *testing.T) {
	st := NewStore()
	defer st.Close()
	assert.False(t, st.Recover())
}

func TestStore_DispatchAfterClose(t *testing.T) {
	st := newStartedStore(t)
	before := st.State()

	st.Close()
	st.Close()

	got := st.Dispatch(AppendTutorMessage{SessionID: "s1", Message: Message{Content: "late"}})
	assert.Equal(t, before, got)
	assert.Empty(t, st.State().Session.Transcript)
}
