// Package progress converts between session-level progress and the
// durable record kept per learner, module and session kind.
package progress

import (
	"time"

	"github.com/abhisek/tutor/internal/curriculum"
	"github.com/abhisek/tutor/internal/store"
)

// HistoryItem is one evaluated answer.
type HistoryItem struct {
	ID            string
	QuestionID    string
	Question      string
	UserAnswer    string
	CorrectAnswer string
	IsCorrect     bool
	Score         int
	Feedback      string
	Timestamp     time.Time
	TimeSpent     time.Duration
}

// Key identifies a durable record.
type Key struct {
	LearnerID string
	ModuleID  string
	Kind      curriculum.Kind
}

// Record is the durable progress for one Key.
type Record struct {
	Key
	Answered    int
	Correct     int
	Total       int
	Completed   bool
	LastUpdated time.Time
	History     []HistoryItem
}

// AnsweredIDs returns the set of question ids present in the history.
func (r *Record) AnsweredIDs() map[string]bool {
	ids := make(map[string]bool, len(r.History))
	for _, h := range r.History {
		ids[h.QuestionID] = true
	}
	return ids
}

func (k Key) storeKey() store.ProgressKey {
	return store.ProgressKey{LearnerID: k.LearnerID, ModuleID: k.ModuleID, Kind: string(k.Kind)}
}

func toStore(r Record) store.ProgressData {
	history := make([]store.HistoryEntry, len(r.History))
	for i, h := range r.History {
		history[i] = store.HistoryEntry{
			ID:            h.ID,
			QuestionID:    h.QuestionID,
			Question:      h.Question,
			UserAnswer:    h.UserAnswer,
			CorrectAnswer: h.CorrectAnswer,
			IsCorrect:     h.IsCorrect,
			Score:         h.Score,
			Feedback:      h.Feedback,
			Timestamp:     h.Timestamp,
			TimeSpent:     h.TimeSpent,
		}
	}
	return store.ProgressData{
		Answered:    r.Answered,
		Correct:     r.Correct,
		Total:       r.Total,
		Completed:   r.Completed,
		LastUpdated: r.LastUpdated,
		History:     history,
	}
}

func fromStore(key Key, d store.ProgressData) *Record {
	history := make([]HistoryItem, len(d.History))
	for i, h := range d.History {
		history[i] = HistoryItem{
			ID:            h.ID,
			QuestionID:    h.QuestionID,
			Question:      h.Question,
			UserAnswer:    h.UserAnswer,
			CorrectAnswer: h.CorrectAnswer,
			IsCorrect:     h.IsCorrect,
			Score:         h.Score,
			Feedback:      h.Feedback,
			Timestamp:     h.Timestamp,
			TimeSpent:     h.TimeSpent,
		}
	}
	return &Record{
		Key:         key,
		Answered:    d.Answered,
		Correct:     d.Correct,
		Total:       d.Total,
		Completed:   d.Completed,
		LastUpdated: d.LastUpdated,
		History:     history,
	}
}
