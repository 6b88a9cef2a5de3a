package store

import (
	"context"
	"time"
)

// QueryOpts filters and paginates event queries.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // exact purpose match when set
}

// ProgressKey identifies one durable progress record.
type ProgressKey struct {
	LearnerID string
	ModuleID  string
	Kind      string
}

// HistoryEntry is one answered question as persisted.
type HistoryEntry struct {
	ID            string        `json:"id"`
	QuestionID    string        `json:"question_id"`
	Question      string        `json:"question"`
	UserAnswer    string        `json:"user_answer"`
	CorrectAnswer string        `json:"correct_answer"`
	IsCorrect     bool          `json:"is_correct"`
	Score         int           `json:"score"`
	Feedback      string        `json:"feedback"`
	Timestamp     time.Time     `json:"timestamp"`
	TimeSpent     time.Duration `json:"time_spent"`
}

// ProgressData is the stored state of one progress record.
type ProgressData struct {
	Answered    int
	Correct     int
	Total       int
	Completed   bool
	LastUpdated time.Time
	History     []HistoryEntry
}

// ProgressRow is a stored record together with its key.
type ProgressRow struct {
	Key ProgressKey
	ProgressData
}

// ProgressRepo persists one record per (learner, module, kind).
type ProgressRepo interface {
	// Read returns the record for key, or nil if none exists.
	Read(ctx context.Context, key ProgressKey) (*ProgressData, error)

	// Upsert creates or updates the record for key and returns what was
	// stored. The stored total never decreases.
	Upsert(ctx context.Context, key ProgressKey, data ProgressData) (ProgressData, error)

	// List returns every record for a learner, most recently updated first.
	List(ctx context.Context, learnerID string) ([]ProgressRow, error)
}

// LLMRequestEventData captures a single model request.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored model request event.
type LLMRequestEventRecord struct {
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// EventRepo appends and queries model request events.
type EventRepo interface {
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMRequests returns matching events, newest first.
	QueryLLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)
}

// mergeProgress applies next on top of the stored record prev (which may
// be nil). The stored total is the larger of the two, and completion
// only survives when every question of that total was answered.
func mergeProgress(prev *ProgressData, next ProgressData) ProgressData {
	merged := next
	if prev != nil && prev.Total > merged.Total {
		merged.Total = prev.Total
	}
	if merged.Answered > merged.Total {
		merged.Answered = merged.Total
	}
	if merged.Correct > merged.Answered {
		merged.Correct = merged.Answered
	}
	merged.Completed = next.Completed && merged.Answered >= merged.Total
	if merged.LastUpdated.IsZero() {
		merged.LastUpdated = time.Now()
	}
	if merged.History == nil {
		merged.History = []HistoryEntry{}
	}
	return merged
}
