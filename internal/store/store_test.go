package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "tutor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"},
	}
	for _, tt := range tests {
		var got string
		require.NoError(t, s.DB().QueryRow("PRAGMA "+tt.pragma).Scan(&got))
		assert.Equal(t, tt.want, got, "PRAGMA %s", tt.pragma)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tutor.db")
	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

var testKey = ProgressKey{LearnerID: "ada", ModuleID: "fractions-basics", Kind: "quiz"}

func repos(t *testing.T) map[string]ProgressRepo {
	return map[string]ProgressRepo{
		"sqlite": openTestStore(t).ProgressRepo(),
		"memory": NewMemoryProgressRepo(),
	}
}

func TestProgressRepo_ReadMissing(t *testing.T) {
	for name, repo := range repos(t) {
		t.Run(name, func(t *testing.T) {
			got, err := repo.Read(context.Background(), testKey)
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestProgressRepo_UpsertRoundTrip(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_000)
	for name, repo := range repos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			data := ProgressData{
				Answered:    1,
				Correct:     1,
				Total:       3,
				LastUpdated: at,
				History: []HistoryEntry{{
					ID: "h1", QuestionID: "frac-q1", UserAnswer: "1/2", IsCorrect: true,
					Score: 100, Timestamp: at, TimeSpent: 4 * time.Second,
				}},
			}
			_, err := repo.Upsert(ctx, testKey, data)
			require.NoError(t, err)

			got, err := repo.Read(ctx, testKey)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, 1, got.Answered)
			assert.Equal(t, 3, got.Total)
			assert.True(t, got.LastUpdated.Equal(at))
			require.Len(t, got.History, 1)
			assert.Equal(t, "frac-q1", got.History[0].QuestionID)
			assert.Equal(t, 4*time.Second, got.History[0].TimeSpent)
		})
	}
}

func TestProgressRepo_SingleRowPerKey(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProgressRepo()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := repo.Upsert(ctx, testKey, ProgressData{Answered: i, Correct: i, Total: 3, Completed: i == 3})
		require.NoError(t, err)
	}

	var n int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM progress_records`).Scan(&n))
	assert.Equal(t, 1, n)

	got, err := repo.Read(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Answered)
	assert.True(t, got.Completed)
}

func TestProgressRepo_TotalNeverDecreases(t *testing.T) {
	for name, repo := range repos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := repo.Upsert(ctx, testKey, ProgressData{Answered: 2, Total: 5})
			require.NoError(t, err)

			// A later, smaller session claims completion of its 3 questions.
			stored, err := repo.Upsert(ctx, testKey, ProgressData{Answered: 3, Correct: 3, Total: 3, Completed: true})
			require.NoError(t, err)
			assert.Equal(t, 5, stored.Total)
			assert.False(t, stored.Completed, "completion needs every question of the stored total")

			got, err := repo.Read(ctx, testKey)
			require.NoError(t, err)
			assert.Equal(t, 5, got.Total)
			assert.False(t, got.Completed)
		})
	}
}

func TestProgressRepo_IdempotentUpsert(t *testing.T) {
	for name, repo := range repos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			data := ProgressData{Answered: 2, Correct: 1, Total: 4, LastUpdated: time.UnixMilli(42)}
			first, err := repo.Upsert(ctx, testKey, data)
			require.NoError(t, err)
			second, err := repo.Upsert(ctx, testKey, data)
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}

func TestProgressRepo_ConcurrentUpserts(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProgressRepo()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Upsert(ctx, testKey, ProgressData{Answered: i % 4, Total: 4})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var n int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM progress_records`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestProgressRepo_List(t *testing.T) {
	for name, repo := range repos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i, mod := range []string{"a", "b", "c"} {
				_, err := repo.Upsert(ctx, ProgressKey{LearnerID: "ada", ModuleID: mod, Kind: "quiz"},
					ProgressData{Total: 1, LastUpdated: time.UnixMilli(int64(1000 * (i + 1)))})
				require.NoError(t, err)
			}
			_, err := repo.Upsert(ctx, ProgressKey{LearnerID: "bob", ModuleID: "a", Kind: "quiz"}, ProgressData{Total: 1})
			require.NoError(t, err)

			rows, err := repo.List(ctx, "ada")
			require.NoError(t, err)
			require.Len(t, rows, 3)
			assert.Equal(t, "c", rows[0].Key.ModuleID)
			assert.Equal(t, "a", rows[2].Key.ModuleID)
		})
	}
}

func TestEventRepo_AppendAndQuery(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for i := range 5 {
		purpose := "answer-eval"
		if i%2 == 0 {
			purpose = "question-set"
		}
		require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{
			Provider:     "mock",
			Model:        "mock",
			Purpose:      purpose,
			InputTokens:  10 * i,
			Success:      i != 3,
			ErrorMessage: fmt.Sprintf("err-%d", i),
		}))
	}

	all, err := repo.QueryLLMRequests(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Greater(t, all[0].Sequence, all[4].Sequence, "newest first")
	assert.False(t, all[1].Success)

	limited, err := repo.QueryLLMRequests(ctx, QueryOpts{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	sets, err := repo.QueryLLMRequests(ctx, QueryOpts{Purpose: "question-set"})
	require.NoError(t, err)
	assert.Len(t, sets, 3)

	after, err := repo.QueryLLMRequests(ctx, QueryOpts{After: all[2].Sequence})
	require.NoError(t, err)
	assert.Len(t, after, 2)
}

func TestMergeProgress(t *testing.T) {
	got := mergeProgress(nil, ProgressData{Answered: 5, Correct: 7, Total: 3, Completed: true})
	assert.Equal(t, 3, got.Answered)
	assert.Equal(t, 3, got.Correct)
	assert.True(t, got.Completed)
	assert.NotNil(t, got.History)
	assert.False(t, got.LastUpdated.IsZero())
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("TUTOR_DB", filepath.Join(dir, "nested", "x.db"))
	p, err := DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nested", "x.db"), p)
	assert.DirExists(t, filepath.Join(dir, "nested"))

	t.Setenv("TUTOR_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)
	p, err = DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tutor", "tutor.db"), p)
}
