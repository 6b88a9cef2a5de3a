package questions

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tutor/internal/curriculum"
	"github.com/abhisek/tutor/internal/llm"
)

var solar = curriculum.Module{
	ID:         "solar-system",
	Title:      "The Solar System",
	Objectives: []string{"name the planets in order", "explain why planets orbit the sun"},
}

type genFunc func(ctx context.Context, input GenerateInput) ([]curriculum.Question, error)

func (f genFunc) Generate(ctx context.Context, input GenerateInput) ([]curriculum.Question, error) {
	return f(ctx, input)
}

func questionsN(n int) []curriculum.Question {
	out := make([]curriculum.Question, n)
	for i := range out {
		out[i] = curriculum.Question{
			Prompt:         "Which planet is number " + string(rune('1'+i)) + "?",
			ExpectedAnswer: "planet " + string(rune('a'+i)),
		}
	}
	return out
}

func TestSupply_AuthoredSkipsGeneration(t *testing.T) {
	calls := 0
	s := NewSupplier(genFunc(func(context.Context, GenerateInput) ([]curriculum.Question, error) {
		calls++
		return nil, nil
	}), DefaultConfig(), nil)

	m := solar
	m.Questions = map[string][]curriculum.Question{
		curriculum.AllKindsKey: {
			{ID: "a", Prompt: "First planet?", ExpectedAnswer: "Mercury"},
			{ID: "b", Prompt: "Largest planet?", ExpectedAnswer: "Jupiter"},
			{ID: "c", Prompt: "Ringed planet?", ExpectedAnswer: "Saturn"},
		},
	}

	qs, src := s.SupplyWithSource(context.Background(), m, curriculum.KindQuiz, 2, curriculum.DifficultyBeginner)
	assert.Equal(t, SourceAuthored, src)
	assert.Equal(t, 0, calls)
	require.Len(t, qs, 2)
	assert.Equal(t, "a", qs[0].ID)
}

func TestSupply_GeneratesAndSanitizes(t *testing.T) {
	s := NewSupplier(genFunc(func(_ context.Context, in GenerateInput) ([]curriculum.Question, error) {
		assert.Equal(t, 5, in.Count)
		assert.Equal(t, curriculum.DifficultyIntermediate, in.Difficulty)
		return []curriculum.Question{
			{Prompt: "Largest planet?", ExpectedAnswer: "Jupiter", Hint: "It starts with JUPITER's letter J"},
			{Prompt: "", ExpectedAnswer: "dropped"},
			{Prompt: "Dropped too", ExpectedAnswer: "  "},
			{ID: "dup", Prompt: "Closest planet?", ExpectedAnswer: "Mercury", Hint: "Fast and hot."},
			{ID: "dup", Prompt: "Coldest planet?", ExpectedAnswer: "Neptune"},
		}, nil
	}), DefaultConfig(), nil)

	qs, src := s.SupplyWithSource(context.Background(), solar, curriculum.KindQuiz, 0, curriculum.DifficultyIntermediate)
	assert.Equal(t, SourceGenerated, src)
	require.Len(t, qs, 3)

	assert.Equal(t, HintRedirect, qs[0].Hint, "hint leaking the answer is replaced")
	assert.Equal(t, "Fast and hot.", qs[1].Hint)
	assert.NotEmpty(t, qs[0].ID)

	ids := map[string]bool{}
	for _, q := range qs {
		assert.False(t, ids[q.ID], "duplicate id %s", q.ID)
		ids[q.ID] = true
	}
}

func TestSupply_StableIDsForIdenticalPrompts(t *testing.T) {
	s := NewSupplier(genFunc(func(context.Context, GenerateInput) ([]curriculum.Question, error) {
		return []curriculum.Question{{Prompt: "Largest planet?", ExpectedAnswer: "Jupiter"}}, nil
	}), Config{}, nil)

	first := s.Supply(context.Background(), solar, curriculum.KindQuiz, 1, curriculum.DifficultyBeginner)
	second := s.Supply(context.Background(), solar, curriculum.KindReview, 1, curriculum.DifficultyBeginner)
	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestSupply_FallbackOnFailure(t *testing.T) {
	tests := []struct {
		name string
		gen  Generator
	}{
		{"generator error", genFunc(func(context.Context, GenerateInput) ([]curriculum.Question, error) {
			return nil, errors.New("provider down")
		})},
		{"nothing valid", genFunc(func(context.Context, GenerateInput) ([]curriculum.Question, error) {
			return []curriculum.Question{{Prompt: "no answer"}}, nil
		})},
		{"empty result", genFunc(func(context.Context, GenerateInput) ([]curriculum.Question, error) {
			return nil, nil
		})},
		{"no generator", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSupplier(tt.gen, DefaultConfig(), nil)
			qs, src := s.SupplyWithSource(context.Background(), solar, curriculum.KindPractice, 5, curriculum.DifficultyBeginner)
			assert.Equal(t, SourceFallback, src)
			require.Len(t, qs, FallbackSize)
			for _, q := range qs {
				assert.NotEmpty(t, q.Prompt)
				assert.NotEmpty(t, q.ExpectedAnswer)
			}
		})
	}
}

func TestSupply_CacheAvoidsSecondCall(t *testing.T) {
	var calls atomic.Int32
	s := NewSupplier(genFunc(func(context.Context, GenerateInput) ([]curriculum.Question, error) {
		calls.Add(1)
		return questionsN(3), nil
	}), DefaultConfig(), nil)

	_, src := s.SupplyWithSource(context.Background(), solar, curriculum.KindQuiz, 3, curriculum.DifficultyBeginner)
	assert.Equal(t, SourceGenerated, src)
	qs, src := s.SupplyWithSource(context.Background(), solar, curriculum.KindQuiz, 3, curriculum.DifficultyBeginner)
	assert.Equal(t, SourceCached, src)
	assert.Len(t, qs, 3)
	assert.EqualValues(t, 1, calls.Load())

	// A different tier is a different set.
	s.Supply(context.Background(), solar, curriculum.KindQuiz, 3, curriculum.DifficultyAdvanced)
	assert.EqualValues(t, 2, calls.Load())
}

func TestSupply_FailuresAreNotCached(t *testing.T) {
	var calls atomic.Int32
	s := NewSupplier(genFunc(func(context.Context, GenerateInput) ([]curriculum.Question, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("flaky")
		}
		return questionsN(2), nil
	}), DefaultConfig(), nil)

	_, src := s.SupplyWithSource(context.Background(), solar, curriculum.KindQuiz, 2, curriculum.DifficultyBeginner)
	assert.Equal(t, SourceFallback, src)
	_, src = s.SupplyWithSource(context.Background(), solar, curriculum.KindQuiz, 2, curriculum.DifficultyBeginner)
	assert.Equal(t, SourceGenerated, src)
}

func TestSupply_CoalescesConcurrentRequests(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	s := NewSupplier(genFunc(func(context.Context, GenerateInput) ([]curriculum.Question, error) {
		calls.Add(1)
		<-release
		return questionsN(2), nil
	}), Config{}, nil)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			qs := s.Supply(context.Background(), solar, curriculum.KindQuiz, 2, curriculum.DifficultyBeginner)
			assert.Len(t, qs, 2)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(4))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestSupply_TruncatesToCount(t *testing.T) {
	s := NewSupplier(genFunc(func(context.Context, GenerateInput) ([]curriculum.Question, error) {
		return questionsN(8), nil
	}), DefaultConfig(), nil)
	assert.Len(t, s.Supply(context.Background(), solar, curriculum.KindQuiz, 4, curriculum.DifficultyBeginner), 4)
}

func TestFallback(t *testing.T) {
	qs := Fallback(solar)
	require.Len(t, qs, FallbackSize)
	assert.Contains(t, qs[0].Prompt, "name the planets in order")
	assert.Contains(t, qs[1].Prompt, "explain why planets orbit the sun")
	assert.Equal(t, "solar-system-fallback-1", qs[0].ID)

	bare := Fallback(curriculum.Module{ID: "empty"})
	require.Len(t, bare, FallbackSize)
	assert.Contains(t, bare[0].Prompt, "the main ideas of empty")
}

func TestLLMGenerator(t *testing.T) {
	body, _ := json.Marshal(map[string]any{
		"questions": []map[string]any{{
			"prompt":          "Which planet is closest to the sun?",
			"expected_answer": "Mercury",
			"hint":            "It is also the smallest.",
			"explanation":     "Mercury orbits nearest.",
			"difficulty":      "beginner",
			"category":        "order",
		}},
	})
	mock := llm.NewMockProvider(llm.MockResponse{Content: body})

	qs, err := NewLLMGenerator(mock).Generate(context.Background(), GenerateInput{
		Module: solar, Kind: curriculum.KindQuiz, Count: 1, Difficulty: curriculum.DifficultyBeginner,
	})
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "Mercury", qs[0].ExpectedAnswer)
	assert.Equal(t, curriculum.DifficultyBeginner, qs[0].Difficulty)

	call, _ := mock.LastCall()
	assert.Equal(t, QuestionSetSchema, call.Schema)
	assert.Contains(t, call.Messages[0].Content, "Module: The Solar System")
	assert.Contains(t, call.Messages[0].Content, "Number of questions: 1")
}

func TestLLMGenerator_ProviderErrorPropagates(t *testing.T) {
	_, err := NewLLMGenerator(llm.NewMockProvider()).Generate(context.Background(), GenerateInput{Module: solar, Count: 1})
	assert.Error(t, err)
}
