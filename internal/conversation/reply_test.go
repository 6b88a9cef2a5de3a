package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tutor/internal/curriculum"
	"github.com/abhisek/tutor/internal/failure"
	"github.com/abhisek/tutor/internal/llm"
)

var mod = curriculum.Module{ID: "http-basics", Title: "HTTP Basics"}

func TestReply(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("GET fetches, POST submits."))
	r := NewLLMReplier(mock)

	got, err := r.Reply(context.Background(), []Turn{
		{Content: "Question 1/3: What does GET do?"},
		{Content: "Welcome!"},
		{FromLearner: true, Content: "what's the difference with POST?"},
	}, mod, "beginner")
	require.NoError(t, err)
	assert.Equal(t, "GET fetches, POST submits.", got)

	call, _ := mock.LastCall()
	require.Len(t, call.Messages, 3)
	assert.Equal(t, llm.RoleUser, call.Messages[0].Role)
	assert.Equal(t, llm.RoleAssistant, call.Messages[1].Role)
	assert.Contains(t, call.Messages[1].Content, "Welcome!")
	assert.Contains(t, call.System, "Module: HTTP Basics")
	assert.Contains(t, call.System, "Learner level: beginner")
}

func TestReply_TailIsBounded(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("ok"))
	tail := make([]Turn, 40)
	for i := range tail {
		tail[i] = Turn{FromLearner: i%2 == 0, Content: "msg"}
	}
	_, err := NewLLMReplier(mock).Reply(context.Background(), tail, mod, "")
	require.NoError(t, err)

	call, _ := mock.LastCall()
	assert.LessOrEqual(t, len(call.Messages), MaxTail+1)
}

func TestReply_Failures(t *testing.T) {
	_, err := NewLLMReplier(llm.NewMockProvider()).Reply(context.Background(), []Turn{{FromLearner: true, Content: "hi"}}, mod, "")
	assert.True(t, failure.Is(err, failure.KindGeneration))

	_, err = NewLLMReplier(llm.NewMockProvider(llm.MockText(""))).Reply(context.Background(), []Turn{{FromLearner: true, Content: "hi"}}, mod, "")
	assert.True(t, failure.Is(err, failure.KindValidation))

	_, err = NewLLMReplier(llm.NewMockProvider()).Reply(context.Background(), nil, mod, "")
	assert.True(t, failure.Is(err, failure.KindValidation))
}
