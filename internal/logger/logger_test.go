package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKVs_RedactsSecrets(t *testing.T) {
	got := sanitizeKVs([]any{"api_key", "sk-123", "learner", "ada", "auth_token", "t"})
	assert.Equal(t, []any{"api_key", "[REDACTED]", "learner", "ada", "auth_token", "[REDACTED]"}, got)
}

func TestSanitizeKVs_OddLength(t *testing.T) {
	got := sanitizeKVs([]any{"module", "fractions", "dangling"})
	assert.Equal(t, []any{"module", "fractions", "dangling"}, got)
}

func TestNop_DoesNotPanic(t *testing.T) {
	l := Nop().With("session_id", "abc")
	l.Debug("debug")
	l.Info("info", "k", 1)
	l.Warn("warn")
	l.Error("error", "err", "boom")
	l.Sync()
}
