package tutor

import (
	"os"
	"strconv"
	"time"
)

// Config controls session pacing and sizing.
type Config struct {
	LearnerID     string
	QuestionCount int
	// QuestionDelay is the pause between feedback and the next question.
	// Zero shows the next question immediately.
	QuestionDelay time.Duration
}

// DefaultConfig returns the defaults used by the CLI.
func DefaultConfig() Config {
	return Config{
		LearnerID:     "local",
		QuestionCount: 5,
		QuestionDelay: 1500 * time.Millisecond,
	}
}

// ConfigFromEnv loads Config from TUTOR_* environment variables on top
// of DefaultConfig. Unparseable values are ignored.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("TUTOR_LEARNER"); v != "" {
		cfg.LearnerID = v
	}
	if v := os.Getenv("TUTOR_QUESTION_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.QuestionCount = n
		}
	}
	if v := os.Getenv("TUTOR_QUESTION_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.QuestionDelay = d
		}
	}
	return cfg
}
