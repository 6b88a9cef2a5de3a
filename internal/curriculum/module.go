package curriculum

import (
	"errors"
	"fmt"
	"strings"
)

// AllKindsKey is the authored-question key that applies to every session kind.
const AllKindsKey = "all"

// Question is a single prompt issued to a learner. Questions are immutable
// once they enter a session's pool.
type Question struct {
	ID             string     `yaml:"id" json:"id"`
	Prompt         string     `yaml:"prompt" json:"prompt"`
	ExpectedAnswer string     `yaml:"expected_answer" json:"expected_answer"`
	Hint           string     `yaml:"hint,omitempty" json:"hint,omitempty"`
	Explanation    string     `yaml:"explanation,omitempty" json:"explanation,omitempty"`
	Difficulty     Difficulty `yaml:"difficulty,omitempty" json:"difficulty,omitempty"`
	Category       string     `yaml:"category,omitempty" json:"category,omitempty"`
}

// Module is a unit of content a session is run against.
type Module struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Objectives  []string `yaml:"objectives"`

	// Questions holds authored questions keyed by session kind
	// ("practice", "quiz", ...) or AllKindsKey.
	Questions map[string][]Question `yaml:"questions,omitempty"`
}

// AuthoredFor returns the authored questions for the given kind, falling
// back to the questions authored for all kinds. Returns nil if none exist.
func (m Module) AuthoredFor(kind Kind) []Question {
	if qs := m.Questions[string(kind)]; len(qs) > 0 {
		return qs
	}
	return m.Questions[AllKindsKey]
}

// Context renders the module as a short plain-text block for LLM prompts.
func (m Module) Context() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Module: %s\n", m.Title)
	if m.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", m.Description)
	}
	if len(m.Objectives) > 0 {
		b.WriteString("Objectives:\n")
		for _, o := range m.Objectives {
			fmt.Fprintf(&b, "- %s\n", o)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Validate checks that the module is usable in a session.
func (m Module) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return errors.New("module id is empty")
	}
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("module %q: title is empty", m.ID)
	}
	for key, qs := range m.Questions {
		if key != AllKindsKey && !Kind(key).Valid() {
			return fmt.Errorf("module %q: unknown question key %q", m.ID, key)
		}
		seen := make(map[string]bool, len(qs))
		for i, q := range qs {
			if q.ID == "" {
				return fmt.Errorf("module %q: %s question %d has no id", m.ID, key, i+1)
			}
			if seen[q.ID] {
				return fmt.Errorf("module %q: duplicate %s question id %q", m.ID, key, q.ID)
			}
			seen[q.ID] = true
			if strings.TrimSpace(q.Prompt) == "" || strings.TrimSpace(q.ExpectedAnswer) == "" {
				return fmt.Errorf("module %q: question %q needs a prompt and an expected answer", m.ID, q.ID)
			}
		}
	}
	return nil
}
