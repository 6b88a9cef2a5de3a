// Package failure defines the error taxonomy shared by the tutoring
// components. Each collaborator wraps its own errors in a *Error whose Kind
// tells the orchestrator which recovery path applies.
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies an error by the capability that produced it.
type Kind string

const (
	// KindGeneration covers question and conversational reply generation.
	KindGeneration Kind = "generation"

	// KindEvaluation covers answer scoring.
	KindEvaluation Kind = "evaluation"

	// KindPersistence covers durable reads and writes.
	KindPersistence Kind = "persistence"

	// KindValidation covers generated artifacts that failed structural checks.
	KindValidation Kind = "validation"
)

// Error is a classified error. Op names the operation that failed,
// e.g. "supply questions" or "upsert progress".
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s error: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Generation wraps err as a generation failure.
func Generation(op string, err error) *Error {
	return &Error{Kind: KindGeneration, Op: op, Err: err}
}

// Evaluation wraps err as an evaluation failure.
func Evaluation(op string, err error) *Error {
	return &Error{Kind: KindEvaluation, Op: op, Err: err}
}

// Persistence wraps err as a persistence failure.
func Persistence(op string, err error) *Error {
	return &Error{Kind: KindPersistence, Op: op, Err: err}
}

// Validation wraps err as a validation failure.
func Validation(op string, err error) *Error {
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

// Is reports whether any error in err's chain is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var fe *Error
	for err != nil {
		if !errors.As(err, &fe) {
			return false
		}
		if fe.Kind == kind {
			return true
		}
		err = fe.Err
	}
	return false
}
