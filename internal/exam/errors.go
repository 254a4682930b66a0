package exam

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or inconsistent input.
	ErrValidation = errors.New("validation failed")
	// ErrInsufficientQuestions marks a part whose pool is smaller than the requested size.
	ErrInsufficientQuestions = errors.New("insufficient questions")
	// ErrIllegalState marks an operation on an examination that was already answered.
	ErrIllegalState = errors.New("illegal state")
	ErrNotFound     = errors.New("not found")
	// ErrInternalConsistency marks data read back from storage that breaks a structural invariant.
	ErrInternalConsistency = errors.New("internal consistency violated")
)

// InsufficientQuestionsError names the part that could not be filled.
type InsufficientQuestionsError struct {
	Part      int // position of the part in the request
	Requested int
	Available int
}

func (e *InsufficientQuestionsError) Error() string {
	return fmt.Sprintf("%v: part %d requests %d questions but only %d match", ErrInsufficientQuestions, e.Part, e.Requested, e.Available)
}

func (e *InsufficientQuestionsError) Unwrap() error { return ErrInsufficientQuestions }

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, kind, id)
}

func inconsistent(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInternalConsistency}, args...)...)
}

func illegalState(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrIllegalState}, args...)...)
}
