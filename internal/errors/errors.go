package errors

import (
	"errors"
	"fmt"
)

// Exit codes for CLI applications.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitUser indicates a user-related error (invalid input, conflict, etc.).
	ExitUser = 1

	// ExitSystem indicates a system-related error (I/O, permissions, etc.).
	ExitSystem = 2
)

// Kind classifies a pipeline failure. The kind determines whether the
// pipeline rolls back (only failures that occur after a snapshot was taken
// can trigger a restore) and how the CLI reports the outcome.
type Kind int

const (
	// KindUnknown is the zero value; errors without a classification.
	KindUnknown Kind = iota

	// KindValidation covers pre-condition failures: missing manifest or
	// source tree, undetectable platform, snapshot capture errors. These
	// occur before any mutation, so they never trigger rollback.
	KindValidation

	// KindConflict indicates the project is already configured and force
	// was not set, or a different provider is already wired in.
	KindConflict

	// KindTransform covers mutation failures: missing or unpatchable entry
	// point, config parse errors, generator failures.
	KindTransform

	// KindPostValidation indicates the validation gate rejected the
	// mutated tree.
	KindPostValidation

	// KindIO covers unexpected filesystem errors at any stage.
	KindIO
)

// String returns the string representation of the failure kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindTransform:
		return "transform"
	case KindPostValidation:
		return "post-validation"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Failure wraps an error with its pipeline failure kind.
// It implements the error interface and supports unwrapping.
type Failure struct {
	Kind Kind
	Err  error
}

// Error returns the underlying error message prefixed with the kind.
func (f *Failure) Error() string {
	if f.Err == nil {
		return f.Kind.String() + " failure"
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

// Unwrap returns the underlying error, enabling errors.Is and errors.As
// to examine the chain.
func (f *Failure) Unwrap() error {
	return f.Err
}

// Classify wraps err with the given kind. A nil err returns nil.
// If err already carries a kind it is left untouched.
func Classify(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return err
	}
	return &Failure{Kind: kind, Err: err}
}

// Classifyf wraps a formatted error with the given kind.
func Classifyf(kind Kind, format string, args ...any) error {
	return &Failure{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the failure kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnknown
}

// ExitError wraps an error with an exit code and optional suggestion for
// CLI applications. It implements the error interface and supports
// unwrapping via errors.Unwrap.
type ExitError struct {
	// Err is the underlying error that caused the exit.
	Err error

	// Code is the exit code to return to the operating system.
	Code int

	// Suggestion is an optional actionable suggestion for the user.
	Suggestion string
}

// NewExitError creates an ExitError with the given underlying error and code.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{Err: err, Code: code}
}

// NewUserError creates an ExitError with ExitUser code and a suggestion.
func NewUserError(err error, suggestion string) *ExitError {
	return &ExitError{Err: err, Code: ExitUser, Suggestion: suggestion}
}

// NewSystemError creates an ExitError with ExitSystem code and a suggestion.
func NewSystemError(err error, suggestion string) *ExitError {
	return &ExitError{Err: err, Code: ExitSystem, Suggestion: suggestion}
}

// Error returns the error message from the underlying error.
// If the underlying error is nil, it returns a generic message with the code.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// New mirrors the standard constructor, so callers need only one errors
// import.
func New(text string) error {
	return errors.New(text)
}

// Newf constructs a formatted error.
func Newf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

// As is a passthrough to the standard library, so callers need only one
// errors import.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is is a passthrough to the standard library.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// CodeFor maps a failure kind to a CLI exit code. Conflicts and validation
// problems are user errors; everything else is a system error.
func CodeFor(kind Kind) int {
	switch kind {
	case KindValidation, KindConflict:
		return ExitUser
	default:
		return ExitSystem
	}
}
