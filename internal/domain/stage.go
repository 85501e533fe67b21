package domain

import "fmt"

// Failure is the typed error half of a StageResult. The coordinator and
// engine branch on Kind, never on raised errors, so fan-in behavior stays
// explicit and testable.
type Failure struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Error implements the error interface for logging and wrapping.
func (f *Failure) Error() string {
	return fmt.Sprintf("[%s] %s", f.Kind, f.Message)
}

// StageResult is the tagged union returned by every stage invocation:
// either a value or a typed failure, never both.
type StageResult[T any] struct {
	value   T
	failure *Failure
}

// OkResult wraps a successful stage value.
func OkResult[T any](v T) StageResult[T] {
	return StageResult[T]{value: v}
}

// FailedResult wraps a typed stage failure.
func FailedResult[T any](kind ErrorKind, message string) StageResult[T] {
	return StageResult[T]{failure: &Failure{Kind: kind, Message: message}}
}

// IsOk reports whether the stage produced a value.
func (r StageResult[T]) IsOk() bool { return r.failure == nil }

// Value returns the stage value. Only meaningful when IsOk is true.
func (r StageResult[T]) Value() T { return r.value }

// Failure returns the typed failure, or nil on success.
func (r StageResult[T]) Failure() *Failure { return r.failure }
