package vm

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Arithmetic domain errors
// ---------------------------------------------------------------------------

var (
	ErrIntegerDivideByZero     = errors.New("attempt to perform 'n//0'")
	ErrIntegerModuloByZero     = errors.New("attempt to perform 'n%0'")
	ErrNoIntegerRepresentation = errors.New("number has no integer representation")
)

// ---------------------------------------------------------------------------
// Protocol misuse
// ---------------------------------------------------------------------------

var (
	// ErrContinuationConsumed is returned when a continuation is resumed or
	// discarded a second time.
	ErrContinuationConsumed = errors.New("continuation already consumed")

	// ErrNotPaused is returned when resuming something that holds no
	// suspended chain.
	ErrNotPaused = errors.New("call is not paused")

	// ErrNotResumable is returned when a frame that cannot continue after
	// a suspension is asked to resume.
	ErrNotResumable = errors.New("callable cannot be resumed")

	// ErrPauseNotAccepted is returned by a driver configured to reject pauses.
	ErrPauseNotAccepted = errors.New("call chain paused but the executor does not accept pauses")

	// ErrResumeMismatch is returned when a resumed chain does not replay the
	// frames recorded in its continuation.
	ErrResumeMismatch = errors.New("resumed frames do not match the continuation")

	// ErrNotInvocable is returned when an internal resume-only frame is called.
	ErrNotInvocable = errors.New("frame can only be resumed")
)

// ---------------------------------------------------------------------------
// IllegalOperationAttempt
// ---------------------------------------------------------------------------

// IllegalOperationAttempt reports an operator or call applied to a value of
// an unsupported type with no metamethod to fall back on.
type IllegalOperationAttempt struct {
	Verb     string // "perform arithmetic on", "call", "concatenate", ...
	TypeName string

	// Other is set for comparisons, which name both operand types.
	Other string
}

func (e *IllegalOperationAttempt) Error() string {
	if e.Verb == "compare" {
		if e.TypeName == e.Other {
			return fmt.Sprintf("attempt to compare two %s values", e.TypeName)
		}
		return fmt.Sprintf("attempt to compare %s with %s", e.TypeName, e.Other)
	}
	return fmt.Sprintf("attempt to %s a %s value", e.Verb, e.TypeName)
}

func illegal(verb string, v Value) error {
	return &IllegalOperationAttempt{Verb: verb, TypeName: TypeName(v)}
}

// ---------------------------------------------------------------------------
// Runtime errors
// ---------------------------------------------------------------------------

// RuntimeError is an uncaught failure of a call chain together with the
// traceback collected while it propagated.
type RuntimeError struct {
	Err       error
	Traceback Traceback
}

func (e *RuntimeError) Error() string {
	return e.Err.Error()
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// asRuntimeError returns err as a *RuntimeError. An error that only wraps
// one, such as fmt.Errorf("...: %w", re), becomes a new *RuntimeError that
// keeps the wrapping text and continues the inner traceback.
func asRuntimeError(err error) *RuntimeError {
	if re, ok := err.(*RuntimeError); ok {
		return re
	}
	var inner *RuntimeError
	if errors.As(err, &inner) {
		return &RuntimeError{Err: err, Traceback: append(Traceback(nil), inner.Traceback...)}
	}
	return &RuntimeError{Err: err}
}

// HostPanic is a Go panic recovered while running a call chain.
type HostPanic struct {
	Value any
	Stack []byte
}

func (p *HostPanic) Error() string {
	return fmt.Sprintf("panic: %v", p.Value)
}

// Message returns the text a script sees for err: its message, including
// any wrapping context, without traceback decoration.
func Message(err error) string {
	if re, ok := err.(*RuntimeError); ok {
		return re.Err.Error()
	}
	return err.Error()
}
