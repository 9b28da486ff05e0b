// Package apperror defines the error taxonomy shared by the stores, the floor
// services and the HTTP layer.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how the caller should react to it.
type Kind string

const (
	// KindValidation marks malformed input. Never retried.
	KindValidation Kind = "VALIDATION"
	// KindConflict marks valid input that does not fit the current state.
	KindConflict Kind = "CONFLICT"
	// KindNotFound marks a reference to an entity that no longer exists.
	KindNotFound Kind = "NOT_FOUND"
	// KindState marks an illegal lifecycle transition.
	KindState Kind = "STATE"
	// KindForbidden marks an actor without permission for the intent.
	KindForbidden Kind = "FORBIDDEN"
	// KindUnavailable marks a store that could not be reached. Retryable.
	KindUnavailable Kind = "UNAVAILABLE"
	// KindReconciliation marks a multi-entity operation whose compensation failed.
	KindReconciliation Kind = "RECONCILIATION"
)

// Error is the concrete error type returned across package boundaries.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	// Current holds the conflicting record for KindConflict so callers can refresh.
	Current interface{}
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == ""
}

// Sentinels for errors.Is checks.
var (
	ErrValidation     = &Error{Kind: KindValidation}
	ErrConflict       = &Error{Kind: KindConflict}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrState          = &Error{Kind: KindState}
	ErrForbidden      = &Error{Kind: KindForbidden}
	ErrUnavailable    = &Error{Kind: KindUnavailable}
	ErrReconciliation = &Error{Kind: KindReconciliation}
)

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports a state conflict together with the record that caused it.
func Conflict(current interface{}, format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...), Current: current}
}

func NotFound(entity string, id uint) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %d not found", entity, id)}
}

func State(format string, args ...interface{}) *Error {
	return &Error{Kind: KindState, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...interface{}) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// Unavailable wraps a transport failure. Callers may retry.
func Unavailable(op string, err error) *Error {
	return &Error{Kind: KindUnavailable, Op: op, Message: "store unavailable", Err: err}
}

// Reconciliation reports that the primary effect and its compensation both failed,
// leaving the stores diverged.
func Reconciliation(op string, cause, compensation error) *Error {
	return &Error{
		Kind:    KindReconciliation,
		Op:      op,
		Message: fmt.Sprintf("compensation failed after %v", cause),
		Err:     compensation,
	}
}

// KindOf returns the kind of err, or "" for errors outside the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsRetryable reports whether the operation may succeed when repeated unchanged.
func IsRetryable(err error) bool {
	return KindOf(err) == KindUnavailable
}

// CurrentOf returns the conflicting record attached to err, if any.
func CurrentOf(err error) interface{} {
	var e *Error
	if errors.As(err, &e) {
		return e.Current
	}
	return nil
}
