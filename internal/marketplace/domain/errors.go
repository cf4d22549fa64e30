package domain

import (
	"errors"
	"fmt"
)

// Kind classifies errors surfaced to callers.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindValidation        Kind = "validation"
	KindForbidden         Kind = "forbidden"
	KindTransientDelivery Kind = "transient_delivery"
)

// Error carries a kind and a human-readable message. errors.Is matches on
// kind, so errors.Is(err, ErrConflict) holds for any conflict.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrConflict          = &Error{Kind: KindConflict, Message: "conflict"}
	ErrValidation        = &Error{Kind: KindValidation, Message: "invalid input"}
	ErrForbidden         = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrTransientDelivery = &Error{Kind: KindTransientDelivery, Message: "notification delivery failed"}
)

func NotFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Forbiddenf(format string, args ...any) error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// TransientDelivery wraps a dispatch failure.
func TransientDelivery(err error) error {
	return &Error{Kind: KindTransientDelivery, Message: "notification delivery failed", Err: err}
}

// KindOf returns the kind of err, or "" for errors outside the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
