package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error so transports can map it to a response without
// inspecting messages.
type Kind int

const (
	// KindInternal is any failure that does not fit another kind.
	KindInternal Kind = iota
	// KindNotFound means a department, document type or document is absent.
	KindNotFound
	// KindConflict means a duplicate name, prefix or reference number.
	KindConflict
	// KindForbidden means the permission policy rejected the actor.
	KindForbidden
	// KindInvalidInput covers malformed fields, bad queries and rejected attachments.
	KindInvalidInput
	// KindAllocationFailed means a counter increment matched nothing.
	KindAllocationFailed
	// KindStorageUnavailable means the store or blob backend could not be reached.
	KindStorageUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindInvalidInput:
		return "invalid_input"
	case KindAllocationFailed:
		return "allocation_failed"
	case KindStorageUnavailable:
		return "storage_unavailable"
	default:
		return "internal"
	}
}

// Error is a classified error carrying a message that is safe to show to callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// New returns a classified error without an underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf is New with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. The cause stays reachable through errors.Unwrap but is
// never part of Message.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-safe message of the first *Error in err's chain.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
