// Package apperr defines the error kinds shared by the payment and booking flows.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation and for the HTTP/IPN response.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindSignatureMismatch
	KindIllegalState
	KindPaymentProcessing
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindSignatureMismatch:
		return "signature_mismatch"
	case KindIllegalState:
		return "illegal_state"
	case KindPaymentProcessing:
		return "payment_processing"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a classified error. Message is safe to show to callers for
// non-internal kinds; Err carries the underlying cause for logs.
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

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so sentinel comparisons by kind work.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return newf(KindValidation, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return newf(KindNotFound, format, args...)
}

func SignatureMismatch(format string, args ...interface{}) *Error {
	return newf(KindSignatureMismatch, format, args...)
}

func IllegalState(format string, args ...interface{}) *Error {
	return newf(KindIllegalState, format, args...)
}

func PaymentProcessing(format string, args ...interface{}) *Error {
	return newf(KindPaymentProcessing, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return newf(KindConflict, format, args...)
}

// Internal wraps an unexpected failure (database, broker) with context.
func Internal(err error, format string, args ...interface{}) *Error {
	e := newf(KindInternal, format, args...)
	e.Err = err
	return e
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// PublicMessage returns the caller-facing message. Internal and signature
// failures never leak details.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "internal error"
	}
	switch e.Kind {
	case KindInternal:
		return "internal error"
	case KindSignatureMismatch:
		return "invalid request"
	default:
		return e.Message
	}
}
