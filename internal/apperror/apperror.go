package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

// Kind classifies an operational error and fixes its HTTP status.
type Kind string

const (
	KindValidation        Kind = "validation_error"
	KindInvalidIdentifier Kind = "invalid_identifier"
	KindDuplicateKey      Kind = "duplicate_key"
	KindInvalidToken      Kind = "invalid_token"
	KindTokenExpired      Kind = "token_expired"
	KindUnauthenticated   Kind = "unauthenticated"
	KindForbidden         Kind = "forbidden"
	KindNotFound          Kind = "not_found"
	KindInvalidSignature  Kind = "invalid_signature"
	KindInternal          Kind = "internal"
)

// Error is an anticipated, user-facing failure. Anything that is not an
// *Error is treated as a programming fault and never leaks details to the
// client.
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

// New creates an operational error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an operational error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches an underlying cause to an operational error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Status maps a kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindInvalidIdentifier, KindDuplicateKey, KindInvalidSignature:
		return http.StatusBadRequest
	case KindInvalidToken, KindTokenExpired, KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// StatusWord returns the response envelope status for a kind:
// "fail" for 4xx, "error" for everything else.
func (k Kind) StatusWord() string {
	if s := k.Status(); s >= 400 && s < 500 {
		return "fail"
	}
	return "error"
}

// IsOperational reports whether err is safe to surface to a client.
func IsOperational(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind != KindInternal
}

// KindOf extracts the kind of an error, defaulting to KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ClientMessage returns the user-facing message for an error: the
// operational message when safe, a generic one otherwise. The wrapped
// cause never leaks.
func ClientMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "something went very wrong"
}

// Is reports whether err is an operational error of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// FromDB classifies a database error. Record-not-found becomes NotFound,
// unique-constraint violations become DuplicateKey, anything else stays
// internal.
func FromDB(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Newf(KindNotFound, "no %s found with that ID", resource)
	}
	if isUniqueViolation(err) {
		return New(KindDuplicateKey, "duplicate field value, please use another value")
	}
	return Wrap(KindInternal, "database operation failed", err)
}

// isUniqueViolation matches the unique-constraint messages of postgres
// (SQLSTATE 23505) and sqlite (used by the test database).
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
