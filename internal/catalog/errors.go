package catalog

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes catalog failures so callers can tell an unreachable
// backend from a backend that rejected the request.
type ErrorCode string

const (
	// ErrCodeRemoteUnavailable indicates a transport failure reaching the catalog.
	ErrCodeRemoteUnavailable ErrorCode = "REMOTE_UNAVAILABLE"

	// ErrCodeTimeout indicates the catalog did not answer within the request timeout.
	// The operation may or may not have been applied and is never retried.
	ErrCodeTimeout ErrorCode = "TIMEOUT"

	// ErrCodeMalformedResponse indicates a response that is not the expected shape,
	// including an error status embedded in an otherwise valid body.
	ErrCodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE"

	// ErrCodeRejected indicates the catalog explicitly refused the operation.
	ErrCodeRejected ErrorCode = "REJECTED"

	// ErrCodeNotFound indicates the product or chore does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeUnauthorized indicates missing or invalid credentials.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// ErrCodeUnsupportedVersion indicates the catalog is older than MinVersion.
	ErrCodeUnsupportedVersion ErrorCode = "UNSUPPORTED_VERSION"
)

// Error is a failed catalog operation.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op names the catalog operation, e.g. "purchase".
	Op string

	// Message is a human-readable description, often from the remote side.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Op, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error.
func NewError(code ErrorCode, op, message string, cause error) *Error {
	return &Error{Code: code, Op: op, Message: message, Err: cause}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// IsRemoteUnavailable reports whether err is a transport failure.
func IsRemoteUnavailable(err error) bool { return CodeOf(err) == ErrCodeRemoteUnavailable }

// IsTimeout reports whether err is a request timeout.
func IsTimeout(err error) bool { return CodeOf(err) == ErrCodeTimeout }

// IsMalformedResponse reports whether err is an unparseable or error-status response.
func IsMalformedResponse(err error) bool { return CodeOf(err) == ErrCodeMalformedResponse }

// IsRejected reports whether the catalog refused the operation.
func IsRejected(err error) bool { return CodeOf(err) == ErrCodeRejected }

// IsNotFound reports whether the target does not exist.
func IsNotFound(err error) bool { return CodeOf(err) == ErrCodeNotFound }

// IsUnauthorized reports whether the credentials were refused.
func IsUnauthorized(err error) bool { return CodeOf(err) == ErrCodeUnauthorized }

// IsUnsupportedVersion reports whether the catalog is too old.
func IsUnsupportedVersion(err error) bool { return CodeOf(err) == ErrCodeUnsupportedVersion }
