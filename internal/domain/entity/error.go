package entity

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a pipeline failure for callers.
type ErrorKind string

const (
	ErrInvalidInput            ErrorKind = "invalid_input"
	ErrUpstreamFetchFailed     ErrorKind = "upstream_fetch_failed"
	ErrContentUnextractable    ErrorKind = "content_unextractable"
	ErrContentTooShort         ErrorKind = "content_too_short"
	ErrMissingCredential       ErrorKind = "missing_credential"
	ErrGenerationTimeout       ErrorKind = "generation_timeout"
	ErrInvalidCredential       ErrorKind = "invalid_credential"
	ErrRateLimited             ErrorKind = "rate_limited"
	ErrUpstreamUnavailable     ErrorKind = "upstream_unavailable"
	ErrUpstreamError           ErrorKind = "upstream_error"
	ErrInvalidUpstreamResponse ErrorKind = "invalid_upstream_response"
	ErrEmptyGenerationResult   ErrorKind = "empty_generation_result"
	ErrUnknown                 ErrorKind = "unknown"
)

// Error is the typed failure returned by the article pipeline.
// Message is safe to show to end users.
type Error struct {
	Kind    ErrorKind
	Message string

	// UpstreamStatus is the status reported by the page host or the
	// generation service, zero when there was none.
	UpstreamStatus int

	// Threshold and Length are set for ErrContentTooShort.
	Threshold int
	Length    int

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ErrorKindOf returns the kind of err, ErrUnknown for foreign errors and
// an empty kind for nil.
func ErrorKindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrUnknown
}

// ErrorMessage returns the user-facing message of err.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
