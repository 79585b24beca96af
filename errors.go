package pyclaw

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies provider errors by how they should be handled.
type ErrorKind string

const (
	// KindTransient errors may succeed on retry: rate limits, overload, network.
	KindTransient ErrorKind = "transient"
	// KindPermanent errors will not succeed on retry: bad key, unknown model.
	KindPermanent ErrorKind = "permanent"
	// KindUserInput errors are caused by the request itself.
	KindUserInput ErrorKind = "user_input"
)

// Error is a categorized backend error.
type Error struct {
	Provider   ProviderName
	Kind       ErrorKind
	StatusCode int
	RetryAfter time.Duration
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (%d)", msg, e.StatusCode)
	}
	if e.Provider != "" {
		msg = string(e.Provider) + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the error is transient.
func (e *Error) Retryable() bool { return e.Kind == KindTransient }

// NewError builds a categorized error.
func NewError(provider ProviderName, kind ErrorKind, status int, msg string, err error) *Error {
	return &Error{Provider: provider, Kind: kind, StatusCode: status, Message: msg, Err: err}
}

// KindForStatus maps an HTTP status code to an error kind.
func KindForStatus(code int) ErrorKind {
	switch {
	case code == 429, code == 408, code >= 500:
		return KindTransient
	case code == 400, code == 413, code == 422:
		return KindUserInput
	default:
		return KindPermanent
	}
}

// MessageForStatus returns a short human description of a status code.
func MessageForStatus(code int) string {
	switch code {
	case 400:
		return "invalid request"
	case 401:
		return "authentication failed"
	case 403:
		return "permission denied"
	case 404:
		return "model or endpoint not found"
	case 408:
		return "request timeout"
	case 413:
		return "request too large"
	case 429:
		return "rate limited"
	}
	if code >= 500 {
		return "server error"
	}
	return "request failed"
}

func kindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsTransient reports whether err is a categorized transient error.
func IsTransient(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindTransient
}

// IsPermanent reports whether err is a categorized permanent error.
func IsPermanent(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindPermanent
}

// IsUserInput reports whether err is a categorized user input error.
func IsUserInput(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindUserInput
}

// RetryAfterOf returns the server suggested retry delay, or 0.
func RetryAfterOf(err error) time.Duration {
	var e *Error
	if errors.As(err, &e) {
		return e.RetryAfter
	}
	return 0
}
