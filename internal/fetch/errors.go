// internal/fetch/errors.go
package fetch

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by errors.Is against an *Error of the same kind
var (
	ErrUnreachable = errors.New("host unreachable")
	ErrHTTPStatus  = errors.New("unexpected HTTP status")
	ErrTimeout     = errors.New("request timeout")
)

// Kind classifies a fetch failure
type Kind string

const (
	KindUnreachable Kind = "UNREACHABLE"
	KindHTTPStatus  Kind = "HTTP_ERROR"
	KindTimeout     Kind = "TIMEOUT"
)

// Error is the uniform failure returned by a Fetcher.
// Callers treat it as recoverable: skip the page or item and continue.
type Error struct {
	Kind       Kind
	URL        string
	StatusCode int
	Err        error
}

// Error implements the error interface
func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTPStatus:
		return fmt.Sprintf("%s: %s: HTTP %d", e.Kind, e.URL, e.StatusCode)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Kind, e.URL, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Kind, e.URL)
	}
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels and other *Error values of the same kind
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnreachable:
		return e.Kind == KindUnreachable
	case ErrHTTPStatus:
		return e.Kind == KindHTTPStatus
	case ErrTimeout:
		return e.Kind == KindTimeout
	}
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// GetStatusCode returns the HTTP status code, 0 when no response was received
func (e *Error) GetStatusCode() int {
	return e.StatusCode
}

// Timeout reports whether the fetch timed out
func (e *Error) Timeout() bool {
	return e.Kind == KindTimeout
}

// Temporary reports whether retrying could help
func (e *Error) Temporary() bool {
	return e.Kind != KindHTTPStatus
}

func newStatusError(url string, code int) *Error {
	return &Error{Kind: KindHTTPStatus, URL: url, StatusCode: code}
}

func newTimeoutError(url string, err error) *Error {
	return &Error{Kind: KindTimeout, URL: url, Err: err}
}

func newUnreachableError(url string, err error) *Error {
	return &Error{Kind: KindUnreachable, URL: url, Err: err}
}
