package caseflow

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the typed failure attached to a cache entry and exposed to view
// code. No raw transport error crosses this boundary: the service layer wraps
// everything it returns, and the store wraps anything that slips through.
type Error struct {
	// Message is safe to render inline next to a failed panel or list.
	Message string
	// StatusCode is the HTTP-equivalent status, 0 when unknown.
	StatusCode int
	// Retryable reports whether RetryPolicy may re-attempt the fetch.
	Retryable bool
	// Cause is the underlying error, if any.
	Cause error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("caseflow: %s (status %d)", e.Message, e.StatusCode)
	}
	return "caseflow: " + e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Transient builds a retryable error (timeouts, 5xx, connection resets).
func Transient(msg string, status int, cause error) *Error {
	return &Error{Message: msg, StatusCode: status, Retryable: true, Cause: cause}
}

// Terminal builds a non-retryable error (404, malformed request, domain
// validation failure). Terminal errors surface after the first failure.
func Terminal(msg string, status int, cause error) *Error {
	return &Error{Message: msg, StatusCode: status, Retryable: false, Cause: cause}
}

// FromStatus classifies an HTTP status into a typed error. 5xx and 408/429
// are transient; every other non-2xx status is terminal.
func FromStatus(status int, msg string) *Error {
	if msg == "" {
		msg = http.StatusText(status)
	}
	retryable := status >= 500 || status == http.StatusRequestTimeout || status == http.StatusTooManyRequests
	return &Error{Message: msg, StatusCode: status, Retryable: retryable}
}

// AsError coerces err into *Error. Unknown errors are wrapped as retryable so
// transport-level failures (dial errors, timeouts) keep their retry budget.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var qe *Error
	if errors.As(err, &qe) {
		return qe
	}
	return &Error{Message: err.Error(), Retryable: true, Cause: err}
}
