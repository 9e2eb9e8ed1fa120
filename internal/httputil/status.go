// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across source adapters and
// the execution engine: typed status errors and transient-failure
// classification.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
)

// StatusError reports a non-2xx HTTP response. The engine uses the code to
// decide whether a failure is transient (retryable) or terminal.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.Code, e.Status)
}

// CheckStatus returns nil for 2xx responses. For anything else it drains
// and closes the body and returns a *StatusError so the caller does not
// leak the connection.
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return &StatusError{Code: resp.StatusCode, Status: resp.Status}
}

// RateLimited reports whether err is an HTTP 429.
func RateLimited(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusTooManyRequests
}

// Transient reports whether err is worth retrying: rate-limit signals,
// server-side errors, timeouts, and cancelled-by-deadline contexts.
// Client errors other than 429 and malformed payloads are terminal.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return false
}
