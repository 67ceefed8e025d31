package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnavailable wraps transport failures: the request never got an
	// HTTP response.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrNotAuthenticated is returned by Me when there is no valid session.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Error is a non-2xx response from the backend.
type Error struct {
	StatusCode int
	// Detail is the "detail" field of a JSON error body, nil when the body
	// was not JSON or carried no detail.
	Detail *string
	// Body is the raw response text.
	Body string
}

func (e *Error) Error() string {
	if e.Detail != nil {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, *e.Detail)
	}
	return fmt.Sprintf("backend returned %d", e.StatusCode)
}

// Message returns the detail, or fallback when there is none.
func (e *Error) Message(fallback string) string {
	if e.Detail != nil && *e.Detail != "" {
		return *e.Detail
	}
	return fallback
}

// DetailOrBody returns the detail, else the raw body text, else the
// status line.
func (e *Error) DetailOrBody() string {
	if e.Detail != nil && *e.Detail != "" {
		return *e.Detail
	}
	if body := strings.TrimSpace(e.Body); body != "" {
		return body
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func newError(status int, body []byte) *Error {
	e := &Error{StatusCode: status, Body: string(body)}
	var eb ErrorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if text, ok := eb.DetailText(); ok {
			e.Detail = &text
		}
	}
	return e
}

// AsError unwraps err into a backend *Error.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
