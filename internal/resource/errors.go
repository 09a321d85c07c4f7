package resource

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// Error is the single failure type returned by the façade. Error() is the
// human-readable message; field-level validation detail stays on the value for the
// form layer to re-attach.
type Error struct {
	Status  int // 0 when no HTTP response was obtained
	Message string
	Fields  map[string][]string
	Cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Cause }

// IsNetwork reports a transport failure (no response).
func (e *Error) IsNetwork() bool { return e.Status == 0 }

func (e *Error) IsValidation() bool {
	return e.Status == http.StatusUnprocessableEntity || e.Status == http.StatusBadRequest
}

// FieldError returns the first message recorded for field.
func (e *Error) FieldError(field string) string {
	if msgs := e.Fields[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// AsError extracts *Error from err.
func AsError(err error) (*Error, bool) {
	var re *Error
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// ErrorEnvelope is the backend error body.
type ErrorEnvelope struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func networkError(err error) *Error {
	return &Error{Message: "network error: " + err.Error(), Cause: err}
}

// responseError builds the error for a non-2xx response. The message comes from
// the envelope, then a plain "error" string, then the status text.
func responseError(status int, body []byte) *Error {
	e := &Error{Status: status}

	var env struct {
		ErrorEnvelope
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		e.Message = strings.TrimSpace(env.Message)
		if e.Message == "" {
			e.Message = strings.TrimSpace(env.Error)
		}
		e.Fields = env.Errors
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	if e.Message == "" {
		e.Message = "request failed"
	}
	return e
}
