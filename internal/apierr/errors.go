// Package apierr defines the one error shape every failure in the client is
// coerced into, plus the classifier that turns errors into retry decisions
// and user-facing messages.
package apierr

import (
	"errors"
	"fmt"
)

// Error codes for the closed error taxonomy.
const (
	CodeNetwork = "NETWORK_ERROR"
	CodeQueued  = "QUEUED"
	CodeHTTP    = "HTTP_ERROR"
)

// Error is the normalized error shape. Status is the HTTP status, or 0 for
// anything that never reached the server (network failure, queued mutation).
type Error struct {
	Message string
	Status  int
	Code    string
	Details map[string]any
	Cause   error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ActionID returns the offline-queue action ID for QUEUED errors, or "".
func (e *Error) ActionID() string {
	if e.Code != CodeQueued {
		return ""
	}
	id, _ := e.Details["actionId"].(string)
	return id
}

// IsQueued reports whether the error is the deferred-success signal for a
// mutation handed to the offline queue.
func (e *Error) IsQueued() bool {
	return e.Code == CodeQueued
}

// Network builds the error for a request that never reached the server.
func Network(cause error) *Error {
	msg := "Network error"
	if cause != nil {
		msg = fmt.Sprintf("Network error: %v", cause)
	}
	return &Error{
		Message: msg,
		Status:  0,
		Code:    CodeNetwork,
		Cause:   cause,
	}
}

// Queued builds the deferred-success signal carrying the queued action ID.
func Queued(actionID string) *Error {
	return &Error{
		Message: "You're offline. This action will complete when you reconnect.",
		Status:  0,
		Code:    CodeQueued,
		Details: map[string]any{"actionId": actionID},
	}
}

// HTTP builds the error for a non-2xx response. code may carry a
// server-supplied machine code; details carries the parsed error body.
func HTTP(status int, msg, code string, details map[string]any) *Error {
	if msg == "" {
		msg = fmt.Sprintf("Request failed (HTTP %d)", status)
	}
	if code == "" {
		code = CodeHTTP
	}
	return &Error{
		Message: msg,
		Status:  status,
		Code:    code,
		Details: details,
	}
}

// From coerces any error into an *Error. Non-normalized errors become
// status-0 network errors so callers never see a raw transport failure.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Network(err)
}
