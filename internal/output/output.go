// Package output provides JSON output envelopes and exit-code mapping for
// the CLI.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ajopay/ajo-cli/internal/apierr"
)

// Exit codes.
const (
	ExitOK        = 0 // Success (including queued-for-later mutations)
	ExitUsage     = 1 // Invalid arguments or flags
	ExitNotFound  = 2 // Resource not found
	ExitAuth      = 3 // Not authenticated / session expired
	ExitForbidden = 4 // Access denied
	ExitRateLimit = 5 // Rate limited (429)
	ExitNetwork   = 6 // Connection/DNS/timeout error
	ExitAPI       = 7 // Server returned an error
)

// ExitCodeFor maps a normalized error to a process exit code. A queued
// mutation is deferred success, not failure.
func ExitCodeFor(err *apierr.Error) int {
	if err == nil {
		return ExitOK
	}
	if err.IsQueued() {
		return ExitOK
	}
	if err.Status == 0 {
		return ExitNetwork
	}
	switch err.Status {
	case 401:
		return ExitAuth
	case 403:
		return ExitForbidden
	case 404:
		return ExitNotFound
	case 429:
		return ExitRateLimit
	default:
		return ExitAPI
	}
}

// Response is the success envelope.
type Response struct {
	OK      bool   `json:"ok"`
	Data    any    `json:"data,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// ErrorResponse is the error envelope.
type ErrorResponse struct {
	OK       bool   `json:"ok"`
	Error    string `json:"error"`
	Code     string `json:"code,omitempty"`
	Status   int    `json:"status,omitempty"`
	ActionID string `json:"actionId,omitempty"`
}

// Format specifies the output format.
type Format int

const (
	FormatJSON  Format = iota
	FormatQuiet        // data only, no envelope
)

// Writer handles all CLI output.
type Writer struct {
	format Format
	out    io.Writer
}

// New creates an output writer.
func New(format Format, out io.Writer) *Writer {
	if out == nil {
		out = os.Stdout
	}
	return &Writer{format: format, out: out}
}

// OK emits a success envelope.
func (w *Writer) OK(data any, summary string) error {
	if w.format == FormatQuiet {
		return w.writeJSON(data)
	}
	return w.writeJSON(&Response{OK: true, Data: data, Summary: summary})
}

// Err emits an error envelope with the classifier's user-facing wording.
func (w *Writer) Err(err error) error {
	e := apierr.From(err)
	return w.writeJSON(&ErrorResponse{
		OK:       false,
		Error:    apierr.UserMessage(e),
		Code:     e.Code,
		Status:   e.Status,
		ActionID: e.ActionID(),
	})
}

func (w *Writer) writeJSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
