// Package fault defines the kind-coded errors surfaced by pipeline stages.
//
// Missing-precondition and unsupported-input failures carry a stable code
// so callers (HTTP surface, orchestrator summaries) can report something
// better than a bare message. Absence of recognizer matches is never a
// fault — it just yields fewer rows.
package fault

import (
	"errors"
	"fmt"
)

// Code identifies a failure kind.
type Code string

const (
	// NoText means the required extracted full text does not exist yet.
	NoText Code = "NO_TEXT"
	// NoDoc means no document record exists for the given identifier.
	NoDoc Code = "NO_DOC"
	// Unsupported means the source format is not recognized by extraction.
	Unsupported Code = "UNSUPPORTED"
)

// Error is a kind-coded stage failure.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New builds a kind-coded error.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the fault code from err, unwrapping as needed.
// Returns ("", false) for non-fault errors.
func CodeOf(err error) (Code, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code, true
	}
	return "", false
}
