// Package apperr holds the error values shared across menuboard packages.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	// ErrUnauthorized marks a missing, malformed or rejected bearer token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrMissingConfig marks absent backend credentials.
	ErrMissingConfig = errors.New("missing configuration")
	// ErrReadOnly is returned by editor mutations outside edit mode.
	ErrReadOnly     = errors.New("editor is read-only")
	ErrInvalidInput = errors.New("invalid input")
)

// UpstreamError is a non-success response from the hosted backend.
type UpstreamError struct {
	Op     string
	Status int
	Text   string
	Body   string
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("%s: %d %s", e.Op, e.Status, e.Text)
	if e.Body != "" {
		msg += " " + e.Body
	}
	return msg
}

// BackendError is a backend call that failed without an HTTP response of
// its own: transport failures, undecodable bodies, metadata store errors.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *BackendError) Unwrap() error { return e.Err }

// ValidationError names the request field that failed validation.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return e.Field + " is required"
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// MissingConfig reports which configuration keys are absent.
func MissingConfig(keys ...string) error {
	return fmt.Errorf("%w: missing required environment variables: %s", ErrMissingConfig, strings.Join(keys, ", "))
}
