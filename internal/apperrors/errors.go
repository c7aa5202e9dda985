// Package apperrors defines the error taxonomy shared by services and
// handlers. Validation failures are rejected before any store access; upstream
// failures are per-office and never abort a whole ingestion run.
package apperrors

import (
	"errors"
	"fmt"
)

// ValidationError covers malformed dates, missing required fields and unknown
// enum values. Surfaced to the caller verbatim.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func NewValidation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError means an id had no matching document. Distinct from a
// validation failure.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func NewNotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// UpstreamError wraps a Source Adapter failure for one office. Transient: safe
// to retry on the next scheduled run.
type UpstreamError struct {
	Office string
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("source unavailable for office %q: %v", e.Office, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func NewUpstream(office string, err error) error {
	return &UpstreamError{Office: office, Err: err}
}

// PersistenceError wraps a store write failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func NewPersistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
