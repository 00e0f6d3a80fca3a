package domain

import (
	"errors"
	"fmt"
	"strings"
)

// KeyPrefix namespaces every key the service reads or writes in the key-value store.
const KeyPrefix = "kittylit:"

var (
	// ErrValidation signals a query rejected before retrieval.
	ErrValidation = errors.New("validation failed")
	// ErrCacheIntegrity signals a malformed cache payload (non-fatal).
	ErrCacheIntegrity = errors.New("cache integrity")
	// ErrDataUnavailable signals that the authoritative book store could not be reached.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrNoSafeMatch marks the terminal outcome where filters found nothing suitable.
	// It is never returned to callers; responses carry it as an explanation.
	ErrNoSafeMatch = errors.New("no safe match")
	// ErrInvalidBook signals a book record that violates the eligibility invariant.
	ErrInvalidBook = errors.New("invalid book record")
)

// FieldError describes one rejected query field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// CacheIntegrityWarning reports a cache key whose payload could not be used.
type CacheIntegrityWarning struct {
	Key    string
	Reason string
}

func (w *CacheIntegrityWarning) Error() string {
	return fmt.Sprintf("%s: key %s: %s", ErrCacheIntegrity.Error(), w.Key, w.Reason)
}

func (w *CacheIntegrityWarning) Unwrap() error { return ErrCacheIntegrity }

// DataUnavailableError wraps a book store failure with the stage that hit it.
type DataUnavailableError struct {
	Stage string
	Err   error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrDataUnavailable.Error(), e.Stage, e.Err)
}

// Is lets errors.Is match both the sentinel and the cause chain.
func (e *DataUnavailableError) Is(target error) bool { return target == ErrDataUnavailable }

func (e *DataUnavailableError) Unwrap() error { return e.Err }

// NewDataUnavailable creates a DataUnavailableError.
func NewDataUnavailable(stage string, err error) error {
	return &DataUnavailableError{Stage: stage, Err: err}
}
