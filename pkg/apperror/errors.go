// Package apperror defines the error kinds shared by the record store, the
// attachment manager and the schema guard, and maps them to HTTP statuses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("record not found")
	ErrStorageIO  = errors.New("attachment storage failure")
	ErrSchema     = errors.New("schema setup failed")
)

// ValidationError reports an unacceptable field value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// StorageIOError wraps a failed file operation in the attachment directory.
type StorageIOError struct {
	Op   string
	Name string
	Err  error
}

func (e *StorageIOError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Name, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *StorageIOError) Unwrap() []error { return []error{ErrStorageIO, e.Err} }

// NotFound returns an error for a missing record id.
func NotFound(id int64) error {
	return fmt.Errorf("staff %d: %w", id, ErrNotFound)
}

// MapErrorToStatus maps the error kinds to HTTP status codes
func MapErrorToStatus(err error) int {
	if errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	// storage and schema failures are both server side
	return http.StatusInternalServerError
}
