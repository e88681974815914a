package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrDocumentUnavailable indicates that a document could not be fetched or parsed.
	ErrDocumentUnavailable = errors.New("document unavailable")

	// ErrDuplicateSource indicates that the URL is already a member of the view.
	ErrDuplicateSource = errors.New("source already exists")

	// ErrDuplicateView indicates that a view with the same name already exists.
	ErrDuplicateView = errors.New("view already exists")

	// ErrSourceNotFound indicates that no source with the given URL is known.
	ErrSourceNotFound = errors.New("source not found")

	// ErrViewNotFound indicates that no view with the given name exists.
	ErrViewNotFound = errors.New("view not found")

	// ErrEntryNotFound indicates that the source holds no entry with the given id.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrPersistenceFailure indicates that the state store could not be read or written.
	ErrPersistenceFailure = errors.New("persistence failure")

	// ErrValidationFailed indicates that validation checks have failed
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Unwrap lets callers match any validation error with errors.Is(err, ErrValidationFailed).
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// DocumentUnavailableError is returned by the document parser when a document
// could not be retrieved or parsed. No partial document accompanies it.
type DocumentUnavailableError struct {
	URL string
	Err error
}

func (e *DocumentUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("document unavailable: %s", e.URL)
	}
	return fmt.Sprintf("document unavailable: %s: %v", e.URL, e.Err)
}

// Is reports ErrDocumentUnavailable as a match so callers can use errors.Is.
func (e *DocumentUnavailableError) Is(target error) bool {
	return target == ErrDocumentUnavailable
}

func (e *DocumentUnavailableError) Unwrap() error {
	return e.Err
}

// NewDocumentUnavailable wraps err as a DocumentUnavailableError for url.
func NewDocumentUnavailable(url string, err error) error {
	return &DocumentUnavailableError{URL: url, Err: err}
}

// PersistenceError wraps a state store I/O failure with the operation that failed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure: %s: %v", e.Op, e.Err)
}

// Is reports ErrPersistenceFailure as a match so callers can use errors.Is.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistenceFailure
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError wraps err as a PersistenceError for op.
func NewPersistenceError(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
