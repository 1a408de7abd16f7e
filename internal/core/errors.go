package core

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error kinds. Callers match them with errors.Is.
var (
	// File-level: ingestion is aborted and nothing is persisted.
	ErrEmptyFile         = errors.New("empty file")
	ErrUnsupportedFormat = errors.New("unsupported file format, expected CSV")
	ErrMalformedFile     = errors.New("malformed CSV file")
	ErrIOFailure         = errors.New("read failure")

	// Row-level: the row is skipped and ingestion continues.
	ErrRowParse = errors.New("row parse error")

	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("accounts payable not found")
	ErrInvalidRange   = errors.New("invalid date range: start date is after end date")
	ErrTooManyImports = errors.New("too many concurrent imports, please try again later")
)

// RowParseError reports the field and raw value that made a CSV row unusable.
type RowParseError struct {
	Field string
	Value string
	Err   error
}

func (e *RowParseError) Error() string {
	if e.Err == errMissingCell {
		return fmt.Sprintf("missing %s: %v", e.Field, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

func (e *RowParseError) Unwrap() error { return e.Err }

func (e *RowParseError) Is(target error) bool { return target == ErrRowParse }

// ValidationError represents a broken record invariant.
type ValidationError struct {
	Field   string // Field name
	Message string // Human-readable error message
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError identifies the record that was looked up.
type NotFoundError struct {
	ID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("accounts payable with id (%s) was not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ioFailure wraps a stream error so it matches both ErrIOFailure and the cause.
func ioFailure(cause error) error {
	return fmt.Errorf("%w: %w", ErrIOFailure, cause)
}
