// Package errors provides custom error types for the leadrecon system.
// These errors enable programmatic error checking from the CLI down to
// the input loader and output writers.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is and As mirror the standard library so callers need a single import.
var (
	Is = errors.Is
	As = errors.As
)

// Common sentinel errors for the leadrecon system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrWriteFailed indicates that one or more outputs could not be written
	ErrWriteFailed = errors.New("write failed")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "rename", "stat"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// WriteError collects the failures of independent output writes.
// Each entry is keyed by destination path; writes that succeeded are absent.
type WriteError struct {
	Failures map[string]error
	order    []string
}

// Add records a failed write for the given destination.
func (e *WriteError) Add(path string, err error) {
	if err == nil {
		return
	}
	if e.Failures == nil {
		e.Failures = make(map[string]error)
	}
	if _, exists := e.Failures[path]; !exists {
		e.order = append(e.order, path)
	}
	e.Failures[path] = err
}

// Paths returns the failed destinations in the order they were added.
func (e *WriteError) Paths() []string {
	return append([]string(nil), e.order...)
}

// Error implements the error interface
func (e *WriteError) Error() string {
	parts := make([]string, 0, len(e.order))
	for _, path := range e.order {
		parts = append(parts, fmt.Sprintf("%s: %v", path, e.Failures[path]))
	}
	return fmt.Sprintf("%d output(s) failed: %s", len(e.order), strings.Join(parts, "; "))
}

// Unwrap exposes every underlying failure to errors.Is and errors.As.
func (e *WriteError) Unwrap() []error {
	errs := make([]error, 0, len(e.order))
	for _, path := range e.order {
		errs = append(errs, e.Failures[path])
	}
	return errs
}

// Is implements errors.Is support
func (e *WriteError) Is(target error) bool {
	return target == ErrWriteFailed
}

// ErrOrNil returns the WriteError when it carries failures, nil otherwise.
func (e *WriteError) ErrOrNil() error {
	if e == nil || len(e.order) == 0 {
		return nil
	}
	return e
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsWriteFailed checks if an error reports failed output writes
func IsWriteFailed(err error) bool {
	return errors.Is(err, ErrWriteFailed)
}

// Helper wrapping functions for common patterns

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}
