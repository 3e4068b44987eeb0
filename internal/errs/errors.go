// Package errs defines the error taxonomy shared by the store, the catalogs
// and their consumers.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError reports a missing schema, catalog or document file.
type NotFoundError struct {
	Kind string
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Path)
}

// ParseError reports a backing JSON file that could not be decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse '%s': %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DomainValidationError aggregates every invariant violation found on save.
type DomainValidationError struct {
	Messages []string
}

func (e *DomainValidationError) Error() string {
	if len(e.Messages) == 1 {
		return "validation failed: " + e.Messages[0]
	}
	return fmt.Sprintf("validation failed with %d errors:\n - %s", len(e.Messages), strings.Join(e.Messages, "\n - "))
}

// NotFound creates a NotFoundError.
func NotFound(kind, path string) *NotFoundError {
	return &NotFoundError{Kind: kind, Path: path}
}

// Parse creates a ParseError.
func Parse(path string, err error) *ParseError {
	return &ParseError{Path: path, Err: err}
}

// Validation returns nil for an empty list, else a DomainValidationError.
func Validation(messages []string) error {
	if len(messages) == 0 {
		return nil
	}
	return &DomainValidationError{Messages: messages}
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// AsValidation extracts the validation messages carried by err.
func AsValidation(err error) ([]string, bool) {
	var ve *DomainValidationError
	if errors.As(err, &ve) {
		return ve.Messages, true
	}
	return nil, false
}

// IsParse reports whether err wraps a ParseError.
func IsParse(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
