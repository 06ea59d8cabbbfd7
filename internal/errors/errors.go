// Package errors defines the typed errors used across the indexer. The
// index itself never returns recoverable errors: queries that find nothing
// yield empty sequences. These types cover the surrounding layers (file
// scanning, parsing, configuration, watching) where things genuinely fail.
package errors

import (
	"fmt"
	"time"
)

// ErrorType classifies errors for logging and triage.
type ErrorType string

const (
	ErrorTypeScan   ErrorType = "scan"
	ErrorTypeParse  ErrorType = "parse"
	ErrorTypeConfig ErrorType = "config"
	ErrorTypeWatch  ErrorType = "watch"

	ErrorTypeInternal ErrorType = "internal"
)

// ParseError represents a failure extracting entities from a source file.
type ParseError struct {
	Type       ErrorType
	Path       string
	Line       int
	Column     int
	Underlying error
	Timestamp  time.Time
}

// NewParseError creates a parse error with location context.
func NewParseError(path string, line, column int, err error) *ParseError {
	return &ParseError{
		Type:       ErrorTypeParse,
		Path:       path,
		Line:       line,
		Column:     column,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error at %s:%d:%d: %v", e.Path, e.Line, e.Column, e.Underlying)
	}
	return fmt.Sprintf("parse error in %s: %v", e.Path, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *ParseError) Unwrap() error { return e.Underlying }

// ScanError represents a failure walking or reading a workspace root.
type ScanError struct {
	Type       ErrorType
	Root       string
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewScanError creates a scan error for an operation under root.
func NewScanError(op, root, path string, err error) *ScanError {
	return &ScanError{
		Type:       ErrorTypeScan,
		Root:       root,
		Path:       path,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

func (e *ScanError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("scan %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
	}
	return fmt.Sprintf("scan %s failed under %s: %v", e.Operation, e.Root, e.Underlying)
}

// Unwrap returns the underlying error.
func (e *ScanError) Unwrap() error { return e.Underlying }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a config error for a field/value pair.
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error { return e.Underlying }

// MultiError collects the per-file failures of a batch load. A batch keeps
// going past individual bad files; the caller reports them together.
type MultiError struct {
	Errors []error
}

// NewMultiError creates a multi-error, dropping nils. Returns nil when
// nothing is left.
func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return &MultiError{Errors: filtered}
}

func (e *MultiError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all collected errors.
func (e *MultiError) Unwrap() []error { return e.Errors }
