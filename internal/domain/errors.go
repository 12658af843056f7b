package domain

import (
	"errors"
	"fmt"
)

// Base error types (sentinel errors).
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnsupported  = errors.New("unsupported operation")
	ErrInternal     = errors.New("internal error")
	ErrUnavailable  = errors.New("service unavailable")
)

// Specific errors.
var (
	ErrChartNotFound         = fmt.Errorf("chart: %w", ErrNotFound)
	ErrLayerNotFound         = fmt.Errorf("layer: %w", ErrNotFound)
	ErrInvalidCoordinate     = fmt.Errorf("coordinate: %w", ErrInvalidInput)
	ErrInvalidSRID           = fmt.Errorf("srid: %w", ErrInvalidInput)
	ErrInvalidBBox           = fmt.Errorf("bbox: %w", ErrInvalidInput)
	ErrUnsupportedProjection = fmt.Errorf("projection: %w", ErrUnsupported)
	ErrUnsupportedGeometry   = fmt.Errorf("geometry type: %w", ErrUnsupported)
	ErrDependencyMissing     = fmt.Errorf("dependency: %w", ErrUnavailable)
	ErrNotReady              = fmt.Errorf("service not ready: %w", ErrUnavailable)
	ErrStorageUnavailable    = fmt.Errorf("storage: %w", ErrUnavailable)
)

// Error kinds written to the "type" field of error documents.
const (
	KindParseError      = "S57ParseError"
	KindDependencyError = "DependencyError"
	KindValidationError = "ValidationError"
	KindNotFound        = "NotFoundError"
	KindUnexpected      = "UnexpectedError"
)

// Exit codes of the command line entry point.
const (
	ExitOK         = 0
	ExitRecognized = 1
	ExitUnexpected = 2
)

// ParseError is returned when a chart dataset cannot be opened.
type ParseError struct {
	Path string // Input path
	Err  error  // Underlying error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("could not open S-57 file: %s", e.Path)
	}
	return fmt.Sprintf("could not open S-57 file %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// DependencyError reports a missing native capability.
type DependencyError struct {
	Component string // e.g. "gdal", "S57 driver", "spatialite"
	Hint      string // How to resolve it
	Err       error  // Underlying error
}

// Error implements the error interface.
func (e *DependencyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s is not available: %v", e.Component, e.Err)
	}
	return fmt.Sprintf("%s is not available", e.Component)
}

// Unwrap returns the underlying error.
func (e *DependencyError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrDependencyMissing
}

// Is makes every DependencyError match ErrDependencyMissing.
func (e *DependencyError) Is(target error) bool {
	return target == ErrDependencyMissing
}

// ValidationError represents a detailed validation error.
type ValidationError struct {
	Field      string      // Field that failed validation
	Value      interface{} // The invalid value
	Constraint string      // The constraint that was violated
	Message    string      // Human-readable message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s (value: %v, constraint: %s)",
		e.Field, e.Message, e.Value, e.Constraint)
}

// Unwrap returns the underlying error type.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// StorageError represents an error during storage operations.
type StorageError struct {
	Operation string // Operation that failed (download, list, etc.)
	Key       string // Object key
	Err       error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage error during %s for %s: %v",
			e.Operation, e.Key, e.Err)
	}
	return fmt.Sprintf("storage error during %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string // Configuration field
	Message string // Error message
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error for %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidInput
}

// ErrorKind classifies err into the kind reported in error documents.
func ErrorKind(err error) string {
	var parseErr *ParseError
	var depErr *DependencyError
	switch {
	case errors.As(err, &parseErr):
		return KindParseError
	case errors.As(err, &depErr), errors.Is(err, ErrDependencyMissing):
		return KindDependencyError
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidInput):
		return KindValidationError
	default:
		return KindUnexpected
	}
}

// ExitCode maps err to the process exit code: recognized parse and
// dependency failures exit 1, everything else exits 2.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch ErrorKind(err) {
	case KindParseError, KindDependencyError, KindValidationError:
		return ExitRecognized
	default:
		return ExitUnexpected
	}
}
