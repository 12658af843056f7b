package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestParseError(t *testing.T) {
	err := &ParseError{Path: "/charts/missing.000", Err: errors.New("no such file")}

	if !strings.Contains(err.Error(), "/charts/missing.000") {
		t.Errorf("Error() = %q, want path in message", err.Error())
	}
	if !errors.Is(err, err.Err) {
		t.Error("Unwrap should return the underlying error")
	}

	bare := &ParseError{Path: "x.000"}
	if bare.Error() != "could not open S-57 file: x.000" {
		t.Errorf("Error() = %q", bare.Error())
	}
}

func TestDependencyError(t *testing.T) {
	err := &DependencyError{Component: "gdal", Hint: "rebuild with -tags gdal"}

	if !errors.Is(err, ErrDependencyMissing) {
		t.Error("DependencyError should match ErrDependencyMissing")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Error("DependencyError should unwrap to ErrUnavailable")
	}

	cause := errors.New("driver not registered")
	wrapped := &DependencyError{Component: "S57 driver", Err: cause}
	if !errors.Is(wrapped, cause) {
		t.Error("Unwrap should return the underlying error")
	}
	if !errors.Is(wrapped, ErrDependencyMissing) {
		t.Error("wrapped DependencyError should still match ErrDependencyMissing")
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Field:      "bbox",
		Value:      []float64{1, 2},
		Constraint: "4 numbers",
		Message:    "bbox needs exactly 4 numbers",
	}

	if err.Error() == "" {
		t.Error("Error() should not return empty string")
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ValidationError should unwrap to ErrInvalidInput")
	}
}

func TestStorageError(t *testing.T) {
	tests := []struct {
		name string
		err  *StorageError
	}{
		{
			name: "with key",
			err: &StorageError{
				Operation: "download",
				Key:       "US5CA52M.000",
				Err:       errors.New("network error"),
			},
		},
		{
			name: "without key",
			err: &StorageError{
				Operation: "list",
				Err:       errors.New("access denied"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() == "" {
				t.Error("Error() should not return empty string")
			}
			if !errors.Is(tt.err, tt.err.Err) {
				t.Error("Unwrap should return the underlying error")
			}
		})
	}
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{Field: "source.driver", Message: "unknown driver"}

	if err.Error() != "configuration error for source.driver: unknown driver" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ConfigError should unwrap to ErrInvalidInput")
	}
}

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"ErrChartNotFound", ErrChartNotFound, ErrNotFound},
		{"ErrLayerNotFound", ErrLayerNotFound, ErrNotFound},
		{"ErrInvalidCoordinate", ErrInvalidCoordinate, ErrInvalidInput},
		{"ErrInvalidSRID", ErrInvalidSRID, ErrInvalidInput},
		{"ErrInvalidBBox", ErrInvalidBBox, ErrInvalidInput},
		{"ErrUnsupportedProjection", ErrUnsupportedProjection, ErrUnsupported},
		{"ErrUnsupportedGeometry", ErrUnsupportedGeometry, ErrUnsupported},
		{"ErrDependencyMissing", ErrDependencyMissing, ErrUnavailable},
		{"ErrNotReady", ErrNotReady, ErrUnavailable},
		{"ErrStorageUnavailable", ErrStorageUnavailable, ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.wantErr) {
				t.Errorf("%s should wrap %v", tt.name, tt.wantErr)
			}
		})
	}
}

func TestErrorKindAndExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind string
		wantExit int
	}{
		{"nil", nil, KindUnexpected, ExitOK},
		{"parse", &ParseError{Path: "a.000"}, KindParseError, ExitRecognized},
		{"wrapped parse", fmt.Errorf("convert: %w", &ParseError{Path: "a.000"}), KindParseError, ExitRecognized},
		{"dependency", &DependencyError{Component: "gdal"}, KindDependencyError, ExitRecognized},
		{"validation", &ValidationError{Field: "bbox"}, KindValidationError, ExitRecognized},
		{"not found", ErrChartNotFound, KindNotFound, ExitUnexpected},
		{"other", errors.New("boom"), KindUnexpected, ExitUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err != nil {
				if got := ErrorKind(tt.err); got != tt.wantKind {
					t.Errorf("ErrorKind() = %q, want %q", got, tt.wantKind)
				}
			}
			if got := ExitCode(tt.err); got != tt.wantExit {
				t.Errorf("ExitCode() = %d, want %d", got, tt.wantExit)
			}
		})
	}
}
