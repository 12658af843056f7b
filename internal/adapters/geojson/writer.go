// Package geojson writes conversion results and error documents as JSON.
package geojson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jobrunner/s57geojson/internal/domain"
)

// ErrorDocument is the single JSON object emitted when a command fails.
type ErrorDocument struct {
	Error     string `json:"error"`
	Type      string `json:"type"`
	Hint      string `json:"hint,omitempty"`
	Traceback string `json:"traceback,omitempty"`
}

// NewErrorDocument classifies err. traceback is only kept for unexpected
// errors.
func NewErrorDocument(err error, traceback string) ErrorDocument {
	kind := domain.ErrorKind(err)
	doc := ErrorDocument{Error: err.Error(), Type: kind}

	var depErr *domain.DependencyError
	if errors.As(err, &depErr) {
		doc.Hint = depErr.Hint
	}
	if kind == domain.KindUnexpected {
		doc.Error = fmt.Sprintf("Unexpected error: %v", err)
		doc.Traceback = traceback
	}
	return doc
}

// Writer encodes values as JSON documents.
type Writer struct {
	w      io.Writer
	indent bool
}

// NewWriter creates a writer. indent selects two-space indentation.
func NewWriter(w io.Writer, indent bool) *Writer {
	return &Writer{w: w, indent: indent}
}

// Write encodes v followed by a newline.
func (w *Writer) Write(v interface{}) error {
	enc := json.NewEncoder(w.w)
	enc.SetEscapeHTML(false)
	if w.indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// WriteError writes the error document for err. Error documents are always
// compact so callers can read them as a single line.
func (w *Writer) WriteError(err error, traceback string) error {
	return NewWriter(w.w, false).Write(NewErrorDocument(err, traceback))
}
