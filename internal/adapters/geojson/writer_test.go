package geojson

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/jobrunner/s57geojson/internal/domain"
)

func TestWriter_Write(t *testing.T) {
	fc := domain.NewFeatureCollection()
	fc.Add(domain.NewFeature("LIGHTS", 1, nil, map[string]interface{}{"OBJNAM": "A&B <light>"}))

	tests := []struct {
		name   string
		indent bool
		want   string
	}{
		{
			name: "compact",
			want: `{"type":"FeatureCollection","features":[{"type":"Feature","id":"LIGHTS.1","geometry":null,"properties":{"OBJNAM":"A&B <light>","_featureType":"LIGHTS"}}]}` + "\n",
		},
		{
			name:   "indented",
			indent: true,
			want: `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "id": "LIGHTS.1",
      "geometry": null,
      "properties": {
        "OBJNAM": "A&B <light>",
        "_featureType": "LIGHTS"
      }
    }
  ]
}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewWriter(&buf, tt.indent).Write(fc); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("Write() =\n%s\nwant\n%s", buf.String(), tt.want)
			}
		})
	}
}

func TestNewErrorDocument(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		traceback string
		want      ErrorDocument
	}{
		{
			name: "parse error",
			err:  &domain.ParseError{Path: "missing.000"},
			want: ErrorDocument{Error: "could not open S-57 file: missing.000", Type: domain.KindParseError},
		},
		{
			name: "dependency error carries hint",
			err:  &domain.DependencyError{Component: "gdal", Hint: "install gdal"},
			want: ErrorDocument{Error: "gdal is not available", Type: domain.KindDependencyError, Hint: "install gdal"},
		},
		{
			name:      "unexpected error keeps traceback",
			err:       errors.New("boom"),
			traceback: "goroutine 1",
			want:      ErrorDocument{Error: "Unexpected error: boom", Type: domain.KindUnexpected, Traceback: "goroutine 1"},
		},
		{
			name:      "recognized error drops traceback",
			err:       &domain.ParseError{Path: "x.000"},
			traceback: "goroutine 1",
			want:      ErrorDocument{Error: "could not open S-57 file: x.000", Type: domain.KindParseError},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewErrorDocument(tt.err, tt.traceback); got != tt.want {
				t.Errorf("NewErrorDocument() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestWriter_WriteError_Compact(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(&buf, true).WriteError(&domain.ParseError{Path: "a.000"}, ""); err != nil {
		t.Fatalf("WriteError() error = %v", err)
	}

	got := buf.String()
	want := `{"error":"could not open S-57 file: a.000","type":"S57ParseError"}` + "\n"
	if got != want {
		t.Errorf("WriteError() = %q, want %q", got, want)
	}
	if strings.Count(got, "\n") != 1 {
		t.Errorf("error document spans %d lines, want 1", strings.Count(got, "\n"))
	}
}
