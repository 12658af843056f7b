//go:build !gdal

package ogr

import (
	"context"
	"log/slog"

	"github.com/jobrunner/s57geojson/internal/domain"
	"github.com/jobrunner/s57geojson/internal/ports/output"
)

const buildHint = "rebuild with -tags gdal after installing the GDAL development package (e.g. libgdal-dev)"

// Opener is unavailable in builds without GDAL.
type Opener struct{}

// NewOpener always fails in builds without GDAL.
func NewOpener(_ []string, _ *slog.Logger) (*Opener, error) {
	return nil, missing()
}

// Open implements output.DatasetOpener.
func (o *Opener) Open(_ context.Context, _ string) (output.Dataset, error) {
	return nil, missing()
}

// Detect reports that GDAL is not compiled in.
func Detect() Info {
	return Info{}
}

func missing() error {
	return &domain.DependencyError{Component: "gdal", Hint: buildHint}
}
