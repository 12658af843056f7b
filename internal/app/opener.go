package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jobrunner/s57geojson/internal/adapters/geopackage"
	"github.com/jobrunner/s57geojson/internal/adapters/memory"
	"github.com/jobrunner/s57geojson/internal/adapters/ogr"
	"github.com/jobrunner/s57geojson/internal/config"
	"github.com/jobrunner/s57geojson/internal/domain"
	"github.com/jobrunner/s57geojson/internal/ports/output"
)

// Source is the dataset opener selected by configuration together with the
// resources it holds.
type Source struct {
	output.DatasetOpener

	// Driver is the configured driver; Components reports what backs it.
	Driver     string
	Components map[string]string

	transformer *geopackage.Transformer
}

// NewSource builds the opener for cfg.Driver.
//
// ogr and geopackage fail right away with a *domain.DependencyError when the
// native capability is missing. auto routes .gpkg files to the GeoPackage
// reader and everything else to OGR; when OGR is missing, opening an S-57
// file reports the dependency error without attempting to parse.
func NewSource(ctx context.Context, cfg config.SourceConfig, logger *slog.Logger) (*Source, error) {
	s := &Source{Driver: cfg.Driver, Components: make(map[string]string)}

	switch cfg.Driver {
	case config.DriverMock:
		s.DatasetOpener = memory.NewMockOpener()
		s.Components["reader"] = "mock"

	case config.DriverOGR:
		opener, err := ogr.NewOpener(cfg.OpenOptions, logger)
		if err != nil {
			return nil, err
		}
		s.DatasetOpener = opener
		s.Components["reader"] = "ogr"

	case config.DriverGeoPackage:
		s.DatasetOpener = s.geoPackageOpener(ctx, logger)
		s.Components["reader"] = "geopackage"

	case config.DriverAuto, "":
		s57, err := ogr.NewOpener(cfg.OpenOptions, logger)
		route := &formatRouter{gpkg: s.geoPackageOpener(ctx, logger), s57Err: err}
		if err == nil {
			route.s57 = s57
			s.Components["reader"] = "ogr+geopackage"
		} else {
			logger.Debug("OGR not available, S-57 cells cannot be opened", "error", err)
			s.Components["reader"] = "geopackage"
		}
		s.DatasetOpener = route

	default:
		return nil, &domain.ConfigError{Field: "source.driver", Message: "unknown driver " + cfg.Driver}
	}

	return s, nil
}

// geoPackageOpener creates the GeoPackage opener with SpatiaLite
// reprojection when the extension can be loaded.
func (s *Source) geoPackageOpener(ctx context.Context, logger *slog.Logger) *geopackage.Opener {
	transformer, err := geopackage.NewTransformer(ctx)
	if err != nil {
		logger.Debug("SpatiaLite not available, non-WGS84 GeoPackage layers lose their geometry", "error", err)
		s.Components["spatialite"] = "unavailable"
		return geopackage.NewOpener(nil, logger)
	}
	s.transformer = transformer
	s.Components["spatialite"] = "ok"
	return geopackage.NewOpener(transformer, logger)
}

// Close releases the resources held by the source.
func (s *Source) Close() error {
	if s.transformer == nil {
		return nil
	}
	return s.transformer.Close()
}

// formatRouter dispatches on the file extension.
type formatRouter struct {
	s57    output.DatasetOpener
	s57Err error
	gpkg   output.DatasetOpener
}

// Open implements output.DatasetOpener.
func (r *formatRouter) Open(ctx context.Context, path string) (output.Dataset, error) {
	if domain.DetectFormat(path) == domain.FormatGeoPackage {
		return r.gpkg.Open(ctx, path)
	}
	if r.s57 == nil {
		if r.s57Err == nil {
			return nil, errors.New("no S-57 reader configured")
		}
		return nil, r.s57Err
	}
	return r.s57.Open(ctx, path)
}
