package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jobrunner/s57geojson/internal/domain"
	"github.com/jobrunner/s57geojson/internal/ports/output"
)

// ConversionService opens charts and converts them to FeatureCollections.
// Each call owns its dataset from open to close; nothing is cached.
type ConversionService struct {
	opener  output.DatasetOpener
	builder *FeatureCollectionBuilder
	metrics output.MetricsCollector
	logger  *slog.Logger
}

// NewConversionService creates a new conversion service.
func NewConversionService(
	opener output.DatasetOpener,
	metrics output.MetricsCollector,
	logger *slog.Logger,
) *ConversionService {
	translator := NewGeometryTranslator(metrics, logger)
	return &ConversionService{
		opener:  opener,
		builder: NewFeatureCollectionBuilder(translator, metrics, logger),
		metrics: metrics,
		logger:  logger,
	}
}

// Convert opens the chart at path and builds its FeatureCollection.
// A chart that cannot be opened yields a *domain.ParseError (or the
// *domain.DependencyError reported by the opener) and no output.
func (s *ConversionService) Convert(ctx context.Context, path string, opts domain.ConvertOptions) (*domain.FeatureCollection, error) {
	start := time.Now()
	chartID := domain.ChartID(path)

	s.logger.Debug("converting chart", "path", path, "feature_types", opts.FeatureTypes, "bbox", opts.BBox)

	ds, err := s.open(ctx, path)
	if err != nil {
		s.metrics.IncConversionCount(chartID, false)
		return nil, err
	}
	defer s.closeDataset(ds, path)

	fc := s.builder.Build(ds, opts)

	duration := time.Since(start)
	s.metrics.IncConversionCount(chartID, true)
	s.metrics.ObserveConversionDuration(chartID, duration)
	s.logger.Info("chart converted", "path", path, "features", fc.Len(), "duration", duration)

	return fc, nil
}

// ListLayers returns name and advisory feature count of every layer.
func (s *ConversionService) ListLayers(ctx context.Context, path string) ([]domain.LayerInfo, error) {
	ds, err := s.open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer s.closeDataset(ds, path)

	n := ds.LayerCount()
	layers := make([]domain.LayerInfo, 0, n)
	for i := 0; i < n; i++ {
		layer, err := ds.Layer(i)
		if err != nil || layer == nil {
			s.logger.Warn("skipping unreadable layer", "path", path, "index", i, "error", err)
			continue
		}
		layers = append(layers, domain.LayerInfo{
			Name:         layer.Name(),
			FeatureCount: layer.FeatureCount(),
		})
	}
	return layers, nil
}

// open classifies opener failures: dependency errors pass through, anything
// else becomes a parse error for path.
func (s *ConversionService) open(ctx context.Context, path string) (output.Dataset, error) {
	ds, err := s.opener.Open(ctx, path)
	if err == nil {
		return ds, nil
	}

	s.logger.Error("failed to open chart", "path", path, "error", err)

	var depErr *domain.DependencyError
	var parseErr *domain.ParseError
	switch {
	case errors.As(err, &depErr), errors.As(err, &parseErr):
		return nil, err
	default:
		return nil, &domain.ParseError{Path: path, Err: err}
	}
}

func (s *ConversionService) closeDataset(ds output.Dataset, path string) {
	if err := ds.Close(); err != nil {
		s.logger.Warn("failed to close chart", "path", path, "error", err)
	}
}
