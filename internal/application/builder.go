package application

import (
	"log/slog"

	"github.com/jobrunner/s57geojson/internal/domain"
	"github.com/jobrunner/s57geojson/internal/ports/output"
)

// FeatureCollectionBuilder assembles a FeatureCollection from an opened dataset.
type FeatureCollectionBuilder struct {
	translator *GeometryTranslator
	metrics    output.MetricsCollector
	logger     *slog.Logger
}

// NewFeatureCollectionBuilder creates a new builder.
func NewFeatureCollectionBuilder(
	translator *GeometryTranslator,
	metrics output.MetricsCollector,
	logger *slog.Logger,
) *FeatureCollectionBuilder {
	return &FeatureCollectionBuilder{
		translator: translator,
		metrics:    metrics,
		logger:     logger,
	}
}

// Build reads every included layer of ds in dataset order. Layers rejected by
// opts.FeatureTypes are skipped before any feature is read. Build does not fail:
// unreadable layers are skipped and unreadable geometries become null.
func (b *FeatureCollectionBuilder) Build(ds output.Dataset, opts domain.ConvertOptions) *domain.FeatureCollection {
	fc := domain.NewFeatureCollection()

	layerCount := ds.LayerCount()
	for i := 0; i < layerCount; i++ {
		layer, err := ds.Layer(i)
		if err != nil || layer == nil {
			b.logger.Warn("skipping unreadable layer", "index", i, "error", err)
			continue
		}

		name := layer.Name()
		if !opts.IncludesLayer(name) {
			b.logger.Debug("skipping filtered layer", "layer", name)
			continue
		}

		n := b.readLayer(fc, layer, name, opts.BBox)
		b.metrics.AddFeaturesEmitted(name, n)
	}

	return fc
}

// readLayer appends all features of layer to fc and returns how many were added.
func (b *FeatureCollectionBuilder) readLayer(fc *domain.FeatureCollection, layer output.Layer, name string, bbox *domain.BBox) int {
	if bbox != nil {
		layer.SetSpatialFilterRect(bbox.MinX, bbox.MinY, bbox.MaxX, bbox.MaxY)
	}
	layer.ResetReading()

	b.logger.Debug("reading layer", "layer", name, "feature_count", layer.FeatureCount())

	n := 0
	for f := layer.NextFeature(); f != nil; f = layer.NextFeature() {
		fc.Add(b.buildFeature(name, f))
		release(f)
		n++
	}
	return n
}

// buildFeature extracts one feature into plain values.
func (b *FeatureCollectionBuilder) buildFeature(layer string, f output.Feature) domain.Feature {
	return domain.NewFeature(layer, f.ID(), b.translator.Translate(f.Geometry()), extractProperties(f))
}

// extractProperties reads field slots 0..n-1. Unset and null fields are omitted.
func extractProperties(f output.Feature) map[string]interface{} {
	n := f.FieldCount()
	props := make(map[string]interface{}, n+1)
	for i := 0; i < n; i++ {
		value, ok := f.FieldValue(i)
		if !ok || value == nil {
			continue
		}
		props[f.FieldName(i)] = value
	}
	return props
}
