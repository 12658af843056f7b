package memory

import (
	"fmt"
	"math"

	"github.com/dhconnelly/rtreego"

	"github.com/jobrunner/s57geojson/internal/domain"
	"github.com/jobrunner/s57geojson/internal/ports/output"
)

// Dataset is an in-memory chart.
type Dataset struct {
	layers []*Layer
	closed bool
}

// NewDataset creates a dataset from layers in the given order.
func NewDataset(layers ...*Layer) *Dataset {
	return &Dataset{layers: layers}
}

// LayerCount implements output.Dataset.
func (d *Dataset) LayerCount() int {
	return len(d.layers)
}

// Layer implements output.Dataset.
func (d *Dataset) Layer(i int) (output.Layer, error) {
	if d.closed {
		return nil, fmt.Errorf("dataset closed: %w", domain.ErrUnavailable)
	}
	if i < 0 || i >= len(d.layers) {
		return nil, fmt.Errorf("layer index %d: %w", i, domain.ErrLayerNotFound)
	}
	return d.layers[i], nil
}

// Close implements output.Dataset.
func (d *Dataset) Close() error {
	d.closed = true
	return nil
}

// Field is one named attribute. A nil Value is a null field.
type Field struct {
	Name  string
	Value interface{}
}

// Feature is an in-memory feature.
type Feature struct {
	FID    int64
	Fields []Field
	Geom   *Geometry
}

// ID implements output.Feature.
func (f *Feature) ID() int64 { return f.FID }

// FieldCount implements output.Feature.
func (f *Feature) FieldCount() int { return len(f.Fields) }

// FieldName implements output.Feature.
func (f *Feature) FieldName(i int) string { return f.Fields[i].Name }

// FieldValue implements output.Feature.
func (f *Feature) FieldValue(i int) (interface{}, bool) {
	v := f.Fields[i].Value
	return v, v != nil
}

// Geometry implements output.Feature.
func (f *Feature) Geometry() output.Geometry {
	if f.Geom == nil {
		return nil
	}
	return f.Geom
}

// Layer is an in-memory layer with a read cursor and an optional spatial filter.
type Layer struct {
	name     string
	features []*Feature
	active   []*Feature
	cursor   int
	index    *rtreego.Rtree
}

// NewLayer creates a layer holding features in iteration order.
func NewLayer(name string, features ...*Feature) *Layer {
	return &Layer{name: name, features: features, active: features}
}

// Add appends a feature.
func (l *Layer) Add(f *Feature) {
	l.features = append(l.features, f)
	l.active = l.features
	l.index = nil
}

// Name implements output.Layer.
func (l *Layer) Name() string { return l.name }

// FeatureCount implements output.Layer. It honors the spatial filter.
func (l *Layer) FeatureCount() int64 { return int64(len(l.active)) }

// ResetReading implements output.Layer.
func (l *Layer) ResetReading() { l.cursor = 0 }

// NextFeature implements output.Layer.
func (l *Layer) NextFeature() output.Feature {
	if l.cursor >= len(l.active) {
		return nil
	}
	f := l.active[l.cursor]
	l.cursor++
	return f
}

// SetSpatialFilterRect implements output.Layer. Features whose envelope
// intersects the rectangle pass; features without geometry never pass.
// Iteration order is preserved.
func (l *Layer) SetSpatialFilterRect(minX, minY, maxX, maxY float64) {
	if l.index == nil {
		l.buildIndex()
	}

	query := rect(math.Min(minX, maxX), math.Min(minY, maxY), math.Max(minX, maxX), math.Max(minY, maxY))
	hits := make(map[*Feature]struct{})
	for _, s := range l.index.SearchIntersect(query) {
		hits[s.(*indexedFeature).feature] = struct{}{}
	}

	active := make([]*Feature, 0, len(hits))
	for _, f := range l.features {
		if _, ok := hits[f]; ok {
			active = append(active, f)
		}
	}
	l.active = active
	l.cursor = 0
}

// ClearSpatialFilter removes the spatial filter.
func (l *Layer) ClearSpatialFilter() {
	l.active = l.features
	l.cursor = 0
}

func (l *Layer) buildIndex() {
	l.index = rtreego.NewTree(2, 25, 50)
	for _, f := range l.features {
		if f.Geom == nil {
			continue
		}
		env, ok := f.Geom.Envelope()
		if !ok {
			continue
		}
		l.index.Insert(&indexedFeature{feature: f, bounds: rect(env.MinX, env.MinY, env.MaxX, env.MaxY)})
	}
}

// indexedFeature wraps a feature for R-tree storage.
type indexedFeature struct {
	feature *Feature
	bounds  rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (f *indexedFeature) Bounds() rtreego.Rect {
	return f.bounds
}

// rect builds an R-tree rectangle padded by a tiny margin on every side.
// The tree rejects zero lengths and treats touching edges as disjoint; the
// padding keeps point envelopes and boundary contacts inside the filter.
func rect(minX, minY, maxX, maxY float64) rtreego.Rect {
	const epsilon = 1e-9
	r, _ := rtreego.NewRect(
		rtreego.Point{minX - epsilon, minY - epsilon},
		[]float64{maxX - minX + 2*epsilon, maxY - minY + 2*epsilon},
	)
	return r
}
