package output

import (
	"context"

	"github.com/jobrunner/s57geojson/internal/domain"
)

// DatasetOpener defines the secondary port for opening chart datasets.
// It is the single entry into the native spatial capability.
type DatasetOpener interface {
	// Open opens a chart file read-only. A failure means no layer work
	// may happen for this path.
	Open(ctx context.Context, path string) (Dataset, error)
}

// Dataset is an opened chart. It is owned by exactly one conversion and
// must be closed by that conversion.
type Dataset interface {
	// LayerCount returns the number of layers.
	LayerCount() int

	// Layer returns the layer at index i (0..LayerCount()-1).
	Layer(i int) (Layer, error)

	// Close releases the native handle.
	Close() error
}

// Layer is a named, schema-homogeneous feature collection with a read cursor.
type Layer interface {
	// Name returns the layer name, for S-57 the object class acronym.
	Name() string

	// FeatureCount is advisory only; it may be -1 when counting is expensive.
	FeatureCount() int64

	// ResetReading rewinds the read cursor.
	ResetReading()

	// NextFeature returns the next feature, or nil once the layer is exhausted.
	NextFeature() Feature

	// SetSpatialFilterRect restricts subsequent reads to features whose
	// geometry intersects the rectangle.
	SetSpatialFilterRect(minX, minY, maxX, maxY float64)
}

// Feature is one record read from a layer.
type Feature interface {
	// ID returns the native feature identifier, unique within the layer.
	ID() int64

	// FieldCount returns the number of field slots.
	FieldCount() int

	// FieldName returns the declared name of field slot i.
	FieldName(i int) string

	// FieldValue returns the value of slot i as a plain Go value
	// (string, int64, float64, slices thereof). ok is false for unset or null.
	FieldValue(i int) (value interface{}, ok bool)

	// Geometry returns the feature geometry, or nil if it has none.
	Geometry() Geometry
}

// Geometry is a native geometry handle.
type Geometry interface {
	// Type returns the geometry kind and has-Z modifier.
	Type() domain.GeometryType

	// X, Y and Z return the ordinates of a point geometry.
	X() float64
	Y() float64
	Z() float64

	// PointCount and Point expose the vertex sequence of a line or ring.
	PointCount() int
	Point(i int) (x, y, z float64)

	// GeometryCount and GeometryRef expose rings of a polygon and
	// members of multi geometries.
	GeometryCount() int
	GeometryRef(i int) Geometry

	// SpatialRef returns the CRS, or nil if none is attached.
	SpatialRef() SpatialRef

	// Clone returns an independent deep copy, or nil on failure.
	Clone() Geometry

	// Transform reprojects the geometry in place to the target EPSG code.
	Transform(targetSRID int) error
}

// SpatialRef is a coordinate reference system handle.
type SpatialRef interface {
	// AuthorityCode returns the authority code, e.g. "4326", or "" if unknown.
	AuthorityCode() string
}

// Releasable is implemented by handles that own native memory. Callers
// release features after extraction and geometry clones after translation.
type Releasable interface {
	Release()
}
