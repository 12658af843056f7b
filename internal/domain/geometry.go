package domain

import "fmt"

// GeometryKind is the closed set of geometry kinds the converter understands.
type GeometryKind int

// Geometry kinds. GeometryUnknown covers everything else a native library
// may report (collections, curves, TINs, ...).
const (
	GeometryUnknown GeometryKind = iota
	GeometryPoint
	GeometryLineString
	GeometryPolygon
	GeometryMultiPoint
	GeometryMultiLineString
	GeometryMultiPolygon
)

// String returns the GeoJSON type name of the kind.
func (k GeometryKind) String() string {
	switch k {
	case GeometryPoint:
		return "Point"
	case GeometryLineString:
		return "LineString"
	case GeometryPolygon:
		return "Polygon"
	case GeometryMultiPoint:
		return "MultiPoint"
	case GeometryMultiLineString:
		return "MultiLineString"
	case GeometryMultiPolygon:
		return "MultiPolygon"
	default:
		return "Unknown"
	}
}

// GeometryType tags a native geometry: its kind plus the has-Z modifier.
type GeometryType struct {
	Kind GeometryKind
	HasZ bool
	Code uint32 // native type code, informational only
}

// String returns a readable form such as "Point25D" or "Unknown(7)".
func (t GeometryType) String() string {
	if t.Kind == GeometryUnknown {
		return fmt.Sprintf("Unknown(%d)", t.Code)
	}
	if t.HasZ {
		return t.Kind.String() + "25D"
	}
	return t.Kind.String()
}

// Position is one GeoJSON position: [x, y] or [x, y, z].
type Position []float64

// Geometry is a GeoJSON geometry value.
//
// Coordinates holds one of Position, []Position, [][]Position or
// [][][]Position depending on Type.
type Geometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"`
}

// Point returns the coordinates of a Point geometry.
func (g *Geometry) Point() (Position, bool) {
	p, ok := g.Coordinates.(Position)
	return p, ok
}

// Line returns the coordinates of a LineString or MultiPoint geometry.
func (g *Geometry) Line() ([]Position, bool) {
	l, ok := g.Coordinates.([]Position)
	return l, ok
}

// Rings returns the coordinates of a Polygon or MultiLineString geometry.
func (g *Geometry) Rings() ([][]Position, bool) {
	r, ok := g.Coordinates.([][]Position)
	return r, ok
}

// Polygons returns the coordinates of a MultiPolygon geometry.
func (g *Geometry) Polygons() ([][][]Position, bool) {
	p, ok := g.Coordinates.([][][]Position)
	return p, ok
}
