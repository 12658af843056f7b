package application

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/jobrunner/s57geojson/internal/domain"
	"github.com/jobrunner/s57geojson/internal/ports/output"
)

var errCorruptGeometry = errors.New("corrupt geometry")

// GeometryTranslator maps native geometries to GeoJSON geometry values in WGS84.
type GeometryTranslator struct {
	metrics output.MetricsCollector
	logger  *slog.Logger
}

// NewGeometryTranslator creates a new geometry translator.
func NewGeometryTranslator(metrics output.MetricsCollector, logger *slog.Logger) *GeometryTranslator {
	return &GeometryTranslator{
		metrics: metrics,
		logger:  logger,
	}
}

// Translate converts g. It returns nil when g is nil, when its type is not
// supported and when the geometry cannot be read or reprojected. It never
// panics and never modifies g.
func (t *GeometryTranslator) Translate(g output.Geometry) (result *domain.Geometry) {
	if g == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("geometry conversion failed", "error", r)
			t.metrics.IncGeometryFailures("corrupt")
			result = nil
		}
	}()

	wgs84, cloned, err := toWGS84(g)
	if err != nil {
		t.logger.Error("geometry reprojection failed", "error", err)
		t.metrics.IncGeometryFailures("transform")
		return nil
	}
	if cloned {
		defer release(wgs84)
	}

	typ := wgs84.Type()
	switch typ.Kind {
	case domain.GeometryPoint:
		return &domain.Geometry{Type: "Point", Coordinates: pointCoordinates(wgs84, typ.HasZ)}
	case domain.GeometryLineString:
		return &domain.Geometry{Type: "LineString", Coordinates: lineCoordinates(wgs84)}
	case domain.GeometryPolygon:
		return &domain.Geometry{Type: "Polygon", Coordinates: polygonCoordinates(wgs84)}
	case domain.GeometryMultiPoint:
		return &domain.Geometry{Type: "MultiPoint", Coordinates: multiPointCoordinates(wgs84)}
	case domain.GeometryMultiLineString:
		return &domain.Geometry{Type: "MultiLineString", Coordinates: multiLineCoordinates(wgs84)}
	case domain.GeometryMultiPolygon:
		return &domain.Geometry{Type: "MultiPolygon", Coordinates: multiPolygonCoordinates(wgs84)}
	default:
		t.logger.Warn("unsupported geometry type", "type", typ.String())
		t.metrics.IncGeometryFailures("unsupported")
		return nil
	}
}

// pointCoordinates returns [x, y], or [x, y, z] when hasZ is set.
func pointCoordinates(g output.Geometry, hasZ bool) domain.Position {
	if hasZ {
		return position(g.X(), g.Y(), g.Z())
	}
	return position(g.X(), g.Y())
}

// lineCoordinates returns every vertex as [x, y, z], z included even for 2D lines.
func lineCoordinates(g output.Geometry) []domain.Position {
	n := g.PointCount()
	coords := make([]domain.Position, 0, n)
	for i := 0; i < n; i++ {
		x, y, z := g.Point(i)
		coords = append(coords, position(x, y, z))
	}
	return coords
}

// ringCoordinates returns the ring vertices as [x, y]; z is dropped and the
// ring is neither closed nor reoriented.
func ringCoordinates(g output.Geometry) []domain.Position {
	n := g.PointCount()
	coords := make([]domain.Position, 0, n)
	for i := 0; i < n; i++ {
		x, y, _ := g.Point(i)
		coords = append(coords, position(x, y))
	}
	return coords
}

// polygonCoordinates returns the exterior ring followed by the holes.
func polygonCoordinates(g output.Geometry) [][]domain.Position {
	n := g.GeometryCount()
	rings := make([][]domain.Position, 0, n)
	for i := 0; i < n; i++ {
		rings = append(rings, ringCoordinates(part(g, i)))
	}
	return rings
}

func multiPointCoordinates(g output.Geometry) []domain.Position {
	n := g.GeometryCount()
	coords := make([]domain.Position, 0, n)
	for i := 0; i < n; i++ {
		p := part(g, i)
		coords = append(coords, position(p.X(), p.Y()))
	}
	return coords
}

func multiLineCoordinates(g output.Geometry) [][]domain.Position {
	n := g.GeometryCount()
	lines := make([][]domain.Position, 0, n)
	for i := 0; i < n; i++ {
		lines = append(lines, lineCoordinates(part(g, i)))
	}
	return lines
}

func multiPolygonCoordinates(g output.Geometry) [][][]domain.Position {
	n := g.GeometryCount()
	polygons := make([][][]domain.Position, 0, n)
	for i := 0; i < n; i++ {
		polygons = append(polygons, polygonCoordinates(part(g, i)))
	}
	return polygons
}

// position builds one GeoJSON position. A NaN or infinite ordinate cannot be
// encoded and aborts the translation of the whole geometry.
func position(ordinates ...float64) domain.Position {
	for _, v := range ordinates {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			panic(fmt.Errorf("%w: non-finite ordinate %v", errCorruptGeometry, v))
		}
	}
	return domain.Position(ordinates)
}

// part returns member i of g. A missing member aborts the translation of the
// whole geometry through the recover in Translate.
func part(g output.Geometry, i int) output.Geometry {
	p := g.GeometryRef(i)
	if p == nil {
		panic(fmt.Errorf("%w: part %d of %d is missing", errCorruptGeometry, i, g.GeometryCount()))
	}
	return p
}
