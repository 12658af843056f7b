// Package memory provides an in-memory implementation of the dataset
// capability. It backs the mock driver and datasets decoded from GeoPackage.
package memory

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/jobrunner/s57geojson/internal/domain"
	"github.com/jobrunner/s57geojson/internal/ports/output"
)

// Geometry is a plain-value geometry tree.
//
// Points use Coord; lines and rings use Points; polygons and multi
// geometries use Parts. SRID 0 means no CRS is attached.
type Geometry struct {
	Kind   domain.GeometryKind
	HasZ   bool
	Code   uint32
	Coord  [3]float64
	Points [][3]float64
	Parts  []*Geometry
	SRID   int

	transformer output.CoordinateTransformer
}

// NewPoint creates a 2D point.
func NewPoint(x, y float64) *Geometry {
	return &Geometry{Kind: domain.GeometryPoint, Coord: [3]float64{x, y, 0}}
}

// NewPointZ creates a point with elevation.
func NewPointZ(x, y, z float64) *Geometry {
	return &Geometry{Kind: domain.GeometryPoint, HasZ: true, Coord: [3]float64{x, y, z}}
}

// NewLineString creates a line from [x, y] or [x, y, z] vertices.
func NewLineString(coords ...[]float64) *Geometry {
	g := &Geometry{Kind: domain.GeometryLineString}
	g.Points, g.HasZ = vertices(coords)
	return g
}

// NewPolygon creates a polygon; the first ring is the exterior.
func NewPolygon(rings ...[][]float64) *Geometry {
	g := &Geometry{Kind: domain.GeometryPolygon}
	for _, r := range rings {
		ring := NewLineString(r...)
		g.HasZ = g.HasZ || ring.HasZ
		g.Parts = append(g.Parts, ring)
	}
	return g
}

// NewMulti creates a multi geometry of the given kind from its members.
func NewMulti(kind domain.GeometryKind, parts ...*Geometry) *Geometry {
	g := &Geometry{Kind: kind, Parts: parts}
	for _, p := range parts {
		g.HasZ = g.HasZ || p.HasZ
	}
	return g
}

// NewUnsupported creates a geometry whose type the translator does not handle.
func NewUnsupported(code uint32) *Geometry {
	return &Geometry{Kind: domain.GeometryUnknown, Code: code}
}

func vertices(coords [][]float64) ([][3]float64, bool) {
	points := make([][3]float64, 0, len(coords))
	hasZ := false
	for _, c := range coords {
		var p [3]float64
		copy(p[:], c)
		if len(c) > 2 {
			hasZ = true
		}
		points = append(points, p)
	}
	return points, hasZ
}

// WithSRID attaches a CRS and the transformer used to reproject from it.
func (g *Geometry) WithSRID(srid int, transformer output.CoordinateTransformer) *Geometry {
	g.SRID = srid
	g.transformer = transformer
	for _, p := range g.Parts {
		p.WithSRID(srid, transformer)
	}
	return g
}

// Type implements output.Geometry.
func (g *Geometry) Type() domain.GeometryType {
	return domain.GeometryType{Kind: g.Kind, HasZ: g.HasZ, Code: g.Code}
}

// X implements output.Geometry.
func (g *Geometry) X() float64 { return g.Coord[0] }

// Y implements output.Geometry.
func (g *Geometry) Y() float64 { return g.Coord[1] }

// Z implements output.Geometry.
func (g *Geometry) Z() float64 { return g.Coord[2] }

// PointCount implements output.Geometry.
func (g *Geometry) PointCount() int { return len(g.Points) }

// Point implements output.Geometry.
func (g *Geometry) Point(i int) (x, y, z float64) {
	p := g.Points[i]
	return p[0], p[1], p[2]
}

// GeometryCount implements output.Geometry.
func (g *Geometry) GeometryCount() int { return len(g.Parts) }

// GeometryRef implements output.Geometry.
func (g *Geometry) GeometryRef(i int) output.Geometry {
	if i < 0 || i >= len(g.Parts) || g.Parts[i] == nil {
		return nil
	}
	return g.Parts[i]
}

// SpatialRef implements output.Geometry.
func (g *Geometry) SpatialRef() output.SpatialRef {
	if g.SRID == 0 {
		return nil
	}
	return SpatialRef(g.SRID)
}

// Clone implements output.Geometry.
func (g *Geometry) Clone() output.Geometry {
	return g.clone()
}

func (g *Geometry) clone() *Geometry {
	c := *g
	c.Points = append([][3]float64(nil), g.Points...)
	c.Parts = nil
	for _, p := range g.Parts {
		c.Parts = append(c.Parts, p.clone())
	}
	return &c
}

// Transform implements output.Geometry. x and y are reprojected; z is kept.
func (g *Geometry) Transform(targetSRID int) error {
	if g.SRID == targetSRID {
		return nil
	}
	if g.transformer == nil {
		return fmt.Errorf("EPSG:%d to EPSG:%d: %w", g.SRID, targetSRID, domain.ErrUnsupportedProjection)
	}
	if !g.transformer.IsSupported(g.SRID, targetSRID) {
		return fmt.Errorf("EPSG:%d to EPSG:%d: %w", g.SRID, targetSRID, domain.ErrUnsupportedProjection)
	}
	return g.transform(context.Background(), g.SRID, targetSRID)
}

func (g *Geometry) transform(ctx context.Context, source, target int) error {
	move := func(p *[3]float64) error {
		c, err := g.transformer.Transform(ctx, domain.Coordinate{X: p[0], Y: p[1], Z: p[2], SRID: source}, target)
		if err != nil {
			return err
		}
		p[0], p[1] = c.X, c.Y
		return nil
	}

	if g.Kind == domain.GeometryPoint {
		if err := move(&g.Coord); err != nil {
			return err
		}
	}
	for i := range g.Points {
		if err := move(&g.Points[i]); err != nil {
			return err
		}
	}
	for _, p := range g.Parts {
		p.transformer = g.transformer
		if err := p.transform(ctx, source, target); err != nil {
			return err
		}
	}
	g.SRID = target
	return nil
}

// Envelope returns the bounding box of all vertices. ok is false for
// geometries without vertices.
func (g *Geometry) Envelope() (bbox domain.BBox, ok bool) {
	bbox = domain.BBox{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	g.extend(&bbox, &ok)
	return bbox, ok
}

func (g *Geometry) extend(b *domain.BBox, ok *bool) {
	add := func(x, y float64) {
		b.MinX = math.Min(b.MinX, x)
		b.MinY = math.Min(b.MinY, y)
		b.MaxX = math.Max(b.MaxX, x)
		b.MaxY = math.Max(b.MaxY, y)
		*ok = true
	}
	if g.Kind == domain.GeometryPoint {
		add(g.Coord[0], g.Coord[1])
	}
	for _, p := range g.Points {
		add(p[0], p[1])
	}
	for _, p := range g.Parts {
		p.extend(b, ok)
	}
}

// SpatialRef is an EPSG code implementing output.SpatialRef.
type SpatialRef int

// AuthorityCode implements output.SpatialRef.
func (s SpatialRef) AuthorityCode() string {
	return strconv.Itoa(int(s))
}
