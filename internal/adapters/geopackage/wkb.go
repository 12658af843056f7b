package geopackage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"

	"github.com/jobrunner/s57geojson/internal/adapters/memory"
	"github.com/jobrunner/s57geojson/internal/domain"
)

var errInvalidBlob = errors.New("invalid GeoPackage geometry blob")

// blobHeader is the decoded header of a GeoPackage binary geometry.
type blobHeader struct {
	SRSID    int32
	Empty    bool
	Envelope *domain.BBox // nil when the header carries none
	WKB      []byte
}

// envelopeSizes maps the envelope indicator (flags bits 1-3) to its byte size.
var envelopeSizes = map[byte]int{0: 0, 1: 32, 2: 48, 3: 48, 4: 64}

// parseBlob splits a GeoPackage geometry blob into header fields and the
// WKB payload.
func parseBlob(blob []byte) (*blobHeader, error) {
	if len(blob) < 8 || blob[0] != 'G' || blob[1] != 'P' {
		return nil, fmt.Errorf("%w: missing GP magic", errInvalidBlob)
	}

	flags := blob[3]
	var order binary.ByteOrder = binary.BigEndian
	if flags&0x01 != 0 {
		order = binary.LittleEndian
	}

	envSize, ok := envelopeSizes[(flags>>1)&0x07]
	if !ok {
		return nil, fmt.Errorf("%w: envelope indicator %d", errInvalidBlob, (flags>>1)&0x07)
	}
	if len(blob) < 8+envSize {
		return nil, fmt.Errorf("%w: truncated envelope", errInvalidBlob)
	}

	h := &blobHeader{
		SRSID: int32(order.Uint32(blob[4:8])), //#nosec G115 -- srs_id is a signed 32 bit field
		Empty: flags&0x10 != 0,
		WKB:   blob[8+envSize:],
	}

	if envSize > 0 {
		f := func(i int) float64 {
			return math.Float64frombits(order.Uint64(blob[8+i*8 : 16+i*8]))
		}
		// minx, maxx, miny, maxy
		h.Envelope = &domain.BBox{MinX: f(0), MaxX: f(1), MinY: f(2), MaxY: f(3)}
	}

	return h, nil
}

// decodeWKB converts a WKB payload into an in-memory geometry. Empty
// geometries, including POINT EMPTY encoded as NaN ordinates, decode to nil.
func decodeWKB(data []byte) (*memory.Geometry, error) {
	g, err := wkb.Unmarshal(data)
	if err != nil {
		if code, ok := wkbTypeCode(data); ok {
			return memory.NewUnsupported(code), nil
		}
		return nil, fmt.Errorf("decoding WKB: %w", err)
	}
	if isEmpty(g) {
		return nil, nil
	}
	return fromGeom(g, data), nil
}

func isEmpty(g geom.T) bool {
	if gc, ok := g.(*geom.GeometryCollection); ok {
		return gc.NumGeoms() == 0
	}
	c := g.FlatCoords()
	if len(c) == 0 {
		return true
	}
	if _, ok := g.(*geom.Point); ok {
		return math.IsNaN(c[0]) && math.IsNaN(c[1])
	}
	return false
}

// fromGeom maps a go-geom geometry onto the in-memory geometry tree.
func fromGeom(g geom.T, data []byte) *memory.Geometry {
	switch t := g.(type) {
	case *geom.Point:
		c := xyz(t.Coords(), t.Layout())
		if len(c) > 2 {
			return memory.NewPointZ(c[0], c[1], c[2])
		}
		return memory.NewPoint(c[0], c[1])
	case *geom.LineString:
		return memory.NewLineString(coords(t.Coords(), t.Layout())...)
	case *geom.Polygon:
		rings := make([][][]float64, 0, t.NumLinearRings())
		for i := 0; i < t.NumLinearRings(); i++ {
			rings = append(rings, coords(t.LinearRing(i).Coords(), t.Layout()))
		}
		p := memory.NewPolygon(rings...)
		p.HasZ = t.Layout().ZIndex() >= 0
		return p
	case *geom.MultiPoint:
		parts := make([]*memory.Geometry, 0, t.NumPoints())
		for i := 0; i < t.NumPoints(); i++ {
			if m := t.Point(i); !isEmpty(m) {
				parts = append(parts, fromGeom(m, nil))
			}
		}
		return withZ(memory.NewMulti(domain.GeometryMultiPoint, parts...), t.Layout())
	case *geom.MultiLineString:
		parts := make([]*memory.Geometry, 0, t.NumLineStrings())
		for i := 0; i < t.NumLineStrings(); i++ {
			if m := t.LineString(i); !isEmpty(m) {
				parts = append(parts, fromGeom(m, nil))
			}
		}
		return withZ(memory.NewMulti(domain.GeometryMultiLineString, parts...), t.Layout())
	case *geom.MultiPolygon:
		parts := make([]*memory.Geometry, 0, t.NumPolygons())
		for i := 0; i < t.NumPolygons(); i++ {
			if m := t.Polygon(i); !isEmpty(m) {
				parts = append(parts, fromGeom(m, nil))
			}
		}
		return withZ(memory.NewMulti(domain.GeometryMultiPolygon, parts...), t.Layout())
	default:
		code, _ := wkbTypeCode(data)
		return memory.NewUnsupported(code)
	}
}

func withZ(g *memory.Geometry, layout geom.Layout) *memory.Geometry {
	g.HasZ = layout.ZIndex() >= 0
	return g
}

// xyz returns [x, y] or [x, y, z]; M ordinates are dropped.
func xyz(c geom.Coord, layout geom.Layout) []float64 {
	if zi := layout.ZIndex(); zi >= 0 && zi < len(c) {
		return []float64{c[0], c[1], c[zi]}
	}
	return []float64{c[0], c[1]}
}

func coords(cs []geom.Coord, layout geom.Layout) [][]float64 {
	out := make([][]float64, 0, len(cs))
	for _, c := range cs {
		out = append(out, xyz(c, layout))
	}
	return out
}

// wkbTypeCode reads the geometry type code from a WKB header.
func wkbTypeCode(data []byte) (uint32, bool) {
	if len(data) < 5 {
		return 0, false
	}
	if data[0] == 1 {
		return binary.LittleEndian.Uint32(data[1:5]), true
	}
	return binary.BigEndian.Uint32(data[1:5]), true
}
