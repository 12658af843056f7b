// Package domain contains the chart conversion entities and value objects.
package domain

import (
	"fmt"
	"math"
	"strconv"
)

// Coordinate represents a single position with optional height.
type Coordinate struct {
	X    float64 // Longitude or Easting
	Y    float64 // Latitude or Northing
	Z    float64 // Height (optional)
	SRID int     // Spatial Reference ID
}

// NewWGS84Coordinate creates a WGS84 (EPSG:4326) coordinate.
func NewWGS84Coordinate(lon, lat float64) Coordinate {
	return Coordinate{X: lon, Y: lat, SRID: SRIDWGS84}
}

// NewCoordinate creates a coordinate with the specified SRID.
func NewCoordinate(x, y float64, srid int) Coordinate {
	return Coordinate{X: x, Y: y, SRID: srid}
}

// WKT returns the Well-Known Text representation.
func (c Coordinate) WKT() string {
	return fmt.Sprintf("POINT(%s %s)",
		strconv.FormatFloat(c.X, 'f', -1, 64),
		strconv.FormatFloat(c.Y, 'f', -1, 64),
	)
}

// Common SRID constants.
const (
	SRIDWGS84       = 4326 // WGS 84
	SRIDWebMercator = 3857 // Web Mercator
)

// AuthorityWGS84 is the EPSG authority code identifying WGS 84.
const AuthorityWGS84 = "4326"

// BBox is a rectangle [minX, minY, maxX, maxY] used as a layer spatial filter.
// The numbers are handed to the native layer unchanged.
type BBox struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// NewBBox builds a BBox from exactly four numbers in minX, minY, maxX, maxY order.
func NewBBox(values []float64) (*BBox, error) {
	if len(values) != 4 {
		return nil, &ValidationError{
			Field:      "bbox",
			Value:      values,
			Constraint: "4 numbers",
			Message:    fmt.Sprintf("bbox needs exactly 4 numbers (minLon minLat maxLon maxLat), got %d", len(values)),
		}
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &ValidationError{
				Field:      "bbox",
				Value:      values,
				Constraint: "finite",
				Message:    "bbox values must be finite numbers",
			}
		}
	}
	return &BBox{MinX: values[0], MinY: values[1], MaxX: values[2], MaxY: values[3]}, nil
}

// Array returns the box as [minX, minY, maxX, maxY].
func (b BBox) Array() [4]float64 {
	return [4]float64{b.MinX, b.MinY, b.MaxX, b.MaxY}
}

// IsValid checks if the box has non-negative dimensions.
func (b BBox) IsValid() bool {
	return b.MinX <= b.MaxX && b.MinY <= b.MaxY
}

// Contains checks if a coordinate is within the box.
func (b BBox) Contains(c Coordinate) bool {
	return c.X >= b.MinX && c.X <= b.MaxX && c.Y >= b.MinY && c.Y <= b.MaxY
}

// Intersects reports whether two boxes share at least one point.
func (b BBox) Intersects(o BBox) bool {
	return b.MinX <= o.MaxX && o.MinX <= b.MaxX && b.MinY <= o.MaxY && o.MinY <= b.MaxY
}

// Width returns the width of the box.
func (b BBox) Width() float64 {
	return math.Abs(b.MaxX - b.MinX)
}

// Height returns the height of the box.
func (b BBox) Height() float64 {
	return math.Abs(b.MaxY - b.MinY)
}
