//go:build gdal

package ogr

/*
#include "ogr_api.h"
#include "ogr_srs_api.h"
*/
import "C"

import (
	"fmt"

	"github.com/jobrunner/s57geojson/internal/domain"
	"github.com/jobrunner/s57geojson/internal/ports/output"
)

// Geometry wraps an OGR geometry. Only clones are owned and destroyed on
// Release; references into a feature are freed with the feature.
type Geometry struct {
	handle C.OGRGeometryH
	owned  bool
}

// Type implements output.Geometry.
func (g *Geometry) Type() domain.GeometryType {
	return geometryType(uint32(C.OGR_G_GetGeometryType(g.handle)))
}

// X implements output.Geometry.
func (g *Geometry) X() float64 { return float64(C.OGR_G_GetX(g.handle, 0)) }

// Y implements output.Geometry.
func (g *Geometry) Y() float64 { return float64(C.OGR_G_GetY(g.handle, 0)) }

// Z implements output.Geometry.
func (g *Geometry) Z() float64 { return float64(C.OGR_G_GetZ(g.handle, 0)) }

// PointCount implements output.Geometry.
func (g *Geometry) PointCount() int {
	return int(C.OGR_G_GetPointCount(g.handle))
}

// Point implements output.Geometry.
func (g *Geometry) Point(i int) (x, y, z float64) {
	var cx, cy, cz C.double
	C.OGR_G_GetPoint(g.handle, C.int(i), &cx, &cy, &cz)
	return float64(cx), float64(cy), float64(cz)
}

// GeometryCount implements output.Geometry.
func (g *Geometry) GeometryCount() int {
	return int(C.OGR_G_GetGeometryCount(g.handle))
}

// GeometryRef implements output.Geometry.
func (g *Geometry) GeometryRef(i int) output.Geometry {
	h := C.OGR_G_GetGeometryRef(g.handle, C.int(i))
	if h == nil {
		return nil
	}
	return &Geometry{handle: h}
}

// SpatialRef implements output.Geometry.
func (g *Geometry) SpatialRef() output.SpatialRef {
	h := C.OGR_G_GetSpatialReference(g.handle)
	if h == nil {
		return nil
	}
	return spatialRef{handle: h}
}

// Clone implements output.Geometry.
func (g *Geometry) Clone() output.Geometry {
	h := C.OGR_G_Clone(g.handle)
	if h == nil {
		return nil
	}
	return &Geometry{handle: h, owned: true}
}

// Transform implements output.Geometry. x/y axis order is kept regardless
// of the authority definition of the target CRS.
func (g *Geometry) Transform(targetSRID int) error {
	target := C.OSRNewSpatialReference(nil)
	defer C.OSRDestroySpatialReference(target)

	if C.OSRImportFromEPSG(target, C.int(targetSRID)) != C.OGRERR_NONE {
		return fmt.Errorf("EPSG:%d: %w", targetSRID, domain.ErrInvalidSRID)
	}
	C.OSRSetAxisMappingStrategy(target, C.OAMS_TRADITIONAL_GIS_ORDER)

	if err := C.OGR_G_TransformTo(g.handle, target); err != C.OGRERR_NONE {
		return fmt.Errorf("OGR error %d: %w", int(err), domain.ErrUnsupportedProjection)
	}
	return nil
}

// Release implements output.Releasable.
func (g *Geometry) Release() {
	if g.owned && g.handle != nil {
		C.OGR_G_DestroyGeometry(g.handle)
		g.handle = nil
	}
}

type spatialRef struct {
	handle C.OGRSpatialReferenceH
}

// AuthorityCode implements output.SpatialRef.
func (s spatialRef) AuthorityCode() string {
	code := C.OSRGetAuthorityCode(s.handle, nil)
	if code == nil {
		return ""
	}
	return C.GoString(code)
}
