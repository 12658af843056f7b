package application

import (
	"errors"
	"fmt"

	"github.com/jobrunner/s57geojson/internal/domain"
	"github.com/jobrunner/s57geojson/internal/ports/output"
)

var errCloneFailed = errors.New("geometry clone failed")

// toWGS84 returns g expressed in WGS84. Geometries without a CRS and
// geometries already in EPSG:4326 are returned as is; anything else is
// cloned and the clone is reprojected, leaving g untouched. cloned reports
// whether the result is a new handle owned by the caller.
func toWGS84(g output.Geometry) (result output.Geometry, cloned bool, err error) {
	srs := g.SpatialRef()
	if srs == nil {
		return g, false, nil
	}
	if srs.AuthorityCode() == domain.AuthorityWGS84 {
		return g, false, nil
	}

	clone := g.Clone()
	if clone == nil {
		return nil, false, errCloneFailed
	}
	if err := clone.Transform(domain.SRIDWGS84); err != nil {
		release(clone)
		return nil, false, fmt.Errorf("reproject to EPSG:%d: %w", domain.SRIDWGS84, err)
	}
	return clone, true, nil
}

// release frees native memory held by v, if any.
func release(v interface{}) {
	if r, ok := v.(output.Releasable); ok {
		r.Release()
	}
}
