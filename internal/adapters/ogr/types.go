package ogr

import "github.com/jobrunner/s57geojson/internal/domain"

// wkb25DBit marks the legacy 2.5D variant of a geometry type code.
const wkb25DBit = 0x80000000

var wkbKinds = map[uint32]domain.GeometryKind{
	1: domain.GeometryPoint,
	2: domain.GeometryLineString,
	3: domain.GeometryPolygon,
	4: domain.GeometryMultiPoint,
	5: domain.GeometryMultiLineString,
	6: domain.GeometryMultiPolygon,
}

// geometryType maps an OGR geometry type code to a domain type. Only the
// plain 2D codes (1-6) and their 2.5D variants are known; measured (M, ZM)
// and ISO Z codes map to GeometryUnknown.
func geometryType(code uint32) domain.GeometryType {
	t := domain.GeometryType{Code: code}
	kind, ok := wkbKinds[code&^wkb25DBit]
	if !ok {
		return t
	}
	t.Kind = kind
	t.HasZ = code&wkb25DBit != 0
	return t
}
