//go:build gdal

package ogr

/*
#include "ogr_api.h"
*/
import "C"

import (
	"unsafe"

	"github.com/jobrunner/s57geojson/internal/ports/output"
)

// Feature wraps an owned OGR feature handle.
type Feature struct {
	handle C.OGRFeatureH
}

// ID implements output.Feature.
func (f *Feature) ID() int64 {
	return int64(C.OGR_F_GetFID(f.handle))
}

// FieldCount implements output.Feature.
func (f *Feature) FieldCount() int {
	return int(C.OGR_F_GetFieldCount(f.handle))
}

// FieldName implements output.Feature.
func (f *Feature) FieldName(i int) string {
	return C.GoString(C.OGR_Fld_GetNameRef(C.OGR_F_GetFieldDefnRef(f.handle, C.int(i))))
}

// FieldValue implements output.Feature. Unset and null fields report false.
func (f *Feature) FieldValue(i int) (interface{}, bool) {
	idx := C.int(i)
	if C.OGR_F_IsFieldSetAndNotNull(f.handle, idx) == 0 {
		return nil, false
	}

	switch C.OGR_Fld_GetType(C.OGR_F_GetFieldDefnRef(f.handle, idx)) {
	case C.OFTInteger, C.OFTInteger64:
		return int64(C.OGR_F_GetFieldAsInteger64(f.handle, idx)), true
	case C.OFTReal:
		return float64(C.OGR_F_GetFieldAsDouble(f.handle, idx)), true
	case C.OFTIntegerList:
		var n C.int
		values := C.OGR_F_GetFieldAsIntegerList(f.handle, idx, &n)
		out := make([]int64, int(n))
		for j, v := range unsafe.Slice(values, int(n)) {
			out[j] = int64(v)
		}
		return out, true
	case C.OFTInteger64List:
		var n C.int
		values := C.OGR_F_GetFieldAsInteger64List(f.handle, idx, &n)
		out := make([]int64, int(n))
		for j, v := range unsafe.Slice(values, int(n)) {
			out[j] = int64(v)
		}
		return out, true
	case C.OFTRealList:
		var n C.int
		values := C.OGR_F_GetFieldAsDoubleList(f.handle, idx, &n)
		out := make([]float64, int(n))
		for j, v := range unsafe.Slice(values, int(n)) {
			out[j] = float64(v)
		}
		return out, true
	case C.OFTStringList:
		list := C.OGR_F_GetFieldAsStringList(f.handle, idx)
		var out []string
		for p := list; p != nil && *p != nil; p = (**C.char)(unsafe.Add(unsafe.Pointer(p), unsafe.Sizeof(*p))) {
			out = append(out, C.GoString(*p))
		}
		return out, true
	default:
		return C.GoString(C.OGR_F_GetFieldAsString(f.handle, idx)), true
	}
}

// Geometry implements output.Feature. The geometry is owned by the feature.
func (f *Feature) Geometry() output.Geometry {
	h := C.OGR_F_GetGeometryRef(f.handle)
	if h == nil {
		return nil
	}
	return &Geometry{handle: h}
}

// Release implements output.Releasable.
func (f *Feature) Release() {
	if f.handle != nil {
		C.OGR_F_Destroy(f.handle)
		f.handle = nil
	}
}
