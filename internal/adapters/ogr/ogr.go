//go:build gdal

package ogr

/*
#cgo pkg-config: gdal
#include <stdlib.h>
#include "gdal.h"
#include "ogr_api.h"
#include "ogr_srs_api.h"
#include "cpl_string.h"
*/
import "C"

import (
	"context"
	"log/slog"
	"sync"
	"unsafe"

	"github.com/jobrunner/s57geojson/internal/domain"
	"github.com/jobrunner/s57geojson/internal/ports/output"
)

var registerOnce sync.Once

func register() {
	registerOnce.Do(func() { C.GDALAllRegister() })
}

// Opener opens S-57 cells with the OGR S57 driver.
type Opener struct {
	options []string
	logger  *slog.Logger
}

// NewOpener registers the GDAL drivers and checks that the S57 driver is
// present. options are passed to the driver as open options
// (e.g. "SPLIT_MULTIPOINT=ON").
func NewOpener(options []string, logger *slog.Logger) (*Opener, error) {
	register()

	name := C.CString(S57DriverName)
	defer C.free(unsafe.Pointer(name))
	if C.GDALGetDriverByName(name) == nil {
		return nil, &domain.DependencyError{
			Component: "S57 driver",
			Hint:      "install a GDAL build that includes the S57 vector driver",
		}
	}

	return &Opener{options: options, logger: logger}, nil
}

// Open implements output.DatasetOpener.
func (o *Opener) Open(_ context.Context, path string) (output.Dataset, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	var opts **C.char
	for _, opt := range o.options {
		copt := C.CString(opt)
		opts = C.CSLAddString(opts, copt)
		C.free(unsafe.Pointer(copt))
	}
	defer C.CSLDestroy(opts)

	h := C.GDALOpenEx(cpath, C.GDAL_OF_VECTOR|C.GDAL_OF_READONLY, nil, opts, nil)
	if h == nil {
		msg := C.GoString(C.CPLGetLastErrorMsg())
		if msg == "" {
			return nil, &domain.ParseError{Path: path}
		}
		return nil, &domain.ParseError{Path: path, Err: cplError(msg)}
	}

	o.logger.Debug("opened dataset", "path", path, "layers", int(C.GDALDatasetGetLayerCount(h)))
	return &Dataset{handle: h}, nil
}

type cplError string

func (e cplError) Error() string { return string(e) }

// Detect reports the GDAL version and whether the S57 driver is registered.
func Detect() Info {
	register()

	key := C.CString("RELEASE_NAME")
	defer C.free(unsafe.Pointer(key))
	name := C.CString(S57DriverName)
	defer C.free(unsafe.Pointer(name))

	return Info{
		Available: true,
		Version:   C.GoString(C.GDALVersionInfo(key)),
		S57Driver: C.GDALGetDriverByName(name) != nil,
		Drivers:   int(C.GDALGetDriverCount()),
	}
}

// Dataset wraps a GDAL dataset handle.
type Dataset struct {
	handle C.GDALDatasetH
}

// LayerCount implements output.Dataset.
func (d *Dataset) LayerCount() int {
	return int(C.GDALDatasetGetLayerCount(d.handle))
}

// Layer implements output.Dataset.
func (d *Dataset) Layer(i int) (output.Layer, error) {
	h := C.GDALDatasetGetLayer(d.handle, C.int(i))
	if h == nil {
		return nil, domain.ErrLayerNotFound
	}
	return &Layer{handle: h}, nil
}

// Close implements output.Dataset.
func (d *Dataset) Close() error {
	if d.handle != nil {
		C.GDALClose(d.handle)
		d.handle = nil
	}
	return nil
}

// Layer wraps an OGR layer handle owned by its dataset.
type Layer struct {
	handle C.OGRLayerH
}

// Name implements output.Layer.
func (l *Layer) Name() string {
	return C.GoString(C.OGR_L_GetName(l.handle))
}

// FeatureCount implements output.Layer.
func (l *Layer) FeatureCount() int64 {
	return int64(C.OGR_L_GetFeatureCount(l.handle, 1))
}

// ResetReading implements output.Layer.
func (l *Layer) ResetReading() {
	C.OGR_L_ResetReading(l.handle)
}

// NextFeature implements output.Layer.
func (l *Layer) NextFeature() output.Feature {
	h := C.OGR_L_GetNextFeature(l.handle)
	if h == nil {
		return nil
	}
	return &Feature{handle: h}
}

// SetSpatialFilterRect implements output.Layer.
func (l *Layer) SetSpatialFilterRect(minX, minY, maxX, maxY float64) {
	C.OGR_L_SetSpatialFilterRect(l.handle, C.double(minX), C.double(minY), C.double(maxX), C.double(maxY))
}
