// Package ogr reads S-57 charts through the GDAL/OGR C API.
//
// The native implementation is compiled with the gdal build tag and needs
// the GDAL development files (pkg-config gdal). Without the tag every
// constructor reports a dependency error, so the rest of the program still
// builds and can fall back to the GeoPackage or mock drivers.
package ogr

// S57DriverName is the OGR driver that reads ENC cells.
const S57DriverName = "S57"

// Info describes the native capability.
type Info struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	S57Driver bool   `json:"s57_driver"`
	Drivers   int    `json:"drivers,omitempty"`
}
