// Package geopackage reads charts stored as GeoPackage files, e.g. the output
// of ogr2ogr -f GPKG, and reprojects coordinates through SpatiaLite.
package geopackage

import (
	"database/sql"
	"os"
	"strings"

	"github.com/mattn/go-sqlite3"
)

const (
	// driverName reads GeoPackage files; it needs no extension.
	driverName = "sqlite3"

	// spatialDriverName has SpatiaLite loaded and is used for transformations.
	spatialDriverName = "sqlite3_with_spatialite"
)

func init() {
	sql.Register(spatialDriverName, &sqlite3.SQLiteDriver{
		Extensions: []string{spatiaLiteLibrary()},
	})
}

// spatiaLiteLibrary returns the first SpatiaLite library found on disk,
// falling back to the bare module name resolved by the dynamic loader.
func spatiaLiteLibrary() string {
	paths := getSpatiaLiteLibraryPaths()
	for _, p := range paths {
		if !strings.ContainsRune(p, os.PathSeparator) {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return paths[len(paths)-1]
}

// getSpatiaLiteLibraryPaths returns a list of paths to try for loading SpatiaLite.
// The environment variable wins; otherwise platform paths, then bare names.
func getSpatiaLiteLibraryPaths() []string {
	if envPath := os.Getenv("SPATIALITE_LIBRARY_PATH"); envPath != "" {
		return []string{envPath}
	}

	return []string{
		// Alpine Linux (Docker containers)
		"/usr/lib/mod_spatialite.so",
		"/usr/lib/mod_spatialite.so.8",

		// Debian/Ubuntu amd64
		"/usr/lib/x86_64-linux-gnu/mod_spatialite.so",
		"/usr/lib/x86_64-linux-gnu/mod_spatialite.so.8",

		// Debian/Ubuntu arm64
		"/usr/lib/aarch64-linux-gnu/mod_spatialite.so",
		"/usr/lib/aarch64-linux-gnu/mod_spatialite.so.8",

		// macOS Homebrew (Intel)
		"/usr/local/lib/mod_spatialite.dylib",

		// macOS Homebrew (Apple Silicon)
		"/opt/homebrew/lib/mod_spatialite.dylib",

		// Resolved via LD_LIBRARY_PATH / DYLD_LIBRARY_PATH
		"mod_spatialite",
	}
}
