package geopackage

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/twpayne/go-geom"

	"github.com/jobrunner/s57geojson/internal/domain"
	"github.com/jobrunner/s57geojson/internal/ports/output"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// createChart writes a small GeoPackage with a feature table, an indexed
// feature table and an attribute table.
func createChart(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "chart.gpkg")
	db, err := sql.Open(driverName, path)
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	exec := func(query string, args ...interface{}) {
		t.Helper()
		if _, err := db.Exec(query, args...); err != nil {
			t.Fatalf("exec %q: %v", query, err)
		}
	}

	exec(`CREATE TABLE gpkg_spatial_ref_sys (
		srs_name TEXT, srs_id INTEGER PRIMARY KEY, organization TEXT,
		organization_coordsys_id INTEGER, definition TEXT, description TEXT)`)
	exec(`INSERT INTO gpkg_spatial_ref_sys VALUES ('WGS 84', 4326, 'EPSG', 4326, '', '')`)
	exec(`CREATE TABLE gpkg_contents (
		table_name TEXT PRIMARY KEY, data_type TEXT, identifier TEXT,
		description TEXT, last_change TEXT, min_x REAL, min_y REAL,
		max_x REAL, max_y REAL, srs_id INTEGER)`)
	exec(`CREATE TABLE gpkg_geometry_columns (
		table_name TEXT, column_name TEXT, geometry_type_name TEXT,
		srs_id INTEGER, z INTEGER, m INTEGER)`)

	exec(`CREATE TABLE "SOUNDG" (fid INTEGER PRIMARY KEY, geom BLOB, VALSOU REAL, OBJNAM TEXT)`)
	exec(`INSERT INTO gpkg_contents (table_name, data_type) VALUES ('SOUNDG', 'features')`)
	exec(`INSERT INTO gpkg_geometry_columns VALUES ('SOUNDG', 'geom', 'POINT', 4326, 0, 0)`)
	exec(`INSERT INTO "SOUNDG" VALUES (1, ?, 8.5, NULL)`, gpkgBlob(t, geom.NewPointFlat(geom.XY, []float64{-117.2, 32.7}), 4326))
	exec(`INSERT INTO "SOUNDG" VALUES (2, ?, 12.0, 'deep')`, gpkgBlob(t, geom.NewPointFlat(geom.XY, []float64{10, 50}), 4326))
	exec(`INSERT INTO "SOUNDG" VALUES (3, NULL, 1.0, NULL)`)

	exec(`CREATE TABLE "DEPARE" (fid INTEGER PRIMARY KEY, geom BLOB, DRVAL1 REAL)`)
	exec(`INSERT INTO gpkg_contents (table_name, data_type) VALUES ('DEPARE', 'features')`)
	exec(`INSERT INTO gpkg_geometry_columns VALUES ('DEPARE', 'geom', 'POLYGON', 4326, 0, 0)`)
	exec(`CREATE VIRTUAL TABLE "rtree_DEPARE_geom" USING rtree(id, minx, maxx, miny, maxy)`)
	polygon := geom.NewPolygonFlat(geom.XY, []float64{0, 0, 1, 0, 1, 1, 0, 0}, []int{8})
	exec(`INSERT INTO "DEPARE" VALUES (1, ?, 5.0)`, gpkgBlob(t, polygon, 4326))
	exec(`INSERT INTO "rtree_DEPARE_geom" VALUES (1, 0, 1, 0, 1)`)

	exec(`CREATE TABLE "DSID" (fid INTEGER PRIMARY KEY, DSNM TEXT)`)
	exec(`INSERT INTO gpkg_contents (table_name, data_type) VALUES ('DSID', 'attributes')`)
	exec(`INSERT INTO "DSID" VALUES (1, 'US5CA72M.000')`)

	return path
}

func openChart(t *testing.T) output.Dataset {
	t.Helper()
	ds, err := NewOpener(nil, testLogger()).Open(context.Background(), createChart(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = ds.Close() })
	return ds
}

func layerNames(t *testing.T, ds output.Dataset) []string {
	t.Helper()
	var names []string
	for i := 0; i < ds.LayerCount(); i++ {
		l, err := ds.Layer(i)
		if err != nil {
			t.Fatalf("Layer(%d) error = %v", i, err)
		}
		names = append(names, l.Name())
	}
	return names
}

func readAll(l output.Layer) []output.Feature {
	var out []output.Feature
	l.ResetReading()
	for f := l.NextFeature(); f != nil; f = l.NextFeature() {
		out = append(out, f)
	}
	return out
}

func TestOpener_Open(t *testing.T) {
	ds := openChart(t)

	want := []string{"SOUNDG", "DEPARE", "DSID"}
	if diff := cmp.Diff(want, layerNames(t, ds)); diff != "" {
		t.Errorf("layers mismatch (-want +got):\n%s", diff)
	}
}

func TestOpener_Open_Errors(t *testing.T) {
	opener := NewOpener(nil, testLogger())

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(t.TempDir(), "missing.gpkg")},
		{"directory", t.TempDir()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := opener.Open(context.Background(), tt.path)
			var parseErr *domain.ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Open() error = %v, want ParseError", err)
			}
		})
	}
}

func TestLayer_Features(t *testing.T) {
	ds := openChart(t)
	l, _ := ds.Layer(0)

	if got := l.FeatureCount(); got != 3 {
		t.Errorf("FeatureCount() = %d, want 3", got)
	}

	features := readAll(l)
	if len(features) != 3 {
		t.Fatalf("got %d features, want 3", len(features))
	}

	first := features[0]
	if first.ID() != 1 {
		t.Errorf("ID() = %d, want 1", first.ID())
	}
	if first.FieldCount() != 2 {
		t.Fatalf("FieldCount() = %d, want 2", first.FieldCount())
	}
	if first.FieldName(0) != "VALSOU" {
		t.Errorf("FieldName(0) = %q, want VALSOU", first.FieldName(0))
	}
	if v, ok := first.FieldValue(0); !ok || v != 8.5 {
		t.Errorf("FieldValue(0) = (%v, %v), want (8.5, true)", v, ok)
	}
	if _, ok := first.FieldValue(1); ok {
		t.Error("FieldValue(1) set, want unset for NULL")
	}

	g := first.Geometry()
	if g == nil {
		t.Fatal("Geometry() = nil")
	}
	if g.X() != -117.2 || g.Y() != 32.7 {
		t.Errorf("point = (%v, %v), want (-117.2, 32.7)", g.X(), g.Y())
	}
	if code := g.SpatialRef().AuthorityCode(); code != "4326" {
		t.Errorf("AuthorityCode() = %q, want 4326", code)
	}

	if features[2].Geometry() != nil {
		t.Error("feature without geometry returned a geometry")
	}

	if l.NextFeature() != nil {
		t.Error("NextFeature() after end returned a feature")
	}
}

func TestLayer_SpatialFilter_WithoutIndex(t *testing.T) {
	ds := openChart(t)
	l, _ := ds.Layer(0)

	l.SetSpatialFilterRect(-118, 32, -117, 33)
	if got := l.FeatureCount(); got != -1 {
		t.Errorf("FeatureCount() = %d, want -1", got)
	}

	features := readAll(l)
	if len(features) != 1 || features[0].ID() != 1 {
		t.Errorf("filtered features = %d, want only feature 1", len(features))
	}
}

func TestLayer_SpatialFilter_WithIndex(t *testing.T) {
	ds := openChart(t)
	l, _ := ds.Layer(1)

	l.SetSpatialFilterRect(0.5, 0.5, 2, 2)
	if got := l.FeatureCount(); got != 1 {
		t.Errorf("FeatureCount() = %d, want 1", got)
	}
	if got := len(readAll(l)); got != 1 {
		t.Errorf("filtered features = %d, want 1", got)
	}

	l.SetSpatialFilterRect(5, 5, 6, 6)
	if got := len(readAll(l)); got != 0 {
		t.Errorf("filtered features = %d, want 0", got)
	}
}

func TestLayer_AttributeTable(t *testing.T) {
	ds := openChart(t)
	l, _ := ds.Layer(2)

	features := readAll(l)
	if len(features) != 1 {
		t.Fatalf("got %d features, want 1", len(features))
	}
	if features[0].Geometry() != nil {
		t.Error("attribute row returned a geometry")
	}
	if v, _ := features[0].FieldValue(0); v != "US5CA72M.000" {
		t.Errorf("DSNM = %v, want US5CA72M.000", v)
	}
}

func TestDataset_LayerOutOfRange(t *testing.T) {
	ds := openChart(t)
	if _, err := ds.Layer(3); !errors.Is(err, domain.ErrLayerNotFound) {
		t.Errorf("Layer(3) error = %v, want ErrLayerNotFound", err)
	}
}
