package geopackage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jobrunner/s57geojson/internal/domain"
	"github.com/jobrunner/s57geojson/internal/ports/output"
)

// Opener opens GeoPackage charts read-only.
type Opener struct {
	transformer output.CoordinateTransformer
	logger      *slog.Logger
}

// NewOpener creates an opener. transformer may be nil, in which case only
// layers already in WGS84 (or without a CRS) keep their geometries.
func NewOpener(transformer output.CoordinateTransformer, logger *slog.Logger) *Opener {
	return &Opener{transformer: transformer, logger: logger}
}

// Open implements output.DatasetOpener.
func (o *Opener) Open(ctx context.Context, path string) (output.Dataset, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, &domain.ParseError{Path: path}
	}

	dsn := fmt.Sprintf("file:%s?mode=ro", path)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, &domain.ParseError{Path: path, Err: err}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &domain.ParseError{Path: path, Err: err}
	}

	tables, err := readTables(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, &domain.ParseError{Path: path, Err: err}
	}

	ds := &Dataset{db: db}
	for _, t := range tables {
		ds.layers = append(ds.layers, &Layer{
			ctx:         ctx,
			db:          db,
			table:       t,
			transformer: o.transformer,
			logger:      o.logger,
		})
	}

	o.logger.Debug("opened geopackage", "path", path, "layers", len(ds.layers))
	return ds, nil
}

// table describes one feature or attribute table.
type table struct {
	Name           string
	GeometryColumn string // empty for attribute tables
	SRID           int    // 0 when no CRS is defined
	PKColumn       string
	RTree          string // empty when no spatial index exists
}

// readTables lists the content tables in registration order.
func readTables(ctx context.Context, db *sql.DB) ([]table, error) {
	query := `
		SELECT
			c.table_name,
			COALESCE(g.column_name, ''),
			COALESCE(s.organization_coordsys_id, g.srs_id, 0),
			COALESCE(UPPER(s.organization), '')
		FROM gpkg_contents c
		LEFT JOIN gpkg_geometry_columns g ON c.table_name = g.table_name
		LEFT JOIN gpkg_spatial_ref_sys s ON g.srs_id = s.srs_id
		WHERE c.data_type IN ('features', 'attributes')
		ORDER BY c.rowid
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("reading gpkg_contents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []table
	for rows.Next() {
		var t table
		var organization string
		if err := rows.Scan(&t.Name, &t.GeometryColumn, &t.SRID, &organization); err != nil {
			return nil, fmt.Errorf("scanning table: %w", err)
		}
		if t.SRID <= 0 || (organization != "" && organization != "EPSG") {
			t.SRID = 0
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tables {
		pk, err := primaryKey(ctx, db, tables[i].Name)
		if err != nil {
			return nil, err
		}
		tables[i].PKColumn = pk
		if tables[i].GeometryColumn != "" {
			tables[i].RTree = rtreeTable(ctx, db, tables[i].Name, tables[i].GeometryColumn)
		}
	}

	return tables, nil
}

// primaryKey returns the integer primary key column of a table, or "".
func primaryKey(ctx context.Context, db *sql.DB, name string) (string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info("%s")`, name)) //#nosec G201 -- table name from gpkg_contents
	if err != nil {
		return "", fmt.Errorf("reading columns of %s: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			cid      int
			col, typ string
			notNull  int
			dflt     sql.NullString
			pk       int
		)
		if err := rows.Scan(&cid, &col, &typ, &notNull, &dflt, &pk); err != nil {
			return "", fmt.Errorf("scanning column of %s: %w", name, err)
		}
		if pk == 1 {
			return col, nil
		}
	}
	return "", rows.Err()
}

// rtreeTable returns the name of the layer's R-tree index if it exists.
func rtreeTable(ctx context.Context, db *sql.DB, name, column string) string {
	indexTable := fmt.Sprintf("rtree_%s_%s", name, column)

	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?",
		indexTable,
	).Scan(&count)
	if err != nil || count == 0 {
		return ""
	}
	return indexTable
}

// Dataset is an open GeoPackage.
type Dataset struct {
	db     *sql.DB
	layers []*Layer
}

// LayerCount implements output.Dataset.
func (d *Dataset) LayerCount() int {
	return len(d.layers)
}

// Layer implements output.Dataset.
func (d *Dataset) Layer(i int) (output.Layer, error) {
	if i < 0 || i >= len(d.layers) {
		return nil, fmt.Errorf("layer index %d: %w", i, domain.ErrLayerNotFound)
	}
	return d.layers[i], nil
}

// Close implements output.Dataset.
func (d *Dataset) Close() error {
	var errs []error
	for _, l := range d.layers {
		errs = append(errs, l.closeRows())
	}
	errs = append(errs, d.db.Close())
	return errors.Join(errs...)
}
