package geopackage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jobrunner/s57geojson/internal/domain"
)

// Transformer implements output.CoordinateTransformer using an in-memory
// SpatiaLite database. Chart files are opened read-only and carry no
// spatial_ref_sys table, so the EPSG definitions live in their own database.
type Transformer struct {
	db *sql.DB
}

// NewTransformer loads SpatiaLite and initializes the EPSG definitions.
// It fails with a *domain.DependencyError when SpatiaLite is not available.
func NewTransformer(ctx context.Context) (*Transformer, error) {
	db, err := sql.Open(spatialDriverName, ":memory:")
	if err != nil {
		return nil, spatiaLiteMissing(err)
	}
	// Every :memory: connection is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := SpatiaLiteVersion(ctx, db); err != nil {
		_ = db.Close()
		return nil, spatiaLiteMissing(err)
	}

	// InitSpatialMetaDataFull populates spatial_ref_sys, required by Transform().
	if _, err := db.ExecContext(ctx, "SELECT InitSpatialMetaDataFull(1)"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing spatial metadata: %w", err)
	}

	return &Transformer{db: db}, nil
}

// Transform transforms a coordinate from its SRID to another. Z is kept.
func (t *Transformer) Transform(ctx context.Context, coord domain.Coordinate, targetSRID int) (domain.Coordinate, error) {
	if coord.SRID == targetSRID {
		return coord, nil
	}

	if t.db == nil {
		return domain.Coordinate{}, fmt.Errorf("transformer database not initialized")
	}

	result, err := TransformCoordinate(ctx, t.db, coord, targetSRID)
	if err != nil {
		return domain.Coordinate{}, err
	}
	result.Z = coord.Z
	return result, nil
}

// IsSupported checks if a transformation between two SRIDs is supported.
func (t *Transformer) IsSupported(sourceSRID, targetSRID int) bool {
	if sourceSRID <= 0 || targetSRID <= 0 || t.db == nil {
		return false
	}

	var count int
	err := t.db.QueryRowContext(context.Background(),
		"SELECT COUNT(DISTINCT srid) FROM spatial_ref_sys WHERE srid IN (?, ?)",
		sourceSRID, targetSRID,
	).Scan(&count)
	if err != nil {
		return false
	}
	if sourceSRID == targetSRID {
		return count == 1
	}
	return count == 2
}

// Version returns the SpatiaLite version.
func (t *Transformer) Version(ctx context.Context) (string, error) {
	return SpatiaLiteVersion(ctx, t.db)
}

// Close closes the transformer's database connection.
func (t *Transformer) Close() error {
	if t.db != nil {
		return t.db.Close()
	}
	return nil
}

// TransformCoordinate transforms a coordinate using a SpatiaLite database.
func TransformCoordinate(ctx context.Context, db *sql.DB, coord domain.Coordinate, targetSRID int) (domain.Coordinate, error) {
	if coord.SRID == targetSRID {
		return coord, nil
	}

	query := `SELECT X(Transform(GeomFromText(?, ?), ?)), Y(Transform(GeomFromText(?, ?), ?))`
	wkt := coord.WKT()

	var x, y sql.NullFloat64
	err := db.QueryRowContext(ctx, query,
		wkt, coord.SRID, targetSRID,
		wkt, coord.SRID, targetSRID,
	).Scan(&x, &y)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("transforming coordinate: %w", err)
	}
	if !x.Valid || !y.Valid {
		return domain.Coordinate{}, fmt.Errorf("EPSG:%d to EPSG:%d: %w", coord.SRID, targetSRID, domain.ErrUnsupportedProjection)
	}

	return domain.Coordinate{
		X:    x.Float64,
		Y:    y.Float64,
		SRID: targetSRID,
	}, nil
}

// SpatiaLiteVersion reports the SpatiaLite version loaded into db.
func SpatiaLiteVersion(ctx context.Context, db *sql.DB) (string, error) {
	var version string
	if err := db.QueryRowContext(ctx, "SELECT spatialite_version()").Scan(&version); err != nil {
		return "", fmt.Errorf("SpatiaLite extension not available: %w", err)
	}
	return version, nil
}

// DetectSpatiaLite opens a scratch database and returns the SpatiaLite version.
func DetectSpatiaLite(ctx context.Context) (string, error) {
	db, err := sql.Open(spatialDriverName, ":memory:")
	if err != nil {
		return "", spatiaLiteMissing(err)
	}
	defer func() { _ = db.Close() }()

	version, err := SpatiaLiteVersion(ctx, db)
	if err != nil {
		return "", spatiaLiteMissing(err)
	}
	return version, nil
}

func spatiaLiteMissing(err error) error {
	return &domain.DependencyError{
		Component: "spatialite",
		Hint:      "install mod_spatialite or set SPATIALITE_LIBRARY_PATH",
		Err:       err,
	}
}
