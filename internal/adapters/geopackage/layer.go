package geopackage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jobrunner/s57geojson/internal/adapters/memory"
	"github.com/jobrunner/s57geojson/internal/domain"
	"github.com/jobrunner/s57geojson/internal/ports/output"
)

// Layer streams the rows of one GeoPackage table.
type Layer struct {
	ctx         context.Context
	db          *sql.DB
	table       table
	transformer output.CoordinateTransformer
	logger      *slog.Logger

	filter  *domain.BBox
	rows    *sql.Rows
	columns []string
	done    bool
}

// Name implements output.Layer.
func (l *Layer) Name() string {
	return l.table.Name
}

// FeatureCount implements output.Layer. It returns -1 when a spatial filter
// is set and the table has no R-tree index.
func (l *Layer) FeatureCount() int64 {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM "%s" t`, l.table.Name) //#nosec G201 -- table name from gpkg_contents
	var args []interface{}

	if l.filter != nil {
		if l.table.RTree == "" {
			return -1
		}
		query += fmt.Sprintf(` INNER JOIN "%s" r ON t.rowid = r.id WHERE %s`, l.table.RTree, rtreeCondition) //#nosec G201
		args = rtreeArgs(l.filter)
	}

	var count int64
	if err := l.db.QueryRowContext(l.ctx, query, args...).Scan(&count); err != nil {
		return -1
	}
	return count
}

// ResetReading implements output.Layer.
func (l *Layer) ResetReading() {
	_ = l.closeRows()
	l.done = false
}

// SetSpatialFilterRect implements output.Layer.
func (l *Layer) SetSpatialFilterRect(minX, minY, maxX, maxY float64) {
	l.filter = &domain.BBox{
		MinX: math.Min(minX, maxX), MinY: math.Min(minY, maxY),
		MaxX: math.Max(minX, maxX), MaxY: math.Max(minY, maxY),
	}
	_ = l.closeRows()
	l.done = false
}

// NextFeature implements output.Layer. Rows that cannot be read end the
// iteration.
func (l *Layer) NextFeature() output.Feature {
	if l.done {
		return nil
	}
	if l.rows == nil {
		if err := l.query(); err != nil {
			l.logger.Warn("reading layer failed", "layer", l.table.Name, "error", err)
			l.done = true
			return nil
		}
	}

	for l.rows.Next() {
		f, err := l.scan()
		if err != nil {
			l.logger.Warn("reading feature failed", "layer", l.table.Name, "error", err)
			_ = l.closeRows()
			l.done = true
			return nil
		}
		if f == nil {
			continue
		}
		return f
	}

	if err := l.rows.Err(); err != nil {
		l.logger.Warn("reading layer failed", "layer", l.table.Name, "error", err)
	}
	_ = l.closeRows()
	l.done = true
	return nil
}

const rtreeCondition = "r.minx <= ? AND r.maxx >= ? AND r.miny <= ? AND r.maxy >= ?"

func rtreeArgs(b *domain.BBox) []interface{} {
	return []interface{}{b.MaxX, b.MinX, b.MaxY, b.MinY}
}

func (l *Layer) query() error {
	query := fmt.Sprintf(`SELECT t.rowid, t.* FROM "%s" t`, l.table.Name) //#nosec G201 -- table name from gpkg_contents
	var args []interface{}

	if l.filter != nil && l.table.RTree != "" {
		query += fmt.Sprintf(` INNER JOIN "%s" r ON t.rowid = r.id WHERE %s`, l.table.RTree, rtreeCondition) //#nosec G201
		args = rtreeArgs(l.filter)
	}
	query += " ORDER BY t.rowid"

	rows, err := l.db.QueryContext(l.ctx, query, args...)
	if err != nil {
		return err
	}
	columns, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return err
	}

	l.rows = rows
	l.columns = columns
	return nil
}

// scan reads the current row. It returns nil when the row falls outside
// a spatial filter that the database could not apply.
func (l *Layer) scan() (*memory.Feature, error) {
	values := make([]interface{}, len(l.columns))
	ptrs := make([]interface{}, len(l.columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := l.rows.Scan(ptrs...); err != nil {
		return nil, err
	}

	feature := &memory.Feature{}
	if id, ok := values[0].(int64); ok {
		feature.FID = id
	}

	var envelope *domain.BBox
	for i := 1; i < len(l.columns); i++ {
		col := l.columns[i]
		switch col {
		case l.table.PKColumn:
		case l.table.GeometryColumn:
			blob, ok := values[i].([]byte)
			if !ok || len(blob) == 0 {
				continue
			}
			g, env := l.decode(blob)
			feature.Geom = g
			envelope = env
		default:
			feature.Fields = append(feature.Fields, memory.Field{Name: col, Value: fieldValue(values[i])})
		}
	}

	if l.filter != nil && l.table.RTree == "" {
		if envelope == nil || !envelope.Intersects(*l.filter) {
			return nil, nil
		}
	}

	return feature, nil
}

// decode turns a geometry blob into a geometry and its envelope. Undecodable
// blobs yield a geometry the translator reports as unsupported.
func (l *Layer) decode(blob []byte) (*memory.Geometry, *domain.BBox) {
	header, err := parseBlob(blob)
	if err != nil {
		l.logger.Debug("invalid geometry blob", "layer", l.table.Name, "error", err)
		return memory.NewUnsupported(0), nil
	}
	if header.Empty {
		return nil, nil
	}

	g, err := decodeWKB(header.WKB)
	if err != nil {
		l.logger.Debug("invalid geometry", "layer", l.table.Name, "error", err)
		return memory.NewUnsupported(0), header.Envelope
	}
	if g == nil {
		return nil, nil
	}
	g.WithSRID(l.table.SRID, l.transformer)

	if header.Envelope != nil {
		return g, header.Envelope
	}
	if env, ok := g.Envelope(); ok {
		return g, &env
	}
	return g, nil
}

// fieldValue normalizes driver values to JSON-friendly types.
func fieldValue(v interface{}) interface{} {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return v
	}
}

func (l *Layer) closeRows() error {
	if l.rows == nil {
		return nil
	}
	err := l.rows.Close()
	l.rows = nil
	return err
}
