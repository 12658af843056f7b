package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jobrunner/s57geojson/internal/domain"
	"github.com/jobrunner/s57geojson/internal/ports/output"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeSRS implements output.SpatialRef for testing.
type fakeSRS struct {
	code string
}

func (s *fakeSRS) AuthorityCode() string { return s.code }

// fakeGeometry implements output.Geometry for testing.
type fakeGeometry struct {
	typ    domain.GeometryType
	x      float64
	y      float64
	z      float64
	points [][3]float64
	parts  []*fakeGeometry
	srs    output.SpatialRef

	cloneNil     bool
	transformErr error
	panicOnType  bool

	cloneCalls     int
	transformCalls int
	released       bool
}

func (g *fakeGeometry) Type() domain.GeometryType {
	if g.panicOnType {
		panic("corrupt geometry record")
	}
	return g.typ
}

func (g *fakeGeometry) X() float64 { return g.x }
func (g *fakeGeometry) Y() float64 { return g.y }
func (g *fakeGeometry) Z() float64 { return g.z }

func (g *fakeGeometry) PointCount() int { return len(g.points) }

func (g *fakeGeometry) Point(i int) (x, y, z float64) {
	p := g.points[i]
	return p[0], p[1], p[2]
}

func (g *fakeGeometry) GeometryCount() int { return len(g.parts) }

func (g *fakeGeometry) GeometryRef(i int) output.Geometry {
	if i < 0 || i >= len(g.parts) || g.parts[i] == nil {
		return nil
	}
	return g.parts[i]
}

func (g *fakeGeometry) SpatialRef() output.SpatialRef { return g.srs }

func (g *fakeGeometry) Clone() output.Geometry {
	g.cloneCalls++
	if g.cloneNil {
		return nil
	}
	return g.deepCopy()
}

func (g *fakeGeometry) deepCopy() *fakeGeometry {
	c := &fakeGeometry{
		typ:          g.typ,
		x:            g.x,
		y:            g.y,
		z:            g.z,
		srs:          g.srs,
		transformErr: g.transformErr,
	}
	c.points = append(c.points, g.points...)
	for _, part := range g.parts {
		if part == nil {
			c.parts = append(c.parts, nil)
			continue
		}
		c.parts = append(c.parts, part.deepCopy())
	}
	return c
}

// Transform shifts every ordinate by +1000 in x and y so tests can tell
// transformed coordinates apart.
func (g *fakeGeometry) Transform(targetSRID int) error {
	g.transformCalls++
	if g.transformErr != nil {
		return g.transformErr
	}
	g.shift(1000)
	g.srs = &fakeSRS{code: "4326"}
	return nil
}

func (g *fakeGeometry) shift(d float64) {
	g.x += d
	g.y += d
	for i := range g.points {
		g.points[i][0] += d
		g.points[i][1] += d
	}
	for _, p := range g.parts {
		if p != nil {
			p.shift(d)
		}
	}
}

func (g *fakeGeometry) Release() { g.released = true }

// fakeFeature implements output.Feature for testing.
type fakeFeature struct {
	id       int64
	names    []string
	values   []interface{} // nil means unset
	geometry output.Geometry
	released bool
}

func (f *fakeFeature) ID() int64              { return f.id }
func (f *fakeFeature) FieldCount() int        { return len(f.names) }
func (f *fakeFeature) FieldName(i int) string { return f.names[i] }

func (f *fakeFeature) FieldValue(i int) (interface{}, bool) {
	if f.values[i] == nil {
		return nil, false
	}
	return f.values[i], true
}

func (f *fakeFeature) Geometry() output.Geometry { return f.geometry }
func (f *fakeFeature) Release()                  { f.released = true }

// fakeLayer implements output.Layer for testing and records how it was used.
type fakeLayer struct {
	name     string
	features []*fakeFeature
	count    int64

	cursor       int
	resets       int
	nextCalls    int
	countCalls   int
	filter       *domain.BBox
	filterBefore bool // filter was set before the cursor was reset
}

func (l *fakeLayer) Name() string { return l.name }

func (l *fakeLayer) FeatureCount() int64 {
	l.countCalls++
	return l.count
}

func (l *fakeLayer) ResetReading() {
	l.resets++
	l.cursor = 0
	if l.filter != nil {
		l.filterBefore = true
	}
}

func (l *fakeLayer) NextFeature() output.Feature {
	l.nextCalls++
	if l.cursor >= len(l.features) {
		return nil
	}
	f := l.features[l.cursor]
	l.cursor++
	return f
}

func (l *fakeLayer) SetSpatialFilterRect(minX, minY, maxX, maxY float64) {
	l.filter = &domain.BBox{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// fakeDataset implements output.Dataset for testing.
type fakeDataset struct {
	layers   []*fakeLayer
	layerErr map[int]error
	closed   bool
}

func (d *fakeDataset) LayerCount() int { return len(d.layers) }

func (d *fakeDataset) Layer(i int) (output.Layer, error) {
	if err, ok := d.layerErr[i]; ok {
		return nil, err
	}
	return d.layers[i], nil
}

func (d *fakeDataset) Close() error {
	d.closed = true
	return nil
}

// fakeOpener implements output.DatasetOpener for testing.
type fakeOpener struct {
	datasets map[string]*fakeDataset
	openErr  error
	opened   []string
}

func (o *fakeOpener) Open(_ context.Context, path string) (output.Dataset, error) {
	o.opened = append(o.opened, path)
	if o.openErr != nil {
		return nil, o.openErr
	}
	if ds, ok := o.datasets[path]; ok {
		return ds, nil
	}
	if o.datasets == nil {
		return &fakeDataset{}, nil
	}
	return nil, errors.New("no such file or directory")
}

// mockConverter implements input.ConversionService for testing.
type mockConverter struct {
	layers     map[string][]domain.LayerInfo
	listErr    error
	convertErr error
	converted  []string
}

func (m *mockConverter) Convert(_ context.Context, path string, _ domain.ConvertOptions) (*domain.FeatureCollection, error) {
	if m.convertErr != nil {
		return nil, m.convertErr
	}
	m.converted = append(m.converted, path)
	return domain.NewFeatureCollection(), nil
}

func (m *mockConverter) ListLayers(_ context.Context, path string) ([]domain.LayerInfo, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	if m.layers != nil {
		if l, ok := m.layers[path]; ok {
			return l, nil
		}
	}
	return []domain.LayerInfo{}, nil
}

// mockStorage implements output.ObjectStorage for testing.
type mockStorage struct {
	mu          sync.Mutex
	objects     []output.StorageObject
	downloadErr error
	listErr     error
	downloaded  []string
}

func (m *mockStorage) List(_ context.Context) ([]output.StorageObject, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.objects, nil
}

func (m *mockStorage) Download(_ context.Context, key, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloaded = append(m.downloaded, key)
	return m.downloadErr
}

func (m *mockStorage) GetReader(_ context.Context, _ string) (io.ReadCloser, error) {
	return nil, nil
}

func (m *mockStorage) Exists(_ context.Context, _ string) (bool, error) {
	return true, nil
}

// recordingMetrics implements output.MetricsCollector and records calls.
type recordingMetrics struct {
	output.NoOpMetrics
	conversions      map[bool]int
	emitted          map[string]int
	geometryFailures map[string]int
	chartsLoaded     int
	chartsReady      int
	storageOps       map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		conversions:      make(map[bool]int),
		emitted:          make(map[string]int),
		geometryFailures: make(map[string]int),
		storageOps:       make(map[string]int),
	}
}

func (m *recordingMetrics) IncConversionCount(_ string, success bool)           { m.conversions[success]++ }
func (m *recordingMetrics) ObserveConversionDuration(_ string, _ time.Duration) {}
func (m *recordingMetrics) AddFeaturesEmitted(layer string, n int)              { m.emitted[layer] += n }
func (m *recordingMetrics) IncGeometryFailures(reason string)                   { m.geometryFailures[reason]++ }
func (m *recordingMetrics) SetChartsLoaded(n int)                               { m.chartsLoaded = n }
func (m *recordingMetrics) SetChartsReady(n int)                                { m.chartsReady = n }

func (m *recordingMetrics) IncStorageOperations(op string, success bool) {
	if success {
		m.storageOps[op]++
	}
}
