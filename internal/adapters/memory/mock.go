package memory

import (
	"context"
	"os"

	"github.com/jobrunner/s57geojson/internal/domain"
	"github.com/jobrunner/s57geojson/internal/ports/output"
)

// Mock chart center, San Diego Bay.
const (
	MockCenterLon = -117.2279
	MockCenterLat = 32.7144
)

// MockOpener opens every existing file as the same synthetic harbor chart.
// It stands in for the native reader in tests and demos.
type MockOpener struct{}

// NewMockOpener creates a new mock opener.
func NewMockOpener() *MockOpener {
	return &MockOpener{}
}

// Open implements output.DatasetOpener. The file must exist; its content is
// not read.
func (o *MockOpener) Open(_ context.Context, path string) (output.Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &domain.ParseError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &domain.ParseError{Path: path, Err: os.ErrInvalid}
	}
	return MockChart(), nil
}

// MockChart builds the synthetic harbor chart: a depth area, a light, a
// depth contour, three soundings and a lateral buoy.
func MockChart() *Dataset {
	lon, lat := MockCenterLon, MockCenterLat

	depare := NewLayer("DEPARE", &Feature{
		FID: 1,
		Fields: []Field{
			{Name: "DRVAL1", Value: 5.0},
			{Name: "DRVAL2", Value: 10.0},
			{Name: "OBJNAM", Value: "Shallow Water Area"},
		},
		Geom: NewPolygon([][]float64{
			{lon - 0.01, lat - 0.01},
			{lon + 0.01, lat - 0.01},
			{lon + 0.01, lat + 0.01},
			{lon - 0.01, lat + 0.01},
			{lon - 0.01, lat - 0.01},
		}).WithSRID(domain.SRIDWGS84, nil),
	})

	lights := NewLayer("LIGHTS", &Feature{
		FID: 1,
		Fields: []Field{
			{Name: "LITCHR", Value: "2"},
			{Name: "SIGPER", Value: 4.0},
			{Name: "COLOUR", Value: "1,3"},
			{Name: "VALNMR", Value: 15.0},
			{Name: "OBJNAM", Value: "Harbor Light"},
		},
		Geom: NewPoint(lon, lat).WithSRID(domain.SRIDWGS84, nil),
	})

	depcnt := NewLayer("DEPCNT", &Feature{
		FID:    1,
		Fields: []Field{{Name: "VALDCO", Value: 10.0}},
		Geom: NewLineString(
			[]float64{lon - 0.02, lat},
			[]float64{lon - 0.01, lat + 0.005},
			[]float64{lon, lat},
			[]float64{lon + 0.01, lat - 0.005},
			[]float64{lon + 0.02, lat},
		).WithSRID(domain.SRIDWGS84, nil),
	})

	soundg := NewLayer("SOUNDG")
	for i := 0; i < 3; i++ {
		d := float64(i - 1)
		soundg.Add(&Feature{
			FID:    int64(i + 1),
			Fields: []Field{{Name: "VALSOU", Value: 8.5 + float64(i)*2}},
			Geom:   NewPoint(lon+d*0.005, lat+d*0.003).WithSRID(domain.SRIDWGS84, nil),
		})
	}

	boylat := NewLayer("BOYLAT", &Feature{
		FID: 1,
		Fields: []Field{
			{Name: "COLOUR", Value: "3"},
			{Name: "BOYSHP", Value: int64(1)},
			{Name: "OBJNAM", Value: "Red Nun #2"},
		},
		Geom: NewPoint(lon+0.005, lat+0.005).WithSRID(domain.SRIDWGS84, nil),
	})

	return NewDataset(depare, lights, depcnt, soundg, boylat)
}
