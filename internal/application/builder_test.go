package application

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jobrunner/s57geojson/internal/domain"
)

func newTestBuilder() (*FeatureCollectionBuilder, *recordingMetrics) {
	metrics := newRecordingMetrics()
	logger := testLogger()
	return NewFeatureCollectionBuilder(NewGeometryTranslator(metrics, logger), metrics, logger), metrics
}

func pointFeature(id int64, x, y float64) *fakeFeature {
	return &fakeFeature{
		id:       id,
		geometry: &fakeGeometry{typ: kind(domain.GeometryPoint, false), x: x, y: y},
	}
}

func TestBuildEndToEndDocument(t *testing.T) {
	builder, _ := newTestBuilder()

	ds := &fakeDataset{layers: []*fakeLayer{{
		name: "DEPARE",
		features: []*fakeFeature{{
			id:       1,
			names:    []string{"DRVAL1", "DRVAL2"},
			values:   []interface{}{int64(0), int64(10)},
			geometry: &fakeGeometry{typ: kind(domain.GeometryPoint, false), x: -122.123, y: 47.456},
		}},
	}}}

	fc := builder.Build(ds, domain.ConvertOptions{})

	data, err := json.Marshal(fc)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"type":"FeatureCollection","features":[{"type":"Feature","id":"DEPARE.1","geometry":{"type":"Point","coordinates":[-122.123,47.456]},"properties":{"DRVAL1":0,"DRVAL2":10,"_featureType":"DEPARE"}}]}`
	if string(data) != want {
		t.Errorf("document =\n%s\nwant\n%s", data, want)
	}
}

func TestBuildOrderAndIDs(t *testing.T) {
	builder, metrics := newTestBuilder()

	ds := &fakeDataset{layers: []*fakeLayer{
		{name: "SOUNDG", features: []*fakeFeature{pointFeature(3, 0, 0), pointFeature(1, 0, 0)}},
		{name: "LIGHTS", features: []*fakeFeature{pointFeature(1, 0, 0)}},
		{name: "DEPARE"},
	}}

	fc := builder.Build(ds, domain.ConvertOptions{})

	var ids []string
	for _, f := range fc.Features {
		ids = append(ids, f.ID)
	}
	if diff := cmp.Diff([]string{"SOUNDG.3", "SOUNDG.1", "LIGHTS.1"}, ids); diff != "" {
		t.Errorf("feature ids mismatch (-want +got):\n%s", diff)
	}
	if metrics.emitted["SOUNDG"] != 2 || metrics.emitted["LIGHTS"] != 1 {
		t.Errorf("emitted = %v", metrics.emitted)
	}
}

func TestBuildLayerFilterSkipsExcludedLayers(t *testing.T) {
	builder, _ := newTestBuilder()

	depare := &fakeLayer{name: "DEPARE", features: []*fakeFeature{pointFeature(1, 0, 0)}}
	soundg := &fakeLayer{name: "SOUNDG", features: []*fakeFeature{pointFeature(1, 0, 0), pointFeature(2, 0, 0)}}
	ds := &fakeDataset{layers: []*fakeLayer{depare, soundg}}

	fc := builder.Build(ds, domain.ConvertOptions{
		FeatureTypes: []string{"DEPARE"},
		BBox:         &domain.BBox{MinX: -1, MinY: -1, MaxX: 1, MaxY: 1},
	})

	for _, f := range fc.Features {
		if f.FeatureType() == "SOUNDG" {
			t.Errorf("feature %s from excluded layer in output", f.ID)
		}
	}
	if fc.Len() != 1 {
		t.Errorf("Len() = %d, want 1", fc.Len())
	}
	if soundg.resets != 0 || soundg.nextCalls != 0 || soundg.countCalls != 0 || soundg.filter != nil {
		t.Errorf("excluded layer was touched: resets=%d next=%d count=%d filter=%v",
			soundg.resets, soundg.nextCalls, soundg.countCalls, soundg.filter)
	}
}

func TestBuildForwardsBBoxBeforeReading(t *testing.T) {
	builder, _ := newTestBuilder()

	layer := &fakeLayer{name: "DEPARE", features: []*fakeFeature{pointFeature(1, 0, 0)}}
	ds := &fakeDataset{layers: []*fakeLayer{layer}}
	bbox := &domain.BBox{MinX: 10, MinY: 20, MaxX: 5, MaxY: 1}

	builder.Build(ds, domain.ConvertOptions{BBox: bbox})

	if layer.filter == nil || *layer.filter != *bbox {
		t.Errorf("filter = %v, want %v unchanged", layer.filter, bbox)
	}
	if !layer.filterBefore {
		t.Error("spatial filter must be set before the cursor is reset")
	}
}

func TestBuildIgnoresAdvisoryFeatureCount(t *testing.T) {
	builder, _ := newTestBuilder()

	layer := &fakeLayer{
		name:     "SOUNDG",
		count:    1,
		features: []*fakeFeature{pointFeature(1, 0, 0), pointFeature(2, 0, 0), pointFeature(3, 0, 0)},
	}

	fc := builder.Build(&fakeDataset{layers: []*fakeLayer{layer}}, domain.ConvertOptions{})

	if fc.Len() != 3 {
		t.Errorf("Len() = %d, want 3", fc.Len())
	}
	if layer.resets != 1 {
		t.Errorf("resets = %d, want 1", layer.resets)
	}
	if layer.nextCalls != 4 {
		t.Errorf("nextCalls = %d, want 4 (three features and the sentinel)", layer.nextCalls)
	}
}

func TestBuildProperties(t *testing.T) {
	builder, _ := newTestBuilder()

	features := []*fakeFeature{
		{id: 1},
		{
			id:     2,
			names:  []string{"OBJNAM", "VALSOU", "COLOUR", "INFORM"},
			values: []interface{}{"Harbor Light", 8.5, []string{"1", "3"}, nil},
		},
		{
			id:     3,
			names:  []string{"OBJNAM", "VALSOU", "COLOUR", "INFORM"},
			values: []interface{}{nil, nil, nil, "text"},
		},
	}
	ds := &fakeDataset{layers: []*fakeLayer{{name: "LIGHTS", features: features}}}

	fc := builder.Build(ds, domain.ConvertOptions{})

	want := []map[string]interface{}{
		{"_featureType": "LIGHTS"},
		{"OBJNAM": "Harbor Light", "VALSOU": 8.5, "COLOUR": []string{"1", "3"}, "_featureType": "LIGHTS"},
		{"INFORM": "text", "_featureType": "LIGHTS"},
	}
	for i, f := range fc.Features {
		if diff := cmp.Diff(want[i], f.Properties); diff != "" {
			t.Errorf("feature %d properties mismatch (-want +got):\n%s", i, diff)
		}
		if f.Geometry != nil {
			t.Errorf("feature %d geometry = %v, want nil", i, f.Geometry)
		}
	}
}

func TestBuildBadGeometryKeepsFeature(t *testing.T) {
	builder, metrics := newTestBuilder()

	features := []*fakeFeature{
		{id: 1, geometry: &fakeGeometry{typ: domain.GeometryType{Kind: domain.GeometryUnknown, Code: 7}}},
		{id: 2, geometry: &fakeGeometry{panicOnType: true}},
		pointFeature(3, 1, 2),
	}
	ds := &fakeDataset{layers: []*fakeLayer{{name: "UNSARE", features: features}}}

	fc := builder.Build(ds, domain.ConvertOptions{})

	if fc.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", fc.Len())
	}
	if fc.Features[0].Geometry != nil || fc.Features[1].Geometry != nil {
		t.Error("unsupported and corrupt geometries should be null")
	}
	if fc.Features[2].Geometry == nil {
		t.Error("valid geometry should survive")
	}
	if metrics.geometryFailures["unsupported"] != 1 || metrics.geometryFailures["corrupt"] != 1 {
		t.Errorf("geometry failures = %v", metrics.geometryFailures)
	}
}

func TestBuildNonFiniteCoordinatesStayEncodable(t *testing.T) {
	builder, metrics := newTestBuilder()

	ds := &fakeDataset{layers: []*fakeLayer{{
		name: "SOUNDG",
		features: []*fakeFeature{
			pointFeature(1, math.NaN(), math.NaN()),
			pointFeature(2, -117.2, 32.7),
		},
	}}}

	fc := builder.Build(ds, domain.ConvertOptions{})

	if fc.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", fc.Len())
	}
	if fc.Features[0].Geometry != nil {
		t.Errorf("geometry = %+v, want null", fc.Features[0].Geometry)
	}
	if metrics.geometryFailures["corrupt"] != 1 {
		t.Errorf("geometry failures = %v, want one corrupt", metrics.geometryFailures)
	}

	data, err := json.Marshal(fc)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"type":"FeatureCollection","features":[{"type":"Feature","id":"SOUNDG.1","geometry":null,"properties":{"_featureType":"SOUNDG"}},{"type":"Feature","id":"SOUNDG.2","geometry":{"type":"Point","coordinates":[-117.2,32.7]},"properties":{"_featureType":"SOUNDG"}}]}`
	if string(data) != want {
		t.Errorf("document =\n%s\nwant\n%s", data, want)
	}
}

func TestBuildSkipsUnreadableLayer(t *testing.T) {
	builder, _ := newTestBuilder()

	ds := &fakeDataset{
		layers: []*fakeLayer{
			{name: "BROKEN"},
			{name: "DEPARE", features: []*fakeFeature{pointFeature(1, 0, 0)}},
		},
		layerErr: map[int]error{0: errors.New("layer read failed")},
	}

	fc := builder.Build(ds, domain.ConvertOptions{})

	if fc.Len() != 1 || fc.Features[0].ID != "DEPARE.1" {
		t.Errorf("features = %+v, want only DEPARE.1", fc.Features)
	}
}

func TestBuildReleasesFeatures(t *testing.T) {
	builder, _ := newTestBuilder()

	f := pointFeature(1, 0, 0)
	builder.Build(&fakeDataset{layers: []*fakeLayer{{name: "DEPARE", features: []*fakeFeature{f}}}}, domain.ConvertOptions{})

	if !f.released {
		t.Error("feature was not released after extraction")
	}
}
