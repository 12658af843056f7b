package domain

import "testing"

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want ChartFormat
	}{
		{"/charts/US5CA52M.000", FormatS57},
		{"US5CA52M.000", FormatS57},
		{"US5CA52M.001", FormatUnknown},
		{"/data/harbor.gpkg", FormatGeoPackage},
		{"/data/HARBOR.GPKG", FormatGeoPackage},
		{"/data/readme.txt", FormatUnknown},
		{"noext", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := DetectFormat(tt.path); got != tt.want {
				t.Errorf("DetectFormat(%q) = %q, want %q", tt.path, got, tt.want)
			}
			if got := IsChartFile(tt.path); got != (tt.want != FormatUnknown) {
				t.Errorf("IsChartFile(%q) = %v", tt.path, got)
			}
		})
	}
}

func TestChartID(t *testing.T) {
	if got := ChartID("/charts/US5CA52M.000"); got != "US5CA52M" {
		t.Errorf("ChartID() = %q, want US5CA52M", got)
	}
	if got := ChartID("harbor.gpkg"); got != "harbor" {
		t.Errorf("ChartID() = %q, want harbor", got)
	}
}

func TestChart(t *testing.T) {
	c := &Chart{
		ID:     "US5CA52M",
		Status: StatusReady,
		Layers: []LayerInfo{
			{Name: "DEPARE", FeatureCount: 12},
			{Name: "SOUNDG", FeatureCount: 30},
			{Name: "DSID", FeatureCount: -1},
		},
	}

	if !c.IsReady() {
		t.Error("IsReady() = false, want true")
	}
	if c.LayerCount() != 3 {
		t.Errorf("LayerCount() = %d, want 3", c.LayerCount())
	}
	if c.FeatureCount() != 42 {
		t.Errorf("FeatureCount() = %d, want 42", c.FeatureCount())
	}
	if l, ok := c.GetLayer("SOUNDG"); !ok || l.FeatureCount != 30 {
		t.Errorf("GetLayer(SOUNDG) = %v, %v", l, ok)
	}
	if _, ok := c.GetLayer("LIGHTS"); ok {
		t.Error("GetLayer(LIGHTS) should not be found")
	}

	c.Status = StatusError
	if c.IsReady() {
		t.Error("IsReady() = true for error status")
	}
}

func TestIsUpdateFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"US5CA52M.001", true},
		{"/charts/US5CA52M.012", true},
		{"US5CA52M.000", false},
		{"US5CA52M.gpkg", false},
		{"US5CA52M.0a1", false},
		{"US5CA52M", false},
	}

	for _, tt := range tests {
		if got := IsUpdateFile(tt.path); got != tt.want {
			t.Errorf("IsUpdateFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
