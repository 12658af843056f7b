package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/jobrunner/s57geojson/internal/ports/output"
)

var _ output.MetricsCollector = (*Collector)(nil)

func TestCollector_Conversions(t *testing.T) {
	c := NewCollector("test")

	c.IncConversionCount("US5CA72M", true)
	c.IncConversionCount("US5CA72M", true)
	c.IncConversionCount("US5CA72M", false)
	c.AddFeaturesEmitted("SOUNDG", 3)
	c.AddFeaturesEmitted("SOUNDG", 2)
	c.IncGeometryFailures("unsupported")
	c.SetChartsLoaded(4)
	c.SetChartsReady(3)
	c.ObserveConversionDuration("US5CA72M", 120*time.Millisecond)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"success conversions", testutil.ToFloat64(c.conversions.WithLabelValues("US5CA72M", "success")), 2},
		{"failed conversions", testutil.ToFloat64(c.conversions.WithLabelValues("US5CA72M", "error")), 1},
		{"features", testutil.ToFloat64(c.featuresEmitted.WithLabelValues("SOUNDG")), 5},
		{"geometry failures", testutil.ToFloat64(c.geometryFailures.WithLabelValues("unsupported")), 1},
		{"charts loaded", testutil.ToFloat64(c.chartsLoaded), 4},
		{"charts ready", testutil.ToFloat64(c.chartsReady), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestCollector_IndependentRegistries(t *testing.T) {
	a := NewCollector("test")
	b := NewCollector("test")

	a.SetChartsLoaded(1)
	if got := testutil.ToFloat64(b.chartsLoaded); got != 0 {
		t.Errorf("second collector charts_loaded = %v, want 0", got)
	}
}

func TestCollector_Middleware(t *testing.T) {
	c := NewCollector("test")

	router := mux.NewRouter()
	router.Use(c.Middleware)
	router.HandleFunc("/api/v1/charts/{chartId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	router.Handle("/metrics", c.Handler())

	for _, id := range []string{"A", "B"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/charts/"+id, nil))
	}

	got := testutil.ToFloat64(c.httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/charts/{chartId}", "4xx"))
	if got != 2 {
		t.Errorf("requests = %v, want 2", got)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "test_http_requests_total") {
		t.Error("metrics output missing test_http_requests_total")
	}
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, "2xx"},
		{302, "3xx"},
		{422, "4xx"},
		{503, "5xx"},
		{0, "unknown"},
	}

	for _, tt := range tests {
		if got := statusClass(tt.code); got != tt.want {
			t.Errorf("statusClass(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
