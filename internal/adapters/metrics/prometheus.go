// Package metrics provides Prometheus metrics collection.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements the MetricsCollector port using Prometheus.
type Collector struct {
	gatherer prometheus.Gatherer

	conversions         *prometheus.CounterVec
	conversionDuration  *prometheus.HistogramVec
	featuresEmitted     *prometheus.CounterVec
	geometryFailures    *prometheus.CounterVec
	chartsLoaded        prometheus.Gauge
	chartsReady         prometheus.Gauge
	storageOperations   *prometheus.CounterVec
	storageDuration     *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewCollector creates a collector with its own registry.
func NewCollector(namespace string) *Collector {
	return NewCollectorWithRegistry(namespace, prometheus.NewRegistry())
}

// NewCollectorWithRegistry creates a collector registering on reg.
func NewCollectorWithRegistry(namespace string, reg *prometheus.Registry) *Collector {
	if namespace == "" {
		namespace = "s57geojson"
	}
	factory := promauto.With(reg)

	return &Collector{
		gatherer: reg,

		conversions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "conversions_total",
				Help:      "Total number of chart conversions",
			},
			[]string{"chart_id", "status"},
		),

		conversionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "conversion_duration_seconds",
				Help:      "Chart conversion duration in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"chart_id"},
		),

		featuresEmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "features_emitted_total",
				Help:      "Total number of GeoJSON features emitted per layer",
			},
			[]string{"layer"},
		),

		geometryFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "geometry_failures_total",
				Help:      "Geometries emitted as null",
			},
			[]string{"reason"},
		),

		chartsLoaded: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "charts_loaded",
				Help:      "Number of registered charts",
			},
		),

		chartsReady: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "charts_ready",
				Help:      "Number of charts ready to serve",
			},
		),

		storageOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_operations_total",
				Help:      "Total number of storage operations",
			},
			[]string{"operation", "status"},
		),

		storageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "storage_duration_seconds",
				Help:      "Storage operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// IncConversionCount increments the conversion counter.
func (c *Collector) IncConversionCount(chartID string, success bool) {
	c.conversions.WithLabelValues(chartID, status(success)).Inc()
}

// ObserveConversionDuration records conversion duration.
func (c *Collector) ObserveConversionDuration(chartID string, duration time.Duration) {
	c.conversionDuration.WithLabelValues(chartID).Observe(duration.Seconds())
}

// AddFeaturesEmitted counts features written for a layer.
func (c *Collector) AddFeaturesEmitted(layer string, count int) {
	c.featuresEmitted.WithLabelValues(layer).Add(float64(count))
}

// IncGeometryFailures counts geometries emitted as null.
func (c *Collector) IncGeometryFailures(reason string) {
	c.geometryFailures.WithLabelValues(reason).Inc()
}

// SetChartsLoaded sets the number of registered charts.
func (c *Collector) SetChartsLoaded(count int) {
	c.chartsLoaded.Set(float64(count))
}

// SetChartsReady sets the number of ready charts.
func (c *Collector) SetChartsReady(count int) {
	c.chartsReady.Set(float64(count))
}

// IncStorageOperations increments storage operation counter.
func (c *Collector) IncStorageOperations(operation string, success bool) {
	c.storageOperations.WithLabelValues(operation, status(success)).Inc()
}

// ObserveStorageDuration records storage operation duration.
func (c *Collector) ObserveStorageDuration(operation string, duration time.Duration) {
	c.storageDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// Handler returns the HTTP handler exposing this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// Middleware records request counts and durations per route template.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		route := routeTemplate(r)
		c.httpRequestsTotal.WithLabelValues(r.Method, route, statusClass(wrapped.statusCode)).Inc()
		c.httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// routeTemplate returns the matched mux route template, keeping chart IDs
// out of label values.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// statusClass converts an HTTP status code to its class, e.g. "4xx".
func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}
