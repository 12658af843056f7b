package output

import "time"

// MetricsCollector defines the secondary port for metrics collection.
type MetricsCollector interface {
	// IncConversionCount increments the conversion counter.
	IncConversionCount(chartID string, success bool)

	// ObserveConversionDuration records conversion duration.
	ObserveConversionDuration(chartID string, duration time.Duration)

	// AddFeaturesEmitted counts features written for a layer.
	AddFeaturesEmitted(layer string, count int)

	// IncGeometryFailures counts geometries converted to null.
	IncGeometryFailures(reason string)

	// SetChartsLoaded sets the number of registered charts.
	SetChartsLoaded(count int)

	// SetChartsReady sets the number of ready charts.
	SetChartsReady(count int)

	// IncStorageOperations increments storage operation counter.
	IncStorageOperations(operation string, success bool)

	// ObserveStorageDuration records storage operation duration.
	ObserveStorageDuration(operation string, duration time.Duration)
}

// NoOpMetrics is a no-op implementation of MetricsCollector.
type NoOpMetrics struct{}

// IncConversionCount implements MetricsCollector.
func (n *NoOpMetrics) IncConversionCount(_ string, _ bool) {}

// ObserveConversionDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveConversionDuration(_ string, _ time.Duration) {}

// AddFeaturesEmitted implements MetricsCollector.
func (n *NoOpMetrics) AddFeaturesEmitted(_ string, _ int) {}

// IncGeometryFailures implements MetricsCollector.
func (n *NoOpMetrics) IncGeometryFailures(_ string) {}

// SetChartsLoaded implements MetricsCollector.
func (n *NoOpMetrics) SetChartsLoaded(_ int) {}

// SetChartsReady implements MetricsCollector.
func (n *NoOpMetrics) SetChartsReady(_ int) {}

// IncStorageOperations implements MetricsCollector.
func (n *NoOpMetrics) IncStorageOperations(_ string, _ bool) {}

// ObserveStorageDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveStorageDuration(_ string, _ time.Duration) {}
