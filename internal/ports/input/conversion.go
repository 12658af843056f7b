// Package input defines the primary/driving ports of the application.
package input

import (
	"context"

	"github.com/jobrunner/s57geojson/internal/domain"
)

// ConversionService defines the primary port for chart conversion.
type ConversionService interface {
	// Convert opens the chart at path and builds its FeatureCollection.
	Convert(ctx context.Context, path string, opts domain.ConvertOptions) (*domain.FeatureCollection, error)

	// ListLayers returns the layers of the chart at path in dataset order.
	ListLayers(ctx context.Context, path string) ([]domain.LayerInfo, error)
}

// ChartRegistry defines the primary port for chart management.
type ChartRegistry interface {
	// ListCharts returns all registered charts.
	ListCharts(ctx context.Context) ([]domain.Chart, error)

	// GetChart returns a specific chart by ID.
	GetChart(ctx context.Context, id string) (*domain.Chart, error)

	// GetChartStatus returns the status of a chart.
	GetChartStatus(ctx context.Context, id string) (domain.ChartStatus, error)

	// ConvertChart converts a registered chart.
	ConvertChart(ctx context.Context, id string, opts domain.ConvertOptions) (*domain.FeatureCollection, error)
}

// HealthChecker defines the primary port for health checks.
type HealthChecker interface {
	// IsHealthy returns true if the service is healthy.
	IsHealthy(ctx context.Context) bool

	// IsReady returns true if the service is ready to accept requests.
	IsReady(ctx context.Context) bool

	// GetHealthDetails returns detailed health information.
	GetHealthDetails(ctx context.Context) HealthDetails
}

// HealthDetails contains detailed health information.
type HealthDetails struct {
	Healthy      bool              // Overall health status
	Ready        bool              // Ready to accept requests
	ChartsLoaded int               // Number of registered charts
	ChartsReady  int               // Number of ready charts
	Components   map[string]string // Component statuses
}
