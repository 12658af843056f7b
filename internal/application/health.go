package application

import (
	"context"

	"github.com/jobrunner/s57geojson/internal/domain"
	"github.com/jobrunner/s57geojson/internal/ports/input"
)

// HealthService provides health check functionality.
type HealthService struct {
	registry   input.ChartRegistry
	components map[string]string
}

// NewHealthService creates a new health service. components carries static
// component states determined at startup, e.g. the dataset driver in use.
func NewHealthService(registry input.ChartRegistry, components map[string]string) *HealthService {
	c := make(map[string]string, len(components))
	for k, v := range components {
		c[k] = v
	}
	return &HealthService{
		registry:   registry,
		components: c,
	}
}

// IsHealthy returns true if the service is healthy.
func (s *HealthService) IsHealthy(_ context.Context) bool {
	return true
}

// IsReady returns true if the service is ready to accept requests.
func (s *HealthService) IsReady(ctx context.Context) bool {
	charts, err := s.registry.ListCharts(ctx)
	if err != nil {
		return false
	}

	for _, chart := range charts {
		if chart.IsReady() {
			return true
		}
	}

	// An empty chart directory is a valid state.
	return len(charts) == 0
}

// GetHealthDetails returns detailed health information.
func (s *HealthService) GetHealthDetails(ctx context.Context) input.HealthDetails {
	charts, _ := s.registry.ListCharts(ctx)

	ready := 0
	for _, chart := range charts {
		if chart.IsReady() {
			ready++
		}
	}

	components := map[string]string{"storage": "ok"}
	for k, v := range s.components {
		components[k] = v
	}

	return input.HealthDetails{
		Healthy:      s.IsHealthy(ctx),
		Ready:        s.IsReady(ctx),
		ChartsLoaded: len(charts),
		ChartsReady:  ready,
		Components:   components,
	}
}

// ChartHealth contains health info for a single chart.
type ChartHealth struct {
	ID     string             `json:"id"`
	Status domain.ChartStatus `json:"status"`
	Ready  bool               `json:"ready"`
}

// GetChartHealth returns health info for all charts.
func (s *HealthService) GetChartHealth(ctx context.Context) []ChartHealth {
	charts, _ := s.registry.ListCharts(ctx)

	health := make([]ChartHealth, len(charts))
	for i, chart := range charts {
		status, _ := s.registry.GetChartStatus(ctx, chart.ID)
		health[i] = ChartHealth{
			ID:     chart.ID,
			Status: status,
			Ready:  chart.IsReady(),
		}
	}

	return health
}
