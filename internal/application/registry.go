// Package application contains the application services.
package application

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jobrunner/s57geojson/internal/domain"
	"github.com/jobrunner/s57geojson/internal/ports/input"
	"github.com/jobrunner/s57geojson/internal/ports/output"
)

// ChartRegistry keeps track of the chart files available for conversion.
// It holds layer summaries only; datasets are opened per conversion.
type ChartRegistry struct {
	mu        sync.RWMutex
	charts    map[string]*chartEntry
	converter input.ConversionService
	storage   output.ObjectStorage
	metrics   output.MetricsCollector
	logger    *slog.Logger
	localPath string
}

type chartEntry struct {
	Chart  *domain.Chart
	Status domain.ChartStatus
	Error  error
}

// NewChartRegistry creates a new chart registry.
func NewChartRegistry(
	converter input.ConversionService,
	storage output.ObjectStorage,
	metrics output.MetricsCollector,
	logger *slog.Logger,
	localPath string,
) *ChartRegistry {
	return &ChartRegistry{
		charts:    make(map[string]*chartEntry),
		converter: converter,
		storage:   storage,
		metrics:   metrics,
		logger:    logger,
		localPath: localPath,
	}
}

// LoadChart registers the chart at path after reading its layer list.
func (r *ChartRegistry) LoadChart(ctx context.Context, path string) error {
	r.logger.Info("loading chart", "path", path)

	id := domain.ChartID(path)
	chart := &domain.Chart{
		ID:     id,
		Name:   filepath.Base(path),
		Path:   path,
		Format: domain.DetectFormat(path),
		Status: domain.StatusLoading,
	}
	if info, err := os.Stat(path); err == nil {
		chart.Size = info.Size()
	}

	r.mu.Lock()
	r.charts[id] = &chartEntry{Chart: chart, Status: domain.StatusLoading}
	r.mu.Unlock()

	layers, err := r.converter.ListLayers(ctx, path)
	if err != nil {
		r.logger.Error("failed to open chart", "path", path, "error", err)
		r.mu.Lock()
		delete(r.charts, id)
		r.mu.Unlock()
		r.updateMetrics()
		return err
	}

	r.mu.Lock()
	if entry, ok := r.charts[id]; ok {
		entry.Status = domain.StatusReady
		entry.Chart.Status = domain.StatusReady
		entry.Chart.Layers = layers
		entry.Chart.LoadedAt = time.Now()
	}
	r.mu.Unlock()

	r.updateMetrics()
	r.logger.Info("chart loaded", "id", id, "layers", len(layers))

	return nil
}

// UnloadChart removes a chart from the registry.
func (r *ChartRegistry) UnloadChart(_ context.Context, chartID string) error {
	r.logger.Info("unloading chart", "id", chartID)

	r.mu.Lock()
	if _, ok := r.charts[chartID]; !ok {
		r.mu.Unlock()
		return domain.ErrChartNotFound
	}
	delete(r.charts, chartID)
	r.mu.Unlock()

	r.updateMetrics()
	return nil
}

// ListCharts returns all registered charts ordered by ID.
func (r *ChartRegistry) ListCharts(_ context.Context) ([]domain.Chart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	charts := make([]domain.Chart, 0, len(r.charts))
	for _, entry := range r.charts {
		charts = append(charts, *entry.Chart)
	}
	sort.Slice(charts, func(i, j int) bool { return charts[i].ID < charts[j].ID })

	return charts, nil
}

// GetChart returns a specific chart by ID.
func (r *ChartRegistry) GetChart(_ context.Context, id string) (*domain.Chart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.charts[id]
	if !ok {
		return nil, domain.ErrChartNotFound
	}

	chart := *entry.Chart
	return &chart, nil
}

// GetChartStatus returns the status of a chart.
func (r *ChartRegistry) GetChartStatus(_ context.Context, id string) (domain.ChartStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.charts[id]
	if !ok {
		return "", domain.ErrChartNotFound
	}

	return entry.Status, nil
}

// ConvertChart converts a registered, ready chart.
func (r *ChartRegistry) ConvertChart(ctx context.Context, id string, opts domain.ConvertOptions) (*domain.FeatureCollection, error) {
	r.mu.RLock()
	entry, ok := r.charts[id]
	var path string
	ready := false
	if ok {
		path = entry.Chart.Path
		ready = entry.Status == domain.StatusReady
	}
	r.mu.RUnlock()

	if !ok {
		return nil, domain.ErrChartNotFound
	}
	if !ready {
		return nil, domain.ErrNotReady
	}

	fc, err := r.converter.Convert(ctx, path, opts)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if entry, ok := r.charts[id]; ok {
		entry.Chart.LastServed = time.Now()
	}
	r.mu.Unlock()

	return fc, nil
}

// IsReady returns true if a chart is ready for conversion.
func (r *ChartRegistry) IsReady(chartID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.charts[chartID]
	if !ok {
		return false
	}

	return entry.Status == domain.StatusReady
}

// updateMetrics updates the metrics collector with current chart counts.
func (r *ChartRegistry) updateMetrics() {
	r.mu.RLock()
	total := len(r.charts)
	ready := 0
	for _, entry := range r.charts {
		if entry.Status == domain.StatusReady {
			ready++
		}
	}
	r.mu.RUnlock()

	r.metrics.SetChartsLoaded(total)
	r.metrics.SetChartsReady(ready)
}

// LoadAll loads all charts from storage.
func (r *ChartRegistry) LoadAll(ctx context.Context) error {
	r.logger.Info("loading all charts from storage")

	objects, err := r.list(ctx)
	if err != nil {
		return err
	}

	updates := updateKeys(objects)
	for _, obj := range objects {
		if !domain.IsChartFile(obj.Key) {
			continue
		}

		localPath, err := r.download(ctx, obj.Key, updates[domain.ChartID(obj.Key)])
		if err != nil {
			r.logger.Error("failed to download chart", "key", obj.Key, "error", err)
			continue
		}

		if err := r.LoadChart(ctx, localPath); err != nil {
			r.logger.Error("failed to load chart", "path", localPath, "error", err)
		}
	}

	return nil
}

// IsLoaded returns true if a chart with the given ID is already registered.
func (r *ChartRegistry) IsLoaded(chartID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.charts[chartID]
	return ok
}

// ChartCount returns the number of registered charts.
func (r *ChartRegistry) ChartCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.charts)
}

// SyncStats contains statistics from a sync operation.
type SyncStats struct {
	Added   int
	Removed int
}

// Sync synchronizes with storage: new charts are downloaded and registered,
// charts no longer present are unregistered and their cached copy removed.
func (r *ChartRegistry) Sync(ctx context.Context) (SyncStats, error) {
	r.logger.Info("syncing charts from storage")

	objects, err := r.list(ctx)
	if err != nil {
		return SyncStats{}, err
	}

	remote := make(map[string]string) // chartID -> objectKey
	for _, obj := range objects {
		if domain.IsChartFile(obj.Key) {
			remote[domain.ChartID(obj.Key)] = obj.Key
		}
	}
	updates := updateKeys(objects)

	stats := SyncStats{}

	for chartID, objectKey := range remote {
		if r.IsLoaded(chartID) {
			r.logger.Debug("chart already loaded, skipping", "id", chartID)
			continue
		}

		localPath, err := r.download(ctx, objectKey, updates[chartID])
		if err != nil {
			r.logger.Error("failed to download chart", "key", objectKey, "error", err)
			continue
		}

		if err := r.LoadChart(ctx, localPath); err != nil {
			r.logger.Error("failed to load chart", "path", localPath, "error", err)
			continue
		}

		stats.Added++
		r.logger.Info("new chart synced", "id", chartID)
	}

	for _, chartID := range r.findChartsToRemove(remote) {
		r.logger.Info("removing chart not in storage", "id", chartID)

		localPath := r.getChartPath(chartID)

		if err := r.UnloadChart(ctx, chartID); err != nil {
			r.logger.Error("failed to unload removed chart", "id", chartID, "error", err)
			continue
		}

		if localPath != "" {
			if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
				r.logger.Warn("failed to delete local cache file", "path", localPath, "error", err)
			} else {
				r.logger.Debug("deleted local cache file", "path", localPath)
			}
		}

		stats.Removed++
	}

	r.logger.Info("sync completed", "added", stats.Added, "removed", stats.Removed, "total", r.ChartCount())
	return stats, nil
}

// findChartsToRemove returns chart IDs that are loaded but not in storage.
func (r *ChartRegistry) findChartsToRemove(remote map[string]string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var toRemove []string
	for chartID := range r.charts {
		if _, exists := remote[chartID]; !exists {
			toRemove = append(toRemove, chartID)
		}
	}
	return toRemove
}

// getChartPath returns the local file path for a registered chart.
func (r *ChartRegistry) getChartPath(chartID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, ok := r.charts[chartID]; ok && entry.Chart != nil {
		return entry.Chart.Path
	}
	return ""
}

// download fetches a chart and its S-57 update files into the local cache and
// returns the local path of the chart. Updates must sit next to the base cell
// for the reader to apply them.
func (r *ChartRegistry) download(ctx context.Context, key string, updates []string) (string, error) {
	localPath := filepath.Join(r.localPath, key)
	if err := r.fetch(ctx, key, localPath); err != nil {
		return "", err
	}
	for _, u := range updates {
		if filepath.Dir(u) != filepath.Dir(key) {
			continue
		}
		if err := r.fetch(ctx, u, filepath.Join(r.localPath, u)); err != nil {
			r.logger.Warn("failed to download chart update", "key", u, "error", err)
		}
	}
	return localPath, nil
}

func (r *ChartRegistry) list(ctx context.Context) ([]output.StorageObject, error) {
	start := time.Now()
	objects, err := r.storage.List(ctx)
	r.metrics.IncStorageOperations("list", err == nil)
	r.metrics.ObserveStorageDuration("list", time.Since(start))
	return objects, err
}

func (r *ChartRegistry) fetch(ctx context.Context, key, dest string) error {
	start := time.Now()
	err := r.storage.Download(ctx, key, dest)
	r.metrics.IncStorageOperations("download", err == nil)
	r.metrics.ObserveStorageDuration("download", time.Since(start))
	return err
}

// updateKeys groups S-57 update files by the ID of their base cell.
func updateKeys(objects []output.StorageObject) map[string][]string {
	updates := make(map[string][]string)
	for _, obj := range objects {
		if domain.IsUpdateFile(obj.Key) {
			id := domain.ChartID(obj.Key)
			updates[id] = append(updates[id], obj.Key)
		}
	}
	for id := range updates {
		sort.Strings(updates[id])
	}
	return updates
}
