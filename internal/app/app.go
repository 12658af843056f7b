// Package app provides application initialization and wiring.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	httpAdapter "github.com/jobrunner/s57geojson/internal/adapters/http"
	"github.com/jobrunner/s57geojson/internal/adapters/metrics"
	"github.com/jobrunner/s57geojson/internal/adapters/storage"
	tlsAdapter "github.com/jobrunner/s57geojson/internal/adapters/tls"
	"github.com/jobrunner/s57geojson/internal/adapters/watcher"
	"github.com/jobrunner/s57geojson/internal/application"
	"github.com/jobrunner/s57geojson/internal/config"
	"github.com/jobrunner/s57geojson/internal/domain"
	"github.com/jobrunner/s57geojson/internal/ports/output"
)

// App holds the components of serve mode.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Source        *Source
	Storage       output.ObjectStorage
	Converter     *application.ConversionService
	Registry      *application.ChartRegistry
	SyncService   *application.SyncService
	HealthService *application.HealthService
	HTTPServer    *httpAdapter.Server
	TLSServer     *tlsAdapter.Server
	Watcher       *watcher.Watcher
	Metrics       *metrics.Collector
	MetricsServer *metrics.Server
}

// New creates and wires the application.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.ValidateServe(); err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		Logger: logger,
	}

	var collector output.MetricsCollector = &output.NoOpMetrics{}
	if cfg.Metrics.Enabled {
		app.Metrics = metrics.NewCollector("s57geojson")
		collector = app.Metrics
		if cfg.Metrics.Port != 0 {
			app.MetricsServer = metrics.NewServer(app.Metrics, cfg.Metrics.Port, cfg.Metrics.Path, logger)
		}
	}

	source, err := NewSource(ctx, cfg.Source, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing chart reader: %w", err)
	}
	app.Source = source

	store, err := initStorage(ctx, cfg.Storage)
	if err != nil {
		_ = source.Close()
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	app.Storage = store

	app.Converter = application.NewConversionService(source, collector, logger)
	app.Registry = application.NewChartRegistry(
		app.Converter,
		app.Storage,
		collector,
		logger,
		cfg.Storage.LocalPath,
	)

	components := map[string]string{"storage": cfg.Storage.Type}
	for k, v := range source.Components {
		components[k] = v
	}
	app.HealthService = application.NewHealthService(app.Registry, components)

	// The sync route is only mounted for remote storage; a nil
	// *SyncService must not reach the server as a non-nil interface.
	var syncer httpAdapter.Syncer
	if cfg.Storage.IsRemote() {
		app.SyncService = application.NewSyncService(app.Registry, cfg.Sync.Interval, logger)
		syncer = app.SyncService
	}

	app.HTTPServer = httpAdapter.NewServer(
		cfg.Server,
		app.Registry,
		app.HealthService,
		syncer,
		app.Metrics,
		logger,
	)
	if app.Metrics != nil && app.MetricsServer == nil {
		app.HTTPServer.Router().Handle(cfg.Metrics.Path, app.Metrics.Handler())
	}

	if cfg.TLS.Enabled {
		tlsServer, err := tlsAdapter.NewServer(cfg.TLS, app.HTTPServer.Handler(), logger)
		if err != nil {
			_ = source.Close()
			return nil, fmt.Errorf("initializing TLS: %w", err)
		}
		app.TLSServer = tlsServer
	}

	if !cfg.Storage.IsRemote() {
		w, err := watcher.New(
			watcher.Config{Paths: []string{cfg.Storage.LocalPath}},
			app.handleFileEvent,
			logger,
		)
		if err != nil {
			logger.Warn("failed to initialize file watcher", "error", err)
		} else {
			app.Watcher = w
		}
	}

	return app, nil
}

// Start loads the charts, starts the background components and blocks
// serving HTTP.
func (a *App) Start(ctx context.Context) error {
	if err := a.Registry.LoadAll(ctx); err != nil {
		a.Logger.Warn("failed to load charts", "error", err)
	}
	a.Logger.Info("charts loaded", "count", a.Registry.ChartCount())

	if a.Watcher != nil {
		if err := a.Watcher.Start(ctx); err != nil {
			a.Logger.Warn("failed to start file watcher", "error", err)
		}
	}

	if a.SyncService != nil && a.Config.Sync.Interval > 0 {
		a.SyncService.Start(ctx)
	}

	if a.MetricsServer != nil {
		go func() {
			if err := a.MetricsServer.Start(); err != nil {
				a.Logger.Error("metrics server error", "error", err)
			}
		}()
	}

	if a.TLSServer != nil {
		if err := a.TLSServer.ManageCertificates(ctx); err != nil {
			return err
		}
		return a.TLSServer.ListenAndServe(a.Config.Server.Address())
	}
	return a.HTTPServer.Start()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.Info("shutting down application")

	if a.Watcher != nil {
		_ = a.Watcher.Stop()
	}

	if a.SyncService != nil && a.Config.Sync.Interval > 0 {
		a.SyncService.Stop()
	}

	if a.MetricsServer != nil {
		if err := a.MetricsServer.Shutdown(ctx); err != nil {
			a.Logger.Error("metrics server shutdown error", "error", err)
		}
	}

	var errs []error
	if a.TLSServer != nil {
		errs = append(errs, a.TLSServer.Shutdown(ctx))
	} else {
		errs = append(errs, a.HTTPServer.Shutdown(ctx))
	}

	charts, _ := a.Registry.ListCharts(ctx)
	for _, c := range charts {
		if err := a.Registry.UnloadChart(ctx, c.ID); err != nil {
			a.Logger.Error("failed to unload chart", "id", c.ID, "error", err)
		}
	}

	errs = append(errs, a.Source.Close())
	return errors.Join(errs...)
}

// handleFileEvent keeps the registry in step with the chart directory.
func (a *App) handleFileEvent(ctx context.Context, event watcher.Event) error {
	a.Logger.Info("file event", "path", event.Path, "chart", event.ChartID, "operation", event.Operation.String())

	switch event.Operation {
	case watcher.OpCreate, watcher.OpModify:
		return a.Registry.LoadChart(ctx, event.Path)

	case watcher.OpDelete:
		if err := a.Registry.UnloadChart(ctx, event.ChartID); err != nil && !errors.Is(err, domain.ErrChartNotFound) {
			a.Logger.Warn("failed to unload deleted chart", "id", event.ChartID, "error", err)
		}
	}

	return nil
}

func initStorage(ctx context.Context, cfg config.StorageConfig) (output.ObjectStorage, error) {
	switch cfg.Type {
	case "local":
		return storage.NewLocalStorage(cfg.LocalPath), nil

	case "s3":
		return storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})

	case "azure":
		return storage.NewAzureStorage(storage.AzureConfig{
			Container:        cfg.Azure.Container,
			AccountName:      cfg.Azure.AccountName,
			AccountKey:       cfg.Azure.AccountKey,
			ConnectionString: cfg.Azure.ConnectionString,
			Prefix:           cfg.Azure.Prefix,
		})

	case "http":
		return storage.NewHTTPStorage(storage.HTTPConfig{
			BaseURL:   cfg.HTTP.BaseURL,
			IndexFile: cfg.HTTP.IndexFile,
			Timeout:   cfg.HTTP.Timeout,
			Username:  cfg.HTTP.Username,
			Password:  cfg.HTTP.Password,
		}), nil

	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
