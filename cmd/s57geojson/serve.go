package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jobrunner/s57geojson/internal/app"
)

func (c *cli) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve registered charts as GeoJSON over HTTP",
		Long: `Keeps a registry of chart files (.000 base cells and .gpkg exports) from
local, S3, Azure Blob or HTTP storage and converts them on request.

Endpoints:
  GET  /api/v1/charts
  GET  /api/v1/charts/{chartId}
  GET  /api/v1/charts/{chartId}/layers
  GET  /api/v1/charts/{chartId}/geojson?feature_types=A,B&bbox=minLon,minLat,maxLon,maxLat
  POST /api/v1/sync
  GET  /health, /health/live, /health/ready, /metrics, /openapi.json, /docs`,
		Args: cobra.NoArgs,
		RunE: c.runServe,
	}

	f := cmd.Flags()
	f.String("host", "0.0.0.0", "server host")
	f.Int("port", 8080, "server port")
	f.Bool("tls", false, "enable TLS")
	f.StringSlice("tls-domains", nil, "TLS domains")
	f.String("tls-email", "", "TLS email for Let's Encrypt")
	f.String("storage-type", "local", "storage type (local, s3, azure, http)")
	f.String("storage-path", "./charts", "local chart directory")
	f.StringSlice("cors", nil, "allowed CORS origins (e.g., https://example.com,*.sub.domain.tld)")
	f.Duration("sync-interval", 0, "remote storage sync interval (0 keeps the configured value)")
	f.Int("metrics-port", 0, "serve metrics on a separate port")

	_ = viper.BindPFlag("server.host", f.Lookup("host"))
	_ = viper.BindPFlag("server.port", f.Lookup("port"))
	_ = viper.BindPFlag("tls.enabled", f.Lookup("tls"))
	_ = viper.BindPFlag("tls.domains", f.Lookup("tls-domains"))
	_ = viper.BindPFlag("tls.email", f.Lookup("tls-email"))
	_ = viper.BindPFlag("storage.type", f.Lookup("storage-type"))
	_ = viper.BindPFlag("storage.local_path", f.Lookup("storage-path"))
	_ = viper.BindPFlag("server.cors.allowed_origins", f.Lookup("cors"))
	_ = viper.BindPFlag("sync.interval", f.Lookup("sync-interval"))
	_ = viper.BindPFlag("metrics.port", f.Lookup("metrics-port"))

	return cmd
}

func (c *cli) runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := c.setup()
	if err != nil {
		return err
	}

	logger.Info("starting s57geojson",
		"version", version,
		"address", cfg.Server.Address(),
		"driver", cfg.Source.Driver,
		"storage_type", cfg.Storage.Type,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- application.Start(ctx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case runErr = <-serverErr:
		if runErr != nil {
			logger.Error("server error", "error", runErr)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		if runErr == nil {
			runErr = err
		}
	}

	logger.Info("server stopped")
	return runErr
}
