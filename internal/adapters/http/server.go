// Package http provides the HTTP server and handlers.
package http //nolint:revive // package name conflicts with stdlib but is acceptable in this context

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gorilla/mux"

	"github.com/jobrunner/s57geojson/internal/adapters/metrics"
	"github.com/jobrunner/s57geojson/internal/application"
	"github.com/jobrunner/s57geojson/internal/config"
	"github.com/jobrunner/s57geojson/internal/ports/input"
)

// Syncer triggers an on-demand storage sync.
type Syncer interface {
	TriggerSync(ctx context.Context) (application.SyncResult, error)
}

// Server wraps the HTTP server with application handlers.
type Server struct {
	server    *http.Server
	router    *mux.Router
	registry  input.ChartRegistry
	health    input.HealthChecker
	syncer    Syncer
	collector *metrics.Collector
	cors      originPolicy
	logger    *slog.Logger
	config    config.ServerConfig
}

// NewServer creates a new HTTP server. syncer and collector may be nil.
func NewServer(
	cfg config.ServerConfig,
	registry input.ChartRegistry,
	health input.HealthChecker,
	syncer Syncer,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Server {
	s := &Server{
		registry:  registry,
		health:    health,
		syncer:    syncer,
		collector: collector,
		cors:      originPolicy(cfg.CORS.AllowedOrigins),
		logger:    logger,
		config:    cfg,
	}

	s.router = s.setupRoutes()

	s.server = &http.Server{
		Addr:              cfg.Address(),
		Handler:           s.router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}

	return s
}

func (s *Server) setupRoutes() *mux.Router {
	r := mux.NewRouter()

	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	if s.collector != nil {
		r.Use(s.collector.Middleware)
	}
	if s.config.CORS.Enabled() {
		r.Use(s.corsMiddleware)
	}

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/health/live", s.handleLiveness).Methods(http.MethodGet)
	r.HandleFunc("/health/ready", s.handleReadiness).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/charts", s.handleListCharts).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/charts/{chartId}", s.handleGetChart).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/charts/{chartId}/layers", s.handleGetLayers).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/charts/{chartId}/geojson", s.handleGeoJSON).Methods(http.MethodGet, http.MethodOptions)

	if s.syncer != nil {
		api.HandleFunc("/sync", s.handleSync).Methods(http.MethodPost, http.MethodOptions)
	}

	r.HandleFunc("/openapi.json", s.handleOpenAPI).Methods(http.MethodGet)
	r.HandleFunc("/docs", s.handleSwaggerUI).Methods(http.MethodGet)

	if s.config.FrontendEnabled {
		r.HandleFunc("/", s.handleFrontend).Methods(http.MethodGet)
	}

	return r
}

// Router returns the mux router.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Handler returns the root handler, for use behind a TLS listener.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "address", s.config.Address())
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration", time.Since(start),
			"remote_addr", r.RemoteAddr,
		)
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered",
					"error", rec,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				s.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// responseWriter captures the status code for request logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
