package http //nolint:revive // package name conflicts with stdlib but is acceptable in this context

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/jobrunner/s57geojson/internal/adapters/geojson"
	"github.com/jobrunner/s57geojson/internal/application"
	"github.com/jobrunner/s57geojson/internal/domain"
)

const contentTypeGeoJSON = "application/geo+json"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	details := s.health.GetHealthDetails(r.Context())

	status := http.StatusOK
	if !details.Healthy {
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, status, map[string]interface{}{
		"status":        healthStatus(details.Healthy),
		"ready":         details.Ready,
		"charts_loaded": details.ChartsLoaded,
		"charts_ready":  details.ChartsReady,
		"components":    details.Components,
	})
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	if s.health.IsHealthy(r.Context()) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if s.health.IsReady(r.Context()) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
}

func (s *Server) handleListCharts(w http.ResponseWriter, r *http.Request) {
	charts, err := s.registry.ListCharts(r.Context())
	if err != nil {
		s.logger.Error("listing charts failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list charts")
		return
	}

	response := make([]map[string]interface{}, len(charts))
	for i := range charts {
		response[i] = formatChart(&charts[i])
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"charts": response,
		"count":  len(charts),
	})
}

func (s *Server) handleGetChart(w http.ResponseWriter, r *http.Request) {
	chart, err := s.registry.GetChart(r.Context(), mux.Vars(r)["chartId"])
	if err != nil {
		s.writeConversionError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, formatChart(chart))
}

func (s *Server) handleGetLayers(w http.ResponseWriter, r *http.Request) {
	chartID := mux.Vars(r)["chartId"]

	chart, err := s.registry.GetChart(r.Context(), chartID)
	if err != nil {
		s.writeConversionError(w, err)
		return
	}

	layers := chart.Layers
	if layers == nil {
		layers = []domain.LayerInfo{}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"chart_id": chartID,
		"layers":   layers,
		"count":    len(layers),
	})
}

// handleGeoJSON converts a registered chart. Query parameters:
// feature_types=DEPARE,SOUNDG restricts the layers, bbox=minLon,minLat,maxLon,maxLat
// sets the spatial filter and pretty=true indents the document.
func (s *Server) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	opts, err := parseConvertOptions(r)
	if err != nil {
		s.writeConversionError(w, err)
		return
	}

	fc, err := s.registry.ConvertChart(r.Context(), mux.Vars(r)["chartId"], opts)
	if err != nil {
		s.writeConversionError(w, err)
		return
	}

	pretty, _ := strconv.ParseBool(r.URL.Query().Get("pretty"))

	w.Header().Set("Content-Type", contentTypeGeoJSON)
	w.WriteHeader(http.StatusOK)
	if err := geojson.NewWriter(w, pretty).Write(fc); err != nil {
		s.logger.Warn("writing feature collection failed", "error", err)
	}
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	result, err := s.syncer.TriggerSync(r.Context())
	if err != nil {
		if errors.Is(err, application.ErrRateLimited) {
			w.Header().Set("Retry-After", strconv.Itoa(int(application.SyncCooldown.Seconds())))
			s.writeError(w, http.StatusTooManyRequests,
				fmt.Sprintf("rate limit exceeded, try again in %s", application.SyncCooldown))
			return
		}
		s.logger.Error("sync failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "sync failed")
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	spec, err := getOpenAPIJSON()
	if err != nil {
		s.logger.Error("failed to get OpenAPI spec", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load OpenAPI specification")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(spec)
}

// parseConvertOptions reads the feature type and bbox filters.
func parseConvertOptions(r *http.Request) (domain.ConvertOptions, error) {
	var opts domain.ConvertOptions
	q := r.URL.Query()

	if raw := q.Get("feature_types"); raw != "" {
		opts.FeatureTypes = splitList(raw)
	}

	if raw := q.Get("bbox"); raw != "" {
		parts := splitList(raw)
		values := make([]float64, len(parts))
		for i, p := range parts {
			v, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return opts, &domain.ValidationError{
					Field:      "bbox",
					Value:      raw,
					Constraint: "number",
					Message:    fmt.Sprintf("bbox value %q is not a number", p),
				}
			}
			values[i] = v
		}
		bbox, err := domain.NewBBox(values)
		if err != nil {
			return opts, err
		}
		opts.BBox = bbox
	}

	return opts, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func formatChart(c *domain.Chart) map[string]interface{} {
	m := map[string]interface{}{
		"id":            c.ID,
		"name":          c.Name,
		"format":        c.Format,
		"size":          c.Size,
		"layer_count":   c.LayerCount(),
		"feature_count": c.FeatureCount(),
		"status":        c.Status,
		"ready":         c.IsReady(),
		"loaded_at":     c.LoadedAt,
	}
	if !c.LastServed.IsZero() {
		m["last_served"] = c.LastServed
	}
	return m
}

// writeConversionError maps registry and conversion failures to a status
// code. Parse and dependency failures carry the error document body.
func (s *Server) writeConversionError(w http.ResponseWriter, err error) {
	var parseErr *domain.ParseError
	var depErr *domain.DependencyError
	var validationErr *domain.ValidationError

	switch {
	case errors.As(err, &parseErr):
		s.writeJSON(w, http.StatusUnprocessableEntity, geojson.NewErrorDocument(err, ""))
	case errors.As(err, &depErr):
		s.writeJSON(w, http.StatusServiceUnavailable, geojson.NewErrorDocument(err, ""))
	case errors.As(err, &validationErr):
		s.writeError(w, http.StatusBadRequest, validationErr.Message)
	case errors.Is(err, domain.ErrChartNotFound):
		s.writeError(w, http.StatusNotFound, "chart not found")
	case errors.Is(err, domain.ErrNotReady):
		s.writeError(w, http.StatusServiceUnavailable, "chart not ready")
	case errors.Is(err, domain.ErrInvalidInput):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("conversion failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "conversion failed")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func healthStatus(healthy bool) string {
	if healthy {
		return "ok"
	}
	return "unhealthy"
}
