package http //nolint:revive // package name conflicts with stdlib but is acceptable in this context

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jobrunner/s57geojson/internal/config"
)

func TestOriginHost(t *testing.T) {
	tests := []struct {
		origin string
		want   string
	}{
		{"https://example.com", "example.com"},
		{"https://example.com:8080", "example.com"},
		{"http://sub.example.com/path", "sub.example.com"},
		{"http://192.168.1.1:3000", "192.168.1.1"},
		{"example.com", "example.com"},
		{"localhost:3000", "localhost"},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			if got := originHost(tt.origin); got != tt.want {
				t.Errorf("originHost(%q) = %q, want %q", tt.origin, got, tt.want)
			}
		})
	}
}

func TestOriginPolicy_Allows(t *testing.T) {
	tests := []struct {
		name    string
		policy  originPolicy
		origin  string
		allowed bool
	}{
		{"exact", originPolicy{"https://example.com"}, "https://example.com", true},
		{"exact with port", originPolicy{"https://example.com:8080"}, "https://example.com:8080", true},
		{"different scheme", originPolicy{"https://example.com"}, "http://example.com", false},
		{"different port", originPolicy{"https://example.com:8080"}, "https://example.com:9090", false},
		{"one of many", originPolicy{"https://a.com", "https://b.com"}, "https://b.com", true},
		{"wildcard subdomain", originPolicy{"*.example.com"}, "https://app.example.com", true},
		{"wildcard deep subdomain", originPolicy{"*.example.com"}, "https://a.b.example.com:8443", true},
		{"wildcard excludes bare domain", originPolicy{"*.example.com"}, "https://example.com", false},
		{"wildcard excludes lookalike", originPolicy{"*.example.com"}, "https://notexample.com", false},
		{"wildcard localhost", originPolicy{"*.localhost"}, "http://sub.localhost", true},
		{"empty origin", originPolicy{"https://example.com"}, "", false},
		{"empty pattern", originPolicy{""}, "https://example.com", false},
		{"nil policy", nil, "https://example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.allows(tt.origin); got != tt.allowed {
				t.Errorf("allows(%q) with %v = %v, want %v", tt.origin, tt.policy, got, tt.allowed)
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		origin     string
		method     string
		wantStatus int
		wantOrigin string
	}{
		{"allowed GET", "https://viewer.example.com", http.MethodGet, http.StatusOK, "https://viewer.example.com"},
		{"allowed preflight", "https://viewer.example.com", http.MethodOptions, http.StatusNoContent, "https://viewer.example.com"},
		{"rejected origin", "https://evil.com", http.MethodGet, http.StatusOK, ""},
		{"rejected preflight", "https://evil.com", http.MethodOptions, http.StatusNoContent, ""},
		{"no origin", "", http.MethodGet, http.StatusOK, ""},
	}

	cfg := config.ServerConfig{CORS: config.CORSConfig{AllowedOrigins: []string{"*.example.com"}}}
	s := &Server{config: cfg, cors: originPolicy(cfg.CORS.AllowedOrigins)}
	handler := s.corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/charts", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if tt.wantOrigin == "" {
				return
			}
			if got := rr.Header().Get("Access-Control-Allow-Methods"); got != corsAllowMethods {
				t.Errorf("Access-Control-Allow-Methods = %q, want %q", got, corsAllowMethods)
			}
			if got := rr.Header().Get("Vary"); got != "Origin" {
				t.Errorf("Vary = %q, want Origin", got)
			}
		})
	}
}
