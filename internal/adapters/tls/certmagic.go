// Package tls serves the API over HTTPS with certificates obtained by
// CertMagic through ACME DNS-01 challenges against Azure DNS.
package tls

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/caddyserver/certmagic"
	"github.com/libdns/azure"

	"github.com/jobrunner/s57geojson/internal/config"
	"github.com/jobrunner/s57geojson/internal/domain"
)

// Server serves a handler over HTTPS, or plain HTTP when TLS is disabled.
type Server struct {
	config    config.TLSConfig
	handler   http.Handler
	logger    *slog.Logger
	magic     *certmagic.Config
	tlsConfig *tls.Config

	mu     sync.Mutex
	server *http.Server
}

// NewServer creates a server. With TLS enabled it prepares a CertMagic
// configuration of its own; no certificate is requested yet.
func NewServer(cfg config.TLSConfig, handler http.Handler, logger *slog.Logger) (*Server, error) {
	s := &Server{config: cfg, handler: handler, logger: logger}
	if !cfg.Enabled {
		return s, nil
	}

	if len(cfg.Domains) == 0 {
		return nil, &domain.ConfigError{Field: "tls.domains", Message: "TLS enabled but no domains specified"}
	}
	if cfg.Email == "" {
		return nil, &domain.ConfigError{Field: "tls.email", Message: "TLS enabled but no email specified"}
	}

	s.magic = newMagic(cfg)
	s.tlsConfig = s.magic.TLSConfig()
	s.tlsConfig.NextProtos = append([]string{"h2", "http/1.1"}, s.tlsConfig.NextProtos...)

	return s, nil
}

func newMagic(cfg config.TLSConfig) *certmagic.Config {
	var magic *certmagic.Config
	cache := certmagic.NewCache(certmagic.CacheOptions{
		GetConfigForCert: func(certmagic.Certificate) (*certmagic.Config, error) {
			return magic, nil
		},
	})

	template := certmagic.Config{}
	if cfg.CacheDir != "" {
		template.Storage = &certmagic.FileStorage{Path: cfg.CacheDir}
	}
	magic = certmagic.New(cache, template)

	ca := certmagic.LetsEncryptProductionCA
	if cfg.Staging {
		ca = certmagic.LetsEncryptStagingCA
	}

	issuer := certmagic.NewACMEIssuer(magic, certmagic.ACMEIssuer{
		CA:     ca,
		Email:  cfg.Email,
		Agreed: true,
		DNS01Solver: &certmagic.DNS01Solver{
			DNSManager: certmagic.DNSManager{
				DNSProvider: &azure.Provider{
					SubscriptionId:    cfg.DNS.SubscriptionID,
					ResourceGroupName: cfg.DNS.ResourceGroupName,
					ClientId:          cfg.DNS.ClientID, // empty selects the system assigned identity
				},
			},
		},
	})
	magic.Issuers = []certmagic.Issuer{issuer}

	return magic
}

// ManageCertificates obtains or renews certificates for the configured
// domains and keeps them renewed in the background.
func (s *Server) ManageCertificates(ctx context.Context) error {
	if !s.config.Enabled {
		return nil
	}

	s.logger.Info("obtaining certificates", "domains", s.config.Domains)
	if err := s.magic.ManageSync(ctx, s.config.Domains); err != nil {
		return fmt.Errorf("managing certificates: %w", err)
	}
	s.logger.Info("certificates obtained", "domains", s.config.Domains)

	return nil
}

// ListenAndServe blocks serving on addr. It returns nil after Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		TLSConfig:         s.tlsConfig,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.server = server
	s.mu.Unlock()

	var err error
	if s.config.Enabled {
		s.logger.Info("starting HTTPS server", "address", addr, "domains", s.config.Domains)
		err = server.ListenAndServeTLS("", "")
	} else {
		s.logger.Info("starting HTTP server (TLS disabled)", "address", addr)
		err = server.ListenAndServe()
	}

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops a running server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// TLSConfig returns the TLS configuration, nil when TLS is disabled.
func (s *Server) TLSConfig() *tls.Config {
	return s.tlsConfig
}
