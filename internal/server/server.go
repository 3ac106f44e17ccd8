package server

import (
	"log/slog"
	"net/http"
	"time"

	"storefront/internal/account"
	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/metrics"
	"storefront/internal/token"
)

// HealthChecker reports the status of a backing service. database.Service
// satisfies it.
type HealthChecker interface {
	Health() map[string]string
}

// Deps are the components the HTTP layer routes to. Database and Metrics may
// be nil.
type Deps struct {
	Database  HealthChecker
	Accounts  account.Service
	Verifier  token.Verifier
	Processor checkout.Processor
	Metrics   *metrics.Metrics
}

// Server holds the dependencies for the HTTP server
type Server struct {
	cfg *config.Config

	db       HealthChecker
	verifier token.Verifier
	metrics  *metrics.Metrics

	accounts *account.Handler
	checkout *checkout.Handler
}

// New wires the handlers without starting anything.
func New(cfg *config.Config, deps Deps) *Server {
	return &Server{
		cfg:      cfg,
		db:       deps.Database,
		verifier: deps.Verifier,
		metrics:  deps.Metrics,
		accounts: account.NewHandler(deps.Accounts),
		checkout: checkout.NewHandler(deps.Processor, deps.Metrics),
	}
}

// NewServer creates and configures a new HTTP server
func NewServer(cfg *config.Config, deps Deps) *http.Server {
	appServer := New(cfg, deps)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           appServer.RegisterRoutes(),
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	slog.Info("HTTP server configured", "addr", server.Addr, "static_dir", cfg.StaticDir)
	return server
}
