// Package http provides the broker HTTP server, its middleware stack and the
// companion metrics server.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	brokerHTTP "github.com/tokenward/tokenward/internal/broker/http"
	"github.com/tokenward/tokenward/internal/metrics"
)

// RouterConfig groups the optional pieces of the router setup.
type RouterConfig struct {
	// MetricsProvider enables HTTP middleware metrics when non-nil.
	MetricsProvider *metrics.Provider
	// MetricsNamespace is the namespace used by the HTTP metrics middleware.
	MetricsNamespace string
	// CORSEnabled turns on CORS handling for the configured origins.
	CORSEnabled bool
	// CORSAllowOrigins is a comma-separated list of allowed origins.
	CORSAllowOrigins string
	// RateLimitEnabled turns on per-IP rate limiting for the presign endpoint.
	RateLimitEnabled bool
	// RateLimitRequestsPerSec is the sustained per-IP request rate.
	RateLimitRequestsPerSec float64
	// RateLimitBurst is the per-IP burst size.
	RateLimitBurst int
}

// Server represents the broker HTTP server.
type Server struct {
	server *http.Server
	router *gin.Engine
	db     *sql.DB
	logger *slog.Logger
}

// NewServer creates a new HTTP server. A nil database handle means the server
// runs on in-memory backends and has no database to ping.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter builds the gin engine with the full middleware stack and mounts
// the broker endpoints.
func (s *Server) SetupRouter(brokerHandler *brokerHTTP.BrokerHandler, cfg RouterConfig) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if cfg.MetricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(cfg.MetricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")
	{
		presign := v1.Group("")
		if cfg.RateLimitEnabled {
			presign.Use(RateLimitMiddleware(cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
		}
		presign.POST("/presign", brokerHandler.PresignHandler)

		v1.GET("/status/*resource", brokerHandler.StatusHandler)
	}

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the server can serve traffic. The registry
// database is the only pinged dependency; the ledger and storage are checked
// per-request because their availability is allowed to fluctuate.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{}

	ready := true
	switch {
	case s.db == nil:
		// Memory mode runs without a registry database.
		components["database"] = "not_configured"
	case s.db.PingContext(c.Request.Context()) != nil:
		components["database"] = "error"
		ready = false
	default:
		components["database"] = "ok"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": components,
	})
}
