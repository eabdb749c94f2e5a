// Package http assembles the API server: routing, middleware, and lifecycle.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"

	catalogHTTP "github.com/allisson/playbook/internal/catalog/http"
	"github.com/allisson/playbook/internal/metrics"
	registrationHTTP "github.com/allisson/playbook/internal/registration/http"
)

// RouterConfig carries the handlers and middleware settings for the API router.
type RouterConfig struct {
	CatalogHandler      *catalogHTTP.CatalogHandler
	RegistrationHandler *registrationHTTP.RegistrationHandler
	Logger              *slog.Logger
	MeterProvider       metric.MeterProvider
	MetricsNamespace    string

	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int

	CORSEnabled      bool
	CORSAllowOrigins string
}

// NewRouter builds the gin engine with all API routes and middleware.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New())
	router.Use(CustomLoggerMiddleware(cfg.Logger))

	if cfg.MeterProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(cfg.MeterProvider, cfg.MetricsNamespace))
	}
	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, cfg.Logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}
	if cfg.RateLimitEnabled {
		router.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.Logger))
	}

	router.GET("/health", HealthHandler)
	router.GET("/ready", ReadinessHandler)

	v1 := router.Group("/v1")
	{
		v1.GET("/programs", cfg.CatalogHandler.ListProgramsHandler)
		v1.GET("/programs/:id", cfg.CatalogHandler.GetProgramHandler)
		v1.GET("/programs/:id/sessions", cfg.CatalogHandler.ListProgramSessionsHandler)
		v1.GET("/sessions/:id/availability", cfg.CatalogHandler.GetAvailabilityHandler)

		v1.POST("/registrations", cfg.RegistrationHandler.CreateHandler)
		v1.GET("/registrations/:id", cfg.RegistrationHandler.GetHandler)
		v1.POST("/registrations/:id/cancel", cfg.RegistrationHandler.CancelHandler)
		v1.POST("/registrations/:id/payments", cfg.RegistrationHandler.PayHandler)
	}

	return router
}

// Server represents the API HTTP server
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer creates a new HTTP server around the given router.
func NewServer(host string, port int, router *gin.Engine, logger *slog.Logger) *Server {
	return &Server{
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start(ctx context.Context) error {
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

// GetHandler returns the underlying HTTP handler, used by integration tests.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// HealthHandler reports process liveness.
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// ReadinessHandler reports readiness to take traffic.
func ReadinessHandler(c *gin.Context) {
	select {
	case <-c.Request.Context().Done():
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
