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

	auditHttp "github.com/allisson/vaultcore/internal/audit/http"
	identityUseCase "github.com/allisson/vaultcore/internal/identity/usecase"
	appMetrics "github.com/allisson/vaultcore/internal/metrics"
	rotationHttp "github.com/allisson/vaultcore/internal/rotation/http"
	sharingHttp "github.com/allisson/vaultcore/internal/sharing/http"
	vaultHttp "github.com/allisson/vaultcore/internal/vault/http"

	identityHttp "github.com/allisson/vaultcore/internal/identity/http"
)

// ServerConfig holds the API server settings.
type ServerConfig struct {
	Host             string
	Port             int
	CORSEnabled      bool
	CORSAllowOrigins string
	RateLimitRPS     float64
	RateLimitBurst   int
	MetricsNamespace string
}

// Server is the API HTTP server. All /v1 routes require API key
// authentication and are rate limited per user.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer creates the API server and mounts all routes.
// meterProvider may be nil, in which case no HTTP metrics are recorded.
func NewServer(
	cfg ServerConfig,
	logger *slog.Logger,
	userUseCase identityUseCase.UseCase,
	vaultHandler *vaultHttp.VaultItemHandler,
	shareHandler *sharingHttp.ShareHandler,
	rotationHandler *rotationHttp.RotationHandler,
	auditHandler *auditHttp.AuditLogHandler,
	meterProvider metric.MeterProvider,
) *Server {
	router := gin.New()
	router.Use(requestid.New())
	router.Use(RecoveryMiddleware(logger))
	router.Use(CustomLoggerMiddleware(logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if meterProvider != nil {
		router.Use(appMetrics.HTTPMetricsMiddleware(meterProvider, cfg.MetricsNamespace))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	v1 := router.Group("/v1")
	v1.Use(identityHttp.AuthenticationMiddleware(userUseCase, logger))
	if cfg.RateLimitRPS > 0 {
		v1.Use(identityHttp.RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
	}

	v1.POST("/items", vaultHandler.CreateHandler)
	v1.GET("/items", vaultHandler.ListHandler)
	v1.GET("/items/shared", vaultHandler.ListSharedHandler)
	v1.GET("/items/:id", vaultHandler.GetHandler)
	v1.PATCH("/items/:id", vaultHandler.UpdateMetadataHandler)
	v1.PUT("/items/:id/value", vaultHandler.UpdateValueHandler)
	v1.DELETE("/items/:id", vaultHandler.DeleteHandler)

	v1.POST("/items/:id/share", shareHandler.ShareHandler)
	v1.DELETE("/items/:id/share", shareHandler.RevokeHandler)
	v1.GET("/items/:id/grants", shareHandler.ListGrantsHandler)

	v1.POST("/items/:id/rotate", rotationHandler.RotateHandler)
	v1.GET("/items/:id/rotations", rotationHandler.HistoryHandler)

	v1.GET("/audit", auditHandler.QueryHandler)

	v1.DELETE("/me", vaultHandler.PurgeMeHandler)

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
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
