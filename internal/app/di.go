// Package app provides the dependency injection container assembling the
// vault's components. It follows lazy initialization: each component is
// created on first access and cached for the process lifetime.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	otelMetric "go.opentelemetry.io/otel/metric"

	auditHttp "github.com/allisson/vaultcore/internal/audit/http"
	auditRepository "github.com/allisson/vaultcore/internal/audit/repository/postgresql"
	auditUsecase "github.com/allisson/vaultcore/internal/audit/usecase"
	"github.com/allisson/vaultcore/internal/blockchain"
	"github.com/allisson/vaultcore/internal/config"
	cryptoDomain "github.com/allisson/vaultcore/internal/crypto/domain"
	cryptoService "github.com/allisson/vaultcore/internal/crypto/service"
	cryptoUsecase "github.com/allisson/vaultcore/internal/crypto/usecase"
	"github.com/allisson/vaultcore/internal/database"
	"github.com/allisson/vaultcore/internal/http"
	identityRepository "github.com/allisson/vaultcore/internal/identity/repository/postgresql"
	identityService "github.com/allisson/vaultcore/internal/identity/service"
	identityUsecase "github.com/allisson/vaultcore/internal/identity/usecase"
	"github.com/allisson/vaultcore/internal/metrics"
	outboxRepository "github.com/allisson/vaultcore/internal/outbox/repository"
	outboxUsecase "github.com/allisson/vaultcore/internal/outbox/usecase"
	rotationHttp "github.com/allisson/vaultcore/internal/rotation/http"
	rotationRepository "github.com/allisson/vaultcore/internal/rotation/repository/postgresql"
	rotationUsecase "github.com/allisson/vaultcore/internal/rotation/usecase"
	sharingHttp "github.com/allisson/vaultcore/internal/sharing/http"
	sharingRepository "github.com/allisson/vaultcore/internal/sharing/repository/postgresql"
	sharingUsecase "github.com/allisson/vaultcore/internal/sharing/usecase"
	vaultHttp "github.com/allisson/vaultcore/internal/vault/http"
	vaultRepository "github.com/allisson/vaultcore/internal/vault/repository/postgresql"
	vaultUsecase "github.com/allisson/vaultcore/internal/vault/usecase"
)

// Container holds all application dependencies and provides methods to
// access them.
type Container struct {
	config *config.Config

	// Infrastructure
	logger    *slog.Logger
	db        *sql.DB
	txManager database.TxManager

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Crypto
	kmsService     cryptoService.KMSService
	masterKeyChain *cryptoDomain.MasterKeyChain
	aeadManager    cryptoService.AEADManager
	keyManager     cryptoService.KeyManager
	kekRepository  cryptoUsecase.KekRepository
	kekUseCase     cryptoUsecase.KekUseCase
	kekChain       *cryptoDomain.KekChain
	envelope       cryptoService.Envelope
	anchorService  *blockchain.Service

	// Repositories
	vaultItemRepo      *vaultRepository.PostgreSQLVaultItemRepository
	shareGrantRepo     *sharingRepository.PostgreSQLShareGrantRepository
	auditLogRepo       *auditRepository.PostgreSQLAuditLogRepository
	rotationRecordRepo *rotationRepository.PostgreSQLRotationRecordRepository
	outboxRepo         *outboxRepository.PostgreSQLOutboxEventRepository
	userRepo           *identityRepository.PostgreSQLUserRepository

	// Services
	apiKeyService identityService.APIKeyService

	// Use cases
	auditUseCase    auditUsecase.UseCase
	sharingUseCase  *sharingUsecase.SharingUseCase
	vaultUseCase    vaultUsecase.UseCase
	rotationUseCase rotationUsecase.UseCase
	userUseCase     identityUsecase.UseCase
	outboxUseCase   outboxUsecase.UseCase

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization guards
	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	txManagerInit       sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	kmsServiceInit      sync.Once
	masterKeyChainInit  sync.Once
	aeadManagerInit     sync.Once
	keyManagerInit      sync.Once
	kekRepositoryInit   sync.Once
	kekUseCaseInit      sync.Once
	kekChainInit        sync.Once
	envelopeInit        sync.Once
	anchorServiceInit   sync.Once
	vaultItemRepoInit   sync.Once
	shareGrantRepoInit  sync.Once
	auditLogRepoInit    sync.Once
	rotationRecordInit  sync.Once
	outboxRepoInit      sync.Once
	userRepoInit        sync.Once
	apiKeyServiceInit   sync.Once
	auditUseCaseInit    sync.Once
	sharingUseCaseInit  sync.Once
	vaultUseCaseInit    sync.Once
	rotationUseCaseInit sync.Once
	userUseCaseInit     sync.Once
	outboxUseCaseInit   sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the
// provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the Prometheus metrics provider, or nil when
// metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. A no-op recorder is
// returned when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// OutboxRepository returns the outbox event repository instance.
func (c *Container) OutboxRepository() (*outboxRepository.PostgreSQLOutboxEventRepository, error) {
	var err error
	c.outboxRepoInit.Do(func() {
		var db *sql.DB
		db, err = c.DB()
		if err != nil {
			c.initErrors["outboxRepo"] = err
			return
		}
		c.outboxRepo = outboxRepository.NewPostgreSQLOutboxEventRepository(db)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxRepo"]; exists {
		return nil, storedErr
	}
	return c.outboxRepo, nil
}

// OutboxUseCase returns the outbox use case instance.
func (c *Container) OutboxUseCase() (outboxUsecase.UseCase, error) {
	var err error
	c.outboxUseCaseInit.Do(func() {
		c.outboxUseCase, err = c.initOutboxUseCase()
		if err != nil {
			c.initErrors["outboxUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxUseCase"]; exists {
		return nil, storedErr
	}
	return c.outboxUseCase, nil
}

// HTTPServer returns the API HTTP server instance.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics HTTP server instance.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		var provider *metrics.Provider
		provider, err = c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		c.metricsServer = http.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources. Key material held
// in memory is zeroed.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if c.kekChain != nil {
		c.kekChain.Close()
	}

	if c.masterKeyChain != nil {
		c.masterKeyChain.Close()
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates a structured logger based on the configured log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	if c.config.DBDriver != "postgres" {
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}

	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initBusinessMetrics creates the business metrics recorder.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider: %w", err)
	}
	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}

	businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	return businessMetrics, nil
}

// initOutboxUseCase creates the outbox use case with all its dependencies.
func (c *Container) initOutboxUseCase() (outboxUsecase.UseCase, error) {
	logger := c.Logger()

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for outbox use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for outbox use case: %w", err)
	}

	useCaseConfig := outboxUsecase.Config{
		Interval:   c.config.OutboxInterval,
		BatchSize:  c.config.OutboxBatchSize,
		MaxRetries: c.config.OutboxMaxRetries,
	}

	eventProcessor := outboxUsecase.NewLogEventProcessor(logger)
	return outboxUsecase.NewOutboxUseCase(useCaseConfig, txManager, outboxRepo, eventProcessor, logger), nil
}

// initHTTPServer creates the API HTTP server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	userUseCase, err := c.UserUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get user use case for http server: %w", err)
	}

	vaultHandler, err := c.VaultItemHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get vault item handler for http server: %w", err)
	}

	shareHandler, err := c.ShareHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get share handler for http server: %w", err)
	}

	rotationHandler, err := c.RotationHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get rotation handler for http server: %w", err)
	}

	auditHandler, err := c.AuditLogHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log handler for http server: %w", err)
	}

	serverConfig := http.ServerConfig{
		Host:             c.config.ServerHost,
		Port:             c.config.ServerPort,
		CORSEnabled:      c.config.CORSEnabled,
		CORSAllowOrigins: c.config.CORSAllowOrigins,
		MetricsNamespace: c.config.MetricsNamespace,
	}
	if c.config.RateLimitEnabled {
		serverConfig.RateLimitRPS = c.config.RateLimitRequestsPerSec
		serverConfig.RateLimitBurst = c.config.RateLimitBurst
	}

	var meterProvider *metrics.Provider
	if c.config.MetricsEnabled {
		meterProvider, err = c.MetricsProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
		}
	}

	server := http.NewServer(
		serverConfig,
		logger,
		userUseCase,
		vaultHandler,
		shareHandler,
		rotationHandler,
		auditHandler,
		meterProviderOrNil(meterProvider),
	)

	return server, nil
}

// meterProviderOrNil converts an absent metrics provider into a nil
// MeterProvider interface so the HTTP server skips metrics middleware.
func meterProviderOrNil(p *metrics.Provider) otelMetric.MeterProvider {
	if p == nil {
		return nil
	}
	return p.MeterProvider()
}

// Handlers assembled here to keep initHTTPServer readable.

// VaultItemHandler returns the vault item HTTP handler.
func (c *Container) VaultItemHandler() (*vaultHttp.VaultItemHandler, error) {
	vaultUC, err := c.VaultUseCase()
	if err != nil {
		return nil, err
	}
	return vaultHttp.NewVaultItemHandler(vaultUC, c.Logger()), nil
}

// ShareHandler returns the sharing HTTP handler.
func (c *Container) ShareHandler() (*sharingHttp.ShareHandler, error) {
	sharingUC, err := c.SharingUseCase()
	if err != nil {
		return nil, err
	}
	return sharingHttp.NewShareHandler(sharingUC, c.Logger()), nil
}

// RotationHandler returns the rotation HTTP handler.
func (c *Container) RotationHandler() (*rotationHttp.RotationHandler, error) {
	rotationUC, err := c.RotationUseCase()
	if err != nil {
		return nil, err
	}
	return rotationHttp.NewRotationHandler(rotationUC, c.Logger()), nil
}

// AuditLogHandler returns the audit log HTTP handler.
func (c *Container) AuditLogHandler() (*auditHttp.AuditLogHandler, error) {
	auditUC, err := c.AuditUseCase()
	if err != nil {
		return nil, err
	}
	return auditHttp.NewAuditLogHandler(auditUC, c.Logger()), nil
}
