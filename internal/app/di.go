// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/tokenward/tokenward/internal/config"
	"github.com/tokenward/tokenward/internal/database"
	"github.com/tokenward/tokenward/internal/events"
	"github.com/tokenward/tokenward/internal/http"
	"github.com/tokenward/tokenward/internal/ledger"
	"github.com/tokenward/tokenward/internal/metrics"
	"github.com/tokenward/tokenward/internal/signer"
	"github.com/tokenward/tokenward/internal/storage"
)

// delegateModuleSeed derives the delegate module's address. The module is an
// in-process component, not a deployed contract, so its address only has to be
// stable and non-colliding.
const delegateModuleSeed = "tokenward/delegate-module/v1"

// DelegateModuleAddress is the address delegate installations are recorded under.
var DelegateModuleAddress = common.BytesToAddress(crypto.Keccak256([]byte(delegateModuleSeed))[12:])

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger *slog.Logger
	db     *sql.DB

	// Managers
	txManager database.TxManager

	// Shared services
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics
	publisher       events.Publisher
	tokenLedger     ledger.Ledger
	presigner       *storage.BlobPresigner

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	txManagerInit       sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	publisherInit       sync.Once
	ledgerInit          sync.Once
	presignerInit       sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once

	// Per-module initialization state lives in di_registry.go, di_account.go
	// and di_broker.go.
	moduleState

	initErrors map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
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
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection. Returns nil without error when the
// configured driver is "memory".
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		if c.config.DBDriver == "memory" {
			return
		}
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

// TxManager returns the transaction manager. The memory driver gets a
// passthrough manager.
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

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
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

// EventPublisher returns the lifecycle event publisher. A no-op publisher is
// returned when events are disabled.
func (c *Container) EventPublisher() (events.Publisher, error) {
	var err error
	c.publisherInit.Do(func() {
		c.publisher, err = c.initEventPublisher()
		if err != nil {
			c.initErrors["publisher"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["publisher"]; exists {
		return nil, storedErr
	}
	return c.publisher, nil
}

// Ledger returns the identity ledger. An in-memory ledger is used when no
// contract address is configured.
func (c *Container) Ledger() (ledger.Ledger, error) {
	var err error
	c.ledgerInit.Do(func() {
		c.tokenLedger, err = c.initLedger()
		if err != nil {
			c.initErrors["ledger"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["ledger"]; exists {
		return nil, storedErr
	}
	return c.tokenLedger, nil
}

// Presigner returns the storage presigner.
func (c *Container) Presigner() (*storage.BlobPresigner, error) {
	var err error
	c.presignerInit.Do(func() {
		c.presigner, err = c.initPresigner()
		if err != nil {
			c.initErrors["presigner"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["presigner"]; exists {
		return nil, storedErr
	}
	return c.presigner, nil
}

// HTTPServer returns the HTTP server instance.
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

// MetricsServer returns the metrics server instance, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// AuthorityAddress returns the address the registry acts as when driving
// delegate modules. Zero when no authority key is configured.
func (c *Container) AuthorityAddress() common.Address {
	if c.config.AuthorityKey == "" {
		return common.Address{}
	}
	key, err := signer.ParseKey(c.config.AuthorityKey)
	if err != nil {
		return common.Address{}
	}
	return signer.AddressOf(key)
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	// Shutdown HTTP server if initialized
	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	// Shutdown metrics server and provider if initialized
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

	// Close the storage bucket if opened
	if c.presigner != nil {
		if err := c.presigner.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("storage close: %w", err))
		}
	}

	// Close database connection if initialized
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	// Return combined errors if any occurred
	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
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
	if c.config.DBDriver == "memory" {
		return database.NewNoopTxManager(), nil
	}

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
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}
	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}
	return metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
}

// initEventPublisher creates the lifecycle event publisher.
func (c *Container) initEventPublisher() (events.Publisher, error) {
	if !c.config.EventsEnabled {
		return events.NewNoopPublisher(), nil
	}

	publisher, err := events.NewRedisPublisher(c.config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}
	return publisher, nil
}

// initLedger creates the identity ledger.
func (c *Container) initLedger() (ledger.Ledger, error) {
	if c.config.LedgerContract == "" {
		c.Logger().Warn("no ledger contract configured, using in-memory ledger")
		return ledger.NewMemoryLedger(), nil
	}

	contract := common.HexToAddress(c.config.LedgerContract)
	tokenLedger, err := ledger.Dial(context.Background(), c.config.LedgerRPCURL, contract, c.config.LedgerTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to dial ledger: %w", err)
	}
	return tokenLedger, nil
}

// initPresigner opens the storage bucket used for presigned URLs.
func (c *Container) initPresigner() (*storage.BlobPresigner, error) {
	if c.config.StorageBucketURL == "" {
		return nil, fmt.Errorf("STORAGE_BUCKET_URL is required")
	}

	presigner, err := storage.Open(context.Background(), c.config.StorageBucketURL, c.config.StorageTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage bucket: %w", err)
	}
	return presigner, nil
}

// initHTTPServer creates the HTTP server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	brokerHandler, err := c.BrokerHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get broker handler for http server: %w", err)
	}

	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger)
	server.SetupRouter(brokerHandler, http.RouterConfig{
		MetricsProvider:         metricsProvider,
		MetricsNamespace:        c.config.MetricsNamespace,
		CORSEnabled:             c.config.CORSEnabled,
		CORSAllowOrigins:        c.config.CORSAllowOrigins,
		RateLimitEnabled:        c.config.RateLimitEnabled,
		RateLimitRequestsPerSec: c.config.RateLimitRequestsPerSec,
		RateLimitBurst:          c.config.RateLimitBurst,
	})

	return server, nil
}

// initMetricsServer creates the metrics server.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}

	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}
