// Package app provides the dependency injection container assembling the
// application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	backupDomain "github.com/incomeclarity/vault/internal/backup/domain"
	backupService "github.com/incomeclarity/vault/internal/backup/service"
	backupUsecase "github.com/incomeclarity/vault/internal/backup/usecase"
	"github.com/incomeclarity/vault/internal/config"
	cryptoDomain "github.com/incomeclarity/vault/internal/crypto/domain"
	cryptoService "github.com/incomeclarity/vault/internal/crypto/service"
	"github.com/incomeclarity/vault/internal/database"
	"github.com/incomeclarity/vault/internal/dataset"
	"github.com/incomeclarity/vault/internal/metrics"
	"github.com/incomeclarity/vault/internal/scheduler"
)

// Container holds all application dependencies and provides methods to access
// them. Components are created lazily on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	txManager       database.TxManager
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Crypto services
	keyDeriver   *cryptoService.KeyDerivationService
	fieldCipher  cryptoService.FieldCipher
	passwordHash cryptoService.PasswordHasher
	messageAuth  cryptoService.MessageAuthenticator
	kmsService   cryptoService.KMSService

	// Backup components
	metadataStore *backupService.MetadataStore
	pipeline      *backupService.Pipeline
	backupUseCase backupUsecase.BackupUseCase
	datasetStore  *dataset.Store
	scheduler     *scheduler.Scheduler

	// Initialization flags and mutex for thread-safety
	mu                sync.Mutex
	loggerInit        sync.Once
	dbInit            sync.Once
	txManagerInit     sync.Once
	metricsInit       sync.Once
	bizMetricsInit    sync.Once
	keyDeriverInit    sync.Once
	fieldCipherInit   sync.Once
	passwordHashInit  sync.Once
	messageAuthInit   sync.Once
	kmsServiceInit    sync.Once
	metadataStoreInit sync.Once
	pipelineInit      sync.Once
	backupUseCaseInit sync.Once
	datasetStoreInit  sync.Once
	schedulerInit     sync.Once
	initErrors        map[string]error
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

// Logger returns the configured logger instance, created on first access
// based on the configured log level.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection for the dataset collaborator.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := database.Connect(database.Config{
			Driver:             c.config.DBDriver,
			ConnectionString:   c.config.DBConnectionString,
			MaxOpenConnections: c.config.DBMaxOpenConnections,
			MaxIdleConnections: c.config.DBMaxIdleConnections,
			ConnMaxLifetime:    c.config.DBConnMaxLifetime,
		})
		if err != nil {
			c.initErrors["db"] = fmt.Errorf("failed to connect to database: %w", err)
			return
		}
		c.db = db
	})
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["txManager"] = err
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider()
		if err != nil {
			c.initErrors["metricsProvider"] = err
			return
		}
		c.metricsProvider = provider
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. Falls back to the
// no-op implementation when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.bizMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}
		bm, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		c.businessMetrics = bm
	})
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// KMSService returns the KMS service for unwrapping the master secret.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// KeyDeriver returns the initialized key derivation service. Fails fast when
// no master secret source is configured.
func (c *Container) KeyDeriver(ctx context.Context) (*cryptoService.KeyDerivationService, error) {
	c.keyDeriverInit.Do(func() {
		secret, err := cryptoService.ResolveMasterSecret(ctx, c.KMSService(), cryptoService.MasterSecretConfig{
			EnvSecret:     c.config.MasterSecret,
			WrappedSecret: c.config.MasterSecretWrapped,
			KMSKeyURI:     c.config.KMSKeyURI,
		})
		if err != nil {
			c.initErrors["keyDeriver"] = err
			return
		}

		deriver, err := cryptoService.NewKeyDeriver(c.kdfConfig())
		if err != nil {
			c.initErrors["keyDeriver"] = err
			return
		}
		if err := deriver.Initialize(ctx, secret); err != nil {
			c.initErrors["keyDeriver"] = err
			return
		}
		c.keyDeriver = deriver
	})
	if storedErr, exists := c.initErrors["keyDeriver"]; exists {
		return nil, storedErr
	}
	return c.keyDeriver, nil
}

// FieldCipher returns the field encryption service.
func (c *Container) FieldCipher(ctx context.Context) (cryptoService.FieldCipher, error) {
	c.fieldCipherInit.Do(func() {
		deriver, err := c.KeyDeriver(ctx)
		if err != nil {
			c.initErrors["fieldCipher"] = err
			return
		}
		c.fieldCipher = cryptoService.NewFieldCipher(deriver)
	})
	if storedErr, exists := c.initErrors["fieldCipher"]; exists {
		return nil, storedErr
	}
	return c.fieldCipher, nil
}

// PasswordHasher returns the password hashing service.
func (c *Container) PasswordHasher() cryptoService.PasswordHasher {
	c.passwordHashInit.Do(func() {
		c.passwordHash = cryptoService.NewPasswordHasher(
			c.config.ScryptN,
			c.config.ScryptR,
			c.config.ScryptP,
		)
	})
	return c.passwordHash
}

// MessageAuthenticator returns the HMAC message authenticator.
func (c *Container) MessageAuthenticator() cryptoService.MessageAuthenticator {
	c.messageAuthInit.Do(func() {
		c.messageAuth = cryptoService.NewMessageAuthenticator([]byte(c.config.HMACSecret))
	})
	return c.messageAuth
}

// MetadataStore returns the backup sidecar metadata store.
func (c *Container) MetadataStore() *backupService.MetadataStore {
	c.metadataStoreInit.Do(func() {
		c.metadataStore = backupService.NewMetadataStore()
	})
	return c.metadataStore
}

// Pipeline returns the backup transform pipeline.
func (c *Container) Pipeline(ctx context.Context) (*backupService.Pipeline, error) {
	c.pipelineInit.Do(func() {
		cipher, err := c.FieldCipher(ctx)
		if err != nil {
			c.initErrors["pipeline"] = err
			return
		}
		c.pipeline = backupService.NewPipeline(
			cipher,
			c.MetadataStore(),
			backupService.PipelineConfig{
				BackupDir:        c.config.BackupDir,
				Password:         c.config.BackupPassword,
				CompressionLevel: c.config.CompressionLevel,
			},
			c.Logger(),
		)
	})
	if storedErr, exists := c.initErrors["pipeline"]; exists {
		return nil, storedErr
	}
	return c.pipeline, nil
}

// DatasetStore returns the data-access collaborator over the application tables.
func (c *Container) DatasetStore() (*dataset.Store, error) {
	c.datasetStoreInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["datasetStore"] = err
			return
		}
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["datasetStore"] = err
			return
		}
		c.datasetStore = dataset.NewStore(db, txManager, c.config.DBDriver, c.config.DatasetTables, c.Logger())
	})
	if storedErr, exists := c.initErrors["datasetStore"]; exists {
		return nil, storedErr
	}
	return c.datasetStore, nil
}

// BackupUseCase returns the backup use case, decorated with metrics recording.
func (c *Container) BackupUseCase(ctx context.Context) (backupUsecase.BackupUseCase, error) {
	c.backupUseCaseInit.Do(func() {
		store, err := c.DatasetStore()
		if err != nil {
			c.initErrors["backupUseCase"] = err
			return
		}
		pipeline, err := c.Pipeline(ctx)
		if err != nil {
			c.initErrors["backupUseCase"] = err
			return
		}
		bm, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["backupUseCase"] = err
			return
		}

		useCase := backupUsecase.NewBackupUseCase(store, store, pipeline, c.MetadataStore(), c.config.BackupDir)
		c.backupUseCase = backupUsecase.NewBackupUseCaseWithMetrics(useCase, bm)
	})
	if storedErr, exists := c.initErrors["backupUseCase"]; exists {
		return nil, storedErr
	}
	return c.backupUseCase, nil
}

// Scheduler returns the periodic backup scheduler.
func (c *Container) Scheduler(ctx context.Context) (*scheduler.Scheduler, error) {
	c.schedulerInit.Do(func() {
		useCase, err := c.BackupUseCase(ctx)
		if err != nil {
			c.initErrors["scheduler"] = err
			return
		}

		var handler http.Handler
		addr := ""
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["scheduler"] = err
			return
		}
		if provider != nil {
			handler = provider.Handler()
			addr = fmt.Sprintf(":%d", c.config.MetricsPort)
		}

		c.scheduler = scheduler.New(scheduler.Config{
			Interval:  c.config.SchedulerInterval,
			Retention: c.config.SchedulerRetention,
			Options: backupDomain.CreateOptions{
				Compress: c.config.BackupCompress,
				Encrypt:  c.config.BackupEncrypt,
			},
			MetricsAddr: addr,
		}, useCase, handler, c.Logger())
	})
	if storedErr, exists := c.initErrors["scheduler"]; exists {
		return nil, storedErr
	}
	return c.scheduler, nil
}

// Shutdown performs cleanup of all initialized resources: zeroizes key
// material, flushes metrics and closes the database connection.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.keyDeriver != nil {
		c.keyDeriver.Close()
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
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

// kdfConfig maps configuration onto key derivation parameters.
func (c *Container) kdfConfig() cryptoService.KDFConfig {
	return cryptoService.KDFConfig{
		Algorithm:        cryptoDomain.KDFAlgorithm(c.config.KDFAlgorithm),
		ScryptN:          c.config.ScryptN,
		ScryptR:          c.config.ScryptR,
		ScryptP:          c.config.ScryptP,
		PBKDF2Iterations: c.config.PBKDF2Iterations,
		AppSaltSeed:      c.config.AppSaltSeed,
		CacheSize:        c.config.KeyCacheSize,
	}
}
