// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
	validation "github.com/jellydator/validation"

	appvalidation "github.com/incomeclarity/vault/internal/validation"
)

// Config holds all application configuration.
type Config struct {
	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// MasterSecret is the plaintext master secret used to derive the master key.
	// Leave empty when MasterSecretWrapped is used instead.
	MasterSecret string
	// MasterSecretWrapped is a base64-encoded, KMS-encrypted master secret.
	// Requires KMSKeyURI to be set.
	MasterSecretWrapped string
	// KMSKeyURI is the gocloud.dev secrets URI used to unwrap MasterSecretWrapped.
	KMSKeyURI string
	// AppSaltSeed is the string hashed into the application salt for master key stretching.
	AppSaltSeed string
	// HMACSecret is the secret used by the message authenticator when no explicit key is given.
	HMACSecret string

	// KDFAlgorithm selects the key-stretching function ("scrypt" or "pbkdf2-sha256").
	KDFAlgorithm string
	// ScryptN, ScryptR and ScryptP are the scrypt cost parameters.
	ScryptN int
	ScryptR int
	ScryptP int
	// PBKDF2Iterations is the iteration count for pbkdf2-sha256.
	PBKDF2Iterations int
	// KeyCacheSize bounds the derived-key cache (entries, LRU eviction).
	KeyCacheSize int

	// BackupDir is the directory where backup blobs and sidecar metadata are written.
	BackupDir string
	// BackupPassword is the default password for encrypted backups.
	BackupPassword string
	// BackupCompress enables the compression stage by default.
	BackupCompress bool
	// BackupEncrypt enables the encryption stage by default.
	BackupEncrypt bool
	// CompressionLevel is the gzip level used when compression is enabled (1-9).
	CompressionLevel int

	// SchedulerInterval is the period between automatic backups.
	SchedulerInterval time.Duration
	// SchedulerRetention is how many backups the scheduler keeps when pruning (0 disables pruning).
	SchedulerRetention int

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsPort is the port number for the scheduler metrics endpoint.
	MetricsPort int

	// DBDriver is the database driver for the dataset collaborator ("postgres" or "mysql").
	DBDriver string
	// DBConnectionString is the connection string for the application database.
	DBConnectionString string
	// DBMaxOpenConnections is the maximum number of open connections to the database.
	DBMaxOpenConnections int
	// DBMaxIdleConnections is the maximum number of idle connections in the database pool.
	DBMaxIdleConnections int
	// DBConnMaxLifetime is the maximum amount of time a connection may be reused.
	DBConnMaxLifetime time.Duration
	// DatasetTables is the list of tables included in backups.
	DatasetTables []string
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Secrets
		MasterSecret:        env.GetString("VAULT_MASTER_SECRET", ""),
		MasterSecretWrapped: env.GetString("VAULT_MASTER_SECRET_WRAPPED", ""),
		KMSKeyURI:           env.GetString("KMS_KEY_URI", ""),
		AppSaltSeed:         env.GetString("VAULT_APP_SALT_SEED", "income-clarity-salt"),
		HMACSecret:          env.GetString("VAULT_HMAC_SECRET", ""),

		// Key derivation
		KDFAlgorithm:     env.GetString("VAULT_KDF_ALGORITHM", "scrypt"),
		ScryptN:          env.GetInt("VAULT_SCRYPT_N", 32768),
		ScryptR:          env.GetInt("VAULT_SCRYPT_R", 8),
		ScryptP:          env.GetInt("VAULT_SCRYPT_P", 1),
		PBKDF2Iterations: env.GetInt("VAULT_PBKDF2_ITERATIONS", 600000),
		KeyCacheSize:     env.GetInt("VAULT_KEY_CACHE_SIZE", 128),

		// Backups
		BackupDir:        env.GetString("BACKUP_DIR", "./backups"),
		BackupPassword:   env.GetString("BACKUP_PASSWORD", ""),
		BackupCompress:   env.GetBool("BACKUP_COMPRESS", true),
		BackupEncrypt:    env.GetBool("BACKUP_ENCRYPT", true),
		CompressionLevel: env.GetInt("BACKUP_COMPRESSION_LEVEL", 6),

		// Scheduler
		SchedulerInterval:  env.GetDuration("BACKUP_INTERVAL_MINUTES", 1440, time.Minute),
		SchedulerRetention: env.GetInt("BACKUP_RETENTION", 14),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "vault"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),

		// Database (dataset collaborator)
		DBDriver:             env.GetString("DB_DRIVER", "postgres"),
		DBConnectionString:   env.GetString("DB_CONNECTION_STRING", ""),
		DBMaxOpenConnections: env.GetInt("DB_MAX_OPEN_CONNECTIONS", 10),
		DBMaxIdleConnections: env.GetInt("DB_MAX_IDLE_CONNECTIONS", 2),
		DBConnMaxLifetime:    env.GetDuration("DB_CONN_MAX_LIFETIME", 5, time.Minute),
		DatasetTables:        splitList(env.GetString("DATASET_TABLES", "users,incomes,expenses,settings")),
	}
}

// Validate checks that the loaded configuration is internally consistent.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.KDFAlgorithm, validation.Required, validation.In("scrypt", "pbkdf2-sha256")),
		validation.Field(&c.ScryptN, validation.Min(1024)),
		validation.Field(&c.ScryptR, validation.Min(1)),
		validation.Field(&c.ScryptP, validation.Min(1)),
		validation.Field(&c.PBKDF2Iterations, validation.Min(100000)),
		validation.Field(&c.KeyCacheSize, validation.Min(1)),
		validation.Field(&c.BackupDir, validation.Required),
		validation.Field(&c.CompressionLevel, validation.Min(1), validation.Max(9)),
		validation.Field(&c.MasterSecretWrapped, appvalidation.Base64),
	)
	return appvalidation.WrapValidationError(err)
}

// splitList parses a comma-separated environment value into a trimmed slice.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	// Get current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	// Search for .env file recursively up the directory tree
	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			// .env file found, load it
			_ = godotenv.Load(envPath)
			return
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}
}
