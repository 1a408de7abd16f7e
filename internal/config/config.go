// Package config loads the payables service configuration.
//
// Values come from environment variables, optionally layered over a TOML file
// named by CONFIG_FILE. Environment variables always win over the file, and
// the file wins over the built-in defaults. Everything is validated on startup
// so a misconfigured service fails fast.
package config

import (
	"strconv"
	"time"
)

// Supported storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig    `toml:"server"`
	Database DatabaseConfig  `toml:"database"`
	Upload   UploadConfig    `toml:"upload"`
	Rate     RateLimitConfig `toml:"rate"`
	Security SecurityConfig  `toml:"security"`
	Logging  LoggingConfig   `toml:"logging"`
	Events   EventsConfig    `toml:"events"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host" env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `toml:"port" env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `toml:"read_timeout" env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `toml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout  time.Duration `toml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including running imports.
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout applies to every request except uploads.
	RequestTimeout time.Duration `toml:"request_timeout" env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig selects and tunes the repository.
type DatabaseConfig struct {
	// Driver is postgres, sqlite or memory (default: postgres)
	Driver string `toml:"driver" env:"DB_DRIVER" default:"postgres"`

	// URL is the PostgreSQL connection string or the SQLite file path.
	// Supports both DATABASE_URL and DB_URL env vars.
	URL string `toml:"url" env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `toml:"max_conns" env:"DB_MAX_CONNS" default:"20"`
	MinConns        int           `toml:"min_conns" env:"DB_MIN_CONNS" default:"4"`
	MaxConnLifetime time.Duration `toml:"max_conn_lifetime" env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `toml:"max_conn_idle_time" env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// AutoMigrate applies pending schema migrations on startup (default: true)
	AutoMigrate bool `toml:"auto_migrate" env:"DB_AUTO_MIGRATE" default:"true"`
}

// UploadConfig holds CSV import settings.
type UploadConfig struct {
	// MaxFileSize is the maximum accepted file size in bytes (default: 10MB)
	MaxFileSize int64 `toml:"max_file_size" env:"UPLOAD_MAX_FILE_SIZE" default:"10485760"`

	// MaxConcurrent is the maximum number of parallel imports (default: 5)
	MaxConcurrent int `toml:"max_concurrent" env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long an import waits for a free slot (default: 30s)
	MaxWaitTime time.Duration `toml:"max_wait_time" env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// Timeout bounds a single import request (default: 5m)
	Timeout time.Duration `toml:"timeout" env:"UPLOAD_TIMEOUT" default:"5m"`

	// ValidateOnImport applies record validation to imported rows (default: false)
	ValidateOnImport bool `toml:"validate_on_import" env:"UPLOAD_VALIDATE_ON_IMPORT" default:"false"`
}

// RateLimitConfig holds per-IP rate limits.
type RateLimitConfig struct {
	Enabled           bool `toml:"enabled" env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `toml:"requests_per_minute" env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for the upload endpoint (default: 10)
	UploadLimit int `toml:"upload_limit" env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds authentication and proxy settings.
type SecurityConfig struct {
	// RequireAPIKey enables API key authentication (default: true)
	RequireAPIKey bool `toml:"require_api_key" env:"REQUIRE_API_KEY" default:"true"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `toml:"api_keys" env:"API_KEYS"`

	// TrustedProxies is a comma-separated list of proxy CIDRs allowed to set X-Forwarded-For
	TrustedProxies []string `toml:"trusted_proxies" env:"TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is debug, info, warn or error (default: info)
	Level string `toml:"level" env:"LOG_LEVEL" default:"info"`

	// Format is text or json (default: text)
	Format string `toml:"format" env:"LOG_FORMAT" default:"text"`
}

// EventsConfig configures domain event publishing to Kafka.
type EventsConfig struct {
	Enabled      bool          `toml:"enabled" env:"EVENTS_ENABLED" default:"false"`
	Brokers      []string      `toml:"brokers" env:"KAFKA_BROKERS"`
	Topic        string        `toml:"topic" env:"KAFKA_TOPIC" default:"payables.events"`
	WriteTimeout time.Duration `toml:"write_timeout" env:"KAFKA_WRITE_TIMEOUT" default:"10s"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
