// Package config loads application settings from environment variables.
// Every field carries its variable name and default in struct tags; the
// result is validated once at startup so misconfiguration fails fast.
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Import   ImportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" default:"8080"`

	// Read and write timeouts bound a whole upload, body included.
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"30m"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30m"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds the wait for running imports on shutdown.
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig selects and tunes the store.
type DatabaseConfig struct {
	// Driver is one of postgres, sqlite, memory.
	Driver string `env:"DB_DRIVER" default:"postgres"`

	// URL is the PostgreSQL connection string, required for the postgres driver.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	SQLitePath string `env:"SQLITE_PATH" default:"data/catalog.db"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// InitSchema runs the CREATE IF NOT EXISTS bootstrap on startup.
	InitSchema bool `env:"DB_INIT_SCHEMA" default:"true"`
}

// ImportConfig tunes import runs.
type ImportConfig struct {
	// MaxFileSize caps one upload in bytes (default: 4GiB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"4294967296"`

	// MaxConcurrent is how many runs may execute at once. One keeps
	// submissions in order.
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"1"`

	MaxWait          time.Duration `env:"IMPORT_MAX_WAIT" default:"30s"`
	ProgressInterval int           `env:"IMPORT_PROGRESS_INTERVAL" default:"1000"`
	Retention        time.Duration `env:"IMPORT_RETENTION" default:"1h"`

	// SpoolDir holds uploads while they are imported; empty means os.TempDir.
	SpoolDir string `env:"IMPORT_SPOOL_DIR"`
}

// RateLimitConfig holds per-IP request limits.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
	ImportsPerMinute  int  `env:"RATE_LIMIT_IMPORTS" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of CIDRs allowed to set
	// X-Forwarded-For / X-Real-IP.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	RequireAPIKey bool     `env:"REQUIRE_API_KEY" default:"false"`
	APIKeys       []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" default:"info"`
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port form.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// String returns a representation safe for logs; secrets are masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Server: {Addr: %q}, Database: {Driver: %q, URL: [MASKED], SQLitePath: %q, MaxConns: %d}, "+
			"Import: {MaxFileSize: %d, MaxConcurrent: %d}, Rate: {Enabled: %v, RequestsPerMinute: %d}, "+
			"Security: {RequireAPIKey: %v, APIKeys: %d}, Logging: {Level: %q, Format: %q}}",
		c.Server.Addr(),
		c.Database.Driver, c.Database.SQLitePath, c.Database.MaxConns,
		c.Import.MaxFileSize, c.Import.MaxConcurrent,
		c.Rate.Enabled, c.Rate.RequestsPerMinute,
		c.Security.RequireAPIKey, len(c.Security.APIKeys),
		c.Logging.Level, c.Logging.Format,
	)
}
