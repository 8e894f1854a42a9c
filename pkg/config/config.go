package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultConfigFile is read from the working directory when present.
const DefaultConfigFile = "config.yaml"

// Transport names.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config holds all configuration for sqlite-mcp.
// Configuration can come from a YAML file or environment variables.
// Environment variables always override YAML values.
type Config struct {
	// Server configuration
	Env       string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Transport string `yaml:"transport" env:"MCP_TRANSPORT" env-default:"stdio"`
	BindAddr  string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port      string `yaml:"port" env:"PORT" env-default:"3443"`
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Version   string `yaml:"-"` // Set at load time, not from config

	// TLS configuration for the HTTP transport (optional - if both provided, server uses HTTPS)
	TLSCertPath string `yaml:"tls_cert_path" env:"TLS_CERT_PATH" env-default:""`
	TLSKeyPath  string `yaml:"tls_key_path" env:"TLS_KEY_PATH" env-default:""`

	Database DatabaseConfig `yaml:"database"`
	Query    QueryConfig    `yaml:"query"`
}

// DatabaseConfig holds SQLite connection settings.
type DatabaseConfig struct {
	// Path is the default database file. Tools may override it per call.
	Path         string        `yaml:"path" env:"DATABASE_PATH" env-default:""`
	QueryTimeout time.Duration `yaml:"query_timeout" env:"QUERY_TIMEOUT" env-default:"30s"`
	BusyTimeout  time.Duration `yaml:"busy_timeout" env:"SQLITE_BUSY_TIMEOUT" env-default:"5s"`
}

// QueryConfig holds row limits.
type QueryConfig struct {
	DefaultLimit int `yaml:"default_limit" env:"DEFAULT_LIMIT" env-default:"50"`
	MaxRows      int `yaml:"max_rows" env:"MAX_ROWS" env-default:"1000"`
	PreviewLimit int `yaml:"preview_limit" env:"PREVIEW_LIMIT" env-default:"10"`
}

// Load reads config.yaml from the working directory when it exists, with
// environment variable overrides. Without the file, configuration comes from
// the environment and defaults alone.
func Load(version string) (*Config, error) {
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return LoadFile(DefaultConfigFile, version)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat %s: %w", DefaultConfigFile, err)
	}

	cfg := &Config{Version: version}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFile reads configuration from path with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func LoadFile(path, version string) (*Config, error) {
	cfg := &Config{Version: version}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks value ranges and cross-field rules.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("transport must be %q or %q, got %q", TransportStdio, TransportHTTP, c.Transport)
	}

	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("query_timeout must be positive")
	}
	if c.Database.BusyTimeout < 0 {
		return fmt.Errorf("busy_timeout must not be negative")
	}
	if c.Query.DefaultLimit <= 0 || c.Query.MaxRows <= 0 || c.Query.PreviewLimit <= 0 {
		return fmt.Errorf("default_limit, max_rows and preview_limit must be positive")
	}
	if c.Query.DefaultLimit > c.Query.MaxRows {
		return fmt.Errorf("default_limit (%d) must not exceed max_rows (%d)", c.Query.DefaultLimit, c.Query.MaxRows)
	}
	if c.Query.PreviewLimit > c.Query.MaxRows {
		return fmt.Errorf("preview_limit (%d) must not exceed max_rows (%d)", c.Query.PreviewLimit, c.Query.MaxRows)
	}

	return c.validateTLS()
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.BindAddr, c.Port)
}

// TLSEnabled reports whether the HTTP transport should serve HTTPS.
func (c *Config) TLSEnabled() bool {
	return c.TLSCertPath != "" && c.TLSKeyPath != ""
}

// validateTLS ensures TLS configuration is valid if provided.
// Both cert and key must be provided together, and files must exist.
func (c *Config) validateTLS() error {
	certSet := c.TLSCertPath != ""
	keySet := c.TLSKeyPath != ""

	if certSet != keySet {
		return fmt.Errorf("both tls_cert_path and tls_key_path must be provided together")
	}

	// Actual readability is checked by tls.LoadX509KeyPair at startup
	if certSet {
		if _, err := os.Stat(c.TLSCertPath); err != nil {
			return fmt.Errorf("TLS cert file does not exist: %w", err)
		}
		if _, err := os.Stat(c.TLSKeyPath); err != nil {
			return fmt.Errorf("TLS key file does not exist: %w", err)
		}
	}

	return nil
}
