package sqlite

import (
	"fmt"
	"strings"
	"time"

	"github.com/ekaya-inc/sqlite-mcp/pkg/adapters/datasource"
)

// Config holds SQLite connection configuration.
type Config struct {
	Path        string
	BusyTimeout time.Duration
}

// FromConnectionConfig converts the registry's connection config.
func FromConnectionConfig(cfg datasource.ConnectionConfig) (*Config, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("database path is required")
	}
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = datasource.DefaultBusyTimeout
	}
	return &Config{Path: cfg.Path, BusyTimeout: busy}, nil
}

// uriEscaper escapes the characters that carry meaning in a SQLite URI
// filename.
var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// buildDSN returns a URI filename that opens the database read-only.
// The "file:" prefix is required: without it the driver strips the query
// string and mode=ro would be silently ignored, creating missing files.
// query_only is set as well so that even a statement that slipped past
// validation cannot write.
func buildDSN(cfg *Config) string {
	return fmt.Sprintf(
		"file:%s?mode=ro&_pragma=busy_timeout(%d)&_pragma=query_only(1)",
		uriEscaper.Replace(cfg.Path),
		cfg.BusyTimeout.Milliseconds(),
	)
}
