package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir switches to dir for the duration of the test so Load() sees its
// config.yaml.
func chdir(t *testing.T, dir string) {
	t.Helper()
	originalDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(originalDir)
	})
}

// clearEnv unsets every variable Config reads so host settings cannot leak
// into a test. t.Setenv restores the original values afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENVIRONMENT", "MCP_TRANSPORT", "BIND_ADDR", "PORT", "LOG_LEVEL",
		"TLS_CERT_PATH", "TLS_KEY_PATH",
		"DATABASE_PATH", "QUERY_TIMEOUT", "SQLITE_BUSY_TIMEOUT",
		"DEFAULT_LIMIT", "MAX_ROWS", "PREVIEW_LIMIT",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := Load("test-version")
	require.NoError(t, err)

	assert.Equal(t, "test-version", cfg.Version)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, TransportStdio, cfg.Transport)
	assert.Equal(t, "127.0.0.1:3443", cfg.Addr())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "", cfg.Database.Path)
	assert.Equal(t, 30*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, 5*time.Second, cfg.Database.BusyTimeout)
	assert.Equal(t, 50, cfg.Query.DefaultLimit)
	assert.Equal(t, 1000, cfg.Query.MaxRows)
	assert.Equal(t, 10, cfg.Query.PreviewLimit)
	assert.False(t, cfg.TLSEnabled())
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `
port: "3443"
env: "test"
transport: "http"
database:
  path: "/data/shop.db"
  query_timeout: "10s"
query:
  max_rows: 500
`)
	chdir(t, tmpDir)

	t.Setenv("PORT", "4443")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DEFAULT_LIMIT", "25")

	cfg, err := Load("test-version")
	require.NoError(t, err)

	// Env overrides YAML
	assert.Equal(t, "4443", cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, 25, cfg.Query.DefaultLimit)

	// YAML values are read
	assert.Equal(t, TransportHTTP, cfg.Transport)
	assert.Equal(t, "/data/shop.db", cfg.Database.Path)
	assert.Equal(t, 10*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, 500, cfg.Query.MaxRows)
}

func TestLoad_EnvOnly(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	t.Setenv("DATABASE_PATH", "/tmp/app.db")
	t.Setenv("SQLITE_BUSY_TIMEOUT", "250ms")
	t.Setenv("MCP_TRANSPORT", "http")

	cfg, err := Load("v")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/app.db", cfg.Database.Path)
	assert.Equal(t, 250*time.Millisecond, cfg.Database.BusyTimeout)
	assert.Equal(t, TransportHTTP, cfg.Transport)
}

func TestLoadFile_Missing(t *testing.T) {
	clearEnv(t)
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"), "v")
	assert.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "unknown transport", env: map[string]string{"MCP_TRANSPORT": "grpc"}, wantErr: "transport"},
		{name: "zero timeout", env: map[string]string{"QUERY_TIMEOUT": "0s"}, wantErr: "query_timeout"},
		{name: "negative max rows", env: map[string]string{"MAX_ROWS": "-1"}, wantErr: "must be positive"},
		{name: "default above max", env: map[string]string{"DEFAULT_LIMIT": "200", "MAX_ROWS": "100"}, wantErr: "default_limit (200)"},
		{name: "preview above max", env: map[string]string{"PREVIEW_LIMIT": "20", "MAX_ROWS": "10", "DEFAULT_LIMIT": "5"}, wantErr: "preview_limit (20)"},
		{name: "cert without key", env: map[string]string{"TLS_CERT_PATH": "/tmp/cert.pem"}, wantErr: "provided together"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			chdir(t, t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load("v")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateTLS_BothProvided(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	certPath := filepath.Join(tmpDir, "test-cert.pem")
	keyPath := filepath.Join(tmpDir, "test-key.pem")

	require.NoError(t, os.WriteFile(certPath, []byte("fake-cert-content"), 0o644))
	require.NoError(t, os.WriteFile(keyPath, []byte("fake-key-content"), 0o644))

	writeConfig(t, tmpDir, fmt.Sprintf(`
transport: "http"
tls_cert_path: "%s"
tls_key_path: "%s"
`, certPath, keyPath))
	chdir(t, tmpDir)

	cfg, err := Load("test-version")
	require.NoError(t, err)
	assert.Equal(t, certPath, cfg.TLSCertPath)
	assert.Equal(t, keyPath, cfg.TLSKeyPath)
	assert.True(t, cfg.TLSEnabled())
}

func TestValidateTLS_CertFileNotFound(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	keyPath := filepath.Join(tmpDir, "test-key.pem")
	require.NoError(t, os.WriteFile(keyPath, []byte("fake-key-content"), 0o644))

	path := writeConfig(t, tmpDir, fmt.Sprintf(`
tls_cert_path: "%s"
tls_key_path: "%s"
`, filepath.Join(tmpDir, "missing.pem"), keyPath))

	_, err := LoadFile(path, "v")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "TLS cert file does not exist"), "got %v", err)
}
