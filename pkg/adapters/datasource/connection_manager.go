package datasource

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/sqlite-mcp/pkg/apperrors"
	"github.com/ekaya-inc/sqlite-mcp/pkg/logging"
)

const (
	DefaultAdapterType = "sqlite"
	DefaultBusyTimeout = 5 * time.Second
)

// ConnectionManagerConfig holds configuration for the connection manager.
type ConnectionManagerConfig struct {
	AdapterType string
	BusyTimeout time.Duration
}

// ConnectionManager owns the process-wide default database path and opens a
// fresh connection for every operation. No connection outlives the call that
// opened it, so concurrent operations against different files never share
// state beyond the default path.
type ConnectionManager struct {
	mu          sync.RWMutex
	defaultPath string

	adapterType string
	busyTimeout time.Duration
	factory     DatasourceAdapterFactory
	logger      *zap.Logger
}

// NewConnectionManager creates a connection manager with no default path.
func NewConnectionManager(cfg ConnectionManagerConfig, factory DatasourceAdapterFactory, logger *zap.Logger) *ConnectionManager {
	if cfg.AdapterType == "" {
		cfg.AdapterType = DefaultAdapterType
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = DefaultBusyTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if factory == nil {
		factory = NewDatasourceAdapterFactory(logger)
	}

	return &ConnectionManager{
		adapterType: cfg.AdapterType,
		busyTimeout: cfg.BusyTimeout,
		factory:     factory,
		logger:      logger.Named("connections"),
	}
}

// SetPath validates path and makes it the default for operations that do
// not supply an override. The file is opened once to prove it is a readable
// database and then closed again. On error the previous default is kept.
func (m *ConnectionManager) SetPath(ctx context.Context, path string) error {
	conn, err := m.openPath(ctx, path)
	if err != nil {
		return err
	}
	if err := conn.Close(); err != nil {
		m.logger.Warn("failed to close probe connection",
			zap.String("path", logging.SanitizePath(path)),
			zap.String("error", logging.SanitizeError(err)),
		)
	}

	m.mu.Lock()
	m.defaultPath = path
	m.mu.Unlock()

	m.logger.Info("default database path set", zap.String("path", logging.SanitizePath(path)))
	return nil
}

// Path returns the default path and whether one is configured.
func (m *ConnectionManager) Path() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultPath, m.defaultPath != ""
}

// Resolve returns override when it is non-empty, otherwise the default path.
func (m *ConnectionManager) Resolve(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if path, ok := m.Path(); ok {
		return path, nil
	}
	return "", apperrors.New(apperrors.KindConnection, apperrors.CodeUnconfigured,
		"no database path configured; pass db_path or set DATABASE_PATH")
}

// Open resolves the path and opens a read-only connection to it.
// The caller must close the returned connection.
func (m *ConnectionManager) Open(ctx context.Context, override string) (Connection, error) {
	path, err := m.Resolve(override)
	if err != nil {
		return nil, err
	}
	return m.openPath(ctx, path)
}

// TestConnection opens the resolved database, reads its catalog and closes
// it again. It never changes the default path.
// Returns the path that was tested.
func (m *ConnectionManager) TestConnection(ctx context.Context, override string) (string, error) {
	path, err := m.Resolve(override)
	if err != nil {
		return "", err
	}
	conn, err := m.openPath(ctx, path)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if err := conn.TestConnection(ctx); err != nil {
		return "", err
	}
	return path, nil
}

func (m *ConnectionManager) openPath(ctx context.Context, path string) (Connection, error) {
	if err := checkFile(path); err != nil {
		m.logger.Debug("database file check failed",
			zap.String("path", logging.SanitizePath(path)),
			zap.Error(err),
		)
		return nil, err
	}

	conn, err := m.factory.NewConnection(ctx, m.adapterType, ConnectionConfig{
		Path:        path,
		BusyTimeout: m.busyTimeout,
	})
	if err != nil {
		m.logger.Warn("failed to open database",
			zap.String("path", logging.SanitizePath(path)),
			zap.String("error", logging.SanitizeError(err)),
		)
		if errors.Is(err, apperrors.ErrConnectionTimeout) || errors.Is(err, apperrors.ErrDatabaseUnreadable) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, apperrors.KindConnection, apperrors.CodeUnreadable,
			"database %q could not be opened", path)
	}
	return conn, nil
}

// checkFile distinguishes a missing file from one that exists but cannot be
// used, before the driver gets a chance to report either as a generic
// open failure.
func checkFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperrors.Wrap(err, apperrors.KindConnection, apperrors.CodeNotFound,
				"database file %q does not exist", path)
		}
		return apperrors.Wrap(err, apperrors.KindConnection, apperrors.CodeUnreadable,
			"database file %q cannot be accessed", path)
	}
	if info.IsDir() {
		return apperrors.New(apperrors.KindConnection, apperrors.CodeUnreadable,
			"database path %q is a directory", path)
	}
	return nil
}
