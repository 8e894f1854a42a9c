package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/ekaya-inc/sqlite-mcp/pkg/adapters/datasource"
	"github.com/ekaya-inc/sqlite-mcp/pkg/apperrors"
	"github.com/ekaya-inc/sqlite-mcp/pkg/logging"
	"github.com/ekaya-inc/sqlite-mcp/pkg/retry"
)

const driverName = "sqlite"

// Adapter is a read-only connection to one SQLite database file.
type Adapter struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// NewAdapter opens the database read-only and proves it is readable by
// querying its catalog. Lock contention during the probe is retried.
func NewAdapter(ctx context.Context, cfg *Config, logger *zap.Logger) (*Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open(driverName, buildDSN(cfg))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindConnection, apperrors.CodeUnreadable,
			"database %q could not be opened", cfg.Path)
	}
	// One connection per handle keeps per-connection pragmas consistent.
	db.SetMaxOpenConns(1)

	a := newAdapter(db, cfg.Path, logger)
	if err := a.probe(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	a.logger.Debug("opened database", zap.String("path", logging.SanitizePath(cfg.Path)))
	return a, nil
}

func newAdapter(db *sql.DB, path string, logger *zap.Logger) *Adapter {
	return &Adapter{
		db:     db,
		path:   path,
		logger: logger.Named("sqlite"),
	}
}

// TestConnection verifies the catalog can still be read.
func (a *Adapter) TestConnection(ctx context.Context) error {
	return a.probe(ctx)
}

func (a *Adapter) probe(ctx context.Context) error {
	err := retry.DoIfRetryable(ctx, retry.DefaultConfig(), func() error {
		var n int64
		return a.db.QueryRowContext(ctx, "SELECT count(*) FROM sqlite_master").Scan(&n)
	})
	if err != nil {
		a.logger.Debug("database probe failed",
			zap.String("path", logging.SanitizePath(a.path)),
			zap.String("error", logging.SanitizeError(err)),
		)
		return mapOpenError(ctx, err, a.path)
	}
	return nil
}

// Close releases the database handle.
func (a *Adapter) Close() error {
	if a.db == nil {
		return nil
	}
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("close sqlite database: %w", err)
	}
	return nil
}

// Ensure Adapter implements every datasource interface at compile time.
var _ datasource.Connection = (*Adapter)(nil)
