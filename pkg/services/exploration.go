package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/sqlite-mcp/pkg/adapters/datasource"
	"github.com/ekaya-inc/sqlite-mcp/pkg/apperrors"
	"github.com/ekaya-inc/sqlite-mcp/pkg/logging"
	"github.com/ekaya-inc/sqlite-mcp/pkg/models"
	sqlutil "github.com/ekaya-inc/sqlite-mcp/pkg/sql"
)

// ConnectionProvider resolves database paths and opens connections.
// Implemented by datasource.ConnectionManager.
type ConnectionProvider interface {
	Resolve(override string) (string, error)
	Open(ctx context.Context, override string) (datasource.Connection, error)
	TestConnection(ctx context.Context, override string) (string, error)
}

// ExplorationService backs the exploration tools. Every method resolves the
// database path (dbPath overrides the default when non-empty), opens a
// connection for the duration of the call and closes it before returning.
type ExplorationService interface {
	Query(ctx context.Context, req *QueryRequest) (*QueryResponse, error)
	ListTables(ctx context.Context, dbPath string) ([]string, error)
	Preview(ctx context.Context, dbPath, tableName string, rowLimit int) (*models.QueryResult, error)
	ColumnStatistics(ctx context.Context, dbPath, tableName, columnName string) (*models.ColumnStatistics, error)
	TableStatistics(ctx context.Context, dbPath, tableName string) ([]*models.ColumnStatistics, error)
	FindTablesByColumn(ctx context.Context, dbPath, columnName string) ([]string, error)
	TableSchema(ctx context.Context, dbPath, tableName string) (*models.TableDescriptor, error)
	Overview(ctx context.Context, dbPath string) (*models.DatabaseOverview, error)
	TestConnection(ctx context.Context, dbPath string) (*ConnectionStatus, error)
}

// QueryRequest is a natural-language query against one database.
type QueryRequest struct {
	DBPath   string
	UserText string
	Table    string // Optional; skips table resolution
	Limit    int    // Optional; 0 uses the default limit
}

// QueryResponse is a translated and executed query.
type QueryResponse struct {
	Table   string          `json:"table"`
	Intents []models.Intent `json:"intents,omitempty"`
	*models.QueryResult
}

// ConnectionStatus reports a successful connection test.
type ConnectionStatus struct {
	Path       string `json:"path"`
	Status     string `json:"status"`
	TableCount int    `json:"table_count"`
}

// ExplorationConfig holds limits applied by the exploration service.
type ExplorationConfig struct {
	QueryTimeout time.Duration
	PreviewLimit int
}

type explorationService struct {
	connections ConnectionProvider
	schema      SchemaInspector
	stats       StatisticsEngine
	translator  QueryTranslator
	validator   SafetyValidator
	query       QueryService
	cfg         ExplorationConfig
	logger      *zap.Logger
}

// NewExplorationService creates an exploration service with dependencies.
func NewExplorationService(
	connections ConnectionProvider,
	schema SchemaInspector,
	stats StatisticsEngine,
	translator QueryTranslator,
	validator SafetyValidator,
	query QueryService,
	cfg ExplorationConfig,
	logger *zap.Logger,
) ExplorationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 30 * time.Second
	}
	if cfg.PreviewLimit <= 0 {
		cfg.PreviewLimit = 10
	}
	return &explorationService{
		connections: connections,
		schema:      schema,
		stats:       stats,
		translator:  translator,
		validator:   validator,
		query:       query,
		cfg:         cfg,
		logger:      logger.Named("exploration"),
	}
}

var _ ExplorationService = (*explorationService)(nil)

// withConnection opens the resolved database under the query timeout, runs
// fn and closes the connection on every path.
func withConnection[T any](
	ctx context.Context,
	s *explorationService,
	dbPath string,
	fn func(ctx context.Context, conn datasource.Connection, path string) (T, error),
) (T, error) {
	var zero T

	path, err := s.connections.Resolve(dbPath)
	if err != nil {
		return zero, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	conn, err := s.connections.Open(ctx, path)
	if err != nil {
		return zero, err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			s.logger.Warn("Failed to close connection",
				zap.String("path", logging.SanitizePath(path)),
				zap.Error(err),
			)
		}
	}()

	return fn(ctx, conn, path)
}

func (s *explorationService) Query(ctx context.Context, req *QueryRequest) (*QueryResponse, error) {
	if req.Table != "" {
		if err := s.validator.ValidateIdentifier(req.Table); err != nil {
			return nil, err
		}
	}

	return withConnection(ctx, s, req.DBPath, func(ctx context.Context, conn datasource.Connection, path string) (*QueryResponse, error) {
		snapshot, err := s.schema.Snapshot(ctx, conn)
		if err != nil {
			return nil, err
		}

		var translated *models.TranslatedQuery
		if req.Table != "" {
			translated, err = s.translator.TranslateForTable(req.UserText, req.Table, snapshot)
		} else {
			translated, err = s.translator.Translate(req.UserText, snapshot)
		}
		if err != nil {
			s.logger.Debug("Translation failed",
				zap.String("text", logging.TruncateString(req.UserText, logging.MaxTextLogLength)),
				zap.Error(err),
			)
			return nil, err
		}

		limit := req.Limit
		if limit == 0 && translated.Limit > 0 {
			limit = translated.Limit
		}
		result, err := s.query.RunSelect(ctx, conn, path, translated.SQL, snapshot, limit)
		if err != nil {
			return nil, err
		}
		return &QueryResponse{
			Table:       translated.ReferencedTable,
			Intents:     translated.Intents,
			QueryResult: result,
		}, nil
	})
}

func (s *explorationService) ListTables(ctx context.Context, dbPath string) ([]string, error) {
	return withConnection(ctx, s, dbPath, func(ctx context.Context, conn datasource.Connection, _ string) ([]string, error) {
		return s.schema.ListTables(ctx, conn)
	})
}

func (s *explorationService) Preview(ctx context.Context, dbPath, tableName string, rowLimit int) (*models.QueryResult, error) {
	if err := s.validator.ValidateIdentifier(tableName); err != nil {
		return nil, err
	}
	if rowLimit <= 0 {
		rowLimit = s.cfg.PreviewLimit
	}

	return withConnection(ctx, s, dbPath, func(ctx context.Context, conn datasource.Connection, path string) (*models.QueryResult, error) {
		snapshot, err := s.schema.Snapshot(ctx, conn)
		if err != nil {
			return nil, err
		}
		name := sqlutil.NormalizeTableRef(tableName)
		table, ok := snapshot.Lookup(name)
		if !ok {
			return nil, apperrors.New(apperrors.KindSchema, apperrors.CodeTableNotFound, "table %q does not exist", name)
		}

		statement := "SELECT * FROM " + sqlutil.FormatIdentifier(table.Name)
		return s.query.RunSelect(ctx, conn, path, statement, snapshot, rowLimit)
	})
}

func (s *explorationService) ColumnStatistics(ctx context.Context, dbPath, tableName, columnName string) (*models.ColumnStatistics, error) {
	if err := s.validateNames(tableName, columnName); err != nil {
		return nil, err
	}
	return withConnection(ctx, s, dbPath, func(ctx context.Context, conn datasource.Connection, _ string) (*models.ColumnStatistics, error) {
		return s.stats.ComputeColumnStatistics(ctx, conn, sqlutil.NormalizeTableRef(tableName), columnName)
	})
}

func (s *explorationService) TableStatistics(ctx context.Context, dbPath, tableName string) ([]*models.ColumnStatistics, error) {
	if err := s.validateNames(tableName); err != nil {
		return nil, err
	}
	return withConnection(ctx, s, dbPath, func(ctx context.Context, conn datasource.Connection, _ string) ([]*models.ColumnStatistics, error) {
		return s.stats.ComputeTableStatistics(ctx, conn, sqlutil.NormalizeTableRef(tableName))
	})
}

func (s *explorationService) FindTablesByColumn(ctx context.Context, dbPath, columnName string) ([]string, error) {
	return withConnection(ctx, s, dbPath, func(ctx context.Context, conn datasource.Connection, _ string) ([]string, error) {
		return s.schema.FindTablesByColumn(ctx, conn, columnName)
	})
}

func (s *explorationService) TableSchema(ctx context.Context, dbPath, tableName string) (*models.TableDescriptor, error) {
	if err := s.validateNames(tableName); err != nil {
		return nil, err
	}
	return withConnection(ctx, s, dbPath, func(ctx context.Context, conn datasource.Connection, _ string) (*models.TableDescriptor, error) {
		return s.schema.GetTableSchema(ctx, conn, sqlutil.NormalizeTableRef(tableName))
	})
}

func (s *explorationService) Overview(ctx context.Context, dbPath string) (*models.DatabaseOverview, error) {
	return withConnection(ctx, s, dbPath, func(ctx context.Context, conn datasource.Connection, path string) (*models.DatabaseOverview, error) {
		return s.schema.GetOverview(ctx, conn, path)
	})
}

func (s *explorationService) TestConnection(ctx context.Context, dbPath string) (*ConnectionStatus, error) {
	probeCtx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	path, err := s.connections.TestConnection(probeCtx, dbPath)
	cancel()
	if err != nil {
		return nil, err
	}

	return withConnection(ctx, s, path, func(ctx context.Context, conn datasource.Connection, path string) (*ConnectionStatus, error) {
		tables, err := s.schema.ListTables(ctx, conn)
		if err != nil {
			return nil, err
		}
		return &ConnectionStatus{Path: path, Status: "connected", TableCount: len(tables)}, nil
	})
}

func (s *explorationService) validateNames(names ...string) error {
	for _, name := range names {
		if err := s.validator.ValidateIdentifier(name); err != nil {
			return err
		}
	}
	return nil
}
