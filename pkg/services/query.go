package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/sqlite-mcp/pkg/adapters/datasource"
	"github.com/ekaya-inc/sqlite-mcp/pkg/apperrors"
	"github.com/ekaya-inc/sqlite-mcp/pkg/audit"
	"github.com/ekaya-inc/sqlite-mcp/pkg/logging"
	"github.com/ekaya-inc/sqlite-mcp/pkg/models"
)

// QueryService validates and executes read-only statements.
type QueryService interface {
	// RunSelect validates statement against snapshot and executes it,
	// returning at most limit rows. A limit <= 0 uses the default limit;
	// larger limits are capped at the maximum row count.
	RunSelect(ctx context.Context, conn datasource.QueryExecutor, database, statement string, snapshot models.SchemaSnapshot, limit int) (*models.QueryResult, error)
}

// QueryLimits bounds the number of rows a statement may return.
type QueryLimits struct {
	DefaultLimit int
	MaxRows      int
}

type queryService struct {
	validator SafetyValidator
	auditor   *audit.SecurityAuditor
	limits    QueryLimits
	logger    *zap.Logger
}

// NewQueryService creates a new query service with dependencies.
func NewQueryService(
	validator SafetyValidator,
	auditor *audit.SecurityAuditor,
	limits QueryLimits,
	logger *zap.Logger,
) QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if auditor == nil {
		auditor = audit.NewSecurityAuditor(logger)
	}
	if limits.MaxRows <= 0 || limits.MaxRows > datasource.MaxQueryLimit {
		limits.MaxRows = datasource.MaxQueryLimit
	}
	if limits.DefaultLimit <= 0 || limits.DefaultLimit > limits.MaxRows {
		limits.DefaultLimit = limits.MaxRows
	}
	return &queryService{
		validator: validator,
		auditor:   auditor,
		limits:    limits,
		logger:    logger.Named("query"),
	}
}

var _ QueryService = (*queryService)(nil)

func (s *queryService) RunSelect(
	ctx context.Context,
	conn datasource.QueryExecutor,
	database, statement string,
	snapshot models.SchemaSnapshot,
	limit int,
) (*models.QueryResult, error) {
	if err := s.validator.Validate(statement, snapshot); err != nil {
		reason := string(apperrors.From(err).Code)
		s.auditor.LogSafetyRejection(ctx, database, statement, reason)
		return nil, err
	}

	effective := s.effectiveLimit(limit)
	result, err := conn.Query(ctx, statement, effective)
	if err != nil {
		s.logger.Error("Query execution failed",
			zap.String("sql", logging.SanitizeQuery(statement)),
			zap.Error(err),
		)
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to execute query: %w", apperrors.From(err))
	}

	s.auditor.LogQueryExecution(ctx, database, statement, result.RowCount)

	columns := make([]string, len(result.Columns))
	for i, c := range result.Columns {
		columns[i] = c.Name
	}
	return &models.QueryResult{
		SQL:       statement,
		Columns:   columns,
		Rows:      result.Rows,
		RowCount:  result.RowCount,
		Truncated: result.Truncated,
		Limit:     effective,
	}, nil
}

func (s *queryService) effectiveLimit(limit int) int {
	if limit <= 0 {
		return s.limits.DefaultLimit
	}
	if limit > s.limits.MaxRows {
		return s.limits.MaxRows
	}
	return limit
}
