package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/sqlite-mcp/pkg/adapters/datasource"
	"github.com/ekaya-inc/sqlite-mcp/pkg/apperrors"
	"github.com/ekaya-inc/sqlite-mcp/pkg/models"
)

// StatisticsEngine computes per-column aggregate statistics.
type StatisticsEngine interface {
	// ComputeColumnStatistics returns statistics for one column. The column
	// name is matched case-insensitively.
	ComputeColumnStatistics(ctx context.Context, conn datasource.SchemaDiscoverer, tableName, columnName string) (*models.ColumnStatistics, error)

	// ComputeTableStatistics returns statistics for every column of a table
	// in declaration order.
	ComputeTableStatistics(ctx context.Context, conn datasource.SchemaDiscoverer, tableName string) ([]*models.ColumnStatistics, error)
}

type statisticsEngine struct {
	schema SchemaInspector
	logger *zap.Logger
}

// NewStatisticsEngine creates a statistics engine that resolves tables
// through schema.
func NewStatisticsEngine(schema SchemaInspector, logger *zap.Logger) StatisticsEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &statisticsEngine{schema: schema, logger: logger.Named("statistics")}
}

var _ StatisticsEngine = (*statisticsEngine)(nil)

func (e *statisticsEngine) ComputeColumnStatistics(ctx context.Context, conn datasource.SchemaDiscoverer, tableName, columnName string) (*models.ColumnStatistics, error) {
	table, err := e.schema.GetTableSchema(ctx, conn, tableName)
	if err != nil {
		return nil, err
	}

	column, ok := table.Column(columnName)
	if !ok {
		return nil, apperrors.New(apperrors.KindSchema, apperrors.CodeColumnNotFound,
			"column %q does not exist in table %q", columnName, tableName)
	}
	return e.compute(ctx, conn, table.Name, column)
}

func (e *statisticsEngine) ComputeTableStatistics(ctx context.Context, conn datasource.SchemaDiscoverer, tableName string) ([]*models.ColumnStatistics, error) {
	table, err := e.schema.GetTableSchema(ctx, conn, tableName)
	if err != nil {
		return nil, err
	}

	result := make([]*models.ColumnStatistics, 0, len(table.Columns))
	for _, column := range table.Columns {
		stats, err := e.compute(ctx, conn, table.Name, column)
		if err != nil {
			return nil, err
		}
		result = append(result, stats)
	}
	return result, nil
}

func (e *statisticsEngine) compute(ctx context.Context, conn datasource.SchemaDiscoverer, tableName string, column models.ColumnDescriptor) (*models.ColumnStatistics, error) {
	raw, err := conn.AnalyzeColumnStats(ctx, tableName, datasource.StatsColumn{
		Name:      column.Name,
		Orderable: column.IsOrderable(),
		Numeric:   column.IsNumeric(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to analyze %s.%s: %w", tableName, column.Name, err)
	}

	e.logger.Debug("Computed column statistics",
		zap.String("table", tableName),
		zap.String("column", column.Name),
		zap.Int64("count", raw.RowCount),
	)

	return &models.ColumnStatistics{
		Table:         tableName,
		Column:        column.Name,
		Type:          column.Type,
		Count:         raw.RowCount,
		DistinctCount: raw.DistinctCount,
		NullCount:     raw.NullCount,
		Min:           raw.Min,
		Max:           raw.Max,
		Avg:           raw.Avg,
	}, nil
}
