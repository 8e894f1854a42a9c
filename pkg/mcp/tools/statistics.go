package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/sqlite-mcp/pkg/models"
)

type tableStatisticsResult struct {
	Table   string                     `json:"table"`
	Columns []*models.ColumnStatistics `json:"columns"`
}

// registerColumnStatisticsTool adds the get_column_statistics tool. Without a
// column_name it reports every column of the table.
func registerColumnStatisticsTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"get_column_statistics",
		mcp.WithDescription(
			"Compute count, distinct count and null count for a column, plus min/max for orderable columns "+
				"and the average for numeric ones. Omit column_name to get statistics for every column.",
		),
		mcp.WithString(
			"table_name",
			mcp.Required(),
			mcp.Description("Table to analyze"),
		),
		mcp.WithString(
			"column_name",
			mcp.Description("Optional - Column to analyze (case-insensitive)"),
		),
		mcp.WithString("db_path", mcp.Description(dbPathDescription)),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		auditArguments(ctx, deps.Auditor, "get_column_statistics", req)

		table, err := getRequiredString(req, "table_name")
		if err != nil {
			return NewInvalidParameterResult(err.Error()), nil
		}
		dbPath := getOptionalString(req, "db_path")

		if column := getOptionalString(req, "column_name"); column != "" {
			stats, err := deps.Exploration.ColumnStatistics(ctx, dbPath, table, column)
			if err != nil {
				return NewErrorResult(err), nil
			}
			return NewSuccessResult(stats)
		}

		all, err := deps.Exploration.TableStatistics(ctx, dbPath, table)
		if err != nil {
			return NewErrorResult(err), nil
		}
		if all == nil {
			all = []*models.ColumnStatistics{}
		}
		return NewSuccessResult(tableStatisticsResult{Table: table, Columns: all})
	})
}
