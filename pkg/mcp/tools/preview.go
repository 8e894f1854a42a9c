package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/sqlite-mcp/pkg/models"
)

type previewResult struct {
	Table string `json:"table"`
	*models.QueryResult
}

// registerPreviewTool adds the get_table_preview tool.
func registerPreviewTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"get_table_preview",
		mcp.WithDescription(
			"Return the first rows of a table. "+
				"Example: get_table_preview(table_name='orders', row_limit=5)",
		),
		mcp.WithString(
			"table_name",
			mcp.Required(),
			mcp.Description("Table or view to preview"),
		),
		mcp.WithNumber(
			"row_limit",
			mcp.Description("Optional - Number of rows to return (default: 10)"),
		),
		mcp.WithString("db_path", mcp.Description(dbPathDescription)),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		auditArguments(ctx, deps.Auditor, "get_table_preview", req)

		table, err := getRequiredString(req, "table_name")
		if err != nil {
			return NewInvalidParameterResult(err.Error()), nil
		}
		rowLimit, err := getOptionalPositiveInt(req, "row_limit")
		if err != nil {
			return NewInvalidParameterResult(err.Error()), nil
		}

		result, err := deps.Exploration.Preview(ctx, getOptionalString(req, "db_path"), table, rowLimit)
		if err != nil {
			return NewErrorResult(err), nil
		}
		return NewSuccessResult(previewResult{Table: table, QueryResult: result})
	})
}
