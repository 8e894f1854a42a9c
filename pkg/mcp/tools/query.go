package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/sqlite-mcp/pkg/apperrors"
	"github.com/ekaya-inc/sqlite-mcp/pkg/logging"
	"github.com/ekaya-inc/sqlite-mcp/pkg/services"
)

// registerQueryTool adds the query_sqlite_table tool, which translates a
// natural-language request into a read-only SELECT and runs it.
func registerQueryTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"query_sqlite_table",
		mcp.WithDescription(
			"Answer a natural-language question about one table. "+
				"The request is translated into a single read-only SELECT using only tables and columns that exist. "+
				"Supports counts, distinct values, ordering and row limits. "+
				"Example: query_sqlite_table(user_text='top 5 products sorted by price descending')",
		),
		mcp.WithString(
			"user_text",
			mcp.Required(),
			mcp.Description("The request in plain English (e.g., 'how many users are there?')"),
		),
		mcp.WithString(
			"table",
			mcp.Description("Optional - Table to query. Use this to resolve an ambiguous table reference."),
		),
		mcp.WithNumber(
			"limit",
			mcp.Description("Optional - Maximum rows to return (capped by the server's row limit)"),
		),
		mcp.WithString("db_path", mcp.Description(dbPathDescription)),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		auditArguments(ctx, deps.Auditor, "query_sqlite_table", req)

		userText, err := getRequiredString(req, "user_text")
		if err != nil {
			return NewInvalidParameterResult(err.Error()), nil
		}
		limit, err := getOptionalPositiveInt(req, "limit")
		if err != nil {
			return NewInvalidParameterResult(err.Error()), nil
		}

		resp, err := deps.Exploration.Query(ctx, &services.QueryRequest{
			DBPath:   getOptionalString(req, "db_path"),
			UserText: userText,
			Table:    getOptionalString(req, "table"),
			Limit:    limit,
		})
		if err != nil {
			deps.logger().Debug("Query tool failed",
				zap.String("user_text", logging.TruncateString(userText, logging.MaxTextLogLength)),
				zap.String("code", string(apperrors.From(err).Code)))
			return NewErrorResult(err), nil
		}

		return NewSuccessResult(resp)
	})
}
