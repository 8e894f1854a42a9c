package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/sqlite-mcp/pkg/logging"
)

// registerTestConnectionTool adds the test_connection tool. Testing a db_path
// never changes the configured default.
func registerTestConnectionTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"test_connection",
		mcp.WithDescription("Check that the database file exists and can be opened read-only. Reports the number of tables on success."),
		mcp.WithString("db_path", mcp.Description(dbPathDescription)),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		auditArguments(ctx, deps.Auditor, "test_connection", req)

		dbPath := getOptionalString(req, "db_path")
		status, err := deps.Exploration.TestConnection(ctx, dbPath)
		if err != nil {
			deps.logger().Info("Connection test failed",
				zap.String("db_path", logging.SanitizePath(dbPath)),
				zap.String("error", logging.SanitizeError(err)))
			return NewErrorResult(err), nil
		}
		return NewSuccessResult(status)
	})
}
