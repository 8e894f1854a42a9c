// Package tools provides the MCP tool implementations for sqlite-mcp.
package tools

import (
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/sqlite-mcp/pkg/audit"
	"github.com/ekaya-inc/sqlite-mcp/pkg/services"
)

// ToolDeps contains dependencies for the exploration tools.
type ToolDeps struct {
	Exploration services.ExplorationService
	Auditor     *audit.SecurityAuditor
	Logger      *zap.Logger
}

func (d *ToolDeps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// RegisterExplorationTools registers every database exploration tool.
func RegisterExplorationTools(s *server.MCPServer, deps *ToolDeps) {
	registerQueryTool(s, deps)
	registerListTablesTool(s, deps)
	registerPreviewTool(s, deps)
	registerColumnStatisticsTool(s, deps)
	registerFindTablesByColumnTool(s, deps)
	registerTableSchemaTool(s, deps)
	registerOverviewTool(s, deps)
	registerTestConnectionTool(s, deps)
}
