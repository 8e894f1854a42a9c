package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type tablesResult struct {
	Tables []string `json:"tables"`
	Count  int      `json:"count"`
}

type columnTablesResult struct {
	Column string   `json:"column"`
	Tables []string `json:"tables"`
}

// registerListTablesTool adds the list_all_tables tool.
func registerListTablesTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"list_all_tables",
		mcp.WithDescription("List the user tables and views in the database, ordered by name. SQLite internal tables are excluded."),
		mcp.WithString("db_path", mcp.Description(dbPathDescription)),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		auditArguments(ctx, deps.Auditor, "list_all_tables", req)

		tables, err := deps.Exploration.ListTables(ctx, getOptionalString(req, "db_path"))
		if err != nil {
			return NewErrorResult(err), nil
		}
		if tables == nil {
			tables = []string{}
		}
		return NewSuccessResult(tablesResult{Tables: tables, Count: len(tables)})
	})
}

// registerFindTablesByColumnTool adds the find_tables_by_column tool.
func registerFindTablesByColumnTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"find_tables_by_column",
		mcp.WithDescription(
			"Find every table that has a column with the given name (case-insensitive). "+
				"Example: find_tables_by_column(column_name='email')",
		),
		mcp.WithString(
			"column_name",
			mcp.Required(),
			mcp.Description("Column name to search for"),
		),
		mcp.WithString("db_path", mcp.Description(dbPathDescription)),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		auditArguments(ctx, deps.Auditor, "find_tables_by_column", req)

		column, err := getRequiredString(req, "column_name")
		if err != nil {
			return NewInvalidParameterResult(err.Error()), nil
		}

		tables, err := deps.Exploration.FindTablesByColumn(ctx, getOptionalString(req, "db_path"), column)
		if err != nil {
			return NewErrorResult(err), nil
		}
		if tables == nil {
			tables = []string{}
		}
		return NewSuccessResult(columnTablesResult{Column: column, Tables: tables})
	})
}

// registerTableSchemaTool adds the get_table_schema_info tool.
func registerTableSchemaTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"get_table_schema_info",
		mcp.WithDescription(
			"Describe one table: kind, columns with declared and semantic types, nullability, primary key, "+
				"defaults, row count and the CREATE statement.",
		),
		mcp.WithString(
			"table_name",
			mcp.Required(),
			mcp.Description("Table or view name (exact match)"),
		),
		mcp.WithString("db_path", mcp.Description(dbPathDescription)),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		auditArguments(ctx, deps.Auditor, "get_table_schema_info", req)

		table, err := getRequiredString(req, "table_name")
		if err != nil {
			return NewInvalidParameterResult(err.Error()), nil
		}

		desc, err := deps.Exploration.TableSchema(ctx, getOptionalString(req, "db_path"), table)
		if err != nil {
			return NewErrorResult(err), nil
		}
		return NewSuccessResult(desc)
	})
}

// registerOverviewTool adds the get_database_overview tool.
func registerOverviewTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"get_database_overview",
		mcp.WithDescription(
			"Summarize the whole database: every table with its row count and column names. "+
				"A table that cannot be read is reported with an error marker instead of failing the call.",
		),
		mcp.WithString("db_path", mcp.Description(dbPathDescription)),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		auditArguments(ctx, deps.Auditor, "get_database_overview", req)

		overview, err := deps.Exploration.Overview(ctx, getOptionalString(req, "db_path"))
		if err != nil {
			return NewErrorResult(err), nil
		}
		return NewSuccessResult(overview)
	})
}
