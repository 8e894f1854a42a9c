package sqlite

import (
	"context"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ekaya-inc/sqlite-mcp/pkg/adapters/datasource"
	"github.com/ekaya-inc/sqlite-mcp/pkg/logging"
	sqlutil "github.com/ekaya-inc/sqlite-mcp/pkg/sql"
)

// Query runs a read-only statement and returns at most limit rows.
// The statement is not rewritten; rows are streamed and reading stops one
// row past the limit so that truncation can be reported.
func (a *Adapter) Query(ctx context.Context, sqlQuery string, limit int) (*datasource.QueryExecutionResult, error) {
	if limit <= 0 || limit > datasource.MaxQueryLimit {
		limit = datasource.MaxQueryLimit
	}

	rows, err := a.db.QueryContext(ctx, sqlQuery)
	if err != nil {
		a.logger.Debug("query failed",
			zap.String("sql", logging.SanitizeQuery(sqlQuery)),
			zap.Error(err),
		)
		return nil, mapQueryError(ctx, err, "query")
	}
	defer rows.Close()

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, mapQueryError(ctx, err, "query")
	}
	columns := make([]datasource.ColumnInfo, len(columnTypes))
	names := make([]string, len(columnTypes))
	for i, ct := range columnTypes {
		names[i] = ct.Name()
		columns[i] = datasource.ColumnInfo{Name: ct.Name(), Type: ct.DatabaseTypeName()}
	}

	result := &datasource.QueryExecutionResult{
		Columns: columns,
		Rows:    make([]map[string]any, 0),
	}

	for rows.Next() {
		if len(result.Rows) == limit {
			result.Truncated = true
			break
		}

		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, mapQueryError(ctx, err, "query")
		}

		row := make(map[string]any, len(names))
		for i, name := range names {
			row[name] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, mapQueryError(ctx, err, "query")
	}

	result.RowCount = len(result.Rows)
	return result, nil
}

// QuoteIdentifier safely quotes a SQLite identifier.
func (a *Adapter) QuoteIdentifier(name string) string {
	return sqlutil.QuoteIdentifier(name)
}

// normalizeValue converts driver values into JSON-friendly ones. TEXT can
// arrive as []byte; it becomes a string when it is valid UTF-8.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		if utf8.Valid(b) {
			return string(b)
		}
		cp := make([]byte, len(b))
		copy(cp, b)
		return cp
	}
	return v
}
