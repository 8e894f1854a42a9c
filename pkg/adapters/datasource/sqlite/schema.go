package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/sqlite-mcp/pkg/adapters/datasource"
)

// DiscoverTables returns user tables and views in catalog order, excluding
// SQLite's internal sqlite_* objects.
func (a *Adapter) DiscoverTables(ctx context.Context) ([]datasource.TableMetadata, error) {
	query := `
		SELECT name, type, COALESCE(sql, '')
		FROM sqlite_master
		WHERE type IN ('table', 'view')
		  AND name NOT LIKE 'sqlite\_%' ESCAPE '\'
		ORDER BY rowid`

	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapQueryError(ctx, err, "listing tables")
	}
	defer rows.Close()

	var tables []datasource.TableMetadata
	for rows.Next() {
		var t datasource.TableMetadata
		if err := rows.Scan(&t.TableName, &t.Kind, &t.CreateSQL); err != nil {
			return nil, mapQueryError(ctx, err, "listing tables")
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, mapQueryError(ctx, err, "listing tables")
	}

	return tables, nil
}

// DiscoverColumns returns columns for a table or view in declaration order.
func (a *Adapter) DiscoverColumns(ctx context.Context, tableName string) ([]datasource.ColumnMetadata, error) {
	query := `
		SELECT cid, name, type, "notnull", dflt_value, pk
		FROM pragma_table_info(?)
		ORDER BY cid`

	rows, err := a.db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, mapQueryError(ctx, err, fmt.Sprintf("describing table %q", tableName))
	}
	defer rows.Close()

	var columns []datasource.ColumnMetadata
	for rows.Next() {
		var (
			cid        int
			name       string
			dataType   string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultVal, &pk); err != nil {
			return nil, mapQueryError(ctx, err, fmt.Sprintf("describing table %q", tableName))
		}

		col := datasource.ColumnMetadata{
			ColumnName:      name,
			DataType:        dataType,
			IsPrimaryKey:    pk > 0,
			IsNullable:      notNull == 0 && !isRowIDColumn(dataType, pk),
			OrdinalPosition: cid + 1,
		}
		if defaultVal.Valid {
			v := defaultVal.String
			col.DefaultValue = &v
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, mapQueryError(ctx, err, fmt.Sprintf("describing table %q", tableName))
	}

	return columns, nil
}

// isRowIDColumn reports whether a column aliases the rowid, which can
// never hold NULL even without a NOT NULL constraint.
func isRowIDColumn(dataType string, pk int) bool {
	return pk == 1 && strings.EqualFold(strings.TrimSpace(dataType), "INTEGER")
}

// CountRows returns the number of rows in a table or view.
func (a *Adapter) CountRows(ctx context.Context, tableName string) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", a.QuoteIdentifier(tableName))

	var count int64
	if err := a.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, mapQueryError(ctx, err, fmt.Sprintf("counting rows in %q", tableName))
	}
	return count, nil
}

// AnalyzeColumnStats computes count, distinct and null counts for a column
// in one aggregate query, adding MIN/MAX and AVG only when requested.
func (a *Adapter) AnalyzeColumnStats(ctx context.Context, tableName string, column datasource.StatsColumn) (*datasource.ColumnStats, error) {
	quotedTable := a.QuoteIdentifier(tableName)
	quotedCol := a.QuoteIdentifier(column.Name)

	selects := []string{
		"COUNT(*)",
		fmt.Sprintf("COUNT(DISTINCT %s)", quotedCol),
		fmt.Sprintf("COUNT(*) - COUNT(%s)", quotedCol),
	}
	if column.Orderable {
		selects = append(selects,
			fmt.Sprintf("MIN(%s)", quotedCol),
			fmt.Sprintf("MAX(%s)", quotedCol),
		)
	}
	if column.Numeric {
		selects = append(selects, fmt.Sprintf("AVG(%s)", quotedCol))
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(selects, ", "), quotedTable)

	stats := &datasource.ColumnStats{ColumnName: column.Name}
	var (
		minVal, maxVal any
		avg            sql.NullFloat64
	)
	dest := []any{&stats.RowCount, &stats.DistinctCount, &stats.NullCount}
	if column.Orderable {
		dest = append(dest, &minVal, &maxVal)
	}
	if column.Numeric {
		dest = append(dest, &avg)
	}

	if err := a.db.QueryRowContext(ctx, query).Scan(dest...); err != nil {
		a.logger.Debug("column statistics query failed",
			zap.String("table", tableName),
			zap.String("column", column.Name),
			zap.Error(err),
		)
		return nil, mapQueryError(ctx, err, fmt.Sprintf("computing statistics for %q.%q", tableName, column.Name))
	}

	stats.Min = normalizeValue(minVal)
	stats.Max = normalizeValue(maxVal)
	if avg.Valid {
		v := avg.Float64
		stats.Avg = &v
	}
	return stats, nil
}
