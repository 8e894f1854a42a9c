package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/sqlite-mcp/pkg/adapters/datasource"
	"github.com/ekaya-inc/sqlite-mcp/pkg/apperrors"
	"github.com/ekaya-inc/sqlite-mcp/pkg/models"
)

// SchemaInspector reads structural metadata from an open connection.
// Nothing is cached: every call reads the catalog again.
type SchemaInspector interface {
	// ListTables returns table and view names in catalog order.
	ListTables(ctx context.Context, conn datasource.SchemaDiscoverer) ([]string, error)

	// GetTableSchema describes one table, including its row count.
	// The name must match exactly; otherwise ErrTableNotFound is returned.
	GetTableSchema(ctx context.Context, conn datasource.SchemaDiscoverer, tableName string) (*models.TableDescriptor, error)

	// FindTablesByColumn returns the sorted names of tables that have a
	// column with the given name, compared case-insensitively.
	FindTablesByColumn(ctx context.Context, conn datasource.SchemaDiscoverer, columnName string) ([]string, error)

	// GetOverview summarizes every table. A table that cannot be inspected
	// gets an error marker instead of failing the whole overview.
	GetOverview(ctx context.Context, conn datasource.SchemaDiscoverer, path string) (*models.DatabaseOverview, error)

	// Snapshot reads every table's columns, without row counts.
	Snapshot(ctx context.Context, conn datasource.SchemaDiscoverer) (models.SchemaSnapshot, error)
}

type schemaInspector struct {
	logger *zap.Logger
}

// NewSchemaInspector creates a schema inspector.
func NewSchemaInspector(logger *zap.Logger) SchemaInspector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &schemaInspector{logger: logger.Named("schema")}
}

var _ SchemaInspector = (*schemaInspector)(nil)

func (s *schemaInspector) ListTables(ctx context.Context, conn datasource.SchemaDiscoverer) ([]string, error) {
	tables, err := conn.DiscoverTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.TableName
	}
	return names, nil
}

func (s *schemaInspector) GetTableSchema(ctx context.Context, conn datasource.SchemaDiscoverer, tableName string) (*models.TableDescriptor, error) {
	tables, err := conn.DiscoverTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	var meta *datasource.TableMetadata
	for i := range tables {
		if tables[i].TableName == tableName {
			meta = &tables[i]
			break
		}
	}
	if meta == nil {
		return nil, tableNotFound(tableName, tables)
	}

	desc, err := s.describe(ctx, conn, *meta)
	if err != nil {
		return nil, err
	}

	count, err := conn.CountRows(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to count rows in %s: %w", tableName, err)
	}
	desc.RowCount = &count
	return desc, nil
}

func (s *schemaInspector) FindTablesByColumn(ctx context.Context, conn datasource.SchemaDiscoverer, columnName string) ([]string, error) {
	tables, err := conn.DiscoverTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	matches := make([]string, 0)
	for _, t := range tables {
		columns, err := conn.DiscoverColumns(ctx, t.TableName)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			s.logger.Warn("Failed to inspect table, skipping",
				zap.String("table", t.TableName),
				zap.Error(err),
			)
			continue
		}
		for _, c := range columns {
			if strings.EqualFold(c.ColumnName, columnName) {
				matches = append(matches, t.TableName)
				break
			}
		}
	}
	sort.Strings(matches)
	return matches, nil
}

func (s *schemaInspector) GetOverview(ctx context.Context, conn datasource.SchemaDiscoverer, path string) (*models.DatabaseOverview, error) {
	tables, err := conn.DiscoverTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	overview := &models.DatabaseOverview{
		Path:       path,
		TableCount: len(tables),
		Tables:     make(map[string]models.TableOverview, len(tables)),
	}

	for _, t := range tables {
		entry := models.TableOverview{Kind: models.TableKind(t.Kind)}

		columns, err := conn.DiscoverColumns(ctx, t.TableName)
		if err == nil {
			entry.Columns = make([]string, len(columns))
			for i, c := range columns {
				entry.Columns[i] = c.ColumnName
			}
			var count int64
			if count, err = conn.CountRows(ctx, t.TableName); err == nil {
				entry.RowCount = &count
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			s.logger.Warn("Failed to get info for table",
				zap.String("table", t.TableName),
				zap.Error(err),
			)
			entry.Columns = nil
			entry.Error = apperrors.From(err).Error()
		}
		overview.Tables[t.TableName] = entry
	}
	return overview, nil
}

func (s *schemaInspector) Snapshot(ctx context.Context, conn datasource.SchemaDiscoverer) (models.SchemaSnapshot, error) {
	tables, err := conn.DiscoverTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	snapshot := make(models.SchemaSnapshot, len(tables))
	for _, t := range tables {
		desc, err := s.describe(ctx, conn, t)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			s.logger.Warn("Failed to describe table, leaving it out of the snapshot",
				zap.String("table", t.TableName),
				zap.Error(err),
			)
			continue
		}
		snapshot[t.TableName] = desc
	}
	return snapshot, nil
}

func (s *schemaInspector) describe(ctx context.Context, conn datasource.SchemaDiscoverer, meta datasource.TableMetadata) (*models.TableDescriptor, error) {
	columns, err := conn.DiscoverColumns(ctx, meta.TableName)
	if err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", meta.TableName, err)
	}

	desc := &models.TableDescriptor{
		Name:      meta.TableName,
		Kind:      models.TableKind(meta.Kind),
		Columns:   make([]models.ColumnDescriptor, len(columns)),
		CreateSQL: meta.CreateSQL,
	}
	for i, c := range columns {
		desc.Columns[i] = models.ColumnDescriptor{
			Name:         c.ColumnName,
			DeclaredType: c.DataType,
			Type:         models.SemanticTypeOf(c.DataType),
			Nullable:     c.IsNullable,
			PrimaryKey:   c.IsPrimaryKey,
			DefaultValue: c.DefaultValue,
		}
	}
	return desc, nil
}

// tableNotFound names a table that differs only by case, since SQLite
// itself would accept it but the lookup here is exact.
func tableNotFound(name string, tables []datasource.TableMetadata) error {
	for _, t := range tables {
		if strings.EqualFold(t.TableName, name) {
			return apperrors.New(apperrors.KindSchema, apperrors.CodeTableNotFound,
				"table %q does not exist (did you mean %q?)", name, t.TableName)
		}
	}
	return apperrors.New(apperrors.KindSchema, apperrors.CodeTableNotFound, "table %q does not exist", name)
}
