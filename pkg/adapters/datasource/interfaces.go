package datasource

import "context"

// ConnectionTester tests database connectivity.
// Each implementation owns its connection and must be closed when done.
type ConnectionTester interface {
	// TestConnection verifies the database file can be opened and its
	// catalog read. Returns nil if the connection is healthy.
	TestConnection(ctx context.Context) error

	// Close releases the database connection.
	Close() error
}

// SchemaDiscoverer reads structural metadata from the database catalog.
// Nothing is cached: every call reflects the file as it is now.
type SchemaDiscoverer interface {
	// DiscoverTables returns user tables and views in catalog order.
	// Internal sqlite_* objects are excluded.
	DiscoverTables(ctx context.Context) ([]TableMetadata, error)

	// DiscoverColumns returns the columns of a table or view in declaration
	// order. Returns an empty slice when the table does not exist.
	DiscoverColumns(ctx context.Context, tableName string) ([]ColumnMetadata, error)

	// CountRows returns the number of rows in a table or view.
	CountRows(ctx context.Context, tableName string) (int64, error)

	// AnalyzeColumnStats computes aggregates for one column in a single
	// query without loading column data into memory.
	AnalyzeColumnStats(ctx context.Context, tableName string, column StatsColumn) (*ColumnStats, error)

	// Close releases the database connection.
	Close() error
}

// MaxQueryLimit is the hard cap on rows returned by Query.
// This protects against unbounded queries that could exhaust memory.
const MaxQueryLimit = 1000

// QueryExecutor runs read-only statements against the database.
type QueryExecutor interface {
	// Query runs a statement and returns at most limit rows.
	//
	// Limit behavior:
	//   - limit <= 0: uses MaxQueryLimit
	//   - limit > MaxQueryLimit: capped to MaxQueryLimit
	//
	// The statement is executed unchanged. Rows are streamed and reading
	// stops after limit+1 rows; Truncated reports whether the extra row
	// existed.
	Query(ctx context.Context, sqlQuery string, limit int) (*QueryExecutionResult, error)

	// QuoteIdentifier safely quotes a SQL identifier (table or column name).
	QuoteIdentifier(name string) string

	// Close releases any resources held by the executor.
	Close() error
}

// Connection is an open handle that supports every operation the
// exploration tools need.
type Connection interface {
	ConnectionTester
	SchemaDiscoverer
	QueryExecutor
}

// ColumnInfo describes a result column.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"` // Declared type of the source column, if known
}

// QueryExecutionResult holds the results from executing a query.
type QueryExecutionResult struct {
	Columns   []ColumnInfo     `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	RowCount  int              `json:"row_count"`
	Truncated bool             `json:"truncated"`
}
