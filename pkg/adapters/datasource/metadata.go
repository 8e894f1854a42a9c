package datasource

// TableMetadata represents a discovered table or view.
type TableMetadata struct {
	TableName string
	Kind      string // "table" or "view"
	CreateSQL string
}

// ColumnMetadata represents a discovered column.
type ColumnMetadata struct {
	ColumnName      string
	DataType        string
	IsNullable      bool
	IsPrimaryKey    bool
	OrdinalPosition int
	DefaultValue    *string
}

// StatsColumn selects which aggregates AnalyzeColumnStats computes.
type StatsColumn struct {
	Name      string
	Orderable bool // compute MIN and MAX
	Numeric   bool // compute AVG
}

// ColumnStats contains statistics for a column.
type ColumnStats struct {
	ColumnName    string
	RowCount      int64
	DistinctCount int64
	NullCount     int64
	Min           any      // nil unless requested and the column has values
	Max           any      // nil unless requested and the column has values
	Avg           *float64 // nil unless requested and the column has values
}
