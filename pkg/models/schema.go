package models

import "strings"

// TableKind distinguishes ordinary tables from views.
type TableKind string

const (
	TableKindTable TableKind = "table"
	TableKindView  TableKind = "view"
)

// SemanticType is the storage class a column's declared type maps to.
type SemanticType string

const (
	SemanticText    SemanticType = "text"
	SemanticInteger SemanticType = "integer"
	SemanticReal    SemanticType = "real"
	SemanticBlob    SemanticType = "blob"
	SemanticUnknown SemanticType = "unknown"
)

// TableDescriptor describes a table or view as read from the catalog.
type TableDescriptor struct {
	Name      string             `json:"name"`
	Kind      TableKind          `json:"kind"`
	Columns   []ColumnDescriptor `json:"columns"`
	RowCount  *int64             `json:"row_count,omitempty"`
	CreateSQL string             `json:"create_sql,omitempty"`
}

// ColumnDescriptor describes a single column, in declaration order.
type ColumnDescriptor struct {
	Name         string       `json:"name"`
	DeclaredType string       `json:"declared_type"`
	Type         SemanticType `json:"type"`
	Nullable     bool         `json:"nullable"`
	PrimaryKey   bool         `json:"primary_key"`
	DefaultValue *string      `json:"default_value,omitempty"`
}

// ColumnNames returns the column names in declaration order.
func (t *TableDescriptor) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the column with the given name, compared case-insensitively
// as SQLite does.
func (t *TableDescriptor) Column(name string) (ColumnDescriptor, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return ColumnDescriptor{}, false
}

// IsNumeric reports whether the column holds integer or real values.
func (c ColumnDescriptor) IsNumeric() bool {
	return c.Type == SemanticInteger || c.Type == SemanticReal
}

// IsOrderable reports whether min/max are meaningful for the column:
// numeric columns and columns declared as dates or timestamps.
func (c ColumnDescriptor) IsOrderable() bool {
	if c.IsNumeric() {
		return true
	}
	declared := strings.ToUpper(c.DeclaredType)
	return strings.Contains(declared, "DATE") || strings.Contains(declared, "TIME")
}

// SemanticTypeOf maps a declared column type to a semantic type using
// SQLite's affinity rules. Types that only carry NUMERIC affinity without
// naming a numeric family (DATE, BOOLEAN, an empty type) map to unknown.
func SemanticTypeOf(declared string) SemanticType {
	t := strings.ToUpper(strings.TrimSpace(declared))
	switch {
	case t == "":
		return SemanticUnknown
	case strings.Contains(t, "INT"):
		return SemanticInteger
	case strings.Contains(t, "CHAR"), strings.Contains(t, "CLOB"), strings.Contains(t, "TEXT"):
		return SemanticText
	case strings.Contains(t, "BLOB"):
		return SemanticBlob
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"),
		strings.Contains(t, "NUMERIC"), strings.Contains(t, "DECIMAL"):
		return SemanticReal
	default:
		return SemanticUnknown
	}
}

// SchemaSnapshot maps table names to descriptors, read once per operation.
type SchemaSnapshot map[string]*TableDescriptor

// TableNames returns the snapshot's table names in no particular order.
func (s SchemaSnapshot) TableNames() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	return names
}

// Lookup finds a table by name, falling back to a case-insensitive match
// because SQLite resolves identifiers without regard to case.
func (s SchemaSnapshot) Lookup(name string) (*TableDescriptor, bool) {
	if t, ok := s[name]; ok {
		return t, true
	}
	for key, t := range s {
		if strings.EqualFold(key, name) {
			return t, true
		}
	}
	return nil, false
}

// TableOverview summarizes one table in a database overview. Error is set
// instead of RowCount when the table could not be inspected.
type TableOverview struct {
	Kind     TableKind `json:"kind,omitempty"`
	RowCount *int64    `json:"row_count,omitempty"`
	Columns  []string  `json:"columns,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// DatabaseOverview summarizes every table in a database.
type DatabaseOverview struct {
	Path       string                   `json:"path"`
	TableCount int                      `json:"table_count"`
	Tables     map[string]TableOverview `json:"tables"`
}

// ColumnStatistics holds aggregate statistics for one column. Min and Max are
// nil unless the column is orderable; Avg is nil unless it is numeric.
type ColumnStatistics struct {
	Table         string       `json:"table"`
	Column        string       `json:"column"`
	Type          SemanticType `json:"type"`
	Count         int64        `json:"count"`
	DistinctCount int64        `json:"distinct_count"`
	NullCount     int64        `json:"null_count"`
	Min           any          `json:"min"`
	Max           any          `json:"max"`
	Avg           *float64     `json:"avg,omitempty"`
}
