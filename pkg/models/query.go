package models

// Intent names a recognized request pattern that shaped a translated query.
type Intent string

const (
	IntentSelect   Intent = "select"
	IntentCount    Intent = "count"
	IntentDistinct Intent = "distinct"
	IntentOrder    Intent = "order"
	IntentLimit    Intent = "limit"
)

// TranslatedQuery is the output of natural-language translation. Only
// identifiers that exist in the schema snapshot appear in it.
type TranslatedQuery struct {
	SQL               string   `json:"sql"`
	ReferencedTable   string   `json:"referenced_table"`
	ReferencedColumns []string `json:"referenced_columns,omitempty"`
	Intents           []Intent `json:"intents,omitempty"`
	// Limit is the row count requested in the text, 0 when none was given.
	Limit             int      `json:"limit,omitempty"`
}

// QueryResult holds the rows returned by a read-only statement.
// Truncated is true when the statement produced more rows than Limit.
type QueryResult struct {
	SQL       string           `json:"sql"`
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	RowCount  int              `json:"row_count"`
	Truncated bool             `json:"truncated"`
	Limit     int              `json:"limit"`
}
