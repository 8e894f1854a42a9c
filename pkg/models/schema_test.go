package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSemanticTypeOf(t *testing.T) {
	tests := []struct {
		declared string
		want     SemanticType
	}{
		{"INTEGER", SemanticInteger},
		{"int", SemanticInteger},
		{"BIGINT", SemanticInteger},
		{"UNSIGNED BIG INT", SemanticInteger},
		{"TEXT", SemanticText},
		{"VARCHAR(255)", SemanticText},
		{"NCHAR(55)", SemanticText},
		{"CLOB", SemanticText},
		{"BLOB", SemanticBlob},
		{"REAL", SemanticReal},
		{"DOUBLE PRECISION", SemanticReal},
		{"FLOAT", SemanticReal},
		{"NUMERIC", SemanticReal},
		{"DECIMAL(10,5)", SemanticReal},
		{"DATE", SemanticUnknown},
		{"DATETIME", SemanticUnknown},
		{"BOOLEAN", SemanticUnknown},
		{"", SemanticUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.declared, func(t *testing.T) {
			assert.Equal(t, tt.want, SemanticTypeOf(tt.declared))
		})
	}
}

func TestColumnDescriptor_IsOrderable(t *testing.T) {
	tests := []struct {
		name string
		col  ColumnDescriptor
		want bool
	}{
		{"integer", ColumnDescriptor{DeclaredType: "INTEGER", Type: SemanticInteger}, true},
		{"real", ColumnDescriptor{DeclaredType: "REAL", Type: SemanticReal}, true},
		{"date", ColumnDescriptor{DeclaredType: "DATE", Type: SemanticUnknown}, true},
		{"timestamp", ColumnDescriptor{DeclaredType: "TIMESTAMP", Type: SemanticUnknown}, true},
		{"text", ColumnDescriptor{DeclaredType: "TEXT", Type: SemanticText}, false},
		{"blob", ColumnDescriptor{DeclaredType: "BLOB", Type: SemanticBlob}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.col.IsOrderable())
		})
	}
}

func TestTableDescriptor_Column(t *testing.T) {
	table := &TableDescriptor{
		Name: "users",
		Columns: []ColumnDescriptor{
			{Name: "id", Type: SemanticInteger},
			{Name: "Email", Type: SemanticText},
		},
	}

	col, ok := table.Column("email")
	assert.True(t, ok)
	assert.Equal(t, "Email", col.Name)

	_, ok = table.Column("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"id", "Email"}, table.ColumnNames())
}

func TestSchemaSnapshot_Lookup(t *testing.T) {
	snapshot := SchemaSnapshot{
		"Users": {Name: "Users"},
	}

	table, ok := snapshot.Lookup("Users")
	assert.True(t, ok)
	assert.Equal(t, "Users", table.Name)

	table, ok = snapshot.Lookup("users")
	assert.True(t, ok)
	assert.Equal(t, "Users", table.Name)

	_, ok = snapshot.Lookup("orders")
	assert.False(t, ok)
}
