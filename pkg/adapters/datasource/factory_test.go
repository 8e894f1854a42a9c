package datasource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// stubConnection satisfies Connection without touching any database.
type stubConnection struct {
	path   string
	closed bool
}

func (s *stubConnection) TestConnection(ctx context.Context) error { return nil }
func (s *stubConnection) DiscoverTables(ctx context.Context) ([]TableMetadata, error) {
	return []TableMetadata{}, nil
}
func (s *stubConnection) DiscoverColumns(ctx context.Context, tableName string) ([]ColumnMetadata, error) {
	return []ColumnMetadata{}, nil
}
func (s *stubConnection) CountRows(ctx context.Context, tableName string) (int64, error) {
	return 0, nil
}
func (s *stubConnection) AnalyzeColumnStats(ctx context.Context, tableName string, column StatsColumn) (*ColumnStats, error) {
	return &ColumnStats{ColumnName: column.Name}, nil
}
func (s *stubConnection) Query(ctx context.Context, sqlQuery string, limit int) (*QueryExecutionResult, error) {
	return &QueryExecutionResult{}, nil
}
func (s *stubConnection) QuoteIdentifier(name string) string { return `"` + name + `"` }
func (s *stubConnection) Close() error {
	s.closed = true
	return nil
}

var _ Connection = (*stubConnection)(nil)

func registerStub(t *testing.T, dsType string) {
	t.Helper()
	Register(DatasourceAdapterRegistration{
		Info: DatasourceAdapterInfo{Type: dsType, DisplayName: "Stub"},
		Factory: func(ctx context.Context, cfg ConnectionConfig, logger *zap.Logger) (Connection, error) {
			return &stubConnection{path: cfg.Path}, nil
		},
	})
	t.Cleanup(func() {
		registryMu.Lock()
		delete(registry, dsType)
		registryMu.Unlock()
	})
}

func TestFactory_NewConnection(t *testing.T) {
	registerStub(t, "stub-factory")
	factory := NewDatasourceAdapterFactory(zaptest.NewLogger(t))

	conn, err := factory.NewConnection(context.Background(), "stub-factory", ConnectionConfig{Path: "/tmp/a.db"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/a.db", conn.(*stubConnection).path)
}

func TestFactory_UnknownType(t *testing.T) {
	factory := NewDatasourceAdapterFactory(nil)

	_, err := factory.NewConnection(context.Background(), "no-such-type", ConnectionConfig{Path: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-type")
}

func TestRegistry_ListTypesSorted(t *testing.T) {
	registerStub(t, "zz-stub")
	registerStub(t, "aa-stub")

	var types []string
	for _, info := range NewDatasourceAdapterFactory(nil).ListTypes() {
		types = append(types, info.Type)
	}

	assert.Contains(t, types, "aa-stub")
	assert.Contains(t, types, "zz-stub")
	assert.IsIncreasing(t, types)
	assert.True(t, IsRegistered("aa-stub"))
	assert.False(t, IsRegistered("missing"))
	assert.Nil(t, GetFactory("missing"))
}
