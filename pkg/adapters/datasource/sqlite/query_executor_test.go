package sqlite

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ekaya-inc/sqlite-mcp/pkg/adapters/datasource"
	"github.com/ekaya-inc/sqlite-mcp/pkg/apperrors"
)

func newMockAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return newAdapter(db, "mock.db", zaptest.NewLogger(t)), mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}

func TestQuery_StreamsUnmodifiedStatement(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(`^SELECT \* FROM users$`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), []byte("alice")).
			AddRow(int64(2), "bob").
			AddRow(int64(3), nil))

	result, err := adapter.Query(context.Background(), "SELECT * FROM users", 2)
	require.NoError(t, err)

	assert.True(t, result.Truncated)
	assert.Equal(t, 2, result.RowCount)
	assert.Equal(t, "alice", result.Rows[0]["name"], "[]byte text should become a string")
	assertSQLMock(t, mock)
}

func TestQuery_LimitDefaults(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	rows := sqlmock.NewRows([]string{"n"})
	for i := 0; i < datasource.MaxQueryLimit+5; i++ {
		rows.AddRow(int64(i))
	}
	mock.ExpectQuery(`SELECT n FROM numbers`).WillReturnRows(rows)

	result, err := adapter.Query(context.Background(), "SELECT n FROM numbers", 0)
	require.NoError(t, err)
	assert.Equal(t, datasource.MaxQueryLimit, result.RowCount)
	assert.True(t, result.Truncated)
}

func TestQuery_MapsDeadlineToTimeout(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(`SELECT`).WillReturnError(context.DeadlineExceeded)

	_, err := adapter.Query(context.Background(), "SELECT 1", 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrExecutionTimeout))
	assertSQLMock(t, mock)
}

func TestQuery_MapsEngineFailure(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("disk I/O error"))

	_, err := adapter.Query(context.Background(), "SELECT 1", 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrEngineFailure))
	assert.NotContains(t, err.Error(), "disk I/O")
}

func TestDiscoverTables_Query(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM sqlite_master`)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "type", "sql"}).
			AddRow("users", "table", "CREATE TABLE users (id INTEGER)").
			AddRow("recent", "view", "CREATE VIEW recent AS SELECT 1"))

	tables, err := adapter.DiscoverTables(context.Background())
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "recent", tables[1].TableName)
	assert.Equal(t, "view", tables[1].Kind)
	assertSQLMock(t, mock)
}

func TestCountRows_QuotesTableName(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "odd ""name"""`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(7)))

	count, err := adapter.CountRows(context.Background(), `odd "name"`)
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assertSQLMock(t, mock)
}

func TestAnalyzeColumnStats_BuildsSingleAggregate(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT COUNT(*), COUNT(DISTINCT "total"), COUNT(*) - COUNT("total"), MIN("total"), MAX("total"), AVG("total") FROM "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"c", "d", "n", "min", "max", "avg"}).
			AddRow(int64(5), int64(5), int64(0), 7.75, 100.0, 38.1))

	stats, err := adapter.AnalyzeColumnStats(context.Background(), "orders",
		datasource.StatsColumn{Name: "total", Orderable: true, Numeric: true})
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.RowCount)
	assert.Equal(t, 7.75, stats.Min)
	assert.Equal(t, 100.0, stats.Max)
	require.NotNil(t, stats.Avg)
	assert.InDelta(t, 38.1, *stats.Avg, 0.0001)
	assertSQLMock(t, mock)
}

func TestMapOpenError(t *testing.T) {
	ctx := context.Background()

	err := mapOpenError(ctx, context.DeadlineExceeded, "x.db")
	assert.True(t, errors.Is(err, apperrors.ErrConnectionTimeout))

	err = mapOpenError(ctx, errors.New("something odd"), "x.db")
	assert.True(t, errors.Is(err, apperrors.ErrDatabaseUnreadable))

	existing := apperrors.New(apperrors.KindConnection, apperrors.CodeNotFound, "gone")
	assert.Same(t, existing, mapOpenError(ctx, existing, "x.db"))
}

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(&Config{Path: "/data/my db?#1.sqlite", BusyTimeout: 5000 * 1e6})
	assert.Equal(t,
		"file:/data/my db%3f%231.sqlite?mode=ro&_pragma=busy_timeout(5000)&_pragma=query_only(1)",
		dsn)
}
