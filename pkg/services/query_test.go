package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ekaya-inc/sqlite-mcp/pkg/adapters/datasource"
	"github.com/ekaya-inc/sqlite-mcp/pkg/apperrors"
	"github.com/ekaya-inc/sqlite-mcp/pkg/audit"
	"github.com/ekaya-inc/sqlite-mcp/pkg/testhelpers"
)

// recordingExecutor records statements instead of running them.
type recordingExecutor struct {
	statements []string
	result     *datasource.QueryExecutionResult
	err        error
}

func (r *recordingExecutor) Query(ctx context.Context, sqlQuery string, limit int) (*datasource.QueryExecutionResult, error) {
	r.statements = append(r.statements, sqlQuery)
	if r.err != nil {
		return nil, r.err
	}
	return r.result, nil
}

func (r *recordingExecutor) QuoteIdentifier(name string) string { return `"` + name + `"` }
func (r *recordingExecutor) Close() error                       { return nil }

func newTestQueryService(t *testing.T, limits QueryLimits) QueryService {
	logger := zaptest.NewLogger(t)
	return NewQueryService(NewSafetyValidator(logger), audit.NewSecurityAuditor(logger), limits, logger)
}

func TestQueryService_RunSelect(t *testing.T) {
	path := testhelpers.CreateShopDB(t)
	conn := openFixture(t, path)
	snapshot, err := NewSchemaInspector(nil).Snapshot(context.Background(), conn)
	require.NoError(t, err)

	svc := newTestQueryService(t, QueryLimits{DefaultLimit: 2, MaxRows: 4})

	tests := []struct {
		name          string
		limit         int
		wantRows      int
		wantTruncated bool
		wantLimit     int
	}{
		{name: "default limit", limit: 0, wantRows: 2, wantTruncated: true, wantLimit: 2},
		{name: "explicit limit", limit: 3, wantRows: 3, wantTruncated: true, wantLimit: 3},
		{name: "capped at max rows", limit: 100, wantRows: 4, wantTruncated: true, wantLimit: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.RunSelect(context.Background(), conn, path, "SELECT id, total FROM orders", snapshot, tt.limit)
			require.NoError(t, err)

			assert.Equal(t, "SELECT id, total FROM orders", result.SQL)
			assert.Equal(t, []string{"id", "total"}, result.Columns)
			assert.Equal(t, tt.wantRows, result.RowCount)
			assert.Len(t, result.Rows, tt.wantRows)
			assert.Equal(t, tt.wantTruncated, result.Truncated)
			assert.Equal(t, tt.wantLimit, result.Limit)
		})
	}

	t.Run("fewer rows than limit", func(t *testing.T) {
		result, err := svc.RunSelect(context.Background(), conn, path, "SELECT * FROM products", snapshot, 4)
		require.NoError(t, err)
		assert.Equal(t, 3, result.RowCount)
		assert.False(t, result.Truncated)
	})
}

func TestQueryService_ValidatesBeforeExecuting(t *testing.T) {
	core, recorded := observer.New(zapcore.WarnLevel)
	logger := zap.New(core)
	svc := NewQueryService(NewSafetyValidator(logger), audit.NewSecurityAuditor(logger), QueryLimits{}, logger)
	exec := &recordingExecutor{}

	tests := []struct {
		sql     string
		wantErr error
	}{
		{sql: "DELETE FROM users", wantErr: apperrors.ErrNotReadOnly},
		{sql: `SELECT * FROM "users; DROP TABLE users"`, wantErr: apperrors.ErrMultipleStatements},
		{sql: "SELECT secret FROM users", wantErr: apperrors.ErrUnknownIdentifier},
	}

	for _, tt := range tests {
		_, err := svc.RunSelect(context.Background(), exec, "test.db", tt.sql, shopSnapshot(), 10)
		assert.True(t, errors.Is(err, tt.wantErr), "%s: got %v", tt.sql, err)
	}

	assert.Empty(t, exec.statements, "rejected statements must never reach the executor")
	assert.Equal(t, 3, recorded.FilterMessage("Statement rejected").Len())
}

func TestQueryService_ExecutionErrors(t *testing.T) {
	svc := newTestQueryService(t, QueryLimits{})

	t.Run("taxonomy errors pass through", func(t *testing.T) {
		exec := &recordingExecutor{err: apperrors.New(apperrors.KindExecution, apperrors.CodeTimeout, "query timed out")}
		_, err := svc.RunSelect(context.Background(), exec, "test.db", "SELECT * FROM users", shopSnapshot(), 10)
		assert.True(t, errors.Is(err, apperrors.ErrExecutionTimeout))
	})

	t.Run("unknown errors become engine failures", func(t *testing.T) {
		exec := &recordingExecutor{err: errors.New("SQL logic error: no such function: foo (1)")}
		_, err := svc.RunSelect(context.Background(), exec, "test.db", "SELECT * FROM users", shopSnapshot(), 10)
		assert.True(t, errors.Is(err, apperrors.ErrEngineFailure))
		assert.NotContains(t, apperrors.From(err).Error(), "no such function")
	})
}
