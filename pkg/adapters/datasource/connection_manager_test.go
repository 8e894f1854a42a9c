package datasource_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ekaya-inc/sqlite-mcp/pkg/adapters/datasource"
	_ "github.com/ekaya-inc/sqlite-mcp/pkg/adapters/datasource/sqlite"
	"github.com/ekaya-inc/sqlite-mcp/pkg/apperrors"
	"github.com/ekaya-inc/sqlite-mcp/pkg/testhelpers"
)

func newManager(t *testing.T) *datasource.ConnectionManager {
	t.Helper()
	return datasource.NewConnectionManager(datasource.ConnectionManagerConfig{}, nil, zaptest.NewLogger(t))
}

func TestConnectionManager_Unconfigured(t *testing.T) {
	cm := newManager(t)

	_, ok := cm.Path()
	assert.False(t, ok)

	_, err := cm.Open(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrDatabaseUnconfigured))
}

func TestConnectionManager_SetPath(t *testing.T) {
	cm := newManager(t)
	path := testhelpers.CreateUsersDB(t)

	require.NoError(t, cm.SetPath(context.Background(), path))

	got, ok := cm.Path()
	require.True(t, ok)
	assert.Equal(t, path, got)

	conn, err := cm.Open(context.Background(), "")
	require.NoError(t, err)
	defer conn.Close()

	count, err := conn.CountRows(context.Background(), "users")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestConnectionManager_SetPath_Failures(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr error
	}{
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.db") },
			wantErr: apperrors.ErrDatabaseNotFound,
		},
		{
			name:    "not a database",
			path:    testhelpers.CreateNonDatabaseFile,
			wantErr: apperrors.ErrDatabaseUnreadable,
		},
		{
			name:    "directory",
			path:    func(t *testing.T) string { return t.TempDir() },
			wantErr: apperrors.ErrDatabaseUnreadable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cm := newManager(t)
			good := testhelpers.CreateUsersDB(t)
			require.NoError(t, cm.SetPath(context.Background(), good))

			err := cm.SetPath(context.Background(), tt.path(t))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

			got, ok := cm.Path()
			require.True(t, ok, "previous default must survive a failed SetPath")
			assert.Equal(t, good, got)
		})
	}
}

func TestConnectionManager_OverrideWins(t *testing.T) {
	cm := newManager(t)
	require.NoError(t, cm.SetPath(context.Background(), testhelpers.CreateUsersDB(t)))
	other := testhelpers.CreateShopDB(t)

	resolved, err := cm.Resolve(other)
	require.NoError(t, err)
	assert.Equal(t, other, resolved)

	conn, err := cm.Open(context.Background(), other)
	require.NoError(t, err)
	defer conn.Close()

	tables, err := conn.DiscoverTables(context.Background())
	require.NoError(t, err)
	assert.Len(t, tables, 5)
}

func TestConnectionManager_TestConnection_DoesNotChangeDefault(t *testing.T) {
	cm := newManager(t)
	def := testhelpers.CreateUsersDB(t)
	require.NoError(t, cm.SetPath(context.Background(), def))
	other := testhelpers.CreateShopDB(t)

	tested, err := cm.TestConnection(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, other, tested)

	got, _ := cm.Path()
	assert.Equal(t, def, got)

	_, err = cm.TestConnection(context.Background(), filepath.Join(t.TempDir(), "nope.db"))
	assert.True(t, errors.Is(err, apperrors.ErrDatabaseNotFound))
}

func TestConnectionManager_ConcurrentSetPathAndResolve(t *testing.T) {
	cm := newManager(t)
	first := testhelpers.CreateUsersDB(t)
	second := testhelpers.CreateShopDB(t)
	require.NoError(t, cm.SetPath(context.Background(), first))

	valid := map[string]bool{first: true, second: true}

	const iterations = 20
	var wg sync.WaitGroup
	errs := make(chan error, iterations*4)

	for i := 0; i < iterations; i++ {
		wg.Add(4)
		go func(i int) {
			defer wg.Done()
			path := first
			if i%2 == 1 {
				path = second
			}
			if err := cm.SetPath(context.Background(), path); err != nil {
				errs <- err
			}
		}(i)
		go func() {
			defer wg.Done()
			if path, ok := cm.Path(); !ok || !valid[path] {
				errs <- fmt.Errorf("Path returned %q, %v", path, ok)
			}
		}()
		go func() {
			defer wg.Done()
			path, err := cm.Resolve("")
			if err != nil {
				errs <- err
				return
			}
			if !valid[path] {
				errs <- fmt.Errorf("Resolve returned %q", path)
			}
		}()
		go func() {
			defer wg.Done()
			conn, err := cm.Open(context.Background(), second)
			if err != nil {
				errs <- err
				return
			}
			defer conn.Close()
			tables, err := conn.DiscoverTables(context.Background())
			if err != nil {
				errs <- err
				return
			}
			if len(tables) != 5 {
				errs <- fmt.Errorf("override opened a database with %d tables", len(tables))
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}
