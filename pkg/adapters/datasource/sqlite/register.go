package sqlite

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/sqlite-mcp/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.DatasourceAdapterRegistration{
		Info: datasource.DatasourceAdapterInfo{
			Type:        "sqlite",
			DisplayName: "SQLite",
			Description: "Read-only access to SQLite 3 database files",
		},
		Factory: func(ctx context.Context, config datasource.ConnectionConfig, logger *zap.Logger) (datasource.Connection, error) {
			cfg, err := FromConnectionConfig(config)
			if err != nil {
				return nil, err
			}
			return NewAdapter(ctx, cfg, logger)
		},
	})
}
