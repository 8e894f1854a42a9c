package datasource

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// DatasourceAdapterFactory creates connections from the registry.
type DatasourceAdapterFactory interface {
	// NewConnection opens a connection using the adapter registered for dsType.
	NewConnection(ctx context.Context, dsType string, cfg ConnectionConfig) (Connection, error)

	// ListTypes returns info for all registered adapter types.
	ListTypes() []DatasourceAdapterInfo
}

type registryFactory struct {
	logger *zap.Logger
}

// NewDatasourceAdapterFactory returns a factory that uses the global registry.
func NewDatasourceAdapterFactory(logger *zap.Logger) DatasourceAdapterFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &registryFactory{logger: logger}
}

func (f *registryFactory) NewConnection(ctx context.Context, dsType string, cfg ConnectionConfig) (Connection, error) {
	factory := GetFactory(dsType)
	if factory == nil {
		return nil, fmt.Errorf("unsupported datasource type: %s (not compiled in)", dsType)
	}
	return factory(ctx, cfg, f.logger)
}

func (f *registryFactory) ListTypes() []DatasourceAdapterInfo {
	return RegisteredAdapters()
}

// Ensure registryFactory implements DatasourceAdapterFactory at compile time.
var _ DatasourceAdapterFactory = (*registryFactory)(nil)
