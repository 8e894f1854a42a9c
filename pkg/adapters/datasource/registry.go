package datasource

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DatasourceAdapterInfo describes a registered adapter.
type DatasourceAdapterInfo struct {
	Type        string `json:"type"`         // "sqlite"
	DisplayName string `json:"display_name"` // "SQLite"
	Description string `json:"description"`
}

// ConnectionConfig is everything an adapter needs to open one database.
type ConnectionConfig struct {
	Path        string
	BusyTimeout time.Duration
}

// ConnectionFactory opens a connection for the given configuration.
type ConnectionFactory func(ctx context.Context, cfg ConnectionConfig, logger *zap.Logger) (Connection, error)

// DatasourceAdapterRegistration contains info + factory for creating connections.
type DatasourceAdapterRegistration struct {
	Info    DatasourceAdapterInfo
	Factory ConnectionFactory
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]DatasourceAdapterRegistration)
)

// Register is called by each adapter's init() function.
// Thread-safe for concurrent init() calls.
func Register(reg DatasourceAdapterRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Type] = reg
}

// RegisteredAdapters returns info for all registered adapters, sorted by type.
func RegisteredAdapters() []DatasourceAdapterInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]DatasourceAdapterInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type < result[j].Type })
	return result
}

// GetFactory returns the factory for a datasource type.
// Returns nil if type is not registered.
func GetFactory(dsType string) ConnectionFactory {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if reg, ok := registry[dsType]; ok {
		return reg.Factory
	}
	return nil
}

// IsRegistered checks if an adapter type is available.
func IsRegistered(dsType string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[dsType]
	return ok
}
