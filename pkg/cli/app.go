// Package cli provides the sqlite-mcp command-line interface: the MCP server
// and a few local exploration commands that share its service graph.
package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/ekaya-inc/sqlite-mcp/pkg/adapters/datasource"
	_ "github.com/ekaya-inc/sqlite-mcp/pkg/adapters/datasource/sqlite" // registers the sqlite adapter
	"github.com/ekaya-inc/sqlite-mcp/pkg/audit"
	"github.com/ekaya-inc/sqlite-mcp/pkg/config"
	"github.com/ekaya-inc/sqlite-mcp/pkg/logging"
	"github.com/ekaya-inc/sqlite-mcp/pkg/mcp"
	"github.com/ekaya-inc/sqlite-mcp/pkg/mcp/tools"
	"github.com/ekaya-inc/sqlite-mcp/pkg/metrics"
	"github.com/ekaya-inc/sqlite-mcp/pkg/services"
)

// App is the wired service graph shared by every command.
type App struct {
	Config      *config.Config
	Logger      *zap.Logger
	Connections *datasource.ConnectionManager
	Auditor     *audit.SecurityAuditor
	Exploration services.ExplorationService
	Registry    *prometheus.Registry
	Metrics     *metrics.Metrics
}

// NewApp builds the service graph from cfg. A configured database path that
// cannot be opened is logged and left unset; tools can still pass db_path.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}

	connections := datasource.NewConnectionManager(datasource.ConnectionManagerConfig{
		BusyTimeout: cfg.Database.BusyTimeout,
	}, nil, logger)

	if cfg.Database.Path != "" {
		if err := connections.SetPath(ctx, cfg.Database.Path); err != nil {
			logger.Warn("Default database unavailable",
				zap.String("path", logging.SanitizePath(cfg.Database.Path)),
				zap.String("error", logging.SanitizeError(err)),
			)
		} else {
			logger.Info("Default database set", zap.String("path", logging.SanitizePath(cfg.Database.Path)))
		}
	}

	auditor := audit.NewSecurityAuditor(logger)
	schema := services.NewSchemaInspector(logger)
	validator := services.NewSafetyValidator(logger)
	exploration := services.NewExplorationService(
		connections,
		schema,
		services.NewStatisticsEngine(schema, logger),
		services.NewQueryTranslator(cfg.Query.MaxRows, logger),
		validator,
		services.NewQueryService(validator, auditor, services.QueryLimits{
			DefaultLimit: cfg.Query.DefaultLimit,
			MaxRows:      cfg.Query.MaxRows,
		}, logger),
		services.ExplorationConfig{
			QueryTimeout: cfg.Database.QueryTimeout,
			PreviewLimit: cfg.Query.PreviewLimit,
		},
		logger,
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)
	m.SetBuildInfo(cfg.Version)

	return &App{
		Config:      cfg,
		Logger:      logger,
		Connections: connections,
		Auditor:     auditor,
		Exploration: exploration,
		Registry:    registry,
		Metrics:     m,
	}
}

// NewMCPServer creates an instrumented MCP server with every tool registered.
func (a *App) NewMCPServer() *mcp.Server {
	recorder := mcp.NewToolCallRecorder(a.Metrics, a.Logger)
	s := mcp.NewServer("sqlite-mcp", a.Config.Version, recorder, a.Logger)

	tools.RegisterHealthTool(s.MCP(), a.Config.Version)
	tools.RegisterExplorationTools(s.MCP(), &tools.ToolDeps{
		Exploration: a.Exploration,
		Auditor:     a.Auditor,
		Logger:      a.Logger,
	})
	return s
}

// NewLogger builds the process logger. Output always goes to stderr because
// the stdio transport owns stdout.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	var zapCfg zap.Config
	if cfg.Env == "local" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = level
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger.With(zap.String("service", "sqlite-mcp")), nil
}
