package handlers

import (
	"net/http"
	"os"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ekaya-inc/sqlite-mcp/pkg/config"
	"github.com/ekaya-inc/sqlite-mcp/pkg/logging"
)

// ServiceName is reported by /ping.
const ServiceName = "sqlite-mcp"

// DefaultPathProvider exposes the process-wide default database path.
// Implemented by datasource.ConnectionManager.
type DefaultPathProvider interface {
	Path() (string, bool)
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status   string          `json:"status"`
	Version  string          `json:"version"`
	Database *DatabaseHealth `json:"database"`
}

// DatabaseHealth describes the default database, if one is configured.
type DatabaseHealth struct {
	Configured bool   `json:"configured"`
	Path       string `json:"path,omitempty"`
}

// PingResponse contains service status and version information.
type PingResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Service     string `json:"service"`
	GoVersion   string `json:"go_version"`
	Hostname    string `json:"hostname"`
	Environment string `json:"environment"`
}

// HealthHandler handles health check, ping and metrics endpoints.
type HealthHandler struct {
	cfg      *config.Config
	paths    DefaultPathProvider
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. paths and gatherer may be nil.
func NewHealthHandler(cfg *config.Config, paths DefaultPathProvider, gatherer prometheus.Gatherer, logger *zap.Logger) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{cfg: cfg, paths: paths, gatherer: gatherer, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
// /metrics is only served when a gatherer was supplied.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ping", h.Ping)
	if h.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
}

// Health handles GET /health requests.
// The server is healthy without a default database; tools can still be
// called with db_path.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:   "ok",
		Version:  h.cfg.Version,
		Database: &DatabaseHealth{},
	}
	if h.paths != nil {
		if path, ok := h.paths.Path(); ok {
			response.Database.Configured = true
			response.Database.Path = logging.SanitizePath(path)
		}
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode health response", zap.Error(err))
	}
}

// Ping handles GET /ping requests.
// Returns detailed service information including version and environment.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to get hostname"); err != nil {
			h.logger.Error("Failed to encode ping error", zap.Error(err))
		}
		return
	}

	response := PingResponse{
		Status:      "ok",
		Version:     h.cfg.Version,
		Service:     ServiceName,
		GoVersion:   runtime.Version(),
		Hostname:    hostname,
		Environment: h.cfg.Env,
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}
