// Package metrics defines the Prometheus metrics exported by sqlite-mcp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Tool call status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics holds the tool call instruments.
type Metrics struct {
	BuildInfo         *prometheus.GaugeVec
	ToolCallsTotal    *prometheus.CounterVec
	ToolCallDuration  *prometheus.HistogramVec
	ToolCallsInFlight prometheus.Gauge
}

// New registers the metrics with reg. Pass prometheus.NewRegistry() in tests
// so registrations never collide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		BuildInfo: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sqlite_mcp_build_info",
			Help: "Build information of the sqlite-mcp server",
		}, []string{"version"}),
		ToolCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sqlite_mcp_tool_calls_total",
			Help: "Total number of MCP tool calls",
		}, []string{"tool", "status"}),
		ToolCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sqlite_mcp_tool_call_duration_seconds",
			Help:    "Duration of MCP tool calls in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool"}),
		ToolCallsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sqlite_mcp_tool_calls_in_flight",
			Help: "Number of MCP tool calls currently being processed",
		}),
	}
}

// SetBuildInfo records the running version.
func (m *Metrics) SetBuildInfo(version string) {
	m.BuildInfo.WithLabelValues(version).Set(1)
}
