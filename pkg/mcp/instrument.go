package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/sqlite-mcp/pkg/audit"
	"github.com/ekaya-inc/sqlite-mcp/pkg/logging"
	"github.com/ekaya-inc/sqlite-mcp/pkg/metrics"
)

// maxParamLength bounds string parameters copied into tool call logs.
const maxParamLength = 512

// ToolCallRecorder logs and measures every tool call.
type ToolCallRecorder struct {
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewToolCallRecorder creates a recorder. A nil metrics disables measurement.
func NewToolCallRecorder(m *metrics.Metrics, logger *zap.Logger) *ToolCallRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ToolCallRecorder{
		metrics: m,
		logger:  logger.Named("mcp-tools"),
	}
}

// Middleware tags each call with a request id, then records its outcome.
func (r *ToolCallRecorder) Middleware(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		requestID := audit.RequestIDFromContext(ctx)
		if requestID == uuid.Nil {
			requestID = uuid.New()
			ctx = audit.WithRequestID(ctx, requestID)
		}

		toolName := req.Params.Name
		start := time.Now()
		if r.metrics != nil {
			r.metrics.ToolCallsInFlight.Inc()
			defer r.metrics.ToolCallsInFlight.Dec()
		}

		result, err := next(ctx, req)

		duration := time.Since(start)
		status := metrics.StatusOK
		if err != nil || (result != nil && result.IsError) {
			status = metrics.StatusError
		}
		if r.metrics != nil {
			r.metrics.ToolCallsTotal.WithLabelValues(toolName, status).Inc()
			r.metrics.ToolCallDuration.WithLabelValues(toolName).Observe(duration.Seconds())
		}

		fields := []zap.Field{
			zap.String("request_id", requestID.String()),
			zap.String("tool", toolName),
			zap.String("status", status),
			zap.Duration("duration", duration),
			zap.Any("params", sanitizeParams(req.Params.Arguments)),
		}
		if err != nil {
			r.logger.Error("Tool call failed", append(fields, zap.String("error", logging.SanitizeError(err)))...)
			return result, err
		}
		summary := summarizeResult(result)
		for _, key := range []string{"error_code", "row_count"} {
			if v, ok := summary[key]; ok {
				fields = append(fields, zap.Any(key, v))
			}
		}
		r.logger.Info("Tool call completed", fields...)

		return result, nil
	}
}

// sanitizeParams copies request parameters for logging with long strings
// truncated.
func sanitizeParams(args any) map[string]any {
	params, ok := args.(map[string]any)
	if !ok || len(params) == 0 {
		return nil
	}

	sanitized := make(map[string]any, len(params))
	for k, v := range params {
		if s, ok := v.(string); ok {
			sanitized[k] = logging.TruncateString(s, maxParamLength)
			continue
		}
		sanitized[k] = v
	}
	return sanitized
}

// summarizeResult creates a compact summary of the tool result envelope.
func summarizeResult(result *mcplib.CallToolResult) map[string]any {
	if result == nil {
		return nil
	}

	summary := map[string]any{
		"is_error": result.IsError,
	}

	for _, c := range result.Content {
		if tc, ok := c.(mcplib.TextContent); ok {
			extractEnvelopeFields(tc.Text, summary)
			break
		}
	}
	return summary
}

// extractEnvelopeFields pulls the error code or row count out of a tool
// envelope. Text that is not an envelope leaves summary untouched.
func extractEnvelopeFields(text string, summary map[string]any) {
	var envelope struct {
		OK   bool `json:"ok"`
		Data struct {
			RowCount *int `json:"row_count"`
		} `json:"data"`
		Error *struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		return
	}
	if envelope.Error != nil {
		summary["error_code"] = envelope.Error.Code
	}
	if envelope.Data.RowCount != nil {
		summary["row_count"] = *envelope.Data.RowCount
	}
}
