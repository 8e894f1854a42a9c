// Package audit provides security audit logging for SIEM consumption.
// It logs security-relevant events in structured JSON format for easy parsing
// and integration with security information and event management systems.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/sqlite-mcp/pkg/logging"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventSQLInjectionAttempt is logged when libinjection detects SQL injection patterns
	// in a tool argument.
	EventSQLInjectionAttempt SecurityEventType = "sql_injection_attempt"
	// EventSafetyRejection is logged when the safety validator refuses a statement.
	EventSafetyRejection SecurityEventType = "safety_rejection"
	// EventQueryExecution is logged for successful query execution (can be high volume).
	EventQueryExecution SecurityEventType = "query_execution"
)

type requestIDKey struct{}

// WithRequestID returns a context carrying id for audit correlation.
func WithRequestID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id stored by WithRequestID, or
// uuid.Nil when there is none.
func RequestIDFromContext(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(requestIDKey{}).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// SecurityEvent represents an auditable security event with all relevant context
// for SIEM ingestion and analysis.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	RequestID uuid.UUID         `json:"request_id"`
	Tool      string            `json:"tool,omitempty"`
	Database  string            `json:"database,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// SQLInjectionDetails contains specifics of a detected SQL injection attempt.
type SQLInjectionDetails struct {
	ParamName   string `json:"param_name"`
	ParamValue  string `json:"param_value"`
	Fingerprint string `json:"fingerprint"` // libinjection fingerprint for pattern analysis
}

// SecurityAuditor logs security events for SIEM consumption.
// Events are logged in structured JSON format with appropriate severity levels.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates a new security auditor with a dedicated logger namespace.
// The logger is automatically configured with "security_audit" namespace for easy
// filtering in SIEM systems.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

// LogInjectionAttempt records a tool argument that libinjection flagged.
// Arguments are never interpolated into SQL, so this is logged rather than
// rejected; it is still logged at ERROR level with "critical" severity for
// alerting.
//
// Example usage:
//
//	auditor.LogInjectionAttempt(ctx, "get_table_preview",
//	    audit.SQLInjectionDetails{
//	        ParamName:   "table_name",
//	        ParamValue:  "users' OR '1'='1",
//	        Fingerprint: "s&sos",
//	    },
//	)
func (a *SecurityAuditor) LogInjectionAttempt(ctx context.Context, tool string, details SQLInjectionDetails) {
	requestID := RequestIDFromContext(ctx)
	details.ParamValue = logging.TruncateString(details.ParamValue, logging.MaxTextLogLength)

	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventSQLInjectionAttempt,
		RequestID: requestID,
		Tool:      tool,
		Details:   details,
		Severity:  "critical",
	}

	// Ignoring error as marshaling known types should never fail
	eventJSON, _ := json.Marshal(event)

	a.logger.Error("SQL injection pattern detected",
		zap.String("event_json", string(eventJSON)),
		zap.String("request_id", requestID.String()),
		zap.String("tool", tool),
		zap.String("param_name", details.ParamName),
		zap.String("fingerprint", details.Fingerprint),
		zap.String("severity", "critical"),
	)
}

// LogSafetyRejection records a statement refused by the safety validator.
// This is logged at WARN level: most rejections are malformed requests, not
// attacks.
func (a *SecurityAuditor) LogSafetyRejection(ctx context.Context, database, statement, reason string) {
	requestID := RequestIDFromContext(ctx)
	sanitized := logging.SanitizeQuery(statement)

	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventSafetyRejection,
		RequestID: requestID,
		Database:  logging.SanitizePath(database),
		Details: map[string]string{
			"statement": sanitized,
			"reason":    reason,
		},
		Severity: "warning",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Warn("Statement rejected",
		zap.String("event_json", string(eventJSON)),
		zap.String("request_id", requestID.String()),
		zap.String("statement", sanitized),
		zap.String("reason", reason),
		zap.String("severity", "warning"),
	)
}

// LogQueryExecution records a successful query execution for audit trail.
// This is logged at INFO level.
// Note: This can generate high log volume in production.
func (a *SecurityAuditor) LogQueryExecution(ctx context.Context, database, statement string, rowCount int) {
	requestID := RequestIDFromContext(ctx)
	sanitized := logging.SanitizeQuery(statement)

	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventQueryExecution,
		RequestID: requestID,
		Database:  logging.SanitizePath(database),
		Details: map[string]any{
			"statement": sanitized,
			"row_count": rowCount,
		},
		Severity: "info",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Info("Query executed",
		zap.String("event_json", string(eventJSON)),
		zap.String("request_id", requestID.String()),
		zap.String("statement", sanitized),
		zap.Int("row_count", rowCount),
		zap.String("severity", "info"),
	)
}
