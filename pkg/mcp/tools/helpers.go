package tools

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ekaya-inc/sqlite-mcp/pkg/audit"
	sqlutil "github.com/ekaya-inc/sqlite-mcp/pkg/sql"
)

// dbPathDescription is shared by every tool that opens the database.
const dbPathDescription = "Optional - Path to a SQLite database file. Defaults to the configured database."

// trimString removes leading and trailing whitespace from a string.
func trimString(s string) string {
	return strings.TrimSpace(s)
}

// getArguments returns the call arguments, or nil when none were sent.
func getArguments(req mcp.CallToolRequest) map[string]any {
	args, _ := req.Params.Arguments.(map[string]any)
	return args
}

// getOptionalString extracts an optional string argument from the request.
func getOptionalString(req mcp.CallToolRequest, key string) string {
	val, ok := getArguments(req)[key].(string)
	if !ok {
		return ""
	}
	return trimString(val)
}

// getRequiredString extracts a non-blank string argument.
func getRequiredString(req mcp.CallToolRequest, key string) (string, error) {
	val := getOptionalString(req, key)
	if val == "" {
		return "", fmt.Errorf("parameter '%s' is required", key)
	}
	return val, nil
}

// getOptionalPositiveInt extracts an optional integer argument. JSON numbers
// arrive as float64; fractional, zero and negative values are rejected.
// Returns 0 when the argument is absent.
func getOptionalPositiveInt(req mcp.CallToolRequest, key string) (int, error) {
	raw, exists := getArguments(req)[key]
	if !exists || raw == nil {
		return 0, nil
	}

	val, ok := raw.(float64)
	if !ok || val != math.Trunc(val) || val < 1 || val > math.MaxInt32 {
		return 0, fmt.Errorf("parameter '%s' must be a positive integer", key)
	}
	return int(val), nil
}

// auditArguments logs every argument libinjection flags. Findings are not
// rejections: identifiers are validated and quoted before they reach SQL.
func auditArguments(ctx context.Context, auditor *audit.SecurityAuditor, tool string, req mcp.CallToolRequest) {
	if auditor == nil {
		return
	}
	for _, finding := range sqlutil.DetectInjectionInArguments(getArguments(req)) {
		auditor.LogInjectionAttempt(ctx, tool, audit.SQLInjectionDetails{
			ParamName:   finding.Argument,
			ParamValue:  finding.Value,
			Fingerprint: finding.Fingerprint,
		})
	}
}
