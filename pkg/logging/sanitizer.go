package logging

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// MaxQueryLogLength is the maximum length of a query to log
	MaxQueryLogLength = 100
	// MaxTextLogLength is the maximum length of free-text requests to log
	MaxTextLogLength = 200
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// Matches password=xxx, pwd=xxx, pass=xxx (until next delimiter)
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Matches key=xxx for SQLCipher-style keys passed in URIs
	keyPattern = regexp.MustCompile(`(?i)(key|hexkey|api[_-]?key)=[^;&\s]+`)

	// Matches string literals so that values in logged SQL are not exposed
	stringLiteralPattern = regexp.MustCompile(`'(?:[^']|'')*'`)
)

// SanitizeError sanitizes error messages that might contain sensitive data.
// Use this before logging any error from database operations.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	sanitized := passwordPattern.ReplaceAllString(err.Error(), "${1}="+RedactedText)
	sanitized = keyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	return sanitized
}

// SanitizeQuery truncates a SQL query for logging and masks its string
// literals, which may hold user data.
func SanitizeQuery(query string) string {
	if query == "" {
		return ""
	}

	sanitized := stringLiteralPattern.ReplaceAllString(query, "'?'")
	return TruncateString(sanitized, MaxQueryLogLength)
}

// SanitizePath shortens paths under the user's home directory to "~/..."
// and strips URI query parameters such as encryption keys.
func SanitizePath(path string) string {
	if path == "" {
		return ""
	}
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		path = path[:idx]
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		if rel, err := filepath.Rel(home, path); err == nil && !strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel) {
			return filepath.Join("~", rel)
		}
	}
	return path
}

// TruncateString truncates a string to maxLen and adds ellipsis if needed
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
