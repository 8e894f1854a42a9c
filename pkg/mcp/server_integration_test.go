package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/ekaya-inc/sqlite-mcp/pkg/audit"
)

// TestServer_HTTPContextPropagation verifies that a request id placed on the
// HTTP request context reaches MCP tool handlers unchanged.
func TestServer_HTTPContextPropagation(t *testing.T) {
	requestID := uuid.New()
	var received uuid.UUID

	s := NewServer("test-server", "1.0.0", NewToolCallRecorder(nil, zap.NewNop()), zap.NewNop())

	tool := mcp.NewTool("test-request-id", mcp.WithDescription("Test tool that reads the request id from context"))
	s.RegisterTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		received = audit.RequestIDFromContext(ctx)
		return mcp.NewToolResultText("ok"), nil
	})

	httpServer := s.NewStreamableHTTPServer()

	toolCallRequest := map[string]any{
		"jsonrpc": "2.0",
		"method":  "tools/call",
		"params": map[string]any{
			"name": "test-request-id",
		},
		"id": 1,
	}
	body, _ := json.Marshal(toolCallRequest)

	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(audit.WithRequestID(req.Context(), requestID))

	rec := httptest.NewRecorder()
	httpServer.ServeHTTP(rec, req)

	if received != requestID {
		t.Fatalf("expected tool handler to receive request id %s, got %s", requestID, received)
	}
}
