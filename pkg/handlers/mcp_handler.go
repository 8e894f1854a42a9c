package handlers

import (
	"net/http"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/sqlite-mcp/pkg/mcp"
	"github.com/ekaya-inc/sqlite-mcp/pkg/middleware"
)

// MCPHandler handles MCP protocol requests over HTTP.
type MCPHandler struct {
	httpServer *server.StreamableHTTPServer
	logger     *zap.Logger
}

// NewMCPHandler creates a new MCP handler from an MCP server.
func NewMCPHandler(mcpServer *mcp.Server, logger *zap.Logger) *MCPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MCPHandler{
		httpServer: mcpServer.NewStreamableHTTPServer(),
		logger:     logger,
	}
}

// RegisterRoutes registers the MCP endpoint at /mcp.
func (h *MCPHandler) RegisterRoutes(mux *http.ServeMux) {
	// Wrap the MCP HTTP server with middleware layers:
	// 1. MCP request/response logging (innermost - logs JSON-RPC details)
	// 2. Method check (rejects non-POST before the body is read)
	// 3. HTTP request logging
	// 4. Request id (outermost - every inner layer sees it)
	var handler http.Handler = middleware.MCPRequestLogger(h.logger)(h.httpServer)
	handler = h.requirePOST(handler)
	handler = middleware.RequestLogger(h.logger)(handler)
	handler = middleware.RequestID(handler)
	mux.Handle("/mcp", handler)
}

// requirePOST returns 405 Method Not Allowed for non-POST requests.
// MCP over HTTP Streaming requires POST for JSON-RPC requests.
func (h *MCPHandler) requirePOST(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			if err := ErrorResponse(w, http.StatusMethodNotAllowed, "method_not_allowed", "MCP requests must use POST"); err != nil {
				h.logger.Error("Failed to encode method error", zap.Error(err))
			}
			return
		}
		next.ServeHTTP(w, r)
	})
}
