package tools

import (
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterHealthTool(t *testing.T) {
	mcpServer := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))

	RegisterHealthTool(mcpServer, "test-version")

	tools := listTools(t, mcpServer)
	assert.Equal(t, "Returns server health status and version", tools["health"])
}

func TestHealthTool_Execute(t *testing.T) {
	mcpServer := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	RegisterHealthTool(mcpServer, "1.2.3")

	resp := callTool(t, mcpServer, "health", nil)
	require.True(t, resp.OK)

	var health healthResult
	require.NoError(t, json.Unmarshal(resp.Data, &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "1.2.3", health.Version)
}

func TestHealthTool_VersionWithSpecialChars(t *testing.T) {
	// Test that version with special characters is properly JSON-escaped
	mcpServer := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	versionWithQuotes := `1.0.0-beta"test`
	RegisterHealthTool(mcpServer, versionWithQuotes)

	resp := callTool(t, mcpServer, "health", nil)
	require.True(t, resp.OK)

	var health healthResult
	require.NoError(t, json.Unmarshal(resp.Data, &health))
	assert.Equal(t, versionWithQuotes, health.Version)
}
