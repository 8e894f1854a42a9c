package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/sqlite-mcp/pkg/apperrors"
)

// getTextContent extracts the text string from the first text content item
func getTextContent(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	// The Content slice contains mcp.Content interface types
	// We need to marshal and unmarshal to extract the text
	jsonBytes, _ := json.Marshal(result.Content[0])
	var textContent struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	_ = json.Unmarshal(jsonBytes, &textContent)
	return textContent.Text
}

func decodeResult(t *testing.T, result *mcp.CallToolResult) Response {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(getTextContent(result)), &resp))
	return resp
}

func TestNewErrorResult(t *testing.T) {
	err := apperrors.New(apperrors.KindSchema, apperrors.CodeTableNotFound, "table %q not found", "people")

	result := NewErrorResult(fmt.Errorf("failed to describe table: %w", err))
	assert.True(t, result.IsError)

	resp := decodeResult(t, result)
	assert.False(t, resp.OK)
	assert.Nil(t, resp.Data)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "schema", resp.Error.Kind)
	assert.Equal(t, "table_not_found", resp.Error.Code)
	assert.Equal(t, `table "people" not found`, resp.Error.Message)
	assert.Nil(t, resp.Error.Details, "details should be nil when there are no candidates")
}

func TestNewErrorResult_Candidates(t *testing.T) {
	err := apperrors.Ambiguous("table reference", "orders", []string{"order_items", "orders"})

	resp := decodeResult(t, NewErrorResult(err))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "translation", resp.Error.Kind)
	assert.Equal(t, "ambiguous", resp.Error.Code)
	require.NotNil(t, resp.Error.Details)
	assert.Equal(t, []string{"order_items", "orders"}, resp.Error.Details.Candidates)
}

func TestNewErrorResult_HidesDriverErrors(t *testing.T) {
	resp := decodeResult(t, NewErrorResult(errors.New("SQL logic error: no such column: secret (1)")))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "execution", resp.Error.Kind)
	assert.Equal(t, "engine_failure", resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, "secret")
}

func TestNewInvalidParameterResult(t *testing.T) {
	result := NewInvalidParameterResult("parameter 'table_name' is required")
	assert.True(t, result.IsError)

	resp := decodeResult(t, result)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "request", resp.Error.Kind)
	assert.Equal(t, "invalid_parameters", resp.Error.Code)
	assert.Equal(t, "parameter 'table_name' is required", resp.Error.Message)

	resp = decodeResult(t, NewInvalidParameterResult(""))
	assert.Equal(t, "invalid parameters", resp.Error.Message)
}

func TestNewSuccessResult(t *testing.T) {
	result, err := NewSuccessResult(map[string]any{"tables": []string{"users"}})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	text := getTextContent(result)
	assert.JSONEq(t, `{"ok":true,"data":{"tables":["users"]}}`, text)
}

func TestNewSuccessResult_MarshalError(t *testing.T) {
	_, err := NewSuccessResult(map[string]any{"bad": make(chan int)})
	assert.Error(t, err)
}
