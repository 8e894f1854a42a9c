package tools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ekaya-inc/sqlite-mcp/pkg/apperrors"
)

// Error kinds and codes for request problems caught before any service runs.
const (
	kindRequest              = "request"
	codeInvalidParameters    = "invalid_parameters"
	invalidParametersMessage = "invalid parameters"
)

// Response is the envelope every tool returns. Exactly one of Data and Error
// is set.
type Response struct {
	OK    bool           `json:"ok"`
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse describes a failed tool call. Message never carries raw
// driver output.
type ErrorResponse struct {
	Kind    string        `json:"kind"`
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details *ErrorDetails `json:"details,omitempty"`
}

// ErrorDetails carries structured context for an error.
type ErrorDetails struct {
	Candidates []string `json:"candidates,omitempty"`
}

// NewSuccessResult wraps data in an ok envelope.
func NewSuccessResult(data any) (*mcp.CallToolResult, error) {
	payload, err := json.Marshal(Response{OK: true, Data: data})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// NewErrorResult converts err into an error envelope with IsError set.
//
// Errors outside the apperrors taxonomy are reported as engine failures with
// a generic message so driver text never reaches the client.
func NewErrorResult(err error) *mcp.CallToolResult {
	appErr := apperrors.From(err)

	resp := &ErrorResponse{
		Kind:    string(appErr.Kind),
		Code:    string(appErr.Code),
		Message: appErr.Error(),
	}
	if len(appErr.Candidates) > 0 {
		resp.Details = &ErrorDetails{Candidates: appErr.Candidates}
	}
	return newErrorEnvelope(resp)
}

// NewInvalidParameterResult reports a missing or malformed tool argument.
func NewInvalidParameterResult(message string) *mcp.CallToolResult {
	if message == "" {
		message = invalidParametersMessage
	}
	return newErrorEnvelope(&ErrorResponse{
		Kind:    kindRequest,
		Code:    codeInvalidParameters,
		Message: message,
	})
}

func newErrorEnvelope(resp *ErrorResponse) *mcp.CallToolResult {
	// Ignoring error as marshaling known types should never fail
	payload, _ := json.Marshal(Response{OK: false, Error: resp})

	result := mcp.NewToolResultText(string(payload))
	result.IsError = true
	return result
}
