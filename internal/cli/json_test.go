package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/rileyhilliard/fleetdash/internal/agentapi"
	"github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachineMode_DefaultValue(t *testing.T) {
	oldMode := machineMode
	defer func() { machineMode = oldMode }()

	machineMode = false
	assert.False(t, MachineMode())

	machineMode = true
	assert.True(t, MachineMode())
}

func TestWriteJSONSuccess_BasicData(t *testing.T) {
	var buf bytes.Buffer

	err := WriteJSONSuccess(&buf, map[string]string{"key": "value"})
	require.NoError(t, err)

	var env JSONEnvelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))

	assert.True(t, env.Success)
	assert.Nil(t, env.Error)
	dataMap, ok := env.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "value", dataMap["key"])
}

func TestWriteJSONSuccess_NilData(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSONSuccess(&buf, nil))

	var env JSONEnvelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Nil(t, env.Data)
	assert.Nil(t, env.Error)
}

func TestWriteJSONError_AllFields(t *testing.T) {
	var buf bytes.Buffer

	details := map[string]string{"agent": "web-1"}
	err := WriteJSONError(&buf, ErrCodeTimeout, "Request timed out", "Check the agent is reachable", details)
	require.NoError(t, err)

	var env JSONEnvelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))

	assert.False(t, env.Success)
	assert.Nil(t, env.Data)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCodeTimeout, env.Error.Code)
	assert.Equal(t, "Request timed out", env.Error.Message)
	assert.Equal(t, "Check the agent is reachable", env.Error.Suggestion)

	detailsMap, ok := env.Error.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "web-1", detailsMap["agent"])
}

func TestWriteJSONFromError_StructuredError(t *testing.T) {
	var buf bytes.Buffer
	err := errors.New(errors.ErrConfig, "Config file not found", "Run 'fleetdash init'")
	require.NoError(t, WriteJSONFromError(&buf, err))

	var env JSONEnvelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCodeConfigNotFound, env.Error.Code)
	assert.Equal(t, "Config file not found", env.Error.Message)
	assert.Equal(t, "Run 'fleetdash init'", env.Error.Suggestion)
}

func TestErrorToJSON_NilReturnsNil(t *testing.T) {
	assert.Nil(t, ErrorToJSON(nil))
}

func TestErrorToJSON_GenericError(t *testing.T) {
	result := ErrorToJSON(fmt.Errorf("something broke"))
	require.NotNil(t, result)
	assert.Equal(t, ErrCodeUnknown, result.Code)
	assert.Equal(t, "something broke", result.Message)
}

func TestErrorToJSON_AllInternalErrorCodes(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		wantCode string
	}{
		{"config not found", errors.ErrConfig, "Config file not found", ErrCodeConfigNotFound},
		{"config invalid", errors.ErrConfig, "Failed to parse config", ErrCodeConfigInvalid},
		{"confirmation", errors.ErrConfig, "Deleting needs --yes when not run from a terminal", ErrCodeConfirmRequired},
		{"agent not found", errors.ErrFetch, "Agent 'x' not found", ErrCodeAgentNotFound},
		{"fetch", errors.ErrFetch, "Couldn't fetch agents", ErrCodeFetchFailed},
		{"files", errors.ErrFiles, "big.iso is over the limit", ErrCodeFileRejected},
		{"transfer", errors.ErrTransfer, "upload failed", ErrCodeTransferFailed},
		{"notify", errors.ErrNotify, "send failed", ErrCodeNotifyFailed},
		{"unknown code", "OTHER", "whatever", ErrCodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ErrorToJSON(errors.New(tt.code, tt.message, ""))
			assert.Equal(t, tt.wantCode, result.Code)
			assert.Equal(t, tt.message, result.Message)
		})
	}
}

func TestErrorToJSON_APIErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "not found",
			err:      &agentapi.HTTPError{Op: "download", URL: "http://a/x", StatusCode: 404},
			wantCode: ErrCodeNotFound,
		},
		{
			name:     "server error",
			err:      &agentapi.HTTPError{Op: "fetch agents", URL: "http://f", StatusCode: 502},
			wantCode: ErrCodeHTTPStatus,
		},
		{
			name:     "timeout",
			err:      &agentapi.TransportError{Op: "list files", URL: "http://a", Err: context.DeadlineExceeded},
			wantCode: ErrCodeTimeout,
		},
		{
			name:     "refused",
			err:      &agentapi.TransportError{Op: "list files", URL: "http://a", Err: fmt.Errorf("connection refused")},
			wantCode: ErrCodeUnreachable,
		},
		{
			name:     "bad json",
			err:      &agentapi.DecodeError{Op: "fetch agents", URL: "http://f", Err: fmt.Errorf("unexpected EOF")},
			wantCode: ErrCodeBadResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ErrorToJSON(tt.err)
			assert.Equal(t, tt.wantCode, result.Code)
			assert.NotEmpty(t, result.Message)
			details, ok := result.Details.(map[string]interface{})
			require.True(t, ok)
			assert.NotEmpty(t, details["op"])
		})
	}
}

func TestErrorToJSON_WrappedAPIErrorKeepsMessage(t *testing.T) {
	cause := &agentapi.HTTPError{Op: "upload", URL: "http://a/api/upload", StatusCode: 507, Detail: "disk full"}
	err := fmt.Errorf("outer: %w", errors.OperationFailed("upload", cause))

	result := ErrorToJSON(err)
	assert.Equal(t, ErrCodeHTTPStatus, result.Code)
	assert.Equal(t, "upload failed", result.Message)
	assert.NotEmpty(t, result.Suggestion)
	details := result.Details.(map[string]interface{})
	assert.Equal(t, 507, details["status"])
}
