package cli

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/rileyhilliard/fleetdash/internal/agentapi"
	"github.com/rileyhilliard/fleetdash/internal/errors"
)

// Machine mode flag - when true, outputs JSON and suppresses human-friendly decorations
var machineMode bool

// MachineMode returns true if machine-readable output is enabled
func MachineMode() bool {
	return machineMode
}

// JSONEnvelope wraps command output in a consistent structure for machine parsing.
// All --json output should use this envelope.
type JSONEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *JSONError  `json:"error,omitempty"`
}

// JSONError provides structured error information for machine parsing.
type JSONError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
	Details    interface{} `json:"details,omitempty"`
}

// Error codes for machine-readable output.
const (
	ErrCodeConfigNotFound  = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid   = "CONFIG_INVALID"
	ErrCodeAgentNotFound   = "AGENT_NOT_FOUND"
	ErrCodeFetchFailed     = "FETCH_FAILED"
	ErrCodeTimeout         = "TIMEOUT"
	ErrCodeUnreachable     = "UNREACHABLE"
	ErrCodeHTTPStatus      = "HTTP_STATUS"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeBadResponse     = "BAD_RESPONSE"
	ErrCodeFileRejected    = "FILE_REJECTED"
	ErrCodeTransferFailed  = "TRANSFER_FAILED"
	ErrCodeNotifyFailed    = "NOTIFY_FAILED"
	ErrCodeConfirmRequired = "CONFIRMATION_REQUIRED"
	ErrCodeUnknown         = "UNKNOWN"
)

// WriteJSONSuccess writes a successful response with data to the writer.
func WriteJSONSuccess(w io.Writer, data interface{}) error {
	env := JSONEnvelope{
		Success: true,
		Data:    data,
	}
	return writeJSONEnvelope(w, env)
}

// WriteJSONError writes an error response to the writer.
func WriteJSONError(w io.Writer, code, message, suggestion string, details interface{}) error {
	env := JSONEnvelope{
		Success: false,
		Error: &JSONError{
			Code:       code,
			Message:    message,
			Suggestion: suggestion,
			Details:    details,
		},
	}
	return writeJSONEnvelope(w, env)
}

// WriteJSONFromError converts a Go error to a JSON error response.
func WriteJSONFromError(w io.Writer, err error) error {
	env := JSONEnvelope{
		Success: false,
		Error:   ErrorToJSON(err),
	}
	return writeJSONEnvelope(w, env)
}

// writeJSONEnvelope writes the envelope with consistent formatting.
func writeJSONEnvelope(w io.Writer, env JSONEnvelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// ErrorToJSON converts a Go error to a JSONError with appropriate code mapping.
// Structured errors keep their message and suggestion; an API failure found
// anywhere in the chain refines the code and adds details.
func ErrorToJSON(err error) *JSONError {
	if err == nil {
		return nil
	}

	out := &JSONError{
		Code:    ErrCodeUnknown,
		Message: err.Error(),
	}

	var fdErr *errors.Error
	if errors.As(err, &fdErr) {
		out.Code = mapErrorCode(fdErr.Code, fdErr.Message)
		out.Message = fdErr.Message
		out.Suggestion = fdErr.Suggestion
	}

	if code, details, ok := apiErrorToJSON(err); ok {
		out.Code = code
		out.Details = details
		if fdErr == nil {
			out.Message = errors.UserMessage(err)
		}
	}
	return out
}

// mapErrorCode maps internal error codes to machine-readable codes.
func mapErrorCode(internalCode, message string) string {
	msgLower := strings.ToLower(message)
	notFound := strings.Contains(msgLower, "not found") || strings.Contains(msgLower, "couldn't find")

	switch internalCode {
	case errors.ErrConfig:
		if notFound {
			return ErrCodeConfigNotFound
		}
		if strings.Contains(msgLower, "--yes") {
			return ErrCodeConfirmRequired
		}
		return ErrCodeConfigInvalid
	case errors.ErrFetch:
		if notFound {
			return ErrCodeAgentNotFound
		}
		return ErrCodeFetchFailed
	case errors.ErrFiles:
		return ErrCodeFileRejected
	case errors.ErrTransfer:
		return ErrCodeTransferFailed
	case errors.ErrNotify:
		return ErrCodeNotifyFailed
	}

	return ErrCodeUnknown
}

// apiErrorToJSON picks a code for a Fleet or File API failure.
func apiErrorToJSON(err error) (string, map[string]interface{}, bool) {
	var httpErr *agentapi.HTTPError
	if errors.As(err, &httpErr) {
		code := ErrCodeHTTPStatus
		if httpErr.NotFound() {
			code = ErrCodeNotFound
		}
		return code, map[string]interface{}{
			"op":     httpErr.Op,
			"url":    httpErr.URL,
			"status": httpErr.StatusCode,
		}, true
	}

	var transportErr *agentapi.TransportError
	if errors.As(err, &transportErr) {
		code := ErrCodeUnreachable
		if transportErr.Timeout() {
			code = ErrCodeTimeout
		}
		return code, map[string]interface{}{
			"op":  transportErr.Op,
			"url": transportErr.URL,
		}, true
	}

	var decodeErr *agentapi.DecodeError
	if errors.As(err, &decodeErr) {
		return ErrCodeBadResponse, map[string]interface{}{
			"op":  decodeErr.Op,
			"url": decodeErr.URL,
		}, true
	}

	return "", nil, false
}
