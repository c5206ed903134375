package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	codes := []string{
		ErrConfig,
		ErrFetch,
		ErrFiles,
		ErrTransfer,
		ErrNotify,
	}

	for _, code := range codes {
		assert.NotEmpty(t, code, "error code should not be empty")
	}

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.False(t, seen[code], "error code %q should be unique", code)
		seen[code] = true
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		message    string
		suggestion string
	}{
		{
			name:       "config error",
			code:       ErrConfig,
			message:    "Invalid configuration in fleetdash.yaml",
			suggestion: "Check your configuration file syntax",
		},
		{
			name:       "fetch error",
			code:       ErrFetch,
			message:    "Fleet API unreachable",
			suggestion: "Check fleet.url",
		},
		{
			name:       "transfer error",
			code:       ErrTransfer,
			message:    "Upload already in progress",
			suggestion: "Wait for the current upload to finish",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, tt.suggestion)

			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.suggestion, err.Suggestion)
			assert.Nil(t, err.Cause)
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name          string
		err           *Error
		expectedParts []string
		notExpected   []string
	}{
		{
			name:          "basic error formatting",
			err:           New(ErrConfig, "Invalid configuration", "Check fleetdash.yaml syntax"),
			expectedParts: []string{"Invalid configuration", "Check fleetdash.yaml syntax"},
		},
		{
			name:          "error with failure symbol",
			err:           New(ErrFetch, "Fetch failed", "Try again"),
			expectedParts: []string{"✗", "Fetch failed"},
		},
		{
			name:          "error without suggestion",
			err:           New(ErrFiles, "Listing failed", ""),
			expectedParts: []string{"Listing failed"},
			notExpected:   []string{"suggestion"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := tt.err.Error()
			for _, part := range tt.expectedParts {
				assert.Contains(t, output, part)
			}
			for _, part := range tt.notExpected {
				assert.NotContains(t, output, part)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := Wrap(cause, "Fleet API unreachable")

	require.NotNil(t, wrapped)
	assert.Equal(t, ErrFetch, wrapped.Code, "Wrap should default to ErrFetch code")
	assert.Equal(t, cause, wrapped.Cause)
	assert.True(t, errors.Is(wrapped, cause))
}

func TestWrapWithCode(t *testing.T) {
	cause := errors.New("file not found")
	wrapped := WrapWithCode(cause, ErrConfig, "Failed to load config", "Run 'fleetdash init'")

	assert.Equal(t, ErrConfig, wrapped.Code)
	assert.Equal(t, "Run 'fleetdash init'", wrapped.Suggestion)
	assert.Equal(t, cause, wrapped.Unwrap())
	assert.Contains(t, wrapped.Error(), "file not found")
}

func TestIsCode(t *testing.T) {
	err := New(ErrTransfer, "upload failed", "")

	assert.True(t, IsCode(err, ErrTransfer))
	assert.False(t, IsCode(err, ErrConfig))
	assert.False(t, IsCode(nil, ErrTransfer))
	assert.False(t, IsCode(errors.New("plain"), ErrTransfer))
	assert.True(t, IsCode(fmt.Errorf("outer: %w", err), ErrTransfer))
}

func TestOperationFailed(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.5:3000: connect: connection refused")

	tests := []struct {
		op       string
		wantCode string
	}{
		{"list files", ErrFetch},
		{"list shared files", ErrFetch},
		{"upload", ErrTransfer},
		{"download", ErrTransfer},
		{"delete", ErrTransfer},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			err := OperationFailed(tt.op, cause)
			require.NotNil(t, err)
			assert.Equal(t, tt.wantCode, err.Code)
			assert.Equal(t, tt.op+" failed", err.Message)
			assert.True(t, errors.Is(err, cause))
		})
	}

	assert.Nil(t, OperationFailed("upload", nil))
}

func TestOperationFailed_KeepsStructuredError(t *testing.T) {
	inner := New(ErrTransfer, "Upload already in progress", "Wait for it to finish")
	err := OperationFailed("upload", inner)
	assert.Same(t, inner, err)
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), "boom"},
		{"structured without cause", New(ErrFiles, "Not a directory", "hint"), "Not a directory"},
		{
			name: "structured with multiline cause",
			err:  OperationFailed("download", errors.New("http 404 Not Found\nbody")),
			want: "download failed: http 404 Not Found",
		},
		{
			name: "nested structured cause",
			err:  WrapWithCode(New(ErrFetch, "inner", "x"), ErrFiles, "outer", ""),
			want: "outer: inner",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}
