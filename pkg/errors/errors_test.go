package errors

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredError_Error(t *testing.T) {
	err := New(ErrCodeInvalidArgumentValue, "bad value")
	assert.Equal(t, "[INVALID_ARGUMENT_VALUE] bad value", err.Error())

	wrapped := Wrap(ErrCodeFileOperation, "cannot read", stderrors.New("permission denied"))
	assert.Equal(t, "[FILE_OPERATION] cannot read: permission denied", wrapped.Error())
}

func TestStructuredError_Unwrap(t *testing.T) {
	cause := context.DeadlineExceeded
	err := Wrap(ErrCodeTimeout, "poll timed out", cause)

	assert.True(t, stderrors.Is(err, context.DeadlineExceeded))
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"structured", New(ErrCodeResourceNotFound, "x"), ErrCodeResourceNotFound},
		{"wrapped by fmt", fmt.Errorf("outer: %w", New(ErrCodeValidation, "x")), ErrCodeValidation},
		{"plain", stderrors.New("boom"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "boom", Message(stderrors.New("boom")))
	assert.Equal(t, "Key cannot be empty.", Message(New(ErrCodeRequiredArgumentMissing, "Key cannot be empty.")))
	assert.Equal(t, "outer: inner", Message(Wrap(ErrCodeCLI, "outer", stderrors.New("inner"))))
}

func TestCodeFromHTTPStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorCode
	}{
		{http.StatusNotFound, ErrCodeResourceNotFound},
		{http.StatusUnauthorized, ErrCodeUnauthorized},
		{http.StatusForbidden, ErrCodeUnauthorized},
		{http.StatusBadRequest, ErrCodeInvalidArgumentValue},
		{http.StatusConflict, ErrCodeInvalidArgumentValue},
		{http.StatusGatewayTimeout, ErrCodeTimeout},
		{http.StatusTooManyRequests, ErrCodeUnavailable},
		{http.StatusServiceUnavailable, ErrCodeUnavailable},
		{http.StatusInternalServerError, ErrCodeAzureInternal},
		{http.StatusTeapot, ErrCodeCLI},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, CodeFromHTTPStatus(tt.status))
		})
	}
}

func TestFromAzureError(t *testing.T) {
	body := `{"error":{"code":"ResourceGroupNotFound","message":"Resource group 'rg' could not be found."}}`
	resp := &http.Response{
		StatusCode: http.StatusNotFound,
		Header:     http.Header{},
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Request:    &http.Request{Method: http.MethodGet},
	}
	azErr := &azcore.ResponseError{ErrorCode: "ResourceGroupNotFound", StatusCode: http.StatusNotFound, RawResponse: resp}

	err := FromAzureError(fmt.Errorf("get failed: %w", azErr))

	var se *StructuredError
	require.True(t, stderrors.As(err, &se))
	assert.Equal(t, ErrCodeResourceNotFound, se.Code)
	assert.Equal(t, "(ResourceGroupNotFound) Resource group 'rg' could not be found.", se.Message)
	assert.Equal(t, ExitNotFound, ExitCode(err))
}

func TestFromAzureError_PassThrough(t *testing.T) {
	assert.Nil(t, FromAzureError(nil))

	plain := stderrors.New("dial tcp: refused")
	assert.Equal(t, plain, FromAzureError(plain))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitUsage, ExitCode(New(ErrCodeMutuallyExclusiveArgument, "x")))
	assert.Equal(t, ExitNotFound, ExitCode(New(ErrCodeResourceNotFound, "x")))
	assert.Equal(t, ExitError, ExitCode(New(ErrCodeAzureInternal, "x")))
	assert.Equal(t, ExitError, ExitCode(stderrors.New("x")))
}
