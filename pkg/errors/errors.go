// Package errors provides the single user-facing error type used by every azctl command.
//
// Every failure surfaced to the user is a StructuredError carrying an ErrorCode. The code
// drives the process exit status and lets callers branch on the kind of failure without
// string matching:
//
//	if err := validateKey(key); err != nil {
//	    return errors.Wrap(errors.ErrCodeInvalidArgumentValue, "invalid key", err)
//	}
//
// Errors returned by Azure SDK clients are translated with FromAzureError so the service's
// error code and message reach the user instead of the SDK's raw response dump.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
)

// ErrorCode classifies a StructuredError.
type ErrorCode string

const (
	ErrCodeCLI                       ErrorCode = "CLI"
	ErrCodeInvalidArgumentValue      ErrorCode = "INVALID_ARGUMENT_VALUE"
	ErrCodeRequiredArgumentMissing   ErrorCode = "REQUIRED_ARGUMENT_MISSING"
	ErrCodeMutuallyExclusiveArgument ErrorCode = "MUTUALLY_EXCLUSIVE_ARGUMENT"
	ErrCodeArgumentUsage             ErrorCode = "ARGUMENT_USAGE"
	ErrCodeValidation                ErrorCode = "VALIDATION"
	ErrCodeFileOperation             ErrorCode = "FILE_OPERATION"
	ErrCodeResourceNotFound          ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeAzureInternal             ErrorCode = "AZURE_INTERNAL"
	ErrCodeUnauthorized              ErrorCode = "UNAUTHORIZED"
	ErrCodeTimeout                   ErrorCode = "TIMEOUT"
	ErrCodeUnavailable               ErrorCode = "UNAVAILABLE"
	ErrCodeInternal                  ErrorCode = "INTERNAL"
)

// StructuredError is an error with a code, a user-facing message, an optional cause and
// optional key/value context.
type StructuredError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New creates a StructuredError without a cause.
func New(code ErrorCode, message string) *StructuredError {
	return &StructuredError{Code: code, Message: message}
}

// Newf creates a StructuredError with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *StructuredError {
	return &StructuredError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a StructuredError around cause.
func Wrap(code ErrorCode, message string, cause error) *StructuredError {
	return &StructuredError{Code: code, Message: message, Cause: cause}
}

// WrapWithContext creates a StructuredError around cause with additional context.
func WrapWithContext(code ErrorCode, message string, cause error, context map[string]any) *StructuredError {
	return &StructuredError{Code: code, Message: message, Cause: cause, Context: context}
}

// CodeOf returns the code of the first StructuredError in err's chain, or ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	var se *StructuredError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var se *StructuredError
	return stderrors.As(err, &se) && se.Code == code
}

// Message returns the user-facing message for err: the StructuredError message (with its
// cause when present) or err.Error() for plain errors.
func Message(err error) string {
	var se *StructuredError
	if !stderrors.As(err, &se) {
		return err.Error()
	}
	if se.Cause == nil {
		return se.Message
	}
	return fmt.Sprintf("%s: %s", se.Message, Message(se.Cause))
}

// CodeFromHTTPStatus maps an HTTP status returned by an Azure endpoint to an ErrorCode.
func CodeFromHTTPStatus(status int) ErrorCode {
	switch {
	case status == http.StatusNotFound:
		return ErrCodeResourceNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrCodeUnauthorized
	case status == http.StatusBadRequest || status == http.StatusConflict ||
		status == http.StatusPreconditionFailed:
		return ErrCodeInvalidArgumentValue
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ErrCodeTimeout
	case status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable:
		return ErrCodeUnavailable
	case status >= http.StatusInternalServerError:
		return ErrCodeAzureInternal
	default:
		return ErrCodeCLI
	}
}

type cloudError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// FromAzureError translates an *azcore.ResponseError into a StructuredError. Any other
// error is returned unchanged.
func FromAzureError(err error) error {
	if err == nil {
		return nil
	}

	var respErr *azcore.ResponseError
	if !stderrors.As(err, &respErr) {
		return err
	}

	code := respErr.ErrorCode
	message := http.StatusText(respErr.StatusCode)
	if respErr.RawResponse != nil {
		if body, perr := runtime.Payload(respErr.RawResponse); perr == nil && len(body) > 0 {
			var ce cloudError
			if json.Unmarshal(body, &ce) == nil && ce.Error.Message != "" {
				message = ce.Error.Message
				if ce.Error.Code != "" {
					code = ce.Error.Code
				}
			}
		}
	}
	if code != "" {
		message = fmt.Sprintf("(%s) %s", code, message)
	}

	return &StructuredError{
		Code:    CodeFromHTTPStatus(respErr.StatusCode),
		Message: message,
		Context: map[string]any{"status": respErr.StatusCode},
	}
}

// Exit codes returned by the azctl process.
const (
	ExitOK        = 0
	ExitError     = 1
	ExitUsage     = 2
	ExitNotFound  = 3
	ExitCancelled = 130
)

// ExitCode returns the process exit status for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch CodeOf(err) {
	case ErrCodeInvalidArgumentValue, ErrCodeRequiredArgumentMissing,
		ErrCodeMutuallyExclusiveArgument, ErrCodeArgumentUsage, ErrCodeValidation:
		return ExitUsage
	case ErrCodeResourceNotFound:
		return ExitNotFound
	default:
		return ExitError
	}
}
