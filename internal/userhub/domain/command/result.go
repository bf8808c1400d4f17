package command

import (
	apperrors "github.com/louisbranch/userhub/internal/platform/errors"
)

// Result is the uniform outcome every command execution returns. Data is an
// operation-specific payload, populated only on success. ErrorCode and
// ErrorMessage are populated only on failure.
type Result struct {
	Success      bool
	Data         any
	ErrorCode    apperrors.Code
	ErrorMessage string
}

// OK returns a successful result carrying data.
func OK(data any) Result {
	return Result{Success: true, Data: data}
}

// Fail returns a failed result with the given code and message.
func Fail(code apperrors.Code, message string) Result {
	return Result{Success: false, ErrorCode: code, ErrorMessage: message}
}

// FailRejection converts a domain rejection into a validation failure result.
// Domain rejections are business-rule outcomes, never transport or storage
// faults, so they all map to the validation failure code.
func FailRejection(rejection Rejection) Result {
	return Fail(apperrors.CodeValidationFailed, rejection.Message)
}

// Err converts a failed result into an application error. It returns nil for
// successful results.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return apperrors.New(r.ErrorCode, r.ErrorMessage)
}
