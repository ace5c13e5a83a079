// Package errors defines common error types for the application.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the application.
const (
	CodeUnknown            = "UNKNOWN_ERROR"
	CodeInvalidParameter   = "INVALID_PARAMETER"
	CodeNonConvergence     = "NON_CONVERGENCE"
	CodeDegenerateInterval = "DEGENERATE_INTERVAL"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeConfigError        = "CONFIG_ERROR"
	CodePlotError          = "PLOT_ERROR"
)

// AppError represents an application error with a code and message.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message.
func Newf(code string, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error instances.
var (
	ErrInvalidParameter   = New(CodeInvalidParameter, "invalid parameter")
	ErrNonConvergence     = New(CodeNonConvergence, "solver did not converge")
	ErrDegenerateInterval = New(CodeDegenerateInterval, "degenerate interval")
	ErrInvalidInput       = New(CodeInvalidInput, "invalid input")
	ErrConfigError        = New(CodeConfigError, "configuration error")
	ErrPlotError          = New(CodePlotError, "plot error")
)

// IsInvalidParameter checks if the error is an invalid parameter error.
func IsInvalidParameter(err error) bool {
	return errors.Is(err, ErrInvalidParameter)
}

// IsNonConvergence checks if the error reports an exhausted solver budget.
func IsNonConvergence(err error) bool {
	return errors.Is(err, ErrNonConvergence)
}

// IsDegenerateInterval checks if the error reports a negative or empty interval.
func IsDegenerateInterval(err error) bool {
	return errors.Is(err, ErrDegenerateInterval)
}

// IsInvalidInput checks if the error is an invalid input error.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetErrorMessage extracts the error message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
