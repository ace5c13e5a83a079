package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			err:      New(CodeInvalidParameter, "shape must be positive"),
			expected: "[INVALID_PARAMETER] shape must be positive",
		},
		{
			name:     "with underlying error",
			err:      Wrap(CodeNonConvergence, "hpdi solve failed", errors.New("budget exhausted")),
			expected: "[NON_CONVERGENCE] hpdi solve failed: budget exhausted",
		},
		{
			name:     "formatted message",
			err:      Newf(CodeDegenerateInterval, "lo %.1f >= hi %.1f", 2.0, 1.0),
			expected: "[DEGENERATE_INTERVAL] lo 2.0 >= hi 1.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := Wrap(CodePlotError, "render failed", underlying)

	assert.Equal(t, underlying, err.Unwrap())
	assert.ErrorIs(t, err, underlying)
}

func TestAppError_Is(t *testing.T) {
	err1 := New(CodeNonConvergence, "error 1")
	err2 := New(CodeNonConvergence, "error 2")
	err3 := New(CodeInvalidParameter, "error 3")

	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, err3))
}

func TestIsNonConvergence(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "sentinel",
			err:      ErrNonConvergence,
			expected: true,
		},
		{
			name:     "wrapped by fmt",
			err:      fmt.Errorf("posterior: %w", New(CodeNonConvergence, "100 iterations")),
			expected: true,
		},
		{
			name:     "other error",
			err:      ErrDegenerateInterval,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsNonConvergence(tt.err))
		})
	}
}

func TestCategoryHelpers(t *testing.T) {
	assert.True(t, IsInvalidParameter(Newf(CodeInvalidParameter, "p=%v", 1.5)))
	assert.False(t, IsInvalidParameter(ErrInvalidInput))

	assert.True(t, IsDegenerateInterval(ErrDegenerateInterval))
	assert.False(t, IsDegenerateInterval(ErrNonConvergence))

	assert.True(t, IsInvalidInput(ErrInvalidInput))
	assert.False(t, IsInvalidInput(ErrConfigError))
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "app error",
			err:      New(CodeInvalidParameter, "bad shape"),
			expected: CodeInvalidParameter,
		},
		{
			name:     "wrapped app error",
			err:      fmt.Errorf("batch job 3: %w", Wrap(CodeDegenerateInterval, "lo < 0", errors.New("inner"))),
			expected: CodeDegenerateInterval,
		},
		{
			name:     "standard error",
			err:      errors.New("standard error"),
			expected: CodeUnknown,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: CodeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetErrorCode(tt.err))
		})
	}
}

func TestGetErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "app error",
			err:      New(CodeConfigError, "coverage out of range"),
			expected: "coverage out of range",
		},
		{
			name:     "standard error",
			err:      errors.New("standard error"),
			expected: "standard error",
		},
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetErrorMessage(tt.err))
		})
	}
}
