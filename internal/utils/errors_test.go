package contextutils

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		expected string
	}{
		{
			name: "error with details",
			appError: &AppError{
				Code:     ErrorCodeValidationFailed,
				Severity: SeverityWarn,
				Message:  "Validation failed",
				Details:  "photo_before is required",
			},
			expected: "VALIDATION_FAILED: Validation failed - photo_before is required",
		},
		{
			name: "error without details",
			appError: &AppError{
				Code:     ErrorCodeRecordNotFound,
				Severity: SeverityInfo,
				Message:  "Not found",
			},
			expected: "RECORD_NOT_FOUND: Not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appError.Error())
		})
	}
}

func TestAppError_IsAndUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	appErr := NewAppErrorWithCause(ErrorCodeDatabaseQuery, SeverityError, "query failed", "", cause)

	assert.Equal(t, cause, appErr.Unwrap())
	assert.True(t, errors.Is(appErr, ErrDatabaseQuery))
	assert.False(t, errors.Is(appErr, ErrRecordNotFound))
	assert.True(t, errors.Is(appErr, cause))
}

func TestWrapError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, WrapError(nil, "ignored"))
		assert.Nil(t, WrapErrorf(nil, "ignored %d", 1))
	})

	t.Run("app error keeps code", func(t *testing.T) {
		err := WrapError(ErrRecordExists, "Email already exists")

		var appErr *AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, ErrorCodeRecordExists, appErr.Code)
		assert.Equal(t, "Email already exists", appErr.Message)
		assert.True(t, IsError(err, ErrRecordExists))
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		err := WrapError(errors.New("boom"), "failed to list complaints")
		assert.Equal(t, ErrorCodeInternalError, GetErrorCode(err))
		assert.Equal(t, SeverityError, GetErrorSeverity(err))
	})
}

func TestWrapErrorf(t *testing.T) {
	t.Run("formats message", func(t *testing.T) {
		err := WrapErrorf(ErrRecordNotFound, "complaint %d not found", 42)

		var appErr *AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, ErrorCodeRecordNotFound, appErr.Code)
		assert.Equal(t, "complaint 42 not found", appErr.Message)
	})

	t.Run("plain error becomes internal and keeps chain", func(t *testing.T) {
		cause := errors.New("dial tcp: refused")
		err := WrapErrorf(cause, "failed to reach %s", "redis")

		assert.True(t, errors.Is(err, cause))
		assert.Equal(t, ErrorCodeInternalError, GetErrorCode(err))
		assert.Contains(t, err.Error(), "failed to reach redis")
	})

	t.Run("nested wrap is still matched", func(t *testing.T) {
		inner := WrapErrorf(ErrAIResponseInvalid, "missing field %s", "verified")
		outer := fmt.Errorf("verify cleanup: %w", inner)

		assert.True(t, IsError(outer, ErrAIResponseInvalid))
		assert.Equal(t, ErrorCodeAIResponseInvalid, GetErrorCode(outer))
	})
}

func TestIsAIError(t *testing.T) {
	assert.True(t, IsAIError(ErrAIProviderUnavailable))
	assert.True(t, IsAIError(WrapError(ErrAIRequestFailed, "status 500")))
	assert.True(t, IsAIError(ErrTimeout))
	assert.False(t, IsAIError(ErrRecordNotFound))
	assert.False(t, IsAIError(errors.New("plain")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrTimeout))
	assert.True(t, IsRetryable(ErrServiceUnavailable))
	assert.False(t, IsRetryable(ErrValidationFailed))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(&AppError{Code: ErrorCodeTimeout, Severity: SeverityFatal}))
}

func TestAppError_ToJSON(t *testing.T) {
	t.Run("always has error field", func(t *testing.T) {
		body := WrapError(ErrInvalidCredentials, "Invalid credentials").(*AppError).ToJSON()

		assert.Equal(t, "Invalid credentials", body["error"])
		assert.Equal(t, "INVALID_CREDENTIALS", body["code"])
		assert.Equal(t, false, body["retryable"])
		assert.NotContains(t, body, "cause")
	})

	t.Run("client errors keep details", func(t *testing.T) {
		body := WrapErrorf(ErrValidationFailed, "invalid status %q", "done").(*AppError).ToJSON()

		assert.Equal(t, `invalid status "done"`, body["error"])
		assert.Contains(t, body["details"], "VALIDATION_FAILED")
	})

	t.Run("server failures hide message and cause", func(t *testing.T) {
		driverErr := errors.New("pq: password authentication failed for user \"waste\"")
		for _, err := range []error{
			WrapWithCode(ErrDatabaseQuery, driverErr, "failed to list complaints"),
			WrapWithCode(ErrDatabaseTransaction, driverErr, "failed to commit assignment"),
			WrapError(driverErr, "failed to list complaints"),
			WrapErrorf(ErrAIRequestFailed, "HTTP request failed: %v", driverErr),
			NewAppErrorWithCause(ErrorCodeDatabaseConnection, SeverityFatal, "db down", driverErr.Error(), driverErr),
		} {
			appErr := err.(*AppError)
			body := appErr.ToJSON()

			assert.NotContains(t, body, "cause")
			assert.NotContains(t, body, "details")
			assert.Equal(t, serverFailureMessages[appErr.Code], body["error"])
			assert.Equal(t, body["error"], body["message"])
			assert.NotContains(t, body["error"], "pq:")
			assert.True(t, IsServerFailure(err))
		}
	})

	t.Run("client errors are not server failures", func(t *testing.T) {
		assert.False(t, IsServerFailure(ErrRecordNotFound))
		assert.False(t, IsServerFailure(ErrCleanupNotVerified))
	})
}

func TestWrapWithCode(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapWithCode(ErrDatabaseTransaction, cause, "failed to begin transaction")

	assert.True(t, IsError(err, ErrDatabaseTransaction))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, SeverityError, GetErrorSeverity(err))
	assert.Nil(t, WrapWithCode(ErrDatabaseQuery, nil, "unused"))
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, 0, GetUserIDFromContext(ctx))
	assert.Equal(t, "", GetRequestIDFromContext(ctx))

	ctx = WithUserID(ctx, 7)
	ctx = WithRequestID(ctx, "req-1")
	assert.Equal(t, 7, GetUserIDFromContext(ctx))
	assert.Equal(t, "req-1", GetRequestIDFromContext(ctx))
}
