package middleware

import (
	"errors"
	"net/http"

	contextutils "wastereport/internal/utils"

	"github.com/gin-gonic/gin"
)

// HTTPStatusForCode maps AppError codes to HTTP status codes
func HTTPStatusForCode(code contextutils.ErrorCode) int {
	switch code {
	// 4xx Client Errors
	case contextutils.ErrorCodeInvalidInput, contextutils.ErrorCodeMissingRequired,
		contextutils.ErrorCodeValidationFailed, contextutils.ErrorCodeRecordExists,
		contextutils.ErrorCodeForeignKeyViolation:
		return http.StatusBadRequest

	case contextutils.ErrorCodeUnauthorized, contextutils.ErrorCodeInvalidCredentials:
		return http.StatusUnauthorized

	case contextutils.ErrorCodeForbidden:
		return http.StatusForbidden

	case contextutils.ErrorCodeRecordNotFound:
		return http.StatusNotFound

	case contextutils.ErrorCodeInvalidTransition:
		return http.StatusConflict

	case contextutils.ErrorCodeCleanupNotVerified:
		return http.StatusUnprocessableEntity

	case contextutils.ErrorCodeRequestTooLarge:
		return http.StatusRequestEntityTooLarge

	// 5xx Server Errors
	case contextutils.ErrorCodeAIProviderUnavailable, contextutils.ErrorCodeAIRequestFailed,
		contextutils.ErrorCodeAIResponseInvalid:
		return http.StatusBadGateway

	case contextutils.ErrorCodeServiceUnavailable, contextutils.ErrorCodeDatabaseConnection:
		return http.StatusServiceUnavailable

	case contextutils.ErrorCodeTimeout:
		return http.StatusGatewayTimeout

	// Default to internal server error for unknown codes
	default:
		return http.StatusInternalServerError
	}
}

// AsAppError returns err as an AppError, wrapping anything else as an internal error
func AsAppError(err error) *contextutils.AppError {
	var appErr *contextutils.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return contextutils.NewAppErrorWithCause(
		contextutils.ErrorCodeInternalError,
		contextutils.SeverityError,
		"Internal server error",
		"",
		err,
	)
}

// WriteAppError sends a structured error body with the status matching its code.
// The error is also attached to the gin context so span and log middleware can see it.
func WriteAppError(c *gin.Context, err error) {
	appErr := AsAppError(err)
	_ = c.Error(appErr)
	c.JSON(HTTPStatusForCode(appErr.Code), appErr.ToJSON())
}

// AbortWithAppError writes the error and stops the handler chain
func AbortWithAppError(c *gin.Context, err error) {
	WriteAppError(c, err)
	c.Abort()
}
