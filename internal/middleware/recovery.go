package middleware

import (
	"fmt"
	"runtime/debug"

	"wastereport/internal/observability"
	contextutils "wastereport/internal/utils"

	"github.com/gin-gonic/gin"
)

// Recovery turns panics into a logged 500 with the standard error body
func Recovery(logger *observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			panicErr, ok := recovered.(error)
			if !ok {
				panicErr = fmt.Errorf("panic: %v", recovered)
			}

			logger.Error(c.Request.Context(), "Panic recovered", panicErr, map[string]interface{}{
				"http.method": c.Request.Method,
				"http.path":   c.Request.URL.Path,
				"stack":       string(debug.Stack()),
			})

			appErr := contextutils.NewAppErrorWithCause(
				contextutils.ErrorCodeInternalError,
				contextutils.SeverityFatal,
				"Internal server error",
				"A panic occurred while processing the request",
				panicErr,
			)
			AbortWithAppError(c, appErr)
		}()

		c.Next()
	}
}
