package middleware

import (
	"time"

	"wastereport/internal/observability"
	contextutils "wastereport/internal/utils"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs every request; 4xx at warn and 5xx at error level
func RequestLogger(logger *observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		statusCode := c.Writer.Status()
		fields := map[string]interface{}{
			"http.method":      c.Request.Method,
			"http.path":        c.Request.URL.Path,
			"http.status_code": statusCode,
			"http.latency_ms":  time.Since(start).Milliseconds(),
			"http.client_ip":   c.ClientIP(),
			"http.user_agent":  c.Request.UserAgent(),
		}
		if last := c.Errors.Last(); last != nil {
			fields["http.error"] = c.Errors.String()
			fields["error.code"] = string(contextutils.GetErrorCode(last.Err))
			fields["error.severity"] = string(contextutils.GetErrorSeverity(last.Err))
		}

		switch {
		case statusCode >= 500:
			fields["http.error_type"] = "server_error"
			logger.Error(c.Request.Context(), "HTTP request failed", nil, fields)
		case statusCode >= 400:
			fields["http.error_type"] = "client_error"
			logger.Warn(c.Request.Context(), "HTTP request warning", fields)
		default:
			logger.Info(c.Request.Context(), "HTTP request", fields)
		}
	}
}
