package middleware

import (
	"errors"
	"net/http"

	contextutils "wastereport/internal/utils"

	"github.com/gin-gonic/gin"
)

// BodyLimit caps request bodies at limit bytes. A non-positive limit disables the cap.
// Requests that declare a larger Content-Length are rejected up front; chunked bodies
// fail when read past the limit.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			AbortWithAppError(c, contextutils.ErrRequestTooLarge)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// IsBodyTooLarge reports whether err came from reading past the body limit
func IsBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
