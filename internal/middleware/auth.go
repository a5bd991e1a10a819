// Package middleware provides session authentication, request plumbing and error responses for the Gin web framework.
package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"wastereport/internal/models"
	contextutils "wastereport/internal/utils"
)

// Session keys for storing user information
const (
	// UserIDKey is the key used to store user ID in session
	UserIDKey = "user_id"
	// RoleKey is the key used to store the user's role in session
	RoleKey = "role"
)

// SessionUser reads the logged-in user from the session.
// Returns false when no user is stored or the stored values are malformed.
func SessionUser(c *gin.Context) (int, models.UserRole, bool) {
	session := sessions.Default(c)

	var userID int
	switch v := session.Get(UserIDKey).(type) {
	case int:
		userID = v
	case float64:
		// JSON-backed stores decode numbers as float64
		userID = int(v)
	default:
		return 0, "", false
	}
	if userID <= 0 {
		return 0, "", false
	}

	roleStr, _ := session.Get(RoleKey).(string)
	role := models.UserRole(roleStr)
	if !role.IsValid() {
		return 0, "", false
	}
	return userID, role, true
}

// RequireAuth returns a middleware that requires a logged-in session
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, role, ok := SessionUser(c)
		if !ok {
			AbortWithAppError(c, contextutils.ErrUnauthorized)
			return
		}

		// Store user info in context for handlers to use
		c.Set(UserIDKey, userID)
		c.Set(RoleKey, role)
		c.Request = c.Request.WithContext(contextutils.WithUserID(c.Request.Context(), userID))

		c.Next()
	}
}

// RequireAuthority returns a middleware that only lets authority users through
func RequireAuthority() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, role, ok := SessionUser(c)
		if !ok {
			AbortWithAppError(c, contextutils.ErrUnauthorized)
			return
		}
		if role != models.RoleAuthority {
			AbortWithAppError(c, contextutils.ErrForbidden)
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(RoleKey, role)
		c.Request = c.Request.WithContext(contextutils.WithUserID(c.Request.Context(), userID))

		c.Next()
	}
}
