package handlers

import (
	"wastereport/internal/middleware"
	"wastereport/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// GetUserIDFromSession retrieves the current user ID from the session.
// Returns (0, false) if not authenticated or if the stored value is invalid.
func GetUserIDFromSession(c *gin.Context) (int, bool) {
	userID, _, ok := middleware.SessionUser(c)
	return userID, ok
}

// startSession stores the user in the session cookie
func startSession(c *gin.Context, user *models.User) error {
	session := sessions.Default(c)
	session.Clear()
	session.Set(middleware.UserIDKey, user.ID)
	session.Set(middleware.RoleKey, string(user.Role))
	return session.Save()
}

// endSession removes the user from the session cookie
func endSession(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	return session.Save()
}
