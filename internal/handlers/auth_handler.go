package handlers

import (
	"net/http"

	"wastereport/internal/config"
	"wastereport/internal/models"
	"wastereport/internal/observability"
	"wastereport/internal/services"
	contextutils "wastereport/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest is the body of POST /api/auth/register
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"user_role"`
	Name     string `json:"name" binding:"required"`
}

// AuthHandler handles authentication related HTTP requests
type AuthHandler struct {
	userService services.UserServiceInterface
	config      *config.Config
	logger      *observability.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(userService services.UserServiceInterface, cfg *config.Config, logger *observability.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		config:      cfg,
		logger:      logger,
	}
}

// Login handles user login requests
func (h *AuthHandler) Login(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "login")
	defer observability.FinishSpan(span, nil)

	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.AuthenticateUser(ctx, req.Email, req.Password)
	if err != nil {
		if !contextutils.IsError(err, contextutils.ErrInvalidCredentials) {
			h.logger.Error(ctx, "Authentication failed", err)
			HandleAppError(c, err)
			return
		}
		span.SetAttributes(attribute.Bool("auth.success", false))
		HandleAppError(c, contextutils.ErrInvalidCredentials)
		return
	}

	span.SetAttributes(
		attribute.Bool("auth.success", true),
		observability.AttributeUserID(user.ID),
		attribute.String("user.role", string(user.Role)),
	)

	if err := startSession(c, user); err != nil {
		h.logger.Error(ctx, "Failed to save session", err, map[string]interface{}{"user_id": user.ID})
		HandleAppError(c, contextutils.WrapError(err, "failed to create session"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.ToResponse()})
}

// Register handles account creation
func (h *AuthHandler) Register(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "register")
	defer observability.FinishSpan(span, nil)

	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	role, err := models.ParseUserRole(req.Role)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	span.SetAttributes(attribute.String("user.role", string(role)))

	user, err := h.userService.CreateUser(ctx, req.Email, req.Password, req.Name, role)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	span.SetAttributes(observability.AttributeUserID(user.ID))
	c.JSON(http.StatusOK, gin.H{"user": user.ToResponse()})
}

// Logout handles user logout requests
func (h *AuthHandler) Logout(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "logout")
	defer observability.FinishSpan(span, nil)

	if userID, ok := GetUserIDFromSession(c); ok {
		span.SetAttributes(observability.AttributeUserID(userID))
	}

	if err := endSession(c); err != nil {
		HandleAppError(c, contextutils.WrapError(err, "failed to clear session"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Status returns the current authentication status
func (h *AuthHandler) Status(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "status")
	defer observability.FinishSpan(span, nil)

	userID, ok := GetUserIDFromSession(c)
	if !ok {
		span.SetAttributes(attribute.Bool("auth.authenticated", false))
		c.JSON(http.StatusOK, gin.H{"authenticated": false, "user": nil})
		return
	}

	user, err := h.userService.GetUserByID(ctx, userID)
	if err != nil {
		if !contextutils.IsError(err, contextutils.ErrRecordNotFound) {
			h.logger.Error(ctx, "Error getting user by ID", err, map[string]interface{}{"user_id": userID})
			HandleAppError(c, err)
			return
		}

		// User no longer exists, clear session
		if err := endSession(c); err != nil {
			h.logger.Error(ctx, "Error saving session", err)
		}
		span.SetAttributes(attribute.Bool("auth.user_found", false))
		c.JSON(http.StatusOK, gin.H{"authenticated": false, "user": nil})
		return
	}

	span.SetAttributes(
		attribute.Bool("auth.authenticated", true),
		observability.AttributeUserID(user.ID),
	)
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "user": user.ToResponse()})
}
