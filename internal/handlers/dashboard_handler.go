package handlers

import (
	"net/http"

	"wastereport/internal/models"
	"wastereport/internal/observability"
	"wastereport/internal/services"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// DashboardHandler serves the authority dashboard reads: analytics, notifications and members
type DashboardHandler struct {
	analyticsService    services.AnalyticsServiceInterface
	notificationService services.NotificationServiceInterface
	userService         services.UserServiceInterface
	logger              *observability.Logger
}

// NewDashboardHandler creates a new DashboardHandler instance
func NewDashboardHandler(
	analyticsService services.AnalyticsServiceInterface,
	notificationService services.NotificationServiceInterface,
	userService services.UserServiceInterface,
	logger *observability.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		analyticsService:    analyticsService,
		notificationService: notificationService,
		userService:         userService,
		logger:              logger,
	}
}

// GetAnalytics returns complaint counts by status and by type
func (h *DashboardHandler) GetAnalytics(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_analytics")
	defer observability.FinishSpan(span, nil)

	analytics, err := h.analyticsService.GetAnalytics(ctx)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	span.SetAttributes(attribute.Int("complaints.total", analytics.Total()))
	c.JSON(http.StatusOK, analytics)
}

// ListNotifications returns the newest notifications for a user
func (h *DashboardHandler) ListNotifications(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_notifications")
	defer observability.FinishSpan(span, nil)

	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	span.SetAttributes(observability.AttributeUserID(userID))

	notifications, err := h.notificationService.ListNotifications(ctx, userID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// MarkNotificationRead flags one of the user's notifications as read
func (h *DashboardHandler) MarkNotificationRead(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "mark_notification_read")
	defer observability.FinishSpan(span, nil)

	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	notificationID, ok := pathID(c, "id")
	if !ok {
		return
	}
	span.SetAttributes(
		observability.AttributeUserID(userID),
		attribute.Int("notification.id", notificationID),
	)

	if err := h.notificationService.MarkNotificationRead(ctx, userID, notificationID); err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListMembers returns the authority users complaints can be assigned to
func (h *DashboardHandler) ListMembers(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_members")
	defer observability.FinishSpan(span, nil)

	members, err := h.userService.ListAuthorities(ctx)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, members)
}

// ListUsers returns every account; authority only
func (h *DashboardHandler) ListUsers(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_users")
	defer observability.FinishSpan(span, nil)

	users, err := h.userService.ListUsers(ctx)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	response := make([]models.UserResponse, 0, len(users))
	for i := range users {
		response = append(response, users[i].ToResponse())
	}
	span.SetAttributes(attribute.Int("users.count", len(response)))
	c.JSON(http.StatusOK, response)
}
