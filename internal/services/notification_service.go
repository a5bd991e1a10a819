package services

import (
	"context"
	"database/sql"

	"wastereport/internal/config"
	"wastereport/internal/models"
	"wastereport/internal/observability"
	contextutils "wastereport/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// NotificationServiceInterface defines the notification read path
type NotificationServiceInterface interface {
	ListNotifications(ctx context.Context, userID int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID int) error
}

// NotificationService reads and acknowledges user notifications
type NotificationService struct {
	db     *sql.DB
	logger *observability.Logger
}

var _ NotificationServiceInterface = (*NotificationService)(nil)

// NewNotificationService creates a new NotificationService instance
func NewNotificationService(db *sql.DB, logger *observability.Logger) *NotificationService {
	return &NotificationService{db: db, logger: logger}
}

// ListNotifications returns the user's most recent notifications, newest first
func (s *NotificationService) ListNotifications(ctx context.Context, userID int) (result0 []models.Notification, err error) {
	ctx, span := observability.TraceNotificationFunction(ctx, "list_notifications", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, message, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, userID, config.NotificationListLimit)
	if err != nil {
		return nil, queryError(err, "failed to list notifications")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close notification rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	notifications := make([]models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, queryError(err, "failed to scan notification")
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(err, "error iterating notifications")
	}

	span.SetAttributes(attribute.Int("notifications.count", len(notifications)))
	return notifications, nil
}

// MarkNotificationRead flags one of the user's notifications as read
func (s *NotificationService) MarkNotificationRead(ctx context.Context, userID, notificationID int) (err error) {
	ctx, span := observability.TraceNotificationFunction(ctx, "mark_notification_read",
		observability.AttributeUserID(userID),
		attribute.Int("notification.id", notificationID),
	)
	defer observability.FinishSpan(span, &err)

	result, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, notificationID, userID)
	if err != nil {
		return queryError(err, "failed to mark notification read")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return queryError(err, "failed to read affected rows")
	}
	if affected == 0 {
		return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "notification %d not found for user %d", notificationID, userID)
	}
	return nil
}
