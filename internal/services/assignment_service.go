package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"wastereport/internal/models"
	"wastereport/internal/observability"
	"wastereport/internal/services/mailer"
	contextutils "wastereport/internal/utils"
)

// AssignmentServiceInterface links complaints to authority members
type AssignmentServiceInterface interface {
	AssignComplaint(ctx context.Context, complaintID, assigneeID int, assigneeName string) (*models.Notification, error)
}

// AssignmentService writes the assignment and its notification as one unit, then fans out
// the notification over pub/sub and email. Fan-out failures are logged only.
type AssignmentService struct {
	db        *sql.DB
	policy    *TransitionPolicy
	publisher NotificationPublisher
	mailer    mailer.Mailer
	metrics   *observability.Metrics
	logger    *observability.Logger
}

var _ AssignmentServiceInterface = (*AssignmentService)(nil)

// NewAssignmentService creates a new AssignmentService instance. publisher and mail may be nil.
func NewAssignmentService(db *sql.DB, policy *TransitionPolicy, publisher NotificationPublisher, mail mailer.Mailer, metrics *observability.Metrics, logger *observability.Logger) *AssignmentService {
	if policy == nil {
		policy = PermissivePolicy()
	}
	if publisher == nil {
		publisher = NoopNotificationPublisher{}
	}
	return &AssignmentService{
		db:        db,
		policy:    policy,
		publisher: publisher,
		mailer:    mail,
		metrics:   metrics,
		logger:    logger,
	}
}

// AssignmentMessage is the notification text sent to an assignee
func AssignmentMessage(complaintID int) string {
	return fmt.Sprintf("You have been assigned to complaint #%d", complaintID)
}

// AssignComplaint sets the assignee, moves the complaint to assigned and notifies the assignee.
// Either both the complaint update and the notification insert commit, or neither does.
func (s *AssignmentService) AssignComplaint(ctx context.Context, complaintID, assigneeID int, assigneeName string) (result0 *models.Notification, err error) {
	ctx, span := observability.TraceComplaintFunction(ctx, "assign_complaint",
		observability.AttributeComplaintID(complaintID),
		observability.AttributeUserID(assigneeID),
	)
	defer observability.FinishSpan(span, &err)

	assigneeName = strings.TrimSpace(assigneeName)
	if assigneeID <= 0 {
		return nil, contextutils.WrapError(contextutils.ErrValidationFailed, "assigned_to is required")
	}
	if assigneeName == "" {
		return nil, contextutils.WrapError(contextutils.ErrValidationFailed, "assigned_name is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, txError(err, "failed to begin transaction")
	}
	defer rollbackTx(ctx, s.logger, tx)

	var current models.ComplaintStatus
	err = tx.QueryRowContext(ctx, `SELECT status FROM complaints WHERE id = $1 FOR UPDATE`, complaintID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "complaint %d not found", complaintID)
	}
	if err != nil {
		return nil, queryError(err, "failed to lock complaint")
	}

	if err := s.policy.Check(current, models.StatusAssigned); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE complaints
		SET assigned_to = $1, assigned_name = $2, status = $3, updated_at = NOW()
		WHERE id = $4`, assigneeID, assigneeName, models.StatusAssigned, complaintID)
	if err != nil {
		return nil, mapWriteError(err, "failed to assign complaint")
	}

	notification := &models.Notification{UserID: assigneeID, Message: AssignmentMessage(complaintID)}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO notifications (user_id, message)
		VALUES ($1, $2)
		RETURNING id, is_read, created_at`, assigneeID, notification.Message).
		Scan(&notification.ID, &notification.IsRead, &notification.CreatedAt)
	if err != nil {
		return nil, mapWriteError(err, "failed to create assignment notification")
	}

	if err = tx.Commit(); err != nil {
		return nil, txError(err, "failed to commit assignment")
	}

	s.metrics.ComplaintAssigned(ctx)
	s.logger.Info(ctx, "Complaint assigned", map[string]interface{}{
		"complaint_id":    complaintID,
		"assignee_id":     assigneeID,
		"previous":        string(current),
		"notification_id": notification.ID,
	})

	s.fanOut(ctx, complaintID, assigneeName, *notification)
	return notification, nil
}

// fanOut delivers the committed notification over pub/sub and email
func (s *AssignmentService) fanOut(ctx context.Context, complaintID int, assigneeName string, notification models.Notification) {
	if err := s.publisher.Publish(ctx, notification); err != nil {
		s.logger.Warn(ctx, "Failed to publish assignment notification", map[string]interface{}{
			"complaint_id": complaintID,
			"error":        err.Error(),
		})
	}

	if s.mailer == nil || !s.mailer.IsEnabled() {
		return
	}

	notice := mailer.AssignmentNotice{AssigneeName: assigneeName, ComplaintID: complaintID}
	err := s.db.QueryRowContext(ctx, `
		SELECT u.email, c.type, c.urgency, COALESCE(c.address, '')
		FROM users u
		JOIN complaints c ON c.id = $2
		WHERE u.id = $1`, notification.UserID, complaintID).
		Scan(&notice.To, &notice.Type, &notice.Urgency, &notice.Address)
	if err != nil {
		s.logger.Warn(ctx, "Could not look up assignment notice details", map[string]interface{}{
			"user_id":      notification.UserID,
			"complaint_id": complaintID,
			"error":        err.Error(),
		})
		return
	}

	if err := s.mailer.SendAssignmentNotice(ctx, notice); err != nil {
		s.logger.Warn(ctx, "Failed to email assignment notice", map[string]interface{}{
			"complaint_id": complaintID,
			"error":        err.Error(),
		})
	}
}
