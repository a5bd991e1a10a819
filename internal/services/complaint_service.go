package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"wastereport/internal/models"
	"wastereport/internal/observability"
	contextutils "wastereport/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// ComplaintServiceInterface defines the complaint lifecycle operations.
// This allows for easier mocking in tests.
type ComplaintServiceInterface interface {
	CreateComplaint(ctx context.Context, in models.NewComplaint) (int, error)
	ListComplaints(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, error)
	GetComplaint(ctx context.Context, id int) (*models.Complaint, error)
	UpdateComplaint(ctx context.Context, id int, update models.ComplaintUpdate) error
	ResolveComplaint(ctx context.Context, id int, photoAfter string) (*models.CleanupVerification, error)
}

// ComplaintService owns complaint CRUD and status transitions.
// Concurrent updates to the same complaint are last-write-wins per column; each write holds
// the row lock only for its own transaction.
type ComplaintService struct {
	db      *sql.DB
	policy  *TransitionPolicy
	ai      AIGateway
	metrics *observability.Metrics
	logger  *observability.Logger
}

var _ ComplaintServiceInterface = (*ComplaintService)(nil)

const complaintSelectFields = `id, citizen_id, type, category, photo_before, photo_after, latitude, longitude, address, status, ai_analysis, urgency, assigned_to, assigned_name, created_at, updated_at`

// NewComplaintService creates a new ComplaintService instance
func NewComplaintService(db *sql.DB, policy *TransitionPolicy, ai AIGateway, metrics *observability.Metrics, logger *observability.Logger) *ComplaintService {
	if policy == nil {
		policy = PermissivePolicy()
	}
	return &ComplaintService{
		db:      db,
		policy:  policy,
		ai:      ai,
		metrics: metrics,
		logger:  logger,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanComplaint(row rowScanner) (*models.Complaint, error) {
	c := &models.Complaint{}
	err := row.Scan(
		&c.ID, &c.CitizenID, &c.Type, &c.Category, &c.PhotoBefore, &c.PhotoAfter,
		&c.Latitude, &c.Longitude, &c.Address, &c.Status, &c.AIAnalysis, &c.Urgency,
		&c.AssignedTo, &c.AssignedName, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if c.AIAnalysis == nil {
		c.AIAnalysis = models.AIAnalysis{}
	}
	return c, nil
}

// validateNewComplaint checks the submission and fills in the default urgency
func validateNewComplaint(in *models.NewComplaint) error {
	if in.CitizenID <= 0 {
		return contextutils.WrapError(contextutils.ErrValidationFailed, "citizen_id is required")
	}
	if !in.Type.IsValid() {
		return contextutils.WrapErrorf(contextutils.ErrValidationFailed, "invalid complaint type %q", in.Type)
	}
	if strings.TrimSpace(in.PhotoBefore) == "" {
		return contextutils.WrapError(contextutils.ErrValidationFailed, "photo_before is required")
	}
	if in.Urgency == "" {
		in.Urgency = models.DefaultUrgency
	}
	if !in.Urgency.IsValid() {
		return contextutils.WrapErrorf(contextutils.ErrValidationFailed, "invalid urgency %q", in.Urgency)
	}
	if in.Latitude != nil && (math.IsNaN(*in.Latitude) || *in.Latitude < -90 || *in.Latitude > 90) {
		return contextutils.WrapErrorf(contextutils.ErrValidationFailed, "latitude %v out of range", *in.Latitude)
	}
	if in.Longitude != nil && (math.IsNaN(*in.Longitude) || *in.Longitude < -180 || *in.Longitude > 180) {
		return contextutils.WrapErrorf(contextutils.ErrValidationFailed, "longitude %v out of range", *in.Longitude)
	}
	return nil
}

// CreateComplaint stores a new complaint in status pending and returns its id
func (s *ComplaintService) CreateComplaint(ctx context.Context, in models.NewComplaint) (result0 int, err error) {
	ctx, span := observability.TraceComplaintFunction(ctx, "create_complaint",
		observability.AttributeUserID(in.CitizenID),
		observability.AttributeComplaintType(string(in.Type)),
	)
	defer observability.FinishSpan(span, &err)

	if err := validateNewComplaint(&in); err != nil {
		return 0, err
	}

	query := `
		INSERT INTO complaints (citizen_id, type, category, photo_before, latitude, longitude, address, ai_analysis, urgency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	var id int
	err = s.db.QueryRowContext(ctx, query,
		in.CitizenID,
		in.Type,
		models.PointerToNullString(in.Category),
		in.PhotoBefore,
		models.PointerToNullFloat64(in.Latitude),
		models.PointerToNullFloat64(in.Longitude),
		models.PointerToNullString(in.Address),
		in.AIAnalysis,
		in.Urgency,
		models.StatusPending,
	).Scan(&id)
	if err != nil {
		return 0, mapWriteError(err, "failed to create complaint")
	}

	span.SetAttributes(observability.AttributeComplaintID(id))
	s.metrics.ComplaintCreated(ctx, string(in.Type))
	s.logger.Info(ctx, "Complaint created", map[string]interface{}{
		"complaint_id": id,
		"citizen_id":   in.CitizenID,
		"type":         string(in.Type),
		"urgency":      string(in.Urgency),
	})

	return id, nil
}

// ListComplaints returns complaints newest first, optionally restricted to one citizen
func (s *ComplaintService) ListComplaints(ctx context.Context, filter models.ComplaintFilter) (result0 []models.Complaint, err error) {
	ctx, span := observability.TraceComplaintFunction(ctx, "list_complaints",
		attribute.Int("filter.citizen_id", filter.CitizenID),
	)
	defer observability.FinishSpan(span, &err)

	query := `SELECT ` + complaintSelectFields + ` FROM complaints`
	var args []interface{}
	if filter.CitizenID > 0 {
		query += ` WHERE citizen_id = $1`
		args = append(args, filter.CitizenID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, queryError(err, "failed to list complaints")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close complaint rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	complaints := make([]models.Complaint, 0)
	for rows.Next() {
		c, scanErr := scanComplaint(rows)
		if scanErr != nil {
			return nil, contextutils.WrapError(scanErr, "failed to scan complaint")
		}
		complaints = append(complaints, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(err, "error iterating complaints")
	}

	span.SetAttributes(attribute.Int("complaints.count", len(complaints)))
	return complaints, nil
}

// GetComplaint returns one complaint or ErrRecordNotFound
func (s *ComplaintService) GetComplaint(ctx context.Context, id int) (result0 *models.Complaint, err error) {
	ctx, span := observability.TraceComplaintFunction(ctx, "get_complaint", observability.AttributeComplaintID(id))
	defer observability.FinishSpan(span, &err)

	row := s.db.QueryRowContext(ctx, `SELECT `+complaintSelectFields+` FROM complaints WHERE id = $1`, id)
	c, err := scanComplaint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "complaint %d not found", id)
	}
	if err != nil {
		return nil, queryError(err, "failed to get complaint")
	}
	return c, nil
}

// normalizeUpdate treats empty strings as absent fields
func normalizeUpdate(update models.ComplaintUpdate) models.ComplaintUpdate {
	if update.Status != nil && strings.TrimSpace(string(*update.Status)) == "" {
		update.Status = nil
	}
	if update.PhotoAfter != nil && strings.TrimSpace(*update.PhotoAfter) == "" {
		update.PhotoAfter = nil
	}
	return update
}

// UpdateComplaint applies a partial update. Only supplied fields change; updated_at always moves.
func (s *ComplaintService) UpdateComplaint(ctx context.Context, id int, update models.ComplaintUpdate) (err error) {
	ctx, span := observability.TraceComplaintFunction(ctx, "update_complaint", observability.AttributeComplaintID(id))
	defer observability.FinishSpan(span, &err)

	update = normalizeUpdate(update)
	if update.Status != nil {
		if !update.Status.IsValid() {
			return contextutils.WrapErrorf(contextutils.ErrValidationFailed, "invalid status %q", *update.Status)
		}
		span.SetAttributes(observability.AttributeStatus(string(*update.Status)))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return txError(err, "failed to begin transaction")
	}
	defer rollbackTx(ctx, s.logger, tx)

	var current models.ComplaintStatus
	var photoAfter sql.NullString
	err = tx.QueryRowContext(ctx, `SELECT status, photo_after FROM complaints WHERE id = $1 FOR UPDATE`, id).
		Scan(&current, &photoAfter)
	if errors.Is(err, sql.ErrNoRows) {
		return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "complaint %d not found", id)
	}
	if err != nil {
		return queryError(err, "failed to lock complaint")
	}

	if update.Status != nil {
		if err := s.policy.Check(current, *update.Status); err != nil {
			return err
		}
		if *update.Status == models.StatusResolved && update.PhotoAfter == nil && (!photoAfter.Valid || photoAfter.String == "") {
			return contextutils.WrapError(contextutils.ErrValidationFailed, "photo_after is required to resolve a complaint")
		}
	}

	setClauses := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)
	if update.Status != nil {
		args = append(args, *update.Status)
		setClauses = append(setClauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if update.PhotoAfter != nil {
		args = append(args, *update.PhotoAfter)
		setClauses = append(setClauses, fmt.Sprintf("photo_after = $%d", len(args)))
	}
	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE complaints SET %s WHERE id = $%d`, strings.Join(setClauses, ", "), len(args))
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return mapWriteError(err, "failed to update complaint")
	}

	if err = tx.Commit(); err != nil {
		return txError(err, "failed to commit complaint update")
	}

	if update.Status != nil && *update.Status == models.StatusResolved && current != models.StatusResolved {
		s.metrics.ComplaintResolved(ctx)
	}
	s.logger.Info(ctx, "Complaint updated", map[string]interface{}{
		"complaint_id":   id,
		"previous":       string(current),
		"status_changed": update.Status != nil,
		"photo_after":    update.PhotoAfter != nil,
	})
	return nil
}

// ResolveComplaint marks a complaint resolved only after the gateway confirms the cleanup.
// The verification is returned whenever the gateway produced one, including rejections.
func (s *ComplaintService) ResolveComplaint(ctx context.Context, id int, photoAfter string) (result0 *models.CleanupVerification, err error) {
	ctx, span := observability.TraceComplaintFunction(ctx, "resolve_complaint", observability.AttributeComplaintID(id))
	defer observability.FinishSpan(span, &err)

	if strings.TrimSpace(photoAfter) == "" {
		return nil, contextutils.WrapError(contextutils.ErrValidationFailed, "photo_after is required")
	}

	complaint, err := s.GetComplaint(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.ai == nil {
		return nil, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeCleanupNotVerified, contextutils.SeverityWarn,
			"Cleanup could not be verified", "AI analysis unavailable", contextutils.ErrAIProviderUnavailable)
	}

	verification, err := s.ai.VerifyCleanup(ctx, complaint.PhotoBefore, photoAfter)
	if err != nil {
		s.logger.Warn(ctx, "Cleanup verification unavailable, resolution blocked", map[string]interface{}{
			"complaint_id": id,
			"error":        err.Error(),
		})
		return nil, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeCleanupNotVerified, contextutils.SeverityWarn,
			"Cleanup could not be verified", "AI analysis unavailable", err)
	}

	span.SetAttributes(
		attribute.Bool("verification.verified", verification.Verified),
		attribute.Float64("verification.score", verification.Score),
	)
	if !verification.Verified {
		return verification, contextutils.NewAppError(contextutils.ErrorCodeCleanupNotVerified, contextutils.SeverityInfo,
			"Cleanup was not verified", verification.Feedback)
	}

	resolved := models.StatusResolved
	if err := s.UpdateComplaint(ctx, id, models.ComplaintUpdate{Status: &resolved, PhotoAfter: &photoAfter}); err != nil {
		return verification, err
	}
	return verification, nil
}
