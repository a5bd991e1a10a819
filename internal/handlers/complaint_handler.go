package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"wastereport/internal/middleware"
	"wastereport/internal/models"
	"wastereport/internal/observability"
	"wastereport/internal/services"
	contextutils "wastereport/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// CreateComplaintRequest is the body of POST /api/complaints
type CreateComplaintRequest struct {
	CitizenID   int               `json:"citizen_id" binding:"required,gt=0"`
	Type        string            `json:"type" binding:"required,complaint_type"`
	Category    *string           `json:"category"`
	PhotoBefore string            `json:"photo_before" binding:"required"`
	Latitude    *float64          `json:"latitude" binding:"omitempty,gte=-90,lte=90"`
	Longitude   *float64          `json:"longitude" binding:"omitempty,gte=-180,lte=180"`
	Address     *string           `json:"address"`
	AIAnalysis  models.AIAnalysis `json:"ai_analysis"`
	Urgency     string            `json:"urgency" binding:"urgency"`
}

// UpdateComplaintRequest is the body of PATCH /api/complaints/:id. Empty strings are ignored.
type UpdateComplaintRequest struct {
	Status     string `json:"status" binding:"complaint_status"`
	PhotoAfter string `json:"photo_after"`
}

// AssignComplaintRequest is the body of POST /api/complaints/:id/assign
type AssignComplaintRequest struct {
	AssignedTo   int    `json:"assigned_to" binding:"required,gt=0"`
	AssignedName string `json:"assigned_name" binding:"required"`
}

// ResolveComplaintRequest is the body of POST /api/complaints/:id/resolve
type ResolveComplaintRequest struct {
	PhotoAfter string `json:"photo_after" binding:"required"`
}

// ComplaintHandler exposes the complaint lifecycle over HTTP
type ComplaintHandler struct {
	complaintService  services.ComplaintServiceInterface
	assignmentService services.AssignmentServiceInterface
	logger            *observability.Logger
}

// NewComplaintHandler creates a new ComplaintHandler instance
func NewComplaintHandler(complaintService services.ComplaintServiceInterface, assignmentService services.AssignmentServiceInterface, logger *observability.Logger) *ComplaintHandler {
	return &ComplaintHandler{
		complaintService:  complaintService,
		assignmentService: assignmentService,
		logger:            logger,
	}
}

// CreateComplaint records a new citizen report
func (h *ComplaintHandler) CreateComplaint(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_complaint")
	defer observability.FinishSpan(span, nil)

	var req CreateComplaintRequest
	if !bindJSON(c, &req) {
		return
	}

	id, err := h.complaintService.CreateComplaint(ctx, models.NewComplaint{
		CitizenID:   req.CitizenID,
		Type:        models.ComplaintType(strings.TrimSpace(req.Type)),
		Category:    req.Category,
		PhotoBefore: req.PhotoBefore,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     req.Address,
		AIAnalysis:  req.AIAnalysis,
		Urgency:     models.Urgency(strings.TrimSpace(req.Urgency)),
	})
	if err != nil {
		HandleAppError(c, err)
		return
	}

	span.SetAttributes(observability.AttributeComplaintID(id))
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// ListComplaints returns every complaint, or one citizen's when role=citizen&user_id=N
func (h *ComplaintHandler) ListComplaints(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_complaints")
	defer observability.FinishSpan(span, nil)

	var filter models.ComplaintFilter
	if c.Query("role") == string(models.RoleCitizen) {
		raw := c.Query("user_id")
		userID, err := strconv.Atoi(raw)
		if err != nil || userID <= 0 {
			HandleValidationError(c, "user_id", raw, "must be a positive integer")
			return
		}
		filter.CitizenID = userID
	}
	span.SetAttributes(attribute.Int("filter.citizen_id", filter.CitizenID))

	complaints, err := h.complaintService.ListComplaints(ctx, filter)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	span.SetAttributes(attribute.Int("complaints.count", len(complaints)))
	c.JSON(http.StatusOK, complaints)
}

// GetComplaint returns one complaint or 404
func (h *ComplaintHandler) GetComplaint(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_complaint")
	defer observability.FinishSpan(span, nil)

	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	span.SetAttributes(observability.AttributeComplaintID(id))

	complaint, err := h.complaintService.GetComplaint(ctx, id)
	if err != nil {
		if contextutils.IsError(err, contextutils.ErrRecordNotFound) {
			HandleAppError(c, contextutils.ErrRecordNotFound)
			return
		}
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, complaint)
}

// UpdateComplaint applies a partial status and/or photo_after change
func (h *ComplaintHandler) UpdateComplaint(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "update_complaint")
	defer observability.FinishSpan(span, nil)

	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	span.SetAttributes(observability.AttributeComplaintID(id))

	var req UpdateComplaintRequest
	if !bindJSON(c, &req) {
		return
	}

	var update models.ComplaintUpdate
	if status := strings.TrimSpace(req.Status); status != "" {
		s := models.ComplaintStatus(status)
		update.Status = &s
		span.SetAttributes(observability.AttributeStatus(status))
	}
	if req.PhotoAfter != "" {
		update.PhotoAfter = &req.PhotoAfter
	}

	if err := h.complaintService.UpdateComplaint(ctx, id, update); err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AssignComplaint hands the complaint to an authority member and notifies them
func (h *ComplaintHandler) AssignComplaint(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "assign_complaint")
	defer observability.FinishSpan(span, nil)

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req AssignComplaintRequest
	if !bindJSON(c, &req) {
		return
	}
	span.SetAttributes(
		observability.AttributeComplaintID(id),
		observability.AttributeUserID(req.AssignedTo),
	)

	if _, err := h.assignmentService.AssignComplaint(ctx, id, req.AssignedTo, req.AssignedName); err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ResolveComplaint marks the complaint resolved once the cleanup photo is verified
func (h *ComplaintHandler) ResolveComplaint(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "resolve_complaint")
	defer observability.FinishSpan(span, nil)

	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	span.SetAttributes(observability.AttributeComplaintID(id))

	var req ResolveComplaintRequest
	if !bindJSON(c, &req) {
		return
	}

	verification, err := h.complaintService.ResolveComplaint(ctx, id, req.PhotoAfter)
	if err != nil {
		if contextutils.GetErrorCode(err) != contextutils.ErrorCodeCleanupNotVerified {
			HandleAppError(c, err)
			return
		}

		appErr := middleware.AsAppError(err)
		body := gin.H(appErr.ToJSON())
		if verification != nil {
			body["verification"] = verification
		}
		_ = c.Error(appErr)
		c.JSON(http.StatusUnprocessableEntity, body)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "verification": verification})
}
