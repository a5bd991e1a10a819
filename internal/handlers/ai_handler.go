package handlers

import (
	"net/http"
	"strings"

	"wastereport/internal/models"
	"wastereport/internal/observability"
	"wastereport/internal/services"
	contextutils "wastereport/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// AIUnavailableWarning is shown to the user whenever the gateway cannot answer
const AIUnavailableWarning = "AI analysis unavailable"

// ClassifyRequest is the body of POST /api/ai/classify
type ClassifyRequest struct {
	Image string `json:"image" binding:"required"`
	Type  string `json:"type" binding:"complaint_type"`
}

// VerifyCleanupRequest is the body of POST /api/ai/verify-cleanup
type VerifyCleanupRequest struct {
	Before string `json:"before" binding:"required"`
	After  string `json:"after" binding:"required"`
}

// ChatRequest is the body of POST /api/ai/chat. History is replayed by the client on every call.
type ChatRequest struct {
	Message string            `json:"message" binding:"required"`
	History []models.ChatTurn `json:"history"`
}

// AIHandler exposes the AI gateway. Gateway failures degrade to a warning instead of an error status.
type AIHandler struct {
	gateway services.AIGateway
	logger  *observability.Logger
}

// NewAIHandler creates a new AIHandler instance
func NewAIHandler(gateway services.AIGateway, logger *observability.Logger) *AIHandler {
	return &AIHandler{gateway: gateway, logger: logger}
}

// Classify runs waste or dead-animal classification depending on the complaint type
func (h *AIHandler) Classify(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "ai_classify")
	defer observability.FinishSpan(span, nil)

	var req ClassifyRequest
	if !bindJSON(c, &req) {
		return
	}
	span.SetAttributes(observability.AttributeComplaintType(req.Type))

	var (
		result interface{}
		err    error
	)
	if models.ComplaintType(strings.TrimSpace(req.Type)) == models.TypeDeadAnimal {
		result, err = h.gateway.ClassifyDeadAnimal(ctx, req.Image)
	} else {
		result, err = h.gateway.ClassifyWaste(ctx, req.Image)
	}
	if err != nil {
		h.respondUnavailable(c, "classify", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"available": true, "result": result})
}

// VerifyCleanup compares before and after photos
func (h *AIHandler) VerifyCleanup(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "ai_verify_cleanup")
	defer observability.FinishSpan(span, nil)

	var req VerifyCleanupRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.gateway.VerifyCleanup(ctx, req.Before, req.After)
	if err != nil {
		h.respondUnavailable(c, "verify_cleanup", err)
		return
	}

	span.SetAttributes(attribute.Bool("verification.verified", result.Verified))
	c.JSON(http.StatusOK, gin.H{"available": true, "result": result})
}

// Chat answers a message from the assistant persona
func (h *AIHandler) Chat(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "ai_chat")
	defer observability.FinishSpan(span, nil)

	var req ChatRequest
	if !bindJSON(c, &req) {
		return
	}
	span.SetAttributes(attribute.Int("chat.history_length", len(req.History)))

	reply, err := h.gateway.Converse(ctx, req.Message, req.History)
	if err != nil {
		h.respondUnavailable(c, "chat", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"available": true, "reply": reply})
}

// respondUnavailable writes 400 for caller mistakes and a 200 warning for every other failure
func (h *AIHandler) respondUnavailable(c *gin.Context, capability string, err error) {
	if contextutils.IsError(err, contextutils.ErrValidationFailed) {
		HandleAppError(c, err)
		return
	}

	fields := map[string]interface{}{
		"capability": capability,
		"code":       string(contextutils.GetErrorCode(err)),
	}
	if contextutils.IsAIError(err) {
		fields["error"] = err.Error()
		h.logger.Warn(c.Request.Context(), "AI gateway unavailable", fields)
	} else {
		h.logger.Error(c.Request.Context(), "AI gateway failed unexpectedly", err, fields)
	}
	c.JSON(http.StatusOK, gin.H{"available": false, "warning": AIUnavailableWarning})
}
