package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"wastereport/internal/middleware"
	"wastereport/internal/models"
	contextutils "wastereport/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// HandleValidationError handles input validation errors consistently
func HandleValidationError(c *gin.Context, field string, value interface{}, reason string) {
	HandleAppError(c, contextutils.NewAppError(
		contextutils.ErrorCodeValidationFailed,
		contextutils.SeverityWarn,
		fmt.Sprintf("Invalid %s", field),
		fmt.Sprintf("Value '%v' is invalid: %s", value, reason),
	))
}

// HandleAppError handles any error and sends the HTTP response matching its code
func HandleAppError(c *gin.Context, err error) {
	middleware.WriteAppError(c, err)
}

// bindJSON decodes the body into req and writes the error response when it fails
func bindJSON(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	HandleAppError(c, bindError(err))
	return false
}

// bindError converts a binding failure into the matching AppError
func bindError(err error) error {
	if middleware.IsBodyTooLarge(err) {
		return contextutils.ErrRequestTooLarge
	}
	if errors.Is(err, models.ErrAIAnalysisNotObject) {
		return contextutils.WrapError(contextutils.ErrValidationFailed, models.ErrAIAnalysisNotObject.Error())
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		problems := make([]string, 0, len(validationErrs))
		for _, fe := range validationErrs {
			problems = append(problems, describeFieldError(fe))
		}
		return contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeValidationFailed,
			contextutils.SeverityWarn,
			strings.Join(problems, "; "),
			"",
			err,
		)
	}

	return contextutils.NewAppErrorWithCause(
		contextutils.ErrorCodeInvalidInput,
		contextutils.SeverityWarn,
		"Invalid request body",
		"",
		err,
	)
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gt", "gte", "lte", "min", "max":
		return fmt.Sprintf("%s is out of range", field)
	case "email":
		return "a valid email is required"
	case "complaint_type", "complaint_status", "urgency", "user_role":
		return fmt.Sprintf("invalid %s %q", field, fmt.Sprint(fe.Value()))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// pathID parses a positive integer path parameter, writing a 400 when it is malformed
func pathID(c *gin.Context, name string) (int, bool) {
	raw := c.Param(name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		HandleValidationError(c, name, raw, "must be a positive integer")
		return 0, false
	}
	return id, true
}
