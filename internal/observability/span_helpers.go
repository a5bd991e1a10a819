package observability

import (
	contextutils "wastereport/internal/utils"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// expectedFailures are outcomes a caller caused; they are tagged on the span but leave its status Unset
var expectedFailures = map[contextutils.ErrorCode]bool{
	contextutils.ErrorCodeRecordNotFound:      true,
	contextutils.ErrorCodeRecordExists:        true,
	contextutils.ErrorCodeInvalidInput:        true,
	contextutils.ErrorCodeMissingRequired:     true,
	contextutils.ErrorCodeValidationFailed:    true,
	contextutils.ErrorCodeInvalidCredentials:  true,
	contextutils.ErrorCodeInvalidTransition:   true,
	contextutils.ErrorCodeCleanupNotVerified:  true,
	contextutils.ErrorCodeForeignKeyViolation: true,
}

// FinishSpan ends a span and records any error pointed to by errPtr.
// Use with a named error return: `defer observability.FinishSpan(span, &err)`
func FinishSpan(span trace.Span, errPtr *error) {
	if span == nil {
		return
	}
	if errPtr != nil && *errPtr != nil {
		err := *errPtr
		code := contextutils.GetErrorCode(err)
		span.SetAttributes(attribute.String("error.code", string(code)))
		if !expectedFailures[code] {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}
