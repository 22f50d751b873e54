package errorhandler

import (
	"context"
	"net/http"

	"github.com/gigboard/gigboard-api/internal/middleware"
	"github.com/gigboard/gigboard-api/internal/pkg/logger"
	"github.com/gigboard/gigboard-api/internal/pkg/response"
)

// HandleError logs the failure and sends the error envelope
func HandleError(ctx context.Context, w http.ResponseWriter, status int, code, message string, err error) {
	event := logger.FromContext(ctx).Error()
	if status < http.StatusInternalServerError {
		event = logger.FromContext(ctx).Warn()
	}
	if err != nil {
		event = event.Err(err)
	}
	event.
		Str("request_id", middleware.GetRequestID(ctx)).
		Str("user_id", middleware.GetUserID(ctx)).
		Str("error_code", code).
		Int("status_code", status).
		Msg(message)

	response.Error(w, status, code, message)
}

// HandleErrorWithDetails is HandleError for responses carrying field details
func HandleErrorWithDetails(ctx context.Context, w http.ResponseWriter, status int, code, message string, details map[string]string, err error) {
	event := logger.FromContext(ctx).Warn()
	if err != nil {
		event = event.Err(err)
	}
	event.
		Str("request_id", middleware.GetRequestID(ctx)).
		Str("error_code", code).
		Interface("error_details", details).
		Msg(message)

	response.ErrorWithDetails(w, status, code, message, details)
}

// LogValidationError logs validation errors with details
func LogValidationError(ctx context.Context, fieldErrors map[string]string) {
	logger.FromContext(ctx).Debug().
		Str("request_id", middleware.GetRequestID(ctx)).
		Interface("validation_errors", fieldErrors).
		Msg("Validation error")
}
