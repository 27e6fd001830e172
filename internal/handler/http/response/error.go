package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

var attendanceStatus = map[attendance.Kind]int{
	attendance.KindNotFound:          http.StatusNotFound,
	attendance.KindDuplicateCheckIn:  http.StatusConflict,
	attendance.KindNoOpenCheckIn:     http.StatusConflict,
	attendance.KindAlreadyCheckedOut: http.StatusConflict,
	attendance.KindValidationFailed:  http.StatusUnprocessableEntity,
	attendance.KindLocationRejected:  http.StatusUnprocessableEntity,
	attendance.KindSystemError:       http.StatusInternalServerError,
}

// StatusForKind returns the HTTP status used for an attendance rejection kind.
func StatusForKind(kind attendance.Kind) int {
	if status, ok := attendanceStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Attendance rejections carry their own message and recommendations
	var attErr *attendance.Error
	if errors.As(err, &attErr) {
		message := attErr.Message
		if attErr.Kind == attendance.KindSystemError {
			message = attendance.ErrSystem.Message
		}
		Rejection(w, StatusForKind(attErr.Kind), string(attErr.Kind), message, attErr.Fields, attErr.Recommendations)
		return
	}

	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Auth domain errors
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
