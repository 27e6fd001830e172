package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Response is the envelope every endpoint writes.
type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    interface{}  `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
	Meta    *Meta        `json:"meta,omitempty"`
}

type ErrorDetail struct {
	Code            string            `json:"code"`
	Message         string            `json:"message"`
	Details         map[string]string `json:"details,omitempty"`
	Recommendations []string          `json:"recommendations"`
}

type Meta struct {
	Page       int   `json:"page,omitempty"`
	Limit      int   `json:"limit,omitempty"`
	TotalItems int64 `json:"total_items,omitempty"`
	TotalPages int   `json:"total_pages,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload Response) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
		statusCode = http.StatusInternalServerError
		body, _ = json.Marshal(Response{
			Error: &ErrorDetail{Code: "ENCODING_ERROR", Message: "Failed to encode response", Recommendations: []string{}},
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(append(body, '\n'))
}

func failure(w http.ResponseWriter, statusCode int, code, message string, details map[string]string, recommendations []string) {
	if recommendations == nil {
		recommendations = []string{}
	}
	writeJSON(w, statusCode, Response{
		Error: &ErrorDetail{
			Code:            code,
			Message:         message,
			Details:         details,
			Recommendations: recommendations,
		},
	})
}

func Success(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

func SuccessWithMessage(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusOK, Response{Success: true, Message: message, Data: data})
}

func Created(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusCreated, Response{Success: true, Message: message, Data: data})
}

func SuccessWithMeta(w http.ResponseWriter, data interface{}, meta *Meta) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: data, Meta: meta})
}

func BadRequest(w http.ResponseWriter, message string, details map[string]string) {
	failure(w, http.StatusBadRequest, "BAD_REQUEST", message, details, nil)
}

func ValidationError(w http.ResponseWriter, details map[string]string) {
	failure(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Validation failed", details, nil)
}

func Unauthorized(w http.ResponseWriter, message string) {
	failure(w, http.StatusUnauthorized, "UNAUTHORIZED", message, nil, nil)
}

func NotFound(w http.ResponseWriter, message string) {
	failure(w, http.StatusNotFound, "NOT_FOUND", message, nil, nil)
}

func InternalServerError(w http.ResponseWriter, message string) {
	failure(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", message, nil, nil)
}

func TooManyRequests(w http.ResponseWriter, message string) {
	failure(w, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", message, nil, nil)
}

// Rejection writes an attendance rejection with its kind as the error code and
// the recommendations the user can act on.
func Rejection(w http.ResponseWriter, statusCode int, code string, message string, details map[string]string, recommendations []string) {
	failure(w, statusCode, code, message, details, recommendations)
}
