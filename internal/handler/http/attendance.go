package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/file"
)

const (
	maxFormBytes = 10 << 20
	// base64 inflates the photo by a third
	maxJSONBytes = 16 << 20
)

type AttendanceHandler interface {
	CheckIn(w http.ResponseWriter, r *http.Request)
	CheckOut(w http.ResponseWriter, r *http.Request)
	Today(w http.ResponseWriter, r *http.Request)
	Preview(w http.ResponseWriter, r *http.Request)
	GetMyAttendance(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// CheckIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckIn(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Missing user identity")
		return
	}

	var req attendance.CheckInRequest
	photo, ok := decodeAttendanceRequest(w, r, &req)
	if !ok {
		return
	}
	req.UserID = userID
	if photo != nil {
		req.ImageData = photo
	}

	result, err := h.attendanceService.CheckIn(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, result.Message, result)
}

// CheckOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckOut(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Missing user identity")
		return
	}

	var req attendance.CheckOutRequest
	photo, ok := decodeAttendanceRequest(w, r, &req)
	if !ok {
		return
	}
	req.UserID = userID
	if photo != nil {
		req.ImageData = photo
	}

	result, err := h.attendanceService.CheckOut(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, result.Message, result)
}

// Today implements AttendanceHandler.
func (h *attendanceHandlerImpl) Today(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Missing user identity")
		return
	}

	result, err := h.attendanceService.Today(r.Context(), userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Preview implements AttendanceHandler.
func (h *attendanceHandlerImpl) Preview(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Missing user identity")
		return
	}

	result, err := h.attendanceService.PreviewWorkingHours(r.Context(), userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetMyAttendance implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetMyAttendance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		response.Unauthorized(w, "Missing user identity")
		return
	}

	// Parse query parameters
	query := r.URL.Query()
	filter := attendance.MyAttendanceFilter{}

	if date := query.Get("date"); date != "" {
		filter.Date = &date
	}

	// Date range filters
	if startDate := query.Get("start_date"); startDate != "" {
		filter.StartDate = &startDate
	}
	if endDate := query.Get("end_date"); endDate != "" {
		filter.EndDate = &endDate
	}

	if status := query.Get("status"); status != "" {
		filter.Status = &status
	}
	if attendanceType := query.Get("attendance_type"); attendanceType != "" {
		filter.Type = &attendanceType
	}

	// Pagination
	page := 1
	if p := query.Get("page"); p != "" {
		if pageNum, err := strconv.Atoi(p); err == nil && pageNum > 0 {
			page = pageNum
		}
	}
	filter.Page = page

	limit := 20
	if l := query.Get("limit"); l != "" {
		if limitNum, err := strconv.Atoi(l); err == nil && limitNum > 0 {
			limit = limitNum
		}
	}
	filter.Limit = limit

	// Sorting
	filter.SortBy = query.Get("sort_by")
	filter.SortOrder = query.Get("sort_order")

	results, err := h.attendanceService.ListMyAttendance(ctx, userID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, results, &response.Meta{
		Page:       results.Page,
		Limit:      results.Limit,
		TotalItems: results.TotalCount,
		TotalPages: results.TotalPages,
	})
}

// decodeAttendanceRequest reads either a JSON body or a multipart form with a JSON
// 'data' field and an optional 'photo' file. The photo, when present, is returned
// base64-encoded. On failure a response has already been written.
func decodeAttendanceRequest(w http.ResponseWriter, r *http.Request, dst interface{}) (*string, bool) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBytes)).Decode(dst); err != nil {
			slog.WarnContext(r.Context(), "Failed to decode attendance request", "error", err)
			response.BadRequest(w, "Invalid request format", nil)
			return nil, false
		}
		return nil, true
	}

	// Parse multipart form (max 10MB)
	if err := r.ParseMultipartForm(maxFormBytes); err != nil {
		slog.WarnContext(r.Context(), "Failed to parse multipart form", "error", err)
		response.BadRequest(w, "Failed to parse form data", nil)
		return nil, false
	}

	// Get JSON data from 'data' field
	dataJSON := r.FormValue("data")
	if dataJSON == "" {
		response.BadRequest(w, "Field 'data' is required", nil)
		return nil, false
	}
	if err := json.Unmarshal([]byte(dataJSON), dst); err != nil {
		slog.WarnContext(r.Context(), "Failed to unmarshal JSON data", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return nil, false
	}

	photoFile, _, err := r.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, true
		}
		slog.WarnContext(r.Context(), "Failed to get file from form", "error", err)
		response.BadRequest(w, "Invalid file upload", nil)
		return nil, false
	}
	defer photoFile.Close()

	raw, err := io.ReadAll(io.LimitReader(photoFile, file.MaxPhotoBytes+1))
	if err != nil {
		response.BadRequest(w, "Invalid file upload", nil)
		return nil, false
	}
	if len(raw) > file.MaxPhotoBytes {
		response.BadRequest(w, "Photo is too large", map[string]string{"photo": "photo must not exceed 10MB"})
		return nil, false
	}

	encoded := base64.StdEncoding.EncodeToString(raw)
	return &encoded, true
}
