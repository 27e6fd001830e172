package attendance

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/office"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// CHECK-IN / CHECK-OUT DTOs
// ========================================

type CheckInRequest struct {
	UserID         string  `json:"-"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Accuracy       float64 `json:"accuracy"`
	AttendanceType Type    `json:"attendance_type"`
	Reason         *string `json:"reason,omitempty"`
	CustomerName   *string `json:"customer_name,omitempty"`
	ImageData      *string `json:"image_data,omitempty"` // base64, optionally as a data URL
	DeviceInfo     *string `json:"device_info,omitempty"`
}

func (r *CheckInRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id is required",
		})
	} else if !validator.IsValidIdentifier(r.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id contains invalid characters",
		})
	}

	r.AttendanceType = Type(strings.ToLower(strings.TrimSpace(string(r.AttendanceType))))
	if !validator.IsInSlice(string(r.AttendanceType), TypeValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "attendance_type",
			Message: "attendance_type must be one of: office, remote, field_work",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// RuleViolations applies the per-type business rules. Every missing field is listed.
func (r *CheckInRequest) RuleViolations() validator.ValidationErrors {
	var errs validator.ValidationErrors

	switch r.AttendanceType {
	case TypeFieldWork:
		if validator.IsBlank(r.CustomerName) {
			errs = append(errs, validator.ValidationError{
				Field:   "customer_name",
				Message: "customer name is required for field work",
			})
		}
		if validator.IsBlank(r.ImageData) {
			errs = append(errs, validator.ValidationError{
				Field:   "image_data",
				Message: "photo is required for field work",
			})
		}
	case TypeRemote:
		if validator.IsBlank(r.Reason) {
			errs = append(errs, validator.ValidationError{
				Field:   "reason",
				Message: "reason is required for remote work",
			})
		}
	}

	return errs
}

type CheckOutRequest struct {
	UserID    string   `json:"-"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Reason    *string  `json:"reason,omitempty"`
	OTReason  *string  `json:"ot_reason,omitempty"`
	ImageData *string  `json:"image_data,omitempty"`
}

func (r *CheckOutRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id is required",
		})
	} else if !validator.IsValidIdentifier(r.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id contains invalid characters",
		})
	}

	if (r.Latitude == nil) != (r.Longitude == nil) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude and longitude must be provided together",
		})
	}

	if r.Latitude != nil && !validator.IsValidLatitude(*r.Latitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}

	if r.Longitude != nil && !validator.IsValidLongitude(*r.Longitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type LatenessDetail struct {
	IsLate          bool   `json:"is_late"`
	LateMinutes     int    `json:"late_minutes"`
	ExpectedCheckIn string `json:"expected_check_in"`
	Department      string `json:"department"`
}

type CheckInResult struct {
	Success         bool                    `json:"success"`
	Message         string                  `json:"message"`
	AttendanceID    string                  `json:"attendance_id"`
	Status          Status                  `json:"status"`
	AttendanceType  Type                    `json:"attendance_type"`
	CheckInAt       string                  `json:"check_in_at"`
	Location        office.ValidationResult `json:"location_validation"`
	Lateness        LatenessDetail          `json:"lateness"`
	Recommendations []string                `json:"recommendations"`
	Warnings        []string                `json:"warnings"`
	PhotoURL        *string                 `json:"photo_url,omitempty"`
}

type CheckOutResult struct {
	Success           bool     `json:"success"`
	Message           string   `json:"message"`
	AttendanceID      string   `json:"attendance_id"`
	CheckOutAt        string   `json:"check_out_at"`
	WorkingHours      float64  `json:"working_hours"`
	OvertimeHours     float64  `json:"overtime_hours"`
	TotalHours        float64  `json:"total_hours"`
	EarlyLeaveMinutes int      `json:"early_leave_minutes"`
	IsEarlyLeave      bool     `json:"is_early_leave"`
	Warnings          []string `json:"warnings"`
	PhotoURL          *string  `json:"photo_url,omitempty"`
}

// ========================================
// STATUS / PREVIEW DTOs
// ========================================

type TodayResponse struct {
	Date        string              `json:"date"`
	State       State               `json:"state"`
	CanCheckIn  bool                `json:"can_check_in"`
	CanCheckOut bool                `json:"can_check_out"`
	Attendance  *AttendanceResponse `json:"attendance,omitempty"`
}

type WorkingHoursPreview struct {
	AttendanceID     string  `json:"attendance_id"`
	CheckInAt        string  `json:"check_in_at"`
	AsOf             string  `json:"as_of"`
	StandardHours    float64 `json:"standard_hours"`
	BreakMinutes     int     `json:"break_minutes"`
	WorkingHours     float64 `json:"working_hours"`
	OvertimeHours    float64 `json:"overtime_hours"`
	TotalHours       float64 `json:"total_hours"`
	ExpectedCheckOut string  `json:"expected_check_out"`
}

// ========================================
// HISTORY DTOs
// ========================================

type AttendanceResponse struct {
	ID                     string   `json:"id"`
	UserID                 string   `json:"user_id"`
	Date                   string   `json:"date"`
	AttendanceType         string   `json:"attendance_type"`
	Status                 string   `json:"status"`
	CheckInAt              string   `json:"check_in_at"`
	CheckOutAt             *string  `json:"check_out_at,omitempty"`
	CheckInLatitude        float64  `json:"check_in_latitude"`
	CheckInLongitude       float64  `json:"check_in_longitude"`
	CheckInAccuracy        float64  `json:"check_in_accuracy"`
	CheckOutLatitude       *float64 `json:"check_out_latitude,omitempty"`
	CheckOutLongitude      *float64 `json:"check_out_longitude,omitempty"`
	PhotoURL               *string  `json:"photo_url,omitempty"`
	CheckOutPhotoURL       *string  `json:"check_out_photo_url,omitempty"`
	Reason                 *string  `json:"reason,omitempty"`
	CustomerName           *string  `json:"customer_name,omitempty"`
	CheckOutReason         *string  `json:"check_out_reason,omitempty"`
	OvertimeReason         *string  `json:"overtime_reason,omitempty"`
	IsLate                 bool     `json:"is_late"`
	LateMinutes            int      `json:"late_minutes"`
	EarlyLeaveMinutes      *int     `json:"early_leave_minutes,omitempty"`
	WorkingHours           *float64 `json:"working_hours,omitempty"`
	OvertimeHours          *float64 `json:"overtime_hours,omitempty"`
	TotalHours             *float64 `json:"total_hours,omitempty"`
	LocationConfidence     float64  `json:"location_confidence"`
	LocationValidationType string   `json:"location_validation_type"`
	LocationOfficeID       *string  `json:"location_office_id,omitempty"`
	LocationOfficeName     *string  `json:"location_office_name,omitempty"`
	LocationDistance       float64  `json:"location_distance"`
	CreatedAt              string   `json:"created_at"`
	UpdatedAt              string   `json:"updated_at"`
}

// ToResponse converts the entity into its wire form.
func (a Attendance) ToResponse() AttendanceResponse {
	return AttendanceResponse{
		ID:                     a.ID,
		UserID:                 a.UserID,
		Date:                   a.Date.Format("2006-01-02"),
		AttendanceType:         string(a.Type),
		Status:                 string(a.Status),
		CheckInAt:              a.CheckInAt.Format(time.RFC3339),
		CheckOutAt:             timePtrToString(a.CheckOutAt),
		CheckInLatitude:        a.CheckInLatitude,
		CheckInLongitude:       a.CheckInLongitude,
		CheckInAccuracy:        a.CheckInAccuracy,
		CheckOutLatitude:       a.CheckOutLatitude,
		CheckOutLongitude:      a.CheckOutLongitude,
		PhotoURL:               a.PhotoURL,
		CheckOutPhotoURL:       a.CheckOutPhotoURL,
		Reason:                 a.Reason,
		CustomerName:           a.CustomerName,
		CheckOutReason:         a.CheckOutReason,
		OvertimeReason:         a.OvertimeReason,
		IsLate:                 a.IsLate,
		LateMinutes:            a.LateMinutes,
		EarlyLeaveMinutes:      a.EarlyLeaveMinutes,
		WorkingHours:           decimalPtrToFloat(a.WorkingHours),
		OvertimeHours:          decimalPtrToFloat(a.OvertimeHours),
		TotalHours:             decimalPtrToFloat(a.TotalHours),
		LocationConfidence:     a.LocationConfidence,
		LocationValidationType: string(a.LocationValidationType),
		LocationOfficeID:       a.LocationOfficeID,
		LocationOfficeName:     a.LocationOfficeName,
		LocationDistance:       a.LocationDistance,
		CreatedAt:              a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:              a.UpdatedAt.Format(time.RFC3339),
	}
}

func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func decimalPtrToFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

type MyAttendanceFilter struct {
	Date      *string `json:"date,omitempty"`       // YYYY-MM-DD
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status    *string `json:"status,omitempty"`
	Type      *string `json:"attendance_type,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortBy    string `json:"sort_by"`    // date, check_in_at, check_out_at, status
	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *MyAttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	// Page validation
	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	// Limit validation
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20 // Default limit
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.Status != nil {
		validStatuses := []string{string(StatusPresent), string(StatusLate)}
		if !validator.IsInSlice(*f.Status, validStatuses) {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "status must be one of: present, late",
			})
		}
	}

	if f.Type != nil && !validator.IsInSlice(*f.Type, TypeValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "attendance_type",
			Message: "attendance_type must be one of: office, remote, field_work",
		})
	}

	// Date validation
	if f.Date != nil && *f.Date != "" {
		if _, valid := validator.IsValidDate(*f.Date); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "date",
				Message: "date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.StartDate != nil && *f.StartDate != "" {
		if _, valid := validator.IsValidDate(*f.StartDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.EndDate != nil && *f.EndDate != "" {
		if _, valid := validator.IsValidDate(*f.EndDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.SortBy != "" {
		validSortFields := []string{"date", "check_in_at", "check_out_at", "status"}
		if !validator.IsInSlice(f.SortBy, validSortFields) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_by",
				Message: "sort_by must be one of: date, check_in_at, check_out_at, status",
			})
		}
	} else {
		f.SortBy = "date" // Default sort
	}

	if f.SortOrder != "" {
		validSortOrders := []string{"asc", "desc"}
		if !validator.IsInSlice(strings.ToLower(f.SortOrder), validSortOrders) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_order",
				Message: "sort_order must be one of: asc, desc",
			})
		}
		f.SortOrder = strings.ToLower(f.SortOrder)
	} else {
		f.SortOrder = "desc" // Default descending (newest first)
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Showing     string               `json:"showing"`
	Attendances []AttendanceResponse `json:"attendances"`
}
