package attendance

import (
	"context"
)

// AttendanceService is the check-in/check-out entry point used by transports.
type AttendanceService interface {
	// CheckIn opens today's record for the user.
	CheckIn(ctx context.Context, req CheckInRequest) (CheckInResult, error)

	// CheckOut closes today's open record and computes hours.
	CheckOut(ctx context.Context, req CheckOutRequest) (CheckOutResult, error)

	// Today reports the user's state for the current business day.
	Today(ctx context.Context, userID string) (TodayResponse, error)

	// PreviewWorkingHours computes hours of the open record as if the user checked out now.
	PreviewWorkingHours(ctx context.Context, userID string) (WorkingHoursPreview, error)

	// ListMyAttendance returns the user's paginated history.
	ListMyAttendance(ctx context.Context, userID string, filter MyAttendanceFilter) (ListAttendanceResponse, error)
}
