package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for attendance records.
// Records are keyed by (user_id, date); date is the business-day calendar date.
type AttendanceRepository interface {
	// Create inserts a new record. Returns ErrRecordExists when the user already has a
	// record for that date.
	Create(ctx context.Context, attendance Attendance) (Attendance, error)

	// GetByID returns ErrRecordNotFound when no record matches.
	GetByID(ctx context.Context, id string) (Attendance, error)

	// GetByUserAndDate returns nil, nil when the user has no record for the date.
	GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*Attendance, error)

	// CloseCheckOut writes the check-out fields only while check_out_at is still null.
	// Returns ErrRecordClosed when another check-out won.
	CloseCheckOut(ctx context.Context, attendance Attendance) (Attendance, error)

	// ListByUser retrieves the user's records with filters and pagination.
	ListByUser(ctx context.Context, userID string, filter MyAttendanceFilter) ([]Attendance, int64, error)
}

// CheckInGuard serializes check-in attempts of one user for one day.
type CheckInGuard interface {
	// Acquire returns ErrCheckInInProgress when another attempt holds the key.
	// The returned release func must be called once the attempt finishes.
	Acquire(ctx context.Context, userID string, date time.Time) (release func(), err error)
}
