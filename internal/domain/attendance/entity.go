package attendance

import (
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/office"
	"github.com/shopspring/decimal"
)

// Type is how the employee is working for the day.
type Type string

const (
	TypeOffice    Type = "office"
	TypeRemote    Type = "remote"
	TypeFieldWork Type = "field_work"
)

var TypeValues = []string{
	string(TypeOffice),
	string(TypeRemote),
	string(TypeFieldWork),
}

type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
)

// State is the per-day lifecycle position of a user.
type State string

const (
	StateNoRecord   State = "no_record"
	StateCheckedIn  State = "checked_in"
	StateCheckedOut State = "checked_out"
)

// Attendance is the single record a user has for one calendar day. Check-out fields
// stay nil until the record is closed.
type Attendance struct {
	ID     string
	UserID string
	Date   time.Time
	Type   Type
	Status Status

	CheckInAt        time.Time
	CheckInLatitude  float64
	CheckInLongitude float64
	CheckInAccuracy  float64
	PhotoURL         *string
	Reason           *string
	CustomerName     *string
	DeviceInfo       *string

	IsLate      bool
	LateMinutes int

	LocationConfidence     float64
	LocationValidationType office.ValidationType
	LocationOfficeID       *string
	LocationOfficeName     *string
	LocationDistance       float64

	CheckOutAt        *time.Time
	CheckOutLatitude  *float64
	CheckOutLongitude *float64
	CheckOutPhotoURL  *string
	CheckOutReason    *string
	OvertimeReason    *string
	EarlyLeaveMinutes *int
	WorkingHours      *decimal.Decimal
	OvertimeHours     *decimal.Decimal
	TotalHours        *decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsClosed reports whether check-out has been recorded.
func (a Attendance) IsClosed() bool {
	return a.CheckOutAt != nil
}

// State derives the lifecycle state of the day from the record.
func (a *Attendance) State() State {
	switch {
	case a == nil:
		return StateNoRecord
	case a.IsClosed():
		return StateCheckedOut
	default:
		return StateCheckedIn
	}
}

// ApplyLocation copies the embedded validation metadata onto the record.
func (a *Attendance) ApplyLocation(v office.ValidationResult) {
	a.LocationConfidence = v.Confidence
	a.LocationValidationType = v.ValidationType
	a.LocationDistance = v.Distance
	if v.OfficeID != "" {
		id := v.OfficeID
		a.LocationOfficeID = &id
	}
	if v.OfficeName != "" {
		name := v.OfficeName
		a.LocationOfficeName = &name
	}
}
