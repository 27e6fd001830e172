package timing

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/department"
	"github.com/shopspring/decimal"
)

// Resolver answers shift-window questions for departments from an immutable catalogue.
type Resolver struct {
	catalogue department.Catalogue
}

func NewResolver(catalogue department.Catalogue) *Resolver {
	return &Resolver{catalogue: catalogue}
}

// Resolve maps a free-form department name to a known department and its timing.
// Unknown or unconfigured names fall back to the catalogue default.
func (r *Resolver) Resolve(name string) (department.Department, department.Timing) {
	if d, ok := department.ParseDepartment(name); ok {
		if t, ok := r.catalogue.Lookup(d); ok {
			return d, t
		}
	}
	return r.catalogue.Default, r.catalogue.DefaultTiming()
}

// Timing returns the shift window for the named department.
func (r *Resolver) Timing(name string) department.Timing {
	_, t := r.Resolve(name)
	return t
}

var timeOfDayPattern = regexp.MustCompile(`^(?i)(1[0-2]|0?[1-9]):([0-5][0-9]) ?(AM|PM)$`)

// ParseTimeOfDay parses a 12-hour clock string such as "9:30 AM" into a 24-hour hour
// and minute.
func ParseTimeOfDay(s string) (hour, minute int, ok bool) {
	m := timeOfDayPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, false
	}

	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])

	pm := strings.EqualFold(m[3], "PM")
	switch {
	case hour == 12 && !pm:
		hour = 0
	case hour != 12 && pm:
		hour += 12
	}

	return hour, minute, true
}

// AtTimeOfDay returns base's calendar date at the given time of day, in base's location.
// A malformed time string leaves base unchanged.
func AtTimeOfDay(base time.Time, s string) time.Time {
	hour, minute, ok := ParseTimeOfDay(s)
	if !ok {
		return base
	}
	return time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, base.Location())
}

type Lateness struct {
	IsLate      bool
	LateMinutes int
	ExpectedAt  time.Time
}

// CalculateLateness compares a check-in against the expected time of day on the same
// date. Lateness is counted in whole minutes: a check-in less than a full minute past
// the expected time (9:00:30 for 9:00 AM) is on time, and IsLate holds exactly when
// LateMinutes > 0.
func CalculateLateness(checkIn time.Time, expected string) Lateness {
	expectedAt := AtTimeOfDay(checkIn, expected)

	lateMinutes := floorMinutes(checkIn.Sub(expectedAt))

	return Lateness{
		IsLate:      lateMinutes > 0,
		LateMinutes: lateMinutes,
		ExpectedAt:  expectedAt,
	}
}

type WorkingHours struct {
	ElapsedMinutes  int
	BreakMinutes    int
	TotalMinutes    int
	RegularMinutes  int
	OvertimeMinutes int

	TotalHours    decimal.Decimal
	RegularHours  decimal.Decimal
	OvertimeHours decimal.Decimal
}

// CalculateWorkingHours splits the time between check-in and check-out into regular
// and overtime work. The unpaid break is deducted only once the elapsed time exceeds
// half of the standard shift. With BreakMinutes set to 0 the total is the elapsed
// time. Every duration clamps at zero.
func CalculateWorkingHours(checkIn, checkOut time.Time, t department.Timing) WorkingHours {
	elapsed := floorMinutes(checkOut.Sub(checkIn))
	standard := t.StandardMinutes()

	breakMinutes := 0
	if t.BreakMinutes > 0 && elapsed*2 > standard {
		breakMinutes = min(t.BreakMinutes, elapsed)
	}

	total := elapsed - breakMinutes
	regular := min(total, standard)
	overtime := max(0, total-standard)

	return WorkingHours{
		ElapsedMinutes:  elapsed,
		BreakMinutes:    breakMinutes,
		TotalMinutes:    total,
		RegularMinutes:  regular,
		OvertimeMinutes: overtime,
		TotalHours:      MinutesToHours(total),
		RegularHours:    MinutesToHours(regular),
		OvertimeHours:   MinutesToHours(overtime),
	}
}

// CalculateEarlyLeave returns how many whole minutes before the expected check-out time
// of the check-in date the user left. Zero when not early.
func CalculateEarlyLeave(checkIn, checkOut time.Time, expectedCheckOut string) int {
	expectedAt := AtTimeOfDay(checkIn, expectedCheckOut)
	if expectedAt.Equal(checkIn) {
		return 0
	}
	return floorMinutes(expectedAt.Sub(checkOut))
}

// MinutesToHours converts minutes to hours rounded to two decimal places.
func MinutesToHours(minutes int) decimal.Decimal {
	if minutes <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60)).Round(2)
}

func floorMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Floor(d.Minutes()))
}
