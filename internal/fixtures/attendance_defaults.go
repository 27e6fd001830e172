package fixtures

import (
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/department"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/office"
)

// ==========================================
// DEFAULT DEPARTMENT TIMINGS
// ==========================================

// DefaultBreakMinutes is the unpaid lunch break of a standard office day.
const DefaultBreakMinutes = 60

// GetDefaultDepartmentCatalogue returns the built-in shift windows. General is the
// fallback for unknown departments.
func GetDefaultDepartmentCatalogue() department.Catalogue {
	officeHours := department.Timing{CheckIn: "9:00 AM", CheckOut: "6:00 PM", StandardHours: 8, BreakMinutes: DefaultBreakMinutes}

	return department.Catalogue{
		Default: department.General,
		Timings: map[department.Department]department.Timing{
			department.General:        officeHours,
			department.Sales:          officeHours,
			department.Marketing:      officeHours,
			department.Engineering:    {CheckIn: "10:00 AM", CheckOut: "7:00 PM", StandardHours: 8, BreakMinutes: DefaultBreakMinutes},
			department.Finance:        {CheckIn: "8:30 AM", CheckOut: "5:30 PM", StandardHours: 8, BreakMinutes: DefaultBreakMinutes},
			department.HumanResources: {CheckIn: "8:30 AM", CheckOut: "5:30 PM", StandardHours: 8, BreakMinutes: DefaultBreakMinutes},
			department.Operations:     {CheckIn: "8:00 AM", CheckOut: "5:00 PM", StandardHours: 8, BreakMinutes: DefaultBreakMinutes},
		},
	}
}

// ==========================================
// DEFAULT OFFICES
// ==========================================

// GetDefaultOffices returns the built-in office geofences.
func GetDefaultOffices() []office.Location {
	return []office.Location{
		{ID: "jakarta-hq", Name: "Jakarta Head Office", Latitude: -6.2088, Longitude: 106.8456, RadiusMeters: 100},
		{ID: "bandung", Name: "Bandung Branch", Latitude: -6.9175, Longitude: 107.6191, RadiusMeters: 100},
		{ID: "surabaya", Name: "Surabaya Branch", Latitude: -7.2575, Longitude: 112.7521, RadiusMeters: 150},
	}
}
