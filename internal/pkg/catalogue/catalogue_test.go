package catalogue

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/department"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/timing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalogue = `default_department: operations
departments:
  sales:
    check_in: "8:00 AM"
    check_out: "5:00 PM"
    standard_hours: 8
    break_minutes: 45
  Human Resources:
    check_in: "9:00 AM"
    check_out: "4:00 PM"
    standard_hours: 7
offices:
  - id: singapore
    name: Singapore Office
    latitude: 1.2834
    longitude: 103.8607
    radius_meters: 80
`

func TestDefaultsAreValid(t *testing.T) {
	require.NoError(t, Defaults().Validate())
}

func TestParse_OverlaysDefaults(t *testing.T) {
	c, err := Parse([]byte(sampleCatalogue), Defaults())
	require.NoError(t, err)

	assert.Equal(t, department.Operations, c.Departments.Default)

	sales, ok := c.Departments.Lookup(department.Sales)
	require.True(t, ok)
	assert.Equal(t, "8:00 AM", sales.CheckIn)
	assert.Equal(t, 45, sales.BreakMinutes)

	hr, ok := c.Departments.Lookup(department.HumanResources)
	require.True(t, ok)
	assert.Equal(t, 7.0, hr.StandardHours)

	finance, ok := c.Departments.Lookup(department.Finance)
	require.True(t, ok)
	assert.Equal(t, "8:30 AM", finance.CheckIn)

	require.Len(t, c.Offices, 1)
	assert.Equal(t, "singapore", c.Offices[0].ID)
}

func TestParse_DoesNotMutateBase(t *testing.T) {
	base := Defaults()
	_, err := Parse([]byte(sampleCatalogue), base)
	require.NoError(t, err)

	sales, _ := base.Departments.Lookup(department.Sales)
	assert.Equal(t, "9:00 AM", sales.CheckIn)
	assert.Equal(t, department.General, base.Departments.Default)
}

func TestParse_ZeroBreakKeepsElapsedTime(t *testing.T) {
	payload := "departments:\n  sales: {check_in: \"9:00 AM\", check_out: \"5:00 PM\", standard_hours: 8, break_minutes: 0}\n"
	c, err := Parse([]byte(payload), Defaults())
	require.NoError(t, err)

	sales, ok := c.Departments.Lookup(department.Sales)
	require.True(t, ok)
	assert.Equal(t, 0, sales.BreakMinutes)

	day := time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)
	hours := timing.CalculateWorkingHours(day, day.Add(8*time.Hour), sales)
	assert.Equal(t, 480, hours.TotalMinutes)
	assert.Equal(t, 0, hours.OvertimeMinutes)
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"empty":              "   ",
		"bad yaml":           "departments: [",
		"unknown department": "departments:\n  astronauts: {check_in: \"9:00 AM\", check_out: \"5:00 PM\", standard_hours: 8}\n",
		"bad time":           "departments:\n  sales: {check_in: \"25:00\", check_out: \"5:00 PM\", standard_hours: 8}\n",
		"zero hours":         "departments:\n  sales: {check_in: \"9:00 AM\", check_out: \"5:00 PM\", standard_hours: 0}\n",
		"bad radius":         "offices:\n  - {id: x, name: X, latitude: 1, longitude: 1, radius_meters: 0}\n",
		"bad coordinates":    "offices:\n  - {id: x, name: X, latitude: 100, longitude: 1, radius_meters: 10}\n",
		"duplicate office":   "offices:\n  - {id: x, name: X, latitude: 1, longitude: 1, radius_meters: 10}\n  - {id: x, name: Y, latitude: 2, longitude: 2, radius_meters: 10}\n",
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(payload), Defaults())
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	c, err := Load("", Defaults())
	require.NoError(t, err)
	assert.Equal(t, Defaults().Offices, c.Offices)

	path := filepath.Join(t.TempDir(), "catalogue.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalogue), 0644))

	c, err = Load(path, Defaults())
	require.NoError(t, err)
	assert.Equal(t, "singapore", c.Offices[0].ID)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), Defaults())
	assert.Error(t, err)
}
