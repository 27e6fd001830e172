package catalogue

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/department"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/office"
	"github.com/cmlabs-hris/attendance-backend-go/internal/fixtures"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/utils"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/timing"
	"gopkg.in/yaml.v3"
)

// Catalogue is the read-only reference data injected into the attendance service.
type Catalogue struct {
	Departments department.Catalogue
	Offices     []office.Location
}

// file is the on-disk layout:
//
//	default_department: general
//	departments:
//	  sales: {check_in: "9:00 AM", check_out: "6:00 PM", standard_hours: 8, break_minutes: 60}
//	offices:
//	  - {id: hq, name: Head Office, latitude: -6.2, longitude: 106.8, radius_meters: 100}
//
// break_minutes is the unpaid break deducted from long days. An entry that omits it,
// or sets break_minutes: 0, counts every elapsed minute as working time.
type file struct {
	DefaultDepartment string                       `yaml:"default_department"`
	Departments       map[string]department.Timing `yaml:"departments"`
	Offices           []office.Location            `yaml:"offices"`
}

// Defaults returns the built-in catalogue.
func Defaults() Catalogue {
	return Catalogue{
		Departments: fixtures.GetDefaultDepartmentCatalogue(),
		Offices:     fixtures.GetDefaultOffices(),
	}
}

// Parse overlays a YAML payload on base. Department entries replace the matching base
// entries; a non-empty office list replaces the base offices.
func Parse(data []byte, base Catalogue) (Catalogue, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Catalogue{}, fmt.Errorf("catalogue: payload is empty")
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Catalogue{}, fmt.Errorf("catalogue: decode: %w", err)
	}

	out := Catalogue{
		Departments: department.Catalogue{
			Default: base.Departments.Default,
			Timings: make(map[department.Department]department.Timing, len(base.Departments.Timings)),
		},
		Offices: append([]office.Location(nil), base.Offices...),
	}
	for d, t := range base.Departments.Timings {
		out.Departments.Timings[d] = t
	}

	if f.DefaultDepartment != "" {
		d, ok := department.ParseDepartment(f.DefaultDepartment)
		if !ok {
			return Catalogue{}, fmt.Errorf("catalogue: unknown default_department %q", f.DefaultDepartment)
		}
		out.Departments.Default = d
	}

	for name, t := range f.Departments {
		d, ok := department.ParseDepartment(name)
		if !ok {
			return Catalogue{}, fmt.Errorf("catalogue: unknown department %q", name)
		}
		out.Departments.Timings[d] = t
	}

	if len(f.Offices) > 0 {
		out.Offices = f.Offices
	}

	if err := out.Validate(); err != nil {
		return Catalogue{}, err
	}
	return out, nil
}

// Load reads path and overlays it on base. An empty path returns base unchanged.
func Load(path string, base Catalogue) (Catalogue, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Catalogue{}, fmt.Errorf("catalogue: read %s: %w", path, err)
	}

	c, err := Parse(data, base)
	if err != nil {
		return Catalogue{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (c Catalogue) Validate() error {
	if err := c.Departments.Validate(); err != nil {
		return fmt.Errorf("catalogue: %w", err)
	}
	for d, t := range c.Departments.Timings {
		if _, _, ok := timing.ParseTimeOfDay(t.CheckIn); !ok {
			return fmt.Errorf("catalogue: department %q: invalid check_in %q", d, t.CheckIn)
		}
		if _, _, ok := timing.ParseTimeOfDay(t.CheckOut); !ok {
			return fmt.Errorf("catalogue: department %q: invalid check_out %q", d, t.CheckOut)
		}
	}

	seen := make(map[string]bool, len(c.Offices))
	for i, o := range c.Offices {
		if o.ID == "" {
			return fmt.Errorf("catalogue: office #%d has no id", i+1)
		}
		if seen[o.ID] {
			return fmt.Errorf("catalogue: duplicate office id %q", o.ID)
		}
		seen[o.ID] = true
		if !utils.IsValidCoordinate(o.Latitude, o.Longitude) {
			return fmt.Errorf("catalogue: office %q has invalid coordinates", o.ID)
		}
		if o.RadiusMeters <= 0 {
			return fmt.Errorf("catalogue: office %q: radius_meters must be positive", o.ID)
		}
	}
	return nil
}
