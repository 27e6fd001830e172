package department

import (
	"fmt"
	"strings"
)

// Department is the closed set of departments with a configured shift window.
type Department string

const (
	General        Department = "general"
	Sales          Department = "sales"
	Marketing      Department = "marketing"
	Engineering    Department = "engineering"
	Finance        Department = "finance"
	HumanResources Department = "human_resources"
	Operations     Department = "operations"
)

// All lists every known department.
var All = []Department{
	General,
	Sales,
	Marketing,
	Engineering,
	Finance,
	HumanResources,
	Operations,
}

var aliases = map[string]Department{
	"hr":  HumanResources,
	"ops": Operations,
	"it":  Engineering,
}

// ParseDepartment normalizes a free-form department name. The second result is false
// when the name does not belong to the closed set.
func ParseDepartment(name string) (Department, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if d, ok := aliases[key]; ok {
		return d, true
	}
	for _, d := range All {
		if string(d) == key {
			return d, true
		}
	}
	return "", false
}

// Timing is a department's shift window.
type Timing struct {
	CheckIn       string  `yaml:"check_in" json:"check_in"`   // "9:00 AM"
	CheckOut      string  `yaml:"check_out" json:"check_out"` // "6:00 PM"
	StandardHours float64 `yaml:"standard_hours" json:"standard_hours"`
	BreakMinutes  int     `yaml:"break_minutes" json:"break_minutes"`
}

// StandardMinutes is StandardHours expressed in whole minutes.
func (t Timing) StandardMinutes() int {
	return int(t.StandardHours*60 + 0.5)
}

// Catalogue maps every department to its timing. Default names the entry used for
// departments that are unknown or missing from Timings.
type Catalogue struct {
	Default Department
	Timings map[Department]Timing
}

// Lookup returns the department's own timing, if configured.
func (c Catalogue) Lookup(d Department) (Timing, bool) {
	t, ok := c.Timings[d]
	return t, ok
}

// DefaultTiming returns the fallback timing.
func (c Catalogue) DefaultTiming() Timing {
	return c.Timings[c.Default]
}

func (c Catalogue) Validate() error {
	if _, ok := c.Timings[c.Default]; !ok {
		return fmt.Errorf("default department %q has no timing", c.Default)
	}
	for d, t := range c.Timings {
		if t.StandardHours <= 0 {
			return fmt.Errorf("department %q: standard_hours must be positive", d)
		}
		if t.BreakMinutes < 0 {
			return fmt.Errorf("department %q: break_minutes must not be negative", d)
		}
	}
	return nil
}
