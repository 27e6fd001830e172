package validator

import (
	"regexp"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/utils"
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		result[err.Field] = err.Message
	}
	return result
}

// Fields returns the field names in the order they were reported.
func (v ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(v))
	for _, err := range v {
		fields = append(fields, err.Field)
	}
	return fields
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// IsBlank is IsEmpty for optional fields: nil counts as blank.
func IsBlank(s *string) bool {
	return s == nil || IsEmpty(*s)
}

// Identifier validation: document ids from the user directory are opaque tokens.
var identifierRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

func IsValidIdentifier(id string) bool {
	return identifierRegex.MatchString(id)
}

// Date validation
func IsValidDate(dateStr string) (time.Time, bool) {
	date, err := time.Parse("2006-01-02", dateStr)
	return date, err == nil
}

// IsValidLatitude reports whether lat lies in [-90, 90].
func IsValidLatitude(lat float64) bool {
	return utils.IsValidCoordinate(lat, 0)
}

// IsValidLongitude reports whether lon lies in [-180, 180].
func IsValidLongitude(lon float64) bool {
	return utils.IsValidCoordinate(0, lon)
}

// Slice contains check
func IsInSlice(value string, slice []string) bool {
	for _, item := range slice {
		if item == value {
			return true
		}
	}
	return false
}
