package office

// Location is a physical site with a circular geofence.
type Location struct {
	ID           string  `yaml:"id" json:"id"`
	Name         string  `yaml:"name" json:"name"`
	Latitude     float64 `yaml:"latitude" json:"latitude"`
	Longitude    float64 `yaml:"longitude" json:"longitude"`
	RadiusMeters float64 `yaml:"radius_meters" json:"radius_meters"`
}

type ValidationType string

const (
	ValidationExact              ValidationType = "exact"
	ValidationProximityBased     ValidationType = "proximity_based"
	ValidationIndoorCompensation ValidationType = "indoor_compensation"
	ValidationFailed             ValidationType = "failed"
)

// ValidationResult describes how a reported GPS fix relates to the office catalogue.
// OfficeID, OfficeName and Distance refer to the matched office, or to the nearest one
// when validation failed.
type ValidationResult struct {
	IsValid         bool           `json:"is_valid"`
	Confidence      float64        `json:"confidence"`
	ValidationType  ValidationType `json:"validation_type"`
	OfficeID        string         `json:"office_id,omitempty"`
	OfficeName      string         `json:"office_name,omitempty"`
	Distance        float64        `json:"distance"`
	EffectiveRadius float64        `json:"effective_radius"`
	Accuracy        float64        `json:"accuracy"`
	Recommendations []string       `json:"recommendations,omitempty"`
}
