package location

import (
	"fmt"
	"math"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/office"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/utils"
)

const (
	// MaxAccuracyBuffer caps how far reported GPS accuracy may widen a geofence.
	MaxAccuracyBuffer = 100.0
	// UnknownAccuracy is assumed when the device reports no usable accuracy.
	UnknownAccuracy = 100.0

	ExactAccuracyThreshold  = 20.0
	IndoorAccuracyThreshold = 50.0
	// IndoorDistanceCeiling is how far beyond the configured radius indoor
	// compensation may reach.
	IndoorDistanceCeiling = 250.0
	IndoorMaxConfidence   = 0.5

	LowConfidenceThreshold = 0.6

	bestAccuracy  = 10.0
	worstAccuracy = 200.0

	proximityWeight = 0.7
	accuracyWeight  = 0.3
)

// Validator scores GPS fixes against an immutable office catalogue.
type Validator struct {
	offices []office.Location
}

func NewValidator(offices []office.Location) *Validator {
	cp := make([]office.Location, len(offices))
	copy(cp, offices)
	return &Validator{offices: cp}
}

// Offices returns a copy of the catalogue.
func (v *Validator) Offices() []office.Location {
	cp := make([]office.Location, len(v.offices))
	copy(cp, v.offices)
	return cp
}

type candidate struct {
	office    office.Location
	distance  float64
	effective float64
}

// Validate decides whether the reported fix is consistent with being at one of the
// offices.
func (v *Validator) Validate(lat, lon, accuracy float64) office.ValidationResult {
	accuracy = NormalizeAccuracy(accuracy)

	result := office.ValidationResult{
		ValidationType: office.ValidationFailed,
		Accuracy:       accuracy,
	}

	if !utils.IsValidCoordinate(lat, lon) {
		result.Recommendations = []string{
			"Your device reported an invalid location. Enable location services and try again.",
		}
		return result
	}

	if len(v.offices) == 0 {
		result.Recommendations = []string{
			"No office locations are configured. Please contact your administrator.",
		}
		return result
	}

	var (
		match   *candidate
		nearest *candidate
		indoor  *candidate
	)
	for _, o := range v.offices {
		c := candidate{
			office:    o,
			distance:  utils.CalculateHaversineDistance(lat, lon, o.Latitude, o.Longitude),
			effective: o.RadiusMeters + math.Min(accuracy, MaxAccuracyBuffer),
		}
		if nearest == nil || c.distance < nearest.distance {
			nearest = &c
		}
		if c.distance <= c.effective && (match == nil || c.distance < match.distance) {
			match = &c
		}
		if accuracy >= IndoorAccuracyThreshold && c.distance <= o.RadiusMeters+IndoorDistanceCeiling &&
			(indoor == nil || c.distance < indoor.distance) {
			indoor = &c
		}
	}

	switch {
	case match != nil:
		result.IsValid = true
		result.Confidence = confidence(match.distance, match.effective, accuracy)
		result.ValidationType = office.ValidationProximityBased
		if match.distance <= match.office.RadiusMeters && accuracy <= ExactAccuracyThreshold {
			result.ValidationType = office.ValidationExact
		}
		fill(&result, *match)
	case indoor != nil:
		ceiling := indoor.office.RadiusMeters + IndoorDistanceCeiling
		result.IsValid = true
		result.Confidence = math.Min(confidence(indoor.distance, ceiling, accuracy), IndoorMaxConfidence)
		result.ValidationType = office.ValidationIndoorCompensation
		fill(&result, *indoor)
		result.EffectiveRadius = ceiling
	default:
		fill(&result, *nearest)
	}

	result.Recommendations = recommendations(result)
	return result
}

// NormalizeAccuracy replaces a negative or non-finite accuracy with UnknownAccuracy.
func NormalizeAccuracy(accuracy float64) float64 {
	if math.IsNaN(accuracy) || math.IsInf(accuracy, 0) || accuracy < 0 {
		return UnknownAccuracy
	}
	return accuracy
}

func fill(r *office.ValidationResult, c candidate) {
	r.OfficeID = c.office.ID
	r.OfficeName = c.office.Name
	r.Distance = c.distance
	r.EffectiveRadius = c.effective
}

func confidence(distance, effectiveRadius, accuracy float64) float64 {
	proximity := 0.0
	if effectiveRadius > 0 {
		proximity = clamp01(1 - distance/effectiveRadius)
	}
	return clamp01(proximityWeight*proximity + accuracyWeight*accuracyScore(accuracy))
}

// accuracyScore falls linearly from 1 at bestAccuracy to 0 at worstAccuracy.
func accuracyScore(accuracy float64) float64 {
	return clamp01((worstAccuracy - accuracy) / (worstAccuracy - bestAccuracy))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func recommendations(r office.ValidationResult) []string {
	var recs []string

	switch {
	case !r.IsValid:
		recs = append(recs, fmt.Sprintf(
			"You are %.0f m from %s, outside its %.0f m check-in area. Move closer to the office and try again.",
			r.Distance, r.OfficeName, r.EffectiveRadius))
	case r.ValidationType == office.ValidationIndoorCompensation:
		recs = append(recs, "Your position was accepted using indoor GPS compensation. Move near a window for a more precise fix.")
	case r.Confidence < LowConfidenceThreshold:
		recs = append(recs, fmt.Sprintf("Location confidence is low. Move closer to %s for a more reliable check-in.", r.OfficeName))
	}

	if (!r.IsValid || r.Confidence < LowConfidenceThreshold) && r.Accuracy > IndoorAccuracyThreshold {
		recs = append(recs, fmt.Sprintf(
			"GPS accuracy is poor (%.0f m). Step outside or near a window and wait for a better signal.", r.Accuracy))
	}

	return recs
}
