package location

import (
	"math"
	"testing"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/office"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const metersPerDegreeLat = 6371000.0 * math.Pi / 180

var (
	headOffice = office.Location{ID: "hq", Name: "Head Office", Latitude: -6.2000, Longitude: 106.8166, RadiusMeters: 100}
	branch     = office.Location{ID: "branch", Name: "Branch Office", Latitude: -6.9175, Longitude: 107.6191, RadiusMeters: 150}
)

// northOf returns a point the given distance due north of the office.
func northOf(o office.Location, meters float64) (float64, float64) {
	return o.Latitude + meters/metersPerDegreeLat, o.Longitude
}

func TestValidator_ExactAtCenter(t *testing.T) {
	v := NewValidator([]office.Location{headOffice, branch})

	got := v.Validate(headOffice.Latitude, headOffice.Longitude, 5)

	assert.True(t, got.IsValid)
	assert.Equal(t, office.ValidationExact, got.ValidationType)
	assert.InDelta(t, 1.0, got.Confidence, 0.01)
	assert.Equal(t, "hq", got.OfficeID)
	assert.Equal(t, "Head Office", got.OfficeName)
	assert.InDelta(t, 0, got.Distance, 0.01)
	assert.InDelta(t, 105, got.EffectiveRadius, 0.01)
	assert.Empty(t, got.Recommendations)
}

func TestValidator_FarAwayFails(t *testing.T) {
	v := NewValidator([]office.Location{headOffice})
	lat, lon := northOf(headOffice, 5000)

	got := v.Validate(lat, lon, 10)

	assert.False(t, got.IsValid)
	assert.Equal(t, office.ValidationFailed, got.ValidationType)
	assert.Zero(t, got.Confidence)
	assert.InDelta(t, 5000, got.Distance, 5)
	assert.Equal(t, "hq", got.OfficeID)
	require.NotEmpty(t, got.Recommendations)
	assert.Contains(t, got.Recommendations[0], "Move closer")
}

func TestValidator_ProximityBased(t *testing.T) {
	v := NewValidator([]office.Location{headOffice})
	lat, lon := northOf(headOffice, 120)

	got := v.Validate(lat, lon, 30)

	assert.True(t, got.IsValid)
	assert.Equal(t, office.ValidationProximityBased, got.ValidationType)
	assert.InDelta(t, 130, got.EffectiveRadius, 0.01)
	assert.Less(t, got.Confidence, LowConfidenceThreshold)
	assert.NotEmpty(t, got.Recommendations)
}

func TestValidator_InsideRadiusWithPoorAccuracy(t *testing.T) {
	v := NewValidator([]office.Location{headOffice})
	lat, lon := northOf(headOffice, 10)

	got := v.Validate(lat, lon, 40)

	assert.True(t, got.IsValid)
	assert.Equal(t, office.ValidationProximityBased, got.ValidationType)
}

func TestValidator_AccuracyBufferIsCapped(t *testing.T) {
	v := NewValidator([]office.Location{headOffice})
	lat, lon := northOf(headOffice, 190)

	got := v.Validate(lat, lon, 500)

	assert.InDelta(t, headOffice.RadiusMeters+MaxAccuracyBuffer, got.EffectiveRadius, 0.01)
	assert.True(t, got.IsValid)
	assert.Equal(t, office.ValidationProximityBased, got.ValidationType)
}

func TestValidator_IndoorCompensation(t *testing.T) {
	v := NewValidator([]office.Location{headOffice})
	lat, lon := northOf(headOffice, 200)

	got := v.Validate(lat, lon, 80)

	assert.True(t, got.IsValid)
	assert.Equal(t, office.ValidationIndoorCompensation, got.ValidationType)
	assert.LessOrEqual(t, got.Confidence, IndoorMaxConfidence)
	assert.Greater(t, got.Confidence, 0.0)
	assert.NotEmpty(t, got.Recommendations)
}

func TestValidator_IndoorCompensationCeiling(t *testing.T) {
	v := NewValidator([]office.Location{headOffice})
	lat, lon := northOf(headOffice, 400)

	got := v.Validate(lat, lon, 80)

	assert.False(t, got.IsValid)
	assert.Equal(t, office.ValidationFailed, got.ValidationType)
}

func TestValidator_IndoorNeedsPoorAccuracy(t *testing.T) {
	v := NewValidator([]office.Location{headOffice})
	lat, lon := northOf(headOffice, 160)

	got := v.Validate(lat, lon, 30)

	assert.False(t, got.IsValid)
	assert.Equal(t, office.ValidationFailed, got.ValidationType)
}

func TestValidator_PicksNearestMatchingOffice(t *testing.T) {
	annex := office.Location{ID: "annex", Name: "Annex", Latitude: headOffice.Latitude + 80/metersPerDegreeLat, Longitude: headOffice.Longitude, RadiusMeters: 100}
	v := NewValidator([]office.Location{headOffice, annex})
	lat, lon := northOf(headOffice, 70)

	got := v.Validate(lat, lon, 5)

	assert.True(t, got.IsValid)
	assert.Equal(t, "annex", got.OfficeID)
	assert.InDelta(t, 10, got.Distance, 0.5)
}

func TestValidator_InvalidCoordinates(t *testing.T) {
	v := NewValidator([]office.Location{headOffice})

	for _, c := range []struct{ lat, lon float64 }{
		{math.NaN(), 106.8},
		{91, 106.8},
		{-6.2, 181},
	} {
		got := v.Validate(c.lat, c.lon, 5)
		assert.False(t, got.IsValid)
		assert.Equal(t, office.ValidationFailed, got.ValidationType)
		assert.NotEmpty(t, got.Recommendations)
	}
}

func TestValidator_EmptyCatalogue(t *testing.T) {
	v := NewValidator(nil)

	got := v.Validate(headOffice.Latitude, headOffice.Longitude, 5)

	assert.False(t, got.IsValid)
	require.Len(t, got.Recommendations, 1)
	assert.Contains(t, got.Recommendations[0], "administrator")
}

func TestValidator_ConfidenceBounds(t *testing.T) {
	v := NewValidator([]office.Location{headOffice, branch})

	for _, meters := range []float64{0, 50, 99, 150, 250, 1000} {
		for _, acc := range []float64{-1, 0, 5, 25, 60, 150, 1000, math.NaN()} {
			lat, lon := northOf(headOffice, meters)
			got := v.Validate(lat, lon, acc)
			assert.GreaterOrEqual(t, got.Confidence, 0.0)
			assert.LessOrEqual(t, got.Confidence, 1.0)
			if !got.IsValid || got.Confidence < LowConfidenceThreshold {
				assert.NotEmpty(t, got.Recommendations, "distance %.0f accuracy %.0f", meters, acc)
			}
		}
	}
}

func TestNormalizeAccuracy(t *testing.T) {
	assert.Equal(t, UnknownAccuracy, NormalizeAccuracy(-3))
	assert.Equal(t, UnknownAccuracy, NormalizeAccuracy(math.NaN()))
	assert.Equal(t, UnknownAccuracy, NormalizeAccuracy(math.Inf(1)))
	assert.Equal(t, 12.5, NormalizeAccuracy(12.5))
}

func TestValidator_CatalogueIsCopied(t *testing.T) {
	offices := []office.Location{headOffice}
	v := NewValidator(offices)
	offices[0].Latitude = 0

	assert.Equal(t, headOffice.Latitude, v.Offices()[0].Latitude)
}
