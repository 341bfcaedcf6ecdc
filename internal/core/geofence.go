package core

import (
	"math"

	"attendance.service/internal/core/model"
)

const earthRadiusM = 6371000.0

// Distance returns the great-circle distance in meters between two coordinates.
func Distance(a, b model.Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusM * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// GeofenceCheck is the outcome of a geofence evaluation.
type GeofenceCheck struct {
	Within bool `json:"within"`
	// DistanceM is rounded to 0.1 m. It is the value the decision was made on.
	DistanceM float64 `json:"distance_m"`
	RadiusM   float64 `json:"radius_m"`
}

// CheckGeofence evaluates a reported coordinate against a company geofence.
func CheckGeofence(reported model.Coordinate, fence model.Geofence) GeofenceCheck {
	d := math.Round(Distance(reported, fence.Center)*10) / 10
	return GeofenceCheck{
		Within:    d <= fence.RadiusM,
		DistanceM: d,
		RadiusM:   fence.RadiusM,
	}
}

// ValidateCoordinate rejects coordinates outside the WGS84 range.
func ValidateCoordinate(c model.Coordinate) error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
		return validationf("invalid coordinates (%v, %v)", c.Lat, c.Lon)
	}
	return nil
}

// Validate returns *OutOfRangeError when the check failed.
func (g GeofenceCheck) Validate() error {
	if g.Within {
		return nil
	}
	return &OutOfRangeError{Distance: g.DistanceM, Radius: g.RadiusM}
}
