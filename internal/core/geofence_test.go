package core

import (
	"errors"
	"math"
	"testing"

	"attendance.service/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		to   model.Coordinate
		want float64
	}{
		{name: "same point", to: office, want: 0},
		{name: "50 m north", to: north(50), want: 50},
		{name: "one degree of latitude", to: model.Coordinate{Lat: office.Lat + 1, Lon: office.Lon}, want: earthRadiusM * math.Pi / 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Distance(office, tt.to), 0.01)
		})
	}
}

func TestCheckGeofence(t *testing.T) {
	fence := model.Geofence{Center: office, RadiusM: 30}

	tests := []struct {
		name     string
		reported model.Coordinate
		within   bool
		distance float64
	}{
		{name: "at the office", reported: office, within: true, distance: 0},
		{name: "inside", reported: north(10), within: true, distance: 10},
		{name: "on the boundary", reported: north(30), within: true, distance: 30},
		{name: "rounds down onto the boundary", reported: north(30.04), within: true, distance: 30},
		{name: "rounds up past the boundary", reported: north(30.06), within: false, distance: 30.1},
		{name: "50 m away", reported: north(50), within: false, distance: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := CheckGeofence(tt.reported, fence)
			assert.Equal(t, tt.within, check.Within)
			assert.Equal(t, tt.distance, check.DistanceM)
			assert.Equal(t, 30.0, check.RadiusM)

			err := check.Validate()
			if tt.within {
				assert.NoError(t, err)
				return
			}
			var oor *OutOfRangeError
			require.True(t, errors.As(err, &oor))
			// The distance shown to the user is the one the decision used.
			assert.Equal(t, check.DistanceM, oor.Distance)
			assert.Greater(t, oor.Distance, oor.Radius)
		})
	}
}

func TestValidateCoordinate(t *testing.T) {
	tests := []struct {
		name  string
		coord model.Coordinate
		ok    bool
	}{
		{name: "office", coord: office, ok: true},
		{name: "corners", coord: model.Coordinate{Lat: 90, Lon: -180}, ok: true},
		{name: "latitude too high", coord: model.Coordinate{Lat: 90.1, Lon: 0}},
		{name: "longitude too low", coord: model.Coordinate{Lat: 0, Lon: -180.5}},
		{name: "not a number", coord: model.Coordinate{Lat: math.NaN(), Lon: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCoordinate(tt.coord)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrValidation)
			}
		})
	}
}
