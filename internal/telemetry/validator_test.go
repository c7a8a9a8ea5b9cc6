// Copyright 2026 The FleetGlass Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetglass/cortex/internal/temporal"
)

var baseTime = time.Date(2026, 1, 14, 10, 0, 0, 0, time.UTC)

// goodTrip is internally consistent: ~11.1 km over 20 minutes.
func goodTrip() Trip {
	return Trip{
		ID:          "t-1",
		StartTime:   baseTime,
		EndTime:     baseTime.Add(20 * time.Minute),
		StartLat:    52.52, StartLon: 13.405,
		EndLat:      52.62, EndLon: 13.405,
		DistanceKm:  11.0,
		DurationSec: 1200,
		MaxSpeedKmh: 80,
		AvgSpeedKmh: 33,
	}
}

func TestHaversineKm(t *testing.T) {
	// One degree of longitude on the equator.
	assert.InDelta(t, 111.19, HaversineKm(0, 0, 0, 1), 0.5)
	assert.Zero(t, HaversineKm(52.52, 13.405, 52.52, 13.405))
}

func TestValidateTrip_Consistent(t *testing.T) {
	r := Validate([]Trip{goodTrip()}, nil, temporal.DateContext{})

	require.Len(t, r.Trips, 1)
	vt := r.Trips[0]
	assert.Equal(t, QualityHigh, vt.Quality)
	assert.InDelta(t, 1.0, vt.Confidence, 1e-9)
	assert.Empty(t, vt.Issues)
	assert.False(t, vt.Ghost)
	assert.Equal(t, QualityHigh, r.OverallQuality)
}

func TestValidateTrip_GhostZeroMovement(t *testing.T) {
	trip := Trip{
		ID:        "t-ghost",
		StartTime: baseTime,
		EndTime:   baseTime,
		StartLat:  52.52, StartLon: 13.405,
		EndLat:    52.52, EndLon: 13.405,
	}

	r := Validate([]Trip{trip}, nil, temporal.DateContext{})

	vt := r.Trips[0]
	assert.True(t, vt.Ghost)
	assert.Equal(t, QualityLow, vt.Quality)
	assert.Zero(t, vt.Confidence)
	assert.Contains(t, vt.Issues, "Ghost trip")
}

func TestValidateTrip_GhostImpliedSpeed(t *testing.T) {
	trip := Trip{
		ID:          "t-teleport",
		StartTime:   baseTime,
		EndTime:     baseTime.Add(10 * time.Minute),
		StartLat:    52.0, StartLon: 13.0,
		EndLat:      52.45, EndLon: 13.0,
		DistanceKm:  50,
		DurationSec: 600,
		MaxSpeedKmh: 120,
	}

	r := Validate([]Trip{trip}, nil, temporal.DateContext{})

	assert.True(t, r.Trips[0].Ghost, "50 km in 10 minutes implies 300 km/h")
}

func TestValidateTrip_MissingTimes(t *testing.T) {
	trip := goodTrip()
	trip.StartTime = time.Time{}
	trip.EndTime = time.Time{}

	r := Validate([]Trip{trip}, nil, temporal.DateContext{})

	vt := r.Trips[0]
	assert.Equal(t, QualityLow, vt.Quality)
	assert.Contains(t, vt.Issues, "Missing start or end time")
	assert.False(t, vt.Ghost)
}

func TestValidateTrip_OutOfRangeCoordinates(t *testing.T) {
	trip := goodTrip()
	trip.StartLat = 95

	r := Validate([]Trip{trip}, nil, temporal.DateContext{})

	vt := r.Trips[0]
	assert.Equal(t, QualityLow, vt.Quality)
	require.NotEmpty(t, vt.Issues)
	assert.Contains(t, vt.Issues[0], "Start coordinates out of range")
}

func TestValidateTrip_MediumQualityAccumulation(t *testing.T) {
	// Equal start/end times plus a duration mismatch: -0.2 and -0.1.
	trip := Trip{
		ID:          "t-odd",
		StartTime:   baseTime,
		EndTime:     baseTime,
		StartLat:    52.52, StartLon: 13.405,
		EndLat:      52.565, EndLon: 13.405,
		DistanceKm:  5,
		DurationSec: 600,
		MaxSpeedKmh: 60,
	}

	r := Validate([]Trip{trip}, nil, temporal.DateContext{})

	vt := r.Trips[0]
	assert.Equal(t, QualityMedium, vt.Quality)
	assert.InDelta(t, 0.7, vt.Confidence, 1e-9)
	assert.Contains(t, vt.Issues, "End time not after start time")
	assert.Len(t, vt.Issues, 2)
}

func TestValidateTrip_NegativeValues(t *testing.T) {
	trip := goodTrip()
	trip.DistanceKm = -5
	trip.DurationSec = -10

	r := Validate([]Trip{trip}, nil, temporal.DateContext{})

	vt := r.Trips[0]
	assert.Equal(t, QualityLow, vt.Quality)
	assert.Contains(t, vt.Issues, "Negative distance")
	assert.Contains(t, vt.Issues, "Negative duration")
}

func TestValidateTrip_DistanceMismatch(t *testing.T) {
	trip := goodTrip()
	trip.DistanceKm = 20 // coordinates say ~11.1 km

	r := Validate([]Trip{trip}, nil, temporal.DateContext{})

	vt := r.Trips[0]
	require.Len(t, vt.Issues, 1)
	assert.Contains(t, vt.Issues[0], "differs from coordinate distance")
}

func TestValidateTrip_NearDuplicates(t *testing.T) {
	a := goodTrip()
	b := goodTrip()
	b.ID = "t-2"
	b.StartTime = a.StartTime.Add(30 * time.Second)
	b.EndTime = a.EndTime.Add(30 * time.Second)

	r := Validate([]Trip{a, b}, nil, temporal.DateContext{})

	assert.Contains(t, r.Trips[0].Issues, "Near-duplicate trip in batch")
	assert.Contains(t, r.Trips[1].Issues, "Near-duplicate trip in batch")
}

func TestValidatePosition(t *testing.T) {
	ts := baseTime

	tests := []struct {
		name    string
		pos     Position
		quality Quality
		issue   string
	}{
		{"valid", Position{Lat: 52.52, Lon: 13.405, SpeedKmh: 50, Timestamp: ts}, QualityHigh, ""},
		{"null island", Position{Lat: 0, Lon: 0, SpeedKmh: 50, Timestamp: ts}, QualityLow, "null island"},
		{"missing component", Position{Lat: 0, Lon: 13.405, SpeedKmh: 50, Timestamp: ts}, QualityLow, "Missing coordinate component"},
		{"out of range", Position{Lat: 52.52, Lon: 200, SpeedKmh: 50, Timestamp: ts}, QualityLow, "out of range"},
		{"unrealistic speed", Position{Lat: 52.52, Lon: 13.405, SpeedKmh: 400, Timestamp: ts}, QualityMedium, "Unrealistic speed"},
		{"missing timestamp", Position{Lat: 52.52, Lon: 13.405, SpeedKmh: 50}, QualityMedium, "Missing timestamp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Validate(nil, []Position{tt.pos}, temporal.DateContext{})
			vp := r.Positions[0]
			assert.Equal(t, tt.quality, vp.Quality)
			if tt.issue == "" {
				assert.Empty(t, vp.Issues)
			} else {
				require.NotEmpty(t, vp.Issues)
				assert.Contains(t, vp.Issues[0], tt.issue)
			}
		})
	}
}

func TestValidatePosition_NullIslandWithSpeed(t *testing.T) {
	r := Validate(nil, []Position{{Lat: 0, Lon: 0, SpeedKmh: 400, Timestamp: baseTime}}, temporal.DateContext{})

	vp := r.Positions[0]
	assert.Equal(t, QualityLow, vp.Quality)
	require.Len(t, vp.Issues, 2)
	assert.Contains(t, vp.Issues[0], "null island")
	assert.Contains(t, vp.Issues[1], "Unrealistic speed")
}

func TestSummary_GhostsExcludedFromSums(t *testing.T) {
	ghost := Trip{
		ID:          "t-ghost",
		StartTime:   baseTime.Add(2 * time.Hour),
		EndTime:     baseTime.Add(2*time.Hour + 10*time.Minute),
		StartLat:    52.0, StartLon: 13.0,
		EndLat:      52.45, EndLon: 13.0,
		DistanceKm:  50,
		DurationSec: 600,
	}

	r := Validate([]Trip{goodTrip(), ghost}, nil, temporal.DateContext{})

	assert.Equal(t, 2, r.Summary.TotalTrips)
	assert.Equal(t, 1, r.Summary.ValidTrips)
	assert.InDelta(t, 11.0, r.Summary.TotalDistanceKm, 1e-9)
	assert.InDelta(t, 1200, r.Summary.TotalDurationSec, 1e-9)
	assert.Equal(t, QualityLow, r.OverallQuality, "a ghost taints the batch")
}

func TestCrossValidate_DistanceDisagreement(t *testing.T) {
	// Two 50 km trips but positions only cover ~50 km.
	a := Trip{
		ID:          "t-1",
		StartTime:   baseTime,
		EndTime:     baseTime.Add(time.Hour),
		StartLat:    52.0, StartLon: 13.0,
		EndLat:      52.45, EndLon: 13.0,
		DistanceKm:  50,
		DurationSec: 3600,
		MaxSpeedKmh: 90,
	}
	b := a
	b.ID = "t-2"
	b.StartTime = baseTime.Add(3 * time.Hour)
	b.EndTime = baseTime.Add(4 * time.Hour)

	positions := []Position{
		{Lat: 52.0, Lon: 13.0, SpeedKmh: 60, Timestamp: baseTime},
		{Lat: 52.45, Lon: 13.0, SpeedKmh: 60, Timestamp: baseTime.Add(time.Hour)},
	}

	r := Validate([]Trip{a, b}, positions, temporal.DateContext{})

	require.NotEmpty(t, r.Summary.Warnings)
	assert.Contains(t, r.Summary.Warnings[0], "disagrees with position-derived")
	assert.Equal(t, QualityMedium, r.OverallQuality, "warnings cap the batch at medium")
}

func TestCrossValidate_WithinTolerance(t *testing.T) {
	trip := Trip{
		ID:          "t-1",
		StartTime:   baseTime,
		EndTime:     baseTime.Add(time.Hour),
		StartLat:    52.0, StartLon: 13.0,
		EndLat:      52.45, EndLon: 13.0,
		DistanceKm:  50,
		DurationSec: 3600,
		MaxSpeedKmh: 90,
	}
	positions := []Position{
		{Lat: 52.0, Lon: 13.0, SpeedKmh: 60, Timestamp: baseTime},
		{Lat: 52.38, Lon: 13.0, SpeedKmh: 60, Timestamp: baseTime.Add(time.Hour)},
	}

	r := Validate([]Trip{trip}, positions, temporal.DateContext{})

	assert.Empty(t, r.Summary.Warnings)
	assert.Equal(t, QualityHigh, r.OverallQuality)
}

func TestCrossValidate_CoverageGaps(t *testing.T) {
	dateCtx := temporal.DateContext{
		HasDateReference: true,
		Period:           temporal.PeriodYesterday,
		Start:            time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC),
		End:              time.Date(2026, 1, 14, 23, 59, 59, 0, time.UTC),
	}

	r := Validate([]Trip{goodTrip()}, nil, dateCtx)

	require.Len(t, r.Summary.Warnings, 2)
	assert.Contains(t, r.Summary.Warnings[0], "after the requested start")
	assert.Contains(t, r.Summary.Warnings[1], "before the requested end")
}

func TestValidate_EmptyBatch(t *testing.T) {
	r := Validate(nil, nil, temporal.DateContext{})

	assert.Zero(t, r.Summary.TotalTrips)
	assert.Empty(t, r.Summary.Warnings)
	assert.Equal(t, QualityHigh, r.OverallQuality)
}
