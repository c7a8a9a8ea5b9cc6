// Copyright 2026 The FleetGlass Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package telemetry validates GPS trip and position records for
// structural and physical plausibility before they reach the
// answer-assembly layer. Records are never rejected; defects lower
// per-record confidence and quality, and cross-checks between trips,
// positions and the requested range surface as warnings.
package telemetry

import "time"

// Quality grades a record or a whole batch.
type Quality string

const (
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"
)

// Trip is a raw trip record as delivered by the data-access layer.
type Trip struct {
	ID          string    `json:"id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	StartLat    float64   `json:"start_lat"`
	StartLon    float64   `json:"start_lon"`
	EndLat      float64   `json:"end_lat"`
	EndLon      float64   `json:"end_lon"`
	DistanceKm  float64   `json:"distance_km"`
	DurationSec float64   `json:"duration_sec"`
	MaxSpeedKmh float64   `json:"max_speed_kmh"`
	AvgSpeedKmh float64   `json:"avg_speed_kmh"`
}

// Position is a raw GPS sample.
type Position struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	SpeedKmh  float64   `json:"speed_kmh"`
	Timestamp time.Time `json:"timestamp"`
	Ignition  bool      `json:"ignition"`
}

// ValidatedTrip is a trip with its quality verdict attached. Ghost trips
// are sensor noise (ignition flicker, GPS jump): confidence zero, quality
// low, excluded from every aggregate sum.
type ValidatedTrip struct {
	Trip
	Quality    Quality  `json:"quality"`
	Issues     []string `json:"issues,omitempty"`
	Confidence float64  `json:"confidence"`
	Ghost      bool     `json:"ghost"`
}

// ValidatedPosition is a position sample with its quality verdict.
type ValidatedPosition struct {
	Position
	Quality Quality  `json:"quality"`
	Issues  []string `json:"issues,omitempty"`
}

// Summary aggregates batch-level counts and cross-validation warnings.
type Summary struct {
	TotalTrips       int      `json:"total_trips"`
	ValidTrips       int      `json:"valid_trips"`
	TotalPositions   int      `json:"total_positions"`
	ValidPositions   int      `json:"valid_positions"`
	TotalDistanceKm  float64  `json:"total_distance_km"`
	TotalDurationSec float64  `json:"total_duration_sec"`
	Warnings         []string `json:"warnings,omitempty"`
}

// Report is the full validation result for one dataset.
type Report struct {
	Trips          []ValidatedTrip     `json:"trips"`
	Positions      []ValidatedPosition `json:"positions"`
	OverallQuality Quality             `json:"overall_quality"`
	Summary        Summary             `json:"summary"`
}
