// Copyright 2026 The FleetGlass Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package telemetry

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/golang/geo/s2"

	"github.com/fleetglass/cortex/internal/temporal"
)

// EarthRadiusKm is Earth's mean radius.
const EarthRadiusKm = 6371.0

// Physical plausibility bounds.
const (
	maxSpeedKmh        = 300.0
	ghostSpeedKmh      = 250.0
	ghostMinDurationS  = 120.0
	ghostMinDistanceKm = 0.1

	distanceMismatchRatio = 0.20
	durationMismatchSec   = 5.0
	duplicateWindow       = 60 * time.Second
	crossDistanceRatio    = 0.30
)

// Quality thresholds on accumulated confidence.
const (
	lowThreshold    = 0.6
	mediumThreshold = 0.8
)

// HaversineKm returns the great-circle distance between two coordinates
// in kilometers.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

// Validate grades every trip and position and cross-checks the batch
// against itself and the requested date range.
func Validate(trips []Trip, positions []Position, dateCtx temporal.DateContext) Report {
	report := Report{
		Trips:     make([]ValidatedTrip, 0, len(trips)),
		Positions: make([]ValidatedPosition, 0, len(positions)),
	}

	for i := range trips {
		report.Trips = append(report.Trips, validateTrip(i, trips))
	}
	for _, p := range positions {
		report.Positions = append(report.Positions, validatePosition(p))
	}

	report.Summary = summarize(report.Trips, report.Positions)
	report.Summary.Warnings = crossValidate(report.Trips, report.Positions, dateCtx)
	report.OverallQuality = overallQuality(report)
	return report
}

// validateTrip applies every per-trip check. Each failure appends an
// issue and deducts a fixed confidence penalty; the ghost override takes
// precedence over everything else.
func validateTrip(idx int, batch []Trip) ValidatedTrip {
	t := batch[idx]
	vt := ValidatedTrip{Trip: t, Confidence: 1.0}
	forceLow := false

	hasTimes := !t.StartTime.IsZero() && !t.EndTime.IsZero()
	if !hasTimes {
		vt.fail(0.3, "Missing start or end time")
		forceLow = true
	} else if !t.EndTime.After(t.StartTime) {
		vt.fail(0.2, "End time not after start time")
	}

	startMissing := t.StartLat == 0 && t.StartLon == 0
	endMissing := t.EndLat == 0 && t.EndLon == 0
	if startMissing || endMissing {
		vt.fail(0.2, "Missing coordinates")
	}
	if outOfRange(t.StartLat, t.StartLon) {
		vt.fail(0.3, fmt.Sprintf("Start coordinates out of range: (%.4f, %.4f)", t.StartLat, t.StartLon))
		forceLow = true
	}
	if outOfRange(t.EndLat, t.EndLon) {
		vt.fail(0.3, fmt.Sprintf("End coordinates out of range: (%.4f, %.4f)", t.EndLat, t.EndLon))
		forceLow = true
	}

	if t.DistanceKm < 0 {
		vt.fail(0.2, "Negative distance")
	}
	if t.DistanceKm > ghostMinDistanceKm && !startMissing && !endMissing &&
		!outOfRange(t.StartLat, t.StartLon) && !outOfRange(t.EndLat, t.EndLon) {
		computed := HaversineKm(t.StartLat, t.StartLon, t.EndLat, t.EndLon)
		if math.Abs(t.DistanceKm-computed) > distanceMismatchRatio*t.DistanceKm {
			vt.fail(0.1, fmt.Sprintf("Reported distance %.2f km differs from coordinate distance %.2f km", t.DistanceKm, computed))
		}
	}

	if t.DurationSec < 0 {
		vt.fail(0.2, "Negative duration")
	}
	if hasTimes {
		wallclock := t.EndTime.Sub(t.StartTime).Seconds()
		if math.Abs(t.DurationSec-wallclock) > durationMismatchSec {
			vt.fail(0.1, fmt.Sprintf("Reported duration %.0fs differs from wall clock %.0fs", t.DurationSec, wallclock))
		}
	}

	if t.MaxSpeedKmh < 0 || t.MaxSpeedKmh > maxSpeedKmh {
		vt.fail(0.1, fmt.Sprintf("Unrealistic max speed: %.1f km/h", t.MaxSpeedKmh))
	}

	if hasDuplicate(idx, batch) {
		vt.fail(0.1, "Near-duplicate trip in batch")
	}

	if vt.Confidence < 0 {
		vt.Confidence = 0
	}

	// Ghost override: sensor noise rather than real movement.
	if isGhost(t) {
		vt.Ghost = true
		vt.Confidence = 0
		vt.Quality = QualityLow
		vt.Issues = append(vt.Issues, "Ghost trip")
		return vt
	}

	switch {
	case forceLow || vt.Confidence < lowThreshold:
		vt.Quality = QualityLow
	case vt.Confidence < mediumThreshold:
		vt.Quality = QualityMedium
	default:
		vt.Quality = QualityHigh
	}
	return vt
}

func (vt *ValidatedTrip) fail(penalty float64, issue string) {
	vt.Confidence -= penalty
	vt.Issues = append(vt.Issues, issue)
}

// isGhost flags trips that are physically implausible: near-zero movement
// over near-zero time, or an implied average speed no road vehicle reaches.
func isGhost(t Trip) bool {
	dur := t.DurationSec
	if dur <= 0 && !t.StartTime.IsZero() && !t.EndTime.IsZero() {
		dur = t.EndTime.Sub(t.StartTime).Seconds()
	}
	if dur < ghostMinDurationS && t.DistanceKm < ghostMinDistanceKm {
		return true
	}
	if dur > 0 && t.DistanceKm/(dur/3600) > ghostSpeedKmh {
		return true
	}
	return false
}

func hasDuplicate(idx int, batch []Trip) bool {
	t := batch[idx]
	for i, other := range batch {
		if i == idx {
			continue
		}
		if absDuration(other.StartTime.Sub(t.StartTime)) <= duplicateWindow &&
			absDuration(other.EndTime.Sub(t.EndTime)) <= duplicateWindow {
			return true
		}
	}
	return false
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func outOfRange(lat, lon float64) bool {
	return math.Abs(lat) > 90 || math.Abs(lon) > 180
}

// validatePosition grades a single GPS sample. Coordinate defects force
// low quality; implausible speed or a missing timestamp downgrade one step.
func validatePosition(p Position) ValidatedPosition {
	vp := ValidatedPosition{Position: p, Quality: QualityHigh}

	switch {
	case p.Lat == 0 && p.Lon == 0:
		vp.Quality = QualityLow
		vp.Issues = append(vp.Issues, "Invalid coordinates: null island (0,0)")
	case p.Lat == 0 || p.Lon == 0:
		vp.Quality = QualityLow
		vp.Issues = append(vp.Issues, "Missing coordinate component")
	case outOfRange(p.Lat, p.Lon):
		vp.Quality = QualityLow
		vp.Issues = append(vp.Issues, fmt.Sprintf("Coordinates out of range: (%.4f, %.4f)", p.Lat, p.Lon))
	}

	if p.SpeedKmh < 0 || p.SpeedKmh > maxSpeedKmh {
		vp.Issues = append(vp.Issues, fmt.Sprintf("Unrealistic speed: %.1f km/h", p.SpeedKmh))
		vp.downgrade()
	}
	if p.Timestamp.IsZero() {
		vp.Issues = append(vp.Issues, "Missing timestamp")
		vp.downgrade()
	}
	return vp
}

// downgrade lowers quality one step; it never upgrades.
func (vp *ValidatedPosition) downgrade() {
	if vp.Quality == QualityHigh {
		vp.Quality = QualityMedium
	}
}

// summarize computes the aggregate counts and sums. Ghost trips are
// reported in the totals but excluded from every aggregate sum.
func summarize(trips []ValidatedTrip, positions []ValidatedPosition) Summary {
	s := Summary{
		TotalTrips:     len(trips),
		TotalPositions: len(positions),
	}
	for _, t := range trips {
		if t.Ghost {
			continue
		}
		if t.Quality != QualityLow {
			s.ValidTrips++
		}
		s.TotalDistanceKm += t.DistanceKm
		s.TotalDurationSec += t.DurationSec
	}
	for _, p := range positions {
		if p.Quality != QualityLow {
			s.ValidPositions++
		}
	}
	return s
}

// crossValidate checks trip-reported aggregates against position-derived
// aggregates and against the requested date coverage. Warnings never
// alter per-record quality.
func crossValidate(trips []ValidatedTrip, positions []ValidatedPosition, dateCtx temporal.DateContext) []string {
	var warnings []string

	tripSum := 0.0
	for _, t := range trips {
		if !t.Ghost && t.Quality != QualityLow {
			tripSum += t.DistanceKm
		}
	}

	if tripSum > 0 && len(positions) > 0 {
		posSum := positionDistanceKm(positions)
		if math.Abs(tripSum-posSum) > crossDistanceRatio*tripSum {
			warnings = append(warnings, fmt.Sprintf(
				"Trip distance total %.1f km disagrees with position-derived %.1f km", tripSum, posSum))
		}
	}

	if dateCtx.HasDateReference {
		earliest, latest, ok := tripBounds(trips)
		if ok {
			if earliest.After(dateCtx.Start) {
				warnings = append(warnings, fmt.Sprintf(
					"Trip coverage starts %s, after the requested start %s",
					earliest.Format(time.RFC3339), dateCtx.Start.Format(time.RFC3339)))
			}
			if latest.Before(dateCtx.End) {
				warnings = append(warnings, fmt.Sprintf(
					"Trip coverage ends %s, before the requested end %s",
					latest.Format(time.RFC3339), dateCtx.End.Format(time.RFC3339)))
			}
		}
	}

	return warnings
}

// positionDistanceKm sums the Haversine legs along the valid position
// sequence in timestamp order.
func positionDistanceKm(positions []ValidatedPosition) float64 {
	valid := make([]ValidatedPosition, 0, len(positions))
	for _, p := range positions {
		if p.Quality != QualityLow {
			valid = append(valid, p)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Timestamp.Before(valid[j].Timestamp)
	})

	total := 0.0
	for i := 1; i < len(valid); i++ {
		total += HaversineKm(valid[i-1].Lat, valid[i-1].Lon, valid[i].Lat, valid[i].Lon)
	}
	return total
}

func tripBounds(trips []ValidatedTrip) (earliest, latest time.Time, ok bool) {
	for _, t := range trips {
		if t.Ghost || t.StartTime.IsZero() || t.EndTime.IsZero() {
			continue
		}
		if !ok {
			earliest, latest, ok = t.StartTime, t.EndTime, true
			continue
		}
		if t.StartTime.Before(earliest) {
			earliest = t.StartTime
		}
		if t.EndTime.After(latest) {
			latest = t.EndTime
		}
	}
	return earliest, latest, ok
}

// overallQuality applies the strict precedence rule: one low record taints
// the batch low; any medium record or cross-validation warning caps it at
// medium. Downstream answer assembly uses this to hedge its claims.
func overallQuality(r Report) Quality {
	anyMedium := len(r.Summary.Warnings) > 0
	for _, t := range r.Trips {
		switch t.Quality {
		case QualityLow:
			return QualityLow
		case QualityMedium:
			anyMedium = true
		}
	}
	for _, p := range r.Positions {
		switch p.Quality {
		case QualityLow:
			return QualityLow
		case QualityMedium:
			anyMedium = true
		}
	}
	if anyMedium {
		return QualityMedium
	}
	return QualityHigh
}
