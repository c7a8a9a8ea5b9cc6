// Copyright 2026 The FleetGlass Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package intent provides weighted pattern classification of free-text
// vehicle-assistant queries. It decides which category a query belongs to,
// how confident that decision is, and whether the query needs live data
// or historical data to be answered.
package intent

// Type identifies a query category.
type Type int

// Categories are scored in this enumeration order; ties resolve to the
// category that was scored first.
const (
	TypeLocation Type = iota
	TypeTrip
	TypeStats
	TypeMaintenance
	TypeControl
	TypeHistory
	TypeDriver
	TypeGeneral
)

// AllTypes lists every category in scoring order.
var AllTypes = []Type{
	TypeLocation,
	TypeTrip,
	TypeStats,
	TypeMaintenance,
	TypeControl,
	TypeHistory,
	TypeDriver,
	TypeGeneral,
}

// String returns the wire name of the intent type.
func (t Type) String() string {
	switch t {
	case TypeLocation:
		return "location"
	case TypeTrip:
		return "trip"
	case TypeStats:
		return "stats"
	case TypeMaintenance:
		return "maintenance"
	case TypeControl:
		return "control"
	case TypeHistory:
		return "history"
	case TypeDriver:
		return "driver"
	case TypeGeneral:
		return "general"
	}
	return "unknown"
}

// Intent is the classification result for a single query.
// It is created per query and never mutated or persisted.
type Intent struct {
	Type Type `json:"type"`

	// Confidence is the normalized match strength in [0,1].
	Confidence float64 `json:"confidence"`

	// RequiresFreshData indicates the answer must be built from live,
	// non-cached telemetry.
	RequiresFreshData bool `json:"requires_fresh_data"`

	// RequiresHistory indicates the answer needs records from a past
	// time range rather than the current state.
	RequiresHistory bool `json:"requires_history"`

	// MatchedKeywords holds up to five deduplicated substrings that
	// contributed to the winning score.
	MatchedKeywords []string `json:"matched_keywords"`
}
