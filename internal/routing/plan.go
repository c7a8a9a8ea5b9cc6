// Copyright 2026 The FleetGlass Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package routing

import "reflect"

// FetchPlan buckets the decision's sources into dependency order:
// independent metadata first, then position/GPS sources, then the
// trip/alarm/chat queries that may depend on them. Sources within a
// bucket can be fetched in parallel.
func FetchPlan(d RoutingDecision) [][]DataSourceRequirement {
	var metadata, position, derived []DataSourceRequirement
	for _, s := range d.DataSources {
		switch s.Source {
		case SourceVehicleProfile, SourceAssistantSettings:
			metadata = append(metadata, s)
		case SourcePositionLive, SourcePositionHistory:
			position = append(position, s)
		default:
			derived = append(derived, s)
		}
	}

	plan := make([][]DataSourceRequirement, 0, 3)
	for _, bucket := range [][]DataSourceRequirement{metadata, position, derived} {
		if len(bucket) > 0 {
			plan = append(plan, bucket)
		}
	}
	return plan
}

// ValidateAvailability reports whether every required source is present
// and non-empty in the fetched data bag. The caller decides whether to
// proceed degraded or abort; this never errors.
func ValidateAvailability(d RoutingDecision, bag map[string]any) (bool, []string) {
	var missing []string
	for _, s := range d.DataSources {
		if !s.Required {
			continue
		}
		v, ok := bag[s.Source]
		if !ok || isEmpty(v) {
			missing = append(missing, s.Source)
		}
	}
	return len(missing) == 0, missing
}

// isEmpty treats nil, empty collections and blank strings as absent data.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
