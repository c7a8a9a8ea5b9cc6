// Copyright 2026 The FleetGlass Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package routing maps a classified query to the backend data sources it
// needs, the cache strategy to use, a priority tier and a latency
// estimate. It also exposes a dependency-ordered fetch plan and a
// source-availability check over a fetched data bag.
package routing

import "github.com/fleetglass/cortex/internal/intent"

// CacheStrategy selects how fetched data may be reused.
type CacheStrategy string

const (
	CacheFresh  CacheStrategy = "fresh"
	CacheCached CacheStrategy = "cached"
	CacheHybrid CacheStrategy = "hybrid"
)

// Priority orders query handling.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Data source names. The two baseline sources are attached to every
// decision; the rest are intent-specific.
const (
	SourceVehicleProfile    = "vehicle_profile"
	SourceAssistantSettings = "assistant_settings"
	SourcePositionLive      = "position_live"
	SourcePositionHistory   = "position_history"
	SourceTrips             = "trips"
	SourceAlarms            = "alarms"
	SourceChatHistory       = "chat_history"
)

// DataSourceRequirement names one backend source a query needs.
type DataSourceRequirement struct {
	Source   string `json:"source"`
	Required bool   `json:"required"`
	Limit    int    `json:"limit,omitempty"`
	UseCache bool   `json:"use_cache"`
}

// RoutingDecision is the per-query routing result, consumed immediately
// by the calling layer and never mutated afterwards.
type RoutingDecision struct {
	Intent             intent.Intent           `json:"intent"`
	DataSources        []DataSourceRequirement `json:"data_sources"`
	CacheStrategy      CacheStrategy           `json:"cache_strategy"`
	Priority           Priority                `json:"priority"`
	EstimatedLatencyMs int                     `json:"estimated_latency_ms"`

	// SteeredBy names the steering rule that overrode the decision, if any.
	SteeredBy string `json:"steered_by,omitempty"`
}
