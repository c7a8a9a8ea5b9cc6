// Copyright 2026 The FleetGlass Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package routing

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/fleetglass/cortex/internal/intent"
)

// Latency model constants, all in milliseconds. The base covers the model
// round-trip that every conversational answer pays.
const (
	latencyBase      = 500
	latencyFreshTrip = 200

	latencyProfile         = 50
	latencySettings        = 50
	latencyPositionCached  = 50
	latencyPositionFresh   = 300
	latencyPositionHistory = 100
	latencyTrips           = 120
	latencyAlarms          = 80
	latencyChatHistory     = 80

	// Optional sources are weighted at half cost in the estimate only;
	// execution never skips them.
	optionalWeight = 0.5
)

// Router turns classified queries into routing decisions.
type Router struct {
	classifier *intent.Classifier
	steering   *SteeringEngine
	clock      func() time.Time
}

// NewRouter creates a router over the given classifier. The steering
// engine is optional.
func NewRouter(classifier *intent.Classifier, steering *SteeringEngine) *Router {
	return &Router{
		classifier: classifier,
		steering:   steering,
		clock:      time.Now,
	}
}

// SetClock overrides the wall clock used for steering contexts.
func (r *Router) SetClock(clock func() time.Time) {
	if clock != nil {
		r.clock = clock
	}
}

// Route classifies the query and maps the result to data sources, cache
// strategy, priority and a latency estimate for the given entity.
func (r *Router) Route(query, entityID string) RoutingDecision {
	it := r.classifier.Classify(query)
	fresh := r.classifier.RequiresFreshData(query)

	decision := RoutingDecision{
		Intent:      it,
		DataSources: sourcesFor(it.Type),
	}
	decision.CacheStrategy = cacheStrategy(it, fresh)
	decision.Priority = priority(it, fresh)
	decision.EstimatedLatencyMs = estimateLatency(decision)

	if r.steering != nil {
		decision = r.steering.Apply(decision, SteeringContext{
			Intent:      it.Type.String(),
			Confidence:  it.Confidence,
			EntityID:    entityID,
			QueryLength: len(query),
			Hour:        r.clock().Hour(),
			DayOfWeek:   r.clock().Weekday().String(),
		})
	}

	log.WithFields(log.Fields{
		"entity":   entityID,
		"intent":   it.Type.String(),
		"strategy": decision.CacheStrategy,
		"priority": decision.Priority,
	}).Debug("routed query")
	return decision
}

// sourcesFor returns the baseline sources plus the intent-specific rows
// from the fixed requirement table.
func sourcesFor(t intent.Type) []DataSourceRequirement {
	sources := []DataSourceRequirement{
		{Source: SourceVehicleProfile, Required: true, UseCache: true},
		{Source: SourceAssistantSettings, Required: true, UseCache: true},
	}

	switch t {
	case intent.TypeLocation:
		sources = append(sources,
			DataSourceRequirement{Source: SourcePositionLive, Required: true, UseCache: false},
			DataSourceRequirement{Source: SourcePositionHistory, Limit: 50, UseCache: true},
		)
	case intent.TypeTrip:
		sources = append(sources,
			DataSourceRequirement{Source: SourceTrips, Required: true, Limit: 20, UseCache: true},
			DataSourceRequirement{Source: SourcePositionHistory, Limit: 200, UseCache: true},
		)
	case intent.TypeStats:
		sources = append(sources,
			DataSourceRequirement{Source: SourceTrips, Required: true, Limit: 100, UseCache: true},
			DataSourceRequirement{Source: SourcePositionHistory, Required: true, Limit: 1000, UseCache: true},
		)
	case intent.TypeMaintenance:
		sources = append(sources,
			DataSourceRequirement{Source: SourceAlarms, Required: true, Limit: 50, UseCache: true},
			DataSourceRequirement{Source: SourcePositionLive, UseCache: false},
		)
	case intent.TypeControl:
		// Commands must never act on stale settings.
		sources[1].UseCache = false
		sources = append(sources,
			DataSourceRequirement{Source: SourcePositionLive, Required: true, UseCache: false},
		)
	case intent.TypeHistory:
		sources = append(sources,
			DataSourceRequirement{Source: SourceTrips, Required: true, Limit: 50, UseCache: true},
			DataSourceRequirement{Source: SourceAlarms, Limit: 20, UseCache: true},
			DataSourceRequirement{Source: SourceChatHistory, Limit: 20, UseCache: true},
		)
	case intent.TypeDriver:
		sources = append(sources,
			DataSourceRequirement{Source: SourceTrips, Required: true, Limit: 30, UseCache: true},
			DataSourceRequirement{Source: SourcePositionHistory, Limit: 500, UseCache: true},
		)
	case intent.TypeGeneral:
		// Baselines only.
	}
	return sources
}

// cacheStrategy applies the fixed precedence order.
func cacheStrategy(it intent.Intent, fresh bool) CacheStrategy {
	switch {
	case fresh && it.Confidence > 0.6:
		return CacheFresh
	case it.Type == intent.TypeControl:
		return CacheFresh
	case it.Type == intent.TypeTrip, it.Type == intent.TypeStats, it.Type == intent.TypeHistory:
		return CacheCached
	case it.Type == intent.TypeLocation, it.Type == intent.TypeMaintenance:
		return CacheHybrid
	default:
		return CacheCached
	}
}

func priority(it intent.Intent, fresh bool) Priority {
	switch {
	case it.Type == intent.TypeControl:
		return PriorityHigh
	case it.Type == intent.TypeMaintenance && it.Confidence > 0.7:
		return PriorityHigh
	case fresh && it.Confidence > 0.6:
		return PriorityHigh
	case it.Type == intent.TypeStats, it.Type == intent.TypeHistory:
		return PriorityLow
	default:
		return PriorityNormal
	}
}

// estimateLatency sums the base model round-trip, per-source costs and a
// freshness surcharge. Optional sources count at half weight because the
// answer path may not wait on them.
func estimateLatency(d RoutingDecision) int {
	total := float64(latencyBase)
	for _, s := range d.DataSources {
		cost := sourceCost(s)
		if !s.Required {
			cost *= optionalWeight
		}
		total += cost
	}
	if d.CacheStrategy == CacheFresh {
		total += latencyFreshTrip
	}
	return int(total)
}

func sourceCost(s DataSourceRequirement) float64 {
	switch s.Source {
	case SourceVehicleProfile:
		return latencyProfile
	case SourceAssistantSettings:
		return latencySettings
	case SourcePositionLive:
		if s.UseCache {
			return latencyPositionCached
		}
		return latencyPositionFresh
	case SourcePositionHistory:
		return latencyPositionHistory
	case SourceTrips:
		return latencyTrips
	case SourceAlarms:
		return latencyAlarms
	case SourceChatHistory:
		return latencyChatHistory
	}
	return 0
}
