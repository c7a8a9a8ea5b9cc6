// Copyright 2026 The FleetGlass Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package core wires the classifier, router, temporal resolver, result
// cache and telemetry validator into the decision pipeline consumed by
// the prompt-assembly layer.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/fleetglass/cortex/internal/cache"
	"github.com/fleetglass/cortex/internal/config"
	"github.com/fleetglass/cortex/internal/intent"
	"github.com/fleetglass/cortex/internal/routing"
	"github.com/fleetglass/cortex/internal/telemetry"
	"github.com/fleetglass/cortex/internal/temporal"
)

// defaultLookback is the fetch window when a query carries no date
// reference at all.
const defaultLookback = 24 * time.Hour

// recordKind tags cached record payloads.
const recordKind = "records"

// DataProvider is the opaque data-access collaborator. Implementations
// talk to whatever backend holds the telemetry; the core only sees the
// record shapes.
type DataProvider interface {
	// Trips returns raw trip records for the entity within the range.
	Trips(ctx context.Context, entityID string, start, end time.Time, limit int) ([]telemetry.Trip, error)

	// Positions returns raw GPS samples for the entity within the range.
	Positions(ctx context.Context, entityID string, start, end time.Time, limit int) ([]telemetry.Position, error)

	// Source returns the payload of a non-record source such as the
	// vehicle profile, assistant settings or alarm list.
	Source(ctx context.Context, entityID, source string) (any, error)
}

// AnswerContext is everything the prompt-assembly layer needs to build a
// model answer: the routing decision, the resolved time range and the
// validated dataset.
type AnswerContext struct {
	RequestID      string                  `json:"request_id"`
	Query          string                  `json:"query"`
	EntityID       string                  `json:"entity_id"`
	Decision       routing.RoutingDecision `json:"decision"`
	DateContext    temporal.DateContext    `json:"date_context"`
	Report         telemetry.Report        `json:"report"`
	MissingSources []string                `json:"missing_sources,omitempty"`
}

// Engine is the decision core. All components are constructor-injected;
// the engine holds no entity-scoped mutable state besides the shared
// result cache.
type Engine struct {
	classifier *intent.Classifier
	router     *routing.Router
	resolver   *temporal.Resolver
	cache      *cache.ResultCache
	provider   DataProvider
	steering   *routing.SteeringEngine
	watcher    *routing.RulesWatcher
}

// New builds an engine from the configuration and the injected data
// provider. A nil fallback resolver disables the temporal fallback tier
// regardless of configuration.
func New(cfg *config.Config, provider DataProvider, fallback temporal.FallbackResolver) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if provider == nil {
		return nil, fmt.Errorf("core: data provider is required")
	}

	classifier := intent.NewClassifier(cfg.Classifier.ScoreDivisor, cfg.Classifier.GeneralThreshold)

	var steering *routing.SteeringEngine
	var watcher *routing.RulesWatcher
	if cfg.Steering.RulesFile != "" {
		steering = routing.NewSteeringEngine()
		if err := steering.LoadFile(cfg.Steering.RulesFile); err != nil {
			return nil, fmt.Errorf("core: %w", err)
		}
		if cfg.Steering.Watch {
			w, err := routing.NewRulesWatcher(steering, cfg.Steering.RulesFile)
			if err != nil {
				return nil, fmt.Errorf("core: %w", err)
			}
			watcher = w
		}
	}

	resolver := temporal.NewResolver(cfg.Timezone)
	if cfg.Temporal.FallbackEnabled && fallback != nil {
		resolver.SetFallback(fallback, time.Duration(cfg.Temporal.FallbackTimeoutSeconds)*time.Second)
	}

	ttls := make(map[temporal.Period]time.Duration, len(cfg.Cache.TTLSeconds))
	for period, secs := range cfg.Cache.TTLSeconds {
		ttls[temporal.Period(period)] = time.Duration(secs) * time.Second
	}

	return &Engine{
		classifier: classifier,
		router:     routing.NewRouter(classifier, steering),
		resolver:   resolver,
		cache: cache.New(
			cache.WithMaxEntries(cfg.Cache.MaxEntries),
			cache.WithTTLOverrides(ttls),
		),
		provider: provider,
		steering: steering,
		watcher:  watcher,
	}, nil
}

// Close releases background resources (the rules watcher, if running).
func (e *Engine) Close() error {
	if e.watcher != nil {
		return e.watcher.Close()
	}
	return nil
}

// Cache exposes the result cache for the administrative invalidation hook.
func (e *Engine) Cache() *cache.ResultCache { return e.cache }

// Router exposes the router for debug endpoints.
func (e *Engine) Router() *routing.Router { return e.router }

// Resolver exposes the temporal resolver for debug endpoints.
func (e *Engine) Resolver() *temporal.Resolver { return e.resolver }

// Answer runs the full decision pipeline for one query. Data-quality
// defects never fail the call; the only errors surfaced are provider
// failures on required sources.
func (e *Engine) Answer(ctx context.Context, query, entityID string, opts ...temporal.Option) (*AnswerContext, error) {
	requestID := uuid.NewString()[:8]
	logger := log.WithField("request_id", requestID)

	decision := e.router.Route(query, entityID)
	dateCtx := e.resolver.Resolve(ctx, query, opts...)

	start, end := dateCtx.Start, dateCtx.End
	if !dateCtx.HasDateReference {
		start = end.Add(-defaultLookback)
	}

	bag := make(map[string]any)
	var trips []telemetry.Trip
	var positions []telemetry.Position

	for _, bucket := range routing.FetchPlan(decision) {
		for _, src := range bucket {
			payload, err := e.fetchSource(ctx, decision, dateCtx, src, entityID, start, end)
			if err != nil {
				if src.Required {
					return nil, fmt.Errorf("fetch %s: %w", src.Source, err)
				}
				logger.WithField("source", src.Source).WithError(err).Warn("optional source fetch failed")
				continue
			}
			bag[src.Source] = payload
			switch p := payload.(type) {
			case []telemetry.Trip:
				trips = p
			case []telemetry.Position:
				positions = p
			}
		}
	}

	_, missing := routing.ValidateAvailability(decision, bag)
	report := telemetry.Validate(trips, positions, dateCtx)

	logger.WithFields(log.Fields{
		"intent":  decision.Intent.Type.String(),
		"period":  dateCtx.Period,
		"quality": report.OverallQuality,
	}).Info("query processed")

	return &AnswerContext{
		RequestID:      requestID,
		Query:          query,
		EntityID:       entityID,
		Decision:       decision,
		DateContext:    dateCtx,
		Report:         report,
		MissingSources: missing,
	}, nil
}

// fetchSource resolves one data source, consulting the result cache when
// the decision's strategy and the source row allow it.
func (e *Engine) fetchSource(ctx context.Context, decision routing.RoutingDecision, dateCtx temporal.DateContext, src routing.DataSourceRequirement, entityID string, start, end time.Time) (any, error) {
	useCache := src.UseCache && decision.CacheStrategy != routing.CacheFresh
	sourceID := entityID + ":" + src.Source

	if useCache {
		if payload, ok := e.cache.Get(sourceID, dateCtx.Period, start, end, recordKind); ok {
			return payload, nil
		}
	}

	var payload any
	var err error
	switch src.Source {
	case routing.SourceTrips:
		payload, err = e.provider.Trips(ctx, entityID, start, end, src.Limit)
	case routing.SourcePositionHistory:
		payload, err = e.provider.Positions(ctx, entityID, start, end, src.Limit)
	default:
		payload, err = e.provider.Source(ctx, entityID, src.Source)
	}
	if err != nil {
		return nil, err
	}

	if useCache {
		e.cache.Set(sourceID, dateCtx.Period, start, end, recordKind, payload)
	}
	return payload, nil
}

// InvalidateEntity drops cached results for every source of the entity,
// optionally narrowed to specific period tags. This is the administrative
// invalidation hook.
func (e *Engine) InvalidateEntity(entityID string, periods ...temporal.Period) int {
	removed := 0
	for _, source := range []string{
		routing.SourceVehicleProfile,
		routing.SourceAssistantSettings,
		routing.SourcePositionLive,
		routing.SourcePositionHistory,
		routing.SourceTrips,
		routing.SourceAlarms,
		routing.SourceChatHistory,
	} {
		removed += e.cache.Invalidate(entityID+":"+source, periods...)
	}
	return removed
}
