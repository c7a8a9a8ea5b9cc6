// Copyright 2026 The FleetGlass Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package temporal converts natural-language date phrases in vehicle
// queries into concrete UTC-instant ranges. A deterministic fast path
// handles the common phrasings; an optional model-backed fallback is
// consulted for ambiguous input, and a correction pass enforces the
// range invariants before anything is returned to callers.
package temporal

import (
	"context"
	"time"
)

// Period is a coarse semantic label for a resolved range, used by the
// result cache to pick a TTL.
type Period string

const (
	PeriodToday     Period = "today"
	PeriodYesterday Period = "yesterday"
	PeriodThisWeek  Period = "this_week"
	PeriodLastWeek  Period = "last_week"
	PeriodThisMonth Period = "this_month"
	PeriodLastMonth Period = "last_month"
	PeriodCustom    Period = "custom"
	PeriodLastTrip  Period = "last_trip"
	PeriodNone      Period = "none"
)

// DateContext is the resolved time range for a query. Start and End are
// UTC instants; day boundaries are computed in Timezone before conversion.
// After Resolve, Start <= End and End <= now always hold, except
// that an unresolved context collapses both bounds to now.
type DateContext struct {
	HasDateReference bool      `json:"has_date_reference"`
	Period           Period    `json:"period"`
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	HumanReadable    string    `json:"human_readable"`
	Timezone         string    `json:"timezone"`
	Confidence       float64   `json:"confidence"`

	// Issues records corrections applied by the validation pass.
	Issues []string `json:"issues,omitempty"`
}

// FallbackResolver is the model-backed date-extraction collaborator.
// Implementations are treated as opaque: any error or timeout means the
// fast-path result is used instead, never a partial result.
type FallbackResolver interface {
	Resolve(ctx context.Context, query string, now time.Time, timezone string) (DateContext, error)
}

// Option adjusts a single Resolve call.
type Option func(*resolveOptions)

type resolveOptions struct {
	clientTime time.Time
	timezone   string
}

// WithClientTime pins "now" for the resolution, instead of the wall clock.
func WithClientTime(t time.Time) Option {
	return func(o *resolveOptions) { o.clientTime = t }
}

// WithTimezone overrides the resolver's default IANA timezone.
func WithTimezone(tz string) Option {
	return func(o *resolveOptions) { o.timezone = tz }
}
