// Copyright 2026 The FleetGlass Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package temporal

import (
	"context"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var propQueries = []interface{}{
	"yesterday",
	"how far today",
	"trips 3 days ago",
	"stats for the last 14 days",
	"distance this week",
	"trips last week",
	"mileage this month",
	"report for last month",
	"what happened on march 3",
	"trips on monday",
	"trips last sunday",
	"where has it been",
	"show the trip history",
	"my last trip",
	"2 hours ago",
	"hello there",
}

var propTimezones = []interface{}{
	"UTC", "Africa/Lagos", "America/New_York", "Asia/Tokyo", "Australia/Sydney",
}

// Resolved ranges always satisfy Start <= End <= now, whatever the phrase,
// clock, or timezone.
func TestResolveRangeInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	r := NewResolver("UTC")

	properties.Property("start <= end <= now", prop.ForAll(
		func(query string, unix int64, tz string) bool {
			clientTime := time.Unix(unix, 0).UTC()
			loc, err := time.LoadLocation(tz)
			if err != nil {
				return false
			}
			now := clientTime.In(loc)

			dc := r.Resolve(context.Background(), query,
				WithClientTime(clientTime), WithTimezone(tz))

			return !dc.Start.After(dc.End) && !dc.End.After(now)
		},
		gen.OneConstOf(propQueries...),
		gen.Int64Range(1_000_000_000, 2_000_000_000),
		gen.OneConstOf(propTimezones...),
	))

	properties.Property("confidence stays within [0, 1]", prop.ForAll(
		func(query string, unix int64) bool {
			dc := r.Resolve(context.Background(), query,
				WithClientTime(time.Unix(unix, 0).UTC()))
			return dc.Confidence >= 0 && dc.Confidence <= 1
		},
		gen.OneConstOf(propQueries...),
		gen.Int64Range(1_000_000_000, 2_000_000_000),
	))

	properties.Property("same inputs resolve identically", prop.ForAll(
		func(query string, unix int64, tz string) bool {
			clientTime := time.Unix(unix, 0).UTC()
			a := r.Resolve(context.Background(), query,
				WithClientTime(clientTime), WithTimezone(tz))
			b := r.Resolve(context.Background(), query,
				WithClientTime(clientTime), WithTimezone(tz))
			return a.Period == b.Period && a.Start.Equal(b.Start) &&
				a.End.Equal(b.End) && a.Confidence == b.Confidence
		},
		gen.OneConstOf(propQueries...),
		gen.Int64Range(1_000_000_000, 2_000_000_000),
		gen.OneConstOf(propTimezones...),
	))

	properties.TestingRun(t)
}
