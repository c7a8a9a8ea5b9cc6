// Copyright 2026 The FleetGlass Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package temporal

import (
	"fmt"
	"time"
)

// maxRangeDays is the span above which a range is flagged (not truncated).
const maxRangeDays = 365

// correct enforces the DateContext invariants on the chosen result.
// Violations are fixed in place, discounted, and recorded as issues;
// nothing is ever rejected.
func correct(ctx DateContext, now time.Time, loc *time.Location) DateContext {
	if !ctx.HasDateReference && ctx.Period == PeriodNone {
		// Unresolved contexts legitimately collapse to now.
		return ctx
	}

	corrected := false

	ctx.Start = ctx.Start.In(loc)
	ctx.End = ctx.End.In(loc)

	if ctx.Start.After(now) || ctx.End.After(now) {
		if ctx.Start.After(now) {
			ctx.Start = now
		}
		if ctx.End.After(now) {
			ctx.End = now
		}
		ctx.Confidence *= 0.8
		ctx.Issues = append(ctx.Issues, "future date clamped to now")
		corrected = true
	}

	if ctx.Start.After(ctx.End) {
		ctx.Start, ctx.End = ctx.End, ctx.Start
		ctx.Confidence *= 0.7
		ctx.Issues = append(ctx.Issues, "inverted range swapped")
		corrected = true
	}

	if span := ctx.End.Sub(ctx.Start); span > maxRangeDays*24*time.Hour {
		ctx.Issues = append(ctx.Issues, fmt.Sprintf("range spans %.0f days", span.Hours()/24))
	}

	if corrected {
		// Re-snap to day boundaries in the resolved timezone, then keep
		// the end-of-now invariant intact.
		ctx.Start = startOfDay(ctx.Start)
		ctx.End = endOfDay(ctx.End)
		if ctx.End.After(now) {
			ctx.End = now
		}
	}

	return ctx
}
