// Copyright 2026 The FleetGlass Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package temporal

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultTimezone is the operational default when neither the caller nor
// the configuration names one.
const DefaultTimezone = "UTC"

// DefaultFallbackTimeout bounds the model-backed fallback call.
const DefaultFallbackTimeout = 15 * time.Second

// Resolver turns date phrases into DateContext values.
type Resolver struct {
	defaultTZ       string
	fallback        FallbackResolver
	fallbackTimeout time.Duration
	clock           func() time.Time
}

// NewResolver creates a resolver with the given default IANA timezone.
// An empty timezone falls back to DefaultTimezone.
func NewResolver(defaultTZ string) *Resolver {
	if defaultTZ == "" {
		defaultTZ = DefaultTimezone
	}
	return &Resolver{
		defaultTZ:       defaultTZ,
		fallbackTimeout: DefaultFallbackTimeout,
		clock:           time.Now,
	}
}

// SetFallback installs the model-backed fallback resolver. A zero timeout
// keeps the default.
func (r *Resolver) SetFallback(fb FallbackResolver, timeout time.Duration) {
	r.fallback = fb
	if timeout > 0 {
		r.fallbackTimeout = timeout
	}
}

// SetClock overrides the wall clock. Tests use this for determinism.
func (r *Resolver) SetClock(clock func() time.Time) {
	if clock != nil {
		r.clock = clock
	}
}

// Resolve runs the fast path, escalates to the fallback when the phrasing
// is ambiguous, and applies the validation/correction pass to whichever
// result wins. The returned context always satisfies Start <= End and
// End <= now.
func (r *Resolver) Resolve(ctx context.Context, query string, opts ...Option) DateContext {
	o := resolveOptions{timezone: r.defaultTZ}
	for _, opt := range opts {
		opt(&o)
	}
	if o.timezone == "" {
		o.timezone = r.defaultTZ
	}

	loc, err := time.LoadLocation(o.timezone)
	if err != nil {
		log.WithField("timezone", o.timezone).Warn("unknown timezone, using default")
		o.timezone = DefaultTimezone
		loc = time.UTC
	}

	now := o.clientTime
	if now.IsZero() {
		now = r.clock()
	}
	now = now.In(loc)

	result := fastPath(query, now, o.timezone)

	if r.fallback != nil && shouldEscalate(result, query) {
		fbCtx, cancel := context.WithTimeout(ctx, r.fallbackTimeout)
		fb, err := r.fallback.Resolve(fbCtx, query, now, o.timezone)
		cancel()
		switch {
		case err != nil:
			// Fallback unavailability is never surfaced to callers.
			log.WithError(err).Warn("temporal fallback unavailable, keeping fast-path result")
		case fb.Confidence > result.Confidence,
			fb.HasDateReference && !result.HasDateReference:
			fb.Timezone = o.timezone
			result = fb
		}
	}

	return correct(result, now, loc)
}

// Fast-path pattern tables. Rules are evaluated in a fixed order and the
// first match wins.
var (
	reLastTrip    = regexp.MustCompile(`\b(last|latest|most recent|previous) (trip|journey|drive|ride)\b`)
	reYesterday   = regexp.MustCompile(`\byesterday\b|\blast night\b`)
	reToday       = regexp.MustCompile(`\btoday\b|\btonight\b|\bthis (morning|afternoon|evening)\b|\bso far\b`)
	reDaysAgo     = regexp.MustCompile(`\b(\d+)\s*days?\s*ago\b`)
	reHoursAgo    = regexp.MustCompile(`\b(\d+)\s*hours?\s*ago\b`)
	reLastNDays   = regexp.MustCompile(`\b(?:last|past) (\d+) days?\b`)
	reThisWeek    = regexp.MustCompile(`\bthis week\b`)
	reLastWeek    = regexp.MustCompile(`\blast week\b`)
	reThisMonth   = regexp.MustCompile(`\bthis month\b`)
	reLastMonth   = regexp.MustCompile(`\blast month\b`)
	monthPattern  = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`
	reMonthDay    = regexp.MustCompile(`\b` + monthPattern + `\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	reDayOfMonth  = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?` + monthPattern + `\b`)
	reWeekday     = regexp.MustCompile(`\b(?:(on|last|this)\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	reMovement    = regexp.MustCompile(`\bwhere (did|was|has)\b|\bdid (it|he|she|they|the \w+) (go|move|drive)\b|\bbeen\b`)
	reTripHistory = regexp.MustCompile(`\btrips?\b|\bhistory\b`)
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

var weekdays = map[string]time.Weekday{
	"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday, "sunday": time.Sunday,
}

// fastPath is the deterministic cascade. now must already be in the
// resolved timezone.
func fastPath(query string, now time.Time, tz string) DateContext {
	q := strings.ToLower(query)

	ctx := DateContext{Timezone: tz, Period: PeriodNone, Confidence: 0.5}

	switch {
	case reLastTrip.MatchString(q):
		// The actual trip is unknown here; give the data layer a week of
		// lookback to find the most recent one.
		ctx = ranged(PeriodLastTrip, startOfDay(now.AddDate(0, 0, -7)), now, 0.8, "the most recent trip", tz)

	case reYesterday.MatchString(q):
		y := now.AddDate(0, 0, -1)
		ctx = ranged(PeriodYesterday, startOfDay(y), endOfDay(y), 0.95, "yesterday", tz)

	case reToday.MatchString(q):
		ctx = ranged(PeriodToday, startOfDay(now), now, 0.95, "today", tz)

	case reDaysAgo.MatchString(q):
		n := atoi(reDaysAgo.FindStringSubmatch(q)[1])
		d := now.AddDate(0, 0, -n)
		ctx = ranged(PeriodCustom, startOfDay(d), endOfDay(d), 0.9,
			fmt.Sprintf("%d days ago", n), tz)

	case reHoursAgo.MatchString(q):
		n := atoi(reHoursAgo.FindStringSubmatch(q)[1])
		ctx = ranged(PeriodCustom, now.Add(-time.Duration(n)*time.Hour), now, 0.9,
			fmt.Sprintf("the last %d hours", n), tz)

	case reLastNDays.MatchString(q):
		n := atoi(reLastNDays.FindStringSubmatch(q)[1])
		ctx = ranged(PeriodCustom, startOfDay(now.AddDate(0, 0, -n)), now, 0.85,
			fmt.Sprintf("the last %d days", n), tz)

	case reThisWeek.MatchString(q):
		ctx = ranged(PeriodThisWeek, weekStart(now), now, 0.85, "this week", tz)

	case reLastWeek.MatchString(q):
		start := weekStart(now).AddDate(0, 0, -7)
		ctx = ranged(PeriodLastWeek, start, endOfDay(start.AddDate(0, 0, 6)), 0.85, "last week", tz)

	case reThisMonth.MatchString(q):
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		ctx = ranged(PeriodThisMonth, start, now, 0.85, "this month", tz)

	case reLastMonth.MatchString(q):
		firstOfThis := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		start := firstOfThis.AddDate(0, -1, 0)
		ctx = ranged(PeriodLastMonth, start, endOfDay(firstOfThis.AddDate(0, 0, -1)), 0.85, "last month", tz)

	case reMonthDay.MatchString(q):
		m := reMonthDay.FindStringSubmatch(q)
		ctx = explicitDate(months[m[1][:3]], atoi(m[2]), now, tz)

	case reDayOfMonth.MatchString(q):
		m := reDayOfMonth.FindStringSubmatch(q)
		ctx = explicitDate(months[m[2][:3]], atoi(m[1]), now, tz)

	case reWeekday.MatchString(q):
		m := reWeekday.FindStringSubmatch(q)
		ctx = weekdayDate(m[1], weekdays[m[2]], now, tz)

	case reMovement.MatchString(q):
		ctx = ranged(PeriodCustom, now.Add(-24*time.Hour), now, 0.8, "the last 24 hours", tz)

	case reTripHistory.MatchString(q):
		ctx = ranged(PeriodCustom, startOfDay(now.AddDate(0, 0, -30)), now, 0.8, "the last 30 days", tz)

	default:
		// No recognized date phrase; collapse the range to now.
		ctx.Start = now
		ctx.End = now
		ctx.HumanReadable = "now"
	}

	return ctx
}

func ranged(p Period, start, end time.Time, confidence float64, human, tz string) DateContext {
	return DateContext{
		HasDateReference: true,
		Period:           p,
		Start:            start,
		End:              end,
		HumanReadable:    human,
		Timezone:         tz,
		Confidence:       confidence,
	}
}

// explicitDate resolves "Month Day" phrases. The year is the current one
// unless that lands in the future, in which case it rolls back a year.
func explicitDate(month time.Month, day int, now time.Time, tz string) DateContext {
	d := time.Date(now.Year(), month, day, 0, 0, 0, 0, now.Location())
	if d.After(now) {
		d = d.AddDate(-1, 0, 0)
	}
	return ranged(PeriodCustom, startOfDay(d), endOfDay(d), 0.8, d.Format("January 2"), tz)
}

// weekdayDate resolves a weekday name to its most recent occurrence.
// Today counts as the most recent occurrence of its own weekday; the
// "last" qualifier always goes one week further back.
func weekdayDate(qualifier string, wd time.Weekday, now time.Time, tz string) DateContext {
	diff := (int(now.Weekday()) - int(wd) + 7) % 7
	d := now.AddDate(0, 0, -diff)
	if qualifier == "last" {
		d = d.AddDate(0, 0, -7)
	}
	// Weekday names are inherently ambiguous, hence the lower confidence.
	return ranged(PeriodCustom, startOfDay(d), endOfDay(d), 0.7, d.Format("Monday, January 2"), tz)
}

// weekStart returns the Monday 00:00 of the week containing t.
// Sunday belongs to the week that started six days earlier.
func weekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return startOfDay(t.AddDate(0, 0, -offset))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// Ambiguity markers that justify escalating to the model-backed fallback.
var ambiguityMarkers = regexp.MustCompile(
	`\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b` +
		`|\b(that|this) (day|time|morning|afternoon|evening|week)\b` +
		`|\b(recently|lately|earlier)\b` +
		`|\bwhen (did|was|were)\b|\ba while\b`)

// shouldEscalate decides whether the fallback tier is consulted. Both
// confidence checks are deliberate: a confident fast-path result with a
// recognized period is never escalated, and without an ambiguity marker
// only a genuinely weak result (<0.7) is.
func shouldEscalate(fast DateContext, query string) bool {
	if fast.Confidence >= 0.9 && fast.Period != PeriodNone {
		return false
	}
	q := strings.ToLower(query)
	return ambiguityMarkers.MatchString(q) || fast.Confidence < 0.7
}
