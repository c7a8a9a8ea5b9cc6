// Copyright 2026 The FleetGlass Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package intent

import (
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
)

const (
	// DefaultScoreDivisor approximates the accumulated score of a strong
	// multi-pattern match; confidence = min(topScore/divisor, 1).
	DefaultScoreDivisor = 50.0

	// DefaultGeneralThreshold is the confidence below which a query is
	// reclassified as general.
	DefaultGeneralThreshold = 0.15

	maxKeywords   = 5
	minKeywordLen = 3
)

// patternGroup is one weighted pattern contributing to a category score.
type patternGroup struct {
	re     *regexp.Regexp
	weight float64
}

func group(weight float64, pattern string) patternGroup {
	return patternGroup{re: regexp.MustCompile(pattern), weight: weight}
}

// patternsFor returns the ordered pattern groups for a category.
// The switch is exhaustive over Type so a new category is a
// compiler-visible addition here, not a stray map key.
func patternsFor(t Type) []patternGroup {
	switch t {
	case TypeLocation:
		return locationPatterns
	case TypeTrip:
		return tripPatterns
	case TypeStats:
		return statsPatterns
	case TypeMaintenance:
		return maintenancePatterns
	case TypeControl:
		return controlPatterns
	case TypeHistory:
		return historyPatterns
	case TypeDriver:
		return driverPatterns
	case TypeGeneral:
		return generalPatterns
	}
	return nil
}

var (
	locationPatterns = []patternGroup{
		group(12, `\bwhere'?s\b|\bwhere (is|are)\b`),
		group(10, `\b(location|position|coordinates?)\b`),
		group(10, `\bparked\b`),
		group(10, `\bfind (my|the) (car|vehicle|truck|van)\b`),
		group(6, `\bon (the|a) map\b`),
	}
	tripPatterns = []patternGroup{
		group(12, `\btrips?\b`),
		group(8, `\b(journeys?|drives?|driven|drove)\b`),
		group(6, `\broutes?\b`),
		group(10, `\bwhere did (it|he|she|they|the \w+) go\b`),
		group(5, `\b(depart(ed)?|arriv(e|ed|al)|left)\b`),
	}
	statsPatterns = []patternGroup{
		group(12, `\bstat(istic)?s?\b`),
		group(12, `\b(total|average|avg|max|maximum|top) (distance|speed|mileage|time)\b`),
		group(10, `\bhow (far|fast|many|much|long)\b`),
		group(6, `\b(mileage|odometer|kilometers?|kilometres?)\b`),
		group(6, `\b(summary|summarize|report|breakdown)\b`),
	}
	maintenancePatterns = []patternGroup{
		group(12, `\b(maintenance|service|servicing)\b`),
		group(8, `\b(battery|fuel|oil|tires?|tyres?|coolant|brakes?)\b`),
		group(8, `\b(warnings?|alerts?|alarms?|faults?|errors?)\b`),
		group(8, `\b(health|diagnostics?)\b`),
		group(5, `\b(overdue|due for|needs? (a )?(service|check))\b`),
	}
	controlPatterns = []patternGroup{
		group(12, `\b(lock|unlock)\b`),
		group(15, `\bset\b.*\b(limit|geofence|alerts?|alarms?)\b`),
		group(10, `\bspeed limit\b`),
		group(10, `\b(enable|disable|activate|deactivate|turn (on|off))\b`),
		group(10, `^(please )?(set|change|update|adjust)\b`),
	}
	historyPatterns = []patternGroup{
		group(12, `\bhistory\b`),
		group(8, `\b(yesterday|last (week|month|night)|ago)\b`),
		group(6, `\b(past|previous|earlier|recently|lately)\b`),
		group(10, `\bwhen (did|was|were)\b`),
		group(6, `\b(logs?|records?|timeline)\b`),
	}
	driverPatterns = []patternGroup{
		group(12, `\bdrivers?\b`),
		group(12, `\bwho (is|was) driving\b`),
		group(10, `\bdriving (behavior|behaviour|style|score|habits?)\b`),
		group(10, `\b(harsh|hard) (braking|accelerating|acceleration|cornering)\b`),
		group(6, `\b(speeding|overspeeding)\b`),
	}
	// general has no patterns of its own; it is the low-confidence default.
	generalPatterns []patternGroup
)

var realtimeMarkers = regexp.MustCompile(
	`\b(now|right now|live|currently|at (the|this) moment|this (minute|second)|exactly|real[ -]?time)\b`)

// Classifier scores queries against the weighted pattern tables.
// The zero value is not usable; construct with NewClassifier.
type Classifier struct {
	divisor          float64
	generalThreshold float64
}

// NewClassifier creates a classifier with the given score divisor and
// general-fallback threshold. Non-positive arguments fall back to the
// package defaults.
func NewClassifier(divisor, generalThreshold float64) *Classifier {
	if divisor <= 0 {
		divisor = DefaultScoreDivisor
	}
	if generalThreshold <= 0 {
		generalThreshold = DefaultGeneralThreshold
	}
	return &Classifier{divisor: divisor, generalThreshold: generalThreshold}
}

// scores holds the raw accumulated score and matched substrings per category.
type scores struct {
	score    map[Type]float64
	keywords map[Type][]string
}

// scoreQuery runs every pattern group against the lower-cased query.
func scoreQuery(query string) scores {
	s := scores{
		score:    make(map[Type]float64, len(AllTypes)),
		keywords: make(map[Type][]string, len(AllTypes)),
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return s
	}
	for _, t := range AllTypes {
		for _, g := range patternsFor(t) {
			matches := g.re.FindAllString(q, -1)
			if len(matches) == 0 {
				continue
			}
			s.score[t] += g.weight
			s.keywords[t] = appendKeywords(s.keywords[t], matches)
		}
	}
	return s
}

// appendKeywords merges matched substrings, deduplicated, each longer than
// two characters, capped at maxKeywords.
func appendKeywords(existing []string, matches []string) []string {
	for _, m := range matches {
		m = strings.TrimSpace(m)
		if len(m) < minKeywordLen {
			continue
		}
		dup := false
		for _, k := range existing {
			if k == m {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		if len(existing) >= maxKeywords {
			return existing
		}
		existing = append(existing, m)
	}
	return existing
}

// Classify scores the query against all categories and returns the winning
// intent. An empty query classifies as general with confidence 0; any result
// below the general threshold is reclassified as general.
func (c *Classifier) Classify(query string) Intent {
	s := scoreQuery(query)

	top := TypeGeneral
	topScore := 0.0
	for _, t := range AllTypes {
		if s.score[t] > topScore {
			top = t
			topScore = s.score[t]
		}
	}

	confidence := topScore / c.divisor
	if confidence > 1.0 {
		confidence = 1.0
	}

	keywords := s.keywords[top]
	if confidence < c.generalThreshold {
		top = TypeGeneral
		keywords = s.keywords[TypeGeneral]
	}

	it := Intent{
		Type:            top,
		Confidence:      confidence,
		MatchedKeywords: keywords,
	}
	// Control commands always act on current state even though the
	// freshness predicate itself only covers location/maintenance.
	it.RequiresFreshData = requiresFresh(it, query) || top == TypeControl
	it.RequiresHistory = requiresHistory(top)

	log.WithFields(log.Fields{
		"intent":     it.Type.String(),
		"confidence": it.Confidence,
	}).Debug("classified query")
	return it
}

// ClassifyConversation aggregates per-message intents with linearly
// increasing recency weights (the most recent message weighs most) and
// renormalizes by the maximum attainable weighted score.
func (c *Classifier) ClassifyConversation(messages []string) Intent {
	if len(messages) == 0 {
		return c.Classify("")
	}

	weighted := make(map[Type]float64, len(AllTypes))
	keywords := make(map[Type][]string, len(AllTypes))
	totalWeight := 0.0
	for i, msg := range messages {
		w := float64(i + 1)
		totalWeight += w
		s := scoreQuery(msg)
		for _, t := range AllTypes {
			weighted[t] += w * s.score[t]
			keywords[t] = appendKeywords(keywords[t], s.keywords[t])
		}
	}

	top := TypeGeneral
	topScore := 0.0
	for _, t := range AllTypes {
		if weighted[t] > topScore {
			top = t
			topScore = weighted[t]
		}
	}

	confidence := topScore / (c.divisor * totalWeight)
	if confidence > 1.0 {
		confidence = 1.0
	}

	kw := keywords[top]
	if confidence < c.generalThreshold {
		top = TypeGeneral
		kw = keywords[TypeGeneral]
	}

	it := Intent{
		Type:            top,
		Confidence:      confidence,
		MatchedKeywords: kw,
	}
	it.RequiresFreshData = it.Type == TypeLocation || it.Type == TypeMaintenance || it.Type == TypeControl
	it.RequiresHistory = requiresHistory(top)
	return it
}

// RequiresFreshData reports whether the query must be answered from live
// telemetry: a location or maintenance intent with confidence above 0.5, or
// any query carrying an explicit real-time marker.
func (c *Classifier) RequiresFreshData(query string) bool {
	return requiresFresh(c.Classify(query), query)
}

func requiresFresh(it Intent, query string) bool {
	if (it.Type == TypeLocation || it.Type == TypeMaintenance) && it.Confidence > 0.5 {
		return true
	}
	return realtimeMarkers.MatchString(strings.ToLower(query))
}

func requiresHistory(t Type) bool {
	switch t {
	case TypeTrip, TypeStats, TypeHistory, TypeDriver:
		return true
	}
	return false
}
