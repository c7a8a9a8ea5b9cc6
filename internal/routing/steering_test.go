// Copyright 2026 The FleetGlass Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package routing

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetglass/cortex/internal/intent"
)

func statsDecision() (RoutingDecision, SteeringContext) {
	d := RoutingDecision{
		Intent:        intent.Intent{Type: intent.TypeStats, Confidence: 0.5},
		CacheStrategy: CacheCached,
		Priority:      PriorityLow,
	}
	ctx := SteeringContext{
		Intent:      "stats",
		Confidence:  0.5,
		EntityID:    "veh-1",
		QueryLength: 30,
		Hour:        14,
		DayOfWeek:   "Monday",
	}
	return d, ctx
}

func TestSteering_ApplyMatchingRule(t *testing.T) {
	e := NewSteeringEngine()
	e.SetRules([]SteeringRule{{
		Name:          "fresh-stats",
		Condition:     `intent == "stats" && confidence > 0.3`,
		CacheStrategy: "fresh",
		QueryPriority: "high",
	}})

	d, ctx := statsDecision()
	out := e.Apply(d, ctx)

	assert.Equal(t, CacheFresh, out.CacheStrategy)
	assert.Equal(t, PriorityHigh, out.Priority)
	assert.Equal(t, "fresh-stats", out.SteeredBy)
}

func TestSteering_NoMatchLeavesDecisionAlone(t *testing.T) {
	e := NewSteeringEngine()
	e.SetRules([]SteeringRule{{
		Name:          "night-only",
		Condition:     `hour >= 22`,
		CacheStrategy: "fresh",
	}})

	d, ctx := statsDecision()
	out := e.Apply(d, ctx)

	assert.Equal(t, CacheCached, out.CacheStrategy)
	assert.Empty(t, out.SteeredBy)
}

func TestSteering_HighestPriorityWins(t *testing.T) {
	e := NewSteeringEngine()
	e.SetRules([]SteeringRule{
		{Name: "low", Condition: `true`, Priority: 1, QueryPriority: "low"},
		{Name: "high", Condition: `true`, Priority: 10, QueryPriority: "high"},
	})

	d, ctx := statsDecision()
	out := e.Apply(d, ctx)

	assert.Equal(t, "high", out.SteeredBy)
	assert.Equal(t, PriorityHigh, out.Priority)
}

func TestSteering_InvalidRulesSkipped(t *testing.T) {
	e := NewSteeringEngine()
	e.SetRules([]SteeringRule{
		{Name: "broken", Condition: `intent ==`},
		{Name: "no-condition"},
		{Name: "ok", Condition: `true`, CacheStrategy: "hybrid"},
	})

	assert.Equal(t, 1, e.RuleCount())

	d, ctx := statsDecision()
	out := e.Apply(d, ctx)
	assert.Equal(t, "ok", out.SteeredBy)
}

const testRulesYAML = `rules:
  - name: weekend-cached
    description: weekend queries tolerate staleness
    condition: day_of_week == "Saturday" || day_of_week == "Sunday"
    priority: 5
    cache_strategy: cached
  - name: short-query-fresh
    condition: query_length < 10
    priority: 1
    cache_strategy: fresh
`

func TestSteering_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steering.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testRulesYAML), 0o644))

	e := NewSteeringEngine()
	require.NoError(t, e.LoadFile(path))
	assert.Equal(t, 2, e.RuleCount())

	d, ctx := statsDecision()
	ctx.DayOfWeek = "Saturday"
	out := e.Apply(d, ctx)
	assert.Equal(t, "weekend-cached", out.SteeredBy)
}

func TestSteering_LoadFileErrors(t *testing.T) {
	e := NewSteeringEngine()

	assert.Error(t, e.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules: {not a list"), 0o644))
	assert.Error(t, e.LoadFile(path))
}

func TestRulesWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "steering.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testRulesYAML), 0o644))

	e := NewSteeringEngine()
	require.NoError(t, e.LoadFile(path))
	require.Equal(t, 2, e.RuleCount())

	w, err := NewRulesWatcher(e, path)
	require.NoError(t, err)
	defer w.Close()

	updated := `rules:
  - name: only-rule
    condition: "true"
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	assert.Eventually(t, func() bool {
		return e.RuleCount() == 1
	}, 5*time.Second, 50*time.Millisecond)
}
