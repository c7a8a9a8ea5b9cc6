// Copyright 2026 The FleetGlass Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package routing

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/goccy/go-yaml"
	log "github.com/sirupsen/logrus"
)

// SteeringRule is an operator-defined routing override. The condition is
// an expr expression over SteeringContext; when it holds, the rule may
// force the cache strategy or the priority of a decision. Rules never
// remove required data sources.
type SteeringRule struct {
	Name          string `yaml:"name" json:"name"`
	Description   string `yaml:"description,omitempty" json:"description,omitempty"`
	Condition     string `yaml:"condition" json:"condition"`
	Priority      int    `yaml:"priority" json:"priority"`
	CacheStrategy string `yaml:"cache_strategy,omitempty" json:"cache_strategy,omitempty"`
	QueryPriority string `yaml:"query_priority,omitempty" json:"query_priority,omitempty"`
}

// steeringFile is the YAML document shape of a rules file.
type steeringFile struct {
	Rules []SteeringRule `yaml:"rules"`
}

// SteeringContext is the evaluation environment for rule conditions.
type SteeringContext struct {
	Intent      string  `expr:"intent"`
	Confidence  float64 `expr:"confidence"`
	EntityID    string  `expr:"entity_id"`
	QueryLength int     `expr:"query_length"`
	Hour        int     `expr:"hour"`
	DayOfWeek   string  `expr:"day_of_week"`
}

// SteeringEngine evaluates steering rules against routing decisions.
// Compiled programs are kept alongside the rules and swapped atomically
// on reload.
type SteeringEngine struct {
	mu       sync.RWMutex
	rules    []SteeringRule
	programs map[string]*vm.Program
}

// NewSteeringEngine creates an engine with no rules; Apply is a no-op
// until LoadFile or SetRules installs some.
func NewSteeringEngine() *SteeringEngine {
	return &SteeringEngine{programs: make(map[string]*vm.Program)}
}

// LoadFile reads and compiles a YAML rules file, replacing the current
// rule set. Rules that fail to compile are skipped with a warning.
func (e *SteeringEngine) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read steering rules: %w", err)
	}
	var doc steeringFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse steering rules: %w", err)
	}
	e.SetRules(doc.Rules)
	return nil
}

// SetRules compiles and installs the given rules, highest priority first.
func (e *SteeringEngine) SetRules(rules []SteeringRule) {
	programs := make(map[string]*vm.Program, len(rules))
	kept := make([]SteeringRule, 0, len(rules))
	for _, r := range rules {
		if r.Condition == "" {
			log.WithField("rule", r.Name).Warn("steering rule without condition skipped")
			continue
		}
		program, err := expr.Compile(r.Condition, expr.Env(SteeringContext{}), expr.AsBool())
		if err != nil {
			log.WithField("rule", r.Name).WithError(err).Warn("steering rule failed to compile")
			continue
		}
		programs[r.Name] = program
		kept = append(kept, r)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Priority > kept[j].Priority })

	e.mu.Lock()
	e.rules = kept
	e.programs = programs
	e.mu.Unlock()
	log.WithField("count", len(kept)).Info("steering rules loaded")
}

// RuleCount returns the number of active rules.
func (e *SteeringEngine) RuleCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.rules)
}

// Apply evaluates the rules in priority order and applies the first one
// whose condition holds. Evaluation errors skip the rule.
func (e *SteeringEngine) Apply(d RoutingDecision, ctx SteeringContext) RoutingDecision {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, r := range e.rules {
		program := e.programs[r.Name]
		if program == nil {
			continue
		}
		out, err := expr.Run(program, ctx)
		if err != nil {
			log.WithField("rule", r.Name).WithError(err).Warn("steering condition failed")
			continue
		}
		if ok, _ := out.(bool); !ok {
			continue
		}

		if r.CacheStrategy != "" {
			d.CacheStrategy = CacheStrategy(r.CacheStrategy)
		}
		if r.QueryPriority != "" {
			d.Priority = Priority(r.QueryPriority)
		}
		d.SteeredBy = r.Name
		log.WithFields(log.Fields{"rule": r.Name, "intent": ctx.Intent}).Debug("steering rule applied")
		return d
	}
	return d
}
