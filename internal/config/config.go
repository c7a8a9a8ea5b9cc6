// Copyright 2026 The FleetGlass Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads the cortex configuration from a YAML file and
// provides defaults for every tunable so an empty file is a valid
// configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration, loaded from a YAML file.
type Config struct {
	// Timezone is the operational default IANA timezone used when a
	// request does not carry one.
	Timezone string `yaml:"timezone"`

	// Debug enables debug-level logging.
	Debug bool `yaml:"debug"`

	// LoggingToFile writes logs to rotating files instead of stdout.
	LoggingToFile bool `yaml:"logging-to-file"`

	// LogsDir is the directory for rotating log files.
	LogsDir string `yaml:"logs-dir"`

	Classifier ClassifierConfig `yaml:"classifier"`
	Temporal   TemporalConfig   `yaml:"temporal"`
	Cache      CacheConfig      `yaml:"cache"`
	Steering   SteeringConfig   `yaml:"steering"`
}

// ClassifierConfig tunes the intent classifier.
type ClassifierConfig struct {
	// ScoreDivisor normalizes the accumulated pattern score into a
	// confidence; it approximates a strong multi-pattern match.
	ScoreDivisor float64 `yaml:"score-divisor"`

	// GeneralThreshold is the confidence below which queries fall back
	// to the general category.
	GeneralThreshold float64 `yaml:"general-threshold"`
}

// TemporalConfig tunes the date resolver and its model-backed fallback.
type TemporalConfig struct {
	// FallbackEnabled toggles the model-backed resolver for ambiguous
	// phrasing. The fast path always runs.
	FallbackEnabled bool `yaml:"fallback-enabled"`

	// FallbackEndpoint is an OpenAI-compatible chat-completions URL.
	FallbackEndpoint string `yaml:"fallback-endpoint"`

	// FallbackModel names the extraction model.
	FallbackModel string `yaml:"fallback-model"`

	// FallbackTimeoutSeconds bounds one fallback call.
	FallbackTimeoutSeconds int `yaml:"fallback-timeout-seconds"`
}

// CacheConfig tunes the result cache.
type CacheConfig struct {
	// MaxEntries is the entry count that triggers the lazy sweep.
	MaxEntries int `yaml:"max-entries"`

	// TTLSeconds overrides the per-period TTLs, keyed by period tag.
	TTLSeconds map[string]int `yaml:"ttl-seconds"`
}

// SteeringConfig points at the optional routing override rules.
type SteeringConfig struct {
	// RulesFile is a YAML file of steering rules; empty disables steering.
	RulesFile string `yaml:"rules-file"`

	// Watch hot-reloads the rules file on change.
	Watch bool `yaml:"watch"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Timezone: "UTC",
		LogsDir:  "logs",
		Classifier: ClassifierConfig{
			ScoreDivisor:     50,
			GeneralThreshold: 0.15,
		},
		Temporal: TemporalConfig{
			FallbackTimeoutSeconds: 15,
		},
		Cache: CacheConfig{
			MaxEntries: 100,
		},
	}
}

// Load reads the YAML file at path over the defaults. A missing file is
// an error; use Default for a file-less setup.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	if cfg.Classifier.ScoreDivisor <= 0 {
		cfg.Classifier.ScoreDivisor = 50
	}
	if cfg.Classifier.GeneralThreshold <= 0 {
		cfg.Classifier.GeneralThreshold = 0.15
	}
	if cfg.Temporal.FallbackTimeoutSeconds <= 0 {
		cfg.Temporal.FallbackTimeoutSeconds = 15
	}
	if cfg.Cache.MaxEntries <= 0 {
		cfg.Cache.MaxEntries = 100
	}
	return cfg, nil
}
