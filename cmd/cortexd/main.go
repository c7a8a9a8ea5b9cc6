// Copyright 2026 The FleetGlass Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command cortexd runs the administrative/debug surface of the cortex
// decision core: cache invalidation, cache metrics and dry-run endpoints
// for classification, routing and date resolution. It is an operator
// tool; the production integration consumes the core as a library.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/fleetglass/cortex/internal/config"
	"github.com/fleetglass/cortex/internal/core"
	"github.com/fleetglass/cortex/internal/logging"
	"github.com/fleetglass/cortex/internal/telemetry"
	"github.com/fleetglass/cortex/internal/temporal"
)

// nullProvider backs the admin surface; the dry-run endpoints never fetch
// real telemetry.
type nullProvider struct{}

func (nullProvider) Trips(context.Context, string, time.Time, time.Time, int) ([]telemetry.Trip, error) {
	return nil, nil
}

func (nullProvider) Positions(context.Context, string, time.Time, time.Time, int) ([]telemetry.Position, error) {
	return nil, nil
}

func (nullProvider) Source(context.Context, string, string) (any, error) {
	return map[string]any{}, nil
}

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	addr := flag.String("addr", ":8790", "listen address")
	flag.Parse()

	// .env is optional; environment wins over file values.
	_ = godotenv.Load()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cortexd: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	logging.Setup(cfg.Debug, cfg.LoggingToFile, cfg.LogsDir)

	var fallback temporal.FallbackResolver
	if cfg.Temporal.FallbackEnabled && cfg.Temporal.FallbackEndpoint != "" {
		fallback = temporal.NewLLMResolver(
			cfg.Temporal.FallbackEndpoint,
			os.Getenv("CORTEX_FALLBACK_API_KEY"),
			cfg.Temporal.FallbackModel,
		)
	}

	engine, err := core.New(cfg, nullProvider{}, fallback)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cortexd: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/v1/cache/metrics", func(c *gin.Context) {
		body, err := json.Marshal(engine.Cache().GetMetrics())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/json", body)
	})

	// Administrative invalidation hook: entity id plus optional period tag.
	router.DELETE("/v1/cache/:entity", func(c *gin.Context) {
		var periods []temporal.Period
		if p := c.Query("period"); p != "" {
			periods = append(periods, temporal.Period(p))
		}
		removed := engine.InvalidateEntity(c.Param("entity"), periods...)
		c.JSON(http.StatusOK, gin.H{"removed": removed})
	})

	router.POST("/v1/debug/route", func(c *gin.Context) {
		var req struct {
			Query    string `json:"query" binding:"required"`
			EntityID string `json:"entity_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, engine.Router().Route(req.Query, req.EntityID))
	})

	router.POST("/v1/debug/resolve", func(c *gin.Context) {
		var req struct {
			Query    string `json:"query" binding:"required"`
			Timezone string `json:"timezone"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var opts []temporal.Option
		if req.Timezone != "" {
			opts = append(opts, temporal.WithTimezone(req.Timezone))
		}
		c.JSON(http.StatusOK, engine.Resolver().Resolve(c.Request.Context(), req.Query, opts...))
	})

	log.WithField("addr", *addr).Info("cortexd listening")
	if err := router.Run(*addr); err != nil {
		fmt.Fprintf(os.Stderr, "cortexd: %v\n", err)
		os.Exit(1)
	}
}
