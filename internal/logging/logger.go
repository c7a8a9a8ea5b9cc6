// Copyright 2026 The FleetGlass Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package logging configures the process-wide logrus logger with the
// cortex log format and optional rotating file output.
package logging

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var setupOnce sync.Once

// Formatter renders entries as:
// [2026-01-15 10:00:00] [a1b2c3d4] [info ] classified query | intent=trip
type Formatter struct{}

// Format renders a single log entry.
func (f *Formatter) Format(entry *log.Entry) ([]byte, error) {
	var buffer *bytes.Buffer
	if entry.Buffer != nil {
		buffer = entry.Buffer
	} else {
		buffer = &bytes.Buffer{}
	}

	timestamp := entry.Time.Format("2006-01-02 15:04:05")
	message := strings.TrimRight(entry.Message, "\r\n")

	reqID := "--------"
	if id, ok := entry.Data["request_id"].(string); ok && id != "" {
		reqID = id
	}

	level := entry.Level.String()
	if level == "warning" {
		level = "warn"
	}

	formatted := fmt.Sprintf("[%s] [%s] [%-5s] %s", timestamp, reqID, level, message)

	extra := false
	for k, v := range entry.Data {
		if k == "request_id" {
			continue
		}
		if !extra {
			formatted += " |"
			extra = true
		} else {
			formatted += ","
		}
		formatted += fmt.Sprintf(" %s=%v", k, v)
	}
	formatted += "\n"

	buffer.WriteString(formatted)
	return buffer.Bytes(), nil
}

// Setup configures the global logger. When toFile is set, output goes to
// a rotating file under logsDir; otherwise it stays on stdout.
func Setup(debug, toFile bool, logsDir string) {
	setupOnce.Do(func() {
		log.SetFormatter(&Formatter{})

		if debug {
			log.SetLevel(log.DebugLevel)
		} else {
			log.SetLevel(log.InfoLevel)
		}

		if toFile {
			log.SetOutput(&lumberjack.Logger{
				Filename:   filepath.Join(logsDir, "cortex.log"),
				MaxSize:    20, // megabytes
				MaxBackups: 5,
				MaxAge:     14, // days
				Compress:   true,
			})
		}
	})
}
