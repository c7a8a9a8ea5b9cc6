// Copyright 2026 The FleetGlass Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package routing

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

const reloadDebounce = 500 * time.Millisecond

// RulesWatcher hot-reloads a steering rules file when it changes on disk.
// Editors often replace files instead of writing in place, so the parent
// directory is watched and events are filtered by name.
type RulesWatcher struct {
	engine  *SteeringEngine
	path    string
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewRulesWatcher starts watching the rules file and returns the running
// watcher. The initial load must already have happened; the watcher only
// handles subsequent changes.
func NewRulesWatcher(engine *SteeringEngine, path string) (*RulesWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create rules watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch rules directory: %w", err)
	}

	w := &RulesWatcher{
		engine:  engine,
		path:    path,
		watcher: fsw,
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *RulesWatcher) run() {
	var timer *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			// Debounce bursts of events for a single save.
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.WithError(err).Warn("steering rules watcher error")
		case <-reload:
			if err := w.engine.LoadFile(w.path); err != nil {
				log.WithError(err).Warn("steering rules reload failed, keeping previous rules")
			}
		}
	}
}

// Close stops the watcher.
func (w *RulesWatcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
