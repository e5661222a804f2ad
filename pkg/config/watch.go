// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package config

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher reloads a config file whenever it changes on disk, giving a
// RECONFIGURE command from the control plane a filesystem signal to
// revalidate against in addition to an explicit reload call.
type Watcher struct {
	path    string
	fsw     *fsnotify.Watcher
	onReady func(*Config)
	log     *logrus.Entry
}

// NewWatcher starts watching path. onChange is invoked with the newly
// parsed config every time the file is written or created. A reload that fails validation is logged and the previous
// config stays in effect.
func NewWatcher(path string, onChange func(*Config)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create watcher: %w", err)
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}

	w := &Watcher{
		path:    path,
		fsw:     fsw,
		onReady: onChange,
		log:     logrus.WithField("component", "config-watcher"),
	}
	return w, nil
}

// Run processes filesystem events until Close is called. It should run
// in its own goroutine.
func (w *Watcher) Run() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("config watcher error")
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadFromFile(w.path)
	if err != nil {
		w.log.WithError(err).Warn("config file changed but failed to reload, keeping previous configuration")
		return
	}
	w.log.Info("configuration reloaded from disk")
	w.onReady(cfg)
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
