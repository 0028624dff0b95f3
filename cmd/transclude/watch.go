package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce coalesces editor save bursts into one rebuild.
const defaultDebounce = 300 * time.Millisecond

// treeWatcher monitors a directory tree and signals after changes settle.
type treeWatcher struct {
	fsWatcher *fsnotify.Watcher
	root      string
	debounce  time.Duration
	ignore    func(path string) bool
	onChange  chan struct{}
	errs      chan error
	done      chan struct{}
}

// newTreeWatcher creates a watcher for root. Events on paths for which
// ignore returns true (e.g. build outputs) never trigger a change.
func newTreeWatcher(root string, debounce time.Duration, ignore func(string) bool) (*treeWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if ignore == nil {
		ignore = func(string) bool { return false }
	}

	return &treeWatcher{
		fsWatcher: fsw,
		root:      root,
		debounce:  debounce,
		ignore:    ignore,
		onChange:  make(chan struct{}, 1),
		errs:      make(chan error, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start watches root and every directory below it. The returned channel
// receives a signal when files change; Errors reports watcher failures.
func (w *treeWatcher) Start() (<-chan struct{}, error) {
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() || w.ignore(path) {
			return nil
		}
		if err := w.fsWatcher.Add(path); err != nil {
			return fmt.Errorf("watching directory %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	go w.loop()

	return w.onChange, nil
}

// Errors returns watcher errors. Only the latest unread error is kept.
func (w *treeWatcher) Errors() <-chan error {
	return w.errs
}

// Stop terminates the watcher and releases resources.
func (w *treeWatcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

// loop processes file system events with debouncing.
func (w *treeWatcher) loop() {
	var (
		timer   *time.Timer
		pending bool
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isRelevantEvent(event) {
				continue
			}

			// New directories need their own watch.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.fsWatcher.Add(event.Name)
				}
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = true

		case <-timerC(timer):
			if pending {
				// Non-blocking send - drop if a change is already queued
				select {
				case w.onChange <- struct{}{}:
				default:
				}
				pending = false
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isRelevantEvent checks if the event should trigger a rebuild.
func (w *treeWatcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return !w.ignore(event.Name)
}

// timerC returns the channel of t, or nil (blocks forever) when t is nil.
func timerC(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}
