package config

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a config file when it changes on disk
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	getenv   func(string) string
	onChange func(*Config)
	stdout   io.Writer
	stderr   io.Writer

	// Rapid changes are coalesced into one reload after debounce
	mu       sync.Mutex
	debounce time.Duration
	timer    *time.Timer
	reloads  uint64
}

// NewWatcher creates a watcher for the config file at path. onChange is
// called with each successfully reloaded config; a file that fails to
// load is reported and the previous config stays in effect.
func NewWatcher(path string, getenv func(string) string, onChange func(*Config), stdout, stderr io.Writer) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:  fsWatcher,
		path:     path,
		getenv:   getenv,
		onChange: onChange,
		stdout:   stdout,
		stderr:   stderr,
		debounce: 100 * time.Millisecond,
	}, nil
}

// Start begins watching the config file's directory
func (w *Watcher) Start(ctx context.Context) error {
	// Editors often replace the file rather than write it, so watch the directory
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	w.logInfo("watching config: %s", w.path)

	go w.eventLoop(ctx)

	return nil
}

// eventLoop processes file system events
func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			// A truncate and the following write arrive as separate events;
			// reload once they have settled.
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.timer = time.AfterFunc(w.debounce, w.reload)
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logError("watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadFile(w.path, w.getenv)
	if err != nil {
		w.logError("config not reloaded: %v", err)
		return
	}

	w.mu.Lock()
	w.reloads++
	w.mu.Unlock()

	w.logInfo("config reloaded: %s", w.path)
	for _, warning := range Warnings(cfg) {
		w.logInfo("warning: %s", warning)
	}

	if w.onChange != nil {
		w.onChange(cfg)
	}
}

// Reloads returns how many times the config has been reloaded
func (w *Watcher) Reloads() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

// Close stops the watcher
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.watcher.Close()
}

func (w *Watcher) logInfo(format string, args ...any) {
	fmt.Fprintf(w.stdout, "[WATCH] "+format+"\n", args...)
}

func (w *Watcher) logError(format string, args ...any) {
	fmt.Fprintf(w.stderr, "[WATCH ERROR] "+format+"\n", args...)
}
