// Package watcher watches the OpenClaw config document and the
// auth-profiles store for external edits. It supports cross-platform
// fsnotify event handling.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Kind identifies which watched document changed.
type Kind string

const (
	KindConfig       Kind = "config"
	KindAuthProfiles Kind = "auth-profiles"
)

// Event is one observed change to a watched document.
type Event struct {
	Kind Kind
	Path string
	// Removed is true when the file disappeared and did not reappear
	// within the replace-detection window.
	Removed bool
}

const (
	// replaceCheckDelay is a short delay to allow atomic replace (rename)
	// to settle before deciding whether a Remove event indicates a real
	// deletion.
	replaceCheckDelay = 50 * time.Millisecond
	changeDebounce    = 150 * time.Millisecond
)

// Watcher observes the config and auth-profiles files and delivers
// debounced change events to a callback.
type Watcher struct {
	configPath       string
	authProfilesPath string
	callback         func(Event)
	watcher          *fsnotify.Watcher

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewWatcher creates a watcher for the given document paths. Events are
// delivered on the watcher's own goroutine; callbacks must not block.
func NewWatcher(configPath, authProfilesPath string, callback func(Event)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		configPath:       configPath,
		authProfilesPath: authProfilesPath,
		callback:         callback,
		watcher:          fsWatcher,
		timers:           make(map[string]*time.Timer),
	}, nil
}

// Start begins watching. Both parent directories are watched, not the
// files themselves, because editors and the CLI replace these files with
// rename which drops file-level watches.
func (w *Watcher) Start(ctx context.Context) error {
	dirs := map[string]struct{}{
		filepath.Dir(w.configPath):       {},
		filepath.Dir(w.authProfilesPath): {},
	}
	for dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Warnf("watcher: cannot create %s: %v", dir, err)
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			return err
		}
		log.Debugf("watching directory: %s", dir)
	}

	go w.loop(ctx)
	return nil
}

// Stop stops the file watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()
	return w.watcher.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, open := <-w.watcher.Events:
			if !open {
				return
			}
			w.handle(event)
		case err, open := <-w.watcher.Errors:
			if !open {
				return
			}
			log.Warnf("watcher error: %v", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	kind, matched := w.classify(event.Name)
	if !matched {
		return
	}

	if event.Op&fsnotify.Remove != 0 || event.Op&fsnotify.Rename != 0 {
		// Atomic replaces surface as Remove followed by Create. Wait
		// before declaring the file gone.
		path := event.Name
		time.AfterFunc(replaceCheckDelay, func() {
			if _, err := os.Stat(path); os.IsNotExist(err) {
				w.callback(Event{Kind: kind, Path: path, Removed: true})
			} else {
				w.debounced(kind, path)
			}
		})
		return
	}

	if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
		w.debounced(kind, event.Name)
	}
}

// debounced coalesces the burst of Write events most editors emit into a
// single callback per document.
func (w *Watcher) debounced(kind Kind, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, pending := w.timers[path]; pending {
		timer.Reset(changeDebounce)
		return
	}
	w.timers[path] = time.AfterFunc(changeDebounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		log.Debugf("%s document changed: %s", kind, path)
		w.callback(Event{Kind: kind, Path: path})
	})
}

func (w *Watcher) classify(path string) (Kind, bool) {
	switch filepath.Clean(path) {
	case filepath.Clean(w.configPath):
		return KindConfig, true
	case filepath.Clean(w.authProfilesPath):
		return KindAuthProfiles, true
	}
	return "", false
}
