// Package watcher watches the projects root so the menu can be rebuilt when
// projects appear, disappear, or change their scripts.
package watcher

import (
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/runbar-app/runbar/internal/daemon/project"
)

const debounceDelay = 100 * time.Millisecond

// Watcher watches the projects root and its direct subdirectories.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	changes   chan struct{}
	done      chan struct{}
	stopOnce  sync.Once

	mu      sync.Mutex
	root    string
	watched map[string]bool

	debounceMu sync.Mutex
	debounce   *time.Timer
}

// New creates a new file system watcher.
func New() (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		changes:   make(chan struct{}, 1),
		done:      make(chan struct{}),
		watched:   make(map[string]bool),
	}, nil
}

// Changes returns a channel that receives a value after relevant changes.
// Bursts of events are coalesced into one notification.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Start starts processing events.
func (w *Watcher) Start() {
	go w.processEvents()
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.fsWatcher.Close()

		w.debounceMu.Lock()
		if w.debounce != nil {
			w.debounce.Stop()
		}
		w.debounceMu.Unlock()
	})
}

// Root returns the directory currently watched.
func (w *Watcher) Root() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.root
}

// SetRoot replaces the watched projects root. An empty root stops watching.
func (w *Watcher) SetRoot(root string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path := range w.watched {
		_ = w.fsWatcher.Remove(path)
	}
	w.watched = make(map[string]bool)
	w.root = root

	if root == "" {
		return nil
	}

	if err := w.addLocked(root); err != nil {
		return err
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if err := w.addLocked(dir); err != nil {
			log.Printf("[watcher] Warning: failed to watch %s: %v", dir, err)
		}
	}

	log.Printf("[watcher] Watching projects root %s (%d entries)", root, len(w.watched))
	return nil
}

func (w *Watcher) addLocked(path string) error {
	if err := w.fsWatcher.Add(path); err != nil {
		return err
	}
	w.watched[path] = true
	return nil
}

// processEvents processes file system events.
func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Printf("[watcher] Watcher error: %v", err)
		}
	}
}

// handleEvent decides whether an event can change the project list.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}

	w.mu.Lock()
	root := w.root
	dir := filepath.Dir(event.Name)
	relevant := false

	switch {
	case dir == root:
		// A project directory (or a stray file) was added, removed, or renamed.
		relevant = true
		if event.Op&fsnotify.Create != 0 {
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if err := w.addLocked(event.Name); err != nil {
					log.Printf("[watcher] Warning: failed to watch %s: %v", event.Name, err)
				}
			}
		}
		if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
			delete(w.watched, event.Name)
		}
	case w.watched[dir]:
		name := filepath.Base(event.Name)
		relevant = name == project.ManifestFileName || name == project.IgnoreFileName
	}
	w.mu.Unlock()

	if relevant {
		w.notifyDebounced()
	}
}

// notifyDebounced sends one notification after events stop arriving.
func (w *Watcher) notifyDebounced() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(debounceDelay, func() {
		select {
		case <-w.done:
			return
		default:
		}
		select {
		case w.changes <- struct{}{}:
		default:
			// A notification is already pending
		}
	})
}
